package sweep

import (
	"errors"
	"fmt"
)

var ErrEmptyStore = errors.New("No rectangles to remove")
var ErrInvalidGeometry = errors.New("Rectangle has zero area")
var ErrInvalidAnchor = errors.New("Anchor frame is outside of the video")

// Store holds the rectangles drawn on one video, in the order they were drawn.
// Rectangles are immutable once added. The only way to change the set is to
// remove the most recent one.
type Store struct {
	totalFrames int
	rects       []Rectangle
}

func NewStore(totalFrames int) *Store {
	return &Store{
		totalFrames: totalFrames,
	}
}

// Add normalizes the two corners (so drag direction doesn't matter) and appends the rectangle.
func (s *Store) Add(corner1, corner2 Point, anchorFrame int, category Category) (Rectangle, error) {
	tl, br := Normalize(corner1, corner2)
	if tl.X == br.X || tl.Y == br.Y {
		return Rectangle{}, fmt.Errorf("%w: corners (%v,%v) and (%v,%v)", ErrInvalidGeometry, corner1.X, corner1.Y, corner2.X, corner2.Y)
	}
	if anchorFrame < 0 || anchorFrame >= s.totalFrames {
		return Rectangle{}, fmt.Errorf("%w: frame %v, video has %v frames", ErrInvalidAnchor, anchorFrame, s.totalFrames)
	}
	if !category.Valid() {
		return Rectangle{}, fmt.Errorf("Invalid category %v", int(category))
	}
	r := Rectangle{
		TopLeft:     tl,
		BottomRight: br,
		AnchorFrame: anchorFrame,
		Category:    category,
	}
	s.rects = append(s.rects, r)
	return r, nil
}

// RemoveLast pops the most recently added rectangle
func (s *Store) RemoveLast() (Rectangle, error) {
	if len(s.rects) == 0 {
		return Rectangle{}, ErrEmptyStore
	}
	last := s.rects[len(s.rects)-1]
	s.rects = s.rects[:len(s.rects)-1]
	return last, nil
}

// List returns a copy of the rectangles, in insertion order
func (s *Store) List() []Rectangle {
	return append([]Rectangle(nil), s.rects...)
}

func (s *Store) Len() int {
	return len(s.rects)
}

func (s *Store) TotalFrames() int {
	return s.totalFrames
}

// ProjectAll projects every rectangle onto the target frame, in insertion order.
// Nothing is cached, so calibration changes are always reflected.
func (s *Store) ProjectAll(targetFrame int, c *Calibration, space Space) []ProjectedRectangle {
	out := make([]ProjectedRectangle, 0, len(s.rects))
	for _, r := range s.rects {
		out = append(out, Project(r, targetFrame, c, space))
	}
	return out
}

// VisibleAt projects every rectangle onto the target frame, and drops those that
// are not entirely inside the frame.
func (s *Store) VisibleAt(targetFrame int, c *Calibration, space Space) []ProjectedRectangle {
	return Cull(s.ProjectAll(targetFrame, c, space), c.Dims(space))
}
