package sweep

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Point is a pixel coordinate
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Distance(b Point) float32 {
	return math32.Sqrt(float32((p.X-b.X)*(p.X-b.X) + (p.Y-b.Y)*(p.Y-b.Y)))
}

// Size is the width and height of a frame, in pixels
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) Half() (float32, float32) {
	return float32(s.Width) / 2, float32(s.Height) / 2
}

// Space identifies the coordinate system that a ProjectedRectangle lives in.
type Space int

const (
	SpaceSource  Space = iota // Full video resolution. Used for export.
	SpaceDisplay              // Window resolution. Used for on-screen rendering.
)

func (s Space) String() string {
	switch s {
	case SpaceSource:
		return "source"
	case SpaceDisplay:
		return "display"
	}
	panic("Unknown coordinate space")
}

// Category is the class of object that a rectangle was drawn around
type Category int

const (
	CategoryPrimary   Category = 0
	CategoryAlternate Category = 1
)

func (c Category) Valid() bool {
	return c == CategoryPrimary || c == CategoryAlternate
}

func (c Category) String() string {
	switch c {
	case CategoryPrimary:
		return "primary"
	case CategoryAlternate:
		return "alternate"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Rectangle is a box drawn by the user on one frame of the video.
// Corners are in source space, and TopLeft is strictly above and to the left of BottomRight.
type Rectangle struct {
	TopLeft     Point
	BottomRight Point
	AnchorFrame int // Frame index on which the box was drawn
	Category    Category
}

func (r Rectangle) Width() int {
	return r.BottomRight.X - r.TopLeft.X
}

func (r Rectangle) Height() int {
	return r.BottomRight.Y - r.TopLeft.Y
}

// ProjectedRectangle is the position of a Rectangle on some target frame.
// Only Calibration.Scale and Calibration.Unscale may move it between spaces.
type ProjectedRectangle struct {
	Left     int
	Top      int
	Right    int
	Bottom   int
	Category Category
	Space    Space
}

// BBox returns [left, top, right, bottom]
func (p ProjectedRectangle) BBox() [4]int {
	return [4]int{p.Left, p.Top, p.Right, p.Bottom}
}

// Normalize returns a rectangle whose corners are the min/max of c1 and c2
func Normalize(c1, c2 Point) (topLeft, bottomRight Point) {
	topLeft = Point{X: min(c1.X, c2.X), Y: min(c1.Y, c2.Y)}
	bottomRight = Point{X: max(c1.X, c2.X), Y: max(c1.Y, c2.Y)}
	return
}
