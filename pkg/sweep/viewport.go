package sweep

import (
	"fmt"
)

// Viewport maps between source pixels and a display that is scaled to a given width
type Viewport struct {
	Source  Size
	Display Size
}

// FitWidth returns the viewport that shows source at displayWidth, preserving the
// aspect ratio. If displayWidth is zero, the display is the same size as the source.
func FitWidth(source Size, displayWidth int) (Viewport, error) {
	if source.Width <= 0 || source.Height <= 0 {
		return Viewport{}, fmt.Errorf("%w: invalid source size %v x %v", ErrInvalidCalibration, source.Width, source.Height)
	}
	if displayWidth == 0 {
		return Viewport{Source: source, Display: source}, nil
	}
	if displayWidth < 0 {
		return Viewport{}, fmt.Errorf("%w: display width must be positive (got %v)", ErrInvalidCalibration, displayWidth)
	}
	ratio := float32(displayWidth) / float32(source.Width)
	height := int(float32(source.Height) * ratio)
	if height <= 0 {
		return Viewport{}, fmt.Errorf("%w: display width %v is too small", ErrInvalidCalibration, displayWidth)
	}
	return Viewport{Source: source, Display: Size{Width: displayWidth, Height: height}}, nil
}

// Scale is the ratio of display size to source size
func (v Viewport) Scale() (float32, float32) {
	return float32(v.Display.Width) / float32(v.Source.Width), float32(v.Display.Height) / float32(v.Source.Height)
}

// ToDisplay converts a source-space rectangle into display space
func (v Viewport) ToDisplay(p ProjectedRectangle) (ProjectedRectangle, error) {
	if p.Space != SpaceSource {
		return p, fmt.Errorf("Cannot scale a rectangle that is already in %v space", p.Space)
	}
	sx, sy := v.Scale()
	return ProjectedRectangle{
		Left:     roundi(float32(p.Left) * sx),
		Top:      roundi(float32(p.Top) * sy),
		Right:    roundi(float32(p.Right) * sx),
		Bottom:   roundi(float32(p.Bottom) * sy),
		Category: p.Category,
		Space:    SpaceDisplay,
	}, nil
}

// ToSource converts a display-space rectangle into source space
func (v Viewport) ToSource(p ProjectedRectangle) (ProjectedRectangle, error) {
	if p.Space != SpaceDisplay {
		return p, fmt.Errorf("Cannot unscale a rectangle that is already in %v space", p.Space)
	}
	sx, sy := v.Scale()
	return ProjectedRectangle{
		Left:     roundi(float32(p.Left) / sx),
		Top:      roundi(float32(p.Top) / sy),
		Right:    roundi(float32(p.Right) / sx),
		Bottom:   roundi(float32(p.Bottom) / sy),
		Category: p.Category,
		Space:    SpaceSource,
	}, nil
}

// PointToSource converts a point on the display into source space
func (v Viewport) PointToSource(p Point) Point {
	sx, sy := v.Scale()
	return Point{X: roundi(float32(p.X) / sx), Y: roundi(float32(p.Y) / sy)}
}
