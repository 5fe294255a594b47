package sweep

import (
	"github.com/chewxy/math32"
)

// Below this, the rectangle center sits on the vertical line through the pivot
const singularSin = 1e-6

// Project moves a rectangle from its anchor frame to the target frame.
//
// The camera sits at a fixed distance (Radius) from a rotation axis, and sweeps
// linearly through MaxAngle degrees over the clip. The rectangle's center is
// expressed in polar coordinates around a virtual pivot at (halfW, Radius + halfH),
// rotated by the angle difference between the two frames, and converted back.
// Width and height are preserved; only the center moves.
//
// The caller chooses the space. Display-space results are the source-space
// projection passed through Scale, so that what is drawn is what gets exported.
func Project(r Rectangle, targetFrame int, c *Calibration, space Space) ProjectedRectangle {
	p := projectSource(r, targetFrame, c)
	if space == SpaceDisplay {
		p, _ = c.Scale(p)
	}
	return p
}

func projectSource(r Rectangle, targetFrame int, c *Calibration) ProjectedRectangle {
	halfW, halfH := c.view.Source.Half()
	radius := c.params.Radius

	boxW := float32(r.Width())
	boxH := float32(r.Height())
	x := float32(r.TopLeft.X) + boxW/2
	y := float32(r.TopLeft.Y) + boxH/2

	dx := halfW - x
	dy := radius + halfH - y

	gamma0 := math32.Atan2(dx, dy)
	sin0 := math32.Sin(gamma0)
	var polarRadius float32
	if math32.Abs(sin0) < singularSin {
		// dx / sin(gamma0) tends to the radial distance as gamma0 tends to zero
		polarRadius = math32.Abs(dy)
	} else {
		polarRadius = dx / sin0
	}

	delta := c.AngleAt(targetFrame) - c.AngleAt(r.AnchorFrame)
	gamma1 := gamma0 + delta*math32.Pi/180

	x1 := halfW - math32.Sin(gamma1)*polarRadius
	y1 := radius + halfH - math32.Cos(gamma1)*polarRadius

	left := roundi(x1 - boxW/2)
	top := roundi(y1 - boxH/2)
	return ProjectedRectangle{
		Left:     left,
		Top:      top,
		Right:    left + r.Width(),
		Bottom:   top + r.Height(),
		Category: r.Category,
		Space:    SpaceSource,
	}
}

// IsVisible returns true if every edge of the rectangle lies strictly inside the
// open rectangle (0,0)-(w,h). Partially visible rectangles are not visible.
func IsVisible(p ProjectedRectangle, dims Size) bool {
	return p.Left > 0 && p.Left < dims.Width &&
		p.Right > 0 && p.Right < dims.Width &&
		p.Top > 0 && p.Top < dims.Height &&
		p.Bottom > 0 && p.Bottom < dims.Height
}

// Cull drops rectangles that are not entirely inside the frame. Nothing is clipped.
func Cull(list []ProjectedRectangle, dims Size) []ProjectedRectangle {
	visible := make([]ProjectedRectangle, 0, len(list))
	for _, p := range list {
		if IsVisible(p, dims) {
			visible = append(visible, p)
		}
	}
	return visible
}
