package sweep

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

var ErrInvalidCalibration = errors.New("Invalid calibration")

// CalibrationParams are the tunable values that get persisted in the sidecar file
type CalibrationParams struct {
	Radius         float32 // Distance from the rotation axis to the image plane, in source pixels
	MaxAngle       float32 // Degrees swept across the whole clip
	ExportInterval int     // Export every Nth frame
	ExportOffset   int     // Shifts the export cadence
}

func DefaultCalibrationParams() CalibrationParams {
	return CalibrationParams{
		Radius:         1680,
		MaxAngle:       143,
		ExportInterval: 18,
		ExportOffset:   3,
	}
}

func (p CalibrationParams) Validate() error {
	if !(p.Radius > 0) || math32.IsInf(p.Radius, 0) {
		return fmt.Errorf("%w: radius must be positive (got %v)", ErrInvalidCalibration, p.Radius)
	}
	if math32.IsNaN(p.MaxAngle) || math32.IsInf(p.MaxAngle, 0) {
		return fmt.Errorf("%w: max angle must be finite (got %v)", ErrInvalidCalibration, p.MaxAngle)
	}
	if p.ExportInterval <= 0 {
		return fmt.Errorf("%w: export interval must be positive (got %v)", ErrInvalidCalibration, p.ExportInterval)
	}
	if p.ExportOffset < 0 {
		return fmt.Errorf("%w: export offset must not be negative (got %v)", ErrInvalidCalibration, p.ExportOffset)
	}
	return nil
}

// Calibration is the state that every projection needs.
// It is only mutated through the Set* methods, and every successful set marks
// the calibration dirty, so that the next render recomputes projections.
type Calibration struct {
	params      CalibrationParams
	totalFrames int
	view        Viewport
	dirty       bool
}

// NewCalibration creates a calibration for a video of the given frame count and size.
// If displayWidth is zero, the display is the same size as the source.
func NewCalibration(params CalibrationParams, totalFrames int, source Size, displayWidth int) (*Calibration, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if totalFrames <= 0 {
		return nil, fmt.Errorf("%w: video has no frames", ErrInvalidCalibration)
	}
	view, err := FitWidth(source, displayWidth)
	if err != nil {
		return nil, err
	}
	c := &Calibration{
		params:      params,
		totalFrames: totalFrames,
		view:        view,
		dirty:       true,
	}
	return c, nil
}

func (c *Calibration) Params() CalibrationParams { return c.params }
func (c *Calibration) Radius() float32           { return c.params.Radius }
func (c *Calibration) MaxAngle() float32         { return c.params.MaxAngle }
func (c *Calibration) ExportInterval() int       { return c.params.ExportInterval }
func (c *Calibration) ExportOffset() int         { return c.params.ExportOffset }
func (c *Calibration) TotalFrames() int          { return c.totalFrames }
func (c *Calibration) SourceSize() Size          { return c.view.Source }
func (c *Calibration) DisplaySize() Size         { return c.view.Display }
func (c *Calibration) Viewport() Viewport        { return c.view }

// Dims returns the frame dimensions of the given space
func (c *Calibration) Dims(space Space) Size {
	if space == SpaceDisplay {
		return c.view.Display
	}
	return c.view.Source
}

// DisplayScale is the ratio of display size to source size
func (c *Calibration) DisplayScale() (float32, float32) {
	return c.view.Scale()
}

// AngleAt returns the camera angle, in degrees, at the given frame
func (c *Calibration) AngleAt(frame int) float32 {
	return c.params.MaxAngle * float32(frame) / float32(c.totalFrames)
}

func (c *Calibration) set(p CalibrationParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.params = p
	c.dirty = true
	return nil
}

// SetParams replaces all tunable values at once (eg when restoring from a sidecar file)
func (c *Calibration) SetParams(p CalibrationParams) error {
	return c.set(p)
}

func (c *Calibration) SetRadius(radius float32) error {
	p := c.params
	p.Radius = radius
	return c.set(p)
}

func (c *Calibration) SetMaxAngle(maxAngle float32) error {
	p := c.params
	p.MaxAngle = maxAngle
	return c.set(p)
}

func (c *Calibration) SetExportInterval(interval int) error {
	p := c.params
	p.ExportInterval = interval
	return c.set(p)
}

func (c *Calibration) SetExportOffset(offset int) error {
	p := c.params
	p.ExportOffset = offset
	return c.set(p)
}

// SetDisplayWidth resizes the display, preserving the source aspect ratio
func (c *Calibration) SetDisplayWidth(width int) error {
	if width <= 0 {
		return fmt.Errorf("%w: display width must be positive (got %v)", ErrInvalidCalibration, width)
	}
	view, err := FitWidth(c.view.Source, width)
	if err != nil {
		return err
	}
	c.view = view
	c.dirty = true
	return nil
}

// TakeDirty returns true if anything has changed since the last call
func (c *Calibration) TakeDirty() bool {
	d := c.dirty
	c.dirty = false
	return d
}

func (c *Calibration) MarkDirty() {
	c.dirty = true
}

// Scale converts a source-space rectangle into display space
func (c *Calibration) Scale(p ProjectedRectangle) (ProjectedRectangle, error) {
	return c.view.ToDisplay(p)
}

// Unscale converts a display-space rectangle into source space
func (c *Calibration) Unscale(p ProjectedRectangle) (ProjectedRectangle, error) {
	return c.view.ToSource(p)
}

// UnscalePoint converts a point that the user clicked on the display into source space
func (c *Calibration) UnscalePoint(p Point) Point {
	return c.view.PointToSource(p)
}

func roundi(v float32) int {
	return int(math32.Floor(v + 0.5))
}
