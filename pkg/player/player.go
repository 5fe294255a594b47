// Package player is the interactive labelling loop. It plays a video, lets the
// user draw boxes on any frame, shows every box projected onto the current
// frame, and exports the dataset when asked.
//
// The loop is single threaded. Everything it talks to (window, video, exporter)
// is an interface, so that it can be driven by tests.
package player

import (
	"errors"
	"image"

	"github.com/chewxy/math32"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/sweeplabel/pkg/command"
	"github.com/cyclopcam/sweeplabel/pkg/dataset"
	"github.com/cyclopcam/sweeplabel/pkg/render"
	"github.com/cyclopcam/sweeplabel/pkg/sweep"
	"github.com/cyclopcam/sweeplabel/pkg/videox"
)

// PollMilliseconds is how long each iteration waits for a key
const PollMilliseconds = 10

// Controls are the values of the window's trackbars
type Controls struct {
	Position       int
	Radius         int
	MaxAngle       int
	ExportInterval int
	ExportOffset   int
}

// Display is the labelling window
type Display interface {
	Show(frame *image.RGBA) error
	// PollKey waits up to waitMS for a key, and returns command.NoKey if none was pressed
	PollKey(waitMS int) int
	Controls() Controls
	SetControls(c Controls)
	// SelectRegion lets the user drag out a rectangle, in display coordinates
	SelectRegion() (corner1, corner2 sweep.Point, ok bool)
}

type Exporter interface {
	Export(src videox.FrameSource, store *sweep.Store, calib *sweep.Calibration) (*dataset.ExportResult, error)
}

type Player struct {
	log      logs.Log
	display  Display
	src      videox.FrameSource
	store    *sweep.Store
	calib    *sweep.Calibration
	exporter Exporter

	status       command.Command
	position     int
	prevPosition int
	controls     Controls
	exported     *dataset.ExportResult
}

func New(log logs.Log, display Display, src videox.FrameSource, store *sweep.Store, calib *sweep.Calibration, exporter Exporter) *Player {
	p := &Player{
		log:          log,
		display:      display,
		src:          src,
		store:        store,
		calib:        calib,
		exporter:     exporter,
		status:       command.Stay,
		prevPosition: -1,
	}
	p.controls = p.controlsFromCalibration()
	display.SetControls(p.controls)
	return p
}

func (p *Player) controlsFromCalibration() Controls {
	return Controls{
		Position:       p.position,
		Radius:         int(math32.Floor(p.calib.Radius() + 0.5)),
		MaxAngle:       int(math32.Floor(p.calib.MaxAngle() + 0.5)),
		ExportInterval: p.calib.ExportInterval(),
		ExportOffset:   p.calib.ExportOffset(),
	}
}

func (p *Player) Position() int {
	return p.position
}

func (p *Player) Status() command.Command {
	return p.status
}

// Exported returns the result of the export, if one was run
func (p *Player) Exported() *dataset.ExportResult {
	return p.exported
}

// Run loops until the user exits (or exports, which also exits)
func (p *Player) Run() error {
	for {
		done, err := p.Step()
		if err != nil || done {
			return err
		}
	}
}

// Step runs one iteration of the loop: sync trackbars, render if anything
// changed, poll a key, and act on the resulting command.
// Returns true when the loop should exit.
func (p *Player) Step() (bool, error) {
	total := p.calib.TotalFrames()
	if p.position >= total {
		p.position = 0
	}

	p.syncCalibration()

	if p.calib.TakeDirty() || p.position != p.prevPosition {
		p.render()
	}
	p.prevPosition = p.position

	p.status = command.PlayerKeys.Resolve(p.display.PollKey(PollMilliseconds), p.status)

	switch p.status {
	case command.Play:
		p.seek(p.position + 1)
	case command.Stay:
		p.position = p.display.Controls().Position
	case command.PrevFrame:
		if p.position > 0 {
			p.seek(p.position - 1)
		}
		p.status = command.Stay
	case command.NextFrame:
		p.seek(p.position + 1)
		p.status = command.Stay
	case command.Export:
		p.log.Infof("Exporting frames...")
		res, err := p.exporter.Export(p.src, p.store, p.calib)
		if err != nil {
			p.log.Errorf("Export failed: %v", err)
			return true, err
		}
		p.exported = res
		p.log.Infof("Successfully exported %v frames", len(res.Records))
		p.status = command.Exit
		return true, nil
	case command.RemoveLast:
		if r, err := p.store.RemoveLast(); errors.Is(err, sweep.ErrEmptyStore) {
			p.log.Warnf("There are no rectangles to remove")
		} else {
			p.log.Infof("Removed rectangle (%v,%v)-(%v,%v) drawn on frame %v", r.TopLeft.X, r.TopLeft.Y, r.BottomRight.X, r.BottomRight.Y, r.AnchorFrame)
			p.calib.MarkDirty()
		}
		p.status = command.Stay
	case command.DrawPrimary:
		p.draw(sweep.CategoryPrimary)
		p.status = command.Stay
	case command.DrawAlternate:
		p.draw(sweep.CategoryAlternate)
		p.status = command.Stay
	case command.Exit:
		return true, nil
	}
	return false, nil
}

// seek moves to a frame, wrapping at the end of the clip, and moves the trackbar with it
func (p *Player) seek(frame int) {
	if frame >= p.calib.TotalFrames() {
		frame = 0
	}
	p.position = frame
	p.controls.Position = frame
	p.display.SetControls(p.controls)
}

// syncCalibration applies trackbar changes to the calibration. Out of range
// values (eg an export interval of zero) are ignored until the user fixes them.
func (p *Player) syncCalibration() {
	c := p.display.Controls()
	prev := p.controls
	p.controls = c
	if c.Radius != prev.Radius {
		if err := p.calib.SetRadius(float32(c.Radius)); err != nil {
			p.log.Warnf("%v", err)
		}
	}
	if c.MaxAngle != prev.MaxAngle {
		if err := p.calib.SetMaxAngle(float32(c.MaxAngle)); err != nil {
			p.log.Warnf("%v", err)
		}
	}
	if c.ExportInterval != prev.ExportInterval {
		if err := p.calib.SetExportInterval(c.ExportInterval); err != nil {
			p.log.Warnf("%v", err)
		}
	}
	if c.ExportOffset != prev.ExportOffset {
		if err := p.calib.SetExportOffset(c.ExportOffset); err != nil {
			p.log.Warnf("%v", err)
		}
	}
}

func (p *Player) draw(category sweep.Category) {
	c1, c2, ok := p.display.SelectRegion()
	if !ok {
		return
	}
	r, err := p.store.Add(p.calib.UnscalePoint(c1), p.calib.UnscalePoint(c2), p.position, category)
	if err != nil {
		p.log.Warnf("Ignoring rectangle: %v", err)
		return
	}
	p.log.Infof("Added %v rectangle (%v,%v)-(%v,%v) on frame %v", category, r.TopLeft.X, r.TopLeft.Y, r.BottomRight.X, r.BottomRight.Y, r.AnchorFrame)
	p.calib.MarkDirty()
}

func (p *Player) render() {
	img, err := p.src.ReadFrame(p.position)
	if err != nil {
		p.log.Errorf("Failed to read frame %v: %v", p.position, err)
		return
	}
	color := render.ColorPreview
	if sweep.IsSampled(p.position, p.calib.ExportInterval(), p.calib.ExportOffset()) {
		color = render.ColorExported
	}
	boxes := p.store.VisibleAt(p.position, p.calib, sweep.SpaceDisplay)
	frame, err := render.Frame(img, p.calib.DisplaySize(), boxes, color)
	if err != nil {
		p.log.Errorf("Failed to render frame %v: %v", p.position, err)
		return
	}
	if err := p.display.Show(frame); err != nil {
		p.log.Errorf("Failed to show frame %v: %v", p.position, err)
	}
}
