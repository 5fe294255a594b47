// Package cvui implements the interactive windows and the seekable video
// source on top of OpenCV.
package cvui

import (
	"fmt"
	"image"

	"github.com/cyclopcam/sweeplabel/pkg/player"
	"github.com/cyclopcam/sweeplabel/pkg/render"
	"github.com/cyclopcam/sweeplabel/pkg/sweep"
	"github.com/cyclopcam/sweeplabel/pkg/verify"
	"gocv.io/x/gocv"
)

var _ player.Display = (*Window)(nil)
var _ verify.Viewer = (*Window)(nil)

// Trackbar ranges
const (
	MaxRadius         = 5000
	MaxAngle          = 360
	MaxExportInterval = 100
	MaxExportOffset   = 100
)

// Window is an OpenCV window. A labelling window has trackbars, a review window does not.
type Window struct {
	win  *gocv.Window
	last gocv.Mat

	position       *gocv.Trackbar
	radius         *gocv.Trackbar
	maxAngle       *gocv.Trackbar
	exportInterval *gocv.Trackbar
	exportOffset   *gocv.Trackbar
}

// NewLabelWindow creates the labelling window, with a position trackbar
// spanning the video, and a trackbar for every calibration value.
func NewLabelWindow(title string, totalFrames int) *Window {
	w := &Window{
		win:  gocv.NewWindow(title),
		last: gocv.NewMat(),
	}
	w.win.MoveWindow(250, 150)
	w.position = w.win.CreateTrackbar("P", max(totalFrames-1, 1))
	w.radius = w.win.CreateTrackbar("Radius", MaxRadius)
	w.maxAngle = w.win.CreateTrackbar("Angle", MaxAngle)
	w.exportInterval = w.win.CreateTrackbar("Export Interval", MaxExportInterval)
	w.exportOffset = w.win.CreateTrackbar("Export Offset", MaxExportOffset)
	return w
}

// NewReviewWindow creates the window used to verify exported images
func NewReviewWindow(title string) *Window {
	w := &Window{
		win:  gocv.NewWindow(title),
		last: gocv.NewMat(),
	}
	w.win.MoveWindow(250, 50)
	return w
}

func (w *Window) Show(frame *image.RGBA) error {
	b := frame.Bounds()
	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC3, render.ToBGR(frame))
	if err != nil {
		return fmt.Errorf("Failed to create Mat: %w", err)
	}
	w.last.Close()
	w.last = mat
	w.win.IMShow(w.last)
	return nil
}

func (w *Window) PollKey(waitMS int) int {
	return w.win.WaitKey(waitMS)
}

// WaitKey blocks until a key is pressed
func (w *Window) WaitKey() int {
	return w.win.WaitKey(0)
}

func (w *Window) Controls() player.Controls {
	if w.position == nil {
		return player.Controls{}
	}
	return player.Controls{
		Position:       w.position.GetPos(),
		Radius:         w.radius.GetPos(),
		MaxAngle:       w.maxAngle.GetPos(),
		ExportInterval: w.exportInterval.GetPos(),
		ExportOffset:   w.exportOffset.GetPos(),
	}
}

func (w *Window) SetControls(c player.Controls) {
	if w.position == nil {
		return
	}
	w.position.SetPos(c.Position)
	w.radius.SetPos(c.Radius)
	w.maxAngle.SetPos(c.MaxAngle)
	w.exportInterval.SetPos(c.ExportInterval)
	w.exportOffset.SetPos(c.ExportOffset)
}

// SelectRegion lets the user drag a rectangle over the last shown frame.
// Returns false if the selection was cancelled or empty.
func (w *Window) SelectRegion() (sweep.Point, sweep.Point, bool) {
	if w.last.Empty() {
		return sweep.Point{}, sweep.Point{}, false
	}
	r := w.win.SelectROI(w.last)
	if r.Empty() {
		return sweep.Point{}, sweep.Point{}, false
	}
	return sweep.Point{X: r.Min.X, Y: r.Min.Y}, sweep.Point{X: r.Max.X, Y: r.Max.Y}, true
}

func (w *Window) Close() error {
	w.last.Close()
	return w.win.Close()
}
