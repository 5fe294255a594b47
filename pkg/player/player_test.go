package player

import (
	"errors"
	"image"
	"testing"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/sweeplabel/pkg/command"
	"github.com/cyclopcam/sweeplabel/pkg/dataset"
	"github.com/cyclopcam/sweeplabel/pkg/render"
	"github.com/cyclopcam/sweeplabel/pkg/sweep"
	"github.com/cyclopcam/sweeplabel/pkg/videox"
	"github.com/stretchr/testify/require"
)

type region struct {
	c1, c2 sweep.Point
}

type fakeDisplay struct {
	keys     []int
	regions  []region
	controls Controls
	shown    []*image.RGBA
}

func (d *fakeDisplay) Show(frame *image.RGBA) error {
	d.shown = append(d.shown, frame)
	return nil
}

func (d *fakeDisplay) PollKey(waitMS int) int {
	if len(d.keys) == 0 {
		return command.NoKey
	}
	k := d.keys[0]
	d.keys = d.keys[1:]
	return k
}

func (d *fakeDisplay) Controls() Controls     { return d.controls }
func (d *fakeDisplay) SetControls(c Controls) { d.controls = c }

func (d *fakeDisplay) SelectRegion() (sweep.Point, sweep.Point, bool) {
	if len(d.regions) == 0 {
		return sweep.Point{}, sweep.Point{}, false
	}
	r := d.regions[0]
	d.regions = d.regions[1:]
	return r.c1, r.c2, true
}

type fakeSource struct {
	frames int
	size   sweep.Size
}

func (f *fakeSource) FrameCount() int       { return f.frames }
func (f *fakeSource) FrameSize() sweep.Size { return f.size }
func (f *fakeSource) Close() error          { return nil }

func (f *fakeSource) ReadFrame(frame int) (*cimg.Image, error) {
	return cimg.NewImage(f.size.Width, f.size.Height, cimg.PixelFormatRGB), nil
}

type fakeExporter struct {
	calls int
	err   error
}

func (e *fakeExporter) Export(src videox.FrameSource, store *sweep.Store, calib *sweep.Calibration) (*dataset.ExportResult, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return &dataset.ExportResult{Records: make([]dataset.Record, store.Len())}, nil
}

type harness struct {
	player   *Player
	display  *fakeDisplay
	store    *sweep.Store
	calib    *sweep.Calibration
	exporter *fakeExporter
}

// 40 frames of 200x100, shown at half size, on a still camera
func newHarness(t *testing.T) *harness {
	params := sweep.DefaultCalibrationParams()
	params.MaxAngle = 0
	calib, err := sweep.NewCalibration(params, 40, sweep.Size{Width: 200, Height: 100}, 100)
	require.NoError(t, err)
	h := &harness{
		display:  &fakeDisplay{},
		store:    sweep.NewStore(40),
		calib:    calib,
		exporter: &fakeExporter{},
	}
	src := &fakeSource{frames: 40, size: sweep.Size{Width: 200, Height: 100}}
	h.player = New(logs.NewTestingLog(t), h.display, src, h.store, h.calib, h.exporter)
	return h
}

func (h *harness) step(t *testing.T) bool {
	done, err := h.player.Step()
	require.NoError(t, err)
	return done
}

func TestInitialControls(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, Controls{Position: 0, Radius: 1680, MaxAngle: 0, ExportInterval: 18, ExportOffset: 3}, h.display.controls)
	require.Equal(t, command.Stay, h.player.Status())
}

func TestPlayWrapsAtEnd(t *testing.T) {
	h := newHarness(t)
	h.display.keys = []int{'w'}
	for i := 1; i <= 39; i++ {
		require.False(t, h.step(t))
		require.Equal(t, i, h.player.Position())
		require.Equal(t, i, h.display.controls.Position)
	}
	h.step(t)
	require.Equal(t, 0, h.player.Position())
	require.Len(t, h.display.shown, 40)

	// Stop, then step manually
	h.display.keys = []int{'s', 'd', 'd', 'a'}
	h.step(t)
	require.Equal(t, command.Stay, h.player.Status())
	h.step(t)
	h.step(t)
	require.Equal(t, 2, h.player.Position())
	h.step(t)
	require.Equal(t, 1, h.player.Position())
	require.Equal(t, command.Stay, h.player.Status())
}

func TestPrevFrameAtStart(t *testing.T) {
	h := newHarness(t)
	h.display.keys = []int{'a'}
	h.step(t)
	require.Equal(t, 0, h.player.Position())
}

func TestStayFollowsTrackbar(t *testing.T) {
	h := newHarness(t)
	h.display.controls.Position = 25
	h.step(t)
	require.Equal(t, 25, h.player.Position())
	require.Len(t, h.display.shown, 1)
	h.step(t)
	require.Len(t, h.display.shown, 2)
	// No change, no render
	h.step(t)
	require.Len(t, h.display.shown, 2)
}

func TestDrawAndRemove(t *testing.T) {
	h := newHarness(t)
	h.display.controls.Position = 7
	h.step(t)

	h.display.keys = []int{'t'}
	h.display.regions = []region{{sweep.Point{X: 30, Y: 20}, sweep.Point{X: 10, Y: 10}}}
	h.step(t)
	require.Equal(t, command.Stay, h.player.Status())
	require.Equal(t, []sweep.Rectangle{{
		TopLeft:     sweep.Point{X: 20, Y: 20},
		BottomRight: sweep.Point{X: 60, Y: 40},
		AnchorFrame: 7,
		Category:    sweep.CategoryAlternate,
	}}, h.store.List())

	// A cancelled selection adds nothing
	h.display.keys = []int{'r'}
	h.step(t)
	require.Equal(t, 1, h.store.Len())

	h.display.keys = []int{'z', 'z'}
	h.step(t)
	require.Equal(t, 0, h.store.Len())
	// Removing from an empty store only warns
	done := h.step(t)
	require.False(t, done)
	require.Equal(t, command.Stay, h.player.Status())
}

func TestBoxColorFollowsExportCadence(t *testing.T) {
	h := newHarness(t)
	_, err := h.store.Add(sweep.Point{X: 20, Y: 20}, sweep.Point{X: 60, Y: 60}, 0, sweep.CategoryPrimary)
	require.NoError(t, err)

	// Frame 15 is exported (15 + 3 is a multiple of 18)
	h.display.controls.Position = 15
	h.step(t)
	h.step(t)
	last := h.display.shown[len(h.display.shown)-1]
	require.Equal(t, render.ColorExported, last.RGBAAt(10, 20))

	// The trackbar is read after rendering, so the new frame shows on the following step
	h.display.controls.Position = 16
	h.step(t)
	h.step(t)
	last = h.display.shown[len(h.display.shown)-1]
	require.Equal(t, render.ColorPreview, last.RGBAAt(10, 20))
}

func TestTrackbarsUpdateCalibration(t *testing.T) {
	h := newHarness(t)
	h.step(t)
	nShown := len(h.display.shown)

	h.display.controls.Radius = 1000
	h.display.controls.ExportInterval = 0
	h.step(t)
	require.Equal(t, float32(1000), h.calib.Radius())
	// Invalid values are ignored
	require.Equal(t, 18, h.calib.ExportInterval())
	// Calibration changes trigger a re-render, even on the same frame
	require.Len(t, h.display.shown, nShown+1)

	h.display.controls.ExportInterval = 9
	h.step(t)
	require.Equal(t, 9, h.calib.ExportInterval())
}

func TestExportThenExit(t *testing.T) {
	h := newHarness(t)
	h.display.keys = []int{'e'}
	require.True(t, h.step(t))
	require.Equal(t, 1, h.exporter.calls)
	require.NotNil(t, h.player.Exported())
	require.Equal(t, command.Exit, h.player.Status())
}

func TestExportFailure(t *testing.T) {
	h := newHarness(t)
	h.exporter.err = errors.New("disk full")
	h.display.keys = []int{'e'}
	err := h.player.Run()
	require.Error(t, err)
	require.Nil(t, h.player.Exported())
}

func TestEscapeExits(t *testing.T) {
	h := newHarness(t)
	h.display.keys = []int{'w', 'w', command.KeyEscape}
	require.NoError(t, h.player.Run())
	require.Equal(t, 0, h.exporter.calls)
	require.Equal(t, 2, h.player.Position())
}
