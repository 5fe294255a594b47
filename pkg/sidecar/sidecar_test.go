package sidecar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cyclopcam/sweeplabel/pkg/sweep"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) (*sweep.Store, *sweep.Calibration) {
	t.Helper()
	calib, err := sweep.NewCalibration(sweep.DefaultCalibrationParams(), 300, sweep.Size{Width: 1920, Height: 1080}, 1280)
	require.NoError(t, err)
	return sweep.NewStore(300), calib
}

func TestPathFor(t *testing.T) {
	require.Equal(t, filepath.Join("videos", "7", "a.avi_config.json"), PathFor(filepath.Join("videos", "7", "a.avi")))
}

func TestLoadMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope_config.json"))
	require.NoError(t, err)
	require.Nil(t, cfg)
}

func TestRoundTrip(t *testing.T) {
	store, calib := newSession(t)
	require.NoError(t, calib.SetRadius(1234.5))
	require.NoError(t, calib.SetMaxAngle(97.25))
	require.NoError(t, calib.SetExportInterval(11))
	require.NoError(t, calib.SetExportOffset(4))
	store.Add(sweep.Point{X: 900, Y: 500}, sweep.Point{X: 800, Y: 400}, 17, sweep.CategoryPrimary)
	store.Add(sweep.Point{X: 10, Y: 20}, sweep.Point{X: 30, Y: 40}, 250, sweep.CategoryAlternate)

	fn := filepath.Join(t.TempDir(), "v.avi_config.json")
	require.NoError(t, Save(fn, Capture(store, calib)))
	first, err := os.ReadFile(fn)
	require.NoError(t, err)

	cfg, err := Load(fn)
	require.NoError(t, err)
	store2, calib2 := newSession(t)
	require.NoError(t, cfg.Restore(store2, calib2))
	require.Equal(t, store.List(), store2.List())
	require.Equal(t, calib.Params(), calib2.Params())

	require.NoError(t, Save(fn, Capture(store2, calib2)))
	second, err := os.ReadFile(fn)
	require.NoError(t, err)
	require.Equal(t, string(first), string(second))
}

func TestWireFormat(t *testing.T) {
	store, calib := newSession(t)
	store.Add(sweep.Point{X: 1, Y: 2}, sweep.Point{X: 3, Y: 4}, 5, sweep.CategoryAlternate)
	fn := filepath.Join(t.TempDir(), "c.json")
	require.NoError(t, Save(fn, Capture(store, calib)))
	b, err := os.ReadFile(fn)
	require.NoError(t, err)
	require.JSONEq(t, `{"rectangles":[[[1,2],[3,4],5,1]],"radius":1680,"max_angle":143,"export_interval":18,"export_offset":3}`, string(b))
}

func TestLoadLegacyRectangles(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "legacy_config.json")
	legacy := `{"rectangles": [[[500, 300], [400, 200], 12]], "radius": 1680.0, "max_angle": 143.0, "export_interval": 18, "export_offset": 3}`
	require.NoError(t, os.WriteFile(fn, []byte(legacy), 0644))
	cfg, err := Load(fn)
	require.NoError(t, err)
	require.Len(t, cfg.Rectangles, 1)
	require.Equal(t, sweep.CategoryPrimary, cfg.Rectangles[0].Category)

	store, calib := newSession(t)
	require.NoError(t, cfg.Restore(store, calib))
	r := store.List()[0]
	require.Equal(t, sweep.Point{X: 400, Y: 200}, r.TopLeft)
	require.Equal(t, sweep.Point{X: 500, Y: 300}, r.BottomRight)
	require.Equal(t, 12, r.AnchorFrame)
}

func TestLoadInvalid(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "bad_config.json")
	require.NoError(t, os.WriteFile(fn, []byte(`{"rectangles": [[[1,2]]]}`), 0644))
	_, err := Load(fn)
	require.Error(t, err)
}

func TestCalibrationPrecision(t *testing.T) {
	// Written by another tool, with more digits than a float32 holds
	fn := filepath.Join(t.TempDir(), "precise_config.json")
	content := `{"rectangles":[],"radius":1680.123456789,"max_angle":143.000000001,"export_interval":18,"export_offset":3}`
	require.NoError(t, os.WriteFile(fn, []byte(content), 0644))
	cfg, err := Load(fn)
	require.NoError(t, err)
	require.Equal(t, 1680.123456789, cfg.Radius)
	require.Equal(t, 143.000000001, cfg.MaxAngle)
	require.Equal(t, float32(1680.123456789), cfg.Params().Radius)

	require.NoError(t, Save(fn, cfg))
	b, err := os.ReadFile(fn)
	require.NoError(t, err)
	require.JSONEq(t, content, string(b))

	// Captured float32 values are written with their shortest decimal form
	store, calib := newSession(t)
	require.NoError(t, calib.SetRadius(1680.1))
	require.NoError(t, calib.SetMaxAngle(0.3))
	captured := Capture(store, calib)
	require.Equal(t, 1680.1, captured.Radius)
	require.Equal(t, 0.3, captured.MaxAngle)
}
