// Package sidecar reads and writes the per-video JSON file that remembers the
// rectangles and calibration of a labelling session, so that a session can be
// resumed or re-exported later.
package sidecar

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cyclopcam/sweeplabel/pkg/iox"
	"github.com/cyclopcam/sweeplabel/pkg/sweep"
)

// Config is the content of a sidecar file.
// Radius and MaxAngle keep full precision on disk, and are narrowed to float32 by Params.
type Config struct {
	Rectangles     []Rectangle `json:"rectangles"`
	Radius         float64     `json:"radius"`
	MaxAngle       float64     `json:"max_angle"`
	ExportInterval int         `json:"export_interval"`
	ExportOffset   int         `json:"export_offset"`
}

// Rectangle is encoded as [[left,top],[right,bottom],anchorFrame,category]
type Rectangle sweep.Rectangle

func (r Rectangle) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{
		[2]int{r.TopLeft.X, r.TopLeft.Y},
		[2]int{r.BottomRight.X, r.BottomRight.Y},
		r.AnchorFrame,
		int(r.Category),
	})
}

func (r *Rectangle) UnmarshalJSON(b []byte) error {
	parts := []json.RawMessage{}
	if err := json.Unmarshal(b, &parts); err != nil {
		return err
	}
	// Files written before categories existed have only 3 elements
	if len(parts) != 3 && len(parts) != 4 {
		return fmt.Errorf("Expected 3 or 4 elements in sidecar rectangle, but found %v", len(parts))
	}
	var c1, c2 [2]int
	if err := json.Unmarshal(parts[0], &c1); err != nil {
		return fmt.Errorf("Invalid first corner: %w", err)
	}
	if err := json.Unmarshal(parts[1], &c2); err != nil {
		return fmt.Errorf("Invalid second corner: %w", err)
	}
	anchor := 0
	if err := json.Unmarshal(parts[2], &anchor); err != nil {
		return fmt.Errorf("Invalid anchor frame: %w", err)
	}
	category := 0
	if len(parts) == 4 {
		if err := json.Unmarshal(parts[3], &category); err != nil {
			return fmt.Errorf("Invalid category: %w", err)
		}
	}
	r.TopLeft = sweep.Point{X: c1[0], Y: c1[1]}
	r.BottomRight = sweep.Point{X: c2[0], Y: c2[1]}
	r.AnchorFrame = anchor
	r.Category = sweep.Category(category)
	return nil
}

// PathFor returns the sidecar filename of a video: the video's filename with "_config.json" appended
func PathFor(videoPath string) string {
	return filepath.Join(filepath.Dir(videoPath), filepath.Base(videoPath)+"_config.json")
}

// Capture snapshots the current session state
func Capture(store *sweep.Store, calib *sweep.Calibration) *Config {
	p := calib.Params()
	cfg := &Config{
		Rectangles:     []Rectangle{},
		Radius:         widen(p.Radius),
		MaxAngle:       widen(p.MaxAngle),
		ExportInterval: p.ExportInterval,
		ExportOffset:   p.ExportOffset,
	}
	for _, r := range store.List() {
		cfg.Rectangles = append(cfg.Rectangles, Rectangle(r))
	}
	return cfg
}

// widen converts to float64 via the shortest decimal that round trips the
// float32, so 1680.1 is written as 1680.1 and not 1680.0999755859375
func widen(v float32) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'g', -1, 32), 64)
	return f
}

func (c *Config) Params() sweep.CalibrationParams {
	return sweep.CalibrationParams{
		Radius:         float32(c.Radius),
		MaxAngle:       float32(c.MaxAngle),
		ExportInterval: c.ExportInterval,
		ExportOffset:   c.ExportOffset,
	}
}

// Restore applies the sidecar to a fresh session. The calibration is replaced,
// and every rectangle is added to the store (which normalizes corners).
func (c *Config) Restore(store *sweep.Store, calib *sweep.Calibration) error {
	if err := calib.SetParams(c.Params()); err != nil {
		return err
	}
	for i, r := range c.Rectangles {
		if _, err := store.Add(r.TopLeft, r.BottomRight, r.AnchorFrame, r.Category); err != nil {
			return fmt.Errorf("Sidecar rectangle %v: %w", i, err)
		}
	}
	return nil
}

// Load reads a sidecar file. If the file does not exist, it returns (nil, nil).
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("Invalid sidecar file %v: %w", filename, err)
	}
	if cfg.Rectangles == nil {
		cfg.Rectangles = []Rectangle{}
	}
	return cfg, nil
}

// Save writes the sidecar file, replacing any previous version atomically
func Save(filename string, cfg *Config) error {
	b, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return iox.WriteFileAtomic(filename, b)
}
