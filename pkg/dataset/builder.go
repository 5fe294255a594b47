package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/sweeplabel/pkg/sidecar"
	"github.com/cyclopcam/sweeplabel/pkg/sweep"
	"github.com/cyclopcam/sweeplabel/pkg/videox"
)

const DefaultJPEGQuality = 95

// FrameGrabError is returned when the video source fails to produce a frame
// during export. The export is abandoned when this happens.
type FrameGrabError struct {
	Frame int
	Err   error
}

func (e *FrameGrabError) Error() string {
	return fmt.Sprintf("Failed to read frame %v: %v", e.Frame, e.Err)
}

func (e *FrameGrabError) Unwrap() error {
	return e.Err
}

// Builder exports the sampled frames of one video, together with the projected boxes
type Builder struct {
	Log           logs.Log
	ExportDir     string // eg exports/7
	VideoBaseName string // eg "clip.mp4"
	SidecarPath   string // If empty, no sidecar is written
	JPEGQuality   int    // If zero, DefaultJPEGQuality
}

type ExportResult struct {
	Records        []Record
	AnnotationFile string
	FramesSampled  int // Number of frames on the export cadence, including those with no visible boxes
}

// ImageID returns the identifier of an exported frame
func ImageID(videoBaseName string, frame int) string {
	return fmt.Sprintf("%v_%v", videoBaseName, frame)
}

// Export walks the export cadence, and writes a JPEG plus a record for every
// sampled frame that has at least one fully visible box.
// Output is staged inside ExportDir and only moved into place once every frame
// has been written, so a failed export leaves nothing behind.
func (b *Builder) Export(src videox.FrameSource, store *sweep.Store, calib *sweep.Calibration) (*ExportResult, error) {
	if err := os.MkdirAll(b.ExportDir, 0755); err != nil {
		return nil, err
	}
	stageDir, err := os.MkdirTemp(b.ExportDir, ".staging-")
	if err != nil {
		return nil, fmt.Errorf("Failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stageDir)

	quality := b.JPEGQuality
	if quality == 0 {
		quality = DefaultJPEGQuality
	}

	frames := sweep.SelectFrames(calib.TotalFrames(), calib.ExportInterval(), calib.ExportOffset())
	result := &ExportResult{
		Records:       []Record{},
		FramesSampled: len(frames),
	}
	staged := []string{}

	for _, frame := range frames {
		boxes := store.VisibleAt(frame, calib, sweep.SpaceSource)
		if len(boxes) == 0 {
			continue
		}
		img, err := src.ReadFrame(frame)
		if err != nil {
			return nil, &FrameGrabError{Frame: frame, Err: err}
		}
		jpg, err := cimg.Compress(img, cimg.MakeCompressParams(cimg.Sampling420, quality, 0))
		if err != nil {
			return nil, fmt.Errorf("Failed to encode frame %v: %w", frame, err)
		}
		imageID := ImageID(b.VideoBaseName, frame)
		name := imageID + ".jpg"
		if err := os.WriteFile(filepath.Join(stageDir, name), jpg, 0644); err != nil {
			return nil, err
		}
		staged = append(staged, name)

		rec := Record{
			FileName: filepath.Join(b.ExportDir, name),
			Width:    img.Width,
			Height:   img.Height,
			ImageID:  imageID,
		}
		for _, box := range boxes {
			bb := box.BBox()
			rec.Annotations = append(rec.Annotations, Annotation{
				BBox:       [4]float64{float64(bb[0]), float64(bb[1]), float64(bb[2]), float64(bb[3])},
				BBoxMode:   BBoxModeXYXY,
				CategoryID: int(box.Category),
			})
		}
		result.Records = append(result.Records, rec)
	}

	annotationName := b.VideoBaseName + ".json"
	if err := WriteRecords(filepath.Join(stageDir, annotationName), result.Records); err != nil {
		return nil, err
	}
	staged = append(staged, annotationName)

	// Commit. The annotation file goes last, so that a reader never sees it before its images.
	for _, name := range staged {
		if err := os.Rename(filepath.Join(stageDir, name), filepath.Join(b.ExportDir, name)); err != nil {
			return nil, fmt.Errorf("Failed to move %v into export directory: %w", name, err)
		}
	}
	result.AnnotationFile = filepath.Join(b.ExportDir, annotationName)
	if err := b.removeStaleImages(staged); err != nil {
		return nil, err
	}
	b.Log.Infof("Exported %v images (of %v sampled frames) to %v", len(result.Records), len(frames), b.ExportDir)

	if b.SidecarPath != "" {
		if err := sidecar.Save(b.SidecarPath, sidecar.Capture(store, calib)); err != nil {
			return nil, fmt.Errorf("Export succeeded, but failed to save sidecar: %w", err)
		}
	}
	return result, nil
}

// removeStaleImages deletes images of this video left by an earlier export
// that are not part of the export that was just committed.
func (b *Builder) removeStaleImages(current []string) error {
	keep := map[string]bool{}
	for _, name := range current {
		keep[name] = true
	}
	entries, err := os.ReadDir(b.ExportDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || keep[name] || !b.isImageName(name) {
			continue
		}
		b.Log.Infof("Removing stale export image %v", name)
		if err := os.Remove(filepath.Join(b.ExportDir, name)); err != nil {
			return fmt.Errorf("Failed to remove stale export image %v: %w", name, err)
		}
	}
	return nil
}

// isImageName returns true if name is ImageID(VideoBaseName, frame) + ".jpg" for some frame
func (b *Builder) isImageName(name string) bool {
	frame, ok := strings.CutPrefix(name, b.VideoBaseName+"_")
	if !ok {
		return false
	}
	frame, ok = strings.CutSuffix(frame, ".jpg")
	if !ok {
		return false
	}
	_, err := strconv.Atoi(frame)
	return err == nil
}
