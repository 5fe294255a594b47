package verify

import (
	"fmt"
	"image"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/sweeplabel/pkg/command"
	"github.com/cyclopcam/sweeplabel/pkg/dataset"
	"github.com/cyclopcam/sweeplabel/pkg/render"
	"github.com/cyclopcam/sweeplabel/pkg/sweep"
)

// Viewer is the review window
type Viewer interface {
	Show(frame *image.RGBA) error
	// WaitKey blocks until a key is pressed
	WaitKey() int
}

// Reviewer shows each candidate and feeds the reviewer's keys into a Session
type Reviewer struct {
	Log          logs.Log
	Viewer       Viewer
	Journal      *Journal // optional
	DisplayWidth int      // If zero, images are shown at full size

	// LoadImage reads the exported image. Defaults to cimg.ReadFile.
	LoadImage func(filename string) (*cimg.Image, error)
}

// Run reviews until every candidate has been decided, or the reviewer exits.
// Returns true if the review was completed.
func (r *Reviewer) Run(s *Session) (bool, error) {
	load := r.LoadImage
	if load == nil {
		load = cimg.ReadFile
	}
	for !s.Done() {
		rec, _ := s.Current()
		img, err := load(rec.FileName)
		if err != nil {
			return false, fmt.Errorf("Failed to load %v: %w", rec.FileName, err)
		}
		frame, err := reviewFrame(img, r.DisplayWidth, rec)
		if err != nil {
			return false, err
		}
		if err := r.Viewer.Show(frame); err != nil {
			return false, err
		}

		cmd := command.ReviewKeys.Resolve(r.Viewer.WaitKey(), command.None)
		if cmd == command.Exit {
			r.Log.Infof("Review interrupted at image %v/%v", s.Cursor(), s.Len())
			return false, nil
		} else if cmd == command.None {
			continue
		}
		if r.Journal != nil {
			if err := r.Journal.Append(cmd, rec.ImageID); err != nil {
				return false, fmt.Errorf("Failed to write review journal: %w", err)
			}
		}

		before := s.Cursor()
		s.Apply(cmd)
		switch cmd {
		case command.Accept:
			r.Log.Infof("Image %v/%v was added to the dataset", before, s.Len())
		case command.Reject:
			r.Log.Infof("Image %v/%v was skipped", before, s.Len())
		case command.Undo:
			if s.Cursor() == before {
				r.Log.Infof("Reached beginning of dataset")
			} else if a, _ := s.Decision(s.Cursor()); a == ActionAccepted {
				r.Log.Infof("Image %v/%v was removed from the dataset", s.Cursor(), s.Len())
			} else {
				r.Log.Infof("Moved back to image %v", s.Cursor())
			}
		}
	}
	return true, nil
}

// reviewFrame draws the record's boxes, which are in image coordinates, onto the scaled image
func reviewFrame(img *cimg.Image, displayWidth int, rec dataset.Record) (*image.RGBA, error) {
	view, err := sweep.FitWidth(sweep.Size{Width: img.Width, Height: img.Height}, displayWidth)
	if err != nil {
		return nil, err
	}
	boxes := []sweep.ProjectedRectangle{}
	for _, a := range rec.Annotations {
		src := sweep.ProjectedRectangle{
			Left:     int(a.BBox[0]),
			Top:      int(a.BBox[1]),
			Right:    int(a.BBox[2]),
			Bottom:   int(a.BBox[3]),
			Category: sweep.Category(a.CategoryID),
			Space:    sweep.SpaceSource,
		}
		b, err := view.ToDisplay(src)
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, b)
	}
	return render.Frame(img, view.Display, boxes, render.ColorPreview)
}
