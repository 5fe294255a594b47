package cvui

import (
	"fmt"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/sweeplabel/pkg/sweep"
	"github.com/cyclopcam/sweeplabel/pkg/videox"
	"gocv.io/x/gocv"
)

var _ videox.FrameSource = (*VideoSource)(nil)

// VideoSource reads frames with OpenCV, seeking by frame index
type VideoSource struct {
	capture    *gocv.VideoCapture
	frameCount int
	size       sweep.Size
}

func OpenVideo(filename string) (*VideoSource, error) {
	capture, err := gocv.VideoCaptureFile(filename)
	if err != nil {
		return nil, fmt.Errorf("Failed to open video %v: %w", filename, err)
	}
	v := &VideoSource{
		capture:    capture,
		frameCount: int(capture.Get(gocv.VideoCaptureFrameCount)),
		size: sweep.Size{
			Width:  int(capture.Get(gocv.VideoCaptureFrameWidth)),
			Height: int(capture.Get(gocv.VideoCaptureFrameHeight)),
		},
	}
	if v.frameCount <= 0 || v.size.Width <= 0 || v.size.Height <= 0 {
		capture.Close()
		return nil, fmt.Errorf("Video %v has no frames", filename)
	}
	return v, nil
}

func (v *VideoSource) FrameCount() int {
	return v.frameCount
}

func (v *VideoSource) FrameSize() sweep.Size {
	return v.size
}

// ReadFrame seeks to the frame and decodes it as RGB
func (v *VideoSource) ReadFrame(frame int) (*cimg.Image, error) {
	v.capture.Set(gocv.VideoCapturePosFrames, float64(frame))
	bgr := gocv.NewMat()
	defer bgr.Close()
	if !v.capture.Read(&bgr) || bgr.Empty() {
		return nil, fmt.Errorf("Failed to decode frame %v", frame)
	}
	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(bgr, &rgb, gocv.ColorBGRToRGB)
	pixels := rgb.ToBytes()
	if len(pixels) != rgb.Cols()*rgb.Rows()*3 {
		return nil, fmt.Errorf("Unexpected frame layout (%v bytes for %v x %v)", len(pixels), rgb.Cols(), rgb.Rows())
	}
	return cimg.WrapImage(rgb.Cols(), rgb.Rows(), cimg.PixelFormatRGB, pixels), nil
}

func (v *VideoSource) Close() error {
	return v.capture.Close()
}
