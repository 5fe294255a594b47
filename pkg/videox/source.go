package videox

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/sweeplabel/pkg/sweep"
)

// FrameSource provides random access to the decoded frames of one video.
// Returned images are RGB.
type FrameSource interface {
	FrameCount() int
	FrameSize() sweep.Size
	ReadFrame(frame int) (*cimg.Image, error)
	Close() error
}

// FFmpegSource reads frames by shelling out to ffmpeg.
// It is slow (one ffmpeg invocation per frame), but needs no cgo, so it's
// what we use for headless exports.
type FFmpegSource struct {
	filename   string
	frameCount int
	size       sweep.Size
}

// OpenFFmpegSource probes the video for its dimensions and frame count
func OpenFFmpegSource(filename string) (*FFmpegSource, error) {
	args := []string{
		"-v",
		"error",
		"-select_streams",
		"v:0",
		"-count_packets",
		"-show_entries",
		"stream=width,height,nb_read_packets",
		"-of",
		"csv=p=0",
		filename,
	}
	out, err := RunAppCombinedOutput("ffprobe", args)
	if err != nil {
		return nil, err
	}
	count, size, err := parseStreamProbe(string(out))
	if err != nil {
		return nil, fmt.Errorf("Unable to probe %v: %w", filename, err)
	}
	return &FFmpegSource{
		filename:   filename,
		frameCount: count,
		size:       size,
	}, nil
}

// parseStreamProbe parses "width,height,frames". Lines that don't match
// (eg warnings) are ignored.
func parseStreamProbe(out string) (int, sweep.Size, error) {
	for _, line := range strings.Split(out, "\n") {
		parts := strings.Split(strings.TrimSpace(line), ",")
		if len(parts) < 3 {
			continue
		}
		vals := [3]int{}
		ok := true
		for i := 0; i < 3; i++ {
			v, err := strconv.Atoi(parts[i])
			if err != nil || v <= 0 {
				ok = false
				break
			}
			vals[i] = v
		}
		if ok {
			return vals[2], sweep.Size{Width: vals[0], Height: vals[1]}, nil
		}
	}
	return 0, sweep.Size{}, fmt.Errorf("Unexpected ffprobe output: %v", out)
}

func (s *FFmpegSource) FrameCount() int {
	return s.frameCount
}

func (s *FFmpegSource) FrameSize() sweep.Size {
	return s.size
}

// ReadFrame decodes a single frame, selected by index (not timestamp), so that
// it matches the frame numbering of the interactive player.
func (s *FFmpegSource) ReadFrame(frame int) (*cimg.Image, error) {
	if frame < 0 || frame >= s.frameCount {
		return nil, fmt.Errorf("Frame %v is outside of video (%v frames)", frame, s.frameCount)
	}
	tmp, err := os.CreateTemp("", "sweeplabel-frame-*.rgb")
	if err != nil {
		return nil, err
	}
	tmpFilename := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpFilename)

	args := []string{
		"-v",
		"error",
		"-i",
		s.filename,
		"-vf",
		fmt.Sprintf("select=eq(n\\,%v)", frame),
		"-vsync",
		"0",
		"-frames:v",
		"1",
		"-f",
		"rawvideo",
		"-pix_fmt",
		"rgb24",
		"-y",
		tmpFilename,
	}
	if _, err := RunAppCombinedOutput("ffmpeg", args); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(tmpFilename)
	if err != nil {
		return nil, err
	}
	expect := s.size.Width * s.size.Height * 3
	if len(raw) != expect {
		return nil, fmt.Errorf("ffmpeg produced %v bytes for frame %v, expected %v", len(raw), frame, expect)
	}
	return cimg.WrapImage(s.size.Width, s.size.Height, cimg.PixelFormatRGB, raw), nil
}

func (s *FFmpegSource) Close() error {
	return nil
}
