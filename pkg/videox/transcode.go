package videox

import (
	"path/filepath"
	"sort"
	"strings"
)

// Transcode a downloaded recording into an h264 .avi, which seeks quickly and
// reliably in OpenCV.
func TranscodeAVI(srcFilename, dstFilename string) error {
	_, err := RunAppCombinedOutput("ffmpeg", transcodeAVIArgs(srcFilename, dstFilename))
	return err
}

func transcodeAVIArgs(srcFilename, dstFilename string) []string {
	return []string{
		"-i",
		srcFilename,
		"-y", // overwrite output file
		"-c:v",
		"libx264",
		"-g",   // keyframe interval
		"10",   // keyframe every 10 frames
		"-crf", // constant rate factor
		"18",   // 0-51, 0 is lossless, 51 is worst quality
		"-an",  // no audio
		dstFilename,
	}
}

// ConvertedName returns the name of the transcoded version of a downloaded video.
// "foo/clip.mp4" becomes "foo/clip.avi".
func ConvertedName(rawFilename string) string {
	return strings.TrimSuffix(rawFilename, filepath.Ext(rawFilename)) + ".avi"
}

// ListConverted returns the transcoded videos in dir, sorted by name.
// Hidden files are partial downloads or conversions, and are skipped.
func ListConverted(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.avi"))
	if err != nil {
		return nil, err
	}
	videos := []string{}
	for _, m := range matches {
		if !strings.HasPrefix(filepath.Base(m), ".") {
			videos = append(videos, m)
		}
	}
	sort.Strings(videos)
	return videos, nil
}
