package videox

import (
	"fmt"
	"os/exec"
)

// app_name is an executable, such as "ffmpeg" or "ffprobe"
// args must not include the executable name as the first parameter
// Returns the string output from exec.Cmd's "CombinedOutput" method.
func RunAppCombinedOutput(app_name string, args []string) ([]byte, error) {
	app_path, err := exec.LookPath(app_name)
	if err != nil {
		return nil, fmt.Errorf("Unable to find '%v' in your path (%w)", app_name, err)
	}
	args_with_app := append([]string{app_name}, args...)
	cmd := &exec.Cmd{
		Path: app_path,
		Args: args_with_app,
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		outStr := ""
		if out != nil {
			outStr = string(out)
		}
		return nil, fmt.Errorf("%v execution failed: %w (%v)", app_name, err, outStr)
	}
	return out, nil
}

// HaveFFmpeg returns true if both ffmpeg and ffprobe are in the PATH
func HaveFFmpeg() bool {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return false
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return false
	}
	return true
}
