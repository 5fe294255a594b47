package sweep

// IsSampled returns true if the frame is part of the export cadence
func IsSampled(frame, exportInterval, exportOffset int) bool {
	if exportInterval <= 0 {
		return false
	}
	return (exportOffset+frame)%exportInterval == 0
}

// SelectFrames returns, in ascending order, every frame in [0, totalFrames)
// for which (exportOffset + frame) is a multiple of exportInterval.
func SelectFrames(totalFrames, exportInterval, exportOffset int) []int {
	if exportInterval <= 0 || totalFrames <= 0 {
		return nil
	}
	frames := []int{}
	// First frame that satisfies the cadence, then step by the interval
	first := (exportInterval - exportOffset%exportInterval) % exportInterval
	for f := first; f < totalFrames; f += exportInterval {
		frames = append(frames, f)
	}
	return frames
}
