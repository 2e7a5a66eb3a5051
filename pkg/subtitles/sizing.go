package subtitles

// Longest-line lengths where adaptive shrinking starts and bottoms out.
const (
	DefaultLowThreshold  = 40
	DefaultHighThreshold = 60
)

// ComputeFontSize picks a font size between minSize and baseSize from the
// longest line in the track. Lines at or under lowThreshold keep the base
// size and lines at or over highThreshold get the minimum; lengths in
// between interpolate linearly, truncated to an integer. The second return
// value is the measured longest line length. A nil or empty track keeps
// the base size.
func ComputeFontSize(track *Track, baseSize, minSize, lowThreshold, highThreshold int) (int, int) {
	if track == nil || len(track.Cues) == 0 {
		return baseSize, 0
	}
	if minSize > baseSize {
		minSize = baseSize
	}
	longest := track.LongestLine()
	switch {
	case longest <= lowThreshold:
		return baseSize, longest
	case longest >= highThreshold:
		return minSize, longest
	}
	span := float64(highThreshold - lowThreshold)
	size := float64(baseSize) - float64(baseSize-minSize)*float64(longest-lowThreshold)/span
	return int(size), longest
}
