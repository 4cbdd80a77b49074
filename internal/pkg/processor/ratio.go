package processor

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultRatio    = "1:1"
	DefaultBaseSize = 512

	// DefaultMaxDimension caps either side of a generated canvas.
	DefaultMaxDimension = 2048
)

// ParseRatio parses a "W:H" string into a width/height aspect. Both sides are
// floored at 1. ok is false when the string is not two integers, in which case
// the aspect is 1.
func ParseRatio(ratio string) (aspect float64, ok bool) {
	parts := strings.Split(ratio, ":")
	if len(parts) != 2 {
		return 1, false
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 1, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 1, false
	}
	return float64(max(1, w)) / float64(max(1, h)), true
}

// ResolveSize turns a ratio string and a base size into generation dimensions.
// The shorter side gets baseSize, both sides are floored to a multiple of 8.
// Malformed input degrades to 1:1 and 512; a baseSize below 8 can yield 0.
func ResolveSize(ratio string, baseSize int) (width, height int) {
	if ratio == "" {
		ratio = DefaultRatio
	}
	aspect, _ := ParseRatio(ratio)
	if baseSize <= 0 {
		baseSize = DefaultBaseSize
	}

	if aspect >= 1 {
		height = baseSize
		width = int(math.Round(float64(baseSize) * aspect))
	} else {
		width = baseSize
		height = int(math.Round(float64(baseSize) / aspect))
	}

	width -= width % 8
	height -= height % 8
	return width, height
}
