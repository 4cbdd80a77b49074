package processor

import (
	"fmt"
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ParseColor accepts CSS colour names ("white", "red") and hex notation
// ("#fff", "#ff0000"). An empty value resolves to fallback.
func ParseColor(value, fallback string) (color.Color, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	if named, ok := colornames.Map[strings.ToLower(value)]; ok {
		return named, nil
	}
	if strings.HasPrefix(value, "#") {
		c, err := colorful.Hex(strings.ToLower(value))
		if err != nil {
			return nil, fmt.Errorf("invalid color %q: %w", value, err)
		}
		r, g, b := c.RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
	}
	return nil, fmt.Errorf("unknown color %q", value)
}
