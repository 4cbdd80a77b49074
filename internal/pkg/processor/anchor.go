package processor

import "strings"

const DefaultMargin = 30

// Locate maps a "<vertical>-<horizontal>" token to a point inside a width x height
// area. Unknown or missing parts fall back to the center; case is not folded.
func Locate(token string, width, height, margin int) (x, y int) {
	if token == "" {
		token = "center-center"
	}
	parts := strings.Split(token, "-")

	vertical := strings.TrimSpace(parts[0])
	horizontal := "center"
	if len(parts) >= 2 {
		horizontal = strings.TrimSpace(parts[1])
	}

	switch vertical {
	case "top":
		y = margin
	case "bottom":
		y = height - margin
	default:
		y = height / 2
	}

	switch horizontal {
	case "left":
		x = margin
	case "right":
		x = width - margin
	default:
		x = width / 2
	}
	return x, y
}
