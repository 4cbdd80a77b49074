package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	ElementText   = "text"
	ElementBgText = "bg_text"
	ElementLogo   = "logo"
)

// OverlayElement is one text, backgrounded text or logo item drawn onto a canvas.
// Pointer fields distinguish "absent" from zero so type specific defaults apply.
type OverlayElement struct {
	Type      string  `json:"type"`
	Text      string  `json:"text"`
	Font      string  `json:"font"`
	Size      *Number `json:"size"`
	Color     string  `json:"color"`
	BgColor   string  `json:"bg_color"`
	Position  string  `json:"position"`
	LogoIndex *Number `json:"logo_index"`
	Scale     *Number `json:"scale"`
}

// ElementFailure records an element that was skipped while rendering.
type ElementFailure struct {
	Index int    `json:"index"`
	Type  string `json:"type,omitempty"`
	Error string `json:"error"`
}

// RawElements keeps every element of elements_json undecoded so that a
// malformed item only fails itself.
type RawElements []json.RawMessage

// Number accepts both JSON numbers and numeric strings ("64").
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	raw = strings.TrimSpace(strings.Trim(raw, `"`))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", data)
	}
	*n = Number(v)
	return nil
}

// Float returns the value or def when n is nil.
func (n *Number) Float(def float64) float64 {
	if n == nil {
		return def
	}
	return float64(*n)
}
