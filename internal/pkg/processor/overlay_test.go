package processor

import (
	"image"
	"image/color"
	"testing"

	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blackCanvas(w, h int) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	fillImageWithColor(canvas, color.RGBA{A: 255})
	return canvas
}

func blueLogo(w, h int) *image.NRGBA {
	logo := image.NewNRGBA(image.Rect(0, 0, w, h))
	fillImageWithColor(logo, color.NRGBA{B: 255, A: 255})
	return logo
}

func hasLitPixel(img *image.RGBA, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if c.R > 128 && c.G > 128 && c.B > 128 {
				return true
			}
		}
	}
	return false
}

func TestParseElements(t *testing.T) {
	elements, err := ParseElements("  ")
	require.NoError(t, err)
	assert.Empty(t, elements)

	elements, err = ParseElements(`[{"type":"text"}, 42]`)
	require.NoError(t, err)
	assert.Len(t, elements, 2)

	_, err = ParseElements(`{"type":"text"}`)
	assert.ErrorIs(t, err, entity.ErrInvalidElements)
}

// TestApplySkipsMalformedElement тестирует, что ошибка одного элемента не прерывает остальные
func TestApplySkipsMalformedElement(t *testing.T) {
	canvas := blackCanvas(400, 200)
	elements, err := ParseElements(`[
		{"type": "text", "text": "HELLO", "color": "white", "position": "top-left"},
		{"type": "bg_text", "text": "SALE", "color": "white", "bg_color": "#ff0000", "position": "bottom-center"},
		42,
		{"type": "logo", "logo_index": "0", "scale": 0.25, "position": "center"}
	]`)
	require.NoError(t, err)

	failures := NewRenderer("").Apply(canvas, elements, []image.Image{blueLogo(40, 20)})

	require.Len(t, failures, 1)
	assert.Equal(t, 2, failures[0].Index)

	assert.Equal(t, image.Rect(0, 0, 400, 200), canvas.Bounds())
	// text around the top-left anchor
	assert.True(t, hasLitPixel(canvas, image.Rect(5, 15, 60, 45)))
	// plate behind the bottom text
	plate := canvas.RGBAAt(178, 170)
	assert.Greater(t, plate.R, uint8(200))
	assert.Less(t, plate.G, uint8(50))
	// logo 100x50 centered on (200, 100)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, canvas.RGBAAt(200, 100))
	assert.Equal(t, color.RGBA{A: 255}, canvas.RGBAAt(140, 100))
}

func TestApplyReportsFailures(t *testing.T) {
	tests := []struct {
		name    string
		element string
		logos   []image.Image
	}{
		{name: "logo index out of range", element: `{"type": "logo", "logo_index": 3}`, logos: []image.Image{blueLogo(4, 4)}},
		{name: "undecodable logo", element: `{"type": "logo"}`, logos: []image.Image{nil}},
		{name: "unknown type", element: `{"type": "sticker"}`},
		{name: "bad color", element: `{"type": "text", "text": "x", "color": "#nothex"}`},
		{name: "bad size", element: `{"type": "text", "text": "x", "size": "huge"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canvas := blackCanvas(100, 100)
			elements, err := ParseElements("[" + tt.element + "]")
			require.NoError(t, err)

			failures := NewRenderer("").Apply(canvas, elements, tt.logos)

			require.Len(t, failures, 1)
			assert.NotEmpty(t, failures[0].Error)
			assert.Equal(t, color.RGBA{A: 255}, canvas.RGBAAt(50, 50))
		})
	}
}

func TestLogoRespectsAlpha(t *testing.T) {
	canvas := blackCanvas(200, 200)
	logo := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	fillImageWithColor(logo.SubImage(image.Rect(0, 0, 10, 10)).(*image.NRGBA), color.NRGBA{B: 255, A: 255})

	elements, err := ParseElements(`[{"type": "logo", "scale": 0.5, "position": "center"}]`)
	require.NoError(t, err)

	failures := NewRenderer("").Apply(canvas, elements, []image.Image{logo})
	require.Empty(t, failures)

	// logo is 100x50 centered on (100, 100): left half opaque, right half transparent
	assert.Equal(t, color.RGBA{B: 255, A: 255}, canvas.RGBAAt(60, 100))
	assert.Equal(t, color.RGBA{A: 255}, canvas.RGBAAt(140, 100))
}

func TestLogoScaleIsClamped(t *testing.T) {
	canvas := blackCanvas(100, 100)
	elements, err := ParseElements(`[{"type": "logo", "scale": 5, "position": "top-left"}]`)
	require.NoError(t, err)

	failures := NewRenderer("").Apply(canvas, elements, []image.Image{blueLogo(10, 10)})
	require.Empty(t, failures)

	// width 80 centered on (30, 30) covers x in [-10, 70)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, canvas.RGBAAt(65, 30))
	assert.Equal(t, color.RGBA{A: 255}, canvas.RGBAAt(75, 30))
}
