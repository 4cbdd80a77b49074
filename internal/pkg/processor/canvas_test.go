package processor

import (
	"image"
	"image/color"
	"testing"

	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResizeCanvasDimensions тестирует точный размер результата в обоих режимах
func TestResizeCanvasDimensions(t *testing.T) {
	tests := []struct {
		name   string
		srcW   int
		srcH   int
		target image.Point
	}{
		{name: "wide to square", srcW: 800, srcH: 400, target: image.Pt(512, 512)},
		{name: "tall to wide", srcW: 300, srcH: 900, target: image.Pt(904, 512)},
		{name: "tiny to large", srcW: 3, srcH: 7, target: image.Pt(512, 904)},
		{name: "same aspect", srcW: 200, srcH: 100, target: image.Pt(512, 256)},
		{name: "one pixel", srcW: 1, srcH: 1, target: image.Pt(64, 64)},
	}

	for _, tt := range tests {
		for _, mode := range []string{ModeCrop, ModePad, "anything"} {
			t.Run(tt.name+"/"+mode, func(t *testing.T) {
				src := image.NewRGBA(image.Rect(0, 0, tt.srcW, tt.srcH))
				fillImageWithColor(src, color.RGBA{R: 100, G: 150, B: 200, A: 255})

				out := ResizeCanvas(src, tt.target.X, tt.target.Y, mode)

				require.NotNil(t, out)
				assert.Equal(t, tt.target.X, out.Bounds().Dx())
				assert.Equal(t, tt.target.Y, out.Bounds().Dy())
			})
		}
	}
}

// TestResizeCanvasPadKeepsAspect тестирует заполнение средним цветом
func TestResizeCanvasPadKeepsAspect(t *testing.T) {
	// верхняя половина красная, нижняя синяя
	src := image.NewNRGBA(image.Rect(0, 0, 400, 200))
	fillImageWithColor(src.SubImage(image.Rect(0, 0, 400, 100)).(*image.NRGBA), color.NRGBA{R: 255, A: 255})
	fillImageWithColor(src.SubImage(image.Rect(0, 100, 400, 200)).(*image.NRGBA), color.NRGBA{B: 255, A: 255})

	out := ResizeCanvas(src, 256, 256, ModePad)

	mean := MeanColor(src)
	assert.Equal(t, color.NRGBA{R: 127, B: 127, A: 255}, mean)

	// resized region is 256x128 centered at y=64
	assert.Equal(t, mean, out.NRGBAAt(128, 10))
	assert.Equal(t, mean, out.NRGBAAt(128, 250))
	top := out.NRGBAAt(128, 80)
	assert.Greater(t, top.R, uint8(200))
	bottom := out.NRGBAAt(128, 180)
	assert.Greater(t, bottom.B, uint8(200))
}

// TestResizeCanvasIdempotent тестирует, что изображение нужного размера не меняется
func TestResizeCanvasIdempotent(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			src.Set(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 8), B: 77, A: 255})
		}
	}

	for _, mode := range []string{ModeCrop, ModePad} {
		t.Run(mode, func(t *testing.T) {
			out := ResizeCanvas(src, 64, 32, mode)
			assert.Equal(t, src.Pix, out.Pix)
			assert.NotSame(t, &src.Pix[0], &out.Pix[0])
		})
	}
}

func TestDecodeImage(t *testing.T) {
	_, err := DecodeImage(nil)
	assert.ErrorIs(t, err, entity.ErrEmptyImage)

	_, err = DecodeImage([]byte("definitely not an image"))
	assert.ErrorIs(t, err, entity.ErrDecodeImage)

	src := image.NewRGBA(image.Rect(0, 0, 12, 9))
	fillImageWithColor(src, color.RGBA{G: 255, A: 255})
	data, err := PNGBytes(src)
	require.NoError(t, err)

	img, err := DecodeImage(data)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 12, 9), img.Bounds())
}

func TestInvertMask(t *testing.T) {
	mask := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	mask.Set(0, 0, color.White)
	mask.Set(1, 0, color.Black)

	inverted := InvertMask(mask)

	assert.Equal(t, uint8(0), inverted.NRGBAAt(0, 0).R)
	assert.Equal(t, uint8(255), inverted.NRGBAAt(1, 0).R)
}

func TestFlattenRGB(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0})

	flat := FlattenRGB(src)
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, flat.NRGBAAt(0, 0))
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		value    string
		fallback string
		want     color.Color
		wantErr  bool
	}{
		{value: "white", want: color.RGBA{255, 255, 255, 255}},
		{value: "Red", want: color.RGBA{255, 0, 0, 255}},
		{value: "#00ff00", want: color.NRGBA{0, 255, 0, 255}},
		{value: "#00F", want: color.NRGBA{0, 0, 255, 255}},
		{value: "", fallback: "black", want: color.RGBA{0, 0, 0, 255}},
		{value: "#zzzzzz", wantErr: true},
		{value: "rainbow", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseColor(tt.value, tt.fallback)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
