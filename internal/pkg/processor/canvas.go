package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/promostudio/internal/entity"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	ModeCrop = "crop"
	ModePad  = "pad"

	JPEGQuality = 95
)

// DecodeImage decodes PNG, JPEG, GIF or WebP data, honouring EXIF orientation.
// Empty or undecodable input is an error the caller must surface.
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, entity.ErrEmptyImage
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrDecodeImage, err)
	}
	if img.Bounds().Empty() {
		return nil, entity.ErrEmptyImage
	}
	return img, nil
}

// FlattenRGB drops the alpha channel, keeping the stored colour values.
func FlattenRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// ResizeCanvas maps img onto exactly width x height. ModeCrop covers the frame
// and crops the overflow; every other mode letterboxes the whole source onto a
// background of the source's mean colour.
func ResizeCanvas(img image.Image, width, height int, mode string) *image.NRGBA {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()

	if srcW == width && srcH == height {
		return imaging.Clone(img)
	}

	if mode == ModeCrop {
		return imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
	}

	var newW, newH int
	if srcW*height > width*srcH {
		// source is wider than the target
		newW = width
		newH = width * srcH / srcW
	} else {
		newH = height
		newW = height * srcW / srcH
	}
	newW = max(1, newW)
	newH = max(1, newH)

	resized := imaging.Resize(img, newW, newH, imaging.Lanczos)
	canvas := imaging.New(width, height, MeanColor(img))
	return imaging.Paste(canvas, resized, image.Pt((width-newW)/2, (height-newH)/2))
}

// MeanColor averages R, G and B independently over every pixel of img.
func MeanColor(img image.Image) color.NRGBA {
	src := imaging.Clone(img)
	var r, g, b, n uint64
	for i := 0; i+3 < len(src.Pix); i += 4 {
		r += uint64(src.Pix[i])
		g += uint64(src.Pix[i+1])
		b += uint64(src.Pix[i+2])
		n++
	}
	if n == 0 {
		return color.NRGBA{A: 0xff}
	}
	return color.NRGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n), A: 0xff}
}

// InvertMask turns a foreground mask (white = subject) into a background mask
// (white = area to regenerate).
func InvertMask(mask image.Image) *image.NRGBA {
	return imaging.Invert(imaging.Grayscale(mask))
}

// ToRGBA returns a drawable copy of img with its origin at (0, 0).
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// FitToSize resamples img when it does not already have the requested size.
func FitToSize(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

func EncodeJPEG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
}

func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

// PNGBytes encodes img as PNG into memory.
func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// JPEGBytes encodes img as JPEG into memory.
func JPEGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
