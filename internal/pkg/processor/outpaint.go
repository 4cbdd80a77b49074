package processor

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

const (
	MaxPromptLength    = 950
	DefaultOutpaintDim = 1024

	subjectBoxFraction = 0.6
	foodFallbackPrompt = "A minimalist food photo with %s, no other objects, plain background."
)

type PromptAssistant interface {
	FoodPrompt(ctx context.Context, userPrompt string) (string, error)
}

type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, img image.Image) (image.Image, error)
}

type ImageEditor interface {
	Edit(ctx context.Context, canvas image.Image, prompt string, size int) (image.Image, error)
}

// Outpainter regenerates the surroundings of a food photo: the dish is cut out,
// placed small on a transparent square and the image model fills the rest.
type Outpainter struct {
	assistant PromptAssistant
	remover   BackgroundRemover
	editor    ImageEditor
	size      int
}

func NewOutpainter(assistant PromptAssistant, remover BackgroundRemover, editor ImageEditor, size int) *Outpainter {
	if size <= 0 {
		size = DefaultOutpaintDim
	}
	return &Outpainter{assistant: assistant, remover: remover, editor: editor, size: size}
}

func (o *Outpainter) Outpaint(ctx context.Context, src image.Image, userPrompt, ratio string) (image.Image, error) {
	prompt := o.prompt(ctx, userPrompt)

	subject, err := o.remover.RemoveBackground(ctx, src)
	if err != nil {
		return nil, err
	}

	canvas := PlaceOnCanvas(subject, o.size)
	edited, err := o.editor.Edit(ctx, canvas, prompt, o.size)
	if err != nil {
		return nil, err
	}

	return CropToRatio(edited, ratio), nil
}

func (o *Outpainter) prompt(ctx context.Context, userPrompt string) string {
	if o.assistant != nil {
		prompt, err := o.assistant.FoodPrompt(ctx, userPrompt)
		if err == nil && strings.TrimSpace(prompt) != "" {
			return ClampPrompt(prompt)
		}
		logrus.WithField("user_prompt", userPrompt).Warnf("food prompt assist failed, using fallback: %v", err)
	}
	return ClampPrompt(fmt.Sprintf(foodFallbackPrompt, userPrompt))
}

// ClampPrompt collapses whitespace and cuts the prompt to MaxPromptLength
// characters.
func ClampPrompt(prompt string) string {
	prompt = strings.Join(strings.Fields(prompt), " ")
	if utf8.RuneCountInString(prompt) <= MaxPromptLength {
		return prompt
	}
	return string([]rune(prompt)[:MaxPromptLength])
}

// PlaceOnCanvas centers subject on a transparent size x size canvas, shrinking
// it to fit a box of 60% of the canvas. Smaller subjects are not enlarged.
func PlaceOnCanvas(subject image.Image, size int) *image.NRGBA {
	box := int(float64(size) * subjectBoxFraction)
	fitted := imaging.Fit(subject, box, box, imaging.Lanczos)

	canvas := imaging.New(size, size, color.NRGBA{})
	fb := fitted.Bounds()
	return imaging.Paste(canvas, fitted, image.Pt((size-fb.Dx())/2, (size-fb.Dy())/2))
}

// CropToRatio center-crops a square result to the requested aspect ratio.
// Unparseable ratios keep the image square.
func CropToRatio(img image.Image, ratio string) image.Image {
	aspect, ok := ParseRatio(ratio)
	if !ok || aspect == 1 {
		return img
	}

	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	w, h := side, side
	if aspect > 1 {
		h = max(1, int(float64(side)/aspect))
	} else {
		w = max(1, int(float64(side)*aspect))
	}
	return imaging.CropCenter(img, w, h)
}
