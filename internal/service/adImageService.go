package service

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/ds124wfegd/promostudio/internal/pkg/inpaint"
	"github.com/ds124wfegd/promostudio/internal/pkg/processor"
	"github.com/sirupsen/logrus"
)

const fallbackBackgroundPrompt = "cinematic wide background, moody atmosphere, soft volumetric lighting, " +
	"depth of field, photorealistic, rich textures, high detail"

func (s *adImageService) Compose(ctx context.Context, req entity.AdImageRequest) (*entity.AdImageResult, error) {
	if strings.TrimSpace(req.UserPrompt) == "" {
		return nil, entity.ErrMissingField
	}
	elements, err := processor.ParseElements(req.ElementsJSON)
	if err != nil {
		return nil, err
	}

	if req.BaseSize > s.maxDimension {
		return nil, fmt.Errorf("%w: base_size %d exceeds %d", entity.ErrInvalidSize, req.BaseSize, s.maxDimension)
	}
	width, height := processor.ResolveSize(req.Ratio, req.BaseSize)
	if width < 8 || height < 8 {
		return nil, fmt.Errorf("%w: %dx%d is below 8x8", entity.ErrInvalidSize, width, height)
	}
	if width > s.maxDimension || height > s.maxDimension {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d", entity.ErrInvalidSize, width, height, s.maxDimension)
	}

	src, err := processor.DecodeImage(req.Image)
	if err != nil {
		return nil, err
	}
	canvas := processor.ResizeCanvas(processor.FlattenRGB(src), width, height, req.ResizeMode)

	// белый = объект, после инверсии белый = фон для перерисовки
	foreground, err := s.masks.ForegroundMask(ctx, canvas)
	if err != nil {
		return nil, err
	}
	mask := processor.InvertMask(processor.FitToSize(foreground, width, height))

	prompt := s.backgroundPrompt(ctx, req.UserPrompt, canvas)

	generated, err := s.inpainter.Inpaint(ctx, inpaint.Request{
		Prompt: prompt,
		Image:  canvas,
		Mask:   mask,
		Width:  width,
		Height: height,
	})
	if err != nil {
		return nil, err
	}

	out := processor.ToRGBA(processor.FitToSize(generated, width, height))
	failures := s.renderer.Apply(out, elements, decodeLogos(req.Logos))

	return &entity.AdImageResult{Image: out, Prompt: prompt, Failures: failures}, nil
}

func (s *adImageService) backgroundPrompt(ctx context.Context, userPrompt string, canvas image.Image) string {
	png, err := processor.PNGBytes(canvas)
	if err == nil {
		var prompt string
		prompt, err = s.prompter.BackgroundPrompt(ctx, userPrompt, png)
		if err == nil && strings.TrimSpace(prompt) != "" {
			return strings.TrimSpace(prompt)
		}
	}
	logrus.WithField("user_prompt", userPrompt).Warnf("background prompt assist failed, using fallback: %v", err)
	return fallbackBackgroundPrompt
}

// decodeLogos keeps a nil placeholder for each upload that is not an image so
// logo_index still refers to the upload order.
func decodeLogos(uploads [][]byte) []image.Image {
	logos := make([]image.Image, len(uploads))
	for i, data := range uploads {
		img, err := processor.DecodeImage(data)
		if err != nil {
			logrus.WithField("logo_index", i).Warnf("logo upload ignored: %v", err)
			continue
		}
		logos[i] = img
	}
	return logos
}
