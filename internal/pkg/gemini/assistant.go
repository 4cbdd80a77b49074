package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/patrickmn/go-cache"
)

const backgroundInstruction = "You are an expert prompt engineer for Stable Diffusion Inpainting.\n" +
	"Return ONLY a single concise English prompt that vividly describes a NEW BACKGROUND matching the user's concept.\n" +
	"Do NOT mention text, logos, watermarks, or people. Focus on atmosphere, lighting, environment, and style.\n" +
	"User concept (Korean allowed): %s\n"

const foodInstruction = `You are a professional food photographer and a DALL-E prompt expert.
Translate the Korean request into a vivid English prompt for an image outpainting task.
Minimalist, clean, ONLY the main food item, plain background.
No other objects, no cutlery, no side dishes.
Korean Request: "%s"`

// PromptAssistant turns a user's free-form concept into an English prompt for
// the image models.
type PromptAssistant struct {
	gen   Generator
	model string
	cache *cache.Cache
}

func NewPromptAssistant(gen Generator, model string, ttl time.Duration) *PromptAssistant {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &PromptAssistant{
		gen:   gen,
		model: model,
		cache: cache.New(ttl, 2*ttl),
	}
}

// BackgroundPrompt describes a new background for the attached PNG canvas.
func (a *PromptAssistant) BackgroundPrompt(ctx context.Context, userPrompt string, canvasPNG []byte) (string, error) {
	var images []entity.InlineImage
	if len(canvasPNG) > 0 {
		images = append(images, entity.InlineImage{Data: canvasPNG, MimeType: "image/png"})
	}
	return a.gen.Generate(ctx, a.model, fmt.Sprintf(backgroundInstruction, userPrompt), images)
}

// FoodPrompt builds an outpainting prompt for a single food item. Results are
// cached per request text.
func (a *PromptAssistant) FoodPrompt(ctx context.Context, userPrompt string) (string, error) {
	key := strings.TrimSpace(userPrompt)
	if cached, ok := a.cache.Get(key); ok {
		return cached.(string), nil
	}

	prompt, err := a.gen.Generate(ctx, a.model, fmt.Sprintf(foodInstruction, userPrompt), nil)
	if err != nil {
		return "", err
	}
	a.cache.SetDefault(key, prompt)
	return prompt, nil
}
