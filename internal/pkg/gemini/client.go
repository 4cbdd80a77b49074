package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ds124wfegd/promostudio/config"
	"github.com/ds124wfegd/promostudio/internal/entity"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Generator produces text from a prompt and optional inline images.
type Generator interface {
	Generate(ctx context.Context, model, prompt string, images []entity.InlineImage) (string, error)
}

type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
}

func NewClient(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	return &Client{
		client:  client,
		model:   config.NormalizeModelID(cfg.Model),
		timeout: timeout,
		limiter: newLimiter(cfg.RatePerMinute),
	}, nil
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 2)
}

// Model is the default model id used for promo text.
func (c *Client) Model() string {
	return c.model
}

func (c *Client) Generate(ctx context.Context, model, prompt string, images []entity.InlineImage) (string, error) {
	if model == "" {
		model = c.model
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", classify(ctx, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	for _, img := range images {
		if len(img.Data) == 0 {
			continue
		}
		mime := img.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mime, Data: img.Data}})
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", classify(ctx, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", entity.ErrEmptyModelResponse
	}
	return text, nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", entity.ErrLLMTimeout, err)
	}
	return fmt.Errorf("%w: %v", entity.ErrLLMUpstream, err)
}
