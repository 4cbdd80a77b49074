package dalle

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"net/http"
	"os"
	"time"

	"github.com/ds124wfegd/promostudio/config"
	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/ds124wfegd/promostudio/internal/pkg/processor"
	"github.com/sashabaranov/go-openai"
)

const defaultTimeout = 2 * time.Minute

// Editor fills the transparent area of a canvas through the OpenAI image edit
// endpoint.
type Editor struct {
	client *openai.Client
	model  string
}

func NewEditor(cfg config.OpenAIConfig) *Editor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	model := cfg.Model
	if model == "" {
		model = openai.CreateImageModelDallE2
	}
	return &Editor{client: openai.NewClientWithConfig(clientCfg), model: model}
}

// Edit sends canvas (PNG with transparency) and returns the generated square
// image of the given size.
func (e *Editor) Edit(ctx context.Context, canvas image.Image, prompt string, size int) (image.Image, error) {
	file, err := writeTempPNG(canvas)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrOutpaintFailed, err)
	}
	defer func() {
		file.Close()
		os.Remove(file.Name())
	}()

	resp, err := e.client.CreateEditImage(ctx, openai.ImageEditRequest{
		Image:          file,
		Prompt:         prompt,
		Model:          e.model,
		N:              1,
		Size:           fmt.Sprintf("%dx%d", size, size),
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrOutpaintFailed, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("%w: empty edit response", entity.ErrOutpaintFailed)
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrOutpaintFailed, err)
	}
	return processor.DecodeImage(raw)
}

func writeTempPNG(img image.Image) (*os.File, error) {
	file, err := os.CreateTemp("", "outpaint-*.png")
	if err != nil {
		return nil, err
	}
	if err := processor.EncodePNG(file, img); err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, err
	}
	if _, err := file.Seek(0, 0); err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, err
	}
	return file, nil
}
