package inpaint

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ds124wfegd/promostudio/config"
	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/ds124wfegd/promostudio/internal/pkg/processor"
	"github.com/sirupsen/logrus"
)

// Request describes one inpainting call. White mask pixels are regenerated.
type Request struct {
	Prompt         string
	NegativePrompt string
	Image          image.Image
	Mask           image.Image
	Width          int
	Height         int
}

type img2imgPayload struct {
	InitImages        []string `json:"init_images"`
	Mask              string   `json:"mask"`
	Prompt            string   `json:"prompt"`
	NegativePrompt    string   `json:"negative_prompt"`
	CfgScale          float64  `json:"cfg_scale"`
	Steps             int      `json:"steps"`
	Width             int      `json:"width"`
	Height            int      `json:"height"`
	DenoisingStrength float64  `json:"denoising_strength"`
	InpaintingFill    int      `json:"inpainting_fill"`
	InpaintFullRes    bool     `json:"inpaint_full_res"`
	MaskBlur          int      `json:"mask_blur"`
}

type img2imgResponse struct {
	Images []string `json:"images"`
}

// Pipeline is a process-wide handle on the Stable Diffusion WebUI inpainting
// model. The model is selected on first use, and inference runs one request
// at a time.
type Pipeline struct {
	cfg        config.InpaintConfig
	httpClient *http.Client

	loadMu sync.Mutex
	loaded bool

	runMu sync.Mutex
}

var (
	shared     *Pipeline
	sharedOnce sync.Once
)

// Shared returns the process-wide pipeline, creating it from cfg on the first
// call. Later calls ignore cfg.
func Shared(cfg config.InpaintConfig) *Pipeline {
	sharedOnce.Do(func() {
		shared = NewPipeline(cfg)
	})
	return shared
}

func NewPipeline(cfg config.InpaintConfig) *Pipeline {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	if cfg.Steps <= 0 {
		cfg.Steps = 50
	}
	if cfg.GuidanceScale <= 0 {
		cfg.GuidanceScale = 7.5
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &Pipeline{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Load selects the configured checkpoint. A failed load is retried on the
// next call.
func (p *Pipeline) Load(ctx context.Context) error {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	if p.loaded {
		return nil
	}

	var err error
	if p.cfg.Checkpoint == "" {
		err = p.call(ctx, http.MethodGet, "/sdapi/v1/options", nil, nil)
	} else {
		err = p.call(ctx, http.MethodPost, "/sdapi/v1/options", map[string]string{"sd_model_checkpoint": p.cfg.Checkpoint}, nil)
	}
	if err != nil {
		logrus.WithField("checkpoint", p.cfg.Checkpoint).Errorf("inpaint model load failed: %v", err)
		return fmt.Errorf("%w: %v", entity.ErrInpaintUnavailable, err)
	}

	p.loaded = true
	logrus.WithField("checkpoint", p.cfg.Checkpoint).Info("inpaint model loaded")
	return nil
}

func (p *Pipeline) Loaded() bool {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	return p.loaded
}

// Inpaint regenerates the masked area of req.Image. The result always has the
// requested size.
func (p *Pipeline) Inpaint(ctx context.Context, req Request) (image.Image, error) {
	if err := p.Load(ctx); err != nil {
		return nil, err
	}

	initPNG, err := processor.PNGBytes(req.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInpaintFailed, err)
	}
	maskPNG, err := processor.PNGBytes(req.Mask)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInpaintFailed, err)
	}

	negative := req.NegativePrompt
	if negative == "" {
		negative = p.cfg.NegativePrompt
	}

	payload := img2imgPayload{
		InitImages:        []string{base64.StdEncoding.EncodeToString(initPNG)},
		Mask:              base64.StdEncoding.EncodeToString(maskPNG),
		Prompt:            req.Prompt,
		NegativePrompt:    negative,
		CfgScale:          p.cfg.GuidanceScale,
		Steps:             p.cfg.Steps,
		Width:             req.Width,
		Height:            req.Height,
		DenoisingStrength: 1.0,
		InpaintingFill:    1,
		MaskBlur:          4,
	}

	p.runMu.Lock()
	defer p.runMu.Unlock()

	var out img2imgResponse
	if err := p.call(ctx, http.MethodPost, "/sdapi/v1/img2img", payload, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInpaintFailed, err)
	}
	if len(out.Images) == 0 {
		return nil, fmt.Errorf("%w: no images returned", entity.ErrInpaintFailed)
	}

	raw, err := base64.StdEncoding.DecodeString(stripDataURL(out.Images[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInpaintFailed, err)
	}
	result, err := processor.DecodeImage(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInpaintFailed, err)
	}
	return processor.FitToSize(result, req.Width, req.Height), nil
}

func (p *Pipeline) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.cfg.URL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func stripDataURL(s string) string {
	if idx := strings.Index(s, ","); idx >= 0 && strings.HasPrefix(s, "data:") {
		return s[idx+1:]
	}
	return s
}
