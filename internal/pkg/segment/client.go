package segment

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ds124wfegd/promostudio/config"
	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/ds124wfegd/promostudio/internal/pkg/processor"
)

// Client talks to a rembg server.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewClient(cfg config.SegmentConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RemoveBackground returns img with its background made transparent.
func (c *Client) RemoveBackground(ctx context.Context, img image.Image) (image.Image, error) {
	return c.remove(ctx, img, false)
}

// ForegroundMask returns a grayscale mask where the foreground is white.
func (c *Client) ForegroundMask(ctx context.Context, img image.Image) (image.Image, error) {
	return c.remove(ctx, img, true)
}

func (c *Client) remove(ctx context.Context, img image.Image, maskOnly bool) (image.Image, error) {
	png, err := processor.PNGBytes(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSegmentation, err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSegmentation, err)
	}
	if _, err := part.Write(png); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSegmentation, err)
	}
	if c.model != "" {
		_ = writer.WriteField("model", c.model)
	}
	_ = writer.WriteField("om", fmt.Sprintf("%t", maskOnly))
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSegmentation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/remove", body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSegmentation, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSegmentation, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSegmentation, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", entity.ErrSegmentation, resp.StatusCode, truncate(string(data), 200))
	}

	out, err := processor.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSegmentation, err)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
