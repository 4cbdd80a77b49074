package transport

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/gin-gonic/gin"
)

// publicBaseURL honours the proxy headers set by nginx.
func publicBaseURL(c *gin.Context) string {
	scheme := c.GetHeader("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	return scheme + "://" + host
}

func requiredForm(c *gin.Context, field string) (string, error) {
	value := strings.TrimSpace(c.PostForm(field))
	if value == "" {
		return "", fmt.Errorf("%w: %s", entity.ErrMissingField, field)
	}
	return value, nil
}

func formDefault(c *gin.Context, field, def string) string {
	if value := strings.TrimSpace(c.PostForm(field)); value != "" {
		return value
	}
	return def
}

func formInt(c *gin.Context, field string, def int) (int, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", entity.ErrInvalidField, field)
	}
	return n, nil
}

func formFloat(c *gin.Context, field string) (*float64, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", entity.ErrInvalidField, field)
	}
	return &f, nil
}

func queryFlag(c *gin.Context, key string) bool {
	switch strings.ToLower(c.Query(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func requiredFile(c *gin.Context, field string) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, fmt.Errorf("%w: %s", entity.ErrMissingField, field)
		}
		return nil, err
	}
	return readUpload(header)
}

// optionalFiles returns every upload of field in form order.
func optionalFiles(c *gin.Context, field string) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if err == http.ErrNotMultipart {
			return nil, nil
		}
		return nil, err
	}
	return form.File[field], nil
}

func readUploads(headers []*multipart.FileHeader) ([][]byte, error) {
	out := make([][]byte, 0, len(headers))
	for _, h := range headers {
		data, err := readUpload(h)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}

func inlineImages(headers []*multipart.FileHeader) ([]entity.InlineImage, error) {
	images := make([]entity.InlineImage, 0, len(headers))
	for _, h := range headers {
		data, err := readUpload(h)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		mime := h.Header.Get("Content-Type")
		if mime == "" || mime == "application/octet-stream" {
			mime = "image/jpeg"
		}
		images = append(images, entity.InlineImage{Data: data, MimeType: mime})
	}
	return images, nil
}
