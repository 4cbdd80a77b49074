package transport

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/ds124wfegd/promostudio/internal/pkg/processor"
	"github.com/gin-gonic/gin"
)

func (h *Handler) AdImage(c *gin.Context) {
	input, err := requiredFile(c, "input_image")
	if err != nil {
		abortWithError(c, err)
		return
	}
	userPrompt, err := requiredForm(c, "user_prompt")
	if err != nil {
		abortWithError(c, err)
		return
	}
	baseSize, err := formInt(c, "base_size", processor.DefaultBaseSize)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if baseSize < 0 || (h.maxDimension > 0 && baseSize > h.maxDimension) {
		abortWithError(c, fmt.Errorf("%w: base_size must not exceed %d", entity.ErrInvalidField, h.maxDimension))
		return
	}
	logoHeaders, err := optionalFiles(c, "logos")
	if err != nil {
		abortWithError(c, err)
		return
	}
	logos, err := readUploads(logoHeaders)
	if err != nil {
		abortWithError(c, err)
		return
	}

	result, err := h.adImage.Compose(c.Request.Context(), entity.AdImageRequest{
		Image:        input,
		UserPrompt:   userPrompt,
		ResizeMode:   formDefault(c, "resize_mode", processor.ModePad),
		Ratio:        formDefault(c, "ratio", processor.DefaultRatio),
		BaseSize:     baseSize,
		ElementsJSON: c.PostForm("elements_json"),
		Logos:        logos,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	jpeg, err := processor.JPEGBytes(result.Image)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if c.Query("return") == "json" {
		b := result.Image.Bounds()
		c.JSON(http.StatusOK, entity.AdImageResponse{
			Width:           b.Dx(),
			Height:          b.Dy(),
			Prompt:          result.Prompt,
			ImageBase64:     base64.StdEncoding.EncodeToString(jpeg),
			ElementFailures: result.Failures,
		})
		return
	}

	c.Header("Content-Disposition", "inline; filename=ad_image.jpg")
	c.Data(http.StatusOK, "image/jpeg", jpeg)
}
