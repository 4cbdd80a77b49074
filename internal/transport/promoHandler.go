package transport

import (
	"net/http"

	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/ds124wfegd/promostudio/internal/pkg/copywriter"
	"github.com/gin-gonic/gin"
)

func (h *Handler) GeneratePromo(c *gin.Context) {
	storeName, err := requiredForm(c, "store_name")
	if err != nil {
		abortWithError(c, err)
		return
	}
	mood, err := requiredForm(c, "mood")
	if err != nil {
		abortWithError(c, err)
		return
	}
	variants, err := formInt(c, "variants", copywriter.DefaultVariants)
	if err != nil {
		abortWithError(c, err)
		return
	}
	latitude, err := formFloat(c, "latitude")
	if err != nil {
		abortWithError(c, err)
		return
	}
	longitude, err := formFloat(c, "longitude")
	if err != nil {
		abortWithError(c, err)
		return
	}

	var attachments []entity.InlineImage
	for _, field := range []string{"store_images", "food_images"} {
		headers, err := optionalFiles(c, field)
		if err != nil {
			abortWithError(c, err)
			return
		}
		images, err := inlineImages(headers)
		if err != nil {
			abortWithError(c, err)
			return
		}
		attachments = append(attachments, images...)
	}

	req := entity.PromoRequest{
		StoreName:        storeName,
		Mood:             mood,
		StoreDescription: c.PostForm("store_description"),
		LocationText:     c.PostForm("location_text"),
		Latitude:         latitude,
		Longitude:        longitude,
		Variants:         variants,
		Language:         formDefault(c, "language", copywriter.DefaultLanguage),
		Debug:            queryFlag(c, "debug"),
		BaseURL:          publicBaseURL(c),
		Attachments:      attachments,
	}

	out, err := h.promo.GeneratePromo(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}
