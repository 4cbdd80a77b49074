package transport

import (
	"net/http"

	"github.com/ds124wfegd/promostudio/internal/service"
	"github.com/gin-gonic/gin"
)

// Readiness reports whether a lazily loaded model is ready.
type Readiness interface {
	Loaded() bool
}

type Handler struct {
	promo    service.PromoService
	adImage  service.AdImageService
	store    service.StoreService
	outpaint service.OutpaintService

	model        string
	inpaint      Readiness
	maxDimension int
}

func NewHandler(promo service.PromoService, adImage service.AdImageService, store service.StoreService,
	outpaint service.OutpaintService, model string, inpaint Readiness, maxDimension int) *Handler {
	return &Handler{
		promo:    promo,
		adImage:  adImage,
		store:    store,
		outpaint: outpaint,
		model:    model,
		inpaint:  inpaint,

		maxDimension: maxDimension,
	}
}

func (h *Handler) Health(c *gin.Context) {
	loaded := false
	if h.inpaint != nil {
		loaded = h.inpaint.Loaded()
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":             true,
		"model":          h.model,
		"inpaint_loaded": loaded,
	})
}

func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Promo & Ad Image backend is running.",
		"endpoints": []string{
			"/health",
			"/v1/generate-promo (POST form-data)",
			"/v1/ad-image (POST form-data; return=image|json)",
			"/v1/upload-store-images (POST form-data)",
			"/v1/outpaint (POST form-data; async=1)",
			"/v1/outpaint/jobs/:id (GET, DELETE)",
		},
	})
}
