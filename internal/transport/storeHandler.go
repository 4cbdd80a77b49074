package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) UploadStoreImages(c *gin.Context) {
	headers, err := optionalFiles(c, "images")
	if err != nil {
		abortWithError(c, err)
		return
	}
	uploads, err := readUploads(headers)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp, err := h.store.UploadStoreImages(c.Request.Context(), uploads, publicBaseURL(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
