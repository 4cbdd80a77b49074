package transport

import (
	"errors"
	"net/http"

	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/gin-gonic/gin"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{entity.ErrEmptyImage, http.StatusBadRequest},
	{entity.ErrDecodeImage, http.StatusBadRequest},
	{entity.ErrInvalidElements, http.StatusBadRequest},
	{entity.ErrNoImages, http.StatusBadRequest},
	{entity.ErrInvalidSize, http.StatusBadRequest},
	{entity.ErrMissingField, http.StatusBadRequest},
	{entity.ErrInvalidField, http.StatusBadRequest},
	{entity.ErrJobNotFound, http.StatusNotFound},
	{entity.ErrLLMTimeout, http.StatusGatewayTimeout},
	{entity.ErrLLMUpstream, http.StatusBadGateway},
	{entity.ErrEmptyModelResponse, http.StatusBadGateway},
}

func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}
