package transport

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/ds124wfegd/promostudio/internal/pkg/processor"
	"github.com/gin-gonic/gin"
)

func (h *Handler) Outpaint(c *gin.Context) {
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

	req := entity.OutpaintRequest{
		Image:      input,
		UserPrompt: userPrompt,
		Ratio:      formDefault(c, "ratio", processor.DefaultRatio),
	}
	if raw := strings.TrimSpace(c.PostForm("group")); raw != "" {
		group, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || group <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "group must be a positive integer"})
			return
		}
		req.Group = &group
	}

	if queryFlag(c, "async") {
		accepted, err := h.outpaint.Enqueue(c.Request.Context(), req)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, accepted)
		return
	}

	group, err := h.outpaint.Outpaint(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("X-Group", strconv.FormatInt(group, 10))
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetOutpaintJob(c *gin.Context) {
	id := c.Param("id")

	job, err := h.outpaint.GetJob(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *Handler) DeleteOutpaintJob(c *gin.Context) {
	id := c.Param("id")

	err := h.outpaint.DeleteJob(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job deleted successfully"})
}
