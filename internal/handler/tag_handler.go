package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/geopulse-go/internal/middleware"
	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/service"
	"github.com/jengzang/geopulse-go/pkg/response"
)

// TagHandler handles HTTP requests for period tags
type TagHandler struct {
	service *service.TagService
}

// NewTagHandler creates a new tag handler
func NewTagHandler(service *service.TagService) *TagHandler {
	return &TagHandler{service: service}
}

// List handles GET /api/v1/period-tags
func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.service.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, tags)
}

// Get handles GET /api/v1/period-tags/:id
func (h *TagHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	tag, err := h.service.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, tag)
}

// Create handles POST /api/v1/period-tags
func (h *TagHandler) Create(c *gin.Context) {
	var in models.PeriodTagInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.FromError(c, bindError(err))
		return
	}
	tag, err := h.service.Create(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, tag)
}

// Update handles PUT /api/v1/period-tags/:id
func (h *TagHandler) Update(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	var in models.PeriodTagInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.FromError(c, bindError(err))
		return
	}
	tag, err := h.service.Update(c.Request.Context(), middleware.UserID(c), id, in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, tag)
}

// Delete handles DELETE /api/v1/period-tags/:id
func (h *TagHandler) Delete(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}
