package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/geopulse-go/internal/middleware"
	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/service"
	"github.com/jengzang/geopulse-go/pkg/response"
)

// FavoriteHandler handles HTTP requests for favorite locations. Mutations
// respond after the timeline has been regenerated.
type FavoriteHandler struct {
	service *service.FavoriteService
}

// NewFavoriteHandler creates a new favorite handler
func NewFavoriteHandler(service *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{service: service}
}

// List handles GET /api/v1/favorites
func (h *FavoriteHandler) List(c *gin.Context) {
	favs, err := h.service.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, favs)
}

// Get handles GET /api/v1/favorites/:id
func (h *FavoriteHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	fav, err := h.service.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, fav)
}

// Create handles POST /api/v1/favorites
func (h *FavoriteHandler) Create(c *gin.Context) {
	var in models.FavoriteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.FromError(c, bindError(err))
		return
	}
	res, err := h.service.Create(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

// Update handles PUT /api/v1/favorites/:id
func (h *FavoriteHandler) Update(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	var in models.FavoriteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.FromError(c, bindError(err))
		return
	}
	res, err := h.service.Update(c.Request.Context(), middleware.UserID(c), id, in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

// Delete handles DELETE /api/v1/favorites/:id
func (h *FavoriteHandler) Delete(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	res, err := h.service.Delete(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}
