package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/geopulse-go/internal/middleware"
	"github.com/jengzang/geopulse-go/internal/service"
	"github.com/jengzang/geopulse-go/pkg/response"
)

// ProfileHandler handles the user's timezone profile
type ProfileHandler struct {
	service *service.UserService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(service *service.UserService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

type timezoneRequest struct {
	Timezone string `json:"timezone" binding:"required"`
}

// GetTimezone handles GET /api/v1/profile/timezone
func (h *ProfileHandler) GetTimezone(c *gin.Context) {
	user, err := h.service.Profile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"timezone": user.Timezone})
}

// SetTimezone handles PUT /api/v1/profile/timezone
func (h *ProfileHandler) SetTimezone(c *gin.Context) {
	var req timezoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, bindError(err))
		return
	}
	user, err := h.service.SetTimezone(c.Request.Context(), middleware.UserID(c), req.Timezone)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"timezone": user.Timezone})
}
