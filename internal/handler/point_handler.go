package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/geopulse-go/internal/middleware"
	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/service"
	"github.com/jengzang/geopulse-go/pkg/response"
)

// PointHandler handles raw GPS point ingestion
type PointHandler struct {
	service *service.PointService
}

// NewPointHandler creates a new point handler
func NewPointHandler(service *service.PointService) *PointHandler {
	return &PointHandler{service: service}
}

type ingestRequest struct {
	Points []models.RawPointInput `json:"points" binding:"required,dive"`
}

// Ingest handles POST /api/v1/points
func (h *PointHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, bindError(err))
		return
	}

	res, err := h.service.Ingest(c.Request.Context(), middleware.UserID(c), req.Points)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

// Count handles GET /api/v1/points/count
func (h *PointHandler) Count(c *gin.Context) {
	total, err := h.service.Count(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"total": total})
}
