package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/geopulse-go/internal/middleware"
	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/service"
	"github.com/jengzang/geopulse-go/pkg/response"
)

// DashboardHandler handles HTTP requests for aggregate views
type DashboardHandler struct {
	service *service.TimelineService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *service.TimelineService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	var filter models.RangeFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.FromError(c, bindError(err))
		return
	}

	r, err := dateRange(filter)
	if err != nil {
		response.FromError(c, err)
		return
	}

	userID := middleware.UserID(c)
	loc, err := location(c, h.service, userID, filter.Timezone)
	if err != nil {
		response.FromError(c, err)
		return
	}

	summary, err := h.service.Dashboard(c.Request.Context(), userID, r, loc, c.GetHeader(ClientIDHeader))
	if err != nil {
		readError(c, err)
		return
	}

	response.Success(c, summary)
}

// GetJourneyInsights handles GET /api/v1/journey-insights. Without dates
// it covers the whole history.
func (h *DashboardHandler) GetJourneyInsights(c *gin.Context) {
	var filter models.RangeFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.FromError(c, bindError(err))
		return
	}

	r, err := optionalDateRange(filter)
	if err != nil {
		response.FromError(c, err)
		return
	}

	userID := middleware.UserID(c)
	loc, err := location(c, h.service, userID, filter.Timezone)
	if err != nil {
		response.FromError(c, err)
		return
	}

	insights, err := h.service.JourneyInsights(c.Request.Context(), userID, r, loc, c.GetHeader(ClientIDHeader))
	if err != nil {
		readError(c, err)
		return
	}

	response.Success(c, insights)
}
