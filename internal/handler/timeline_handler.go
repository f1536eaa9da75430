package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/geopulse-go/internal/middleware"
	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/service"
	"github.com/jengzang/geopulse-go/internal/timeline"
	"github.com/jengzang/geopulse-go/pkg/response"
)

// TimelineHandler handles HTTP requests for the movement timeline
type TimelineHandler struct {
	service *service.TimelineService
}

// NewTimelineHandler creates a new timeline handler
func NewTimelineHandler(service *service.TimelineService) *TimelineHandler {
	return &TimelineHandler{service: service}
}

// GetTimeline handles GET /api/v1/timeline
func (h *TimelineHandler) GetTimeline(c *gin.Context) {
	var filter models.RangeFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.FromError(c, bindError(err))
		return
	}

	r, err := dateRange(filter)
	if err == nil {
		err = r.Validate(timeline.MaxRangeDays)
	}
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

	tl, err := h.service.Timeline(c.Request.Context(), userID, r, loc, c.GetHeader(ClientIDHeader))
	if err != nil {
		readError(c, err)
		return
	}

	response.Success(c, tl)
}

// GetSegment handles GET /api/v1/segments/:id
func (h *TimelineHandler) GetSegment(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}

	userID := middleware.UserID(c)
	loc, err := location(c, h.service, userID, c.Query("timezone"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	detail, err := h.service.Segment(c.Request.Context(), userID, id, loc)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, detail)
}

// Regenerate handles POST /api/v1/timeline/regenerate. It returns once the
// new segmentation is visible to reads.
func (h *TimelineHandler) Regenerate(c *gin.Context) {
	task, err := h.service.Regenerate(c.Request.Context(), middleware.UserID(c), models.TriggerManual)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, task)
}

// GetRegeneration handles GET /api/v1/timeline/regenerations/:id
func (h *TimelineHandler) GetRegeneration(c *gin.Context) {
	task, err := h.service.Task(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, task)
}

// ListRegenerations handles GET /api/v1/timeline/regenerations
func (h *TimelineHandler) ListRegenerations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	tasks, err := h.service.Tasks(c.Request.Context(), middleware.UserID(c), c.Query("status"), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, tasks)
}
