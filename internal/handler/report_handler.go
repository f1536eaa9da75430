package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/geopulse-go/internal/middleware"
	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/report"
	"github.com/jengzang/geopulse-go/internal/service"
	"github.com/jengzang/geopulse-go/internal/timeline"
	"github.com/jengzang/geopulse-go/pkg/response"
)

// ReportHandler handles HTTP requests for the report tables
type ReportHandler struct {
	service *service.TimelineService
}

// NewReportHandler creates a new report handler
func NewReportHandler(service *service.TimelineService) *ReportHandler {
	return &ReportHandler{service: service}
}

type reportRequest struct {
	userID string
	rng    timeline.DateRange
	loc    *time.Location
	query  report.Query
}

func (h *ReportHandler) parse(c *gin.Context) (*reportRequest, error) {
	var filter models.ReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		return nil, bindError(err)
	}

	r, err := dateRange(models.RangeFilter{StartDate: filter.StartDate, EndDate: filter.EndDate})
	if err != nil {
		return nil, err
	}

	userID := middleware.UserID(c)
	loc, err := location(c, h.service, userID, filter.Timezone)
	if err != nil {
		return nil, err
	}

	return &reportRequest{userID: userID, rng: r, loc: loc, query: report.QueryFromFilter(filter)}, nil
}

// GetTable handles GET /api/v1/reports/:kind
func (h *ReportHandler) GetTable(c *gin.Context) {
	kind, err := report.ParseKind(c.Param("kind"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	req, err := h.parse(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	page, err := h.service.Report(c.Request.Context(), req.userID, kind, req.rng, req.loc, req.query, c.GetHeader(ClientIDHeader))
	if err != nil {
		readError(c, err)
		return
	}

	response.Success(c, page)
}

// GetCSV handles GET /api/v1/reports/:kind/csv
func (h *ReportHandler) GetCSV(c *gin.Context) {
	kind, err := report.ParseKind(c.Param("kind"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	req, err := h.parse(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportCSV(c.Request.Context(), &buf, req.userID, kind, req.rng, req.loc, req.query); err != nil {
		response.FromError(c, err)
		return
	}

	attachment(c, report.Filename(kind))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Export handles GET /api/v1/reports/export
func (h *ReportHandler) Export(c *gin.Context) {
	req, err := h.parse(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportAll(c.Request.Context(), &buf, req.userID, req.rng, req.loc); err != nil {
		response.FromError(c, err)
		return
	}

	attachment(c, fmt.Sprintf("timeline_%s_%s.zip", req.rng.Start, req.rng.End))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
