package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/service"
	"github.com/jengzang/geopulse-go/internal/timeline"
	"github.com/jengzang/geopulse-go/pkg/response"
)

// ClientIDHeader identifies a client view; a newer read of the same view with
// the same value supersedes an older one still in flight
const ClientIDHeader = "X-Client-ID"

// readError writes err for a read handler; superseded reads get 409
func readError(c *gin.Context, err error) {
	if errors.Is(err, timeline.ErrSuperseded) {
		response.Error(c, http.StatusConflict, err.Error())
		return
	}
	response.FromError(c, err)
}

// dateRange parses startDate and endDate; endDate defaults to startDate
func dateRange(f models.RangeFilter) (timeline.DateRange, error) {
	if f.StartDate == "" {
		return timeline.DateRange{}, fmt.Errorf("%w: startDate is required", models.ErrInvalidDateRange)
	}
	end := f.EndDate
	if end == "" {
		end = f.StartDate
	}
	return timeline.ParseDateRange(f.StartDate, end)
}

// optionalDateRange is dateRange when a startDate is given, nil otherwise
func optionalDateRange(f models.RangeFilter) (*timeline.DateRange, error) {
	if f.StartDate == "" && f.EndDate == "" {
		return nil, nil
	}
	r, err := dateRange(f)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// location resolves the timezone of the request for userID
func location(c *gin.Context, svc *service.TimelineService, userID, override string) (*time.Location, error) {
	return svc.Location(c.Request.Context(), userID, override)
}

func int64Param(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", models.ErrValidation, name)
	}
	return id, nil
}

func bindError(err error) error {
	return fmt.Errorf("%w: %v", models.ErrValidation, err)
}
