package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/geopulse-go/internal/handler"
	"github.com/jengzang/geopulse-go/internal/metrics"
	"github.com/jengzang/geopulse-go/internal/middleware"
	"github.com/jengzang/geopulse-go/internal/service"
)

// Services are the dependencies of the HTTP API
type Services struct {
	Timeline  *service.TimelineService
	Favorites *service.FavoriteService
	Tags      *service.TagService
	Points    *service.PointService
	Users     *service.UserService
}

// Options configures the router
type Options struct {
	Auth       middleware.AuthConfig
	RateLimit  int
	RateWindow time.Duration
}

// SetupRouter builds the gin engine with every route
func SetupRouter(svc Services, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(), middleware.CORS(), metrics.Middleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "GeoPulse timeline API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	timelineHandler := handler.NewTimelineHandler(svc.Timeline)
	dashboardHandler := handler.NewDashboardHandler(svc.Timeline)
	reportHandler := handler.NewReportHandler(svc.Timeline)
	favoriteHandler := handler.NewFavoriteHandler(svc.Favorites)
	tagHandler := handler.NewTagHandler(svc.Tags)
	pointHandler := handler.NewPointHandler(svc.Points)
	profileHandler := handler.NewProfileHandler(svc.Users)

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(opts.Auth))
	if opts.RateLimit > 0 && opts.RateWindow > 0 {
		api.Use(middleware.RateLimit(opts.RateLimit, opts.RateWindow))
	}
	{
		tl := api.Group("/timeline")
		{
			tl.GET("", timelineHandler.GetTimeline)
			tl.POST("/regenerate", timelineHandler.Regenerate)
			tl.GET("/regenerations", timelineHandler.ListRegenerations)
			tl.GET("/regenerations/:id", timelineHandler.GetRegeneration)
		}

		api.GET("/segments/:id", timelineHandler.GetSegment)
		api.GET("/dashboard", dashboardHandler.GetDashboard)
		api.GET("/journey-insights", dashboardHandler.GetJourneyInsights)

		reports := api.Group("/reports")
		{
			reports.GET("/export", reportHandler.Export)
			reports.GET("/:kind", reportHandler.GetTable)
			reports.GET("/:kind/csv", reportHandler.GetCSV)
		}

		favorites := api.Group("/favorites")
		{
			favorites.GET("", favoriteHandler.List)
			favorites.POST("", favoriteHandler.Create)
			favorites.GET("/:id", favoriteHandler.Get)
			favorites.PUT("/:id", favoriteHandler.Update)
			favorites.DELETE("/:id", favoriteHandler.Delete)
		}

		tags := api.Group("/period-tags")
		{
			tags.GET("", tagHandler.List)
			tags.POST("", tagHandler.Create)
			tags.GET("/:id", tagHandler.Get)
			tags.PUT("/:id", tagHandler.Update)
			tags.DELETE("/:id", tagHandler.Delete)
		}

		points := api.Group("/points")
		{
			points.POST("", pointHandler.Ingest)
			points.GET("/count", pointHandler.Count)
		}

		profile := api.Group("/profile")
		{
			profile.GET("/timezone", profileHandler.GetTimezone)
			profile.PUT("/timezone", profileHandler.SetTimezone)
		}
	}

	return r
}
