package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jengzang/geopulse-go/internal/api"
	"github.com/jengzang/geopulse-go/internal/app"
	"github.com/jengzang/geopulse-go/internal/config"
	"github.com/jengzang/geopulse-go/internal/logger"
)

func main() {
	logger.SetGlobal(logger.New("geopulse", os.Getenv(config.Prefix+"_LOG_LEVEL")))

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	srv := &http.Server{
		Addr:    cfg.Port,
		Handler: api.SetupRouter(a.Services, a.RouterOptions()),
	}

	go func() {
		log.Info().Str("addr", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
