package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/config"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/infra"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/metrics"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/router"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage/factory"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	sel, err := factory.Open(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer sel.Store.Close()

	ev := log.Info()
	if sel.FellBack {
		ev = log.Warn().Str("reason", sel.Reason)
	}
	ev.Str("backend", sel.Kind).Bool("fallback", sel.FellBack).Msg("storage backend selected")

	m := metrics.New()
	m.SetBackend(sel.Kind, sel.FellBack)

	// The QR cache is optional; a dead Redis only disables it.
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, QR cache disabled")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	r := router.New(cfg, router.Deps{
		Store:   sel.Store,
		Backend: sel.Kind,
		Redis:   rdb,
		Metrics: m,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("WorkCrewManager API listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

// setupLogger: dev is pretty console output, prod is JSON.
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
