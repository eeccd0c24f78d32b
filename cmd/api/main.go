package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sitecraft-ai/sitecraft-backend/config"
	"github.com/sitecraft-ai/sitecraft-backend/internal/bootstrap"
	"github.com/sitecraft-ai/sitecraft-backend/internal/logging"
	"github.com/sitecraft-ai/sitecraft-backend/internal/storage/postgres"
)

const serviceName = "sitecraft-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Setup(cfg.App.Environment, cfg.App.LogLevel)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	infra, err := bootstrap.OpenInfra(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to backing services")
	}
	defer infra.Close()

	if cfg.Database.AutoMigrate {
		migrator, err := postgres.NewMigrator(infra.SQL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init migrations")
		}
		if err := migrator.Up(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}

	authMW, err := bootstrap.AuthMiddleware(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth")
	}
	if cfg.Firebase.DevAuth {
		log.Warn().Msg("dev auth enabled: X-User-Id header is trusted")
	}

	router, err := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Config:      cfg,
		Infra:       infra,
		Auth:        authMW,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	// Deploys poll the provider for up to PollAttempts*PollInterval, so the
	// write timeout has to outlast that.
	deployBudget := cfg.Deploy.Budget()
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      deployBudget + 2*time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("env", cfg.App.Environment).Msg("api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), deployBudget+30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
