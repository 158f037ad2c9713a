// Package server assembles the HTTP API: routing, middleware, and the
// lifecycle of the listening server. It is shared by the API binary and the
// CLI's serve command.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/klarpost/klarpost/internal/config"
	"github.com/klarpost/klarpost/internal/entitlement"
	"github.com/klarpost/klarpost/internal/extract"
	"github.com/klarpost/klarpost/internal/observability"
	"github.com/klarpost/klarpost/internal/ocr"
	"github.com/klarpost/klarpost/internal/payment"
	"github.com/klarpost/klarpost/internal/ratelimit"
	"github.com/klarpost/klarpost/internal/server/handlers"
	"github.com/klarpost/klarpost/internal/server/middleware"
	"github.com/klarpost/klarpost/internal/simplify"
)

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(middleware.BasicAuth(cfg.BasicAuth.User, cfg.BasicAuth.Pass))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","service":"klarpost"}`))
	})

	// Create service dependencies
	fitzDoc := extract.NewFitzDocument()
	engine := ocr.NewTesseractEngine()
	extractor := extract.NewService(fitzDoc, fitzDoc, engine, extract.Options{
		TextLayerMinChars: cfg.Extraction.TextLayerMinChars,
		MaxOCRPages:       cfg.Extraction.MaxOCRPages,
		RenderScale:       cfg.Extraction.RenderScale,
		MaxImageDimension: cfg.Extraction.MaxImageDimension,
		Languages:         cfg.Extraction.Languages,
		PageWorkers:       cfg.Extraction.PageWorkers,
		AttemptTimeout:    cfg.Extraction.AttemptTimeout,
	}, logger)

	simplifier := simplify.NewClient(cfg.Simplify.APIKey, cfg.Simplify.Model, logger,
		simplify.WithBaseURL(cfg.Simplify.BaseURL),
		simplify.WithTemperature(cfg.Simplify.Temperature),
	)
	ledger := entitlement.NewLedger(cfg.Entitlement.Secret)
	limiter := ratelimit.NewLimiter(
		newWindowStore(cfg, logger),
		cfg.RateLimit.MaxRequests,
		cfg.RateLimit.Window,
		logger,
	)
	payments := payment.NewStripeClient(
		cfg.Payment.StripeSecretKey,
		cfg.Payment.StripePriceID,
		cfg.Payment.AppURL,
		logger,
	)

	// Initialize handlers
	h := handlers.New(handlers.Config{
		Logger:         logger,
		Extractor:      extractor,
		Simplifier:     simplifier,
		Ledger:         ledger,
		Limiter:        limiter,
		Payments:       payments,
		SecureCookies:  cfg.Server.Production,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		FreeDocLimit:   cfg.Entitlement.FreeDocLimit,
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/simplify", h.Simplify)
		r.Get("/usage", h.Usage)
		r.Post("/checkout", h.Checkout)
		r.Post("/premium/verify", h.PremiumVerify)
	})

	return r
}

// newWindowStore selects the rate limit window store driver.
func newWindowStore(cfg *config.Config, logger *observability.Logger) ratelimit.Store {
	if cfg.RateLimit.Driver == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.Redis.Addr,
			Password: cfg.RateLimit.Redis.Password,
			DB:       cfg.RateLimit.Redis.DB,
			PoolSize: cfg.RateLimit.Redis.PoolSize,
		})
		logger.Info().Str("addr", cfg.RateLimit.Redis.Addr).Msg("using redis rate limit store")
		return ratelimit.NewRedisStore(client)
	}
	store := ratelimit.NewMemoryStore()
	store.StartSweeper(context.Background(), cfg.RateLimit.SweepInterval)
	return store
}

// Run starts the HTTP server and blocks until a shutdown signal or a fatal
// server error, then drains connections within the configured grace period.
func Run(logger *observability.Logger, cfg *config.Config) error {
	router := NewRouter(logger, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
		return err
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
		return err
	}

	logger.Info().Msg("Server stopped")
	return nil
}
