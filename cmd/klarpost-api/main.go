// Package main provides the klarpost API server entrypoint.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/klarpost/klarpost/internal/config"
	"github.com/klarpost/klarpost/internal/observability"
	"github.com/klarpost/klarpost/internal/server"
)

func main() {
	// Local development secrets live in .env; absence is fine.
	_ = godotenv.Load()

	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("rate_limit_driver", cfg.RateLimit.Driver).
		Bool("entitlement_configured", cfg.Entitlement.Secret != "").
		Msg("Starting klarpost API")

	if err := server.Run(logger, cfg); err != nil {
		os.Exit(1)
	}
}
