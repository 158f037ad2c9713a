package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klarpost/klarpost/internal/config"
	"github.com/klarpost/klarpost/internal/observability"
	"github.com/klarpost/klarpost/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})

	logger.Info().
		Int("port", cfg.Server.Port).
		Str("rate_limit_driver", cfg.RateLimit.Driver).
		Msg("Starting klarpost API")

	return server.Run(logger, cfg)
}
