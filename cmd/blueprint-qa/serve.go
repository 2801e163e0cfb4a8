package main

import (
	"github.com/spf13/cobra"

	"github.com/planlens/blueprint-qa/internal/api"
	"github.com/planlens/blueprint-qa/internal/config"
	"github.com/planlens/blueprint-qa/internal/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		logger := observability.NewLogger(observability.LogConfig{
			Level:       cfg.Observability.LogLevel,
			Format:      cfg.Observability.LogFormat,
			ServiceName: "blueprint-qa",
		})

		logger.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("starting analysis API")

		return api.Serve(cfg, logger)
	},
}
