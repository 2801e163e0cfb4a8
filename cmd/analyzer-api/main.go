// Package main provides the analysis API server entrypoint.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/planlens/blueprint-qa/internal/api"
	"github.com/planlens/blueprint-qa/internal/config"
	"github.com/planlens/blueprint-qa/internal/observability"
)

// configPath resolves the config file path from the command line, falling
// back to the CONFIG_PATH environment variable.
func configPath(args []string) (string, error) {
	fs := flag.NewFlagSet("analyzer-api", flag.ContinueOnError)
	path := fs.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	return *path, nil
}

func main() {
	cfgPath, err := configPath(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "blueprint-qa",
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("provider", cfg.Analysis.Provider).
		Msg("starting analysis API")

	if err := api.Serve(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}
