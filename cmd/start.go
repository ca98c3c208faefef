package cmd

import (
	"fmt"
	"os"

	"github.com/panelforge/panelforge/internal/config"
	"github.com/panelforge/panelforge/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newStartCmd(verbose bool, version string, buildTime string) *cobra.Command {
	return &cobra.Command{
		Use:          "start",
		Short:        "panelforge start <config.toml>",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(verbose, args[0], version, buildTime)
		},
	}
}

func run(verbose bool, configFile string, version string, buildTime string) error {
	// Bootstrap logger for the config-loading phase only; the server
	// builds the real one from LogConfig.
	tempLogger, _ := zap.NewProduction()
	defer tempLogger.Sync()

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		tempLogger.Error("config file does not exist", zap.String("path", configFile))
		return fmt.Errorf("config file does not exist: %s", configFile)
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		tempLogger.Error("failed to load config", zap.Error(err))
		return err
	}

	if verbose && cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "debug"
	}

	if err := config.ValidateConfig(cfg); err != nil {
		tempLogger.Error("config validation failed", zap.Error(err))
		return err
	}

	return server.Run(cfg, version, buildTime)
}
