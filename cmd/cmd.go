package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sponsornet/settlement-engine/internal/config"
	"github.com/sponsornet/settlement-engine/pkg/logger"
	"github.com/sponsornet/settlement-engine/pkg/logger/slogx"
)

var rootCmd = &cobra.Command{
	Use:  "sponsord",
	Long: `Sponsored settlement engine service`,
}

func init() {
	var configFile string

	// Add global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file, E.g. `./config.yaml`")

	// Initialize configuration and logger on start command
	cobra.OnInitialize(func() {
		config := config.Parse(configFile)

		if err := logger.Init(config.Logger); err != nil {
			logger.Panic("Failed to initialize logger", slogx.Error(err), slog.Any("config", config.Logger))
		}
	})
}

func Execute(ctx context.Context) {
	rootCmd.AddCommand(
		NewRunCommand(),
		NewVersionCommand(),
		NewMigrateCommand(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Panic("Failed to execute root command", slogx.Error(err))
	}
}
