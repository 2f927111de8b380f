// Command api serves monthly deaths by year and geography from the tidy table.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aeturrell/deploy-api/internal/app"
	"github.com/aeturrell/deploy-api/pkg/contracts"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "api",
		Short:        "Serve the regional deaths lookup API",
		Version:      contracts.GetFullVersionString(),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.NewApplication(configPath)
			if err != nil {
				slog.Error("Failed to initialize application", slog.String("error", err.Error()))
				return err
			}

			if err := application.Run(); err != nil {
				slog.Error("Application error", slog.String("error", err.Error()))
				return err
			}
			return nil
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to config.yaml (default: search config.yaml, configs/config.yaml)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
