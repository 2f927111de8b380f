// Command etl downloads the ONS monthly deaths spreadsheets and turns them
// into the tidy table served by the API.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aeturrell/deploy-api/internal/operations"
	"github.com/aeturrell/deploy-api/internal/validation"
	"github.com/aeturrell/deploy-api/pkg/contracts"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, csvPath string

	rootCmd := &cobra.Command{
		Use:          "etl",
		Short:        "Build the regional deaths table from ONS spreadsheets",
		Version:      contracts.GetFullVersionString(),
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (default: search config.yaml, configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&csvPath, "csv", "", "Also write the tidy table as CSV to this path")

	steps := func(ids ...string) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return runSteps(cmd, configPath, csvPath, ids...)
		}
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "extract",
			Short: "Download source spreadsheets that are not on disk yet",
			Args:  cobra.NoArgs,
			RunE:  steps(operations.StepIDExtract),
		},
		&cobra.Command{
			Use:   "transform",
			Short: "Assemble the tidy table from the downloaded spreadsheets",
			Args:  cobra.NoArgs,
			RunE:  steps(operations.StepIDTransform),
		},
		&cobra.Command{
			Use:   "run",
			Short: "Extract then transform",
			Args:  cobra.NoArgs,
			RunE:  steps(operations.StepIDExtract, operations.StepIDTransform),
		},
		&cobra.Command{
			Use:   "sheets [file]",
			Short: "List the sheets of a workbook and the one the transform would read",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSheets(cmd, configPath, args[0])
			},
		},
	)

	return rootCmd
}

func runSteps(cmd *cobra.Command, configPath, csvPath string, ids ...string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := newEnvironment(configPath, csvPath)
	if err != nil {
		return err
	}
	defer env.Close(context.Background())

	manager, err := env.newManager()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	state, err := manager.Execute(ctx, ids...)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if downloads := state.Downloads(); downloads != nil {
		fmt.Fprintf(out, "downloaded %d, skipped %d\n", len(downloads.Downloaded), len(downloads.Skipped))
	}
	if dataset := state.Dataset(); dataset != nil {
		fmt.Fprintf(out, "wrote %d observations to %s\n", dataset.Len(), env.paths.OutputFile)
	}
	return nil
}

func runSheets(cmd *cobra.Command, configPath, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file not found: %s", path)
	}

	env, err := newEnvironment(configPath, "")
	if err != nil {
		return err
	}
	defer env.Close(context.Background())

	if err := validation.NewFileValidator(env.logger).ValidateSpreadsheet(path); err != nil {
		return err
	}

	names, selected, err := env.assembler().SelectSheet(path)
	out := cmd.OutOrStdout()
	if names != nil {
		fmt.Fprintf(out, "sheets: %s\n", strings.Join(names, ", "))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "selected: %s\n", selected)
	return nil
}
