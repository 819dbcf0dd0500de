package main

import (
	"fmt"

	"github.com/aretw0/parley/internal/validator"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/inspect"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [graph]",
	Short: "Check the graph for consistency",
	Long: `Loads the graph and views, reports transitions to undeclared states and
crawls the graph from the entry state looking for unreachable states.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		app, def, err := buildApp(cmd, logger)
		if err != nil {
			return err
		}
		if err := app.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		report := validator.Crawl(inspect.Describe(app.Inspect()), domain.StateEntry)
		if len(report.Dynamic) > 0 {
			logger.Info("states with computed transitions were not followed", "states", report.Dynamic)
		}
		if err := report.Err(); err != nil {
			if strict, _ := cmd.Flags().GetBool("strict"); strict {
				return fmt.Errorf("validation failed: %w", err)
			}
			logger.Warn("graph has unreachable states", "states", report.Unreachable)
		}
		fmt.Printf("Graph %s is valid (%d states) ✅\n", def.Name, len(app.Inspect()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("strict", false, "Fail on unreachable states")
}
