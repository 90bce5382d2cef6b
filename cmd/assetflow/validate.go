package main

import (
	"fmt"

	"github.com/aretw0/assetflow/pkg/workflows"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check workflow definitions",
	Long: `Loads a workflow file (or the configured one, or the built-in catalogue) and
reports invalid field types, unknown computations and dependency cycles.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path := cfg.Workflows.File
		if len(args) > 0 {
			path = args[0]
		}

		cat, err := workflows.Load(path, workflows.Env{TaxRate: cfg.Workflows.TaxRate})
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		source := path
		if source == "" {
			source = "built-in catalogue"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d workflows are valid\n", source, len(cat.IDs()))
		for _, def := range cat.All() {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-22s %d steps, %d rules\n", def.ID, len(def.Steps), len(def.Rules))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
