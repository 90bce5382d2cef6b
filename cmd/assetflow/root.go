package main

import (
	"fmt"
	"os"

	"github.com/aretw0/assetflow"
	"github.com/aretw0/assetflow/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "assetflow",
	Short: "Assetflow is the control layer of an asset-management console",
	Long: `Assetflow drives the console's wizards (asset intake, transfers, maintenance,
purchase orders, user provisioning) and its registries, either interactively
in the terminal or as a JSON API.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default $HOME/.config/assetflow/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig reads the config file named by --config and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	return cfg, nil
}

func openConsole(cmd *cobra.Command) (*assetflow.Console, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}
	console, err := assetflow.New(cfg)
	if err != nil {
		return nil, cfg, err
	}
	return console, cfg, nil
}
