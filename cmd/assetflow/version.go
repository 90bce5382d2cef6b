package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/assetflow"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of assetflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "assetflow version %s\n", strings.TrimSpace(assetflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
