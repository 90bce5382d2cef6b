package main

import (
	"fmt"

	"github.com/aretw0/assetflow/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <workflow>",
	Short: "Export a workflow as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of the workflow's steps and field
dependencies. With --session, the progress of a hosted session is highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		console, _, err := openConsole(cmd)
		if err != nil {
			return err
		}
		defer console.Close()

		def, err := console.Catalogue().Get(args[0])
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if id, _ := cmd.Flags().GetString("session"); id != "" {
			inst, err := console.Sessions().Load(cmd.Context(), id)
			if err != nil {
				return err
			}
			if inst.Workflow != def.ID {
				return fmt.Errorf("session %s runs %s, not %s", id, inst.Workflow, def.ID)
			}
			overlay = graph.OverlayFrom(inst)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(def.ID, def.Steps, def.Engine().Edges(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("session", "", "Highlight the progress of a hosted session")
}
