package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List hosted wizard sessions",
	Long:  `Lists the sessions kept in the configured store (Redis or session.dir).`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		console, _, err := openConsole(cmd)
		if err != nil {
			return err
		}
		defer console.Close()
		ctx := cmd.Context()

		ids, err := console.Sessions().List(ctx)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No open sessions.")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SESSION\tWORKFLOW\tSTEP\tPHASE")
		for _, id := range ids {
			inst, err := console.Sessions().Load(ctx, id)
			if err != nil {
				// Expired between List and Load.
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\n", id, inst.Workflow, inst.StepIndex+1, inst.StepCount, inst.Phase)
		}
		return tw.Flush()
	},
}

var sessionsRmCmd = &cobra.Command{
	Use:   "rm <session>...",
	Short: "Discard hosted sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		console, _, err := openConsole(cmd)
		if err != nil {
			return err
		}
		defer console.Close()

		for _, id := range args {
			if err := console.Sessions().Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		}
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsRmCmd)
	rootCmd.AddCommand(sessionsCmd)
}
