package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/aretw0/assetflow/internal/presentation/tui"
	"github.com/aretw0/assetflow/pkg/wizard"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <workflow>",
	Short: "Run a wizard interactively",
	Long: `Walks through the steps of a workflow in the terminal and submits it to the
configured backend. Type :back, :reset or :cancel at any prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		console, _, err := openConsole(cmd)
		if err != nil {
			return err
		}
		defer console.Close()
		logger := console.Logger()

		def, err := console.Catalogue().Get(args[0])
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		if err := console.Warmup(ctx); err != nil {
			logger.Warn("registries not loaded, lookups will stay empty", "err", err)
		}

		ctrl, err := def.NewController(nil,
			wizard.WithNotifier(console.Notifier()),
			wizard.WithLifecycleHooks(console.Hooks()),
			wizard.WithLogger(logger),
		)
		if err != nil {
			return err
		}

		if tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(os.Stdout)
		}
		runner := tui.NewRunner(def, ctrl, console.Commit(def), cmd.InOrStdin(), os.Stdout,
			tui.WithRenderer(tui.RendererFor(os.Stdout)),
			tui.WithRunnerLogger(logger),
		)
		if _, err := runner.Run(ctx); err != nil {
			if errors.Is(err, tui.ErrAborted) {
				fmt.Fprintln(os.Stdout, "Cancelled.")
				return nil
			}
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
