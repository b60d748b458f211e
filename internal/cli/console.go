package cli

import (
	"os"

	"fintrack/internal/console"

	"github.com/spf13/cobra"
)

func newConsoleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Run the numbered console menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := a.newLedger(ctx, true)
			if err != nil {
				return err
			}
			defer svc.Close()

			ui := console.New(svc, os.Stdin, os.Stdout, console.Options{
				DataFile:    a.cfg.DataFile,
				ChartDir:    a.cfg.ChartDir,
				Interactive: console.IsTerminal(os.Stdin, os.Stdout),
				Width:       console.TerminalWidth(os.Stdout),
			})
			return ui.Run(ctx)
		},
	}
}
