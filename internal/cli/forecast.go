package cli

import (
	"fmt"

	"fintrack/internal/render"

	"github.com/spf13/cobra"
)

func newForecastCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "forecast",
		Short: "Print the monthly spending forecast of the data file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.newLedger(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer svc.Close()

			if svc.Len() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No transactions in", a.cfg.DataFile)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.ForecastTable(svc.Forecast()).Styled())
			return nil
		},
	}
}
