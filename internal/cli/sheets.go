package cli

import (
	"fmt"

	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/services"
	gsheet "fintrack/internal/sheets/google"

	"github.com/spf13/cobra"
)

func newSheetsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Mirror the data file to and from Google Sheets",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "push",
			Short: "Overwrite the sheet with the data file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				syncer, cleanup, err := a.newSheetsSync(cmd)
				if err != nil {
					return err
				}
				defer cleanup()
				n, err := syncer.Push(cmd.Context(), a.cfg.DataFile)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d transactions to %s.\n", n, a.cfg.GoogleSheetName)
				return nil
			},
		},
		&cobra.Command{
			Use:   "pull",
			Short: "Append the sheet rows to the data file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				syncer, cleanup, err := a.newSheetsSync(cmd)
				if err != nil {
					return err
				}
				defer cleanup()
				res, err := syncer.Pull(cmd.Context(), a.cfg.DataFile)
				if err != nil {
					return err
				}
				for _, pe := range res.Skipped {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipped %v\n", pe)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pulled %d transactions into %s, skipped %d rows.\n",
					res.Added, a.cfg.DataFile, len(res.Skipped))
				return nil
			},
		},
	)
	return cmd
}

func (a *app) newSheetsSync(cmd *cobra.Command) (*services.SheetsSync, func(), error) {
	if err := a.cfg.ValidateSheets(); err != nil {
		return nil, nil, err
	}
	creds, err := a.cfg.ServiceAccountJSON()
	if err != nil {
		return nil, nil, err
	}
	client, err := gsheet.New(cmd.Context(), creds, a.cfg.GoogleSpreadsheetID, a.cfg.GoogleSheetName)
	if err != nil {
		return nil, nil, err
	}
	svc := services.NewLedgerService(ledger.NewProcessor(), a.newPublisher())
	cleanup := func() {
		if err := svc.Close(); err != nil {
			a.logger.Warn("Failed to close ledger service", log.FieldError, err)
		}
	}
	return services.NewSheetsSync(svc, client), cleanup, nil
}
