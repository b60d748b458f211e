package services

import (
	"context"
	"fmt"

	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// SheetsSync copies the ledger from and to a remote mirror.
type SheetsSync struct {
	ledger *LedgerService
	mirror sheets.Mirror
	logger *log.Logger
}

func NewSheetsSync(ledger *LedgerService, mirror sheets.Mirror) *SheetsSync {
	return &SheetsSync{
		ledger: ledger,
		mirror: mirror,
		logger: log.WithComponent(log.ComponentSheets),
	}
}

// Push loads dataFile into the ledger and overwrites the mirror with it.
func (s *SheetsSync) Push(ctx context.Context, dataFile string) (int, error) {
	if _, err := s.ledger.ImportFile(ctx, dataFile); err != nil {
		return 0, fmt.Errorf("push: %w", err)
	}
	ts := s.ledger.Transactions()
	if err := s.mirror.WriteTransactions(ctx, ts); err != nil {
		return 0, fmt.Errorf("push: %w", err)
	}
	return len(ts), nil
}

// Pull overwrites dataFile with the mirror rows, so a push followed by a pull
// leaves the file as it was. Rows that do not parse are skipped. If no row
// parses dataFile is not touched.
func (s *SheetsSync) Pull(ctx context.Context, dataFile string) (ImportResult, error) {
	lines, err := s.mirror.ReadLines(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("pull: %w", err)
	}
	res, err := s.ledger.ReplaceLines(ctx, lines)
	if err != nil {
		return res, fmt.Errorf("pull: %w", err)
	}
	if err := s.ledger.Export(ctx, dataFile); err != nil {
		return res, fmt.Errorf("pull: %w", err)
	}
	s.logger.InfoContext(ctx, "Pulled rows from mirror",
		log.FieldPath, dataFile, log.FieldCount, res.Added, log.FieldSkipped, len(res.Skipped))
	return res, nil
}
