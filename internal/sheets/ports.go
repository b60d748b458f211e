package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for the remote transaction mirror.
type (
	// TransactionWriter replaces the remote list with ts.
	TransactionWriter interface {
		WriteTransactions(ctx context.Context, ts []core.Transaction) error
	}

	// LineReader returns the remote rows as codec lines, ready for a best
	// effort import.
	LineReader interface {
		ReadLines(ctx context.Context) ([]string, error)
	}

	Mirror interface {
		TransactionWriter
		LineReader
	}
)
