package memory

import (
	"context"
	"slices"
	"sync"

	"fintrack/internal/codec"
	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

// Store is an in-process mirror. Rows are kept as bracketed lines, exactly
// what a remote sheet returns after conversion.
type Store struct {
	mu    sync.Mutex
	lines []string
}

var _ ports.Mirror = (*Store)(nil)

func New(lines ...string) *Store {
	return &Store{lines: slices.Clone(lines)}
}

// WriteTransactions replaces the mirrored rows.
func (s *Store) WriteTransactions(_ context.Context, ts []core.Transaction) error {
	lines := make([]string, len(ts))
	for i, t := range ts {
		lines[i] = codec.FormatLine(t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = lines
	return nil
}

// ReadLines returns a copy of the mirrored rows.
func (s *Store) ReadLines(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lines), nil
}
