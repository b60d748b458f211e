package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/codec"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"

	"github.com/shopspring/decimal"
)

// Publisher delivers ledger events. *amqp.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, event amqp.LedgerEvent) error
}

// ImportResult summarizes a best effort import.
type ImportResult struct {
	Added   int
	Skipped []*codec.ParseError
}

var (
	// ErrNegativeBudget is returned when a budget limit below zero is requested.
	ErrNegativeBudget = errors.New("budget must not be negative")
	// ErrNoValidLines is returned by ReplaceLines when nothing parses.
	ErrNoValidLines = errors.New("no valid transactions")
)

// LedgerService orchestrates ledger operations, logging and event publication
type LedgerService struct {
	ledger    *ledger.Processor
	publisher Publisher
	logger    *log.Logger
	now       func() time.Time
}

// NewLedgerService wraps l. publisher may be nil.
func NewLedgerService(l *ledger.Processor, publisher Publisher) *LedgerService {
	return &LedgerService{
		ledger:    l,
		publisher: publisher,
		logger:    log.WithComponent(log.ComponentLedger),
		now:       time.Now,
	}
}

// Ledger exposes the underlying processor for read-only views.
func (s *LedgerService) Ledger() *ledger.Processor {
	return s.ledger
}

// Transactions returns a snapshot of the current sequence.
func (s *LedgerService) Transactions() []core.Transaction {
	return s.ledger.Transactions()
}

func (s *LedgerService) Len() int {
	return s.ledger.Len()
}

// AddTransaction validates t as interactive input and appends it.
func (s *LedgerService) AddTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("add transaction: %w", err)
	}
	s.append(ctx, t)
	return nil
}

// AddLine parses a single quick-add line and appends it.
func (s *LedgerService) AddLine(ctx context.Context, line string) (core.Transaction, error) {
	t, err := codec.ParseLine(line)
	if err != nil {
		s.logger.WarnContext(ctx, "Rejected transaction line", log.FieldText, line, log.FieldError, err)
		return core.Transaction{}, err
	}
	s.append(ctx, t)
	return t, nil
}

func (s *LedgerService) append(ctx context.Context, t core.Transaction) {
	s.ledger.Append(t)
	s.logger.InfoContext(ctx, "Transaction added",
		log.NewFields().WithOperation(log.OpAppend).WithTransaction(t.Category, core.FormatAmount(t.Amount)).ToSlice()...)

	event := amqp.NewLedgerEvent(amqp.EventTransactionAdded)
	event.Count = 1
	event.Category = t.Category
	event.Amount = core.FormatAmount(t.Amount)
	s.publish(ctx, event)
}

// ImportLines appends every well-formed line; bad lines are logged and skipped.
func (s *LedgerService) ImportLines(ctx context.Context, lines []string) ImportResult {
	n, skipped := s.ledger.ImportLines(lines)
	for _, pe := range skipped {
		s.logger.WarnContext(ctx, "Skipped malformed line",
			log.FieldLine, pe.Line, log.FieldText, pe.Text, log.FieldError, pe.Err)
	}
	s.logger.InfoContext(ctx, "Import finished",
		log.FieldOperation, log.OpImport, log.FieldCount, n, log.FieldSkipped, len(skipped))

	if n > 0 {
		event := amqp.NewLedgerEvent(amqp.EventTransactionsImported)
		event.Count = n
		s.publish(ctx, event)
	}
	return ImportResult{Added: n, Skipped: skipped}
}

// ReplaceLines swaps the whole ledger for the well-formed lines. When no line
// parses the ledger is left as it was and ErrNoValidLines is returned.
func (s *LedgerService) ReplaceLines(ctx context.Context, lines []string) (ImportResult, error) {
	ts, skipped := codec.ParseLines(lines)
	for _, pe := range skipped {
		s.logger.WarnContext(ctx, "Skipped malformed line",
			log.FieldLine, pe.Line, log.FieldText, pe.Text, log.FieldError, pe.Err)
	}
	res := ImportResult{Added: len(ts), Skipped: skipped}
	if len(ts) == 0 {
		return res, ErrNoValidLines
	}
	s.ledger.Replace(ts)
	s.logger.InfoContext(ctx, "Ledger replaced",
		log.FieldOperation, log.OpImport, log.FieldCount, len(ts), log.FieldSkipped, len(skipped))

	event := amqp.NewLedgerEvent(amqp.EventTransactionsImported)
	event.Count = len(ts)
	s.publish(ctx, event)
	return res, nil
}

// ImportReader imports lines read from r, such as an uploaded document.
func (s *LedgerService) ImportReader(ctx context.Context, r io.Reader) (ImportResult, error) {
	lines, err := codec.ReadLines(r)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read import", log.FieldError, err)
		return ImportResult{}, err
	}
	return s.ImportLines(ctx, lines), nil
}

// ImportFile imports the file at path. A missing or unreadable file leaves
// the ledger unchanged.
func (s *LedgerService) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	lines, err := codec.ReadFile(path)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read file", log.FieldPath, path, log.FieldError, err)
		return ImportResult{}, err
	}
	return s.ImportLines(ctx, lines), nil
}

// Export overwrites path with the current sequence.
func (s *LedgerService) Export(ctx context.Context, path string) error {
	if err := s.ledger.ExportToPath(path); err != nil {
		s.logger.ErrorContext(ctx, "Failed to export", log.FieldPath, path, log.FieldError, err)
		return err
	}
	n := s.ledger.Len()
	s.logger.InfoContext(ctx, "Ledger exported", log.FieldPath, path, log.FieldCount, n)

	event := amqp.NewLedgerEvent(amqp.EventLedgerExported)
	event.Count = n
	s.publish(ctx, event)
	return nil
}

// DeleteTransaction removes the transaction at the 0-based index.
func (s *LedgerService) DeleteTransaction(ctx context.Context, index int) (core.Transaction, error) {
	removed, err := s.ledger.Delete(index)
	if err != nil {
		s.logger.WarnContext(ctx, "Delete rejected", log.FieldIndex, index, log.FieldError, err)
		return core.Transaction{}, err
	}
	s.logger.InfoContext(ctx, "Transaction deleted", log.FieldIndex, index, log.FieldCategory, removed.Category)

	event := amqp.NewLedgerEvent(amqp.EventTransactionDeleted)
	event.Count = 1
	event.Category = removed.Category
	event.Amount = core.FormatAmount(removed.Amount)
	s.publish(ctx, event)
	return removed, nil
}

// Filter narrows the ledger to transactions whose field equals value.
func (s *LedgerService) Filter(ctx context.Context, field core.Field, value string) (int, error) {
	n, err := s.ledger.Filter(field, value)
	if err != nil {
		return 0, err
	}
	s.logger.DebugContext(ctx, "Ledger filtered", log.FieldField, field.String(), log.FieldText, value, log.FieldCount, n)
	return n, nil
}

func (s *LedgerService) Sort(ctx context.Context, field core.Field, order core.Order) error {
	if err := s.ledger.Sort(field, order); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "Ledger sorted", log.FieldField, field.String(), "order", order.String())
	return nil
}

// SetBudget upserts a limit. Negative limits are rejected here rather than
// in the ledger.
func (s *LedgerService) SetBudget(ctx context.Context, category string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("set budget %s: %w", category, ErrNegativeBudget)
	}
	s.ledger.SetBudget(category, amount)
	s.logger.InfoContext(ctx, "Budget set", log.FieldCategory, category, log.FieldAmount, core.FormatAmount(amount))

	event := amqp.NewLedgerEvent(amqp.EventBudgetSet)
	event.Category = category
	event.Amount = core.FormatAmount(amount)
	s.publish(ctx, event)
	return nil
}

// SetBudgetLine parses "[category] [amount]" and sets the budget.
func (s *LedgerService) SetBudgetLine(ctx context.Context, line string) (string, decimal.Decimal, error) {
	category, amount, err := codec.ParseBudgetLine(line)
	if err != nil {
		s.logger.WarnContext(ctx, "Rejected budget line", log.FieldText, line, log.FieldError, err)
		return "", decimal.Zero, err
	}
	if err := s.SetBudget(ctx, category, amount); err != nil {
		return "", decimal.Zero, err
	}
	return category, amount, nil
}

// BudgetRows returns the budget view in first-seen category order.
func (s *LedgerService) BudgetRows() []core.BudgetRow {
	return s.ledger.BudgetRows()
}

// Forecast returns the trailing three month average per category.
func (s *LedgerService) Forecast() []core.CategoryAmount {
	return s.ledger.Forecast(s.now())
}

func (s *LedgerService) publish(ctx context.Context, event amqp.LedgerEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not available, skipping event", log.FieldEventType, event.Type)
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event", log.FieldEventType, event.Type, log.FieldError, err)
	}
}

// Close releases the publisher when it holds a connection.
func (s *LedgerService) Close() error {
	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close ledger service: amqp: %w", err)
		}
	}
	return nil
}
