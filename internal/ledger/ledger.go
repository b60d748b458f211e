// Package ledger holds the in-memory transaction sequence and the
// per-category budget mapping shared by both front-ends.
package ledger

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"fintrack/internal/codec"
	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

var ErrIndexOutOfRange = errors.New("index out of range")

// Processor owns the ordered transactions and the budgets. It is safe for
// concurrent use.
type Processor struct {
	mu           sync.RWMutex
	transactions []core.Transaction
	budgets      map[string]decimal.Decimal
}

// NewProcessor returns an empty ledger with the canonical categories
// budgeted at zero.
func NewProcessor() *Processor {
	p := &Processor{budgets: make(map[string]decimal.Decimal)}
	for _, c := range core.Categories() {
		p.budgets[c] = decimal.Zero
	}
	return p
}

// Append adds t at the end of the sequence.
func (p *Processor) Append(t core.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transactions = append(p.transactions, t)
}

// ImportLines appends every well-formed line and returns the count added
// together with the rejected lines.
func (p *Processor) ImportLines(lines []string) (int, []*codec.ParseError) {
	ts, errs := codec.ParseLines(lines)
	p.mu.Lock()
	p.transactions = append(p.transactions, ts...)
	p.mu.Unlock()
	return len(ts), errs
}

// LoadFromPath imports the file at path.
func (p *Processor) LoadFromPath(path string) (int, []*codec.ParseError, error) {
	lines, err := codec.ReadFile(path)
	if err != nil {
		return 0, nil, err
	}
	n, errs := p.ImportLines(lines)
	return n, errs, nil
}

// ExportToPath overwrites path with the current sequence.
func (p *Processor) ExportToPath(path string) error {
	return codec.WriteFile(path, p.Transactions())
}

// Transactions returns a copy of the current sequence.
func (p *Processor) Transactions() []core.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.transactions)
}

func (p *Processor) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.transactions)
}

// Replace swaps the whole sequence.
func (p *Processor) Replace(ts []core.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transactions = slices.Clone(ts)
}

// Filter keeps only transactions whose stringified field equals value and
// returns the number kept.
func (p *Processor) Filter(field core.Field, value string) (int, error) {
	if !field.Valid() {
		return 0, fmt.Errorf("filter: %w: %s", core.ErrUnknownField, field)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := make([]core.Transaction, 0, len(p.transactions))
	for _, t := range p.transactions {
		if field.Value(t) == value {
			kept = append(kept, t)
		}
	}
	p.transactions = kept
	return len(kept), nil
}

// Sort reorders the sequence by field. Equal elements keep their relative order.
func (p *Processor) Sort(field core.Field, order core.Order) error {
	if !field.Valid() {
		return fmt.Errorf("sort: %w: %s", core.ErrUnknownField, field)
	}
	if !order.Valid() {
		return fmt.Errorf("sort: %w: %s", core.ErrUnknownOrder, order)
	}
	cmp := field.Compare
	if order == core.Descending {
		cmp = func(a, b core.Transaction) int { return field.Compare(b, a) }
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	sorted := slices.Clone(p.transactions)
	slices.SortStableFunc(sorted, cmp)
	p.transactions = sorted
	return nil
}

// Delete removes the transaction at index and returns it.
func (p *Processor) Delete(index int) (core.Transaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.transactions) {
		return core.Transaction{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(p.transactions))
	}
	removed := p.transactions[index]
	p.transactions = slices.Delete(slices.Clone(p.transactions), index, index+1)
	return removed, nil
}

// SetBudget upserts the limit of category. Any category name is accepted.
func (p *Processor) SetBudget(category string, amount decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.budgets[category] = amount
}

// Budget returns the limit of category and whether one is set.
func (p *Processor) Budget(category string) (decimal.Decimal, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.budgets[category]
	return v, ok
}

// Budgets returns a copy of the budget mapping.
func (p *Processor) Budgets() map[string]decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return maps.Clone(p.budgets)
}

// BudgetRows compares the current expenses against the budgets.
func (p *Processor) BudgetRows() []core.BudgetRow {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return core.BudgetRows(p.transactions, p.budgets)
}

// Forecast averages the expenses of the three months before now per category.
func (p *Processor) Forecast(now time.Time) []core.CategoryAmount {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Forecast(p.transactions, now)
}
