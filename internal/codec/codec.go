// Package codec reads and writes transactions in the bracketed line format
//
//	[YYYY-MM-DD] [amount] [category] [description]
//
// used for file import/export and for single-message adds on the bot.
package codec

import (
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

const (
	delimiter  = "] ["
	lineFields = 4
)

var (
	ErrFieldCount = errors.New("unexpected number of fields")
	ErrDate       = errors.New("invalid date field")
	ErrAmount     = errors.New("invalid amount field")
	ErrCategory   = errors.New("empty category field")
)

// ParseError describes one rejected line. Line is 1-based, 0 when the
// input was a single message rather than part of a file.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
	}
	return fmt.Sprintf("%v: %q", e.Err, e.Text)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// splitFields strips one leading '[' and one trailing ']' and splits on "] [".
func splitFields(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "[")
	line = strings.TrimSuffix(line, "]")
	return strings.Split(line, delimiter)
}

// ParseLine parses exactly four bracketed fields. Five-field lines are
// rejected like any other count.
func ParseLine(line string) (core.Transaction, error) {
	parts := splitFields(line)
	if len(parts) != lineFields {
		return core.Transaction{}, &ParseError{Text: line, Err: fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(parts), lineFields)}
	}
	date, err := core.ParseDate(parts[0])
	if err != nil {
		return core.Transaction{}, &ParseError{Text: line, Err: fmt.Errorf("%w: %v", ErrDate, err)}
	}
	amount, err := core.ParseAmount(parts[1])
	if err != nil {
		return core.Transaction{}, &ParseError{Text: line, Err: fmt.Errorf("%w: %v", ErrAmount, err)}
	}
	return core.Transaction{
		Date:        date,
		Amount:      amount,
		Category:    parts[2],
		Description: parts[3],
	}, nil
}

// FormatLine is the inverse of ParseLine for fields free of "] [".
func FormatLine(t core.Transaction) string {
	return "[" + t.Date.String() + delimiter + core.FormatAmount(t.Amount) + delimiter + t.Category + delimiter + t.Description + "]"
}

// ParseLines parses every line it can. Bad lines are returned as errors
// alongside the good transactions; parsing never stops early.
func ParseLines(lines []string) ([]core.Transaction, []*ParseError) {
	var (
		out  []core.Transaction
		errs []*ParseError
	)
	for i, line := range lines {
		t, err := ParseLine(line)
		if err != nil {
			var pe *ParseError
			if !errors.As(err, &pe) {
				pe = &ParseError{Text: line, Err: err}
			}
			pe.Line = i + 1
			errs = append(errs, pe)
			continue
		}
		out = append(out, t)
	}
	return out, errs
}

// ParseBudgetLine parses the "[category] [amount]" form used to set a budget.
func ParseBudgetLine(line string) (string, decimal.Decimal, error) {
	parts := splitFields(line)
	if len(parts) != 2 {
		return "", decimal.Zero, &ParseError{Text: line, Err: fmt.Errorf("%w: got %d, want 2", ErrFieldCount, len(parts))}
	}
	category := strings.TrimSpace(parts[0])
	if category == "" {
		return "", decimal.Zero, &ParseError{Text: line, Err: ErrCategory}
	}
	amount, err := core.ParseAmount(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", decimal.Zero, &ParseError{Text: line, Err: fmt.Errorf("%w: %v", ErrAmount, err)}
	}
	return category, amount, nil
}
