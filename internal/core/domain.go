package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the only accepted textual date form.
const DateLayout = "2006-01-02"

const (
	CategoryGroceries     = "Groceries"
	CategoryTransport     = "Transport"
	CategoryEntertainment = "Entertainment"
	CategoryUtilities     = "Utilities"
	CategorySalary        = "Salary"
	CategoryOther         = "Other"
)

var categories = []string{
	CategoryGroceries,
	CategoryTransport,
	CategoryEntertainment,
	CategoryUtilities,
	CategorySalary,
	CategoryOther,
}

type (
	// Date is a calendar day at midnight UTC.
	Date struct {
		time.Time
	}

	// Transaction is a dated, signed monetary entry. Negative amounts are
	// expenses, positive amounts are income.
	Transaction struct {
		Date        Date
		Amount      decimal.Decimal
		Category    string
		Description string
	}
)

var (
	ErrZeroDate         = errors.New("date cannot be zero")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
)

// Categories returns the canonical category labels in menu order.
func Categories() []string {
	return append([]string(nil), categories...)
}

// IsCanonicalCategory reports whether name is one of the six built-in categories.
func IsCanonicalCategory(name string) bool {
	for _, c := range categories {
		if c == name {
			return true
		}
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the time of day of t, keeping the calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses an exact YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthStart returns the first day of the date's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// IsExpense reports whether the transaction decreases the balance.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// IsIncome reports whether the transaction increases the balance.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// Validate applies the interactive-entry rules. Transactions read from lines
// are not validated: an empty description is legal there.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	return nil
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s | %s | %s | %s", t.Date, t.Category, t.Amount.String(), t.Description)
}
