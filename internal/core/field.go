package core

import (
	"errors"
	"fmt"
	"strings"
)

// Field names a transaction attribute that can be filtered or sorted on.
type Field int

const (
	FieldDate Field = iota
	FieldAmount
	FieldCategory
)

// Order is the direction of a sort.
type Order int

const (
	Ascending Order = iota
	Descending
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrUnknownOrder = errors.New("unknown sort order")
)

type fieldSpec struct {
	name    string
	label   string
	value   func(Transaction) string
	compare func(a, b Transaction) int
}

var fieldSpecs = [...]fieldSpec{
	FieldDate: {
		name:    "date",
		label:   "Date",
		value:   func(t Transaction) string { return t.Date.String() },
		compare: func(a, b Transaction) int { return a.Date.Compare(b.Date.Time) },
	},
	FieldAmount: {
		name:    "amount",
		label:   "Amount",
		value:   func(t Transaction) string { return FormatAmount(t.Amount) },
		compare: func(a, b Transaction) int { return a.Amount.Cmp(b.Amount) },
	},
	FieldCategory: {
		name:    "category",
		label:   "Category",
		value:   func(t Transaction) string { return t.Category },
		compare: func(a, b Transaction) int { return strings.Compare(a.Category, b.Category) },
	},
}

// Fields returns every field in menu order.
func Fields() []Field {
	return []Field{FieldDate, FieldAmount, FieldCategory}
}

// ParseField accepts a field name ("date", "amount", "category") or its label,
// case-insensitively.
func ParseField(s string) (Field, error) {
	s = strings.TrimSpace(s)
	for i, spec := range fieldSpecs {
		if strings.EqualFold(s, spec.name) || strings.EqualFold(s, spec.label) {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// Valid reports whether f is one of the declared fields.
func (f Field) Valid() bool {
	return f >= 0 && int(f) < len(fieldSpecs)
}

func (f Field) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldSpecs[f].name
}

// Label is the human readable column title.
func (f Field) Label() string {
	if !f.Valid() {
		return f.String()
	}
	return fieldSpecs[f].label
}

// Value returns the stringified field used for equality filtering.
func (f Field) Value(t Transaction) string {
	return fieldSpecs[f].value(t)
}

// Compare orders two transactions by the field's natural ordering:
// chronological, numeric or lexicographic.
func (f Field) Compare(a, b Transaction) int {
	return fieldSpecs[f].compare(a, b)
}

// ParseOrder accepts "asc", "ascending", "desc" or "descending".
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOrder, s)
}

func (o Order) Valid() bool {
	return o == Ascending || o == Descending
}

func (o Order) String() string {
	switch o {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	}
	return fmt.Sprintf("Order(%d)", int(o))
}
