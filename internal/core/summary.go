package core

import (
	"slices"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// BudgetStatus classifies a category's spending against its limit.
type BudgetStatus int

const (
	WithinBudget BudgetStatus = iota
	Exceeded
	// NoBudget marks a category that has no entry in the budget mapping.
	NoBudget
)

func (s BudgetStatus) String() string {
	switch s {
	case WithinBudget:
		return "ok"
	case Exceeded:
		return "exceeded"
	case NoBudget:
		return "no budget set"
	}
	return "unknown"
}

// BudgetRow is one line of a budget view.
type BudgetRow struct {
	Category string
	Limit    decimal.Decimal
	HasLimit bool
	Spent    decimal.Decimal // absolute value of the category's expenses
	Status   BudgetStatus
}

// MonthTotals is a compact summary for a specific year+month.
type MonthTotals struct {
	Month    Date // first day of the month
	Expenses decimal.Decimal
	Income   decimal.Decimal
}

// DailyBalance is the net amount of one day and the running total up to it.
type DailyBalance struct {
	Day     Date
	Net     decimal.Decimal
	Savings decimal.Decimal
}

// ExpensesByCategory sums expenses per category as positive amounts, in
// first-seen order.
func ExpensesByCategory(ts []Transaction) []CategoryAmount {
	index := map[string]int{}
	var out []CategoryAmount
	for _, t := range ts {
		if !t.IsExpense() {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, CategoryAmount{Name: t.Category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount.Abs())
	}
	return out
}

// SortByAmountDesc orders category amounts largest first, keeping ties stable.
func SortByAmountDesc(in []CategoryAmount) {
	slices.SortStableFunc(in, func(a, b CategoryAmount) int {
		return b.Amount.Cmp(a.Amount)
	})
}

// BudgetRows compares every expense category against the budget mapping.
// A category absent from the mapping gets NoBudget and is never exceeded.
func BudgetRows(ts []Transaction, budgets map[string]decimal.Decimal) []BudgetRow {
	expenses := ExpensesByCategory(ts)
	rows := make([]BudgetRow, 0, len(expenses))
	for _, e := range expenses {
		row := BudgetRow{Category: e.Name, Spent: e.Amount, Limit: decimal.Zero}
		limit, ok := budgets[e.Name]
		switch {
		case !ok:
			row.Status = NoBudget
		case e.Amount.GreaterThan(limit):
			row.Limit, row.HasLimit, row.Status = limit, true, Exceeded
		default:
			row.Limit, row.HasLimit, row.Status = limit, true, WithinBudget
		}
		rows = append(rows, row)
	}
	return rows
}

// MonthlyTotals groups by calendar month, chronologically.
func MonthlyTotals(ts []Transaction) []MonthTotals {
	index := map[Date]int{}
	var out []MonthTotals
	for _, t := range ts {
		m := t.Date.MonthStart()
		i, ok := index[m]
		if !ok {
			i = len(out)
			index[m] = i
			out = append(out, MonthTotals{Month: m, Expenses: decimal.Zero, Income: decimal.Zero})
		}
		switch {
		case t.IsExpense():
			out[i].Expenses = out[i].Expenses.Add(t.Amount.Abs())
		case t.IsIncome():
			out[i].Income = out[i].Income.Add(t.Amount)
		}
	}
	slices.SortFunc(out, func(a, b MonthTotals) int { return a.Month.Compare(b.Month.Time) })
	return out
}

// DailySavings returns the net sum of each day with a running balance.
func DailySavings(ts []Transaction) []DailyBalance {
	index := map[Date]int{}
	var out []DailyBalance
	for _, t := range ts {
		i, ok := index[t.Date]
		if !ok {
			i = len(out)
			index[t.Date] = i
			out = append(out, DailyBalance{Day: t.Date, Net: decimal.Zero})
		}
		out[i].Net = out[i].Net.Add(t.Amount)
	}
	slices.SortFunc(out, func(a, b DailyBalance) int { return a.Day.Compare(b.Day.Time) })
	total := decimal.Zero
	for i := range out {
		total = total.Add(out[i].Net)
		out[i].Savings = total
	}
	return out
}

// DistinctValues lists the stringified values of field in first-seen order.
func DistinctValues(ts []Transaction, field Field) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, t := range ts {
		v := field.Value(t)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
