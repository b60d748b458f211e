package ledger

import (
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// ForecastWindow is how far back Forecast looks.
const ForecastWindow = 3

type monthKey struct {
	year  int
	month time.Month
}

type forecastAcc struct {
	sum    decimal.Decimal
	months map[monthKey]struct{}
}

// Forecast returns, per category, the sum of expenses dated on or after
// now minus three months divided by the number of distinct months in which
// that category has expenses. Values stay negative. Categories keep the order
// of their first qualifying expense.
func Forecast(ts []core.Transaction, now time.Time) []core.CategoryAmount {
	cutoff := monthsBefore(now, ForecastWindow)
	accs := map[string]*forecastAcc{}
	var order []string
	for _, t := range ts {
		if !t.IsExpense() || t.Date.Before(cutoff.Time) {
			continue
		}
		acc, ok := accs[t.Category]
		if !ok {
			acc = &forecastAcc{sum: decimal.Zero, months: map[monthKey]struct{}{}}
			accs[t.Category] = acc
			order = append(order, t.Category)
		}
		acc.sum = acc.sum.Add(t.Amount)
		acc.months[monthKey{t.Date.Year(), t.Date.Month()}] = struct{}{}
	}

	out := make([]core.CategoryAmount, 0, len(order))
	for _, c := range order {
		acc := accs[c]
		out = append(out, core.CategoryAmount{
			Name:   c,
			Amount: acc.sum.Div(decimal.NewFromInt(int64(len(acc.months)))),
		})
	}
	return out
}

// monthsBefore steps n calendar months back from t. A day past the end of
// the target month is clamped to its last day, so May 31 gives Feb 29.
func monthsBefore(t time.Time, n int) core.Date {
	y, m, d := t.Date()
	first := time.Date(y, m-time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	return core.NewDate(first.Year(), int(first.Month()), min(d, last))
}

// ForecastMap is Forecast keyed by category.
func ForecastMap(ts []core.Transaction, now time.Time) map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{}
	for _, f := range Forecast(ts, now) {
		out[f.Name] = f.Amount
	}
	return out
}
