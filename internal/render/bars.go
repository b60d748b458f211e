package render

import (
	"fmt"
	"strings"

	"fintrack/internal/core"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

const barRune = "█"

// ExpenseBars draws a horizontal bar per category scaled to width cells.
// Amounts are expected to be positive, as returned by core.ExpensesByCategory.
func ExpenseBars(items []core.CategoryAmount, width int) string {
	if len(items) == 0 {
		return ""
	}
	width = max(width, 1)
	peak := decimal.Zero
	nameWidth := 0
	for _, it := range items {
		if it.Amount.GreaterThan(peak) {
			peak = it.Amount
		}
		nameWidth = max(nameWidth, lipgloss.Width(it.Name))
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Expenses by category"))
	b.WriteByte('\n')
	for _, it := range items {
		n := 0
		if peak.IsPositive() {
			n = int(it.Amount.Mul(decimal.NewFromInt(int64(width))).Div(peak).Round(0).IntPart())
		}
		bar := badStyle.Render(strings.Repeat(barRune, max(n, 1)))
		name := it.Name + strings.Repeat(" ", nameWidth-lipgloss.Width(it.Name))
		fmt.Fprintf(&b, "%s %s %s\n", name, bar, core.FormatMoney(it.Amount))
	}
	return b.String()
}
