package bot

import (
	"strings"

	"fintrack/internal/core"
)

// Callback data sent by inline buttons.
const (
	CallbackAddFile           = "add_file"
	CallbackViewTransactions  = "view_transactions"
	CallbackAddTransaction    = "add_transaction"
	CallbackDeleteTransaction = "delete_transaction"
	CallbackBudget            = "budget"
	CallbackSetBudget         = "set_budget"
	CallbackForecast          = "forecast"
	CallbackTrendAnalysis     = "trend_analysis"
	CallbackFilter            = "filter_transactions"
	CallbackExpensesDiagram   = "expenses_diagram"
	CallbackSortMenu          = "transactions_sort_menu"
	CallbackMainMenu          = "main_menu"

	filterPrefix = "filter_"
	sortPrefix   = "sort_"
)

// Button is an inline keyboard button.
type Button struct {
	Text string
	Data string
}

// Menu is an inline keyboard, one slice per row.
type Menu [][]Button

func row(buttons ...Button) []Button { return buttons }

func MainMenu() Menu {
	return Menu{
		row(Button{"Import transactions from file", CallbackAddFile}),
		row(Button{"View transactions", CallbackViewTransactions}),
		row(Button{"Add transaction", CallbackAddTransaction}),
		row(Button{"Delete transaction", CallbackDeleteTransaction}),
		row(Button{"Budget", CallbackBudget}),
		row(Button{"Forecast", CallbackForecast}),
		row(Button{"Trend analysis", CallbackTrendAnalysis}),
	}
}

// ViewMenu follows a transactions table.
func ViewMenu() Menu {
	return Menu{
		row(Button{"Filter", CallbackFilter}),
		row(Button{"Sort", CallbackSortMenu}),
		row(Button{"Expense chart", CallbackExpensesDiagram}),
		row(Button{"Main menu", CallbackMainMenu}),
	}
}

func FilterMenu() Menu {
	m := Menu{}
	for _, f := range core.Fields() {
		m = append(m, row(Button{f.Label(), FilterCallback(f)}))
	}
	return append(m, row(Button{"Main menu", CallbackMainMenu}))
}

func SetBudgetMenu() Menu {
	return Menu{
		row(Button{"Set budget", CallbackSetBudget}),
		row(Button{"Main menu", CallbackMainMenu}),
	}
}

// SortMenu offers every field in both directions.
func SortMenu() Menu {
	m := Menu{}
	for _, f := range core.Fields() {
		m = append(m, row(
			Button{f.Label() + " ↑", SortCallback(f, core.Ascending)},
			Button{f.Label() + " ↓", SortCallback(f, core.Descending)},
		))
	}
	return append(m, row(Button{"Main menu", CallbackMainMenu}))
}

// FilterCallback returns "filter_<field>".
func FilterCallback(f core.Field) string {
	return filterPrefix + f.String()
}

// SortCallback returns "sort_<field>_<asc|desc>".
func SortCallback(f core.Field, o core.Order) string {
	return sortPrefix + f.String() + "_" + o.String()
}

func parseFilterCallback(data string) (core.Field, bool) {
	name, ok := strings.CutPrefix(data, filterPrefix)
	if !ok {
		return 0, false
	}
	f, err := core.ParseField(name)
	return f, err == nil && name == f.String()
}

func parseSortCallback(data string) (core.Field, core.Order, bool) {
	rest, ok := strings.CutPrefix(data, sortPrefix)
	if !ok {
		return 0, 0, false
	}
	name, dir, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, 0, false
	}
	f, err := core.ParseField(name)
	if err != nil || name != f.String() {
		return 0, 0, false
	}
	o, err := core.ParseOrder(dir)
	if err != nil || dir != o.String() {
		return 0, 0, false
	}
	return f, o, true
}
