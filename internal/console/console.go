// Package console implements the numbered menu front-end that runs in a
// terminal. It reads answers line by line, so it also works with piped input.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/render"
	"fintrack/internal/services"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

const (
	msgNoData     = "No data. Import transactions from the menu first."
	clearSequence = "\x1b[H\x1b[2J"
	maxBarWidth   = 50
	minBarWidth   = 10
	defaultWidth  = 80
	// room left for the category name and the amount next to a bar
	barMargin = 40
)

var mainMenu = []string{
	"Import transactions from file",
	"View transactions",
	"Add transaction",
	"Delete transaction",
	"Budget",
	"Forecast",
	"Trend analysis",
	"Exit",
}

// Options configures an App.
type Options struct {
	// DataFile receives the autosave on exit.
	DataFile string
	// ChartDir is where trend charts are written.
	ChartDir string
	// Interactive enables screen clearing and "press Enter" pauses.
	Interactive bool
	// Width is the terminal width in columns. Zero means 80.
	Width int
}

// App is the console front-end over a LedgerService.
type App struct {
	svc    *services.LedgerService
	in     *bufio.Scanner
	out    io.Writer
	opts   Options
	logger *log.Logger
}

// IsTerminal reports whether both files are attached to a terminal.
func IsTerminal(in, out *os.File) bool {
	isTTY := func(f *os.File) bool {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return isTTY(in) && isTTY(out)
}

// TerminalWidth returns the column count of f, or 0 if f is not a terminal.
func TerminalWidth(f *os.File) int {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

func New(svc *services.LedgerService, in io.Reader, out io.Writer, opts Options) *App {
	if opts.ChartDir == "" {
		opts.ChartDir = "."
	}
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	return &App{
		svc:    svc,
		in:     bufio.NewScanner(in),
		out:    out,
		opts:   opts,
		logger: log.WithComponent(log.ComponentConsole),
	}
}

// Run shows the main menu until the user exits or input ends. Both save the
// ledger to DataFile.
func (a *App) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return a.exit(context.WithoutCancel(ctx))
		}
		a.clear()
		a.println("Menu:")
		for i, item := range mainMenu {
			a.printf("%d. %s\n", i+1, item)
		}
		a.printf("Choose a menu item: ")

		choice, err := a.readLine()
		if err != nil {
			return a.exit(ctx)
		}

		switch choice {
		case "1":
			err = a.importFile(ctx)
		case "2":
			err = a.withData(func() error { return a.viewTransactions(ctx) })
		case "3":
			err = a.addTransaction(ctx)
		case "4":
			err = a.withData(func() error { return a.deleteTransaction(ctx) })
		case "5":
			err = a.withData(func() error { return a.budget(ctx) })
		case "6":
			err = a.withData(a.forecast)
		case "7":
			err = a.withData(func() error { return a.trendAnalysis(ctx) })
		case "8":
			return a.exit(ctx)
		default:
			a.println("Invalid choice. Pick an item from 1 to 8.")
		}
		if errors.Is(err, io.EOF) {
			return a.exit(ctx)
		}
		if err := a.pause(); err != nil {
			return a.exit(ctx)
		}
	}
}

func (a *App) exit(ctx context.Context) error {
	if a.opts.DataFile == "" {
		a.println("Exiting...")
		return nil
	}
	if err := a.svc.Export(ctx, a.opts.DataFile); err != nil {
		a.printf("Could not save transactions: %v\n", err)
		return err
	}
	a.printf("Saved %d transactions to %s.\n", a.svc.Len(), a.opts.DataFile)
	a.println("Exiting...")
	return nil
}

func (a *App) withData(fn func() error) error {
	if a.svc.Len() == 0 {
		a.println(msgNoData)
		return nil
	}
	return fn()
}

func (a *App) importFile(ctx context.Context) error {
	a.printf("Path to file: ")
	path, err := a.readLine()
	if err != nil {
		return err
	}
	if path == "" {
		a.println("The path must not be empty.")
		return nil
	}
	res, err := a.svc.ImportFile(ctx, path)
	if err != nil {
		a.printf("Could not read file: %v\n", err)
		return nil
	}
	for _, pe := range res.Skipped {
		a.printf("Skipped %v\n", pe)
	}
	a.printf("Added %d transactions, skipped %d lines.\n", res.Added, len(res.Skipped))
	return nil
}

func (a *App) viewTransactions(ctx context.Context) error {
	for {
		a.clear()
		a.println(render.TransactionsTable(a.svc.Transactions()).Styled())

		choice, err := a.choose("Choose an action:", []string{"Filter", "Sort", "Expense chart", "Back"})
		if err != nil {
			return err
		}
		switch choice {
		case 0:
			err = a.filter(ctx)
		case 1:
			err = a.sort(ctx)
		case 2:
			err = a.expenseChart()
		case 3:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (a *App) chooseField(title string) (core.Field, error) {
	fields := core.Fields()
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = f.Label()
	}
	i, err := a.choose(title, labels)
	if err != nil {
		return 0, err
	}
	return fields[i], nil
}

func (a *App) filter(ctx context.Context) error {
	field, err := a.chooseField("Choose a field to filter by:")
	if err != nil {
		return err
	}
	values := core.DistinctValues(a.svc.Transactions(), field)
	i, err := a.choose("Choose a value:", values)
	if err != nil {
		return err
	}
	if _, err := a.svc.Filter(ctx, field, values[i]); err != nil {
		a.printf("Could not filter: %v\n", err)
	}
	return nil
}

func (a *App) sort(ctx context.Context) error {
	field, err := a.chooseField("Choose a field to sort by:")
	if err != nil {
		return err
	}
	i, err := a.choose("Choose the order:", []string{"Ascending", "Descending"})
	if err != nil {
		return err
	}
	order := core.Ascending
	if i == 1 {
		order = core.Descending
	}
	if err := a.svc.Sort(ctx, field, order); err != nil {
		a.printf("Could not sort: %v\n", err)
	}
	return nil
}

func (a *App) expenseChart() error {
	expenses := core.ExpensesByCategory(a.svc.Transactions())
	if len(expenses) == 0 {
		a.println("No expenses to chart.")
	} else {
		a.println(render.ExpenseBars(expenses, a.barWidth()))
	}
	return a.pause()
}

func (a *App) barWidth() int {
	return max(minBarWidth, min(maxBarWidth, a.opts.Width-barMargin))
}

func (a *App) addTransaction(ctx context.Context) error {
	var t core.Transaction
	var err error

	for {
		a.println("Transaction date (2024-10-26):")
		s, err := a.readLine()
		if err != nil {
			return err
		}
		if t.Date, err = core.ParseDate(s); err == nil {
			break
		}
		a.println("Enter a valid transaction date.")
	}

	for {
		a.println("Transaction amount:")
		s, err := a.readLine()
		if err != nil {
			return err
		}
		if t.Amount, err = core.ParseAmount(s); err == nil {
			break
		}
		a.println("Enter a valid transaction amount.")
	}

	categories := core.Categories()
	i, err := a.choose("Choose a category:", categories)
	if err != nil {
		return err
	}
	t.Category = categories[i]

	for {
		a.println("Transaction description:")
		if t.Description, err = a.readLine(); err != nil {
			return err
		}
		if t.Description != "" {
			break
		}
		a.println("The description must not be empty.")
	}

	if err := a.svc.AddTransaction(ctx, t); err != nil {
		a.printf("Could not add transaction: %v\n", err)
		return nil
	}
	a.println("Transaction added.")
	return nil
}

func (a *App) deleteTransaction(ctx context.Context) error {
	a.printf("Number of the transaction to delete (0-%d): ", a.svc.Len()-1)
	s, err := a.readLine()
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(s)
	if err != nil || index < 0 {
		a.println("Enter a valid transaction index.")
		return nil
	}
	removed, err := a.svc.DeleteTransaction(ctx, index)
	if err != nil {
		a.printf("Could not delete transaction: %v\n", err)
		return nil
	}
	a.printf("Deleted %s\n", removed)
	return nil
}

func (a *App) budget(ctx context.Context) error {
	for {
		a.clear()
		rows := a.svc.BudgetRows()
		a.println(render.BudgetTable(rows).Styled())

		choice, err := a.choose("Choose an action:", []string{"Set budget", "Back"})
		if err != nil {
			return err
		}
		if choice == 1 {
			return nil
		}
		if len(rows) == 0 {
			a.println("There are no expense categories yet.")
			if err := a.pause(); err != nil {
				return err
			}
			continue
		}

		categories := make([]string, len(rows))
		for i, r := range rows {
			categories[i] = r.Category
		}
		i, err := a.choose("Choose a category:", categories)
		if err != nil {
			return err
		}
		for {
			a.printf("Budget for %s: ", categories[i])
			s, err := a.readLine()
			if err != nil {
				return err
			}
			amount, err := core.ParseAmount(s)
			if err == nil && !amount.IsNegative() {
				if err := a.svc.SetBudget(ctx, categories[i], amount); err != nil {
					a.printf("Could not set budget: %v\n", err)
				}
				break
			}
			a.println("Enter a budget of 0 or more.")
		}
	}
}

func (a *App) forecast() error {
	a.clear()
	a.println(render.ForecastTable(a.svc.Forecast()).Styled())
	return nil
}

func (a *App) trendAnalysis(ctx context.Context) error {
	paths, err := render.TrendCharts(ctx, a.opts.ChartDir, a.svc.Transactions())
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to render trend charts", log.FieldPath, a.opts.ChartDir, log.FieldError, err)
		a.printf("Could not draw charts: %v\n", err)
		return nil
	}
	a.println("Charts written:")
	for _, p := range paths {
		a.println("  " + p)
	}
	return nil
}

// choose prints a numbered list and re-prompts until a valid item is picked.
// It returns the 0-based index.
func (a *App) choose(title string, items []string) (int, error) {
	for {
		a.println(title)
		for i, item := range items {
			a.printf("%d. %s\n", i+1, item)
		}
		s, err := a.readLine()
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(s)
		if err == nil && n >= 1 && n <= len(items) {
			return n - 1, nil
		}
		a.printf("Enter a number from 1 to %d.\n", len(items))
	}
}

// readLine returns the next trimmed line, or io.EOF when input ends.
func (a *App) readLine() (string, error) {
	if !a.in.Scan() {
		if err := a.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(a.in.Text()), nil
}

func (a *App) pause() error {
	if !a.opts.Interactive {
		return nil
	}
	a.println("Press Enter to continue...")
	_, err := a.readLine()
	return err
}

func (a *App) clear() {
	if a.opts.Interactive {
		fmt.Fprint(a.out, clearSequence)
	}
}

func (a *App) println(s string) {
	fmt.Fprintln(a.out, s)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
