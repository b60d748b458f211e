// Package render turns ledger data into PNG charts and text tables.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/sync/errgroup"
)

// Fixed chart file names written by TrendCharts.
const (
	MonthlyChartFile  = "monthly_expenses_income.png"
	CategoryChartFile = "expenses_by_category.png"
	PieChartFile      = "expenses_pie_chart.png"
	SavingsChartFile  = "days_savings.png"
)

const (
	chartWidth  = 800
	chartHeight = 600
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to plot")

type chartJob struct {
	file string
	draw func(io.Writer, []core.Transaction) error
}

var trendJobs = []chartJob{
	{MonthlyChartFile, MonthlyChart},
	{CategoryChartFile, ExpensesBarChart},
	{PieChartFile, ExpensesPieChart},
	{SavingsChartFile, SavingsChart},
}

// TrendCharts renders the four trend charts into dir concurrently and
// returns the paths written, in fixed order. Charts without data are
// skipped; ErrNoData is returned only when ts is empty.
func TrendCharts(ctx context.Context, dir string, ts []core.Transaction) ([]string, error) {
	if len(ts) == 0 {
		return nil, ErrNoData
	}
	logger := log.WithComponent(log.ComponentRender)

	written := make([]bool, len(trendJobs))
	g, ctx := errgroup.WithContext(ctx)
	for i, job := range trendJobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, job.file)
			err := writeChart(path, ts, job.draw)
			if errors.Is(err, ErrNoData) {
				logger.InfoContext(ctx, "Chart skipped, nothing to plot", log.FieldPath, path)
				return nil
			}
			if err != nil {
				return err
			}
			written[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var paths []string
	for i, ok := range written {
		if ok {
			paths = append(paths, filepath.Join(dir, trendJobs[i].file))
		}
	}
	logger.InfoContext(ctx, "Trend charts rendered", log.FieldOperation, log.OpRender, log.FieldCount, len(paths))
	return paths, nil
}

func writeChart(path string, ts []core.Transaction, draw func(io.Writer, []core.Transaction) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := draw(f, ts); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// MonthlyChart plots expenses and income per month.
func MonthlyChart(w io.Writer, ts []core.Transaction) error {
	months := core.MonthlyTotals(ts)
	if len(months) == 0 {
		return ErrNoData
	}
	var (
		xs       []time.Time
		exp, inc []float64
	)
	if len(months) == 1 {
		xs = append(xs, months[0].Month.AddDate(0, -1, 0))
		exp, inc = append(exp, 0), append(inc, 0)
	}
	for _, m := range months {
		xs = append(xs, m.Month.Time)
		exp = append(exp, m.Expenses.InexactFloat64())
		inc = append(inc, m.Income.InexactFloat64())
	}
	low, high := bounds(slices.Concat(exp, inc, []float64{0}))

	graph := chart.Chart{
		Title:  "Monthly expenses and income",
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Month",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01"),
		},
		YAxis: chart.YAxis{
			Name:  "Amount",
			Range: &chart.ContinuousRange{Min: low, Max: high},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Expenses",
				Style:   chart.Style{StrokeColor: drawing.ColorRed, StrokeWidth: 2},
				XValues: xs,
				YValues: exp,
			},
			chart.TimeSeries{
				Name:    "Income",
				Style:   chart.Style{StrokeColor: drawing.ColorGreen, StrokeWidth: 2},
				XValues: xs,
				YValues: inc,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}

// ExpensesBarChart plots the absolute expenses per category, largest first.
func ExpensesBarChart(w io.Writer, ts []core.Transaction) error {
	cats := core.ExpensesByCategory(ts)
	if len(cats) == 0 {
		return ErrNoData
	}
	core.SortByAmountDesc(cats)

	bars := make([]chart.Value, len(cats))
	for i, c := range cats {
		bars[i] = chart.Value{Value: c.Amount.InexactFloat64(), Label: c.Name}
	}
	_, high := bounds([]float64{0, bars[0].Value})
	bw := barWidth(len(bars))

	graph := chart.BarChart{
		Title:      "Expenses by category",
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   bw,
		BarSpacing: bw,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: high},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}

// ExpensesPieChart shows each category's share of the expenses.
func ExpensesPieChart(w io.Writer, ts []core.Transaction) error {
	cats := core.ExpensesByCategory(ts)
	total := decimal.Zero
	for _, c := range cats {
		total = total.Add(c.Amount)
	}
	if total.IsZero() {
		return ErrNoData
	}

	values := make([]chart.Value, 0, len(cats))
	for _, c := range cats {
		share := c.Amount.Div(total).Mul(decimal.NewFromInt(100))
		values = append(values, chart.Value{
			Value: c.Amount.InexactFloat64(),
			Label: fmt.Sprintf("%s %s%%", c.Name, share.StringFixed(1)),
		})
	}

	graph := chart.PieChart{
		Title:  "Expense distribution",
		Width:  chartWidth,
		Height: chartHeight,
		Values: values,
	}
	return graph.Render(chart.PNG, w)
}

// SavingsChart plots the running balance day by day.
func SavingsChart(w io.Writer, ts []core.Transaction) error {
	days := core.DailySavings(ts)
	if len(days) == 0 {
		return ErrNoData
	}
	var (
		xs []time.Time
		ys []float64
	)
	if len(days) == 1 {
		xs = append(xs, days[0].Day.AddDate(0, 0, -1))
		ys = append(ys, 0)
	}
	for _, d := range days {
		xs = append(xs, d.Day.Time)
		ys = append(ys, d.Savings.InexactFloat64())
	}
	low, high := bounds(append(slices.Clone(ys), 0))

	graph := chart.Chart{
		Title:  "Savings by day",
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Day",
			ValueFormatter: chart.TimeValueFormatterWithFormat(core.DateLayout),
		},
		YAxis: chart.YAxis{
			Name:  "Savings",
			Range: &chart.ContinuousRange{Min: low, Max: high},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Savings",
				Style:   chart.Style{StrokeColor: drawing.ColorBlue, StrokeWidth: 2},
				XValues: xs,
				YValues: ys,
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

// bounds returns a padded [min, max] that is never empty.
func bounds(vs []float64) (float64, float64) {
	low, high := vs[0], vs[0]
	for _, v := range vs[1:] {
		low, high = min(low, v), max(high, v)
	}
	if low == high {
		return low - 1, high + 1
	}
	pad := (high - low) * 0.1
	if low < 0 {
		low -= pad
	}
	return low, high + pad
}

func barWidth(n int) int {
	w := (chartWidth - 100) / (n * 2)
	return max(10, min(w, 80))
}
