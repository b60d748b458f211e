package render

import (
	"html"
	"slices"
	"strconv"
	"unicode/utf16"

	"fintrack/internal/core"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Tone colors a cell in styled output.
type Tone int

const (
	Neutral Tone = iota
	Good
	Bad
)

// Table is a renderer-agnostic grid. Tones, when set, has one entry per row
// and applies to column ToneColumn.
type Table struct {
	Headers    []string
	Rows       [][]string
	Tones      []Tone
	ToneColumn int
}

var (
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	headerStyle = cellStyle.Bold(true)
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// TransactionsTable lists ts with a 1-based № column. Cells use the field
// stringification, so a value copied from the table is a valid filter value.
func TransactionsTable(ts []core.Transaction) Table {
	t := Table{Headers: []string{"№", "Date", "Amount", "Category", "Description"}}
	for i, tr := range ts {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(i + 1),
			core.FieldDate.Value(tr),
			core.FieldAmount.Value(tr),
			core.FieldCategory.Value(tr),
			tr.Description,
		})
	}
	return t
}

// BudgetTable shows limit, spent and status per expense category, coloring
// the spent column.
func BudgetTable(rows []core.BudgetRow) Table {
	t := Table{Headers: []string{"№", "Category", "Budget", "Spent", "Status"}, ToneColumn: 3}
	for i, r := range rows {
		limit := "-"
		if r.HasLimit {
			limit = core.FormatMoney(r.Limit)
		}
		tone := Neutral
		switch r.Status {
		case core.Exceeded:
			tone = Bad
		case core.WithinBudget:
			tone = Good
		}
		t.Rows = append(t.Rows, []string{strconv.Itoa(i + 1), r.Category, limit, core.FormatMoney(r.Spent), r.Status.String()})
		t.Tones = append(t.Tones, tone)
	}
	return t
}

// ForecastTable shows the absolute monthly forecast, largest first.
func ForecastTable(fc []core.CategoryAmount) Table {
	abs := make([]core.CategoryAmount, len(fc))
	for i, f := range fc {
		abs[i] = core.CategoryAmount{Name: f.Name, Amount: f.Amount.Abs()}
	}
	core.SortByAmountDesc(abs)

	t := Table{Headers: []string{"№", "Category", "Forecast"}}
	for i, f := range abs {
		t.Rows = append(t.Rows, []string{strconv.Itoa(i + 1), f.Name, core.FormatMoney(f.Amount)})
	}
	return t
}

func (t Table) build(rows [][]string, header lipgloss.Style) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(t.Headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cellStyle
		}).
		String()
}

// Plain renders the table without any escape sequences.
func (t Table) Plain() string {
	return t.build(t.Rows, cellStyle)
}

// HTML renders the plain table inside a <pre> block for chat messages.
func (t Table) HTML() string {
	return "<pre>" + html.EscapeString(t.Plain()) + "</pre>"
}

// HTMLPages renders the table as <pre> blocks of at most limit characters,
// counted in UTF-16 units as the Bot API does. Rows are never split across
// pages and every page repeats the headers. A row too long for a page of its
// own is cut into several blocks.
func (t Table) HTMLPages(limit int) []string {
	if len(t.Rows) == 0 {
		return []string{t.HTML()}
	}
	var pages []string
	for start := 0; start < len(t.Rows); {
		end := start + 1
		if TextLen(t.slice(start, end).HTML()) > limit {
			pages = append(pages, preChunks(t.slice(start, end).Plain(), limit)...)
			start = end
			continue
		}
		for end < len(t.Rows) && TextLen(t.slice(start, end+1).HTML()) <= limit {
			end++
		}
		pages = append(pages, t.slice(start, end).HTML())
		start = end
	}
	return pages
}

func (t Table) slice(start, end int) Table {
	page := Table{Headers: t.Headers, Rows: t.Rows[start:end], ToneColumn: t.ToneColumn}
	if len(t.Tones) >= end {
		page.Tones = t.Tones[start:end]
	}
	return page
}

const preOverhead = len("<pre></pre>")

// preChunks escapes s into <pre> blocks of at most limit characters without
// breaking an entity.
func preChunks(s string, limit int) []string {
	var (
		out []string
		cur []byte
		n   int
	)
	for _, r := range s {
		esc := html.EscapeString(string(r))
		size := TextLen(esc)
		if n > 0 && n+size > limit-preOverhead {
			out = append(out, "<pre>"+string(cur)+"</pre>")
			cur, n = cur[:0], 0
		}
		cur = append(cur, esc...)
		n += size
	}
	if n > 0 {
		out = append(out, "<pre>"+string(cur)+"</pre>")
	}
	return out
}

// TextLen returns the length of s in UTF-16 code units.
func TextLen(s string) int {
	n := 0
	for _, r := range s {
		n += max(1, utf16.RuneLen(r))
	}
	return n
}

// Styled renders the table for a terminal, coloring toned cells.
func (t Table) Styled() string {
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = slices.Clone(r)
		if i >= len(t.Tones) || t.ToneColumn >= len(r) {
			continue
		}
		switch t.Tones[i] {
		case Good:
			rows[i][t.ToneColumn] = goodStyle.Render(r[t.ToneColumn])
		case Bad:
			rows[i][t.ToneColumn] = badStyle.Render(r[t.ToneColumn])
		}
	}
	return t.build(rows, headerStyle)
}
