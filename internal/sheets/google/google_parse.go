package google

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
)

var header = []any{"Date", "Amount", "Category", "Description"}

// transactionRows renders ts as a values matrix with a header row.
func transactionRows(ts []core.Transaction) [][]any {
	rows := make([][]any, 0, len(ts)+1)
	rows = append(rows, header)
	for _, t := range ts {
		rows = append(rows, []any{t.Date.String(), core.FormatAmount(t.Amount), t.Category, t.Description})
	}
	return rows
}

// rowsToLines converts a values matrix into bracketed lines. The header row and
// fully empty rows are dropped; short rows are padded so the line parser
// reports them instead of silently losing data.
func rowsToLines(values [][]any) []string {
	lines := make([]string, 0, len(values))
	for i, row := range values {
		cols := toStrings(row)
		if isEmpty(cols) {
			continue
		}
		if i == 0 && strings.EqualFold(safeGet(cols, 0), "date") {
			continue
		}
		for len(cols) < len(header) {
			cols = append(cols, "")
		}
		lines = append(lines, "["+strings.Join(cols[:len(header)], "] [")+"]")
	}
	return lines
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isEmpty(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
