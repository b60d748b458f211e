package google

import (
	"slices"
	"testing"

	"fintrack/internal/codec"
	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

func TestTransactionRows(t *testing.T) {
	rows := transactionRows([]core.Transaction{
		{Date: core.NewDate(2024, 1, 5), Amount: decimal.RequireFromString("-50.00"), Category: "Groceries", Description: "milk"},
	})
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if rows[0][0] != "Date" || rows[0][3] != "Description" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	want := []any{"2024-01-05", "-50", "Groceries", "milk"}
	if !slices.Equal(rows[1], want) {
		t.Fatalf("got %v, want %v", rows[1], want)
	}
}

func TestRowsToLines(t *testing.T) {
	values := [][]any{
		{"Date", "Amount", "Category", "Description"},
		{"2024-01-05", "-50", "Groceries", "milk"},
		{},
		{"2024-01-06", 200.5, "Salary", " pay "},
		{"2024-01-07", "-3"},
		{"2024-01-08", "-1", "Other", "x", "extra column"},
	}
	got := rowsToLines(values)
	want := []string{
		"[2024-01-05] [-50] [Groceries] [milk]",
		"[2024-01-06] [200.5] [Salary] [pay]",
		"[2024-01-07] [-3] [] []",
		"[2024-01-08] [-1] [Other] [x]",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestRowsToLinesWithoutHeader(t *testing.T) {
	got := rowsToLines([][]any{{"2024-01-05", "-50", "Groceries", "milk"}})
	if len(got) != 1 {
		t.Fatalf("data in the first row must be kept, got %v", got)
	}
}

func TestPushPullRoundTrip(t *testing.T) {
	ts := []core.Transaction{
		{Date: core.NewDate(2024, 2, 1), Amount: decimal.NewFromInt(-12), Category: "Transport", Description: "train"},
		{Date: core.NewDate(2024, 2, 2), Amount: decimal.NewFromInt(1500), Category: "Salary", Description: "feb"},
	}
	back, errs := codec.ParseLines(rowsToLines(transactionRows(ts)))
	if len(errs) != 0 || len(back) != 2 {
		t.Fatalf("unexpected result %v %v", back, errs)
	}
	for i := range ts {
		if back[i].Date != ts[i].Date || !back[i].Amount.Equal(ts[i].Amount) || back[i].Description != ts[i].Description {
			t.Errorf("row %d: got %+v, want %+v", i, back[i], ts[i])
		}
	}
}
