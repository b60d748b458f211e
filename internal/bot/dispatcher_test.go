package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/render"
	"fintrack/internal/services"
	"fintrack/internal/session"

	"github.com/shopspring/decimal"
)

const chat int64 = 42

func newDispatcher(t *testing.T, lines ...string) (*Dispatcher, *services.LedgerService, *session.MemoryStore) {
	t.Helper()
	svc := services.NewLedgerService(ledger.NewProcessor(), nil)
	if res := svc.ImportLines(context.Background(), lines); len(res.Skipped) != 0 {
		t.Fatalf("bad seed: %v", res.Skipped)
	}
	store := session.NewMemoryStore(time.Hour)
	return NewDispatcher(svc, store, t.TempDir()), svc, store
}

func state(t *testing.T, store session.Store) session.Session {
	t.Helper()
	s, err := store.Get(context.Background(), chat)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func joined(replies []Reply) string {
	var parts []string
	for _, r := range replies {
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, "\n")
}

func hasMenu(replies []Reply, want Menu) bool {
	for _, r := range replies {
		if len(r.Menu) == len(want) && len(want) > 0 && r.Menu[0][0].Data == want[0][0].Data {
			return true
		}
	}
	return false
}

func opener(s string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(s)), nil }
}

func TestStartResetsSession(t *testing.T) {
	d, _, store := newDispatcher(t)
	ctx := context.Background()
	d.Callback(ctx, chat, CallbackAddTransaction)
	if state(t, store).State != session.AwaitingTransaction {
		t.Fatal("expected awaiting_transaction")
	}
	replies := d.Start(ctx, chat)
	if state(t, store).State != session.Idle {
		t.Fatal("start must reset the session")
	}
	if !hasMenu(replies, MainMenu()) {
		t.Fatal("start must show the main menu")
	}
}

func TestNoDataGuard(t *testing.T) {
	d, _, store := newDispatcher(t)
	for _, cb := range []string{CallbackViewTransactions, CallbackDeleteTransaction, CallbackBudget, CallbackSetBudget, CallbackForecast, CallbackTrendAnalysis} {
		t.Run(cb, func(t *testing.T) {
			replies := d.Callback(context.Background(), chat, cb)
			if replies[0].Text != msgNoData || !hasMenu(replies, MainMenu()) {
				t.Fatalf("got %+v", replies)
			}
			if state(t, store).State != session.Idle {
				t.Fatal("guarded callbacks must not enter an awaiting state")
			}
		})
	}
}

func TestAddTransactionIsOneShot(t *testing.T) {
	d, svc, store := newDispatcher(t)
	ctx := context.Background()

	d.Callback(ctx, chat, CallbackAddTransaction)
	replies := d.Text(ctx, chat, "not a valid line")
	if !strings.Contains(joined(replies), "Could not add transaction") {
		t.Fatalf("got %q", joined(replies))
	}
	if state(t, store).State != session.Idle {
		t.Fatal("a failed message must still return to idle")
	}

	// Without a new callback the line is not parsed.
	d.Text(ctx, chat, "[2024-01-05] [-50] [Groceries] [milk]")
	if svc.Len() != 0 {
		t.Fatal("text outside an awaiting state must not add")
	}

	d.Callback(ctx, chat, CallbackAddTransaction)
	replies = d.Text(ctx, chat, "[2024-01-05] [-50] [Groceries] [milk]")
	if svc.Len() != 1 || !strings.Contains(joined(replies), "Transaction added.") {
		t.Fatalf("len %d replies %q", svc.Len(), joined(replies))
	}
}

func TestDeleteTransaction(t *testing.T) {
	tests := []struct {
		msg     string
		wantLen int
		want    string
	}{
		{"0", 1, "Transaction deleted."},
		{"2", 2, msgBadIndex},
		{"-1", 2, msgBadIndex},
		{"one", 2, msgBadIndex},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			d, svc, _ := newDispatcher(t,
				"[2024-01-05] [-50] [Groceries] [milk]",
				"[2024-01-06] [200] [Salary] [pay]",
			)
			ctx := context.Background()
			prompt := d.Callback(ctx, chat, CallbackDeleteTransaction)
			if !strings.Contains(prompt[0].Text, "(0-1)") {
				t.Fatalf("prompt %q", prompt[0].Text)
			}
			replies := d.Text(ctx, chat, tt.msg)
			if svc.Len() != tt.wantLen || replies[0].Text != tt.want {
				t.Fatalf("len %d reply %q", svc.Len(), replies[0].Text)
			}
		})
	}
}

func TestFilterFlow(t *testing.T) {
	d, svc, store := newDispatcher(t,
		"[2024-01-05] [-50] [Groceries] [milk]",
		"[2024-01-06] [200] [Salary] [pay]",
	)
	ctx := context.Background()

	menu := d.Callback(ctx, chat, CallbackFilter)
	if !hasMenu(menu, FilterMenu()) {
		t.Fatal("expected filter menu")
	}
	d.Callback(ctx, chat, FilterCallback(core.FieldCategory))
	s := state(t, store)
	if s.State != session.AwaitingFilterValue || s.FilterField != core.FieldCategory {
		t.Fatalf("session %+v", s)
	}

	replies := d.Text(ctx, chat, "  Salary ")
	if svc.Len() != 1 || svc.Transactions()[0].Category != "Salary" {
		t.Fatalf("filter kept %v", svc.Transactions())
	}
	if !replies[0].HTML || !strings.Contains(replies[0].Text, "<pre>") || !hasMenu(replies, ViewMenu()) {
		t.Fatalf("got %+v", replies)
	}
	if state(t, store).State != session.Idle {
		t.Fatal("filter must clear the session")
	}
}

func TestFilterByDisplayedAmount(t *testing.T) {
	d, svc, _ := newDispatcher(t,
		"[2024-01-05] [-50.00] [Groceries] [milk]",
		"[2024-01-06] [200] [Salary] [pay]",
		"[2024-01-07] [-12.5] [Transport] [bus]",
	)
	ctx := context.Background()

	view := joined(d.Callback(ctx, chat, CallbackViewTransactions))
	for _, shown := range []string{" -50 ", " -12.5 "} {
		if !strings.Contains(view, shown) {
			t.Fatalf("table does not show %q:\n%s", shown, view)
		}
	}

	d.Callback(ctx, chat, FilterCallback(core.FieldAmount))
	d.Text(ctx, chat, "-12.5")
	ts := svc.Transactions()
	if len(ts) != 1 || ts[0].Description != "bus" {
		t.Fatalf("filter by the displayed amount kept %v", ts)
	}
}

func TestLargeTablesAreSplit(t *testing.T) {
	const n = 300
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("[2024-01-%02d] [-%d.25] [Groceries] [weekly shopping at the corner market %d]", i%28+1, i, i)
	}
	d, _, _ := newDispatcher(t, lines...)

	replies := d.Callback(context.Background(), chat, CallbackViewTransactions)
	tables := replies[:len(replies)-1]
	if len(tables) < 2 {
		t.Fatalf("expected the table to span several messages, got %d", len(tables))
	}
	if !hasMenu(replies[len(replies)-1:], ViewMenu()) {
		t.Fatal("the view menu must follow the table")
	}
	if !strings.HasPrefix(tables[0].Text, "Your transactions:\n<pre>") {
		t.Fatalf("first page %q", tables[0].Text[:40])
	}
	seen := 0
	for i, r := range tables {
		if got := render.TextLen(r.Text); got > maxMessageLen {
			t.Errorf("page %d is %d characters", i, got)
		}
		if !r.HTML || !strings.HasSuffix(r.Text, "</pre>") || !strings.Contains(r.Text, "Description") {
			t.Errorf("page %d is not a full table", i)
		}
		seen += strings.Count(r.Text, "corner market")
	}
	if seen != n {
		t.Fatalf("pages hold %d rows, want %d", seen, n)
	}
}

func TestImportSummaryIsCapped(t *testing.T) {
	d, _, _ := newDispatcher(t)
	ctx := context.Background()
	bad := strings.Repeat("not a transaction "+strings.Repeat("x", 500)+"\n", 40)

	d.Callback(ctx, chat, CallbackAddFile)
	replies := d.Document(ctx, chat, opener("[2024-01-05] [-50] [Groceries] [milk]\n"+bad))
	summary := replies[0].Text
	if !strings.HasPrefix(summary, "Added 1 transactions, skipped 40 lines.") {
		t.Fatalf("got %q", summary[:60])
	}
	if !strings.HasSuffix(summary, "...and 30 more.") {
		t.Errorf("missing overflow note: %q", summary[len(summary)-40:])
	}
	if got := render.TextLen(summary); got > maxMessageLen {
		t.Errorf("summary is %d characters", got)
	}
}

func TestSortCallback(t *testing.T) {
	d, svc, _ := newDispatcher(t,
		"[2024-01-05] [-50] [Groceries] [milk]",
		"[2024-01-06] [200] [Salary] [pay]",
		"[2024-01-04] [-5] [Transport] [bus]",
	)
	replies := d.Callback(context.Background(), chat, "sort_amount_desc")
	if !strings.HasPrefix(replies[0].Text, "Transactions sorted.") {
		t.Fatalf("got %q", replies[0].Text)
	}
	ts := svc.Transactions()
	if !ts[0].Amount.Equal(decimal.NewFromInt(200)) || !ts[2].Amount.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("order %v", ts)
	}

	for _, bad := range []string{"sort_amount", "sort_size_asc", "sort_date_up", "filter_size", "nonsense"} {
		if got := d.Callback(context.Background(), chat, bad); got[0].Text != msgUnknown {
			t.Errorf("%s: got %q", bad, got[0].Text)
		}
	}
}

func TestSetBudget(t *testing.T) {
	d, svc, _ := newDispatcher(t,
		"[2024-01-05] [-100] [Groceries] [milk]",
		"[2024-01-09] [-50] [Groceries] [cheese]",
	)
	ctx := context.Background()

	d.Callback(ctx, chat, CallbackSetBudget)
	replies := d.Text(ctx, chat, "[Groceries] [100]")
	if !strings.Contains(replies[0].Text, "exceeded") || !hasMenu(replies, SetBudgetMenu()) {
		t.Fatalf("got %+v", replies)
	}
	if limit, ok := svc.Ledger().Budget("Groceries"); !ok || !limit.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("budget %v %v", limit, ok)
	}

	d.Callback(ctx, chat, CallbackSetBudget)
	replies = d.Text(ctx, chat, "Groceries 100")
	if !strings.HasPrefix(replies[0].Text, "Could not set budget") {
		t.Fatalf("got %q", replies[0].Text)
	}
}

func TestDocumentImport(t *testing.T) {
	d, svc, store := newDispatcher(t)
	ctx := context.Background()
	file := "[2024-01-05] [-50] [Groceries] [milk]\n[2024-01-06] [200] [Salary] [pay]\nnot a valid line\n"

	called := false
	if replies := d.Document(ctx, chat, func() (io.ReadCloser, error) {
		called = true
		return nil, errors.New("unreachable")
	}); replies != nil || called {
		t.Fatal("documents outside awaiting_file must be ignored without downloading")
	}

	d.Callback(ctx, chat, CallbackAddFile)
	replies := d.Document(ctx, chat, opener(file))
	if svc.Len() != 2 {
		t.Fatalf("imported %d", svc.Len())
	}
	if !strings.Contains(replies[0].Text, "Added 2 transactions, skipped 1 lines.") || !strings.Contains(replies[0].Text, "line 3") {
		t.Fatalf("got %q", replies[0].Text)
	}
	if state(t, store).State != session.Idle {
		t.Fatal("import must return to idle")
	}

	d.Callback(ctx, chat, CallbackAddFile)
	replies = d.Document(ctx, chat, func() (io.ReadCloser, error) { return nil, errors.New("network down") })
	if !strings.Contains(replies[0].Text, "network down") {
		t.Fatalf("got %q", replies[0].Text)
	}
}

func TestTextWhileAwaitingFile(t *testing.T) {
	d, _, store := newDispatcher(t)
	ctx := context.Background()
	d.Callback(ctx, chat, CallbackAddFile)
	d.Text(ctx, chat, "hello")
	if state(t, store).State != session.AwaitingFile {
		t.Fatal("text must not consume the file prompt")
	}
}

func TestChartReplies(t *testing.T) {
	d, _, _ := newDispatcher(t,
		"[2024-01-05] [-50] [Groceries] [milk]",
		"[2024-02-06] [200] [Salary] [pay]",
	)
	ctx := context.Background()

	replies := d.Callback(ctx, chat, CallbackExpensesDiagram)
	if len(replies[0].Photos) != 1 || !bytes.HasPrefix(replies[0].Photos[0].Data, []byte("\x89PNG")) {
		t.Fatalf("expense diagram reply %+v", replies[0].Text)
	}

	replies = d.Callback(ctx, chat, CallbackTrendAnalysis)
	if len(replies[0].Photos) != 4 || !hasMenu(replies, MainMenu()) {
		t.Fatalf("expected an album of 4 charts, got %d", len(replies[0].Photos))
	}
}

func TestChatsAreIndependent(t *testing.T) {
	d, svc, store := newDispatcher(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := int64(1); i <= 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Callback(ctx, i, CallbackAddTransaction)
			d.Text(ctx, i, "[2024-01-05] [-1] [Other] [x]")
		}()
	}
	wg.Wait()
	if svc.Len() != 20 {
		t.Fatalf("expected 20 transactions, got %d", svc.Len())
	}
	if store.Len() != 0 {
		t.Fatalf("expected every session to be idle, %d left", store.Len())
	}
}
