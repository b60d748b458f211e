package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"

	"github.com/shopspring/decimal"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func newService(pub Publisher) *LedgerService {
	return NewLedgerService(ledger.NewProcessor(), pub)
}

func TestNewLedgerService_NilPublisher(t *testing.T) {
	s := newService(nil)
	if _, err := s.AddLine(context.Background(), "[2024-01-05] [-50] [Groceries] [milk]"); err != nil {
		t.Fatalf("AddLine should work without a publisher: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close should not return error with nil publisher: %v", err)
	}
}

func TestLedgerService_AddLine(t *testing.T) {
	pub := &recordingPublisher{}
	s := newService(pub)
	ctx := context.Background()

	got, err := s.AddLine(ctx, "[2024-01-05] [-50] [Groceries] [milk]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Category != "Groceries" || s.Len() != 1 {
		t.Fatalf("unexpected state: %+v len=%d", got, s.Len())
	}
	if _, err := s.AddLine(ctx, "milk for 50"); err == nil {
		t.Fatal("expected parse error")
	}
	if s.Len() != 1 {
		t.Fatal("bad line must not be appended")
	}
	if types := pub.types(); len(types) != 1 || types[0] != amqp.EventTransactionAdded {
		t.Fatalf("unexpected events %v", types)
	}
	if pub.events[0].Amount != "-50" {
		t.Errorf("event amount = %q", pub.events[0].Amount)
	}
}

func TestLedgerService_AddTransactionValidates(t *testing.T) {
	s := newService(nil)
	err := s.AddTransaction(context.Background(), core.Transaction{
		Date:     core.NewDate(2024, 1, 1),
		Amount:   decimal.NewFromInt(-5),
		Category: core.CategoryOther,
	})
	if !errors.Is(err, core.ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatal("invalid transaction was appended")
	}
}

func TestLedgerService_PublishFailureDoesNotFail(t *testing.T) {
	s := newService(&recordingPublisher{err: errors.New("broker down")})
	if _, err := s.AddLine(context.Background(), "[2024-01-05] [-50] [Groceries] [milk]"); err != nil {
		t.Fatalf("publish errors must not surface: %v", err)
	}
}

func TestLedgerService_ImportReader(t *testing.T) {
	pub := &recordingPublisher{}
	s := newService(pub)
	input := "[2024-01-05] [-50] [Groceries] [milk]\n[2024-01-06] [200] [Salary] [pay]\nnot a valid line\n"

	res, err := s.ImportReader(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Added != 2 || len(res.Skipped) != 1 || res.Skipped[0].Line != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(pub.events) != 1 || pub.events[0].Count != 2 {
		t.Fatalf("expected one import event with count 2, got %+v", pub.events)
	}
}

func TestLedgerService_ImportFileMissing(t *testing.T) {
	s := newService(nil)
	if _, err := s.ImportFile(context.Background(), filepath.Join(t.TempDir(), "none.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if s.Len() != 0 {
		t.Fatal("ledger must stay empty")
	}
}

func TestLedgerService_ExportAndReimport(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.txt")
	pub := &recordingPublisher{}
	s := newService(pub)
	s.AddLine(ctx, "[2024-01-05] [-50] [Groceries] [milk]")
	if err := s.Export(ctx, path); err != nil {
		t.Fatalf("export: %v", err)
	}

	other := newService(nil)
	res, err := other.ImportFile(ctx, path)
	if err != nil || res.Added != 1 {
		t.Fatalf("reimport: %+v %v", res, err)
	}
	if types := pub.types(); types[len(types)-1] != amqp.EventLedgerExported {
		t.Fatalf("expected export event, got %v", types)
	}
}

func TestLedgerService_Delete(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	s := newService(pub)
	s.AddLine(ctx, "[2024-01-05] [-50] [Groceries] [milk]")

	if _, err := s.DeleteTransaction(ctx, 3); !errors.Is(err, ledger.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	removed, err := s.DeleteTransaction(ctx, 0)
	if err != nil || removed.Description != "milk" || s.Len() != 0 {
		t.Fatalf("unexpected delete result %+v %v", removed, err)
	}
	if types := pub.types(); types[len(types)-1] != amqp.EventTransactionDeleted {
		t.Fatalf("expected delete event, got %v", types)
	}
}

func TestLedgerService_SetBudgetLine(t *testing.T) {
	ctx := context.Background()
	s := newService(nil)

	cat, amount, err := s.SetBudgetLine(ctx, "[Groceries] [100]")
	if err != nil || cat != "Groceries" || amount.String() != "100" {
		t.Fatalf("unexpected result %q %s %v", cat, amount, err)
	}
	if _, _, err := s.SetBudgetLine(ctx, "[Groceries] [-1]"); !errors.Is(err, ErrNegativeBudget) {
		t.Fatalf("expected ErrNegativeBudget, got %v", err)
	}
	if _, _, err := s.SetBudgetLine(ctx, "Groceries 100"); err == nil {
		t.Fatal("expected parse error")
	}

	s.AddLine(ctx, "[2024-01-05] [-150] [Groceries] [big shop]")
	rows := s.BudgetRows()
	if len(rows) != 1 || rows[0].Status != core.Exceeded {
		t.Fatalf("expected exceeded row, got %+v", rows)
	}
}

func TestLedgerService_ForecastUsesClock(t *testing.T) {
	ctx := context.Background()
	s := newService(nil)
	s.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	s.AddLine(ctx, "[2024-05-10] [-100] [Groceries] [a]")
	s.AddLine(ctx, "[2024-05-20] [-50] [Groceries] [b]")
	s.AddLine(ctx, "[2023-05-20] [-50] [Groceries] [old]")

	got := s.Forecast()
	if len(got) != 1 || got[0].Amount.String() != "-150" {
		t.Fatalf("unexpected forecast %v", got)
	}
}

func TestLedgerService_FilterAndSort(t *testing.T) {
	ctx := context.Background()
	s := newService(nil)
	s.AddLine(ctx, "[2024-01-05] [-50] [Groceries] [milk]")
	s.AddLine(ctx, "[2024-01-06] [200] [Salary] [pay]")
	s.AddLine(ctx, "[2024-01-07] [-10] [Groceries] [eggs]")

	if err := s.Sort(ctx, core.FieldAmount, core.Descending); err != nil {
		t.Fatal(err)
	}
	if s.Transactions()[0].Description != "pay" {
		t.Fatalf("unexpected first element %v", s.Transactions()[0])
	}
	n, err := s.Filter(ctx, core.FieldCategory, "Groceries")
	if err != nil || n != 2 {
		t.Fatalf("filter: %d %v", n, err)
	}
}

func TestLedgerService_ReplaceLines(t *testing.T) {
	pub := &recordingPublisher{}
	s := newService(pub)
	ctx := context.Background()
	s.ImportLines(ctx, []string{"[2024-01-05] [-50] [Groceries] [milk]"})

	if _, err := s.ReplaceLines(ctx, []string{"bad"}); !errors.Is(err, ErrNoValidLines) {
		t.Fatalf("ReplaceLines() error = %v, want ErrNoValidLines", err)
	}
	if s.Len() != 1 {
		t.Fatal("a failed replace must keep the ledger")
	}

	res, err := s.ReplaceLines(ctx, []string{"[2024-02-01] [-12] [Transport] [train]", "bad", "[2024-02-02] [9] [Other] [refund]"})
	if err != nil || res.Added != 2 || len(res.Skipped) != 1 {
		t.Fatalf("ReplaceLines() = %+v, %v", res, err)
	}
	ts := s.Transactions()
	if len(ts) != 2 || ts[0].Description != "train" {
		t.Fatalf("ledger = %v", ts)
	}
	last := pub.events[len(pub.events)-1]
	if last.Type != amqp.EventTransactionsImported || last.Count != 2 {
		t.Errorf("last event = %+v", last)
	}
}
