package codec

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

func TestReadLinesDropsCarriageReturns(t *testing.T) {
	lines, err := ReadLines(strings.NewReader("a\r\nb\n\nc"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(lines, "|") != "a|b||c" {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestWriteThenReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.txt")
	ts := []core.Transaction{
		{Date: core.NewDate(2024, 1, 5), Amount: decimal.NewFromInt(-50), Category: "Groceries", Description: "milk"},
		{Date: core.NewDate(2024, 1, 6), Amount: decimal.NewFromInt(200), Category: "Salary", Description: "pay"},
	}
	if err := WriteFile(path, ts); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	want := "[2024-01-05] [-50] [Groceries] [milk]\n[2024-01-06] [200] [Salary] [pay]\n"
	if string(raw) != want {
		t.Fatalf("unexpected file content %q", raw)
	}

	lines, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got, errs := ParseLines(lines)
	if len(errs) != 0 || len(got) != 2 {
		t.Fatalf("unexpected parse result %v %v", got, errs)
	}
}

func TestReadFileMissing(t *testing.T) {
	lines, err := ReadFile(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected no lines, got %v", lines)
	}
}

func TestWriteFileBadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.txt")
	if err := WriteFile(path, nil); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestWriteFileReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transactions.txt")
	if err := os.WriteFile(path, []byte("old contents\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ts := []core.Transaction{{Date: core.NewDate(2024, 1, 5), Amount: decimal.NewFromInt(-50), Category: "Groceries", Description: "milk"}}
	if err := WriteFile(path, ts); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil || string(raw) != "[2024-01-05] [-50] [Groceries] [milk]\n" {
		t.Fatalf("file = %q, %v", raw, err)
	}
	fi, err := os.Stat(path)
	if err != nil || fi.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, %v; want the original 0600", fi.Mode().Perm(), err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestWriteFileKeepsOriginalOnFailure(t *testing.T) {
	dir := t.TempDir()
	// A non-empty directory at path cannot be replaced by a file.
	path := filepath.Join(dir, "transactions.txt")
	if err := os.MkdirAll(filepath.Join(path, "keep"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, nil); err == nil {
		t.Fatal("expected rename over a directory to fail")
	}
	if _, err := os.Stat(filepath.Join(path, "keep")); err != nil {
		t.Errorf("original was touched: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}
