package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentBot, Output: &buf})
	l.Info("hello", FieldChatID, int64(42))
	out := buf.String()
	if !strings.Contains(out, "component=bot") || !strings.Contains(out, "chat_id=42") {
		t.Fatalf("unexpected output %q", out)
	}

	buf.Reset()
	l.WithComponent(ComponentLedger).Debug("x")
	if strings.Count(buf.String(), "component=") != 1 || !strings.Contains(buf.String(), "component=ledger") {
		t.Fatalf("component must appear once, got %q", buf.String())
	}
}

func TestNilLoggerIsUsable(t *testing.T) {
	var l *Logger
	l.Debug("no panic")
	if l.Component() != "" {
		t.Fatal("nil logger has no component")
	}
}

func TestFromContext(t *testing.T) {
	l := WithComponent(ComponentConsole)
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx, ComponentApp) != l {
		t.Fatal("expected stored logger")
	}
	if got := FromContext(context.Background(), ComponentApp).Component(); got != ComponentApp {
		t.Fatalf("expected fallback component, got %q", got)
	}
}
