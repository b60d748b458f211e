package ledger

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestForecast(t *testing.T) {
	now := time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		ts   []core.Transaction
		want map[string]string
	}{
		{
			name: "single month is not diluted",
			ts: []core.Transaction{
				tx("2024-05-10", "-100", "Groceries", "a"),
				tx("2024-05-20", "-50", "Groceries", "b"),
			},
			want: map[string]string{"Groceries": "-150"},
		},
		{
			name: "divides by distinct months",
			ts: []core.Transaction{
				tx("2024-04-01", "-90", "Utilities", "power"),
				tx("2024-05-01", "-30", "Utilities", "water"),
				tx("2024-06-01", "-30", "Utilities", "gas"),
			},
			want: map[string]string{"Utilities": "-50"},
		},
		{
			name: "income and old expenses ignored",
			ts: []core.Transaction{
				tx("2024-06-01", "1000", "Salary", "pay"),
				tx("2024-03-14", "-500", "Transport", "too old"),
				tx("2024-03-15", "-40", "Transport", "cutoff day"),
				tx("2024-06-02", "0", "Other", "zero"),
			},
			want: map[string]string{"Transport": "-40"},
		},
		{
			name: "empty",
			want: map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ForecastMap(tt.ts, now)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for c, v := range tt.want {
				if got[c].String() != v {
					t.Errorf("%s: got %s, want %s", c, got[c], v)
				}
			}
		})
	}
}

func TestForecastKeepsFirstSeenOrder(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	got := Forecast([]core.Transaction{
		tx("2024-06-01", "-1", "B", "x"),
		tx("2024-06-01", "-1", "A", "x"),
		tx("2024-06-02", "-1", "B", "x"),
	}, now)
	if len(got) != 2 || got[0].Name != "B" || got[1].Name != "A" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestMonthsBeforeClampsDay(t *testing.T) {
	tests := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC), "2024-03-15"},
		{time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), "2024-02-29"},
		{time.Date(2023, 5, 31, 0, 0, 0, 0, time.UTC), "2023-02-28"},
		{time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC), "2024-04-30"},
		{time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), "2023-11-10"},
	}
	for _, tt := range tests {
		if got := monthsBefore(tt.now, ForecastWindow).String(); got != tt.want {
			t.Errorf("monthsBefore(%s) = %s, want %s", tt.now.Format(time.DateOnly), got, tt.want)
		}
	}
}

func TestForecastCutoffAtMonthEnd(t *testing.T) {
	now := time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)
	got := ForecastMap([]core.Transaction{
		tx("2024-02-28", "-999", "Groceries", "before cutoff"),
		tx("2024-02-29", "-20", "Groceries", "leap day"),
		tx("2024-03-01", "-10", "Groceries", "march"),
	}, now)
	// Feb 29 and Mar 1 both count: -20 in February, -10 in March.
	if got["Groceries"].String() != "-15" {
		t.Fatalf("forecast = %v, want -15", got)
	}
}
