package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"-50", "-50", true},
		{"12.34", "12.34", true},
		{"200.50", "200.5", true},
		{"0", "0", true},
		{"12,34", "", false},
		{" 2.50", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || FormatAmount(got) != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	d, _ := ParseAmount("-12.5")
	if got := FormatMoney(d.Abs()); got != "12.50" {
		t.Fatalf("unexpected %q", got)
	}
}
