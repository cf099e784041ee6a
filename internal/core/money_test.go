package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyStringAndArithmetic(t *testing.T) {
	if got := (Money{Cents: 1530}).String(); got != "15.30" {
		t.Fatalf("expected 15.30, got %s", got)
	}
	if got := (Money{Cents: 21000}).Sub(Money{Cents: 20000}); got.Cents != 1000 {
		t.Fatalf("expected 1000, got %d", got.Cents)
	}
	if got := MoneyFromDecimal(decimal.RequireFromString("399.995")); got.Cents != 40000 {
		t.Fatalf("expected 40000, got %d", got.Cents)
	}
}
