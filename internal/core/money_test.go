package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{"12", 1200, true},
		{"12.3", 1230, true},
		{"12.345", 1234, true}, // rounds down
		{"12.346", 1235, true}, // rounds up
		{" 7.50 ", 750, true},
		{"", 0, false},
		{"-1.00", 0, false},
		{"+1.00", 0, false},
		{"1.2.3", 0, false},
		{"abc", 0, false},
		{"12a.00", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("%q: unexpected error %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("%q: expected %d, got %d", tc.in, tc.want, got)
			}
		} else if err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{0, "0.00"},
		{-500, "-5.00"},
		{5, "0.05"},
		{-2000, "-20.00"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Fatalf("%d: expected %q, got %q", tc.cents, tc.want, got)
		}
	}
}

func TestRepeatedAdditionNoDrift(t *testing.T) {
	// Many small bets must sum exactly.
	var total Money
	for i := 0; i < 10000; i++ {
		total = total.Add(Money{Cents: 1}) // one cent
	}
	if total.Cents != 10000 {
		t.Fatalf("expected 10000 cents, got %d", total.Cents)
	}
}
