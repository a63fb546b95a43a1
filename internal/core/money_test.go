package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"17000", 17000, true},
		{"17,000", 17000, true},
		{"1,234,567", 1234567, true},
		{"1,234.5", 1234.5, true},
		{"4,99", 4.99, true},
		{"12.346", 12.35, true}, // rounded to two decimals
		{" 9.99 ", 9.99, true},
		{"0", 0, true},
		{".5", 0.5, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{".", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestRoundTo(t *testing.T) {
	if got := RoundTo(2.675, 0); got != 3 {
		t.Fatalf("RoundTo(2.675, 0) = %v", got)
	}
	if got := RoundTo(1234.5, 0); got != 1235 {
		t.Fatalf("RoundTo(1234.5, 0) = %v", got)
	}
}
