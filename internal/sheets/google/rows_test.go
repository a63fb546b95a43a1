package google

import (
	"testing"
	"time"

	"subtrack/internal/core"
)

func TestEncodeParseRoundTrip(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	in := core.Subscription{
		ID:              12,
		Name:            "=HYPERLINK(\"x\")",
		Description:     "team plan",
		Amount:          20,
		Currency:        "USD",
		KRWAmount:       core.Float64(27000),
		BillingCycle:    core.Monthly,
		Status:          core.StatusActive,
		Category:        core.CategoryAI,
		NextPaymentDate: "2025-03-14",
		YearlyDiscount:  core.Float64(0.2),
		Color:           "#10a37f",
		Icon:            "fas fa-robot",
		DisplayOrder:    3,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	row := encodeRow(in)
	if len(row) != columnCount {
		t.Fatalf("row has %d cells, want %d", len(row), columnCount)
	}
	if row[colName] != "'=HYPERLINK(\"x\")" {
		t.Fatalf("name not guarded: %v", row[colName])
	}

	out, err := parseRow(row)
	if err != nil {
		t.Fatal(err)
	}
	if out.Name != in.Name || out.ID != 12 || out.Amount != 20 || *out.KRWAmount != 27000 || *out.YearlyDiscount != 0.2 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if out.NextPaymentDate != "2025-03-14" || out.DisplayOrder != 3 || !out.CreatedAt.Equal(created) {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestParseRowFromSheetValues(t *testing.T) {
	// Values as returned with UNFORMATTED_VALUE: numbers are float64 and
	// trailing empty cells are dropped.
	cells := []any{float64(3), "Netflix", "", float64(17000), "KRW", "", "monthly", "active", "entertainment", "2025-03-20"}
	s, err := parseRow(cells)
	if err != nil {
		t.Fatal(err)
	}
	if s.ID != 3 || s.Amount != 17000 || s.KRWAmount != nil || s.YearlyDiscount != nil {
		t.Fatalf("unexpected subscription %+v", s)
	}
	if s.Color != core.DefaultColor || s.Icon != core.DefaultIcon {
		t.Fatalf("defaults not applied: %+v", s)
	}
}

func TestParseRowErrors(t *testing.T) {
	cases := map[string][]any{
		"header":     header,
		"empty id":   {"", "x", "", float64(1)},
		"bad amount": {float64(1), "x", "", "abc"},
	}
	for name, cells := range cases {
		if _, err := parseRow(cells); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestCellString(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{" x ", "x"},
		{float64(1500000), "1500000"},
		{float64(4.99), "4.99"},
		{true, "true"},
	}
	for _, tc := range cases {
		if got := cellString(tc.in); got != tc.want {
			t.Errorf("cellString(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUnguard(t *testing.T) {
	cases := map[string]string{
		"'=SUM(A1)": "=SUM(A1)",
		"'+1":       "+1",
		"'quoted":   "'quoted",
		"'":         "'",
		"' ":        "' ",
		"plain":     "plain",
	}
	for in, want := range cases {
		if got := unguard(in); got != want {
			t.Errorf("unguard(%q) = %q, want %q", in, got, want)
		}
	}
}
