package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSubscriptionValidate(t *testing.T) {
	good := Subscription{Name: "Netflix", Amount: 17000}
	good.ApplyDefaults()
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Subscription)
		want   error
	}{
		{"empty name", func(s *Subscription) { s.Name = "  " }, ErrEmptyName},
		{"negative amount", func(s *Subscription) { s.Amount = -1 }, ErrInvalidAmount},
		{"zero amount", func(s *Subscription) { s.Amount = 0 }, ErrInvalidAmount},
		{"bad currency", func(s *Subscription) { s.Currency = "WON!" }, ErrInvalidCurrency},
		{"bad category", func(s *Subscription) { s.Category = "fitness" }, ErrInvalidCategory},
		{"bad status", func(s *Subscription) { s.Status = "expired" }, ErrInvalidStatus},
		{"bad cycle", func(s *Subscription) { s.BillingCycle = "weekly" }, ErrInvalidBillingCycle},
		{"bad discount", func(s *Subscription) { s.YearlyDiscount = Float64(1.5) }, ErrInvalidDiscount},
		{"bad date", func(s *Subscription) { s.NextPaymentDate = "2025-02-30" }, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := good
			tc.mutate(&s)
			err := s.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !IsValidationError(err) {
				t.Fatalf("expected %v to be a validation error", err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	s := Subscription{Name: "x", Currency: " usd "}
	s.ApplyDefaults()
	if s.Status != StatusActive || s.Currency != "USD" || s.BillingCycle != Monthly {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if s.Category != CategoryOther || s.Color != DefaultColor || s.Icon != DefaultIcon {
		t.Fatalf("unexpected display defaults: %+v", s)
	}
}

func TestNormalizedKRW(t *testing.T) {
	cases := []struct {
		name string
		sub  Subscription
		want float64
	}{
		{"krw uses amount", Subscription{Amount: 9900, Currency: "KRW", KRWAmount: Float64(1)}, 9900},
		{"foreign uses krwAmount", Subscription{Amount: 20, Currency: "USD", KRWAmount: Float64(27000)}, 27000},
		{"foreign without krwAmount falls back", Subscription{Amount: 20, Currency: "USD"}, 20},
		{"zero krwAmount falls back", Subscription{Amount: 20, Currency: "USD", KRWAmount: Float64(0)}, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.sub.NormalizedKRW(); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestSubscriptionJSONDropsNonStringDates(t *testing.T) {
	cases := []struct {
		raw  string
		want DateField
	}{
		{`{"name":"a","nextPaymentDate":"2025-03-01"}`, "2025-03-01"},
		{`{"name":"a","nextPaymentDate":20250301}`, ""},
		{`{"name":"a","nextPaymentDate":null}`, ""},
		{`{"name":"a","nextPaymentDate":{"y":2025}}`, ""},
		{`{"name":"a"}`, ""},
	}
	for _, tc := range cases {
		var s Subscription
		if err := json.Unmarshal([]byte(tc.raw), &s); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.raw, err)
		}
		if s.NextPaymentDate != tc.want {
			t.Fatalf("%s: got %q want %q", tc.raw, s.NextPaymentDate, tc.want)
		}
	}
}

func TestCategoryLabel(t *testing.T) {
	if CategoryAI.Label() != "AI" {
		t.Fatalf("unexpected label %q", CategoryAI.Label())
	}
	if Category("unknown").Label() != "Other" {
		t.Fatalf("unknown category should map to Other")
	}
	if len(Categories()) != 13 {
		t.Fatalf("expected 13 categories, got %d", len(Categories()))
	}
}
