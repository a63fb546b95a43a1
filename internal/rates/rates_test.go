package rates

import (
	"testing"
	"time"

	"subtrack/internal/core"
)

func TestToKRW(t *testing.T) {
	r := Rates{Rates: map[string]float64{"USD": 1, "KRW": 1400, "EUR": 0.8, "JPY": 140}}
	cases := []struct {
		amount   float64
		currency string
		want     float64
	}{
		{17000, "KRW", 17000},
		{9.99, "USD", 13986},
		{10, "eur", 17500},
		{1400, "JPY", 14000},
		{5, "CHF", 7000},
	}
	for _, tc := range cases {
		if got := ToKRW(tc.amount, tc.currency, r); got != tc.want {
			t.Errorf("ToKRW(%v, %s) = %v, want %v", tc.amount, tc.currency, got, tc.want)
		}
	}
}

func TestToKRWMissingKRWRate(t *testing.T) {
	r := Rates{Rates: map[string]float64{"USD": 1}}
	if got := ToKRW(2, "USD", r); got != 2700 {
		t.Fatalf("expected fallback KRW rate, got %v", got)
	}
}

func TestFallback(t *testing.T) {
	r := Fallback(time.Date(2025, 3, 14, 23, 0, 0, 0, time.UTC))
	if r.Source != SourceFallback || r.Base != "USD" || r.Date != "2025-03-14" {
		t.Fatalf("unexpected fallback %+v", r)
	}
	if r.Rates["KRW"] != 1350 || r.Rates["EUR"] != 0.92 || r.Rates["JPY"] != 150 || r.Rates["CNY"] != 7.2 {
		t.Fatalf("unexpected fallback table %v", r.Rates)
	}
	r.Rates["KRW"] = 1
	if Fallback(time.Now()).Rates["KRW"] != 1350 {
		t.Fatal("fallback table was mutated through a returned copy")
	}
}

func TestApply(t *testing.T) {
	subs := []core.Subscription{
		{ID: 1, Name: "Netflix", Amount: 17000, Currency: "KRW"},
		{ID: 2, Name: "ChatGPT", Amount: 20, Currency: "USD", KRWAmount: core.Float64(27000)},
		{ID: 3, Name: "Fresh", Amount: 10, Currency: "USD"},
		{ID: 4, Name: "Same", Amount: 10, Currency: "USD", KRWAmount: core.Float64(14000)},
	}
	r := Rates{Rates: map[string]float64{"USD": 1, "KRW": 1400}}
	changes := Apply(subs, r)

	if len(changes) != 1 {
		t.Fatalf("expected one change, got %+v", changes)
	}
	if c := changes[0]; c.ID != 2 || c.OldAmount != 27000 || c.NewAmount != 28000 {
		t.Fatalf("unexpected change %+v", c)
	}
	if subs[0].KRWAmount != nil {
		t.Fatal("KRW subscription should not get a converted amount")
	}
	if subs[2].KRWAmount == nil || *subs[2].KRWAmount != 14000 {
		t.Fatalf("expected converted amount for new subscription, got %v", subs[2].KRWAmount)
	}
}
