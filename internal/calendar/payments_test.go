package calendar

import (
	"errors"
	"testing"
	"time"

	"subtrack/internal/core"
)

func sampleSubscriptions() []core.Subscription {
	return []core.Subscription{
		{ID: 1, Name: "Netflix", Amount: 17000, Currency: "KRW", Status: core.StatusActive, NextPaymentDate: "2025-03-14"},
		{ID: 2, Name: "ChatGPT", Amount: 20, Currency: "USD", KRWAmount: core.Float64(27000), Status: core.StatusActive, NextPaymentDate: " 2025-03-14T08:00:00 ", Color: "#10a37f"},
		{ID: 3, Name: "Paused", Amount: 5000, Currency: "KRW", Status: core.StatusPaused, NextPaymentDate: "2025-03-15"},
		{ID: 4, Name: "Broken", Amount: 5000, Currency: "KRW", Status: core.StatusActive, NextPaymentDate: "14/03/2025"},
		{ID: 5, Name: "NoDate", Amount: 5000, Currency: "KRW", Status: core.StatusActive},
		{ID: 6, Name: "Impossible", Amount: 5000, Currency: "KRW", Status: core.StatusActive, NextPaymentDate: "2025-02-30"},
		{ID: 7, Name: "Spotify", Amount: 10900, Currency: "KRW", Status: core.StatusActive, NextPaymentDate: "2025-03-20"},
	}
}

func TestExtractPayments(t *testing.T) {
	payments := ExtractPayments(sampleSubscriptions())
	if len(payments) != 3 {
		t.Fatalf("expected 3 payments, got %d: %+v", len(payments), payments)
	}
	for _, p := range payments {
		if len(p.DateString) != 10 {
			t.Fatalf("non canonical date %q", p.DateString)
		}
		if _, ok := core.FromKey(p.DateString, time.UTC); !ok {
			t.Fatalf("invalid key %q", p.DateString)
		}
	}
	chat := payments[1]
	if chat.Name != "ChatGPT" || chat.DateString != "2025-03-14" || chat.KRWAmount != 27000 || chat.Color != "#10a37f" {
		t.Fatalf("unexpected ChatGPT payment: %+v", chat)
	}
	if payments[0].Color != core.DefaultColor || payments[0].Icon != core.DefaultIcon {
		t.Fatalf("defaults not applied: %+v", payments[0])
	}
}

func TestUpcoming(t *testing.T) {
	payments := []core.Payment{
		{Name: "b", DateString: "2025-03-14"},
		{Name: "late", DateString: "2025-03-22"},
		{Name: "past", DateString: "2025-03-13"},
		{Name: "edge", DateString: "2025-03-21"},
		{Name: "a", DateString: "2025-03-14"},
	}
	today := time.Date(2025, 3, 14, 23, 0, 0, 0, time.UTC)

	got := Upcoming(payments, today, 7)
	want := []string{"a", "b", "edge"}
	if len(got) != len(want) {
		t.Fatalf("got %d payments, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("position %d: got %s want %s", i, got[i].Name, name)
		}
	}

	if only := Upcoming(payments, today, 0); len(only) != 2 {
		t.Fatalf("days=0 should keep today's payments only, got %d", len(only))
	}
	if none := Upcoming(nil, today, 7); none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil slice")
	}
}

func TestUpcomingAcrossSkippedMidnight(t *testing.T) {
	havana := mustLoad(t, "America/Havana")
	payments := []core.Payment{
		{Name: "on transition", DateString: "2026-03-08"},
		{Name: "after window", DateString: "2026-03-09"},
	}
	today := time.Date(2026, 3, 7, 20, 0, 0, 0, havana)

	got := Upcoming(payments, today, 1)
	if len(got) != 1 || got[0].Name != "on transition" {
		t.Fatalf("Upcoming = %+v, want the 2026-03-08 payment only", got)
	}
	if n := DaysUntil(got[0], today); n != 1 {
		t.Fatalf("DaysUntil = %d, want 1", n)
	}
}

func TestDaysUntilAndLabel(t *testing.T) {
	today := time.Date(2025, 3, 30, 22, 0, 0, 0, time.FixedZone("KST", 9*3600))
	cases := []struct {
		date  string
		days  int
		label string
	}{
		{"2025-03-30", 0, "today"},
		{"2025-03-31", 1, "tomorrow"},
		{"2025-04-02", 3, "in 3 days"},
	}
	for _, tc := range cases {
		d := DaysUntil(core.Payment{DateString: tc.date}, today)
		if d != tc.days {
			t.Fatalf("%s: DaysUntil = %d, want %d", tc.date, d, tc.days)
		}
		if l := ReminderLabel(d); l != tc.label {
			t.Fatalf("%s: label %q, want %q", tc.date, l, tc.label)
		}
	}
}

func TestDay(t *testing.T) {
	payments := ExtractPayments(sampleSubscriptions())
	d, err := Day(payments, "2025-03-14")
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Payments) != 2 || d.Total != 44000 {
		t.Fatalf("unexpected day details: %+v", d)
	}
	empty, err := Day(payments, "2025-03-01")
	if err != nil || empty.Payments == nil || len(empty.Payments) != 0 {
		t.Fatalf("expected empty day, got %+v (%v)", empty, err)
	}
	if _, err := Day(payments, "March 14"); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
