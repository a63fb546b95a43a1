package analytics

import (
	"testing"

	"subtrack/internal/core"
)

func series(values ...float64) []MonthTotal {
	out := make([]MonthTotal, len(values))
	for i, v := range values {
		out[i] = MonthTotal{Total: v}
	}
	return out
}

func TestSpendingTrend(t *testing.T) {
	cases := []struct {
		name   string
		months []MonthTotal
		want   SpendingDirection
	}{
		{"too short", series(1, 2, 3, 4, 5), TrendInsufficientData},
		{"increasing", series(100, 100, 100, 120, 120, 120), TrendIncreasing},
		{"decreasing", series(100, 100, 100, 80, 80, 80), TrendDecreasing},
		{"stable", series(100, 100, 100, 105, 105, 105), TrendStable},
		{"exactly ten percent", series(100, 100, 100, 110, 110, 110), TrendStable},
		{"zero previous", series(0, 0, 0, 50, 50, 50), TrendStable},
		{"uses last six", series(1, 1, 100, 100, 100, 130, 130, 130), TrendIncreasing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SpendingTrend(tc.months); got != tc.want {
				t.Fatalf("SpendingTrend = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestTopCategories(t *testing.T) {
	buckets := []CategoryBucket{
		{Category: core.CategoryMusic, TotalAmount: 100},
		{Category: core.CategoryAI, TotalAmount: 300},
		{Category: core.CategoryCloud, TotalAmount: 200},
		{Category: core.CategoryNews, TotalAmount: 300},
	}
	got := TopCategories(buckets, 3)
	want := []core.Category{core.CategoryAI, core.CategoryNews, core.CategoryCloud}
	if len(got) != 3 {
		t.Fatalf("got %d categories", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: %s, want %s", i, got[i], want[i])
		}
	}
	if buckets[0].Category != core.CategoryMusic {
		t.Fatal("input buckets were reordered")
	}
}

func TestSubscriptionTrend(t *testing.T) {
	subs := []core.Subscription{
		{Status: core.StatusActive},
		{Status: core.StatusActive},
		{Status: core.StatusActive},
		{Status: core.StatusCancelled},
		{Status: core.StatusPaused},
	}
	r := SubscriptionTrend(subs)
	if r.Active != 3 || r.Cancelled != 1 || r.RetentionRate != 75 {
		t.Fatalf("unexpected retention %+v", r)
	}
	if empty := SubscriptionTrend(nil); empty.RetentionRate != 0 {
		t.Fatalf("expected 0 retention for no subscriptions, got %v", empty.RetentionRate)
	}
}
