package analytics

import (
	"sort"

	"subtrack/internal/core"
)

type SpendingDirection string

const (
	TrendIncreasing       SpendingDirection = "increasing"
	TrendDecreasing       SpendingDirection = "decreasing"
	TrendStable           SpendingDirection = "stable"
	TrendInsufficientData SpendingDirection = "insufficient_data"
)

const trendChangePercent = 10.0

// SpendingTrend compares the average of the last three months with the three
// before them. A change above 10% either way is a trend.
func SpendingTrend(months []MonthTotal) SpendingDirection {
	n := len(months)
	if n < 6 {
		return TrendInsufficientData
	}
	recent := average(months[n-3:])
	previous := average(months[n-6 : n-3])
	if previous == 0 {
		return TrendStable
	}
	change := (recent - previous) / previous * 100
	switch {
	case change > trendChangePercent:
		return TrendIncreasing
	case change < -trendChangePercent:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

func average(months []MonthTotal) float64 {
	var sum float64
	for _, m := range months {
		sum += m.Total
	}
	return sum / float64(len(months))
}

// TopCategories returns up to n categories by total spend, highest first.
func TopCategories(buckets []CategoryBucket, n int) []core.Category {
	sorted := make([]CategoryBucket, len(buckets))
	copy(sorted, buckets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalAmount > sorted[j].TotalAmount
	})
	out := make([]core.Category, 0, n)
	for _, b := range limit(sorted, n) {
		out = append(out, b.Category)
	}
	return out
}

// Retention counts active against cancelled subscriptions.
type Retention struct {
	Active        int     `json:"active"`
	Cancelled     int     `json:"cancelled"`
	RetentionRate float64 `json:"retentionRate"`
}

// SubscriptionTrend reports the retention rate as a percentage. Paused
// subscriptions count as neither; with nothing to count the rate is 0.
func SubscriptionTrend(subs []core.Subscription) Retention {
	var r Retention
	for _, s := range subs {
		switch s.Status {
		case core.StatusActive:
			r.Active++
		case core.StatusCancelled:
			r.Cancelled++
		}
	}
	if total := r.Active + r.Cancelled; total > 0 {
		r.RetentionRate = float64(r.Active) / float64(total) * 100
	}
	return r
}

// Trends bundles the three trend views of a report.
type Trends struct {
	Spending     SpendingDirection `json:"spending"`
	Category     []core.Category   `json:"category"`
	Subscription Retention         `json:"subscription"`
}
