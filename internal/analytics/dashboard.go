package analytics

import (
	"sort"
	"time"

	"subtrack/internal/calendar"
	"subtrack/internal/core"
)

const (
	dashboardUpcomingDays = 7
	dashboardRecent       = 5
)

// Dashboard is the landing overview.
type Dashboard struct {
	TotalSubscriptions int                 `json:"totalSubscriptions"`
	MonthlyTotal       float64             `json:"monthlyTotal"`
	UpcomingPayments   int                 `json:"upcomingPayments"`
	Recent             []core.Subscription `json:"recentSubscriptions"`
}

// BuildDashboard counts the active subscriptions, sums the monthly-billed
// ones and counts payments due within seven days of today.
func BuildDashboard(subs []core.Subscription, today time.Time) Dashboard {
	active := activeOnly(subs)
	d := Dashboard{TotalSubscriptions: len(active)}
	for _, s := range active {
		if s.BillingCycle == core.Monthly {
			d.MonthlyTotal += s.NormalizedKRW()
		}
	}
	payments := calendar.ExtractPayments(active)
	d.UpcomingPayments = len(calendar.Upcoming(payments, today, dashboardUpcomingDays))
	d.Recent = recentSubscriptions(active, dashboardRecent)
	return d
}

// recentSubscriptions orders by creation time, newest first, falling back
// to the id when a creation time is missing.
func recentSubscriptions(subs []core.Subscription, n int) []core.Subscription {
	sorted := make([]core.Subscription, len(subs))
	copy(sorted, subs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.CreatedAt.IsZero() && !b.CreatedAt.IsZero() && !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return limit(sorted, n)
}
