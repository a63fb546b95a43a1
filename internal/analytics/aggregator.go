// Package analytics aggregates subscriptions into spending totals, savings
// suggestions and reports.
//
// Two kinds of figures come out of this package. Observed figures are sums
// over the current subscription list. Simulated figures (historical monthly
// spend and subscription duration) are deterministic estimates, not history,
// and are flagged as such on every value that carries one.
package analytics

import (
	"fmt"
	"math"
	"time"

	"subtrack/internal/core"
)

// MonthTotal is the spend attributed to one calendar month.
type MonthTotal struct {
	MonthKey  string  `json:"monthKey"`
	Total     float64 `json:"total"`
	Simulated bool    `json:"simulated"`
}

// ByDate groups payments by their date key.
func ByDate(payments []core.Payment) map[string][]core.Payment {
	out := make(map[string][]core.Payment, len(payments))
	for _, p := range payments {
		out[p.DateString] = append(out[p.DateString], p)
	}
	return out
}

// ObservedMonthTotal is the KRW-normalized sum of the active subscriptions.
func ObservedMonthTotal(subs []core.Subscription) float64 {
	var total float64
	for _, s := range subs {
		if s.IsActive() {
			total += s.NormalizedKRW()
		}
	}
	return total
}

// ByMonth returns monthsBack entries ending with the month of now. The last
// entry is observed; every earlier one comes from SimulatedTrend.
func ByMonth(subs []core.Subscription, monthsBack int, now time.Time) []MonthTotal {
	if monthsBack <= 0 {
		return []MonthTotal{}
	}
	current := ObservedMonthTotal(subs)
	out := SimulatedTrend(current, monthsBack-1, now)
	return append(out, MonthTotal{
		MonthKey: monthKey(now, 0),
		Total:    math.Round(current),
	})
}

// SimulatedTrend estimates the spend of the monthsBack months preceding now,
// oldest first. For k months ago the estimate is
//
//	max(0.6*current, round(current * (1 - 0.03k) * (1 + 0.3*sin(7k))))
//
// so it never falls below 60% of current.
func SimulatedTrend(current float64, monthsBack int, now time.Time) []MonthTotal {
	if monthsBack <= 0 {
		return []MonthTotal{}
	}
	out := make([]MonthTotal, 0, monthsBack)
	for k := monthsBack; k >= 1; k-- {
		out = append(out, MonthTotal{
			MonthKey:  monthKey(now, k),
			Total:     simulatedMonth(current, k),
			Simulated: true,
		})
	}
	return out
}

func simulatedMonth(current float64, monthsAgo int) float64 {
	seed := float64(monthsAgo * 7)
	perturbation := math.Sin(seed) * 0.3
	trend := 1 - float64(monthsAgo)*0.03
	floor := current * 0.6
	return math.Round(math.Max(floor, math.Round(current*trend*(1+perturbation))))
}

// monthKey formats the month k months before now as YYYY-MM in now's location.
func monthKey(now time.Time, k int) string {
	first := time.Date(now.Year(), now.Month()-time.Month(k), 1, 0, 0, 0, 0, now.Location())
	return fmt.Sprintf("%04d-%02d", first.Year(), int(first.Month()))
}
