package analytics

import (
	"math"
	"time"

	"subtrack/internal/core"
)

// CategoryBucket groups the active subscriptions of one category.
type CategoryBucket struct {
	Category      core.Category       `json:"category"`
	Label         string              `json:"label"`
	Count         int                 `json:"count"`
	TotalAmount   float64             `json:"totalAmount"`
	Subscriptions []core.Subscription `json:"subscriptions"`
}

// CategoryTotal names the category with the highest spend.
type CategoryTotal struct {
	Category core.Category `json:"category"`
	Label    string        `json:"label"`
	Amount   float64       `json:"amount"`
	Count    int           `json:"count"`
}

// Summary is the analytics overview of a subscription list.
type Summary struct {
	TotalSubscriptions     int              `json:"totalSubscriptions"`
	TotalMonthlyAmount     float64          `json:"totalMonthlyAmount"`
	TotalYearlyAmount      float64          `json:"totalYearlyAmount"`
	AveragePerSubscription float64          `json:"averageMonthlyPerSubscription"`
	Categories             []CategoryBucket `json:"categoryStats"`
	MostExpensiveCategory  *CategoryTotal   `json:"mostExpensiveCategory"`
	SavingsOpportunities   []Opportunity    `json:"savingsOpportunities"`
}

// BuildSummary aggregates subs. Only active subscriptions are counted.
func BuildSummary(subs []core.Subscription, est DurationEstimator, now time.Time) Summary {
	active := activeOnly(subs)
	s := Summary{
		TotalSubscriptions: len(active),
		TotalMonthlyAmount: ObservedMonthTotal(active),
	}
	for _, sub := range active {
		if sub.BillingCycle == core.Yearly {
			s.TotalYearlyAmount += sub.NormalizedKRW()
		}
	}
	if s.TotalSubscriptions > 0 {
		s.AveragePerSubscription = math.Round(s.TotalMonthlyAmount / float64(s.TotalSubscriptions))
	}
	s.Categories = BucketByCategory(active)
	s.MostExpensiveCategory = MostExpensive(s.Categories)
	s.SavingsOpportunities = ComputeSavingsOpportunities(active, est, now)
	return s
}

// BucketByCategory groups the active subscriptions by category, in the order
// each category is first seen.
func BucketByCategory(subs []core.Subscription) []CategoryBucket {
	buckets := make([]CategoryBucket, 0)
	index := make(map[core.Category]int)
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		i, ok := index[s.Category]
		if !ok {
			i = len(buckets)
			index[s.Category] = i
			buckets = append(buckets, CategoryBucket{
				Category:      s.Category,
				Label:         s.Category.Label(),
				Subscriptions: []core.Subscription{},
			})
		}
		b := &buckets[i]
		b.Count++
		b.TotalAmount += s.NormalizedKRW()
		b.Subscriptions = append(b.Subscriptions, s)
	}
	return buckets
}

// MostExpensive returns the bucket with the highest positive total. Ties go
// to the bucket seen first; nil when no bucket has spend.
func MostExpensive(buckets []CategoryBucket) *CategoryTotal {
	var best *CategoryTotal
	for _, b := range buckets {
		if best == nil && b.TotalAmount > 0 || best != nil && b.TotalAmount > best.Amount {
			best = &CategoryTotal{
				Category: b.Category,
				Label:    b.Label,
				Amount:   b.TotalAmount,
				Count:    b.Count,
			}
		}
	}
	return best
}
