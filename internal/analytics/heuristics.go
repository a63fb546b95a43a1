package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"subtrack/internal/core"
)

type (
	OpportunityType string
	Priority        string
	UnusedReason    string
)

const (
	OpportunityYearly        OpportunityType = "yearly"
	OpportunityUnused        OpportunityType = "unused"
	OpportunityConsolidation OpportunityType = "integration"

	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"

	ReasonShortUsage       UnusedReason = "short_usage"
	ReasonLowUsageCategory UnusedReason = "low_usage_category"
)

const (
	defaultYearlyDiscount  = 0.15
	yearlySavingsThreshold = 5000.0
	highPriorityMonths     = 3
	maxYearly              = 2

	unusedAmountThreshold = 15000.0
	shortUsageMonths      = 2
	maxUnused             = 1

	consolidationRate = 0.4
	maxConsolidation  = 1
)

// Categories whose subscriptions are often paid for but rarely used.
var lowUsageCategories = map[core.Category]bool{
	core.CategoryProductivity: true,
	core.CategoryAI:           true,
	core.CategorySocial:       true,
}

var consolidationSuggestions = map[core.Category]string{
	core.CategoryEntertainment: "Replace them with a single bundled entertainment service",
	core.CategoryMusic:         "Keep one music streaming service",
	core.CategoryProductivity:  "Move to one integrated productivity suite",
	core.CategoryAI:            "Use a single AI platform",
}

const defaultConsolidationSuggestion = "Consider merging services with overlapping features"

// Opportunity is one savings suggestion. Which optional fields are set
// depends on Type.
type Opportunity struct {
	Type             OpportunityType `json:"type"`
	Message          string          `json:"message"`
	PotentialSavings float64         `json:"potentialSavings"`

	SubscriptionID   int64  `json:"subscriptionId,omitempty"`
	SubscriptionName string `json:"subscriptionName,omitempty"`

	// yearly
	Duration       int      `json:"duration,omitempty"`
	CurrentMonthly float64  `json:"currentMonthly,omitempty"`
	YearlyAmount   float64  `json:"yearlyAmount,omitempty"`
	DiscountRate   int      `json:"discountRate,omitempty"`
	Priority       Priority `json:"priority,omitempty"`

	// unused
	MonthlyAmount float64      `json:"monthlyAmount,omitempty"`
	Reason        UnusedReason `json:"reason,omitempty"`

	// integration
	Category      core.Category `json:"category,omitempty"`
	CategoryName  string        `json:"categoryName,omitempty"`
	Subscriptions []string      `json:"subscriptions,omitempty"`
	Suggestion    string        `json:"suggestion,omitempty"`
}

// ComputeSavingsOpportunities runs the yearly, unused and consolidation
// heuristics over the active subscriptions and concatenates their results
// in that order. The result is never nil.
func ComputeSavingsOpportunities(subs []core.Subscription, est DurationEstimator, now time.Time) []Opportunity {
	active := activeOnly(subs)
	out := make([]Opportunity, 0, maxYearly+maxUnused+maxConsolidation)
	out = append(out, YearlyConversions(active, est, now)...)
	out = append(out, UnusedSubscriptions(active, est, now)...)
	out = append(out, Consolidations(BucketByCategory(active))...)
	return out
}

// YearlyConversions suggests switching monthly plans to yearly billing.
func YearlyConversions(subs []core.Subscription, est DurationEstimator, now time.Time) []Opportunity {
	var out []Opportunity
	for _, s := range subs {
		if !s.IsActive() || s.BillingCycle != core.Monthly {
			continue
		}
		monthly := s.NormalizedKRW()
		yearly := monthly * 12
		discount := defaultYearlyDiscount
		if s.YearlyDiscount != nil && *s.YearlyDiscount > 0 {
			discount = *s.YearlyDiscount
		}
		savings := math.Round(yearly * discount)
		if savings <= yearlySavingsThreshold {
			continue
		}
		months := est.Months(s, now)
		priority := PriorityMedium
		if months >= highPriorityMonths {
			priority = PriorityHigh
		}
		out = append(out, Opportunity{
			Type:             OpportunityYearly,
			Message:          fmt.Sprintf("Switch %s to yearly billing", s.Name),
			PotentialSavings: savings,
			SubscriptionID:   s.ID,
			SubscriptionName: s.Name,
			Duration:         months,
			CurrentMonthly:   monthly,
			YearlyAmount:     math.Round(yearly * (1 - discount)),
			DiscountRate:     int(math.Round(discount * 100)),
			Priority:         priority,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		hi, hj := out[i].Priority == PriorityHigh, out[j].Priority == PriorityHigh
		if hi != hj {
			return hi
		}
		return out[i].PotentialSavings > out[j].PotentialSavings
	})
	return limit(out, maxYearly)
}

// UnusedSubscriptions flags expensive subscriptions that are new or sit in a
// category that tends to go unused.
func UnusedSubscriptions(subs []core.Subscription, est DurationEstimator, now time.Time) []Opportunity {
	var out []Opportunity
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		monthly := s.NormalizedKRW()
		if monthly <= unusedAmountThreshold {
			continue
		}
		short := est.Months(s, now) < shortUsageMonths
		if !short && !lowUsageCategories[s.Category] {
			continue
		}
		reason := ReasonLowUsageCategory
		if short {
			reason = ReasonShortUsage
		}
		out = append(out, Opportunity{
			Type:             OpportunityUnused,
			Message:          fmt.Sprintf("%s may be unused", s.Name),
			PotentialSavings: monthly * 12,
			SubscriptionID:   s.ID,
			SubscriptionName: s.Name,
			MonthlyAmount:    monthly,
			Reason:           reason,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PotentialSavings > out[j].PotentialSavings
	})
	return limit(out, maxUnused)
}

// Consolidations suggests merging services inside categories with at least
// two members, estimating a 40% saving on the category total.
func Consolidations(buckets []CategoryBucket) []Opportunity {
	var out []Opportunity
	for _, b := range buckets {
		if b.Count < 2 {
			continue
		}
		similar := similarServices(b.Subscriptions)
		if len(similar) < 2 {
			continue
		}
		names := make([]string, len(similar))
		for i, s := range similar {
			names[i] = s.Name
		}
		suggestion, ok := consolidationSuggestions[b.Category]
		if !ok {
			suggestion = defaultConsolidationSuggestion
		}
		out = append(out, Opportunity{
			Type:             OpportunityConsolidation,
			Message:          fmt.Sprintf("Consolidate %s services", b.Label),
			PotentialSavings: math.Round(b.TotalAmount * consolidationRate),
			Category:         b.Category,
			CategoryName:     b.Label,
			Subscriptions:    names,
			Suggestion:       suggestion,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PotentialSavings > out[j].PotentialSavings
	})
	return limit(out, maxConsolidation)
}

// similarServices picks the members that overlap: entertainment and music
// first, then productivity and ai, else the two most expensive.
func similarServices(subs []core.Subscription) []core.Subscription {
	media := filterCategories(subs, core.CategoryEntertainment, core.CategoryMusic)
	if len(media) >= 2 {
		return media
	}
	work := filterCategories(subs, core.CategoryProductivity, core.CategoryAI)
	if len(work) >= 2 {
		return work
	}
	ranked := make([]core.Subscription, len(subs))
	copy(ranked, subs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].NormalizedKRW() > ranked[j].NormalizedKRW()
	})
	return limit(ranked, 2)
}

func filterCategories(subs []core.Subscription, cats ...core.Category) []core.Subscription {
	var out []core.Subscription
	for _, s := range subs {
		for _, c := range cats {
			if s.Category == c {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

func activeOnly(subs []core.Subscription) []core.Subscription {
	out := make([]core.Subscription, 0, len(subs))
	for _, s := range subs {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	return out
}

func limit[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
