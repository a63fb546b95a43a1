package analytics

import (
	"fmt"
	"math"
	"strings"
	"time"

	"subtrack/internal/core"
)

// ReportMonths is the number of months covered by a report.
const ReportMonths = 12

type RecommendationType string

const (
	RecommendationWarning RecommendationType = "warning"
	RecommendationInfo    RecommendationType = "info"
	RecommendationSuccess RecommendationType = "success"
)

type Recommendation struct {
	Type    RecommendationType `json:"type"`
	Title   string             `json:"title"`
	Message string             `json:"message"`
	Action  string             `json:"action"`
}

// Report is the full analytics report.
type Report struct {
	Summary         Summary          `json:"summary"`
	Monthly         []MonthTotal     `json:"monthly"`
	Durations       []Duration       `json:"durations"`
	Trends          Trends           `json:"trends"`
	Recommendations []Recommendation `json:"recommendations"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}

// BuildReport assembles the summary, the 12-month series, trends and
// recommendations as of now.
func BuildReport(subs []core.Subscription, est DurationEstimator, now time.Time) Report {
	summary := BuildSummary(subs, est, now)
	monthly := ByMonth(subs, ReportMonths, now)
	trends := Trends{
		Spending:     SpendingTrend(monthly),
		Category:     TopCategories(summary.Categories, 3),
		Subscription: SubscriptionTrend(subs),
	}
	return Report{
		Summary:         summary,
		Monthly:         monthly,
		Durations:       Durations(subs, est, now),
		Trends:          trends,
		Recommendations: Recommendations(summary, trends),
		GeneratedAt:     now,
	}
}

// Recommendations turns a summary and its trends into advice.
func Recommendations(summary Summary, trends Trends) []Recommendation {
	out := make([]Recommendation, 0, 3)
	if trends.Spending == TrendIncreasing {
		out = append(out, Recommendation{
			Type:    RecommendationWarning,
			Title:   "Spending is rising",
			Message: "Subscription spending has grown recently. Review the ones you no longer need.",
			Action:  "Go through the subscription list and pick what to cancel.",
		})
	}

	var duplicated []string
	for _, b := range summary.Categories {
		if b.Count > 1 {
			duplicated = append(duplicated, string(b.Category))
		}
	}
	if len(duplicated) > 0 {
		out = append(out, Recommendation{
			Type:    RecommendationInfo,
			Title:   "Overlapping subscriptions",
			Message: fmt.Sprintf("Several subscriptions in %s.", strings.Join(duplicated, ", ")),
			Action:  "Merging services with similar features can lower costs.",
		})
	}

	if len(summary.SavingsOpportunities) > 0 {
		var total float64
		for _, o := range summary.SavingsOpportunities {
			total += o.PotentialSavings
		}
		out = append(out, Recommendation{
			Type:    RecommendationSuccess,
			Title:   "Savings available",
			Message: fmt.Sprintf("Up to ₩%s can be saved.", formatKRW(math.Round(total))),
			Action:  "Review the suggested savings.",
		})
	}
	return out
}

// formatKRW renders a whole amount with thousands separators.
func formatKRW(v float64) string {
	s := fmt.Sprintf("%.0f", math.Abs(v))
	var b strings.Builder
	if v < 0 {
		b.WriteByte('-')
	}
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
