package analytics

import (
	"math"
	"sort"
	"time"

	"subtrack/internal/core"
)

const (
	minDurationMonths = 1
	maxDurationMonths = 36
)

// DurationEstimator reports how many months a subscription has been held.
type DurationEstimator interface {
	Months(s core.Subscription, now time.Time) int
}

// SimulatedDuration derives a stable pseudo-random duration from the
// subscription id. It does not look at any real history.
type SimulatedDuration struct{}

func (SimulatedDuration) Months(s core.Subscription, now time.Time) int {
	id := s.ID
	if id == 0 {
		for _, r := range s.Name {
			id = int64(r)
			break
		}
	}
	seed := float64(id * 13)
	monthsAgo := int(math.Floor(math.Abs(math.Sin(seed))*35 + 1))

	start := time.Date(now.Year(), now.Month()-time.Month(monthsAgo), 1, 0, 0, 0, 0, now.Location())
	elapsed := now.Sub(start)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	months := int(math.Ceil(elapsed.Hours() / 24 / 30))
	return clampMonths(months)
}

// CreatedAtDuration counts whole months since CreatedAt. Records without a
// creation time fall back to SimulatedDuration.
type CreatedAtDuration struct{}

func (CreatedAtDuration) Months(s core.Subscription, now time.Time) int {
	if s.CreatedAt.IsZero() {
		return SimulatedDuration{}.Months(s, now)
	}
	created := s.CreatedAt.In(now.Location())
	months := (now.Year()-created.Year())*12 + int(now.Month()) - int(created.Month())
	if now.Day() < created.Day() {
		months--
	}
	return clampMonths(months)
}

// NewDurationEstimator maps a DURATION_SOURCE value to an estimator.
// Unknown values select the simulation.
func NewDurationEstimator(source string) DurationEstimator {
	if source == "created_at" {
		return CreatedAtDuration{}
	}
	return SimulatedDuration{}
}

func clampMonths(m int) int {
	if m < minDurationMonths {
		return minDurationMonths
	}
	if m > maxDurationMonths {
		return maxDurationMonths
	}
	return m
}

// Duration is the held time of one active subscription.
type Duration struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Months    int     `json:"months"`
	Amount    float64 `json:"amount"`
	Simulated bool    `json:"simulated"`
}

// Durations lists the active subscriptions by duration, longest first.
func Durations(subs []core.Subscription, est DurationEstimator, now time.Time) []Duration {
	_, simulated := est.(SimulatedDuration)
	out := make([]Duration, 0, len(subs))
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		sim := simulated
		if _, ok := est.(CreatedAtDuration); ok && s.CreatedAt.IsZero() {
			sim = true
		}
		out = append(out, Duration{
			ID:        s.ID,
			Name:      s.Name,
			Months:    est.Months(s, now),
			Amount:    s.NormalizedKRW(),
			Simulated: sim,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Months > out[j].Months })
	return out
}
