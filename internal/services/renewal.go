package services

import (
	"fmt"
	"time"

	"subtrack/internal/core"
)

// RenewalStrategy moves a payment date forward by whole billing periods.
// Each billing cycle has its own strategy.
type RenewalStrategy interface {
	// Advance returns the calendar day of anchor moved forward by n periods,
	// as midnight UTC. Days past the end of the target month clamp to its
	// last day.
	Advance(anchor time.Time, n int) time.Time
}

// MonthlyRenewal adds calendar months.
type MonthlyRenewal struct{}

func (MonthlyRenewal) Advance(anchor time.Time, n int) time.Time {
	return addMonthsClamped(anchor, n)
}

// YearlyRenewal adds calendar years; Feb 29 renews on Feb 28.
type YearlyRenewal struct{}

func (YearlyRenewal) Advance(anchor time.Time, n int) time.Time {
	return addMonthsClamped(anchor, 12*n)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + months
	year := y + total/12
	month := total % 12
	if month < 0 {
		month += 12
		year--
	}
	last := core.DaysIn(year, time.Month(month+1))
	if d > last {
		d = last
	}
	return time.Date(year, time.Month(month+1), d, 0, 0, 0, 0, time.UTC)
}

var renewalStrategies = map[core.BillingCycle]RenewalStrategy{
	core.Monthly: MonthlyRenewal{},
	core.Yearly:  YearlyRenewal{},
}

// GetRenewalStrategy returns the strategy for a billing cycle.
func GetRenewalStrategy(cycle core.BillingCycle) (RenewalStrategy, error) {
	s, ok := renewalStrategies[cycle]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidBillingCycle, cycle)
	}
	return s, nil
}

// NextOnOrAfter returns the first renewal of anchor that falls on or after
// today, counting periods from anchor so month-end days do not drift. A zero
// anchor has no renewals and is returned as is.
func NextOnOrAfter(s RenewalStrategy, anchor, today time.Time) time.Time {
	if anchor.IsZero() {
		return anchor
	}
	todayKey := core.ToKey(today)
	next := anchor
	for n := 1; core.ToKey(next) < todayKey; n++ {
		next = s.Advance(anchor, n)
	}
	return next
}
