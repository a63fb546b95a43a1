package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subtrack/internal/core"
)

// RenewalProcessor rolls past payment dates forward to the next renewal.
// It only moves stored dates; no payment is ever executed.
type RenewalProcessor struct {
	subs *SubscriptionService
}

func NewRenewalProcessor(subs *SubscriptionService) *RenewalProcessor {
	return &RenewalProcessor{subs: subs}
}

// AdvanceOverdue updates every active subscription whose next payment date
// is before today and returns how many were moved.
func (p *RenewalProcessor) AdvanceOverdue(ctx context.Context, now time.Time) (int, error) {
	if p.subs == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	list, err := p.subs.List(ctx)
	if err != nil {
		return 0, err
	}

	today := core.ToKey(now)
	moved := 0
	for _, s := range list {
		if !s.IsActive() {
			continue
		}
		key, ok := s.NextPaymentDate.Key()
		if !ok || key >= today {
			continue
		}
		strategy, err := GetRenewalStrategy(s.BillingCycle)
		if err != nil {
			slog.ErrorContext(ctx, "No renewal strategy", "id", s.ID, "billing_cycle", s.BillingCycle, "error", err)
			continue
		}
		anchor, ok := core.FromKey(key, time.UTC)
		if !ok {
			slog.WarnContext(ctx, "Skipping subscription with unusable payment date", "id", s.ID, "next_payment_date", key)
			continue
		}
		next := core.ToKey(NextOnOrAfter(strategy, anchor, now))

		if _, err := p.subs.Update(ctx, s.ID, SubscriptionInput{NextPaymentDate: &next}); err != nil {
			slog.ErrorContext(ctx, "Failed to advance payment date",
				"id", s.ID,
				"from", key,
				"to", next,
				"error", err)
			continue
		}
		moved++
		slog.InfoContext(ctx, "Advanced payment date",
			"id", s.ID,
			"name", s.Name,
			"from", key,
			"to", next,
			"billing_cycle", s.BillingCycle)
	}

	slog.InfoContext(ctx, "Renewal processing complete",
		"advanced", moved,
		"total_checked", len(list),
		"processing_date", today)
	return moved, nil
}
