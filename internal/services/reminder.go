package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subtrack/internal/amqp"
	"subtrack/internal/calendar"
	"subtrack/internal/rates"
	"subtrack/internal/sheets"
)

// ReminderPublisher sends payment reminders. *amqp.Client implements it.
type ReminderPublisher interface {
	PublishPaymentReminder(ctx context.Context, msg *amqp.PaymentReminderMessage) error
}

const DefaultReminderDays = 3

// ReminderProcessor announces payments due within the next Days days.
type ReminderProcessor struct {
	subs      sheets.SubscriptionLister
	rates     RateSource
	publisher ReminderPublisher
	Days      int
}

// NewReminderProcessor builds a processor. rateSource and publisher may be
// nil: amounts then stay unconverted and reminders are only logged.
func NewReminderProcessor(subs sheets.SubscriptionLister, rateSource RateSource, publisher ReminderPublisher, days int) *ReminderProcessor {
	if days <= 0 {
		days = DefaultReminderDays
	}
	return &ReminderProcessor{subs: subs, rates: rateSource, publisher: publisher, Days: days}
}

// Run sends one reminder per upcoming payment and returns how many were
// delivered (or logged).
func (p *ReminderProcessor) Run(ctx context.Context, now time.Time) (int, error) {
	list, err := p.subs.ListSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscriptions: %w", err)
	}
	if p.rates != nil {
		rates.Apply(list, p.rates.Latest(ctx))
	}

	upcoming := calendar.Upcoming(calendar.ExtractPayments(list), now, p.Days)
	sent := 0
	for _, pay := range upcoming {
		days := calendar.DaysUntil(pay, now)
		msg := &amqp.PaymentReminderMessage{
			SubscriptionID: pay.ID,
			Name:           pay.Name,
			Amount:         pay.Amount,
			KRWAmount:      pay.KRWAmount,
			DueDate:        pay.DateString,
			DaysUntil:      days,
			Label:          calendar.ReminderLabel(days),
			Timestamp:      now,
		}
		if p.publisher == nil {
			slog.InfoContext(ctx, "Payment reminder",
				"subscription_id", msg.SubscriptionID,
				"name", msg.Name,
				"krw_amount", msg.KRWAmount,
				"due_date", msg.DueDate,
				"label", msg.Label)
			sent++
			continue
		}
		if err := p.publisher.PublishPaymentReminder(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish payment reminder",
				"subscription_id", pay.ID,
				"error", err)
			continue
		}
		sent++
	}

	slog.InfoContext(ctx, "Reminder run complete",
		"due", len(upcoming),
		"sent", sent,
		"window_days", p.Days)
	return sent, nil
}
