// Package services holds the application logic that sits between the HTTP
// handlers, the subscription stores and the message broker.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
	"subtrack/internal/sanitize"
	"subtrack/internal/sheets"
)

// EventPublisher announces subscription changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishSubscriptionChanged(ctx context.Context, msg *amqp.SubscriptionChangedMessage) error
}

// versioner is implemented by stores that track a row version.
type versioner interface {
	Version(ctx context.Context, id int64) (int64, error)
}

// SubscriptionInput carries the client supplied fields of a create or
// update. Nil fields are left untouched on update and defaulted on create.
type SubscriptionInput struct {
	Name            *string            `json:"name"`
	Description     *string            `json:"description"`
	Amount          *Amount            `json:"amount"`
	Currency        *string            `json:"currency"`
	KRWAmount       *float64           `json:"krwAmount"`
	BillingCycle    *core.BillingCycle `json:"billingCycle"`
	Status          *core.Status       `json:"status"`
	Category        *core.Category     `json:"category"`
	NextPaymentDate *string            `json:"nextPaymentDate"`
	YearlyDiscount  *float64           `json:"yearlyDiscount"`
	Color           *string            `json:"color"`
	Icon            *string            `json:"icon"`
}

// Amount accepts a JSON number or a price string such as "17,000".
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		if v < 0 {
			return core.ErrInvalidAmount
		}
		*a = Amount(core.RoundTo(v, 2))
	case string:
		n, err := core.ParseAmount(v)
		if err != nil {
			return err
		}
		*a = Amount(n)
	default:
		return core.ErrInvalidAmount
	}
	return nil
}

// apply merges in onto s, sanitizing free text.
func (in SubscriptionInput) apply(s *core.Subscription) {
	if in.Name != nil {
		s.Name = sanitize.Text(*in.Name)
	}
	if in.Description != nil {
		s.Description = sanitize.Text(*in.Description)
	}
	if in.Amount != nil {
		s.Amount = float64(*in.Amount)
	}
	if in.Currency != nil {
		s.Currency = strings.ToUpper(strings.TrimSpace(*in.Currency))
	}
	if in.KRWAmount != nil {
		s.KRWAmount = core.Float64(*in.KRWAmount)
	}
	if in.BillingCycle != nil {
		s.BillingCycle = *in.BillingCycle
	}
	if in.Status != nil {
		s.Status = *in.Status
	}
	if in.Category != nil {
		s.Category = *in.Category
	}
	if in.NextPaymentDate != nil {
		raw := strings.TrimSpace(*in.NextPaymentDate)
		if key, ok := core.NormalizeDate(raw); ok {
			raw = key
		}
		s.NextPaymentDate = core.DateField(raw)
	}
	if in.YearlyDiscount != nil {
		s.YearlyDiscount = core.Float64(*in.YearlyDiscount)
	}
	if in.Color != nil {
		s.Color = sanitize.Text(*in.Color)
	}
	if in.Icon != nil {
		s.Icon = sanitize.Text(*in.Icon)
	}
}

// SubscriptionService validates subscription writes, stores them and
// publishes change events.
type SubscriptionService struct {
	repo      sheets.SubscriptionRepository
	publisher EventPublisher
}

// NewSubscriptionService wires a store and an optional publisher.
func NewSubscriptionService(repo sheets.SubscriptionRepository, publisher EventPublisher) *SubscriptionService {
	return &SubscriptionService{repo: repo, publisher: publisher}
}

func (s *SubscriptionService) List(ctx context.Context) ([]core.Subscription, error) {
	subs, err := s.repo.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	sheets.SortByDisplayOrder(subs)
	return subs, nil
}

func (s *SubscriptionService) Get(ctx context.Context, id int64) (core.Subscription, error) {
	return s.repo.GetSubscription(ctx, id)
}

func (s *SubscriptionService) Create(ctx context.Context, in SubscriptionInput) (core.Subscription, error) {
	var sub core.Subscription
	in.apply(&sub)
	sub.ApplyDefaults()
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}

	created, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("save subscription: %w", err)
	}
	s.publish(ctx, created.ID, amqp.ActionCreated)
	return created, nil
}

// Update merges in onto the stored record. The id never changes.
func (s *SubscriptionService) Update(ctx context.Context, id int64, in SubscriptionInput) (core.Subscription, error) {
	current, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return core.Subscription{}, err
	}
	in.apply(&current)
	current.ID = id
	current.ApplyDefaults()
	if err := current.Validate(); err != nil {
		return core.Subscription{}, err
	}

	updated, err := s.repo.UpdateSubscription(ctx, current)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("update subscription: %w", err)
	}
	s.publish(ctx, id, amqp.ActionUpdated)
	return updated, nil
}

func (s *SubscriptionService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteSubscription(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, id, amqp.ActionDeleted)
	return nil
}

// Reorder puts ids first, in the given order, followed by the remaining
// subscriptions in their current order. Unknown ids fail with ErrNotFound.
func (s *SubscriptionService) Reorder(ctx context.Context, ids []int64) ([]core.Subscription, error) {
	current, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[int64]bool, len(current))
	for _, sub := range current {
		known[sub.ID] = true
	}

	order := make([]int64, 0, len(current))
	seen := make(map[int64]bool, len(current))
	for _, id := range ids {
		if !known[id] {
			return nil, fmt.Errorf("subscription %d: %w", id, core.ErrNotFound)
		}
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}
	for _, sub := range current {
		if !seen[sub.ID] {
			order = append(order, sub.ID)
		}
	}

	if err := s.repo.SetDisplayOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("reorder subscriptions: %w", err)
	}
	for i, id := range order {
		if i >= len(current) || current[i].ID != id || current[i].DisplayOrder != i {
			s.publish(ctx, id, amqp.ActionUpdated)
		}
	}
	return s.List(ctx)
}

// publish never fails the request: the write already succeeded and the
// mirror picks pending rows up on its own.
func (s *SubscriptionService) publish(ctx context.Context, id int64, action amqp.ChangeAction) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher, skipping change message", "id", id, "action", action)
		return
	}
	var version int64 = 1
	if v, ok := s.repo.(versioner); ok && action != amqp.ActionDeleted {
		if n, err := v.Version(ctx, id); err == nil {
			version = n
		}
	}
	msg := amqp.NewSubscriptionChangedMessage(id, action, version)
	if err := s.publisher.PublishSubscriptionChanged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish subscription change",
			"id", id,
			"action", action,
			"error", err)
	}
}

// Close releases the store and the publisher when they hold resources.
func (s *SubscriptionService) Close() error {
	var errs []error
	if c, ok := s.repo.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}
