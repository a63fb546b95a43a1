package sheets

import (
	"context"

	"subtrack/internal/core"
)

// Ports for outbound adapters. Implementations return errors wrapping
// core.ErrNotFound for unknown ids.
type (
	SubscriptionLister interface {
		// ListSubscriptions returns every stored subscription ordered by
		// display order, then id.
		ListSubscriptions(ctx context.Context) ([]core.Subscription, error)
	}

	SubscriptionReader interface {
		GetSubscription(ctx context.Context, id int64) (core.Subscription, error)
	}

	SubscriptionWriter interface {
		// CreateSubscription stores s under a new id and returns the stored record.
		CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error)
		// UpdateSubscription replaces the record with s.ID.
		UpdateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error)
	}

	SubscriptionDeleter interface {
		DeleteSubscription(ctx context.Context, id int64) error
	}

	SubscriptionOrderer interface {
		// SetDisplayOrder assigns DisplayOrder 0..n-1 following ids.
		SetDisplayOrder(ctx context.Context, ids []int64) error
	}

	// SubscriptionRepository is the full store used by the API server.
	SubscriptionRepository interface {
		SubscriptionLister
		SubscriptionReader
		SubscriptionWriter
		SubscriptionDeleter
		SubscriptionOrderer
	}

	// SubscriptionMirror keeps an external copy of the subscriptions, such as
	// a spreadsheet, in step with the primary store.
	SubscriptionMirror interface {
		UpsertSubscription(ctx context.Context, s core.Subscription) error
		DeleteSubscription(ctx context.Context, id int64) error
	}
)
