// Package adapters joins the SQLite store with the change feed so the API
// server can treat it like any other subscription backend.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"subtrack/internal/amqp"
	"subtrack/internal/services"
	"subtrack/internal/sheets"
	"subtrack/internal/storage"
)

var _ sheets.SubscriptionRepository = (*SQLiteAdapter)(nil)

// SQLiteAdapter is the SQLite repository plus the publisher used to replay
// changes the mirror has not seen.
type SQLiteAdapter struct {
	*storage.SQLiteRepository
	publisher services.EventPublisher
}

// NewSQLiteAdapter wraps repo. publisher may be nil when no broker is
// configured; rows then stay pending until a broker is available.
func NewSQLiteAdapter(repo *storage.SQLiteRepository, publisher services.EventPublisher) *SQLiteAdapter {
	return &SQLiteAdapter{SQLiteRepository: repo, publisher: publisher}
}

// ReplayPending republishes an update message for up to limit rows still
// waiting for the mirror and returns how many were published.
func (a *SQLiteAdapter) ReplayPending(ctx context.Context, limit int) (int, error) {
	if a.publisher == nil {
		return 0, nil
	}
	pending, err := a.GetPendingSync(ctx, limit)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, p := range pending {
		msg := amqp.NewSubscriptionChangedMessage(p.ID, amqp.ActionUpdated, p.Version)
		if err := a.publisher.PublishSubscriptionChanged(ctx, msg); err != nil {
			if errors.Is(err, amqp.ErrCircuitOpen) || ctx.Err() != nil {
				return published, fmt.Errorf("replay pending: %w", err)
			}
			slog.WarnContext(ctx, "Failed to replay subscription change", "id", p.ID, "error", err)
			continue
		}
		published++
	}
	if published > 0 {
		slog.InfoContext(ctx, "Replayed pending subscription changes", "count", published)
	}
	return published, nil
}

// Close closes the database. The publisher is owned by the caller.
func (a *SQLiteAdapter) Close() error {
	return a.SQLiteRepository.Close()
}
