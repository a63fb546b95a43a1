// Package worker mirrors the SQLite subscriptions into Google Sheets.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
	"subtrack/internal/sheets"
	"subtrack/internal/storage"
)

// SyncSource is the primary store as seen by the mirror.
// *storage.SQLiteRepository implements it.
type SyncSource interface {
	sheets.SubscriptionLister
	sheets.SubscriptionReader
	GetPendingSync(ctx context.Context, limit int) ([]storage.PendingSync, error)
	Version(ctx context.Context, id int64) (int64, error)
	MarkSynced(ctx context.Context, id, version int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker applies subscription changes to the mirror.
type SyncWorker struct {
	source SyncSource
	mirror sheets.SubscriptionMirror
}

func NewSyncWorker(source SyncSource, mirror sheets.SubscriptionMirror) *SyncWorker {
	return &SyncWorker{source: source, mirror: mirror}
}

// HandleChange processes one subscription.changed message.
func (w *SyncWorker) HandleChange(ctx context.Context, msg *amqp.SubscriptionChangedMessage) error {
	slog.InfoContext(ctx, "Processing subscription change",
		"id", msg.ID,
		"action", msg.Action,
		"version", msg.Version)

	switch msg.Action {
	case amqp.ActionCreated, amqp.ActionUpdated:
		return w.syncRow(ctx, msg.ID)
	case amqp.ActionDeleted:
		return w.deleteRow(ctx, msg.ID)
	default:
		return fmt.Errorf("unknown action %q", msg.Action)
	}
}

// ProcessPending pushes up to limit rows whose latest version has not been
// mirrored yet. It backs up lost messages.
func (w *SyncWorker) ProcessPending(ctx context.Context, limit int) (int, error) {
	pending, err := w.source.GetPendingSync(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending rows: %w", err)
	}
	synced := 0
	for _, p := range pending {
		if err := w.syncRow(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync subscription", "id", p.ID, "error", err)
			continue
		}
		synced++
	}
	return synced, nil
}

// Reconcile removes mirror rows whose subscription no longer exists, which
// happens when a delete message was lost. Mirrors that cannot list are
// left alone.
func (w *SyncWorker) Reconcile(ctx context.Context) (int, error) {
	lister, ok := w.mirror.(sheets.SubscriptionLister)
	if !ok {
		return 0, nil
	}
	mirrored, err := lister.ListSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list mirror rows: %w", err)
	}
	primary, err := w.source.ListSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscriptions: %w", err)
	}
	exists := make(map[int64]bool, len(primary))
	for _, s := range primary {
		exists[s.ID] = true
	}

	removed := 0
	for _, s := range mirrored {
		if exists[s.ID] {
			continue
		}
		if err := w.deleteRow(ctx, s.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to remove orphaned row", "id", s.ID, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// StartupSyncCheck catches up on everything missed while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context, limit int) error {
	removed, err := w.Reconcile(ctx)
	if err != nil {
		return err
	}
	synced, err := w.ProcessPending(ctx, limit)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Startup sync completed",
		"synced", synced,
		"removed", removed)
	return nil
}

func (w *SyncWorker) syncRow(ctx context.Context, id int64) error {
	// Read the version first: a write that lands in between leaves the row
	// pending for the next pass.
	version, err := w.source.Version(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Subscription gone before sync, removing from mirror", "id", id)
		return w.deleteRow(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("get version: %w", err)
	}
	sub, err := w.source.GetSubscription(ctx, id)
	if err != nil {
		return fmt.Errorf("get subscription: %w", err)
	}

	if err := w.mirror.UpsertSubscription(ctx, sub); err != nil {
		if markErr := w.source.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("upsert mirror row: %w", err)
	}
	if err := w.source.MarkSynced(ctx, id, version); err != nil {
		// The row is mirrored; it will be pushed again harmlessly.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced subscription",
		"id", id,
		"version", version,
		"name", sub.Name)
	return nil
}

func (w *SyncWorker) deleteRow(ctx context.Context, id int64) error {
	err := w.mirror.DeleteSubscription(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		slog.DebugContext(ctx, "Row already absent from mirror", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete mirror row: %w", err)
	}
	slog.InfoContext(ctx, "Deleted subscription from mirror", "id", id)
	return nil
}
