package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"subtrack/internal/core"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// brings its schema up to date.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db, queries: New(db), now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	rows, err := r.queries.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	subs := make([]core.Subscription, len(rows))
	for i, row := range rows {
		subs[i] = row.toCore()
	}
	return subs, nil
}

func (r *SQLiteRepository) GetSubscription(ctx context.Context, id int64) (core.Subscription, error) {
	row, err := r.queries.GetSubscription(ctx, id)
	if err != nil {
		return core.Subscription{}, notFound(id, err)
	}
	return row.toCore(), nil
}

func (r *SQLiteRepository) CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error) {
	now := r.now().UTC().Format(timeLayout)
	row, err := r.queries.CreateSubscription(ctx, CreateSubscriptionParams{
		Name:            s.Name,
		Description:     s.Description,
		Amount:          s.Amount,
		Currency:        s.Currency,
		KrwAmount:       nullFloat(s.KRWAmount),
		BillingCycle:    string(s.BillingCycle),
		Status:          string(s.Status),
		Category:        string(s.Category),
		NextPaymentDate: string(s.NextPaymentDate),
		YearlyDiscount:  nullFloat(s.YearlyDiscount),
		Color:           s.Color,
		Icon:            s.Icon,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return core.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}

	slog.InfoContext(ctx, "Subscription saved to SQLite",
		"id", row.ID,
		"name", row.Name,
		"amount", row.Amount,
		"currency", row.Currency)
	return row.toCore(), nil
}

func (r *SQLiteRepository) UpdateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error) {
	row, err := r.queries.UpdateSubscription(ctx, UpdateSubscriptionParams{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		Amount:          s.Amount,
		Currency:        s.Currency,
		KrwAmount:       nullFloat(s.KRWAmount),
		BillingCycle:    string(s.BillingCycle),
		Status:          string(s.Status),
		Category:        string(s.Category),
		NextPaymentDate: string(s.NextPaymentDate),
		YearlyDiscount:  nullFloat(s.YearlyDiscount),
		Color:           s.Color,
		Icon:            s.Icon,
		DisplayOrder:    int64(s.DisplayOrder),
		UpdatedAt:       r.now().UTC().Format(timeLayout),
	})
	if err != nil {
		return core.Subscription{}, notFound(s.ID, err)
	}
	return row.toCore(), nil
}

func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteSubscription(ctx, id)
	if err != nil {
		return fmt.Errorf("delete subscription %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("subscription %d: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Subscription deleted from SQLite", "id", id)
	return nil
}

// SetDisplayOrder rewrites the order of ids in one transaction.
func (r *SQLiteRepository) SetDisplayOrder(ctx context.Context, ids []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for i, id := range ids {
		n, err := q.SetDisplayOrder(ctx, id, int64(i))
		if err != nil {
			return fmt.Errorf("set display order of %d: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("subscription %d: %w", id, core.ErrNotFound)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

// PendingSync identifies a row whose latest version has not reached the
// spreadsheet yet.
type PendingSync struct {
	ID        int64
	Version   int64
	UpdatedAt time.Time
}

// GetPendingSync returns up to limit rows waiting for a mirror push, oldest first.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSync, error) {
	rows, err := r.queries.GetPendingSync(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync: %w", err)
	}
	out := make([]PendingSync, len(rows))
	for i, row := range rows {
		out[i] = PendingSync{ID: row.ID, Version: row.Version, UpdatedAt: parseTime(row.UpdatedAt)}
	}
	return out, nil
}

// Version returns the current version of a row.
func (r *SQLiteRepository) Version(ctx context.Context, id int64) (int64, error) {
	row, err := r.queries.GetSubscription(ctx, id)
	if err != nil {
		return 0, notFound(id, err)
	}
	return row.Version, nil
}

// MarkSynced records that version of id reached the mirror. A stale version
// leaves the row pending.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id, version int64) error {
	n, err := r.queries.MarkSynced(ctx, id, version, r.now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("mark subscription synced: %w", err)
	}
	if n == 0 {
		slog.DebugContext(ctx, "Sync mark skipped, newer version pending", "id", id, "version", version)
		return nil
	}
	slog.InfoContext(ctx, "Subscription marked as synced", "id", id, "version", version)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark subscription sync error: %w", err)
	}
	slog.WarnContext(ctx, "Subscription marked with sync error", "id", id)
	return nil
}

func notFound(id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("subscription %d: %w", id, core.ErrNotFound)
	}
	return fmt.Errorf("subscription %d: %w", id, err)
}

func (s Subscription) toCore() core.Subscription {
	out := core.Subscription{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		Amount:          s.Amount,
		Currency:        s.Currency,
		BillingCycle:    core.BillingCycle(s.BillingCycle),
		Status:          core.Status(s.Status),
		Category:        core.Category(s.Category),
		NextPaymentDate: core.DateField(s.NextPaymentDate),
		Color:           s.Color,
		Icon:            s.Icon,
		DisplayOrder:    int(s.DisplayOrder),
		CreatedAt:       parseTime(s.CreatedAt),
		UpdatedAt:       parseTime(s.UpdatedAt),
	}
	if s.KrwAmount.Valid {
		out.KRWAmount = core.Float64(s.KrwAmount.Float64)
	}
	if s.YearlyDiscount.Valid {
		out.YearlyDiscount = core.Float64(s.YearlyDiscount.Float64)
	}
	return out
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
