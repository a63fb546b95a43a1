package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the SQL statements of the subscriptions table.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Subscription is a row of the subscriptions table.
type Subscription struct {
	ID              int64
	Name            string
	Description     string
	Amount          float64
	Currency        string
	KrwAmount       sql.NullFloat64
	BillingCycle    string
	Status          string
	Category        string
	NextPaymentDate string
	YearlyDiscount  sql.NullFloat64
	Color           string
	Icon            string
	DisplayOrder    int64
	CreatedAt       string
	UpdatedAt       string
	Version         int64
	SyncStatus      string
	SyncedAt        sql.NullString
}

const subscriptionColumns = `id, name, description, amount, currency, krw_amount, billing_cycle,
	status, category, next_payment_date, yearly_discount, color, icon, display_order,
	created_at, updated_at, version, sync_status, synced_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (Subscription, error) {
	var s Subscription
	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.Amount, &s.Currency, &s.KrwAmount,
		&s.BillingCycle, &s.Status, &s.Category, &s.NextPaymentDate,
		&s.YearlyDiscount, &s.Color, &s.Icon, &s.DisplayOrder,
		&s.CreatedAt, &s.UpdatedAt, &s.Version, &s.SyncStatus, &s.SyncedAt,
	)
	return s, err
}

const listSubscriptions = `SELECT ` + subscriptionColumns + `
FROM subscriptions
ORDER BY display_order, id`

func (q *Queries) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	rows, err := q.db.QueryContext(ctx, listSubscriptions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const getSubscription = `SELECT ` + subscriptionColumns + `
FROM subscriptions
WHERE id = ?`

func (q *Queries) GetSubscription(ctx context.Context, id int64) (Subscription, error) {
	return scanSubscription(q.db.QueryRowContext(ctx, getSubscription, id))
}

const createSubscription = `INSERT INTO subscriptions (
	name, description, amount, currency, krw_amount, billing_cycle, status,
	category, next_payment_date, yearly_discount, color, icon, display_order,
	created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
	(SELECT COALESCE(MAX(display_order) + 1, 0) FROM subscriptions), ?, ?)
RETURNING ` + subscriptionColumns

type CreateSubscriptionParams struct {
	Name            string
	Description     string
	Amount          float64
	Currency        string
	KrwAmount       sql.NullFloat64
	BillingCycle    string
	Status          string
	Category        string
	NextPaymentDate string
	YearlyDiscount  sql.NullFloat64
	Color           string
	Icon            string
	CreatedAt       string
	UpdatedAt       string
}

func (q *Queries) CreateSubscription(ctx context.Context, arg CreateSubscriptionParams) (Subscription, error) {
	row := q.db.QueryRowContext(ctx, createSubscription,
		arg.Name, arg.Description, arg.Amount, arg.Currency, arg.KrwAmount,
		arg.BillingCycle, arg.Status, arg.Category, arg.NextPaymentDate,
		arg.YearlyDiscount, arg.Color, arg.Icon, arg.CreatedAt, arg.UpdatedAt,
	)
	return scanSubscription(row)
}

const updateSubscription = `UPDATE subscriptions SET
	name = ?, description = ?, amount = ?, currency = ?, krw_amount = ?,
	billing_cycle = ?, status = ?, category = ?, next_payment_date = ?,
	yearly_discount = ?, color = ?, icon = ?, display_order = ?, updated_at = ?,
	version = version + 1, sync_status = 'pending'
WHERE id = ?
RETURNING ` + subscriptionColumns

type UpdateSubscriptionParams struct {
	ID              int64
	Name            string
	Description     string
	Amount          float64
	Currency        string
	KrwAmount       sql.NullFloat64
	BillingCycle    string
	Status          string
	Category        string
	NextPaymentDate string
	YearlyDiscount  sql.NullFloat64
	Color           string
	Icon            string
	DisplayOrder    int64
	UpdatedAt       string
}

func (q *Queries) UpdateSubscription(ctx context.Context, arg UpdateSubscriptionParams) (Subscription, error) {
	row := q.db.QueryRowContext(ctx, updateSubscription,
		arg.Name, arg.Description, arg.Amount, arg.Currency, arg.KrwAmount,
		arg.BillingCycle, arg.Status, arg.Category, arg.NextPaymentDate,
		arg.YearlyDiscount, arg.Color, arg.Icon, arg.DisplayOrder, arg.UpdatedAt,
		arg.ID,
	)
	return scanSubscription(row)
}

const deleteSubscription = `DELETE FROM subscriptions WHERE id = ?`

func (q *Queries) DeleteSubscription(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteSubscription, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const setDisplayOrder = `UPDATE subscriptions
SET display_order = ?, version = version + 1, sync_status = 'pending'
WHERE id = ?`

func (q *Queries) SetDisplayOrder(ctx context.Context, id, order int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, setDisplayOrder, order, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getPendingSync = `SELECT id, version, updated_at
FROM subscriptions
WHERE sync_status IN ('pending', 'error')
ORDER BY updated_at, id
LIMIT ?`

type GetPendingSyncRow struct {
	ID        int64
	Version   int64
	UpdatedAt string
}

func (q *Queries) GetPendingSync(ctx context.Context, limit int64) ([]GetPendingSyncRow, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSync, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetPendingSyncRow
	for rows.Next() {
		var i GetPendingSyncRow
		if err := rows.Scan(&i.ID, &i.Version, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// markSynced only applies when no newer write happened since the version
// was read.
const markSynced = `UPDATE subscriptions
SET sync_status = 'synced', synced_at = ?
WHERE id = ? AND version = ?`

func (q *Queries) MarkSynced(ctx context.Context, id, version int64, at string) (int64, error) {
	res, err := q.db.ExecContext(ctx, markSynced, at, id, version)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const markSyncError = `UPDATE subscriptions SET sync_status = 'error' WHERE id = ?`

func (q *Queries) MarkSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markSyncError, id)
	return err
}
