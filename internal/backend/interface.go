// Package backend builds the subscription store selected by DATA_BACKEND.
package backend

import (
	"context"

	"subtrack/internal/services"
	"subtrack/internal/sheets"
)

// Backend is the full store the API server needs.
type Backend interface {
	sheets.SubscriptionRepository
}

// PendingReplayer is implemented by backends that track rows the mirror has
// not seen yet.
type PendingReplayer interface {
	ReplayPending(ctx context.Context, limit int) (int, error)
}

type CleanupFunc func() error

// BackendResult holds the backend, the change publisher when one was
// configured, and a cleanup releasing both.
type BackendResult struct {
	Backend   Backend
	Publisher services.EventPublisher
	Cleanup   CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath      string
	AMQPURL           string
	AMQPExchange      string
	AMQPQueue         string
	AMQPReminderQueue string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Memory specific; empty keeps everything in memory only.
	DataFile string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
