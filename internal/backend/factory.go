package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"subtrack/internal/adapters"
	"subtrack/internal/amqp"
	"subtrack/internal/services"
	gsheet "subtrack/internal/sheets/google"
	"subtrack/internal/sheets/memory"
	"subtrack/internal/storage"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP is optional; without it rows stay pending until the sync worker polls them.
	var client *amqp.Client
	if config.AMQPURL != "" {
		client, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, config.AMQPReminderQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change feed", "error", err)
			client = nil
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	result := &BackendResult{}
	var adapter *adapters.SQLiteAdapter
	if client != nil {
		// Publisher stays untyped nil without a broker.
		result.Publisher = client
		adapter = adapters.NewSQLiteAdapter(repo, client)
	} else {
		adapter = adapters.NewSQLiteAdapter(repo, nil)
	}
	result.Backend = adapter
	result.Cleanup = func() error {
		var errs []error
		if client != nil {
			if err := client.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		if err := adapter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sqlite: %w", err))
		}
		return errors.Join(errs...)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", client != nil)
	return result, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	if err := store.EnsureHeader(ctx); err != nil {
		return nil, fmt.Errorf("prepare worksheet: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized Google Sheets backend", "sheet", config.GoogleSheetName)
	return &BackendResult{Backend: store}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if config.DataFile == "" {
		f.logger.InfoContext(ctx, "Initialized memory backend without persistence")
		return &BackendResult{Backend: memory.New(nil)}, nil
	}

	store, err := memory.NewFromFile(config.DataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory backend: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized memory backend", "data_file", config.DataFile)
	return &BackendResult{Backend: store}, nil
}

// Service wraps the backend in a SubscriptionService using the result's publisher.
func (r *BackendResult) Service() *services.SubscriptionService {
	return services.NewSubscriptionService(r.Backend, r.Publisher)
}
