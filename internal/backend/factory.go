package backend

import (
	"context"
	"fmt"
	"log/slog"

	"betledger/internal/amqp"
	"betledger/internal/filestore"
	"betledger/internal/memstore"
	"betledger/internal/services"
	"betledger/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case FileBackend:
		return f.createFileBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP is optional; without it the flat-file mirror simply stays stale
	// until the worker's next reconcile pass.
	var publisher services.SyncPublisher
	if config.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			publisher = amqpClient
		}
	}

	svc := services.NewLedgerService(repo, publisher)

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Service: svc,
		Users:   repo,
		Cleanup: svc.Close,
	}, nil
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	store, err := filestore.Open(config.LedgerFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}

	svc := services.NewLedgerService(store, nil)

	f.logger.Info("Initialized file backend", "path", config.LedgerFilePath)

	return &BackendResult{
		Service: svc,
		Users:   nil,
		Cleanup: svc.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(Config) (*BackendResult, error) {
	svc := services.NewLedgerService(memstore.New(), nil)

	f.logger.Info("Initialized memory backend")

	return &BackendResult{
		Service: svc,
		Users:   nil,
		Cleanup: nil,
	}, nil
}
