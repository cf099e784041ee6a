package backend

import (
	"context"
	"errors"
	"fmt"

	"budgetwatch/internal/amqp"
	"budgetwatch/internal/log"
	"budgetwatch/internal/notify"
	gsheet "budgetwatch/internal/sheets/google"
	"budgetwatch/internal/storage"
	"budgetwatch/internal/storage/memory"
)

// DefaultFactory is the production Factory.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default(log.ComponentApp)
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the storage selected by config.Type.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store, err := memory.NewFromFiles(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	return &BackendResult{
		Backend: store,
		Cleanup: store.Close,
	}, nil
}

// CreateNotifier builds the alert fan-out from config.Notifiers. The log
// notifier is always present so alerts are never silently dropped. A remote
// backend that fails to initialize is skipped with a warning.
func (f *DefaultFactory) CreateNotifier(ctx context.Context, config Config) (*NotifierResult, error) {
	notifiers := []notify.Notifier{notify.NewLogNotifier(f.logger)}
	names := []string{notify.BackendLog}
	var closers []CleanupFunc

	for _, name := range config.Notifiers {
		switch name {
		case notify.BackendLog:
		case notify.BackendAMQP:
			client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
			if err != nil {
				f.logger.Warn("Failed to initialize AMQP client, continuing without it", log.FieldBackend, name, "error", err)
				continue
			}
			f.logger.Info("Initialized AMQP alert publisher",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			notifiers = append(notifiers, notify.NewAMQPNotifier(client))
			names = append(names, name)
			closers = append(closers, client.Close)
		case notify.BackendSheets:
			client, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleAlertsSheetName, f.logger)
			if err != nil {
				f.logger.Warn("Failed to initialize Google Sheets client, continuing without it", log.FieldBackend, name, "error", err)
				continue
			}
			f.logger.Info("Initialized Google Sheets alert log", "spreadsheet_id", config.GoogleSpreadsheetID)
			notifiers = append(notifiers, notify.NewSheetsNotifier(client))
			names = append(names, name)
		default:
			return nil, fmt.Errorf("unknown notifier: %s", name)
		}
	}

	cleanup := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	return &NotifierResult{
		Notifier: notify.NewMulti(notifiers...),
		Backends: names,
		Cleanup:  cleanup,
	}, nil
}
