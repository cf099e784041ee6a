package backend

import (
	"context"

	"budgetwatch/internal/monitor"
	"budgetwatch/internal/services"
)

// Backend is everything the services and the budget monitor need from
// storage.
type Backend interface {
	services.CategoryStore
	services.ExpenseStore
	monitor.CategoryRepository
	monitor.ExpenseRepository

	Ping(ctx context.Context) error
}

// CleanupFunc releases what a factory opened.
type CleanupFunc func() error

// BackendResult pairs a storage backend with its cleanup.
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// NotifierResult is the alert fan-out plus whatever needs closing on exit.
type NotifierResult struct {
	Notifier monitor.Notifier
	Backends []string
	Cleanup  CleanupFunc
}

// Factory builds storage and alert delivery from Config.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	CreateNotifier(ctx context.Context, config Config) (*NotifierResult, error)
}

// BackendType names a storage implementation (DATA_BACKEND).
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
