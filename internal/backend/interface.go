package backend

import (
	"context"

	"rentroll/internal/alerts"
	"rentroll/internal/records"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the store and optional cleanup function
type Result struct {
	Store   records.Store
	Cleanup CleanupFunc
	// Ping reports backend readiness; nil for backends that are always ready.
	Ping func(ctx context.Context) error
}

// Factory creates stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific
	SeedFile  string
	WatchSeed bool
	// OnReload runs after the watched seed file was reloaded.
	OnReload func()

	// DefaultSettings are returned until alert settings are saved.
	DefaultSettings alerts.Settings
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
