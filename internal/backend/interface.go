package backend

import (
	"context"
	"time"

	"fintrack/internal/session"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// SessionResult contains the store instance and optional cleanup function
type SessionResult struct {
	Store   session.Store
	Cleanup CleanupFunc
}

// Factory creates session stores based on configuration
type Factory interface {
	CreateSessionStore(ctx context.Context, config Config) (*SessionResult, error)
}

// Config holds configuration for store creation
type Config struct {
	Type BackendType
	TTL  time.Duration

	// SQLite specific
	SQLiteDBPath string
}

// BackendType represents the type of session backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
