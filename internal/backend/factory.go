package backend

import (
	"context"
	"fmt"

	"fintrack/internal/log"
	"fintrack/internal/session"
	"fintrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.WithComponent(log.ComponentBackend)
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateSessionStore implements Factory.CreateSessionStore
func (f *DefaultFactory) CreateSessionStore(ctx context.Context, config Config) (*SessionResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteStore(ctx, config)
	case MemoryBackend:
		return f.createMemoryStore(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteStore(ctx context.Context, config Config) (*SessionResult, error) {
	repo, err := storage.NewSessionRepository(config.SQLiteDBPath, config.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite session store: %w", err)
	}
	if _, err := repo.PurgeExpired(ctx); err != nil {
		f.logger.WarnContext(ctx, "Failed to purge expired sessions", log.FieldError, err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite session store",
		log.FieldPath, config.SQLiteDBPath,
		"ttl", config.TTL.String())

	return &SessionResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryStore(ctx context.Context, config Config) (*SessionResult, error) {
	store := session.NewMemoryStore(config.TTL)

	f.logger.InfoContext(ctx, "Initialized memory session store", "ttl", config.TTL.String())

	return &SessionResult{
		Store:   store,
		Cleanup: nil, // No cleanup needed for memory store
	}, nil
}
