package session

import (
	"context"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

// Store keeps sessions by chat id. Get on an unknown chat returns an idle
// session and no error.
type Store interface {
	Get(ctx context.Context, chatID int64) (Session, error)
	Set(ctx context.Context, chatID int64, s Session) error
	Clear(ctx context.Context, chatID int64) error
}

// MemoryStore is an in-process Store. Sessions untouched for ttl expire;
// ttl <= 0 keeps them forever.
type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	cleanup := ttl
	if ttl <= 0 {
		ttl, cleanup = cache.NoExpiration, 0
	}
	return &MemoryStore{c: cache.New(ttl, cleanup)}
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func (m *MemoryStore) Get(_ context.Context, chatID int64) (Session, error) {
	if v, ok := m.c.Get(chatKey(chatID)); ok {
		return v.(Session), nil
	}
	return IdleSession(), nil
}

// Set stores s. Idle sessions are dropped instead of stored.
func (m *MemoryStore) Set(_ context.Context, chatID int64, s Session) error {
	if s.State == Idle {
		m.c.Delete(chatKey(chatID))
		return nil
	}
	m.c.Set(chatKey(chatID), s, cache.DefaultExpiration)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, chatID int64) error {
	m.c.Delete(chatKey(chatID))
	return nil
}

// Len reports the number of non-idle sessions held.
func (m *MemoryStore) Len() int {
	return m.c.ItemCount()
}
