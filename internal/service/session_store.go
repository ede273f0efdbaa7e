package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"study-buddy/internal/cache"
	"study-buddy/internal/domain"
	"study-buddy/internal/logger"

	"go.uber.org/zap"
)

// SessionStore keeps quiz sessions between requests. Sessions are stored as
// snapshots, so a loaded session is never shared with another caller.
type SessionStore interface {
	// Load returns SESSION_NOT_FOUND when id is unknown or expired.
	Load(ctx context.Context, id string) (*domain.QuizSession, error)
	// Save creates or replaces the session and restarts its TTL.
	Save(ctx context.Context, id string, session *domain.QuizSession) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// NewSessionStore returns a cache-backed store, or an in-process store when
// cache is nil.
func NewSessionStore(c domain.Cache, ttl time.Duration) SessionStore {
	if c == nil {
		logger.Get().Warn("SessionStore initialized without cache. Sessions are kept in memory.")
		return NewMemorySessionStore(ttl)
	}
	return &cacheSessionStore{cache: c, ttl: ttl}
}

type cacheSessionStore struct {
	cache domain.Cache
	ttl   time.Duration
}

func (s *cacheSessionStore) Load(ctx context.Context, id string) (*domain.QuizSession, error) {
	key := cache.SessionKey(id)
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Debug("Session cache miss", zap.String("key", key))
			return nil, domain.NewSessionNotFoundError(id)
		}
		logger.Get().Error("Failed to get session from cache", zap.Error(err), zap.String("key", key))
		return nil, domain.NewInternalError(fmt.Sprintf("failed to get session from cache for key %s", key), err)
	}
	if data == "" {
		return nil, domain.NewSessionNotFoundError(id)
	}

	var snap domain.SessionSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		logger.Get().Error("Failed to unmarshal session from cache", zap.Error(err), zap.String("key", key))
		return nil, domain.NewInternalError(fmt.Sprintf("failed to unmarshal session for key %s", key), err)
	}
	return domain.RestoreSession(snap)
}

func (s *cacheSessionStore) Save(ctx context.Context, id string, session *domain.QuizSession) error {
	key := cache.SessionKey(id)
	data, err := json.Marshal(session.Snapshot())
	if err != nil {
		return domain.NewInternalError("failed to marshal session for caching", err)
	}
	if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
		logger.Get().Error("Failed to cache session", zap.Error(err), zap.String("key", key))
		return domain.NewInternalError(fmt.Sprintf("failed to set session to cache for key %s", key), err)
	}
	logger.Get().Debug("Cached session", zap.String("key", key), zap.Duration("ttl", s.ttl))
	return nil
}

func (s *cacheSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, cache.SessionKey(id)); err != nil {
		return domain.NewInternalError("failed to delete session from cache", err)
	}
	return nil
}

func (s *cacheSessionStore) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

type memoryEntry struct {
	snapshot  domain.SessionSnapshot
	expiresAt time.Time
}

// MemorySessionStore keeps snapshots in a map. Expired entries are dropped
// when they are next touched.
type MemorySessionStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemorySessionStore creates an in-process store. ttl <= 0 disables expiry.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemorySessionStore) Load(_ context.Context, id string) (*domain.QuizSession, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()

	if ok && s.expired(entry) {
		s.mu.Lock()
		// a Save may have landed since the read lock was released
		entry, ok = s.entries[id]
		if ok && s.expired(entry) {
			delete(s.entries, id)
			ok = false
		}
		s.mu.Unlock()
	}
	if !ok {
		return nil, domain.NewSessionNotFoundError(id)
	}
	return domain.RestoreSession(entry.snapshot)
}

func (s *MemorySessionStore) Save(_ context.Context, id string, session *domain.QuizSession) error {
	entry := memoryEntry{snapshot: session.Snapshot()}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[id] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Ping(context.Context) error {
	return nil
}

func (s *MemorySessionStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
