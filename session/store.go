package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/retainflow/config"
	"github.com/BaSui01/retainflow/workflow"
)

// ErrNotFound is returned for unknown or expired conversations.
var ErrNotFound = errors.New("conversation not found")

// Store persists conversation states.
type Store interface {
	Get(ctx context.Context, id string) (workflow.ConversationState, error)
	Save(ctx context.Context, state workflow.ConversationState) error
	Delete(ctx context.Context, id string) error
}

// Locker is implemented by stores that can lock a conversation across
// processes. Manager takes it in addition to its in-process lock.
type Locker interface {
	Lock(ctx context.Context, id string) (unlock func(), err error)
}

// NewStore builds the backend selected by cfg.Backend.
func NewStore(cfg config.SessionConfig, rdb redis.UniversalClient, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(cfg.TTL), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("session backend redis requires a redis client")
		}
		return NewRedisStore(rdb, cfg.KeyPrefix, cfg.TTL, logger), nil
	default:
		return nil, fmt.Errorf("unsupported session backend: %s", cfg.Backend)
	}
}

// =============================================================================
// 💾 内存存储
// =============================================================================

type memoryEntry struct {
	state     workflow.ConversationState
	expiresAt time.Time
}

// MemoryStore keeps states in process memory. ttl <= 0 disables expiry.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (workflow.ConversationState, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || s.expired(e) {
		return workflow.ConversationState{}, ErrNotFound
	}
	return e.state.Clone(), nil
}

// Save implements Store. Saving refreshes the TTL.
func (s *MemoryStore) Save(_ context.Context, state workflow.ConversationState) error {
	if state.ID == "" {
		return fmt.Errorf("conversation id is empty")
	}
	e := memoryEntry{state: state.Clone()}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[state.ID] = e
	s.mu.Unlock()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
