package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/retainflow/workflow"
)

const (
	defaultLockTTL = time.Minute
	lockRetryDelay = 50 * time.Millisecond
)

// 仅删除自己持有的锁
var unlockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisStore keeps states as JSON values with a sliding TTL.
type RedisStore struct {
	rdb       redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	lockTTL   time.Duration
	logger    *zap.Logger
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(rdb redis.UniversalClient, keyPrefix string, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if keyPrefix == "" {
		keyPrefix = "retainflow:conversation:"
	}
	return &RedisStore{
		rdb:       rdb,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		lockTTL:   defaultLockTTL,
		logger:    logger.With(zap.String("component", "session_redis")),
	}
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix + id
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) (workflow.ConversationState, error) {
	data, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return workflow.ConversationState{}, ErrNotFound
		}
		return workflow.ConversationState{}, fmt.Errorf("redis get: %w", err)
	}
	var state workflow.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return workflow.ConversationState{}, fmt.Errorf("unmarshal conversation: %w", err)
	}
	return state, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, state workflow.ConversationState) error {
	if state.ID == "" {
		return fmt.Errorf("conversation id is empty")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(state.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) lockKey(id string) string {
	return s.keyPrefix + id + ":lock"
}

// Lock implements Locker with SET NX PX, retrying until ctx is done. The lock
// expires after lockTTL if its holder never releases it.
func (s *RedisStore) Lock(ctx context.Context, id string) (func(), error) {
	key := s.lockKey(id)
	token := uuid.NewString()
	for {
		ok, err := s.rdb.SetNX(ctx, key, token, s.lockTTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("redis lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}

	return func() {
		if err := unlockScript.Run(context.WithoutCancel(ctx), s.rdb, []string{key}, token).Err(); err != nil {
			s.logger.Warn("failed to release conversation lock",
				zap.String("conversation_id", id), zap.Error(err))
		}
	}, nil
}
