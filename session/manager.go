package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/retainflow/workflow"
)

// TurnFunc transforms a conversation state. A non-nil error discards the
// returned state.
type TurnFunc func(state workflow.ConversationState) (workflow.ConversationState, error)

// Manager serializes access to each conversation.
type Manager struct {
	store  Store
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*convLock
}

type convLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager wraps store.
func NewManager(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  store,
		logger: logger.With(zap.String("component", "session")),
		locks:  make(map[string]*convLock),
	}
}

// Create saves a freshly started conversation.
func (m *Manager) Create(ctx context.Context, state workflow.ConversationState) error {
	return m.store.Save(ctx, state)
}

// Get returns a snapshot of the conversation.
func (m *Manager) Get(ctx context.Context, id string) (workflow.ConversationState, error) {
	return m.store.Get(ctx, id)
}

// Delete removes the conversation.
func (m *Manager) Delete(ctx context.Context, id string) error {
	unlock, err := m.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()
	return m.store.Delete(ctx, id)
}

// WithConversation loads id, runs fn under the conversation's lock and saves
// the result when fn succeeds. It returns the state fn produced (or the
// loaded state when fn fails) together with fn's error.
func (m *Manager) WithConversation(ctx context.Context, id string, fn TurnFunc) (workflow.ConversationState, error) {
	unlock, err := m.lock(ctx, id)
	if err != nil {
		return workflow.ConversationState{}, err
	}
	defer unlock()

	state, err := m.store.Get(ctx, id)
	if err != nil {
		return workflow.ConversationState{}, err
	}
	next, err := fn(state)
	if err != nil {
		return state, err
	}
	if err := m.store.Save(ctx, next); err != nil {
		m.logger.Error("failed to save conversation", zap.String("conversation_id", id), zap.Error(err))
		return state, err
	}
	return next, nil
}

// lock acquires the per-conversation mutex and, when the store is a Locker,
// the shared lock, giving up when ctx is done.
func (m *Manager) lock(ctx context.Context, id string) (func(), error) {
	unlock, err := m.localLock(ctx, id)
	if err != nil {
		return nil, err
	}
	locker, ok := m.store.(Locker)
	if !ok {
		return unlock, nil
	}
	release, err := locker.Lock(ctx, id)
	if err != nil {
		unlock()
		return nil, err
	}
	return func() {
		release()
		unlock()
	}, nil
}

func (m *Manager) localLock(ctx context.Context, id string) (func(), error) {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &convLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	release := func() {
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}

	acquired := make(chan struct{})
	go func() {
		l.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return func() {
			l.mu.Unlock()
			release()
		}, nil
	case <-ctx.Done():
		// 后台 goroutine 最终拿到锁后立即释放
		go func() {
			<-acquired
			l.mu.Unlock()
			release()
		}()
		return nil, ctx.Err()
	}
}
