package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/BaSui01/retainflow/types"
)

// MockCustomerStore 是客户存储的内存模拟，按邮箱（不区分大小写）查找
type MockCustomerStore struct {
	mu        sync.Mutex
	customers map[string]types.CustomerRecord
	lookupErr error
	statusErr error
	lookups   []string
	statuses  map[string]string
}

// NewMockCustomerStore 创建客户存储模拟
func NewMockCustomerStore(records ...types.CustomerRecord) *MockCustomerStore {
	s := &MockCustomerStore{customers: map[string]types.CustomerRecord{}, statuses: map[string]string{}}
	for _, r := range records {
		s.WithCustomer(r)
	}
	return s
}

// WithCustomer 添加客户记录
func (s *MockCustomerStore) WithCustomer(r types.CustomerRecord) *MockCustomerStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Found = true
	s.customers[strings.ToLower(r.Email)] = r
	return s
}

// WithLookupError 设置查找错误
func (s *MockCustomerStore) WithLookupError(err error) *MockCustomerStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookupErr = err
	return s
}

// WithStatusError 设置状态更新错误
func (s *MockCustomerStore) WithStatusError(err error) *MockCustomerStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusErr = err
	return s
}

func (s *MockCustomerStore) LookupCustomer(ctx context.Context, email string) (*types.CustomerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups = append(s.lookups, email)
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, ok := s.customers[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return &types.CustomerRecord{Found: false}, nil
	}
	return &r, nil
}

func (s *MockCustomerStore) UpdateStatus(_ context.Context, customerID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusErr != nil {
		return s.statusErr
	}
	s.statuses[customerID] = status
	return nil
}

// Lookups 返回查找过的邮箱
func (s *MockCustomerStore) Lookups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lookups...)
}

// Status 返回客户最后被设置的状态
func (s *MockCustomerStore) Status(customerID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[customerID]
}

// MockAuditSink 记录追加的审计条目
type MockAuditSink struct {
	mu      sync.Mutex
	entries []types.AuditEntry
	err     error
}

func NewMockAuditSink() *MockAuditSink { return &MockAuditSink{} }

// WithError 设置追加错误
func (a *MockAuditSink) WithError(err error) *MockAuditSink {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
	return a
}

func (a *MockAuditSink) Append(_ context.Context, e types.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, e)
	return nil
}

// Entries 返回已追加的条目
func (a *MockAuditSink) Entries() []types.AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]types.AuditEntry(nil), a.entries...)
}
