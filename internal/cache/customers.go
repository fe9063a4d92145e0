package cache

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/retainflow/types"
)

// DefaultCustomerKeyPrefix 客户缓存键前缀
const DefaultCustomerKeyPrefix = "retainflow:customer:"

// CustomerStore is the store being cached.
type CustomerStore interface {
	LookupCustomer(ctx context.Context, email string) (*types.CustomerRecord, error)
	UpdateStatus(ctx context.Context, customerID, status string) error
}

// CustomerCache is a read-through cache in front of a CustomerStore.
// Only found records are cached; misses always reach the store.
type CustomerCache struct {
	next   CustomerStore
	m      *Manager
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewCustomerCache wraps next. ttl <= 0 defaults to 10 minutes.
func NewCustomerCache(next CustomerStore, m *Manager, ttl time.Duration, logger *zap.Logger) *CustomerCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerCache{
		next:   next,
		m:      m,
		ttl:    ttl,
		prefix: DefaultCustomerKeyPrefix,
		logger: logger.With(zap.String("component", "customer_cache")),
	}
}

func (c *CustomerCache) emailKey(email string) string {
	return c.prefix + "email:" + strings.ToLower(strings.TrimSpace(email))
}

func (c *CustomerCache) idKey(id string) string {
	return c.prefix + "id:" + id
}

// LookupCustomer serves from Redis when possible and fills it on a found record.
func (c *CustomerCache) LookupCustomer(ctx context.Context, email string) (*types.CustomerRecord, error) {
	key := c.emailKey(email)

	var cached types.CustomerRecord
	err := c.m.GetJSON(ctx, key, &cached)
	switch {
	case err == nil && cached.Found:
		return &cached, nil
	case err != nil && !IsCacheMiss(err):
		c.logger.Warn("customer cache read failed", zap.Error(err))
	}

	rec, err := c.next.LookupCustomer(ctx, email)
	if err != nil || rec == nil || !rec.Found {
		return rec, err
	}

	if err := c.m.SetJSON(ctx, key, rec, c.ttl); err != nil {
		c.logger.Warn("customer cache write failed", zap.Error(err))
		return rec, nil
	}
	if err := c.m.Set(ctx, c.idKey(rec.CustomerID), key, c.ttl); err != nil {
		c.logger.Warn("customer cache index write failed", zap.Error(err))
	}
	return rec, nil
}

// UpdateStatus updates the store and then drops the cached record.
func (c *CustomerCache) UpdateStatus(ctx context.Context, customerID, status string) error {
	if err := c.next.UpdateStatus(ctx, customerID, status); err != nil {
		return err
	}

	idKey := c.idKey(customerID)
	emailKey, err := c.m.Get(ctx, idKey)
	if err != nil {
		if !IsCacheMiss(err) {
			c.logger.Warn("customer cache index read failed", zap.Error(err))
		}
		return nil
	}
	if err := c.m.Delete(ctx, emailKey, idKey); err != nil {
		c.logger.Warn("customer cache invalidation failed",
			zap.String("customer_id", customerID), zap.Error(err))
	}
	return nil
}
