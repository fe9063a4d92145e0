package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/retainflow/testutil/fixtures"
	"github.com/BaSui01/retainflow/testutil/mocks"
	"github.com/BaSui01/retainflow/types"
)

func TestCustomerCache_ReadThrough(t *testing.T) {
	_, m := setupTestRedis(t)
	store := mocks.NewMockCustomerStore(fixtures.Sarah())
	c := NewCustomerCache(store, m, time.Minute, nil)
	ctx := context.Background()

	rec, err := c.LookupCustomer(ctx, "Sarah.J@email.com")
	require.NoError(t, err)
	assert.Equal(t, "CUST_001", rec.CustomerID)

	rec, err = c.LookupCustomer(ctx, " sarah.j@email.com ")
	require.NoError(t, err)
	assert.Equal(t, "Sarah Johnson", rec.Name)
	assert.Len(t, store.Lookups(), 1, "second lookup served from redis")
}

func TestCustomerCache_MissesAreNotCached(t *testing.T) {
	_, m := setupTestRedis(t)
	store := mocks.NewMockCustomerStore()
	c := NewCustomerCache(store, m, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		rec, err := c.LookupCustomer(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.False(t, rec.Found)
	}
	assert.Len(t, store.Lookups(), 2)
}

func TestCustomerCache_StoreErrorPropagates(t *testing.T) {
	_, m := setupTestRedis(t)
	boom := errors.New("db down")
	c := NewCustomerCache(mocks.NewMockCustomerStore().WithLookupError(boom), m, 0, nil)

	_, err := c.LookupCustomer(context.Background(), "a@b.com")
	assert.ErrorIs(t, err, boom)
}

func TestCustomerCache_UpdateStatusInvalidates(t *testing.T) {
	mr, m := setupTestRedis(t)
	store := mocks.NewMockCustomerStore(fixtures.Sarah())
	c := NewCustomerCache(store, m, time.Minute, nil)
	ctx := context.Background()

	_, err := c.LookupCustomer(ctx, "sarah.j@email.com")
	require.NoError(t, err)
	assert.True(t, mr.Exists(c.emailKey("sarah.j@email.com")))

	require.NoError(t, c.UpdateStatus(ctx, "CUST_001", types.StatusCancelled))
	assert.Equal(t, types.StatusCancelled, store.Status("CUST_001"))
	assert.False(t, mr.Exists(c.emailKey("sarah.j@email.com")))
	assert.False(t, mr.Exists(c.idKey("CUST_001")))

	_, err = c.LookupCustomer(ctx, "sarah.j@email.com")
	require.NoError(t, err)
	assert.Len(t, store.Lookups(), 2)
}

func TestCustomerCache_UpdateStatusError(t *testing.T) {
	_, m := setupTestRedis(t)
	boom := errors.New("write failed")
	c := NewCustomerCache(mocks.NewMockCustomerStore().WithStatusError(boom), m, time.Minute, nil)

	assert.ErrorIs(t, c.UpdateStatus(context.Background(), "CUST_001", types.StatusPaused), boom)
	assert.NoError(t, NewCustomerCache(mocks.NewMockCustomerStore(), m, time.Minute, nil).
		UpdateStatus(context.Background(), "CUST_404", types.StatusPaused))
}

func TestCustomerCache_RedisDownFallsThrough(t *testing.T) {
	mr, m := setupTestRedis(t)
	store := mocks.NewMockCustomerStore(fixtures.Sarah())
	c := NewCustomerCache(store, m, time.Minute, nil)
	mr.Close()

	rec, err := c.LookupCustomer(context.Background(), "sarah.j@email.com")
	require.NoError(t, err)
	assert.True(t, rec.Found)
}
