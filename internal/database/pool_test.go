package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BaSui01/retainflow/config"
)

func setupTestDB(t *testing.T) (sqlmock.Sqlmock, *gorm.DB) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return mock, gormDB
}

func TestDialector(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql", "sqlite"} {
		d, err := Dialector(config.DatabaseConfig{Driver: driver, Name: "x"})
		require.NoError(t, err, driver)
		assert.Equal(t, driver, d.Name())
	}

	_, err := Dialector(config.DatabaseConfig{})
	assert.ErrorContains(t, err, "not configured")
	_, err = Dialector(config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported")
}

func TestOpen_SQLiteMemory(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"}, zap.NewNop())
	require.NoError(t, err)

	pm, err := NewPoolManager(db, PoolConfig{MaxOpenConns: 1}, nil)
	require.NoError(t, err)
	assert.NoError(t, pm.Ping(context.Background()))
	assert.Equal(t, 1, pm.Stats().MaxOpenConnections)
	require.NoError(t, pm.Close())
	assert.NoError(t, pm.Close())
	assert.Error(t, pm.Ping(context.Background()))
}

func TestNewPoolManager_NilDB(t *testing.T) {
	_, err := NewPoolManager(nil, PoolConfig{}, nil)
	assert.Error(t, err)
}

func TestPoolManager_Ping(t *testing.T) {
	mock, gormDB := setupTestDB(t)
	pm, err := NewPoolManager(gormDB, PoolConfigFrom(config.DefaultDatabaseConfig()), zap.NewNop())
	require.NoError(t, err)

	mock.ExpectPing()
	assert.NoError(t, pm.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(sql.ErrConnDone)
	assert.Error(t, pm.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolManager_WithTransaction(t *testing.T) {
	mock, gormDB := setupTestDB(t)
	pm, err := NewPoolManager(gormDB, PoolConfig{}, nil)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	assert.NoError(t, pm.WithTransaction(context.Background(), func(*gorm.DB) error { return nil }))

	mock.ExpectBegin()
	mock.ExpectRollback()
	boom := errors.New("boom")
	assert.ErrorIs(t, pm.WithTransaction(context.Background(), func(*gorm.DB) error { return boom }), boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolManager_WithTransactionRetry(t *testing.T) {
	mock, gormDB := setupTestDB(t)
	pm, err := NewPoolManager(gormDB, PoolConfig{}, nil)
	require.NoError(t, err)

	attempts := 0
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()
	err = pm.WithTransactionRetry(context.Background(), 3, func(*gorm.DB) error {
		attempts++
		if attempts == 1 {
			return errors.New("ERROR: deadlock detected")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	attempts = 0
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = pm.WithTransactionRetry(context.Background(), 3, func(*gorm.DB) error {
		attempts++
		return errors.New("syntax error")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.True(t, IsRetryableError(errors.New("pq: could not serialize access (SQLSTATE 40001)")))
	assert.True(t, IsRetryableError(errors.New("database is locked")))
	assert.False(t, IsRetryableError(errors.New("unique constraint")))
}
