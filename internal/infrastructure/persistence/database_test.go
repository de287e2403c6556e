package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/papita/transactions/internal/domain/shared"
	"github.com/papita/transactions/internal/infrastructure/config"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

func TestConnectorEstablishIsIdempotent(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Dialect: config.DialectSQLite,
		Path:    ":memory:",
	}
	conn := NewConnector()
	t.Cleanup(func() { _ = conn.Teardown() })

	first, err := conn.Establish(cfg, zap.NewNop())
	require.NoError(t, err)
	second, err := conn.Establish(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestConnectorRejectsTargetSwitchWithoutTeardown(t *testing.T) {
	conn := NewConnector()
	t.Cleanup(func() { _ = conn.Teardown() })

	_, err := conn.Establish(&config.DatabaseConfig{
		Dialect: config.DialectSQLite,
		Path:    ":memory:",
	}, zap.NewNop())
	require.NoError(t, err)

	other := &config.DatabaseConfig{
		Dialect: config.DialectSQLite,
		Path:    t.TempDir() + "/other.db",
	}
	_, err = conn.Establish(other, zap.NewNop())
	var connErr *shared.ConnectionError
	require.ErrorAs(t, err, &connErr)

	// After teardown the new target becomes reachable.
	require.NoError(t, conn.Teardown())
	db, err := conn.Establish(other, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, db.Ping())
}

func TestConnectorTeardownWithoutEstablish(t *testing.T) {
	conn := NewConnector()
	assert.NoError(t, conn.Teardown())
}

func TestSessionCommitsOnSuccess(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	err := db.Session(ctx, func(tx *gorm.DB) error {
		row := newTestType("cash")
		return tx.Create(&row).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.DB().Model(&models.Type{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSessionRollsBackOnError(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.Session(ctx, func(tx *gorm.DB) error {
		row := newTestType("cash")
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.DB().Model(&models.Type{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSessionReportsDeadlineAsTimeout(t *testing.T) {
	db := newTestDatabase(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := db.Session(ctx, func(tx *gorm.DB) error {
		row := newTestType("cash")
		return tx.Create(&row).Error
	})

	var timeoutErr *shared.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)

	var count int64
	require.NoError(t, db.DB().Model(&models.Type{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMemoryDatabaseSurvivesPoolChurn(t *testing.T) {
	// A zero-value pool config must not let the single in-memory connection
	// be closed between statements, which would drop every table.
	db := newTestDatabase(t)
	ctx := context.Background()

	err := db.Session(ctx, func(tx *gorm.DB) error {
		row := newTestType("cash")
		return tx.Create(&row).Error
	})
	require.NoError(t, err)

	var count int64
	err = db.Session(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.Type{}).Count(&count).Error
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 1)
}

func TestDatabaseStats(t *testing.T) {
	db := newTestDatabase(t)

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}
