package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/papita/transactions/internal/infrastructure/config"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

// newTestDatabase opens an in-memory store with the full schema migrated.
func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Dialect:    config.DialectSQLite,
		Path:       ":memory:",
		SchemaName: config.DefaultSchemaName,
	}
	conn := NewConnector()
	db, err := conn.Establish(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, conn.Teardown())
	})

	require.NoError(t, db.DB().AutoMigrate(models.All()...))
	return db
}

func newTestType(name string) models.Type {
	return models.Type{
		BaseModel: models.BaseModel{
			ID:     uuid.New(),
			Active: true,
		},
		Name:          name,
		Tags:          models.StringList{"test"},
		Description:   "test type " + name,
		Discriminator: "assets",
	}
}

func newTestAccount(name string) models.Account {
	return models.Account{
		BaseModel: models.BaseModel{
			ID:     uuid.New(),
			Active: true,
		},
		Name:        name,
		Description: "test account " + name,
		Tags:        models.StringList{"test"},
		StartTs:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
