package persistence

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/papita/transactions/internal/infrastructure/config"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

// newDryRunPostgres builds a postgres-dialect GORM handle over a mocked
// connection so statement generation can be inspected without a server.
func newDryRunPostgres(t *testing.T) *gorm.DB {
	t.Helper()

	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db
}

func TestConflictClauseSQLUpdate(t *testing.T) {
	db := newDryRunPostgres(t)
	u, err := NewUpserter(config.DialectPostgres)
	require.NoError(t, err)

	var probe models.Type
	rows := []models.Type{newTestType("cash")}
	stmt := db.Clauses(
		u.conflictClause(ConflictUpdate, probe.PrimaryKeyColumns(), probe.UpdatableColumns()),
	).Create(&rows).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, `INSERT INTO "types"`)
	assert.Contains(t, sql, `ON CONFLICT ("id") DO UPDATE SET`)
	assert.Contains(t, sql, `"name"=`)
	assert.Contains(t, sql, `"discriminator"=`)
	assert.NotContains(t, sql, `"created_at"=`, "creation timestamp must survive an overwrite")
}

func TestConflictClauseSQLNothing(t *testing.T) {
	db := newDryRunPostgres(t)
	u, err := NewUpserter(config.DialectPostgres)
	require.NoError(t, err)

	var probe models.Type
	rows := []models.Type{newTestType("cash")}
	stmt := db.Clauses(
		u.conflictClause(ConflictNothing, probe.PrimaryKeyColumns(), nil),
	).Create(&rows).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, `ON CONFLICT ("id") DO NOTHING`)
}

func TestConflictClauseSQLNaturalKeyTarget(t *testing.T) {
	db := newDryRunPostgres(t)
	u, err := NewUpserter(config.DialectPostgres)
	require.NoError(t, err)

	var probe models.Type
	row := newTestType("cash")
	stmt := db.Clauses(
		u.conflictClause(ConflictNothing, probe.NaturalKeyColumns(), nil),
	).Create(&row).Statement

	assert.Contains(t, stmt.SQL.String(), `ON CONFLICT ("name") DO NOTHING`)
}
