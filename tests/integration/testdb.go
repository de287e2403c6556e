// Package integration runs the persistence engine against a real PostgreSQL
// server provisioned through testcontainers.
package integration

import (
	"context"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/papita/transactions/internal/infrastructure/config"
	"github.com/papita/transactions/internal/infrastructure/persistence"
	"github.com/papita/transactions/internal/infrastructure/persistence/models"
)

const (
	testDBName     = "papita_test"
	testDBUser     = "postgres"
	testDBPassword = "postgres"
)

// TestDB bundles a disposable PostgreSQL server with an established engine.
type TestDB struct {
	DB        *persistence.Database
	Connector *persistence.Connector
	Config    config.DatabaseConfig
}

// NewTestDB starts a fresh PostgreSQL container, establishes the engine
// against it and migrates the schema. Everything is torn down with the test.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(testDBName),
		tcpostgres.WithUsername(testDBUser),
		tcpostgres.WithPassword(testDBPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	cfg := databaseConfigFromDSN(t, dsn)

	conn := persistence.NewConnector()
	db, err := conn.Establish(&cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Teardown()
	})

	require.NoError(t, db.DB().AutoMigrate(models.All()...))

	return &TestDB{DB: db, Connector: conn, Config: cfg}
}

// databaseConfigFromDSN maps the container's connection string onto the
// engine's configuration shape, keeping the schema namespace in play.
func databaseConfigFromDSN(t *testing.T, dsn string) config.DatabaseConfig {
	t.Helper()

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	password, _ := u.User.Password()

	return config.DatabaseConfig{
		Dialect:    config.DialectPostgres,
		Host:       u.Hostname(),
		Port:       port,
		User:       u.User.Username(),
		Password:   password,
		DBName:     testDBName,
		SSLMode:    "disable",
		SchemaName: config.DefaultSchemaName,
	}
}
