package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/papita/transactions/internal/domain/shared"
	"github.com/papita/transactions/internal/infrastructure/config"
	"github.com/papita/transactions/internal/infrastructure/logger"
)

// Database holds one live GORM connection pool for a configured target.
// Handles are created through a Connector and shared by explicit reference.
type Database struct {
	db      *gorm.DB
	dialect config.Dialect
	schema  string
	log     *zap.Logger
}

// Connector owns at most one Database handle per process. Establish is
// idempotent for identical configuration; a differing configuration fails
// until Teardown has released the current handle.
type Connector struct {
	mu          sync.Mutex
	db          *Database
	fingerprint string
}

// NewConnector creates an empty connector.
func NewConnector() *Connector {
	return &Connector{}
}

// Establish opens a connection pool for cfg, or returns the existing handle
// when cfg matches the one already established.
func (c *Connector) Establish(cfg *config.DatabaseConfig, log *zap.Logger) (*Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fp := cfg.Fingerprint()
	if c.db != nil {
		if c.fingerprint == fp {
			return c.db, nil
		}
		return nil, shared.NewConnectionError(
			"establish",
			fmt.Errorf("a different target is already established; teardown first"),
		)
	}

	db, err := open(cfg, log)
	if err != nil {
		return nil, err
	}

	c.db = db
	c.fingerprint = fp
	return db, nil
}

// Teardown closes the current handle, if any, and allows a fresh Establish.
func (c *Connector) Teardown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	c.fingerprint = ""
	return err
}

func open(cfg *config.DatabaseConfig, log *zap.Logger) (*Database, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Dialect.Valid() {
		return nil, shared.NewConnectionError("open", fmt.Errorf("unsupported dialect %q", cfg.Dialect))
	}

	gormCfg := &gorm.Config{
		Logger:                 logger.NewGormLogger(log, gormlogger.Warn),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	}

	var dialector gorm.Dialector
	switch cfg.Dialect {
	case config.DialectPostgres:
		dialector = postgres.Open(cfg.DSN())
	case config.DialectSQLite:
		dialector = sqlite.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, shared.NewConnectionError("open", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, shared.NewConnectionError("open", err)
	}

	maxOpen := cfg.MaxOpenConns
	maxIdle := cfg.MaxIdleConns
	if cfg.Dialect == config.DialectSQLite && cfg.Path == ":memory:" {
		// An in-memory sqlite database exists per connection; more than one
		// pooled connection would each see an empty store, and the single
		// connection must stay idle in the pool or closing it drops the data.
		maxOpen = 1
		maxIdle = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, shared.NewConnectionError("ping", err)
	}

	if cfg.Dialect == config.DialectPostgres && cfg.SchemaName != "" {
		// The DSN pins search_path to the schema namespace; make sure it
		// exists before anything resolves against it. Table migration itself
		// belongs to external tooling.
		stmt := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", cfg.SchemaName)
		if err := db.Exec(stmt).Error; err != nil {
			return nil, shared.NewConnectionError("ensure schema", err)
		}
	}

	return &Database{
		db:      db,
		dialect: cfg.Dialect,
		schema:  cfg.SchemaName,
		log:     log.Named("persistence"),
	}, nil
}

// Dialect returns the backend dialect of the handle.
func (d *Database) Dialect() config.Dialect {
	return d.dialect
}

// SchemaName returns the logical namespace all tables live under.
func (d *Database) SchemaName() string {
	return d.schema
}

// DB exposes the underlying GORM handle for query construction.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Session runs fn inside one transaction scoped to ctx. The transaction
// commits when fn returns nil and rolls back on error or panic, so every
// exit path releases the connection. Context expiry surfaces as a
// TimeoutError with the transaction rolled back.
func (d *Database) Session(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := d.db.WithContext(ctx).Transaction(fn)
	return d.classify(ctx, "session", err)
}

// classify maps driver and context failures onto the domain error taxonomy.
// Errors already typed pass through untouched.
func (d *Database) classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		timeoutErr   *shared.TimeoutError
		conflictErr  *shared.ConflictError
		refErr       *shared.ReferentialIntegrityError
		connErr      *shared.ConnectionError
		toleranceErr *shared.ToleranceExceededError
	)
	if errors.As(err, &timeoutErr) || errors.As(err, &conflictErr) ||
		errors.As(err, &refErr) || errors.As(err, &connErr) || errors.As(err, &toleranceErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &shared.TimeoutError{Op: op, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &shared.TimeoutError{Op: op, Err: err}
	}
	return err
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return shared.NewConnectionError("ping", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return shared.NewConnectionError("ping", err)
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return shared.NewConnectionError("close", err)
	}
	return sqlDB.Close()
}

// Stats returns database connection pool statistics
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.db.DB()
	if err != nil {
		return ConnectionStats{}, shared.NewConnectionError("stats", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}
