package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// DefaultSchemaName is the logical namespace all tables live under.
const DefaultSchemaName = "papita_transactions"

// Dialect identifies a supported SQL backend.
type Dialect string

const (
	// DialectPostgres is the networked relational engine.
	DialectPostgres Dialect = "postgres"
	// DialectSQLite is the locally embedded engine.
	DialectSQLite Dialect = "sqlite"
)

// Valid reports whether the dialect is one of the supported backends.
func (d Dialect) Valid() bool {
	return d == DialectPostgres || d == DialectSQLite
}

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
}

// AppConfig holds application-specific settings. IngestTolerance is the
// accepted fraction of failed rows in a bulk ingestion, 0 meaning none.
type AppConfig struct {
	Name            string
	Env             string
	IngestTolerance float64
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig is the connection descriptor for a storage target.
// Host/Port/User/Password apply to networked backends; Path applies to the
// embedded backend. SchemaName namespaces every table.
type DatabaseConfig struct {
	Dialect         Dialect
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string
	SchemaName      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with PAPITA_ prefix (e.g., PAPITA_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("PAPITA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:            v.GetString("app.name"),
			Env:             v.GetString("app.env"),
			IngestTolerance: v.GetFloat64("app.ingest_tolerance"),
		},
		Database: DatabaseConfig{
			Dialect:         Dialect(v.GetString("database.dialect")),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			SchemaName:      v.GetString("database.schema_name"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "papita-transactions"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	db := &cfg.Database
	if db.Dialect == "" {
		db.Dialect = DialectPostgres
	}
	if db.Host == "" {
		db.Host = "localhost"
	}
	if db.Port == 0 {
		db.Port = 5432
	}
	if db.User == "" {
		db.User = "postgres"
	}
	if db.DBName == "" {
		db.DBName = "papita"
	}
	if db.SSLMode == "" {
		db.SSLMode = "disable"
	}
	if db.Path == "" {
		db.Path = "papita_transactions.db"
	}
	if db.SchemaName == "" {
		db.SchemaName = DefaultSchemaName
	}
	if db.MaxOpenConns == 0 {
		db.MaxOpenConns = 25
	}
	if db.MaxIdleConns == 0 {
		db.MaxIdleConns = 5
	}
	if db.ConnMaxLifetime == 0 {
		db.ConnMaxLifetime = 30
	}
	if db.ConnMaxIdleTime == 0 {
		db.ConnMaxIdleTime = 10
	}
}

// Validate checks the configuration for unusable combinations.
func (c *Config) Validate() error {
	if !c.Database.Dialect.Valid() {
		return fmt.Errorf("unsupported database dialect %q", c.Database.Dialect)
	}
	if c.App.IngestTolerance < 0 || c.App.IngestTolerance > 1 {
		return fmt.Errorf("ingest tolerance %v outside [0, 1]", c.App.IngestTolerance)
	}
	if c.Database.Dialect == DialectSQLite && c.Database.Path == "" {
		return fmt.Errorf("database path is required for the %s dialect", DialectSQLite)
	}
	return nil
}

// DSN returns the connection string for the configured dialect with properly
// escaped values. For sqlite this is the database file path.
func (d *DatabaseConfig) DSN() string {
	if d.Dialect == DialectSQLite {
		return d.Path
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	if d.SchemaName != "" {
		// All tables resolve inside the configured schema namespace.
		q.Set("search_path", d.SchemaName)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Fingerprint returns a stable identity for the connection target. Two
// configs with the same fingerprint address the same store with the same
// credentials and pooling.
func (d *DatabaseConfig) Fingerprint() string {
	return fmt.Sprintf(
		"%s|%s|%s|%d|%d|%d|%d",
		d.Dialect, d.DSN(), d.SchemaName,
		d.MaxOpenConns, d.MaxIdleConns, d.ConnMaxLifetime, d.ConnMaxIdleTime,
	)
}
