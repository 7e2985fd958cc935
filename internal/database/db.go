package database

import (
	"fmt"

	"actuarialhub/internal/config"

	"github.com/jmoiron/sqlx"
)

// DB is the application's connection pool together with the dialect used
// to talk to it
type DB struct {
	*sqlx.DB
	Dialect Dialect
}

// Initialize opens a SQLite database file. Tests and the backup tool use it
// directly.
func Initialize(dbPath string) (*DB, error) {
	return Open(NewSQLiteDialect(), DialectConfig{Path: dbPath})
}

// InitializeWithConfig opens the database selected by DATABASE_TYPE
func InitializeWithConfig(cfg *config.Config) (*DB, error) {
	dialect, err := dialectFor(cfg.DatabaseType)
	if err != nil {
		return nil, err
	}
	return Open(dialect, DialectConfig{Path: cfg.DatabasePath, URL: cfg.DatabaseURL})
}

// Open connects with the given dialect, verifies the connection and applies
// the dialect's session settings
func Open(dialect Dialect, target DialectConfig) (*DB, error) {
	dsn, err := dialect.DSN(target)
	if err != nil {
		return nil, err
	}

	conn, err := sqlx.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect.Name(), err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", dialect.Name(), err)
	}
	if err := dialect.ConfigureConnection(conn.DB); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to configure %s connection: %w", dialect.Name(), err)
	}

	return &DB{DB: conn, Dialect: dialect}, nil
}
