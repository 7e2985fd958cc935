package database

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDialect targets a local database file through mattn/go-sqlite3
type SQLiteDialect struct{}

func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite3" }

// DSN turns on foreign keys and a busy timeout for every pooled connection,
// and makes transactions take the write lock up front so writers queue
// instead of failing with SQLITE_BUSY. A path that already carries options
// is used as is.
func (d *SQLiteDialect) DSN(config DialectConfig) (string, error) {
	if strings.Contains(config.Path, "?") {
		return config.Path, nil
	}
	return config.Path + "?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", nil
}

func (d *SQLiteDialect) RewriteQuery(query string) string { return query }
func (d *SQLiteDialect) SupportsLastInsertId() bool        { return true }

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	applyPoolLimits(db)
	return execAll(db, "PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON")
}

func (d *SQLiteDialect) MigrationsSubdir() string { return "sqlite" }

func (d *SQLiteDialect) CreateMigrationsTableQuery() string {
	return `CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT UNIQUE NOT NULL,
		executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
}

func (d *SQLiteDialect) UpsertSettingQuery() string {
	return onConflictUpdate(insertSetting, "setting_key",
		"setting_value = excluded.setting_value",
		"updated_at = CURRENT_TIMESTAMP")
}

func (d *SQLiteDialect) UpsertQuestProgressQuery() string {
	return onConflictUpdate(insertProgress, "user_id, quest_id",
		"status = excluded.status",
		"times_completed = user_quest_progress.times_completed + 1",
		"last_completed_at = excluded.last_completed_at",
		"updated_at = CURRENT_TIMESTAMP")
}

// ResetSequenceQuery is empty: AUTOINCREMENT continues past the largest id
func (d *SQLiteDialect) ResetSequenceQuery(string) string { return "" }
