package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresDialect targets PostgreSQL through lib/pq
type PostgresDialect struct{}

func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "postgres" }

func (d *PostgresDialect) DSN(config DialectConfig) (string, error) {
	if config.URL == "" {
		return "", fmt.Errorf("postgres requires DATABASE_URL")
	}
	return config.URL, nil
}

func (d *PostgresDialect) RewriteQuery(query string) string { return numberPlaceholders(query) }

// SupportsLastInsertId is false: inserts get a RETURNING id clause instead
func (d *PostgresDialect) SupportsLastInsertId() bool { return false }

func (d *PostgresDialect) ConfigureConnection(db *sql.DB) error {
	applyPoolLimits(db)
	return nil
}

func (d *PostgresDialect) MigrationsSubdir() string { return "postgres" }

func (d *PostgresDialect) CreateMigrationsTableQuery() string {
	return `CREATE TABLE IF NOT EXISTS migrations (
		id BIGSERIAL PRIMARY KEY,
		filename TEXT UNIQUE NOT NULL,
		executed_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`
}

func (d *PostgresDialect) UpsertSettingQuery() string {
	return onConflictUpdate(insertSetting, "setting_key",
		"setting_value = EXCLUDED.setting_value",
		"updated_at = CURRENT_TIMESTAMP")
}

func (d *PostgresDialect) UpsertQuestProgressQuery() string {
	return onConflictUpdate(insertProgress, "user_id, quest_id",
		"status = EXCLUDED.status",
		"times_completed = user_quest_progress.times_completed + 1",
		"last_completed_at = EXCLUDED.last_completed_at",
		"updated_at = CURRENT_TIMESTAMP")
}

// ResetSequenceQuery moves the serial sequence to one past the largest id
func (d *PostgresDialect) ResetSequenceQuery(table string) string {
	return fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)",
		table,
	)
}
