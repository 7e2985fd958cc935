package database

import (
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQLDialect targets MySQL and MariaDB through go-sql-driver/mysql
type MySQLDialect struct{}

func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) Name() string       { return "mysql" }
func (d *MySQLDialect) DriverName() string { return "mysql" }

// DSN parses the connection string and forces parseTime, so DATETIME columns
// scan into time.Time, and clientFoundRows, so an UPDATE that changes nothing
// still reports the rows it matched
func (d *MySQLDialect) DSN(config DialectConfig) (string, error) {
	if config.URL == "" {
		return "", fmt.Errorf("mysql requires DATABASE_URL")
	}
	cfg, err := mysql.ParseDSN(config.URL)
	if err != nil {
		return "", fmt.Errorf("invalid mysql DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

func (d *MySQLDialect) RewriteQuery(query string) string { return query }
func (d *MySQLDialect) SupportsLastInsertId() bool        { return true }

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	applyPoolLimits(db)
	return execAll(db, "SET FOREIGN_KEY_CHECKS = 1")
}

func (d *MySQLDialect) MigrationsSubdir() string { return "mysql" }

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `CREATE TABLE IF NOT EXISTS migrations (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		filename VARCHAR(255) UNIQUE NOT NULL,
		executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
	)`
}

func (d *MySQLDialect) UpsertSettingQuery() string {
	return insertSetting + " ON DUPLICATE KEY UPDATE " +
		"setting_value = VALUES(setting_value), updated_at = CURRENT_TIMESTAMP(6)"
}

func (d *MySQLDialect) UpsertQuestProgressQuery() string {
	return insertProgress + " ON DUPLICATE KEY UPDATE " +
		"status = VALUES(status), times_completed = times_completed + 1, " +
		"last_completed_at = VALUES(last_completed_at), updated_at = CURRENT_TIMESTAMP(6)"
}

// ResetSequenceQuery is empty: AUTO_INCREMENT advances past explicit ids
func (d *MySQLDialect) ResetSequenceQuery(string) string { return "" }
