package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect captures the SQL and driver differences between the supported
// databases. Repositories write queries with ? placeholders and ask the
// dialect for the few statements that cannot be written portably.
type Dialect interface {
	// Name is the canonical DATABASE_TYPE value
	Name() string
	DriverName() string
	DSN(config DialectConfig) (string, error)

	// RewriteQuery adapts ? placeholders to the driver's syntax
	RewriteQuery(query string) string
	SupportsLastInsertId() bool
	ConfigureConnection(db *sql.DB) error

	MigrationsSubdir() string
	CreateMigrationsTableQuery() string

	// UpsertSettingQuery takes (key, value)
	UpsertSettingQuery() string
	// UpsertQuestProgressQuery takes (user_id, quest_id, last_completed_at) and
	// bumps times_completed on an existing row
	UpsertQuestProgressQuery() string
	// ResetSequenceQuery realigns a table's id generator after rows were
	// inserted with explicit ids. Empty when the database does it itself.
	ResetSequenceQuery(table string) string
}

// DialectConfig locates the database
type DialectConfig struct {
	Path string // sqlite file
	URL  string // postgres or mysql connection string
}

// dialectFor maps a DATABASE_TYPE value to its dialect
func dialectFor(kind string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "sqlite", "sqlite3", "":
		return NewSQLiteDialect(), nil
	case "postgres", "postgresql":
		return NewPostgresDialect(), nil
	case "mysql", "mariadb":
		return NewMySQLDialect(), nil
	}
	return nil, fmt.Errorf("unsupported database type: %s", kind)
}

// applyPoolLimits sets the pool sizing shared by every dialect
func applyPoolLimits(db *sql.DB) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}

// execAll runs session setup statements in order
func execAll(db *sql.DB, statements ...string) error {
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// onConflictUpdate builds an INSERT ... ON CONFLICT DO UPDATE statement, the
// upsert form shared by sqlite and postgres. Each set clause may refer to the
// proposed row as excluded.
func onConflictUpdate(insert string, target string, set ...string) string {
	return insert + " ON CONFLICT (" + target + ") DO UPDATE SET " + strings.Join(set, ", ")
}

const (
	insertSetting  = "INSERT INTO settings (setting_key, setting_value) VALUES (?, ?)"
	insertProgress = "INSERT INTO user_quest_progress (user_id, quest_id, status, times_completed, last_completed_at) " +
		"VALUES (?, ?, 'completed', 1, ?)"
)

// numberPlaceholders converts ? placeholders to $1, $2, ... leaving question
// marks inside single-quoted literals untouched
func numberPlaceholders(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	quoted := false
	for _, r := range query {
		switch {
		case r == '\'':
			quoted = !quoted
		case r == '?' && !quoted:
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
