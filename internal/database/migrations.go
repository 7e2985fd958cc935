package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RunMigrations applies the pending *.sql files under
// <migrationsPath>/<dialect subdir> in file name order. Each file runs in its
// own transaction together with its row in the migrations table.
func (db *DB) RunMigrations(migrationsPath string) error {
	if _, err := db.Exec(db.Dialect.CreateMigrationsTableQuery()); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	dir := filepath.Join(migrationsPath, db.Dialect.MigrationsSubdir())
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to list migrations in %s: %w", dir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no migration files found in %s", dir)
	}
	sort.Strings(files)

	applied, err := db.appliedMigrations()
	if err != nil {
		return err
	}

	for _, file := range files {
		name := filepath.Base(file)
		if applied[name] {
			continue
		}

		script, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if err := db.applyMigration(name, string(script)); err != nil {
			return fmt.Errorf("migration %s failed: %w", name, err)
		}
		log.Printf("Migration completed: %s", name)
	}

	return nil
}

func (db *DB) appliedMigrations() (map[string]bool, error) {
	var names []string
	if err := db.Select(&names, "SELECT filename FROM migrations"); err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	applied := make(map[string]bool, len(names))
	for _, name := range names {
		applied[name] = true
	}
	return applied, nil
}

// applyMigration executes a script one statement at a time, since the MySQL
// driver rejects multi-statement Exec calls
func (db *DB) applyMigration(name, script string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(script) {
		if _, err := tx.ExecRaw(stmt); err != nil {
			return fmt.Errorf("%w (statement: %s)", err, firstLine(stmt))
		}
	}
	if _, err := tx.Exec("INSERT INTO migrations (filename) VALUES (?)", name); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}

// splitStatements breaks a script on semicolons outside single-quoted
// literals. Whole-line "--" comments are dropped.
func splitStatements(script string) []string {
	var (
		statements []string
		current    strings.Builder
		quoted     bool
	)
	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for _, line := range strings.Split(script, "\n") {
		if !quoted && strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		for _, r := range line {
			switch {
			case r == '\'':
				quoted = !quoted
			case r == ';' && !quoted:
				flush()
				continue
			}
			current.WriteRune(r)
		}
		current.WriteByte('\n')
	}
	flush()

	return statements
}

func firstLine(stmt string) string {
	line, _, _ := strings.Cut(stmt, "\n")
	return line
}
