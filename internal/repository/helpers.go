package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by updates and deletes that matched no row
var ErrNotFound = errors.New("not found")

func expectOneRow(result sql.Result, entity string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read %s update: %w", entity, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %w", entity, ErrNotFound)
	}
	return nil
}

func utcPtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// likeEscaper neutralises LIKE wildcards for patterns written with ESCAPE '!'.
// '!' works as the escape character on sqlite, postgres and mysql alike.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
