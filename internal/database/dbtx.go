package database

import (
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
)

// DBTX is what repositories run queries against. *DB and *Tx both satisfy
// it, so a repository bound to the pool can be rebound to a transaction.
type DBTX interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	ExecReturningID(query string, args ...interface{}) (int64, error)
	GetDialect() Dialect
}

// executor is the query surface shared by *sqlx.DB and *sqlx.Tx
type executor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
}

// binding runs ? placeholder queries through the dialect before handing them
// to the pool or transaction underneath
type binding struct {
	ex      executor
	dialect Dialect
}

func (b binding) Exec(query string, args ...interface{}) (sql.Result, error) {
	return b.ex.Exec(b.dialect.RewriteQuery(query), args...)
}

func (b binding) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return b.ex.Query(b.dialect.RewriteQuery(query), args...)
}

func (b binding) QueryRow(query string, args ...interface{}) *sql.Row {
	return b.ex.QueryRow(b.dialect.RewriteQuery(query), args...)
}

func (b binding) Get(dest interface{}, query string, args ...interface{}) error {
	return b.ex.Get(dest, b.dialect.RewriteQuery(query), args...)
}

func (b binding) Select(dest interface{}, query string, args ...interface{}) error {
	return b.ex.Select(dest, b.dialect.RewriteQuery(query), args...)
}

func (b binding) GetDialect() Dialect {
	return b.dialect
}

// ExecReturningID runs an INSERT and returns the generated id. Drivers with
// no LastInsertId get a RETURNING id clause instead.
func (b binding) ExecReturningID(query string, args ...interface{}) (int64, error) {
	if b.dialect.SupportsLastInsertId() {
		result, err := b.Exec(query, args...)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	query = strings.TrimSuffix(strings.TrimSpace(query), ";") + " RETURNING id"
	var id int64
	if err := b.QueryRow(query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (db *DB) bound() binding {
	return binding{ex: db.DB, dialect: db.Dialect}
}

func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.bound().Exec(query, args...)
}

func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.bound().Query(query, args...)
}

func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.bound().QueryRow(query, args...)
}

func (db *DB) Get(dest interface{}, query string, args ...interface{}) error {
	return db.bound().Get(dest, query, args...)
}

func (db *DB) Select(dest interface{}, query string, args ...interface{}) error {
	return db.bound().Select(dest, query, args...)
}

func (db *DB) ExecReturningID(query string, args ...interface{}) (int64, error) {
	return db.bound().ExecReturningID(query, args...)
}

func (db *DB) GetDialect() Dialect {
	return db.Dialect
}

// Tx is a transaction whose queries go through the pool's dialect
type Tx struct {
	binding
	tx *sqlx.Tx
}

// Begin starts a transaction. Callers defer Rollback, which is a no-op after
// Commit.
func (db *DB) Begin() (*Tx, error) {
	tx, err := db.DB.Beginx()
	if err != nil {
		return nil, err
	}
	return &Tx{binding: binding{ex: tx, dialect: db.Dialect}, tx: tx}, nil
}

// Prepare prepares a ? placeholder statement for repeated use in the transaction
func (tx *Tx) Prepare(query string) (*sql.Stmt, error) {
	return tx.tx.Prepare(tx.dialect.RewriteQuery(query))
}

// ExecRaw runs a statement exactly as written, for migration scripts
func (tx *Tx) ExecRaw(stmt string) (sql.Result, error) {
	return tx.tx.Exec(stmt)
}

func (tx *Tx) Commit() error {
	return tx.tx.Commit()
}

func (tx *Tx) Rollback() error {
	return tx.tx.Rollback()
}
