package postgres

import (
	"context"
	"database/sql"
)

// DBTX is the intersection of *sql.DB and *sql.Tx the repositories use, so
// the same repository code runs standalone or inside a store transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// inTx runs fn inside a transaction. When db already is one, fn joins it and
// commit/rollback stay with the outer owner.
func inTx(ctx context.Context, db DBTX, fn func(DBTX) error) error {
	sqlDB, ok := db.(*sql.DB)
	if !ok {
		return fn(db)
	}
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
