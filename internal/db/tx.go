// Package db holds small database/sql helpers shared by the stores.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WithTx runs fn in a transaction, committing when fn returns nil. A failed
// fn or commit rolls the transaction back; a rollback error is joined to
// the cause.
func WithTx(ctx context.Context, sqldb *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Null stores the zero value of T as SQL NULL. Scanning NULL into a
// sql.Null[T] leaves V at the zero value, so V can be read back directly.
func Null[T comparable](v T) sql.Null[T] {
	var zero T
	return sql.Null[T]{V: v, Valid: v != zero}
}
