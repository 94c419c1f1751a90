// Package repository provides PostgreSQL persistence for accounts, the park cache and reviews.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/ParkPassport/internal/apperrors"
	"github.com/lib/pq"
)

const (
	uniqueViolation     pq.ErrorCode = "23505"
	foreignKeyViolation pq.ErrorCode = "23503"
)

// querier is the subset of *sql.DB and *sql.Tx used by the repositories.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// conn returns the transaction bound to ctx, or db when there is none.
func conn(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// Transactor runs repository calls inside a database transaction.
// Repositories pick the transaction up from the context passed to fn.
type Transactor struct {
	// DB is the database handle transactions are started on.
	DB *sql.DB
}

// NewTransactor creates a Transactor for db.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{DB: db}
}

// WithinTx runs fn in a read-write transaction and commits when fn returns nil.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.run(ctx, nil, fn)
}

// WithinReadTx runs fn in a read-only REPEATABLE READ transaction, so every
// query inside fn observes the same snapshot.
func (t *Transactor) WithinReadTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.run(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

func (t *Transactor) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.DB.BeginTx(ctx, opts)
	if err != nil {
		return apperrors.Storage("begin transaction", fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Storage("commit transaction", fmt.Errorf("commit: %w", err))
	}
	return nil
}

// storageErr classifies a driver error. Unique violations become conflicts
// carrying conflictMsg; everything else is a retryable storage failure.
func storageErr(op, conflictMsg string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return apperrors.Conflict(conflictMsg, err)
		case foreignKeyViolation:
			return apperrors.NotFound(fmt.Sprintf("%s: referenced record does not exist", op))
		}
	}
	return apperrors.Storage(op, fmt.Errorf("%s: %w", op, err))
}
