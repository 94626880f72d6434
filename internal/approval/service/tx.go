package service

import (
	"context"
	"database/sql"
	"fmt"

	txcontext "marina/pkg/platform/tx"
)

// StoreTx runs a function inside one logical transaction. The Postgres
// implementation opens a real transaction and threads it through the context
// so every store touched inside fn joins it; the in-memory implementation is
// a pass-through, which is safe because the engine validates every step
// before its first write.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type inMemoryStoreTx struct{}

func newInMemoryStoreTx() StoreTx { return inMemoryStoreTx{} }

func (inMemoryStoreTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// SQLStoreTx wraps a database handle into a StoreTx.
type SQLStoreTx struct {
	db *sql.DB
}

// NewSQLStoreTx builds the transactional runner used in production wiring.
func NewSQLStoreTx(db *sql.DB) *SQLStoreTx {
	return &SQLStoreTx{db: db}
}

func (s *SQLStoreTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	// Nested calls join the existing transaction rather than opening another.
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
