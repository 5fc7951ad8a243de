package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "satudata/pkg/domain-errors"
	txcontext "satudata/pkg/platform/tx"
)

const defaultTxTimeout = 10 * time.Second

// postgresTx runs service transaction closures against one *sql.Tx carried in
// the context; the stores pick it up and execute on it instead of the pool.
type postgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newPostgresTx(db *sql.DB) *postgresTx {
	return &postgresTx{db: db}
}

func (t *postgresTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

// RunInSavepoint nests a savepoint inside the transaction already in ctx.
func (t *postgresTx) RunInSavepoint(ctx context.Context, name string, fn func(spCtx context.Context) error) error {
	return txcontext.InSavepoint(ctx, name, fn)
}
