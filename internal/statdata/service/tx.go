package service

import (
	"context"
	"sync"
	"time"

	dErrors "satudata/pkg/domain-errors"
)

// defaultTxTimeout bounds how long a mutation may hold the in-memory lock.
const defaultTxTimeout = 5 * time.Second

// MemoryTx serializes mutations with a coarse lock for in-memory setups.
// The in-memory stores are individually atomic, so exclusion is all a
// "transaction" needs to provide there; savepoints are pass-through because a
// failed operation against the memory store leaves no partial state behind.
type MemoryTx struct {
	mu      sync.Mutex
	timeout time.Duration
}

// NewMemoryTx constructs an in-memory transaction runner.
func NewMemoryTx() *MemoryTx {
	return &MemoryTx{}
}

// RunInTx runs fn under the lock with a bounded deadline.
func (t *MemoryTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
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

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

// RunInSavepoint runs fn directly; see the type comment.
func (t *MemoryTx) RunInSavepoint(ctx context.Context, _ string, fn func(spCtx context.Context) error) error {
	return fn(ctx)
}
