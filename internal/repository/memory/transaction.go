package memory

import (
	"context"

	"qms/internal/domain/repositories"
)

const txScope = "memory"

// TransactionManager serializes units of work against a Store and restores
// a snapshot when fn fails, giving all-or-nothing semantics.
type TransactionManager struct {
	store *Store
}

// NewTransactionManager creates a transaction manager for the store
func NewTransactionManager(store *Store) repositories.TransactionManager {
	return &TransactionManager{store: store}
}

// ExecTx runs fn exclusively. Nested calls join the outer transaction.
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if repositories.InTxScope(ctx, txScope) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tm.store.txMu.Lock()
	defer tm.store.txMu.Unlock()

	tm.store.mu.RLock()
	saved := tm.store.snapshot()
	tm.store.mu.RUnlock()

	if err := fn(repositories.WithTxScope(ctx, txScope)); err != nil {
		tm.store.mu.Lock()
		tm.store.data = saved
		tm.store.mu.Unlock()
		return err
	}
	return nil
}
