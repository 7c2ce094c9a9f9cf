package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	dErrors "idsim/pkg/domain-errors"
)

// numSubjectShards spreads subject keys over a fixed set of mutexes.
const numSubjectShards = 128

const defaultSubjectTxTimeout = 5 * time.Second

// subjectLocks serializes work per subject key. Two keys can share a shard;
// that only costs concurrency.
type subjectLocks struct {
	shards  [numSubjectShards]sync.Mutex
	timeout time.Duration
}

func (l *subjectLocks) run(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := l.timeout
	if timeout == 0 {
		timeout = defaultSubjectTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := &l.shards[hashSubjectKey(key)%numSubjectShards]
	shard.Lock()
	defer shard.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

// hashSubjectKey is FNV-1a.
func hashSubjectKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

// TxOption configures one RunInTx call.
type TxOption func(*txConfig)

type txConfig struct {
	afterCommit []func(ctx context.Context) error
}

// AfterCommit runs fn once the subject writes are committed, still under the
// subject lock. It does not run when fn or the commit fails.
func AfterCommit(fn func(ctx context.Context) error) TxOption {
	return func(c *txConfig) {
		if fn != nil {
			c.afterCommit = append(c.afterCommit, fn)
		}
	}
}

func newTxConfig(opts []TxOption) txConfig {
	var c txConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c txConfig) committed(ctx context.Context) error {
	for _, fn := range c.afterCommit {
		if err := fn(ctx); err != nil {
			return fmt.Errorf("after commit: %w", err)
		}
	}
	return nil
}

// ShardedTx runs subject mutations under a per-subject lock against a
// non-transactional store, e.g. InMemoryStore.
type ShardedTx struct {
	locks subjectLocks
	store Store
}

// NewShardedTx wraps store. A zero timeout uses the default.
func NewShardedTx(store Store, timeout time.Duration) *ShardedTx {
	tx := &ShardedTx{store: store}
	tx.locks.timeout = timeout
	return tx
}

func (t *ShardedTx) RunInTx(ctx context.Context, key string, fn func(ctx context.Context, store Store) error, opts ...TxOption) error {
	cfg := newTxConfig(opts)
	return t.locks.run(ctx, key, func(ctx context.Context) error {
		if err := fn(ctx, t.store); err != nil {
			return err
		}
		return cfg.committed(ctx)
	})
}

// PostgresTx takes the per-subject lock and then opens a SQL transaction,
// so every write of one callback commits or rolls back together.
type PostgresTx struct {
	locks subjectLocks
	db    *sql.DB
}

func NewPostgresTxRunner(db *sql.DB, timeout time.Duration) *PostgresTx {
	tx := &PostgresTx{db: db}
	tx.locks.timeout = timeout
	return tx
}

func (t *PostgresTx) RunInTx(ctx context.Context, key string, fn func(ctx context.Context, store Store) error, opts ...TxOption) error {
	cfg := newTxConfig(opts)
	return t.locks.run(ctx, key, func(ctx context.Context) error {
		tx, err := t.db.BeginTx(ctx, nil)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "begin transaction")
		}
		defer func() {
			_ = tx.Rollback()
		}()

		if err := fn(ctx, NewPostgresTx(tx)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "commit transaction")
		}
		return cfg.committed(ctx)
	})
}
