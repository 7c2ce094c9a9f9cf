package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idsim/internal/identity/models"
	dErrors "idsim/pkg/domain-errors"
)

func TestShardedTxSerializesSameSubject(t *testing.T) {
	ctx := context.Background()
	mem := NewInMemory()
	require.NoError(t, mem.SaveSubject(ctx, &models.Subject{Namespace: "ns", Identifier: "1", Mode: models.Mode3}))
	tx := NewShardedTx(mem, time.Second)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tx.RunInTx(ctx, "ns:1", func(ctx context.Context, st Store) error {
				subject, err := st.FindSubject(ctx, "ns", "1")
				if err != nil {
					return err
				}
				subject.Delay++
				return st.SaveSubject(ctx, subject)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	subject, err := mem.FindSubject(ctx, "ns", "1")
	require.NoError(t, err)
	assert.Equal(t, workers, subject.Delay)
}

func TestShardedTxCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tx := NewShardedTx(NewInMemory(), 0)

	called := false
	err := tx.RunInTx(ctx, "ns:1", func(context.Context, Store) error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestShardedTxAfterCommit(t *testing.T) {
	ctx := context.Background()
	tx := NewShardedTx(NewInMemory(), time.Second)

	t.Run("runs after the writes", func(t *testing.T) {
		var order []string
		err := tx.RunInTx(ctx, "ns:1", func(context.Context, Store) error {
			order = append(order, "write")
			return nil
		}, AfterCommit(func(context.Context) error {
			order = append(order, "after")
			return nil
		}))
		require.NoError(t, err)
		assert.Equal(t, []string{"write", "after"}, order)
	})

	t.Run("skipped when the writes fail", func(t *testing.T) {
		boom := errors.New("boom")
		called := false
		err := tx.RunInTx(ctx, "ns:1", func(context.Context, Store) error {
			return boom
		}, AfterCommit(func(context.Context) error {
			called = true
			return nil
		}))
		assert.ErrorIs(t, err, boom)
		assert.False(t, called)
	})

	t.Run("hook failure is returned", func(t *testing.T) {
		gone := errors.New("redis down")
		err := tx.RunInTx(ctx, "ns:1", func(context.Context, Store) error {
			return nil
		}, AfterCommit(func(context.Context) error {
			return gone
		}))
		assert.ErrorIs(t, err, gone)
	})
}

func TestHashSubjectKeySpreads(t *testing.T) {
	seen := map[uint32]bool{}
	for _, k := range []string{"ns:1", "ns:2", "ns:3", "other:1"} {
		seen[hashSubjectKey(k)%numSubjectShards] = true
	}
	assert.Greater(t, len(seen), 1)
}
