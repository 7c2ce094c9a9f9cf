package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idsim/internal/correlation/models"
	"idsim/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	op := &models.PendingOperation{Token: "t1", Kind: models.KindAddAccessor}
	require.NoError(t, s.Create(ctx, op))
	assert.True(t, errors.Is(s.Create(ctx, op), sentinel.ErrConflict))

	t.Run("returned records are copies", func(t *testing.T) {
		found, err := s.Find(ctx, "t1")
		require.NoError(t, err)
		found.Payload.AccessorID = "mutated"

		again, err := s.Find(ctx, "t1")
		require.NoError(t, err)
		assert.Empty(t, again.Payload.AccessorID)
	})

	t.Run("update error leaves the record unchanged", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.Update(ctx, "t1", func(op *models.PendingOperation) error {
			op.Payload.AccessorID = "half-written"
			return boom
		})
		assert.ErrorIs(t, err, boom)
		found, _ := s.Find(ctx, "t1")
		assert.Empty(t, found.Payload.AccessorID)
	})

	t.Run("delete returns the removed record once", func(t *testing.T) {
		removed, err := s.Delete(ctx, "t1")
		require.NoError(t, err)
		require.NotNil(t, removed)
		assert.Equal(t, models.KindAddAccessor, removed.Kind)

		removed, err = s.Delete(ctx, "t1")
		require.NoError(t, err)
		assert.Nil(t, removed)

		n, _ := s.Count(ctx)
		assert.Zero(t, n)
	})
}
