//go:build integration

package plan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
	"sigil/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	ctx := context.Background()

	store := NewPostgresStore(pc.DB)
	require.NoError(t, store.Migrate(ctx))

	t.Run("put find round-trip", func(t *testing.T) {
		generatedAt := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
		require.NoError(t, store.Put(ctx, 1, testFields(), generatedAt))

		p, err := store.Find(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.RecordID(1), p.RecordID)
		assert.Equal(t, testFields(), p.Fields)
		assert.True(t, generatedAt.Equal(p.GeneratedAt))
		for _, state := range p.States {
			assert.Equal(t, FieldSealed, state)
		}
	})

	t.Run("per-field transitions", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, 2, testFields(), time.Now()))

		field := domain.PlanFieldPacing
		assert.ErrorIs(t, store.MarkFieldDisclosed(ctx, 2, field, "weekly"), sentinel.ErrInvalidState)

		require.NoError(t, store.MarkFieldPending(ctx, 2, field))
		assert.ErrorIs(t, store.MarkFieldPending(ctx, 2, field), sentinel.ErrInvalidState)

		require.NoError(t, store.MarkFieldDisclosed(ctx, 2, field, "weekly"))

		p, err := store.Find(ctx, 2)
		require.NoError(t, err)
		idx := field.Index()
		assert.Equal(t, FieldDisclosed, p.States[idx])
		assert.Equal(t, "weekly", p.Cleartext[idx])
		assert.Equal(t, FieldSealed, p.States[domain.PlanFieldMethod.Index()])
	})

	t.Run("overwrite resets disclosure", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, 3, testFields(), time.Now()))
		require.NoError(t, store.MarkFieldPending(ctx, 3, domain.PlanFieldMethod))
		require.NoError(t, store.MarkFieldDisclosed(ctx, 3, domain.PlanFieldMethod, "spaced repetition"))

		require.NoError(t, store.Put(ctx, 3, testFields(), time.Now()))

		p, err := store.Find(ctx, 3)
		require.NoError(t, err)
		for i, state := range p.States {
			assert.Equal(t, FieldSealed, state)
			assert.Empty(t, p.Cleartext[i])
		}
	})

	t.Run("missing plan", func(t *testing.T) {
		_, err := store.Find(ctx, 404)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, store.MarkFieldPending(ctx, 404, domain.PlanFieldMethod), sentinel.ErrNotFound)
	})
}
