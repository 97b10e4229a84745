//go:build integration

package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigil/pkg/platform/sentinel"
	"sigil/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	ctx := context.Background()

	store := NewPostgresStore(pc.DB)
	require.NoError(t, store.Migrate(ctx))

	t.Run("full lifecycle", func(t *testing.T) {
		createdAt := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
		id, err := store.Create(ctx, testFields(), createdAt)
		require.NoError(t, err)
		assert.False(t, id.IsNil())

		record, err := store.Find(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, StateSealed, record.State)
		assert.Equal(t, testFields(), record.Fields)
		assert.True(t, createdAt.Equal(record.CreatedAt))
		assert.Empty(t, record.Cleartext)

		require.NoError(t, store.MarkPending(ctx, id))

		cleartexts := []string{"visual", "calm", "80%"}
		require.NoError(t, store.MarkDisclosed(ctx, id, cleartexts))

		record, err = store.Find(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, StateDisclosed, record.State)
		assert.Equal(t, cleartexts, record.Cleartext)
	})

	t.Run("guarded transitions", func(t *testing.T) {
		id, err := store.Create(ctx, testFields(), time.Now())
		require.NoError(t, err)

		assert.ErrorIs(t, store.MarkDisclosed(ctx, id, []string{"a", "b", "c"}), sentinel.ErrInvalidState)

		require.NoError(t, store.MarkPending(ctx, id))
		assert.ErrorIs(t, store.MarkPending(ctx, id), sentinel.ErrInvalidState)

		require.NoError(t, store.MarkDisclosed(ctx, id, []string{"a", "b", "c"}))
		assert.ErrorIs(t, store.MarkDisclosed(ctx, id, []string{"x", "y", "z"}), sentinel.ErrInvalidState)
	})

	t.Run("missing records", func(t *testing.T) {
		_, err := store.Find(ctx, 99999)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, store.MarkPending(ctx, 99999), sentinel.ErrNotFound)
	})

	t.Run("migrate is idempotent", func(t *testing.T) {
		require.NoError(t, store.Migrate(ctx))
	})
}
