package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigil/internal/capability"
	"sigil/pkg/platform/sentinel"
)

func testFields() [FieldCount]capability.Ciphertext {
	return [FieldCount]capability.Ciphertext{
		capability.Ciphertext("visual"),
		capability.Ciphertext("calm"),
		capability.Ciphertext("80%"),
	}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	createdAt := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	id, err := store.Create(ctx, testFields(), createdAt)
	require.NoError(t, err)
	assert.False(t, id.IsNil())

	record, err := store.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateSealed, record.State)
	assert.Equal(t, createdAt, record.CreatedAt)
	assert.Equal(t, testFields(), record.Fields)

	require.NoError(t, store.MarkPending(ctx, id))
	record, err = store.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatePendingDisclosure, record.State)

	cleartexts := []string{"visual", "calm", "80%"}
	require.NoError(t, store.MarkDisclosed(ctx, id, cleartexts))
	record, err = store.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateDisclosed, record.State)
	assert.Equal(t, cleartexts, record.Cleartext)
	assert.True(t, record.Revealed())
}

func TestMemoryStoreTransitionGuards(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, testFields(), time.Now())
	require.NoError(t, err)

	t.Run("disclose requires pending", func(t *testing.T) {
		err := store.MarkDisclosed(ctx, id, []string{"a", "b", "c"})
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
	})

	require.NoError(t, store.MarkPending(ctx, id))

	t.Run("pending is not re-enterable", func(t *testing.T) {
		assert.ErrorIs(t, store.MarkPending(ctx, id), sentinel.ErrInvalidState)
	})

	require.NoError(t, store.MarkDisclosed(ctx, id, []string{"a", "b", "c"}))

	t.Run("disclosed is terminal", func(t *testing.T) {
		assert.ErrorIs(t, store.MarkPending(ctx, id), sentinel.ErrInvalidState)
		assert.ErrorIs(t, store.MarkDisclosed(ctx, id, []string{"x", "y", "z"}), sentinel.ErrInvalidState)
	})

	t.Run("missing records", func(t *testing.T) {
		_, err := store.Find(ctx, 999)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, store.MarkPending(ctx, 999), sentinel.ErrNotFound)
		assert.ErrorIs(t, store.MarkDisclosed(ctx, 999, nil), sentinel.ErrNotFound)
	})
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, testFields(), time.Now())
	require.NoError(t, err)

	record, err := store.Find(ctx, id)
	require.NoError(t, err)
	record.Fields[0][0] = 'X'
	record.State = StateDisclosed

	fresh, err := store.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, testFields(), fresh.Fields)
	assert.Equal(t, StateSealed, fresh.State)
}
