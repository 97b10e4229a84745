package plan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigil/internal/capability"
	"sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

func testFields() [FieldCount]capability.Ciphertext {
	return [FieldCount]capability.Ciphertext{
		capability.Ciphertext("spaced repetition"),
		capability.Ciphertext("intermediate"),
		capability.Ciphertext("weekly"),
	}
}

func TestMemoryStorePut(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	generatedAt := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, 5, testFields(), generatedAt))

	p, err := store.Find(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordID(5), p.RecordID)
	assert.Equal(t, generatedAt, p.GeneratedAt)
	for _, state := range p.States {
		assert.Equal(t, FieldSealed, state)
	}
}

func TestMemoryStoreFieldTransitions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, 1, testFields(), time.Now()))

	field := domain.PlanFieldDifficulty

	assert.ErrorIs(t, store.MarkFieldDisclosed(ctx, 1, field, "intermediate"), sentinel.ErrInvalidState)

	require.NoError(t, store.MarkFieldPending(ctx, 1, field))
	assert.ErrorIs(t, store.MarkFieldPending(ctx, 1, field), sentinel.ErrInvalidState)

	require.NoError(t, store.MarkFieldDisclosed(ctx, 1, field, "intermediate"))
	assert.ErrorIs(t, store.MarkFieldDisclosed(ctx, 1, field, "again"), sentinel.ErrInvalidState)

	p, err := store.Find(ctx, 1)
	require.NoError(t, err)
	idx := field.Index()
	assert.Equal(t, FieldDisclosed, p.States[idx])
	assert.Equal(t, "intermediate", p.Cleartext[idx])
	assert.True(t, p.FieldRevealed(field))

	// Sibling fields are untouched.
	assert.Equal(t, FieldSealed, p.States[domain.PlanFieldMethod.Index()])
	assert.Empty(t, p.Cleartext[domain.PlanFieldMethod.Index()])
}

func TestMemoryStoreOverwriteResets(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, 1, testFields(), time.Now()))

	require.NoError(t, store.MarkFieldPending(ctx, 1, domain.PlanFieldMethod))
	require.NoError(t, store.MarkFieldDisclosed(ctx, 1, domain.PlanFieldMethod, "spaced repetition"))

	require.NoError(t, store.Put(ctx, 1, testFields(), time.Now()))

	p, err := store.Find(ctx, 1)
	require.NoError(t, err)
	for i, state := range p.States {
		assert.Equal(t, FieldSealed, state)
		assert.Empty(t, p.Cleartext[i])
	}
}

func TestMemoryStoreMissingPlan(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Find(ctx, 404)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.ErrorIs(t, store.MarkFieldPending(ctx, 404, domain.PlanFieldMethod), sentinel.ErrNotFound)
	assert.ErrorIs(t, store.MarkFieldDisclosed(ctx, 404, domain.PlanFieldMethod, "x"), sentinel.ErrNotFound)
}
