package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"sigil/internal/authz"
	"sigil/internal/capability"
	"sigil/internal/capability/mocks"
	"sigil/internal/correlation"
	"sigil/internal/profile"
	"sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
	audit "sigil/pkg/platform/audit"
	"sigil/pkg/testutil"
)

type recordingPublisher struct {
	events []audit.Event
}

func (r *recordingPublisher) Emit(_ context.Context, e audit.Event) error {
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) names() []audit.EventName {
	out := make([]audit.EventName, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

type fixture struct {
	svc   *Service
	store *profile.MemoryStore
	table *correlation.MemoryTable
	cap   *capability.DevCapability
	trail *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	devCap, err := capability.NewDevCapability("test-proof-key")
	require.NoError(t, err)

	store := profile.NewMemoryStore()
	table := correlation.NewMemoryTable()
	trail := &recordingPublisher{}
	svc := NewService(store, table, devCap, authz.RolePolicy{}, trail, nil)
	return &fixture{svc: svc, store: store, table: table, cap: devCap, trail: trail}
}

func encryptedFields(c *capability.DevCapability) [profile.FieldCount]capability.Ciphertext {
	return [profile.FieldCount]capability.Ciphertext{
		c.Encrypt("visual"),
		c.Encrypt("calm"),
		c.Encrypt("80%"),
	}
}

func counselorCtx() context.Context {
	return testutil.CallerContext("counselor-1", domain.RoleCounselor)
}

func guardianCtx() context.Context {
	return testutil.CallerContext("guardian-1", domain.RoleGuardian)
}

func TestSubmit(t *testing.T) {
	t.Run("allocates sequential IDs starting at 1", func(t *testing.T) {
		f := newFixture(t)
		ctx := guardianCtx()

		first, err := f.svc.Submit(ctx, encryptedFields(f.cap))
		require.NoError(t, err)
		second, err := f.svc.Submit(ctx, encryptedFields(f.cap))
		require.NoError(t, err)

		assert.Equal(t, domain.RecordID(1), first)
		assert.Equal(t, domain.RecordID(2), second)
	})

	t.Run("stores the record sealed", func(t *testing.T) {
		f := newFixture(t)
		id, err := f.svc.Submit(guardianCtx(), encryptedFields(f.cap))
		require.NoError(t, err)

		record, err := f.svc.Get(guardianCtx(), id)
		require.NoError(t, err)
		assert.Equal(t, profile.StateSealed, record.State)
		assert.Empty(t, record.Cleartext)
	})

	t.Run("rejects an uninitialized field", func(t *testing.T) {
		f := newFixture(t)
		fields := encryptedFields(f.cap)
		fields[1] = nil

		_, err := f.svc.Submit(guardianCtx(), fields)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects unauthenticated callers", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Submit(context.Background(), encryptedFields(f.cap))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("emits a submission audit event", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Submit(guardianCtx(), encryptedFields(f.cap))
		require.NoError(t, err)
		assert.Contains(t, f.trail.names(), audit.EventProfileSubmitted)
	})
}

func TestDisclosureRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := counselorCtx()

	id, err := f.svc.Submit(ctx, encryptedFields(f.cap))
	require.NoError(t, err)

	requestID, err := f.svc.RequestDisclosure(ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, requestID)

	record, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, profile.StatePendingDisclosure, record.State)

	cleartexts := []string{"visual", "calm", "80%"}
	proof := f.cap.ProofFor(requestID, cleartexts)
	require.NoError(t, f.svc.HandleDisclosureCallback(context.Background(), requestID, cleartexts, proof))

	fields, revealed, err := f.svc.ReadDisclosed(ctx, id)
	require.NoError(t, err)
	assert.True(t, revealed)
	assert.Equal(t, cleartexts, fields)

	assert.Equal(t, []audit.EventName{
		audit.EventProfileSubmitted,
		audit.EventDisclosureRequested,
		audit.EventProfileDisclosed,
	}, f.trail.names())
}

func TestDisclosureCallbackReplay(t *testing.T) {
	f := newFixture(t)
	ctx := counselorCtx()

	id, err := f.svc.Submit(ctx, encryptedFields(f.cap))
	require.NoError(t, err)
	requestID, err := f.svc.RequestDisclosure(ctx, id)
	require.NoError(t, err)

	cleartexts := []string{"visual", "calm", "80%"}
	proof := f.cap.ProofFor(requestID, cleartexts)
	require.NoError(t, f.svc.HandleDisclosureCallback(context.Background(), requestID, cleartexts, proof))

	// An identical second delivery must be rejected: the correlation entry
	// was consumed by the first one.
	err = f.svc.HandleDisclosureCallback(context.Background(), requestID, cleartexts, proof)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownRequest))

	record, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, profile.StateDisclosed, record.State)
	assert.Equal(t, cleartexts, record.Cleartext)
}

func TestDisclosureCallbackInvalidProof(t *testing.T) {
	f := newFixture(t)
	ctx := counselorCtx()

	id, err := f.svc.Submit(ctx, encryptedFields(f.cap))
	require.NoError(t, err)
	requestID, err := f.svc.RequestDisclosure(ctx, id)
	require.NoError(t, err)

	genuine := []string{"visual", "calm", "80%"}
	proof := f.cap.ProofFor(requestID, genuine)

	// Tampered cleartexts under the original proof must change nothing.
	tampered := []string{"auditory", "calm", "80%"}
	err = f.svc.HandleDisclosureCallback(context.Background(), requestID, tampered, proof)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidProof))

	record, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, profile.StatePendingDisclosure, record.State)
	assert.Empty(t, record.Cleartext)

	// The correlation entry survives the rejected delivery, so the genuine
	// callback still lands.
	require.NoError(t, f.svc.HandleDisclosureCallback(context.Background(), requestID, genuine, proof))
	assert.Contains(t, f.trail.names(), audit.EventCallbackRejected)
}

func TestDisclosureCallbackArity(t *testing.T) {
	f := newFixture(t)
	ctx := counselorCtx()

	id, err := f.svc.Submit(ctx, encryptedFields(f.cap))
	require.NoError(t, err)
	requestID, err := f.svc.RequestDisclosure(ctx, id)
	require.NoError(t, err)

	short := []string{"visual", "calm"}
	err = f.svc.HandleDisclosureCallback(context.Background(), requestID, short, f.cap.ProofFor(requestID, short))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeArityMismatch))

	record, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, profile.StatePendingDisclosure, record.State)
}

func TestRequestDisclosure(t *testing.T) {
	t.Run("rejects a second request while one is outstanding", func(t *testing.T) {
		f := newFixture(t)
		ctx := counselorCtx()

		id, err := f.svc.Submit(ctx, encryptedFields(f.cap))
		require.NoError(t, err)
		_, err = f.svc.RequestDisclosure(ctx, id)
		require.NoError(t, err)

		_, err = f.svc.RequestDisclosure(ctx, id)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyPending))
	})

	t.Run("rejects re-disclosure of a disclosed record", func(t *testing.T) {
		f := newFixture(t)
		ctx := counselorCtx()

		id, err := f.svc.Submit(ctx, encryptedFields(f.cap))
		require.NoError(t, err)
		requestID, err := f.svc.RequestDisclosure(ctx, id)
		require.NoError(t, err)

		cleartexts := []string{"visual", "calm", "80%"}
		require.NoError(t, f.svc.HandleDisclosureCallback(
			context.Background(), requestID, cleartexts, f.cap.ProofFor(requestID, cleartexts)))

		_, err = f.svc.RequestDisclosure(ctx, id)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyDisclosed))
	})

	t.Run("unknown record", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.RequestDisclosure(counselorCtx(), domain.RecordID(99))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("guardians may not trigger disclosure", func(t *testing.T) {
		f := newFixture(t)
		id, err := f.svc.Submit(guardianCtx(), encryptedFields(f.cap))
		require.NoError(t, err)

		_, err = f.svc.RequestDisclosure(guardianCtx(), id)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func TestReadDisclosedBeforeCallback(t *testing.T) {
	f := newFixture(t)
	ctx := counselorCtx()

	id, err := f.svc.Submit(ctx, encryptedFields(f.cap))
	require.NoError(t, err)

	fields, revealed, err := f.svc.ReadDisclosed(ctx, id)
	require.NoError(t, err)
	assert.False(t, revealed)
	assert.Empty(t, fields)

	_, err = f.svc.RequestDisclosure(ctx, id)
	require.NoError(t, err)

	fields, revealed, err = f.svc.ReadDisclosed(ctx, id)
	require.NoError(t, err)
	assert.False(t, revealed)
	assert.Empty(t, fields)
}

func TestCallbackVerifyFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	capMock := mocks.NewMockCapability(ctrl)
	store := profile.NewMemoryStore()
	table := correlation.NewMemoryTable()
	svc := NewService(store, table, capMock, authz.RolePolicy{}, audit.Discard{}, nil)

	capMock.EXPECT().
		Verify(gomock.Any(), domain.RequestID("req-1"), gomock.Any(), gomock.Any()).
		Return(false, errors.New("capability unreachable"))

	err := svc.HandleDisclosureCallback(context.Background(), "req-1", []string{"a", "b", "c"}, []byte("proof"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.Equal(t, 0, table.Outstanding())
}
