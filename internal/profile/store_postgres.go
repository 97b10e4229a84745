package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"sigil/internal/capability"
	"sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

// PostgresStore persists profiles in PostgreSQL. ID allocation rides on a
// BIGSERIAL so concurrent submitters still get strictly increasing, non-zero
// IDs.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the backing table. Idempotent; called at startup.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS profiles (
			id         BIGSERIAL PRIMARY KEY,
			field_0    BYTEA NOT NULL,
			field_1    BYTEA NOT NULL,
			field_2    BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			state      TEXT NOT NULL DEFAULT 'sealed',
			cleartext  TEXT[] NOT NULL DEFAULT '{}'
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate profiles: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, fields [FieldCount]capability.Ciphertext, createdAt time.Time) (domain.RecordID, error) {
	var id uint64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO profiles (field_0, field_1, field_2, created_at, state)
		VALUES ($1, $2, $3, $4, 'sealed')
		RETURNING id
	`, []byte(fields[0]), []byte(fields[1]), []byte(fields[2]), createdAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create profile: %w", err)
	}
	return domain.RecordID(id), nil
}

func (s *PostgresStore) Find(ctx context.Context, id domain.RecordID) (*Profile, error) {
	var (
		p         Profile
		rawID     uint64
		f0, f1, f2 []byte
		state     string
		cleartext pq.StringArray
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, field_0, field_1, field_2, created_at, state, cleartext
		FROM profiles WHERE id = $1
	`, uint64(id)).Scan(&rawID, &f0, &f1, &f2, &p.CreatedAt, &state, &cleartext)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}

	p.ID = domain.RecordID(rawID)
	p.Fields = [FieldCount]capability.Ciphertext{f0, f1, f2}
	p.State = DisclosureState(state)
	p.Cleartext = []string(cleartext)
	return &p, nil
}

func (s *PostgresStore) MarkPending(ctx context.Context, id domain.RecordID) error {
	return s.transition(ctx, id, `
		UPDATE profiles SET state = 'pending_disclosure'
		WHERE id = $1 AND state = 'sealed'
	`, nil)
}

func (s *PostgresStore) MarkDisclosed(ctx context.Context, id domain.RecordID, cleartexts []string) error {
	return s.transition(ctx, id, `
		UPDATE profiles SET state = 'disclosed', cleartext = $2
		WHERE id = $1 AND state = 'pending_disclosure'
	`, cleartexts)
}

// transition runs a guarded state update. Zero rows means either the record
// is missing or it is in the wrong state; a follow-up existence check picks
// the right sentinel.
func (s *PostgresStore) transition(ctx context.Context, id domain.RecordID, query string, cleartexts []string) error {
	var (
		res sql.Result
		err error
	)
	if cleartexts != nil {
		res, err = s.db.ExecContext(ctx, query, uint64(id), pq.Array(cleartexts))
	} else {
		res, err = s.db.ExecContext(ctx, query, uint64(id))
	}
	if err != nil {
		return fmt.Errorf("transition profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition profile: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM profiles WHERE id = $1)`, uint64(id),
	).Scan(&exists); err != nil {
		return fmt.Errorf("transition profile: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}
