package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sigil/internal/capability"
	"sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

// PostgresStore persists plans in PostgreSQL, one row per source record.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the backing table. Idempotent; called at startup.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS plans (
			record_id    BIGINT PRIMARY KEY,
			field_0      BYTEA NOT NULL,
			field_1      BYTEA NOT NULL,
			field_2      BYTEA NOT NULL,
			generated_at TIMESTAMPTZ NOT NULL,
			state_0      TEXT NOT NULL DEFAULT 'sealed',
			state_1      TEXT NOT NULL DEFAULT 'sealed',
			state_2      TEXT NOT NULL DEFAULT 'sealed',
			cleartext_0  TEXT NOT NULL DEFAULT '',
			cleartext_1  TEXT NOT NULL DEFAULT '',
			cleartext_2  TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate plans: %w", err)
	}
	return nil
}

// Put upserts the plan. A regenerated plan wipes prior disclosure state and
// cleartext along with the ciphertexts.
func (s *PostgresStore) Put(ctx context.Context, id domain.RecordID, fields [FieldCount]capability.Ciphertext, generatedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plans (record_id, field_0, field_1, field_2, generated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (record_id) DO UPDATE SET
			field_0 = EXCLUDED.field_0,
			field_1 = EXCLUDED.field_1,
			field_2 = EXCLUDED.field_2,
			generated_at = EXCLUDED.generated_at,
			state_0 = 'sealed', state_1 = 'sealed', state_2 = 'sealed',
			cleartext_0 = '', cleartext_1 = '', cleartext_2 = ''
	`, uint64(id), []byte(fields[0]), []byte(fields[1]), []byte(fields[2]), generatedAt)
	if err != nil {
		return fmt.Errorf("put plan: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, id domain.RecordID) (*Plan, error) {
	var (
		p          Plan
		rawID      uint64
		f0, f1, f2 []byte
		s0, s1, s2 string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT record_id, field_0, field_1, field_2, generated_at,
		       state_0, state_1, state_2,
		       cleartext_0, cleartext_1, cleartext_2
		FROM plans WHERE record_id = $1
	`, uint64(id)).Scan(&rawID, &f0, &f1, &f2, &p.GeneratedAt,
		&s0, &s1, &s2,
		&p.Cleartext[0], &p.Cleartext[1], &p.Cleartext[2])
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find plan: %w", err)
	}

	p.RecordID = domain.RecordID(rawID)
	p.Fields = [FieldCount]capability.Ciphertext{f0, f1, f2}
	p.States = [FieldCount]FieldState{FieldState(s0), FieldState(s1), FieldState(s2)}
	return &p, nil
}

func (s *PostgresStore) MarkFieldPending(ctx context.Context, id domain.RecordID, field domain.PlanField) error {
	idx, err := columnIndex(field)
	if err != nil {
		return err
	}
	return s.transition(ctx, id, fmt.Sprintf(`
		UPDATE plans SET state_%d = 'pending_disclosure'
		WHERE record_id = $1 AND state_%d = 'sealed'
	`, idx, idx), nil)
}

func (s *PostgresStore) MarkFieldDisclosed(ctx context.Context, id domain.RecordID, field domain.PlanField, cleartext string) error {
	idx, err := columnIndex(field)
	if err != nil {
		return err
	}
	return s.transition(ctx, id, fmt.Sprintf(`
		UPDATE plans SET state_%d = 'disclosed', cleartext_%d = $2
		WHERE record_id = $1 AND state_%d = 'pending_disclosure'
	`, idx, idx, idx), &cleartext)
}

// columnIndex bounds the field index before it is interpolated into a
// column name.
func columnIndex(field domain.PlanField) (int, error) {
	idx := field.Index()
	if idx < 0 || idx >= FieldCount {
		return 0, fmt.Errorf("unknown plan field %q", field)
	}
	return idx, nil
}

// transition runs a guarded per-field state update, distinguishing a missing
// plan from a wrong-state one the same way the profile store does.
func (s *PostgresStore) transition(ctx context.Context, id domain.RecordID, query string, cleartext *string) error {
	var (
		res sql.Result
		err error
	)
	if cleartext != nil {
		res, err = s.db.ExecContext(ctx, query, uint64(id), *cleartext)
	} else {
		res, err = s.db.ExecContext(ctx, query, uint64(id))
	}
	if err != nil {
		return fmt.Errorf("transition plan field: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition plan field: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM plans WHERE record_id = $1)`, uint64(id),
	).Scan(&exists); err != nil {
		return fmt.Errorf("transition plan field: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}
