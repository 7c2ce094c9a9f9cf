package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"idsim/internal/identity/models"
	"idsim/pkg/platform/sentinel"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists subjects and accessors in PostgreSQL.
type PostgresStore struct {
	db dbExecutor
}

// NewPostgres constructs a store over a database handle.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a store scoped to an open transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{db: tx}
}

const subjectColumns = `namespace, identifier, COALESCE(group_code, ''), accessor_ids, ial, aal, response, delay_seconds, mode, created_at, updated_at`

func (s *PostgresStore) FindSubject(ctx context.Context, namespace, identifier string) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE namespace = $1 AND identifier = $2`
	subject, err := scanSubject(s.db.QueryRowContext(ctx, query, namespace, identifier))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subject %s/%s: %w", namespace, identifier, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find subject: %w", err)
	}
	return subject, nil
}

func (s *PostgresStore) FindSubjectByGroupCode(ctx context.Context, groupCode string) (*models.Subject, error) {
	if groupCode == "" {
		return nil, fmt.Errorf("subject in empty group: %w", sentinel.ErrNotFound)
	}
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE group_code = $1 ORDER BY updated_at DESC LIMIT 1`
	subject, err := scanSubject(s.db.QueryRowContext(ctx, query, groupCode))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subject in group %s: %w", groupCode, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find subject by group code: %w", err)
	}
	return subject, nil
}

func (s *PostgresStore) SaveSubject(ctx context.Context, subject *models.Subject) error {
	query := `
		INSERT INTO subjects (namespace, identifier, group_code, accessor_ids, ial, aal, response, delay_seconds, mode, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (namespace, identifier) DO UPDATE SET
			group_code = EXCLUDED.group_code,
			accessor_ids = EXCLUDED.accessor_ids,
			ial = EXCLUDED.ial,
			aal = EXCLUDED.aal,
			response = EXCLUDED.response,
			delay_seconds = EXCLUDED.delay_seconds,
			mode = EXCLUDED.mode,
			updated_at = EXCLUDED.updated_at
	`
	ids := subject.AccessorIDs
	if ids == nil {
		ids = []string{}
	}
	_, err := s.db.ExecContext(ctx, query,
		subject.Namespace, subject.Identifier, subject.GroupCode, pq.Array(ids),
		subject.IAL, subject.AAL, subject.Response, subject.Delay, subject.Mode,
		subject.CreatedAt, subject.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save subject: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteSubject(ctx context.Context, namespace, identifier string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM subjects WHERE namespace = $1 AND identifier = $2`, namespace, identifier)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindAccessor(ctx context.Context, accessorID string) (*models.Accessor, error) {
	var a models.Accessor
	err := s.db.QueryRowContext(ctx,
		`SELECT accessor_id, COALESCE(group_code, ''), public_key, private_key, created_at FROM accessors WHERE accessor_id = $1`,
		accessorID,
	).Scan(&a.ID, &a.GroupCode, &a.PublicKey, &a.PrivateKey, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("accessor %s: %w", accessorID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find accessor: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) SaveAccessor(ctx context.Context, accessor *models.Accessor) error {
	query := `
		INSERT INTO accessors (accessor_id, group_code, public_key, private_key, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)
		ON CONFLICT (accessor_id) DO UPDATE SET
			group_code = EXCLUDED.group_code,
			public_key = EXCLUDED.public_key,
			private_key = EXCLUDED.private_key
	`
	_, err := s.db.ExecContext(ctx, query,
		accessor.ID, accessor.GroupCode, accessor.PublicKey, accessor.PrivateKey, accessor.CreatedAt)
	if err != nil {
		return fmt.Errorf("save accessor: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteAccessor(ctx context.Context, accessorID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM accessors WHERE accessor_id = $1`, accessorID)
	if err != nil {
		return fmt.Errorf("delete accessor: %w", err)
	}
	return nil
}

func scanSubject(row *sql.Row) (*models.Subject, error) {
	var subject models.Subject
	var ids pq.StringArray
	err := row.Scan(
		&subject.Namespace, &subject.Identifier, &subject.GroupCode, &ids,
		&subject.IAL, &subject.AAL, &subject.Response, &subject.Delay, &subject.Mode,
		&subject.CreatedAt, &subject.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	subject.AccessorIDs = []string(ids)
	if subject.AccessorIDs == nil {
		subject.AccessorIDs = []string{}
	}
	return &subject, nil
}
