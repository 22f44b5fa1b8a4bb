package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"policynav-backend/models"
)

// DBTX is the part of pgx the repository needs. *pgxpool.Pool and pgx.Tx
// both satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresSessionRepository handles database operations for sessions
type PostgresSessionRepository struct {
	db DBTX
}

// NewPostgresSessionRepository creates a new session repository
func NewPostgresSessionRepository(db DBTX) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

// Create inserts a session, overwriting a previous session with the same id
func (r *PostgresSessionRepository) Create(ctx context.Context, session *models.Session) error {
	policy, eligibility, err := encodeSessionRecords(session)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (id, file_name, policy, eligibility, completed)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			file_name = EXCLUDED.file_name,
			policy = EXCLUDED.policy,
			eligibility = EXCLUDED.eligibility,
			completed = EXCLUDED.completed,
			created_at = NOW(),
			updated_at = NOW()
		RETURNING created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		session.ID,
		session.FileName,
		policy,
		eligibility,
		session.Completed,
	).Scan(&session.CreatedAt, &session.UpdatedAt)
}

// GetByID retrieves a session by id
func (r *PostgresSessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	session := &models.Session{}
	var policy, eligibility []byte

	query := `
		SELECT id, file_name, policy, eligibility, completed, created_at, updated_at
		FROM sessions
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.FileName,
		&policy,
		&eligibility,
		&session.Completed,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if len(policy) > 0 {
		if err := json.Unmarshal(policy, &session.Policy); err != nil {
			return nil, fmt.Errorf("failed to decode session policy: %w", err)
		}
	}
	if len(eligibility) > 0 {
		if err := json.Unmarshal(eligibility, &session.Eligibility); err != nil {
			return nil, fmt.Errorf("failed to decode session eligibility: %w", err)
		}
	}

	return session, nil
}

// Update updates a session
func (r *PostgresSessionRepository) Update(ctx context.Context, session *models.Session) error {
	policy, eligibility, err := encodeSessionRecords(session)
	if err != nil {
		return err
	}

	query := `
		UPDATE sessions SET
			file_name = $2,
			policy = $3,
			eligibility = $4,
			completed = $5,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err = r.db.QueryRow(
		ctx, query,
		session.ID,
		session.FileName,
		policy,
		eligibility,
		session.Completed,
	).Scan(&session.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSessionNotFound
	}
	return err
}

// Delete removes a session
func (r *PostgresSessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// encodeSessionRecords marshals the JSONB columns; nil records stay SQL NULL
func encodeSessionRecords(session *models.Session) ([]byte, []byte, error) {
	var policy, eligibility []byte
	var err error
	if session.Policy != nil {
		if policy, err = json.Marshal(session.Policy); err != nil {
			return nil, nil, fmt.Errorf("failed to encode session policy: %w", err)
		}
	}
	if session.Eligibility != nil {
		if eligibility, err = json.Marshal(session.Eligibility); err != nil {
			return nil, nil, fmt.Errorf("failed to encode session eligibility: %w", err)
		}
	}
	return policy, eligibility, nil
}
