package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/wanderlust/internal/core/domain"
)

// PgxSessionRepository implements domain.SessionRepository using pgxpool.
// The record is stored as JSONB; expired rows are invisible to Get and
// removed by DeleteExpired.
type PgxSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PgxSessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PgxSessionRepository {
	return &PgxSessionRepository{pool: pool}
}

// Get looks up a live session by token.
// Returns (nil, nil) when the token does not match any session.
func (r *PgxSessionRepository) Get(ctx context.Context, token string) (*domain.SessionRecord, error) {
	query := `SELECT data FROM sessions WHERE token = $1 AND expires_at > now()`

	var data []byte
	err := r.pool.QueryRow(ctx, query, token).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translatePgx(err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &rec, nil
}

// Save upserts the session record.
func (r *PgxSessionRepository) Save(ctx context.Context, rec *domain.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	query := `
		INSERT INTO sessions (token, data, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at
	`
	_, err = r.pool.Exec(ctx, query, rec.Token, data, rec.ExpiresAt)
	return translatePgx(err)
}

// Delete removes the session row.
func (r *PgxSessionRepository) Delete(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return translatePgx(err)
}

// DeleteExpired purges rows past their expiry and returns how many were removed.
func (r *PgxSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, translatePgx(err)
	}
	return tag.RowsAffected(), nil
}
