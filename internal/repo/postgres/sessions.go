package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRow is one issued session token, keyed by the token's jti. Only the
// HMAC of the raw token is stored.
type SessionRow struct {
	ID        string
	AccountID string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

type SessionsRepo struct {
	db  DB
	obs Observer
}

func NewSessionsRepo(db DB, obs Observer) *SessionsRepo {
	return &SessionsRepo{db: db, obs: orNop(obs)}
}

func (r *SessionsRepo) Create(ctx context.Context, row SessionRow) error {
	return r.obs.ObserveDB("sessions.create", func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO sessions (id, account_id, token_hash, expires_at, created_at)
         VALUES ($1, $2, $3, $4, $5)`,
			row.ID, row.AccountID, row.TokenHash, row.ExpiresAt, row.CreatedAt,
		)

		return err
	})
}

func (r *SessionsRepo) Get(ctx context.Context, id string) (SessionRow, error) {
	var row SessionRow

	err := r.db.QueryRow(ctx,
		`SELECT id, account_id, token_hash, expires_at, revoked_at, created_at
         FROM sessions
         WHERE id = $1`,
		id,
	).Scan(&row.ID, &row.AccountID, &row.TokenHash, &row.ExpiresAt, &row.RevokedAt, &row.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SessionRow{}, ErrSessionNotFound
		}

		return SessionRow{}, err
	}

	return row, nil
}

// Revoke marks the session dead. Revoking an already revoked or unknown
// session is a no-op, which keeps logout idempotent.
func (r *SessionsRepo) Revoke(ctx context.Context, id string) error {
	return r.obs.ObserveDB("sessions.revoke", func() error {
		_, err := r.db.Exec(ctx,
			`UPDATE sessions SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`,
			id,
		)

		return err
	})
}
