package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/contacthub/contacthub/internal/domain/account"
)

const uniqueViolation = "23505"

type AccountsRepo struct {
	db  DB
	obs Observer
}

func NewAccountsRepo(db DB, obs Observer) *AccountsRepo {
	return &AccountsRepo{db: db, obs: orNop(obs)}
}

// Create inserts a new account. The unique index on email is the single
// source of truth for duplicates; a violation surfaces as ErrEmailTaken.
func (r *AccountsRepo) Create(ctx context.Context, email, passwordHash string) (account.Account, error) {
	a := account.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	err := r.obs.ObserveDB("accounts.create", func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO accounts (id, email, password_hash, created_at)
         VALUES ($1, $2, $3, $4)`,
			a.ID, a.Email, a.PasswordHash, a.CreatedAt,
		)

		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError

		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return account.Account{}, account.ErrEmailTaken
		}

		return account.Account{}, err
	}

	return a, nil
}

func (r *AccountsRepo) GetByEmail(ctx context.Context, email string) (account.Account, error) {
	var a account.Account

	err := r.db.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at
         FROM accounts
         WHERE email = $1`,
		email,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}

		return account.Account{}, err
	}

	return a, nil
}

func (r *AccountsRepo) GetByID(ctx context.Context, id string) (account.Account, error) {
	var a account.Account

	err := r.db.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at
         FROM accounts
         WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}

		return account.Account{}, err
	}

	return a, nil
}
