package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contacthub/contacthub/internal/domain/account"
)

func sampleTime(t *testing.T) time.Time {
	t.Helper()

	ts, err := time.Parse(time.RFC3339, "2026-08-01T12:00:00Z")
	if err != nil {
		t.Fatalf("parse sample time: %v", err)
	}

	return ts
}

func TestAccountsRepo_Create(t *testing.T) {
	insertRe := regexp.QuoteMeta(`INSERT INTO accounts (id, email, password_hash, created_at)
         VALUES ($1, $2, $3, $4)`)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "inserts new account",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(insertRe).
					WithArgs(pgxmock.AnyArg(), "ada@example.com", "hash", pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "duplicate email maps to ErrEmailTaken",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(insertRe).
					WithArgs(pgxmock.AnyArg(), "ada@example.com", "hash", pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: "23505"})
			},
			wantErr: account.ErrEmailTaken,
		},
		{
			name: "other db errors pass through",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(insertRe).
					WithArgs(pgxmock.AnyArg(), "ada@example.com", "hash", pgxmock.AnyArg()).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewAccountsRepo(mock, nil)
			got, err := repo.Create(context.Background(), "ada@example.com", "hash")

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, account.ErrEmailTaken) {
					assert.ErrorIs(t, err, account.ErrEmailTaken)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, got.ID)
				assert.Equal(t, "ada@example.com", got.Email)
				assert.Equal(t, "hash", got.PasswordHash)
				assert.False(t, got.CreatedAt.IsZero())
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestAccountsRepo_GetByEmail(t *testing.T) {
	selectRe := regexp.QuoteMeta(`SELECT id, email, password_hash, created_at
         FROM accounts
         WHERE email = $1`)

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
			AddRow("acc-1", "ada@example.com", "hash", sampleTime(t))
		mock.ExpectQuery(selectRe).WithArgs("ada@example.com").WillReturnRows(rows)

		repo := NewAccountsRepo(mock, nil)
		got, err := repo.GetByEmail(context.Background(), "ada@example.com")

		require.NoError(t, err)
		assert.Equal(t, "acc-1", got.ID)
		assert.Equal(t, "hash", got.PasswordHash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(selectRe).
			WithArgs("nobody@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password_hash", "created_at"}))

		repo := NewAccountsRepo(mock, nil)
		_, err = repo.GetByEmail(context.Background(), "nobody@example.com")

		assert.ErrorIs(t, err, account.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountsRepo_GetByID(t *testing.T) {
	selectRe := regexp.QuoteMeta(`SELECT id, email, password_hash, created_at
         FROM accounts
         WHERE id = $1`)

	t.Run("missing maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(selectRe).
			WithArgs("ghost").
			WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password_hash", "created_at"}))

		repo := NewAccountsRepo(mock, nil)
		_, err = repo.GetByID(context.Background(), "ghost")

		assert.ErrorIs(t, err, account.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
