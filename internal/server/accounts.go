// accounts.go - Postgres-backed account store.
package server

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the Postgres error code for unique_violation.
const pgUniqueViolation = "23505"

type pgAccountStore struct {
	db *sql.DB
}

// NewPgAccountStore returns an AccountStore backed by the accounts table.
func NewPgAccountStore(db *sql.DB) AccountStore {
	return &pgAccountStore{db: db}
}

// Insert creates an account and reports ErrUsernameTaken on the unique
// constraint so the handler can answer 409 rather than a generic error.
func (s *pgAccountStore) Insert(ctx context.Context, username, passwordHash string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO accounts (username, password_hash) VALUES ($1, $2) RETURNING id`,
		username, passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, ErrUsernameTaken
		}
		return 0, err
	}
	return id, nil
}

func (s *pgAccountStore) SelectByUsername(ctx context.Context, username string) (*Account, error) {
	var acc Account
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM accounts WHERE username = $1`,
		username,
	).Scan(&acc.ID, &acc.Username, &acc.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}
