// recipients.go - Postgres-backed recipient store.
//
// Every operation is a single statement; ids come from the BIGSERIAL
// column so the store, not the process, owns identity assignment.
package server

import (
	"context"
	"database/sql"
	"errors"
)

type pgRecipientStore struct {
	db *sql.DB
}

// NewPgRecipientStore returns a RecipientStore backed by the recipients table.
func NewPgRecipientStore(db *sql.DB) RecipientStore {
	return &pgRecipientStore{db: db}
}

func (s *pgRecipientStore) Insert(ctx context.Context, name, email string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO recipients (name, email) VALUES ($1, $2) RETURNING id`,
		name, email,
	).Scan(&id)
	return id, err
}

func (s *pgRecipientStore) SelectOne(ctx context.Context, id int64) (*Recipient, error) {
	var rec Recipient
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email FROM recipients WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.Name, &rec.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *pgRecipientStore) SelectAll(ctx context.Context) ([]Recipient, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email FROM recipients ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Recipient{}
	for rows.Next() {
		var rec Recipient
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *pgRecipientStore) Update(ctx context.Context, id int64, name, email string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE recipients SET name = $1, email = $2 WHERE id = $3`,
		name, email, id,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *pgRecipientStore) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM recipients WHERE id = $1`, id,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
