// store.go - Entity types and the store contracts the handlers depend on.
//
// Two implementations exist: the Postgres stores (recipients.go,
// accounts.go) used in production, and the in-memory stores
// (memstore.go) used by unit tests and the no-database dev mode.
package server

import (
	"context"
	"errors"
)

// Recipient is a single mailing-list entry.
type Recipient struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Account is a login credential pair. PasswordHash is the deterministic
// digest of the plaintext password; plaintext is never stored.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
}

// ErrUsernameTaken is returned by AccountStore.Insert when the username
// already exists, so the handler can answer 409 instead of a generic 400.
var ErrUsernameTaken = errors.New("username already taken")

// RecipientStore is the persistence contract for mailing-list entries.
// SelectOne returns (nil, nil) when the id does not exist.
type RecipientStore interface {
	Insert(ctx context.Context, name, email string) (int64, error)
	SelectOne(ctx context.Context, id int64) (*Recipient, error)
	SelectAll(ctx context.Context) ([]Recipient, error)
	Update(ctx context.Context, id int64, name, email string) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// AccountStore is the persistence contract for login accounts.
// SelectByUsername returns (nil, nil) when the username does not exist.
type AccountStore interface {
	Insert(ctx context.Context, username, passwordHash string) (int64, error)
	SelectByUsername(ctx context.Context, username string) (*Account, error)
}
