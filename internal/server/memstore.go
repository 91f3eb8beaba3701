// memstore.go - In-memory store implementations.
//
// Used by the unit tests and by the no-database dev mode. Ids are assigned
// from a per-store counter that only ever moves forward, matching the
// auto-increment behavior of the Postgres stores. Deleted ids are never
// reused.
package server

import (
	"context"
	"sync"
)

// MemRecipientStore keeps recipients in process memory.
type MemRecipientStore struct {
	mu     sync.Mutex
	nextID int64
	order  []int64
	byID   map[int64]Recipient
}

// NewMemRecipientStore returns an empty in-memory recipient store.
func NewMemRecipientStore() *MemRecipientStore {
	return &MemRecipientStore{
		nextID: 1,
		byID:   map[int64]Recipient{},
	}
}

func (s *MemRecipientStore) Insert(_ context.Context, name, email string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.byID[id] = Recipient{ID: id, Name: name, Email: email}
	s.order = append(s.order, id)
	return id, nil
}

func (s *MemRecipientStore) SelectOne(_ context.Context, id int64) (*Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemRecipientStore) SelectAll(_ context.Context) ([]Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Recipient{}
	for _, id := range s.order {
		if rec, ok := s.byID[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *MemRecipientStore) Update(_ context.Context, id int64, name, email string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return 0, nil
	}
	s.byID[id] = Recipient{ID: id, Name: name, Email: email}
	return 1, nil
}

func (s *MemRecipientStore) Delete(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return 0, nil
	}
	delete(s.byID, id)
	return 1, nil
}

// MemAccountStore keeps accounts in process memory.
type MemAccountStore struct {
	mu         sync.Mutex
	nextID     int64
	byUsername map[string]Account
}

// NewMemAccountStore returns an empty in-memory account store.
func NewMemAccountStore() *MemAccountStore {
	return &MemAccountStore{
		nextID:     1,
		byUsername: map[string]Account{},
	}
}

func (s *MemAccountStore) Insert(_ context.Context, username, passwordHash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUsername[username]; ok {
		return 0, ErrUsernameTaken
	}
	id := s.nextID
	s.nextID++
	s.byUsername[username] = Account{ID: id, Username: username, PasswordHash: passwordHash}
	return id, nil
}

func (s *MemAccountStore) SelectByUsername(_ context.Context, username string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byUsername[username]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}
