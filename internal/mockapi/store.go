// internal/mockapi/store.go
package mockapi

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"libraterm/internal/catalog"
	"libraterm/internal/circulation"
	"libraterm/internal/clients"
)

// account is a registered user plus its credential.
type account struct {
	user         clients.User
	passwordHash string
	salt         string
}

// store is the in-memory state behind the mock server. Single process,
// mutex-guarded; nothing survives a restart.
type store struct {
	mu           sync.RWMutex
	publications map[uuid.UUID]*catalog.Publication
	accounts     map[string]*account // keyed by email
	tokens       map[string]string   // token -> email
	borrows      map[uuid.UUID]*circulation.BorrowRecord
}

func newStore() *store {
	return &store{
		publications: make(map[uuid.UUID]*catalog.Publication),
		accounts:     make(map[string]*account),
		tokens:       make(map[string]string),
		borrows:      make(map[uuid.UUID]*circulation.BorrowRecord),
	}
}

func (s *store) accountByToken(token string) (*account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email, ok := s.tokens[token]
	if !ok {
		return nil, false
	}
	acct, ok := s.accounts[email]
	return acct, ok
}

func (s *store) listPublications(pubType catalog.PublicationType) []catalog.Publication {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Publication, 0, len(s.publications))
	for _, p := range s.publications {
		if pubType != "" && p.Type != pubType {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func (s *store) listBorrows() []*circulation.BorrowRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*circulation.BorrowRecord, 0, len(s.borrows))
	for _, b := range s.borrows {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BorrowDate.Equal(out[j].BorrowDate.Time) {
			return out[i].BorrowDate.Before(out[j].BorrowDate.Time)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
