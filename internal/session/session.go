// internal/session/session.go
package session

import (
	"context"
	"sync"

	"libraterm/internal/clients"
)

// Identity is the tagged current-user state: either Anonymous or
// Authenticated with a user. The constructor shape makes the inconsistent
// "authenticated but no user" combination unrepresentable.
type Identity struct {
	user          clients.User
	authenticated bool
}

// Anonymous is the identity of a caller with no verified session.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated wraps a verified user.
func Authenticated(u clients.User) Identity {
	return Identity{user: u, authenticated: true}
}

// User returns the verified user with ok=true, or ok=false when anonymous.
func (id Identity) User() (clients.User, bool) {
	return id.user, id.authenticated
}

// IsAuthenticated reports whether a verified user is present.
func (id Identity) IsAuthenticated() bool {
	return id.authenticated
}

// Snapshot is a point-in-time read of the session, safe to hold across
// renders. Loading is true only while the startup verification round-trip
// is in flight.
type Snapshot struct {
	Identity Identity
	Loading  bool
}

// Manager is the single source of truth for who is using the client.
// It is the only writer of the session state; views read through Snapshot.
type Manager struct {
	api   *clients.Client
	store TokenStore

	mu       sync.RWMutex
	identity Identity
	loading  bool
}

func NewManager(api *clients.Client, store TokenStore) *Manager {
	return &Manager{api: api, store: store}
}

// Initialize loads the persisted token and verifies it against the server.
// Any failure on the verification path — rejected token, network error —
// fails closed: the token is discarded, the outbound credential cleared,
// and the session left anonymous. Initialize never returns an error for
// those cases; an unusable token is a normal startup condition, not a
// fault the caller can act on.
func (m *Manager) Initialize(ctx context.Context) {
	m.setLoading(true)
	defer m.setLoading(false)

	token, err := m.store.Load()
	if err != nil || token == "" {
		m.resetToAnonymous()
		return
	}

	m.api.SetToken(token)
	user, err := m.api.Me(ctx)
	if err != nil {
		m.resetToAnonymous()
		return
	}

	m.setIdentity(Authenticated(*user))
}

// Login exchanges credentials for a session. On success the token is
// persisted and adopted; on failure the returned error carries the server
// message and the session state is untouched.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if err := m.store.Save(resp.Token); err != nil {
		return err
	}
	m.api.SetToken(resp.Token)
	m.setIdentity(Authenticated(resp.User))
	return nil
}

// Logout notifies the server on a best-effort basis, then unconditionally
// discards the local session. Logout always succeeds client-side.
func (m *Manager) Logout(ctx context.Context) {
	_ = m.api.Logout(ctx)
	m.resetToAnonymous()
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{Identity: m.identity, Loading: m.loading}
}

// ForceAnonymous discards the session without a server round-trip. Used
// when an authenticated call reports the token was rejected mid-session.
func (m *Manager) ForceAnonymous() {
	m.resetToAnonymous()
}

func (m *Manager) resetToAnonymous() {
	m.api.ClearToken()
	_ = m.store.Clear()
	m.setIdentity(Anonymous())
}

func (m *Manager) setIdentity(id Identity) {
	m.mu.Lock()
	m.identity = id
	m.mu.Unlock()
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}
