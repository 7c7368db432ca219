// internal/session/session_test.go
package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraterm/internal/clients"
)

type fakeAPI struct {
	mux        *http.ServeMux
	validToken string
	user       clients.User
	loginFails bool
	logoutErrs bool
	meCalls    int
}

func newFakeAPI() *fakeAPI {
	f := &fakeAPI{
		validToken: "good-token",
		user: clients.User{
			ID:    uuid.New(),
			Name:  "Amina Cherif",
			Email: "amina@univ.edu",
			Role:  "student",
		},
	}

	f.mux = http.NewServeMux()
	f.mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		f.meCalls++
		if r.Header.Get("Authorization") != "Bearer "+f.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "invalid token"})
			return
		}
		json.NewEncoder(w).Encode(f.user)
	})
	f.mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		if f.loginFails {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(clients.LoginResponse{Token: f.validToken, User: f.user})
	})
	f.mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		if f.logoutErrs {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	})
	return f
}

func newManagerWithToken(t *testing.T, token string) (*Manager, *MemoryTokenStore, *fakeAPI) {
	t.Helper()
	fake := newFakeAPI()
	srv := httptest.NewServer(fake.mux)
	t.Cleanup(srv.Close)

	api, err := clients.New(clients.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	store := NewMemoryTokenStore(token)
	return NewManager(api, store), store, fake
}

func TestInitializeWithValidToken(t *testing.T) {
	m, _, fake := newManagerWithToken(t, "good-token")

	m.Initialize(context.Background())

	snap := m.Snapshot()
	assert.False(t, snap.Loading)
	require.True(t, snap.Identity.IsAuthenticated())
	user, ok := snap.Identity.User()
	require.True(t, ok, "an authenticated identity must carry its user")
	assert.Equal(t, fake.user.Email, user.Email)
}

func TestInitializeWithRejectedTokenFailsClosed(t *testing.T) {
	m, store, _ := newManagerWithToken(t, "stale-token")

	m.Initialize(context.Background())

	snap := m.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, snap.Identity.IsAuthenticated())
	_, ok := snap.Identity.User()
	assert.False(t, ok)
	assert.Empty(t, store.Current(), "a rejected token must be discarded")
}

func TestInitializeWithoutTokenSkipsVerification(t *testing.T) {
	m, _, fake := newManagerWithToken(t, "")

	m.Initialize(context.Background())

	snap := m.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, snap.Identity.IsAuthenticated())
	assert.Zero(t, fake.meCalls, "no token means no verification round-trip")
}

func TestInitializeOnNetworkErrorFailsClosed(t *testing.T) {
	fake := newFakeAPI()
	srv := httptest.NewServer(fake.mux)
	api, err := clients.New(clients.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	srv.Close() // ambiguous failure: the server is gone

	store := NewMemoryTokenStore("good-token")
	m := NewManager(api, store)

	m.Initialize(context.Background())

	snap := m.Snapshot()
	assert.False(t, snap.Identity.IsAuthenticated(), "must never fail open on an ambiguous error")
	assert.Empty(t, store.Current())
	assert.False(t, snap.Loading)
}

func TestLoginSuccessAdoptsSession(t *testing.T) {
	m, store, fake := newManagerWithToken(t, "")

	require.NoError(t, m.Login(context.Background(), "amina@univ.edu", "s3cret"))

	snap := m.Snapshot()
	require.True(t, snap.Identity.IsAuthenticated())
	user, _ := snap.Identity.User()
	assert.Equal(t, fake.user.Email, user.Email)
	assert.Equal(t, "good-token", store.Current())
}

func TestLoginFailureLeavesSessionUntouched(t *testing.T) {
	m, store, fake := newManagerWithToken(t, "")
	fake.loginFails = true

	err := m.Login(context.Background(), "bad@x.com", "wrong")

	require.Error(t, err)
	var ce *clients.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "invalid credentials", ce.Message)

	snap := m.Snapshot()
	assert.False(t, snap.Identity.IsAuthenticated())
	assert.Empty(t, store.Current())
}

func TestLogoutAlwaysSucceedsClientSide(t *testing.T) {
	m, store, fake := newManagerWithToken(t, "good-token")
	m.Initialize(context.Background())
	require.True(t, m.Snapshot().Identity.IsAuthenticated())

	fake.logoutErrs = true
	m.Logout(context.Background())

	snap := m.Snapshot()
	assert.False(t, snap.Identity.IsAuthenticated())
	assert.Empty(t, store.Current())
}

func TestFileTokenStoreRoundTrip(t *testing.T) {
	path := t.TempDir() + "/session/token.json"
	store := NewFileTokenStore(path)

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token, "missing file means no token")

	require.NoError(t, store.Save("tok-42"))
	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-42", token)

	require.NoError(t, store.Clear())
	token, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
	require.NoError(t, store.Clear(), "clearing twice is fine")
}
