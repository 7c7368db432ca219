// tests/integration/main_test.go
package integration

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraterm/internal/catalog"
	"libraterm/internal/circulation"
	"libraterm/internal/clients"
	"libraterm/internal/mockapi"
	"libraterm/internal/session"
)

type stack struct {
	server  *mockapi.Server
	api     *clients.Client
	session *session.Manager
	store   *session.MemoryTokenStore
}

func newStack(t *testing.T) *stack {
	t.Helper()
	srv := mockapi.New()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	api, err := clients.New(clients.Config{BaseURL: ts.URL})
	require.NoError(t, err)

	store := session.NewMemoryTokenStore("")
	return &stack{
		server:  srv,
		api:     api,
		session: session.NewManager(api, store),
		store:   store,
	}
}

func TestBorrowLifecycle(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.server.SeedAccount("Amina", "amina@univ.edu", "student", "pw")
	require.NoError(t, err)
	pub := s.server.SeedPublication(catalog.Publication{
		Title: "Compilers", Author: "Aho", Type: catalog.TypeBook,
		TotalCopies: 2, AvailableCopies: 2,
	})

	require.NoError(t, s.session.Login(ctx, "amina@univ.edu", "pw"))

	resp, err := s.api.Borrow(ctx, pub.ID)
	require.NoError(t, err)
	assert.False(t, resp.ReturnDate.IsZero())

	// The dependent re-fetch happens only after the mutation resolved.
	got, err := s.api.GetPublication(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableCopies)

	recs, err := s.api.MyBorrows(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	proj := circulation.Project(recs[0], time.Now())
	assert.Equal(t, circulation.DisplayBorrowed, proj.DisplayStatus)
	require.True(t, proj.HasDaysUntilDue)
	assert.Equal(t, 14, proj.DaysUntilDue)
}

func TestSessionSurvivesRestart(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.server.SeedAccount("Amina", "amina@univ.edu", "student", "pw")
	require.NoError(t, err)
	require.NoError(t, s.session.Login(ctx, "amina@univ.edu", "pw"))

	// A fresh manager with the same store models an app restart.
	reloaded := session.NewManager(s.api, s.store)
	s.api.ClearToken()
	reloaded.Initialize(ctx)

	snap := reloaded.Snapshot()
	require.True(t, snap.Identity.IsAuthenticated())
	user, ok := snap.Identity.User()
	require.True(t, ok)
	assert.Equal(t, "amina@univ.edu", user.Email)
	assert.False(t, snap.Loading)
}

func TestFailedLoginLeavesAnonymousSession(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.server.SeedAccount("Amina", "amina@univ.edu", "student", "pw")
	require.NoError(t, err)

	err = s.session.Login(ctx, "bad@x.com", "wrong")
	require.Error(t, err)

	var ce *clients.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "invalid credentials", ce.Message)

	snap := s.session.Snapshot()
	assert.False(t, snap.Identity.IsAuthenticated())
	_, ok := snap.Identity.User()
	assert.False(t, ok)
}

func TestManualReturnOnClosedLoanSurfacesServerMessage(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.server.SeedAccount("Leila", "leila@univ.edu", "librarian", "pw")
	require.NoError(t, err)
	returned := circulation.Date{Time: time.Now().AddDate(0, 0, -2)}
	rec := s.server.SeedBorrow(circulation.BorrowRecord{
		Borrower:         circulation.Borrower{Email: "amina@univ.edu", Role: "student"},
		Status:           circulation.StatusReturned,
		ActualReturnDate: &returned,
	})

	require.NoError(t, s.session.Login(ctx, "leila@univ.edu", "pw"))

	before, err := s.api.ListBorrows(ctx, clients.BorrowFilter{})
	require.NoError(t, err)

	_, err = s.api.ManualReturn(ctx, rec.ID)
	require.Error(t, err)
	var ce *clients.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, clients.KindRemote, ce.Kind)
	assert.Equal(t, "record already returned", ce.Message)

	// The list is unchanged until a subsequent successful re-fetch.
	after, err := s.api.ListBorrows(ctx, clients.BorrowFilter{})
	require.NoError(t, err)
	assert.Equal(t, before.Total, after.Total)
	assert.Equal(t, before.Records, after.Records)
}

func TestLibrarianOverdueWorkflow(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.server.SeedAccount("Leila", "leila@univ.edu", "librarian", "pw")
	require.NoError(t, err)

	base := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	rec := s.server.SeedBorrow(circulation.BorrowRecord{
		Publication: circulation.PublicationSummary{Title: "Compilers", Author: "Aho", Type: "book"},
		Borrower:    circulation.Borrower{Email: "amina@univ.edu", Role: "student"},
		BorrowDate:  circulation.Date{Time: base.AddDate(0, 0, -19)},
		DueDate:     circulation.Date{Time: base.AddDate(0, 0, -5)},
		Status:      circulation.StatusBorrowed,
	})
	s.server.SetClock(func() time.Time { return base })

	require.NoError(t, s.session.Login(ctx, "leila@univ.edu", "pw"))

	page, err := s.api.ListBorrows(ctx, clients.BorrowFilter{Overdue: true})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)

	proj := circulation.Project(page.Records[0], base)
	assert.Equal(t, circulation.DisplayOverdue, proj.DisplayStatus)
	require.True(t, proj.HasDaysOverdue)
	assert.Equal(t, 5, proj.DaysOverdue)
	assert.Equal(t, "2.5", page.Records[0].TotalFine.String())

	out, err := s.api.ManualReturn(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "2.5", out.Fine.String())

	require.NoError(t, s.api.ClearFine(ctx, rec.ID))

	page, err = s.api.ListBorrows(ctx, clients.BorrowFilter{Status: circulation.StatusReturned})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, circulation.DisplayReturned, circulation.Project(page.Records[0], base).DisplayStatus)
	assert.True(t, page.Records[0].TotalFine.IsZero())
}

func TestRevokedTokenFailsClosedMidSession(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.server.SeedAccount("Amina", "amina@univ.edu", "student", "pw")
	require.NoError(t, err)
	require.NoError(t, s.session.Login(ctx, "amina@univ.edu", "pw"))

	// Server-side revocation: logging out elsewhere invalidates the token.
	require.NoError(t, s.api.Logout(ctx))

	_, err = s.api.MyBorrows(ctx)
	require.True(t, clients.IsAuthInvalid(err))

	s.session.ForceAnonymous()
	assert.False(t, s.session.Snapshot().Identity.IsAuthenticated())
	assert.Empty(t, s.store.Current())
}
