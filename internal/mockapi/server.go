// internal/mockapi/server.go

// Package mockapi is an in-memory stand-in for the university library
// service. It implements the full REST contract the client speaks, with
// real credential hashing and role enforcement, so the CLI can be exercised
// locally and the integration tests can run without a network.
package mockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"libraterm/internal/catalog"
	"libraterm/internal/circulation"
	"libraterm/internal/clients"
	"libraterm/internal/policy"
)

const (
	loanPeriodDays = 14
	pageSize       = 20
)

var defaultFineRate = decimal.RequireFromString("0.50") // per day

// Server is the mock library service.
type Server struct {
	store        *store
	router       chi.Router
	loginLimiter *rate.Limiter
	now          func() time.Time
}

// New creates a mock server with an empty store.
func New() *Server {
	s := &Server{
		store:        newStore(),
		loginLimiter: rate.NewLimiter(rate.Every(time.Second), 30),
		now:          time.Now,
	}
	s.routes()
	return s
}

// SetClock overrides the server's notion of now. Tests use it to age loans.
func (s *Server) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()

	r.Post("/login", s.handleLogin)
	r.Get("/publications", s.handleListPublications)
	r.Get("/publications/{id}", s.handleGetPublication)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/logout", s.handleLogout)
		r.Get("/me", s.handleMe)
		r.Post("/publications/{id}/borrow", s.handleBorrow)
		r.Get("/my-borrows", s.handleMyBorrows)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth, s.requireLibrarian)
		r.Post("/publications", s.handleCreatePublication)
		r.Put("/publications/{id}", s.handleUpdatePublication)
		r.Delete("/publications/{id}", s.handleDeletePublication)
		r.Get("/borrows", s.handleListBorrows)
		r.Post("/borrows/{id}/manual-return", s.handleManualReturn)
		r.Post("/borrows/{id}/clear-fine", s.handleClearFine)
	})

	s.router = r
}

// --- seeding -------------------------------------------------------------

// SeedAccount registers a user with a password and returns its identity.
func (s *Server) SeedAccount(name, email, role, password string) (clients.User, error) {
	hash, salt, err := hashPassword(password)
	if err != nil {
		return clients.User{}, err
	}
	user := clients.User{ID: uuid.New(), Name: name, Email: email, Role: role}

	s.store.mu.Lock()
	s.store.accounts[email] = &account{user: user, passwordHash: hash, salt: salt}
	s.store.mu.Unlock()
	return user, nil
}

// SeedPublication adds a catalog entry, assigning an ID when absent.
func (s *Server) SeedPublication(pub catalog.Publication) catalog.Publication {
	if pub.ID == uuid.Nil {
		pub.ID = uuid.New()
	}
	s.store.mu.Lock()
	s.store.publications[pub.ID] = &pub
	s.store.mu.Unlock()
	return pub
}

// SeedBorrow creates a loan directly, bypassing the HTTP surface. Tests use
// it to construct overdue and returned records.
func (s *Server) SeedBorrow(rec circulation.BorrowRecord) circulation.BorrowRecord {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.FineRate.IsZero() {
		rec.FineRate = defaultFineRate
	}
	s.store.mu.Lock()
	s.store.borrows[rec.ID] = &rec
	s.store.mu.Unlock()
	return rec
}

// --- middleware ----------------------------------------------------------

type contextKey string

const accountKey contextKey = "account"

func withAccount(ctx context.Context, acct *account) context.Context {
	return context.WithValue(ctx, accountKey, acct)
}

func accountFrom(r *http.Request) *account {
	acct, _ := r.Context().Value(accountKey).(*account)
	return acct
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		acct, ok := s.store.accountByToken(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withAccount(r.Context(), acct)))
	})
}

func (s *Server) requireLibrarian(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acct := accountFrom(r)
		if policy.Role(acct.user.Role) != policy.RoleLibrarian {
			writeError(w, http.StatusForbidden, "librarian role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- auth handlers -------------------------------------------------------

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.loginLimiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed login request")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	acct, ok := s.store.accounts[req.Email]
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	match, err := verifyPassword(req.Password, acct.salt, acct.passwordHash)
	if err != nil || !match {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token := uuid.NewString()
	s.store.tokens[token] = acct.user.Email
	writeJSON(w, http.StatusOK, clients.LoginResponse{Token: token, User: acct.user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := bearerToken(r)
	s.store.mu.Lock()
	delete(s.store.tokens, token)
	s.store.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, accountFrom(r).user)
}

// --- catalog handlers ----------------------------------------------------

func (s *Server) handleListPublications(w http.ResponseWriter, r *http.Request) {
	pubType := catalog.PublicationType(r.URL.Query().Get("type"))
	writeJSON(w, http.StatusOK, s.store.listPublications(pubType))
}

func (s *Server) handleGetPublication(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid publication ID")
		return
	}

	s.store.mu.RLock()
	pub, ok := s.store.publications[id]
	s.store.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "publication not found")
		return
	}
	writeJSON(w, http.StatusOK, pub)
}

func (s *Server) handleCreatePublication(w http.ResponseWriter, r *http.Request) {
	var pub catalog.Publication
	if err := json.NewDecoder(r.Body).Decode(&pub); err != nil {
		writeError(w, http.StatusBadRequest, "malformed publication")
		return
	}
	if err := pub.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	pub.ID = uuid.New()

	s.store.mu.Lock()
	s.store.publications[pub.ID] = &pub
	s.store.mu.Unlock()
	writeJSON(w, http.StatusCreated, pub)
}

func (s *Server) handleUpdatePublication(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid publication ID")
		return
	}
	var pub catalog.Publication
	if err := json.NewDecoder(r.Body).Decode(&pub); err != nil {
		writeError(w, http.StatusBadRequest, "malformed publication")
		return
	}
	pub.ID = id
	if err := pub.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if _, ok := s.store.publications[id]; !ok {
		writeError(w, http.StatusNotFound, "publication not found")
		return
	}
	s.store.publications[id] = &pub
	writeJSON(w, http.StatusOK, pub)
}

func (s *Server) handleDeletePublication(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid publication ID")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if _, ok := s.store.publications[id]; !ok {
		writeError(w, http.StatusNotFound, "publication not found")
		return
	}
	delete(s.store.publications, id)
	w.WriteHeader(http.StatusNoContent)
}

// --- circulation handlers ------------------------------------------------

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r)
	if !policy.Allows(policy.Role(acct.user.Role), policy.ActionBorrow) {
		writeError(w, http.StatusForbidden, "your role cannot borrow publications")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid publication ID")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	pub, ok := s.store.publications[id]
	if !ok {
		writeError(w, http.StatusNotFound, "publication not found")
		return
	}
	if pub.AvailableCopies <= 0 {
		writeError(w, http.StatusConflict, "no copies available")
		return
	}
	pub.AvailableCopies--

	now := s.now()
	rec := &circulation.BorrowRecord{
		ID: uuid.New(),
		Publication: circulation.PublicationSummary{
			Title:    pub.Title,
			Author:   pub.Author,
			CoverURL: pub.CoverURL,
			Type:     string(pub.Type),
		},
		Borrower:   circulation.Borrower{Email: acct.user.Email, Role: acct.user.Role},
		BorrowDate: circulation.Date{Time: now},
		DueDate:    circulation.Date{Time: now.AddDate(0, 0, loanPeriodDays)},
		Status:     circulation.StatusBorrowed,
		TotalFine:  decimal.Zero,
		FineRate:   defaultFineRate,
	}
	s.store.borrows[rec.ID] = rec

	writeJSON(w, http.StatusCreated, clients.BorrowResponse{ID: rec.ID, ReturnDate: rec.DueDate})
}

func (s *Server) handleMyBorrows(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r)
	s.refreshLoans()

	out := make([]circulation.BorrowRecord, 0)
	for _, rec := range s.store.listBorrows() {
		if rec.Borrower.Email == acct.user.Email {
			out = append(out, *rec)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListBorrows(w http.ResponseWriter, r *http.Request) {
	s.refreshLoans()

	statusFilter := circulation.Status(r.URL.Query().Get("status"))
	overdueOnly := r.URL.Query().Get("overdue") == "true"
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	matched := make([]circulation.BorrowRecord, 0)
	for _, rec := range s.store.listBorrows() {
		if statusFilter != "" && rec.Status != statusFilter {
			continue
		}
		if overdueOnly && rec.Status != circulation.StatusOverdue {
			continue
		}
		matched = append(matched, *rec)
	}

	total := len(matched)
	pages := (total + pageSize - 1) / pageSize
	if pages == 0 {
		pages = 1
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	writeJSON(w, http.StatusOK, clients.BorrowPage{
		Records: matched[start:end],
		Total:   total,
		Page:    page,
		Pages:   pages,
	})
}

func (s *Server) handleManualReturn(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid borrow ID")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	rec, ok := s.store.borrows[id]
	if !ok {
		writeError(w, http.StatusNotFound, "borrow record not found")
		return
	}
	if rec.Status == circulation.StatusReturned {
		writeError(w, http.StatusConflict, "record already returned")
		return
	}

	now := s.now()
	rec.TotalFine = accruedFine(rec, now)
	rec.Status = circulation.StatusReturned
	returned := circulation.Date{Time: now}
	rec.ActualReturnDate = &returned

	for _, pub := range s.store.publications {
		if pub.Title == rec.Publication.Title && pub.AvailableCopies < pub.TotalCopies {
			pub.AvailableCopies++
			break
		}
	}

	writeJSON(w, http.StatusOK, clients.ManualReturnResponse{Fine: rec.TotalFine})
}

func (s *Server) handleClearFine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid borrow ID")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	rec, ok := s.store.borrows[id]
	if !ok {
		writeError(w, http.StatusNotFound, "borrow record not found")
		return
	}
	rec.TotalFine = decimal.Zero
	w.WriteHeader(http.StatusNoContent)
}

// refreshLoans flips open loans past their due date to overdue and accrues
// their running fine, mirroring the background job the real service runs.
func (s *Server) refreshLoans() {
	now := s.now()
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for _, rec := range s.store.borrows {
		if rec.Status == circulation.StatusReturned {
			continue
		}
		if now.After(rec.DueDate.Time) {
			rec.Status = circulation.StatusOverdue
			rec.TotalFine = accruedFine(rec, now)
		}
	}
}

// accruedFine is fine rate × whole days past due, never negative.
func accruedFine(rec *circulation.BorrowRecord, now time.Time) decimal.Decimal {
	if !now.After(rec.DueDate.Time) {
		return rec.TotalFine
	}
	days := int64(now.Sub(rec.DueDate.Time).Hours() / 24)
	if days <= 0 {
		return rec.TotalFine
	}
	return rec.FineRate.Mul(decimal.NewFromInt(days))
}

// --- helpers -------------------------------------------------------------

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
