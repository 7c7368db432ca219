// internal/clients/api_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"libraterm/internal/catalog"
	"libraterm/internal/circulation"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultMaxBodySize = 1 << 20 // 1MiB
)

// User is the identity payload returned by the verification and login
// endpoints.
type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// LoginResponse is the payload of a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// BorrowResponse is the payload of a successful borrow action.
type BorrowResponse struct {
	ID         uuid.UUID        `json:"id"`
	ReturnDate circulation.Date `json:"return_date"`
}

// ManualReturnResponse carries the fine assessed when a librarian closes
// a loan by hand.
type ManualReturnResponse struct {
	Fine decimal.Decimal `json:"fine"`
}

// BorrowPage is one page of the librarian-facing loan listing.
type BorrowPage struct {
	Records []circulation.BorrowRecord `json:"records"`
	Total   int                        `json:"total"`
	Page    int                        `json:"page"`
	Pages   int                        `json:"pages"`
}

// BorrowFilter narrows the librarian loan listing.
type BorrowFilter struct {
	Status  circulation.Status
	Overdue bool
	Page    int
}

// Config configures the API client.
type Config struct {
	// BaseURL is the base URL of the library service (e.g. https://lib.univ.edu/api).
	BaseURL string
	// HTTPClient is used to execute requests. When nil, a default client
	// with a conservative timeout is used.
	HTTPClient *http.Client
	// MaxBodyBytes caps response bodies to prevent memory exhaustion.
	MaxBodyBytes int64
}

// Client is the typed client for the library REST API. It is the single
// boundary where HTTP failures become the typed error taxonomy; everything
// above it only ever sees *Error values.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	maxBodyBytes int64
	token        atomicToken
	guard        *actionGuard
	loginLimiter *rate.Limiter
	tracer       trace.Tracer
}

// New creates a new library API client.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("clients: BaseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("clients: BaseURL must be a valid URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("clients: BaseURL scheme must be http or https")
	}
	if parsed.User != nil {
		return nil, fmt.Errorf("clients: BaseURL must not include user info")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if client.Timeout == 0 {
		client.Timeout = defaultTimeout
	}

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodySize
	}

	return &Client{
		baseURL:      baseURL,
		httpClient:   client,
		maxBodyBytes: maxBodyBytes,
		guard:        newActionGuard(),
		loginLimiter: rate.NewLimiter(rate.Every(1*time.Minute), 5), // 5 attempts per minute
		tracer:       otel.Tracer("libraterm/clients"),
	}, nil
}

// SetToken attaches a bearer credential to all subsequent requests.
func (c *Client) SetToken(token string) {
	c.token.store(token)
}

// ClearToken removes the outbound bearer credential.
func (c *Client) ClearToken() {
	c.token.store("")
}

// Me verifies the current token and returns the identity it belongs to.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/me", nil, nil, true, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token and identity. The token is not
// attached to the client; the session manager decides whether to adopt it.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	if !c.loginLimiter.Allow() {
		return nil, &Error{Kind: KindRemote, Message: "too many login attempts, try again shortly"}
	}
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login", nil, req, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the current token server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil, true, nil)
}

// ListPublications fetches the catalog, optionally narrowed to one type.
func (c *Client) ListPublications(ctx context.Context, pubType catalog.PublicationType) ([]catalog.Publication, error) {
	query := url.Values{}
	if pubType != "" {
		query.Set("type", string(pubType))
	}
	var pubs []catalog.Publication
	if err := c.do(ctx, http.MethodGet, "/publications", query, nil, false, &pubs); err != nil {
		return nil, err
	}
	return pubs, nil
}

// GetPublication fetches one catalog entry.
func (c *Client) GetPublication(ctx context.Context, id uuid.UUID) (*catalog.Publication, error) {
	var pub catalog.Publication
	if err := c.do(ctx, http.MethodGet, "/publications/"+id.String(), nil, nil, false, &pub); err != nil {
		return nil, err
	}
	return &pub, nil
}

// CreatePublication adds a catalog entry. Librarian only.
func (c *Client) CreatePublication(ctx context.Context, pub catalog.Publication) (*catalog.Publication, error) {
	if err := pub.Validate(); err != nil {
		return nil, err
	}
	var created catalog.Publication
	if err := c.do(ctx, http.MethodPost, "/publications", nil, pub, true, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdatePublication replaces a catalog entry. Librarian only.
func (c *Client) UpdatePublication(ctx context.Context, pub catalog.Publication) (*catalog.Publication, error) {
	if err := pub.Validate(); err != nil {
		return nil, err
	}
	var updated catalog.Publication
	if err := c.do(ctx, http.MethodPut, "/publications/"+pub.ID.String(), nil, pub, true, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePublication removes a catalog entry. Librarian only.
func (c *Client) DeletePublication(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/publications/"+id.String(), nil, nil, true, nil)
}

// Borrow takes out a loan on a publication for the current user.
func (c *Client) Borrow(ctx context.Context, publicationID uuid.UUID) (*BorrowResponse, error) {
	key := "borrow/" + publicationID.String()
	if !c.guard.begin(key) {
		return nil, ErrInFlight
	}
	defer c.guard.end(key)

	var out BorrowResponse
	if err := c.do(ctx, http.MethodPost, "/publications/"+publicationID.String()+"/borrow", nil, nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyBorrows fetches the current user's loans.
func (c *Client) MyBorrows(ctx context.Context) ([]circulation.BorrowRecord, error) {
	var recs []circulation.BorrowRecord
	if err := c.do(ctx, http.MethodGet, "/my-borrows", nil, nil, true, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// ListBorrows fetches one page of all loans. Librarian only.
func (c *Client) ListBorrows(ctx context.Context, filter BorrowFilter) (*BorrowPage, error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.Overdue {
		query.Set("overdue", "true")
	}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	var page BorrowPage
	if err := c.do(ctx, http.MethodGet, "/borrows", query, nil, true, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ManualReturn closes a loan on the borrower's behalf. Librarian only.
func (c *Client) ManualReturn(ctx context.Context, borrowID uuid.UUID) (*ManualReturnResponse, error) {
	key := "manual-return/" + borrowID.String()
	if !c.guard.begin(key) {
		return nil, ErrInFlight
	}
	defer c.guard.end(key)

	var out ManualReturnResponse
	if err := c.do(ctx, http.MethodPost, "/borrows/"+borrowID.String()+"/manual-return", nil, nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearFine wipes the outstanding fine on a loan. Librarian only.
func (c *Client) ClearFine(ctx context.Context, borrowID uuid.UUID) error {
	key := "clear-fine/" + borrowID.String()
	if !c.guard.begin(key) {
		return ErrInFlight
	}
	defer c.guard.end(key)

	return c.do(ctx, http.MethodPost, "/borrows/"+borrowID.String()+"/clear-fine", nil, nil, true, nil)
}

// do executes one request. The mutating call's response is fully observed
// before do returns, so a caller's follow-up re-fetch can never race the
// mutation.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, authed bool, out any) error {
	token := c.token.load()
	if authed && token == "" {
		return authRequiredError()
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader = http.NoBody
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindRemote, Message: "encode request", cause: err}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return &Error{Kind: KindRemote, Message: "create request", cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	ctx, span := c.tracer.Start(ctx, "library.api_call",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		))
	defer span.End()
	req = req.WithContext(ctx)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return networkError(err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		nerr := normalizeResponse(resp)
		span.RecordError(nerr)
		return nerr
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodyBytes))
		return nil
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		return &Error{Kind: KindRemote, Message: "decode response", cause: err}
	}
	return nil
}
