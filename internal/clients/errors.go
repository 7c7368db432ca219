// internal/clients/errors.go
package clients

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Kind classifies every failure the API client can surface. Call sites
// switch on the kind; they never inspect HTTP responses themselves.
type Kind int

const (
	// KindNetwork means the request never reached the server.
	KindNetwork Kind = iota
	// KindRemote is a non-2xx response that is not an auth failure.
	KindRemote
	// KindAuthRequired means the call needs a bearer token and none is set.
	KindAuthRequired
	// KindAuthInvalid means the server rejected the presented token.
	KindAuthInvalid
	// KindPermissionDenied means the caller's role does not allow the action.
	KindPermissionDenied
)

const genericRemoteMessage = "the library service reported an error"
const genericNetworkMessage = "could not reach the library service"

// Error is the one error shape produced by the client.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// ErrInFlight is returned when a mutating call for a record is attempted
// while a previous one for the same record is still outstanding.
var ErrInFlight = errors.New("action already in progress for this record")

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: genericNetworkMessage, cause: err}
}

func authRequiredError() *Error {
	return &Error{Kind: KindAuthRequired, Message: "you must be logged in to do this"}
}

// normalizeResponse converts a non-2xx response into a typed error,
// extracting the server's message/error body field when one is present.
func normalizeResponse(resp *http.Response) *Error {
	msg := remoteMessage(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if msg == "" {
			msg = "your session is no longer valid"
		}
		return &Error{Kind: KindAuthInvalid, StatusCode: resp.StatusCode, Message: msg}
	case http.StatusForbidden:
		if msg == "" {
			msg = "you are not allowed to perform this action"
		}
		return &Error{Kind: KindPermissionDenied, StatusCode: resp.StatusCode, Message: msg}
	default:
		if msg == "" {
			msg = genericRemoteMessage
		}
		return &Error{Kind: KindRemote, StatusCode: resp.StatusCode, Message: msg}
	}
}

func remoteMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// KindOf reports the kind of a client error, with ok false for errors that
// did not come from this package.
func KindOf(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}

// IsAuthInvalid reports whether err means the session token was rejected.
func IsAuthInvalid(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindAuthInvalid
}

// IsPermissionDenied reports whether err is a role mismatch.
func IsPermissionDenied(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindPermissionDenied
}

// IsNetwork reports whether the request never reached the server.
func IsNetwork(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindNetwork
}
