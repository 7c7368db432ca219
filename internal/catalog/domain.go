// internal/catalog/domain.go
package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PublicationType distinguishes the two kinds of catalog entries.
type PublicationType string

const (
	TypeBook   PublicationType = "book"
	TypeThesis PublicationType = "thesis"
)

// Publication represents a catalog entry, either a book or a thesis.
type Publication struct {
	ID              uuid.UUID       `json:"id"`
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	ISBN            string          `json:"isbn,omitempty"`
	PublicationYear int             `json:"publication_year,omitempty"`
	Publisher       string          `json:"publisher,omitempty"`
	Department      string          `json:"department,omitempty"`
	Type            PublicationType `json:"type"`
	TotalCopies     int             `json:"total_copies"`
	AvailableCopies int             `json:"available_copies"`
	ShelfLocation   string          `json:"shelf_location,omitempty"`
	Description     string          `json:"description,omitempty"`
	CoverURL        string          `json:"cover_url,omitempty"`
}

// ValidationError reports a form-level constraint violation caught before
// any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the client-side constraints on a publication before it is
// submitted to the catalog.
func (p *Publication) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(p.Author) == "" {
		return &ValidationError{Field: "author", Reason: "must not be empty"}
	}
	if p.Type != TypeBook && p.Type != TypeThesis {
		return &ValidationError{Field: "type", Reason: `must be "book" or "thesis"`}
	}
	if p.TotalCopies < 0 {
		return &ValidationError{Field: "total_copies", Reason: "must not be negative"}
	}
	if p.AvailableCopies < 0 {
		return &ValidationError{Field: "available_copies", Reason: "must not be negative"}
	}
	if p.AvailableCopies > p.TotalCopies {
		return &ValidationError{Field: "available_copies", Reason: "must not exceed total copies"}
	}
	return nil
}
