// internal/circulation/domain.go
package circulation

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the raw loan status as stored by the server.
type Status string

const (
	StatusBorrowed Status = "borrowed"
	StatusOverdue  Status = "overdue"
	StatusReturned Status = "returned"
)

// Date wraps time.Time with tolerant JSON decoding. The API emits both
// RFC 3339 timestamps and bare "2006-01-02" dates; anything unparseable
// decodes to the zero value instead of failing the whole record.
type Date struct {
	time.Time
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	d.Time = time.Time{}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(time.RFC3339) + `"`), nil
}

// PublicationSummary is the slice of a catalog entry embedded in a loan.
type PublicationSummary struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	CoverURL string `json:"cover_url,omitempty"`
	Type     string `json:"type"`
}

// Borrower identifies the account holding the loan.
type Borrower struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// BorrowRecord represents one loan of a publication to a borrower.
// The due date travels as "return_date" on the wire; the actual return
// date is set only once the loan is closed.
type BorrowRecord struct {
	ID               uuid.UUID          `json:"id"`
	Publication      PublicationSummary `json:"publication"`
	Borrower         Borrower           `json:"borrower"`
	BorrowDate       Date               `json:"borrow_date"`
	DueDate          Date               `json:"return_date"`
	ActualReturnDate *Date              `json:"actual_return_date,omitempty"`
	Status           Status             `json:"status"`
	TotalFine        decimal.Decimal    `json:"total_fine"`
	FineRate         decimal.Decimal    `json:"fine_rate"`
}
