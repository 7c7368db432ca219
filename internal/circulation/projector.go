// internal/circulation/projector.go
package circulation

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// DisplayStatus is the bucket a loan lands in when rendered.
type DisplayStatus string

const (
	DisplayReturned DisplayStatus = "Returned"
	DisplayOverdue  DisplayStatus = "Overdue"
	DisplayBorrowed DisplayStatus = "Borrowed"
)

// Projection is the display-ready view of a BorrowRecord. DaysOverdue and
// DaysUntilDue carry a value only when their Has flag is set.
type Projection struct {
	DisplayStatus   DisplayStatus
	DaysOverdue     int
	HasDaysOverdue  bool
	DaysUntilDue    int
	HasDaysUntilDue bool
}

// Project derives the display status and day counts for one loan at the
// given instant. It is a pure function of the record and now; every view
// must render through it rather than recomputing overdue logic.
//
// The server's "overdue" status value and the client-side date comparison
// are independent signals; either one puts the loan in the Overdue bucket.
// A missing or unparseable due date fails closed to Borrowed with no day
// counts, since this runs on a render path and must not panic.
func Project(rec BorrowRecord, now time.Time) Projection {
	if rec.Status == StatusReturned {
		return Projection{DisplayStatus: DisplayReturned}
	}

	due := rec.DueDate.Time
	if due.IsZero() {
		if rec.Status == StatusOverdue {
			return Projection{DisplayStatus: DisplayOverdue}
		}
		return Projection{DisplayStatus: DisplayBorrowed}
	}

	if rec.Status == StatusOverdue || now.After(due) {
		p := Projection{DisplayStatus: DisplayOverdue}
		if days := ceilDays(now.Sub(due)); days > 0 {
			p.DaysOverdue = days
			p.HasDaysOverdue = true
		}
		return p
	}

	return Projection{
		DisplayStatus:   DisplayBorrowed,
		DaysUntilDue:    ceilDays(due.Sub(now)),
		HasDaysUntilDue: true,
	}
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}

// FormatFine renders a fine amount for display: the amount with a currency
// suffix when anything is owed, a neutral placeholder otherwise. The client
// only formats fines; computing them is the server's job.
func FormatFine(amount decimal.Decimal, currency string) string {
	if amount.IsPositive() {
		return amount.StringFixed(2) + " " + currency
	}
	return "—"
}
