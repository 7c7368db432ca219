// internal/circulation/projector_test.go
package circulation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func day(s string) Date {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return Date{Time: t}
}

func TestProjectOverdueLoan(t *testing.T) {
	rec := BorrowRecord{Status: StatusBorrowed, DueDate: day("2025-01-10")}
	now := day("2025-01-15").Time

	p := Project(rec, now)

	assert.Equal(t, DisplayOverdue, p.DisplayStatus)
	require.True(t, p.HasDaysOverdue)
	assert.Equal(t, 5, p.DaysOverdue)
}

func TestProjectLoanDueSoon(t *testing.T) {
	rec := BorrowRecord{Status: StatusBorrowed, DueDate: day("2025-01-20")}
	now := day("2025-01-15").Time

	p := Project(rec, now)

	assert.Equal(t, DisplayBorrowed, p.DisplayStatus)
	assert.False(t, p.HasDaysOverdue)
	require.True(t, p.HasDaysUntilDue)
	assert.Equal(t, 5, p.DaysUntilDue)
}

func TestProjectReturnedLoanIgnoresDates(t *testing.T) {
	returned := day("2025-01-12")
	rec := BorrowRecord{
		Status:           StatusReturned,
		DueDate:          day("2025-01-10"),
		ActualReturnDate: &returned,
	}
	now := day("2025-03-01").Time

	p := Project(rec, now)

	assert.Equal(t, DisplayReturned, p.DisplayStatus)
	assert.False(t, p.HasDaysOverdue, "a late return must not show an overdue figure")
	assert.False(t, p.HasDaysUntilDue)
}

func TestProjectServerOverdueStatusWithFutureDueDate(t *testing.T) {
	// The server may have flipped the status before the client's clock
	// agrees. The status signal alone puts the loan in the Overdue bucket.
	rec := BorrowRecord{Status: StatusOverdue, DueDate: day("2025-01-20")}
	now := day("2025-01-15").Time

	p := Project(rec, now)

	assert.Equal(t, DisplayOverdue, p.DisplayStatus)
	assert.False(t, p.HasDaysOverdue, "days overdue is only reported when strictly positive")
}

func TestProjectMalformedDueDateFailsClosed(t *testing.T) {
	rec := BorrowRecord{Status: StatusBorrowed}

	p := Project(rec, time.Now())

	assert.Equal(t, DisplayBorrowed, p.DisplayStatus)
	assert.False(t, p.HasDaysOverdue)
	assert.False(t, p.HasDaysUntilDue)
}

func TestProjectMalformedDueDateKeepsServerOverdueSignal(t *testing.T) {
	rec := BorrowRecord{Status: StatusOverdue}

	p := Project(rec, time.Now())

	assert.Equal(t, DisplayOverdue, p.DisplayStatus)
	assert.False(t, p.HasDaysOverdue)
}

func TestProjectProperties(t *testing.T) {
	statuses := []Status{StatusBorrowed, StatusOverdue, StatusReturned}
	base := day("2025-01-15").Time

	rapid.Check(t, func(t *rapid.T) {
		rec := BorrowRecord{
			Status:  statuses[rapid.IntRange(0, 2).Draw(t, "status")],
			DueDate: Date{Time: base.AddDate(0, 0, rapid.IntRange(-60, 60).Draw(t, "dueOffset"))},
		}
		now := base.AddDate(0, 0, rapid.IntRange(-30, 30).Draw(t, "nowOffset"))

		first := Project(rec, now)
		second := Project(rec, now)
		assert.Equal(t, first, second, "projection must be a pure function of record and now")

		switch {
		case rec.Status == StatusReturned:
			assert.Equal(t, DisplayReturned, first.DisplayStatus)
			assert.False(t, first.HasDaysOverdue)
		case rec.Status == StatusOverdue || now.After(rec.DueDate.Time):
			assert.Equal(t, DisplayOverdue, first.DisplayStatus)
			if first.HasDaysOverdue {
				assert.Positive(t, first.DaysOverdue)
			}
		default:
			assert.Equal(t, DisplayBorrowed, first.DisplayStatus)
			assert.False(t, first.HasDaysOverdue)
		}
	})
}

func TestFormatFine(t *testing.T) {
	assert.Equal(t, "12.50 USD", FormatFine(decimal.RequireFromString("12.5"), "USD"))
	assert.Equal(t, "—", FormatFine(decimal.Zero, "USD"))
	assert.Equal(t, "—", FormatFine(decimal.NewFromInt(-1), "USD"))
}
