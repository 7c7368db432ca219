// cmd/libraterm/render.go
package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"libraterm/internal/catalog"
	"libraterm/internal/circulation"
)

func renderPublications(w io.Writer, pubs []catalog.Publication) {
	if len(pubs) == 0 {
		fmt.Fprintln(w, "No publications found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tTYPE\tAVAILABLE")
	for _, p := range pubs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\n",
			p.ID, p.Title, p.Author, p.Type, p.AvailableCopies, p.TotalCopies)
	}
	tw.Flush()
}

func renderPublicationDetail(w io.Writer, p *catalog.Publication, canBorrow bool) {
	fmt.Fprintf(w, "%s — %s\n", p.Title, p.Author)
	fmt.Fprintf(w, "  Type: %s", p.Type)
	if p.ISBN != "" {
		fmt.Fprintf(w, "  ISBN: %s", p.ISBN)
	}
	if p.PublicationYear != 0 {
		fmt.Fprintf(w, "  Year: %d", p.PublicationYear)
	}
	fmt.Fprintln(w)
	if p.Publisher != "" {
		fmt.Fprintf(w, "  Publisher: %s\n", p.Publisher)
	}
	if p.Department != "" {
		fmt.Fprintf(w, "  Department: %s\n", p.Department)
	}
	if p.ShelfLocation != "" {
		fmt.Fprintf(w, "  Shelf: %s\n", p.ShelfLocation)
	}
	fmt.Fprintf(w, "  Copies: %d of %d available\n", p.AvailableCopies, p.TotalCopies)
	if p.Description != "" {
		fmt.Fprintf(w, "\n  %s\n", p.Description)
	}
	if canBorrow && p.AvailableCopies > 0 {
		fmt.Fprintf(w, "\nBorrow with: libraterm borrow %s\n", p.ID)
	}
}

// renderBorrows prints loans through the shared projector; no view computes
// overdue state on its own.
func renderBorrows(w io.Writer, recs []circulation.BorrowRecord, currency string) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No borrow records.")
		return
	}

	now := time.Now()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tBORROWER\tSTATUS\tDUE\tFINE")
	for _, rec := range recs {
		p := circulation.Project(rec, now)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID,
			rec.Publication.Title,
			rec.Borrower.Email,
			statusCell(p),
			dueCell(rec),
			circulation.FormatFine(rec.TotalFine, currency),
		)
	}
	tw.Flush()
}

func statusCell(p circulation.Projection) string {
	switch {
	case p.HasDaysOverdue:
		return fmt.Sprintf("%s (%dd late)", p.DisplayStatus, p.DaysOverdue)
	case p.HasDaysUntilDue:
		return fmt.Sprintf("%s (%dd left)", p.DisplayStatus, p.DaysUntilDue)
	default:
		return string(p.DisplayStatus)
	}
}

func dueCell(rec circulation.BorrowRecord) string {
	if rec.DueDate.IsZero() {
		return "-"
	}
	return rec.DueDate.Format("2006-01-02")
}
