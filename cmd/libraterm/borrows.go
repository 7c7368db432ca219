// cmd/libraterm/borrows.go
package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"libraterm/internal/circulation"
	"libraterm/internal/clients"
)

func newBorrowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <publication-id>",
		Short: "Borrow a publication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.session.Snapshot().Identity.IsAuthenticated() {
				return fmt.Errorf("please log in before borrowing")
			}
			if !a.canBorrow() {
				return fmt.Errorf("your role cannot borrow publications")
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid publication ID %q", args[0])
			}

			resp, err := a.api.Borrow(cmd.Context(), id)
			if err != nil {
				return a.reportError(err)
			}
			fmt.Printf("Borrowed. Due back %s.\n", resp.ReturnDate.Format("2006-01-02"))
			return nil
		},
	}
}

func newMyBorrowsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "my-borrows",
		Short: "List your loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := a.api.MyBorrows(cmd.Context())
			if err != nil {
				return a.reportError(err)
			}
			renderBorrows(cmd.OutOrStdout(), recs, a.cfg.Currency)
			return nil
		},
	}
}

func newBorrowsCmd(a *app) *cobra.Command {
	var (
		status  string
		overdue bool
		page    int
	)

	cmd := &cobra.Command{
		Use:   "borrows",
		Short: "List all loans (librarian)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLibrarian(); err != nil {
				return err
			}
			result, err := a.api.ListBorrows(cmd.Context(), clients.BorrowFilter{
				Status:  circulation.Status(status),
				Overdue: overdue,
				Page:    page,
			})
			if err != nil {
				return a.reportError(err)
			}
			renderBorrows(cmd.OutOrStdout(), result.Records, a.cfg.Currency)
			fmt.Printf("Page %d of %d (%d records)\n", result.Page, result.Pages, result.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by raw status: borrowed, overdue, returned")
	cmd.Flags().BoolVar(&overdue, "overdue", false, "only overdue loans")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func newManualReturnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "manual-return <borrow-id>",
		Short: "Close a loan on the borrower's behalf (librarian)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLibrarian(); err != nil {
				return err
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid borrow ID %q", args[0])
			}

			resp, err := a.api.ManualReturn(cmd.Context(), id)
			if err != nil {
				return a.reportError(err)
			}
			fmt.Printf("Returned. Fine assessed: %s\n", circulation.FormatFine(resp.Fine, a.cfg.Currency))

			// Re-fetch only after the mutation response has been observed.
			result, err := a.api.ListBorrows(cmd.Context(), clients.BorrowFilter{})
			if err != nil {
				return a.reportError(err)
			}
			renderBorrows(cmd.OutOrStdout(), result.Records, a.cfg.Currency)
			return nil
		},
	}
}

func newClearFineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-fine <borrow-id>",
		Short: "Clear the outstanding fine on a loan (librarian)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLibrarian(); err != nil {
				return err
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid borrow ID %q", args[0])
			}

			if err := a.api.ClearFine(cmd.Context(), id); err != nil {
				return a.reportError(err)
			}
			fmt.Println("Fine cleared.")
			return nil
		},
	}
}
