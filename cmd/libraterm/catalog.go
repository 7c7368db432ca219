// cmd/libraterm/catalog.go
package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"libraterm/internal/catalog"
	"libraterm/internal/policy"
)

func newPublicationsCmd(a *app) *cobra.Command {
	var pubType string

	cmd := &cobra.Command{
		Use:   "publications",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pubs, err := a.api.ListPublications(cmd.Context(), catalog.PublicationType(pubType))
			if err != nil {
				return a.reportError(err)
			}
			renderPublications(cmd.OutOrStdout(), pubs)
			return nil
		},
	}

	cmd.Flags().StringVar(&pubType, "type", "", `filter by type: "book" or "thesis"`)
	return cmd
}

func newPublicationCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "publication <id>",
		Short: "Show one catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid publication ID %q", args[0])
			}
			pub, err := a.api.GetPublication(cmd.Context(), id)
			if err != nil {
				return a.reportError(err)
			}
			renderPublicationDetail(cmd.OutOrStdout(), pub, a.canBorrow())
			return nil
		},
	}
}

// canBorrow decides whether the borrow affordance is shown. UI gating only;
// the server has the final word.
func (a *app) canBorrow() bool {
	user, ok := a.session.Snapshot().Identity.User()
	return ok && policy.Allows(policy.Role(user.Role), policy.ActionBorrow)
}

func (a *app) requireLibrarian() error {
	user, ok := a.session.Snapshot().Identity.User()
	if !ok {
		return fmt.Errorf("you must be logged in to do this")
	}
	if !policy.Allows(policy.Role(user.Role), policy.ActionManageBorrows) &&
		!policy.Allows(policy.Role(user.Role), policy.ActionManageCatalog) {
		return fmt.Errorf("this requires a librarian account")
	}
	return nil
}

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage catalog entries (librarian)",
	}
	cmd.AddCommand(newCatalogAddCmd(a), newCatalogEditCmd(a), newCatalogDeleteCmd(a))
	return cmd
}

func catalogFlags(cmd *cobra.Command, pub *catalog.Publication) {
	var pubType string
	cmd.Flags().StringVar(&pub.Title, "title", "", "title")
	cmd.Flags().StringVar(&pub.Author, "author", "", "author")
	cmd.Flags().StringVar(&pub.ISBN, "isbn", "", "ISBN")
	cmd.Flags().IntVar(&pub.PublicationYear, "year", 0, "publication year")
	cmd.Flags().StringVar(&pub.Publisher, "publisher", "", "publisher")
	cmd.Flags().StringVar(&pub.Department, "department", "", "department")
	cmd.Flags().StringVar(&pubType, "type", "book", `"book" or "thesis"`)
	cmd.Flags().IntVar(&pub.TotalCopies, "total", 1, "total copies")
	cmd.Flags().IntVar(&pub.AvailableCopies, "available", 1, "available copies")
	cmd.Flags().StringVar(&pub.ShelfLocation, "shelf", "", "shelf location")
	cmd.Flags().StringVar(&pub.Description, "description", "", "description")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		pub.Type = catalog.PublicationType(pubType)
	}
}

func newCatalogAddCmd(a *app) *cobra.Command {
	var pub catalog.Publication

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a catalog entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLibrarian(); err != nil {
				return err
			}
			created, err := a.api.CreatePublication(cmd.Context(), pub)
			if err != nil {
				return a.reportError(err)
			}
			fmt.Printf("Added %q (%s)\n", created.Title, created.ID)
			return nil
		},
	}
	catalogFlags(cmd, &pub)
	return cmd
}

func newCatalogEditCmd(a *app) *cobra.Command {
	var pub catalog.Publication

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace a catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLibrarian(); err != nil {
				return err
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid publication ID %q", args[0])
			}
			pub.ID = id
			updated, err := a.api.UpdatePublication(cmd.Context(), pub)
			if err != nil {
				return a.reportError(err)
			}
			fmt.Printf("Updated %q\n", updated.Title)
			return nil
		},
	}
	catalogFlags(cmd, &pub)
	return cmd
}

func newCatalogDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLibrarian(); err != nil {
				return err
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid publication ID %q", args[0])
			}
			if err := a.api.DeletePublication(cmd.Context(), id); err != nil {
				return a.reportError(err)
			}
			fmt.Println("Deleted.")
			return nil
		},
	}
}
