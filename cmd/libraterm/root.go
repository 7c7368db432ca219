// cmd/libraterm/root.go
package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"libraterm/internal/clients"
	"libraterm/internal/config"
	"libraterm/internal/session"
)

// app carries the wired-up dependencies every command shares.
type app struct {
	cfg      config.Config
	api      *clients.Client
	session  *session.Manager
	shutdown func()
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var configPath string

	root := &cobra.Command{
		Use:   "libraterm",
		Short: "Terminal client for the university library service",
		Long: `libraterm browses the catalog, manages loans and, for librarians,
the borrow records of every member — all against the remote library API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			api, err := clients.New(clients.Config{
				BaseURL:    cfg.BaseURL,
				HTTPClient: &http.Client{Timeout: cfg.Timeout()},
			})
			if err != nil {
				return err
			}

			shutdown, err := setupTracing(cmd.Context(), cfg.OTLPEndpoint)
			if err != nil {
				return fmt.Errorf("set up tracing: %w", err)
			}

			a.cfg = cfg
			a.api = api
			a.session = session.NewManager(api, session.NewFileTokenStore(cfg.TokenFile))
			a.shutdown = shutdown

			a.session.Initialize(cmd.Context())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.shutdown != nil {
				a.shutdown()
			}
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "path to the config file")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newPublicationsCmd(a),
		newPublicationCmd(a),
		newBorrowCmd(a),
		newMyBorrowsCmd(a),
		newBorrowsCmd(a),
		newManualReturnCmd(a),
		newClearFineCmd(a),
		newCatalogCmd(a),
	)

	return root
}

// reportError turns a client error into the message the user sees. A
// rejected token additionally forces the session back to anonymous so the
// next command prompts for login instead of failing the same way.
func (a *app) reportError(err error) error {
	if clients.IsAuthInvalid(err) {
		a.session.ForceAnonymous()
		return fmt.Errorf("your session has expired, please log in again")
	}
	return err
}
