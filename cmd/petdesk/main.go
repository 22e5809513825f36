// Command petdesk manages pets and their tutores against the pet manager API,
// from the shell or from an interactive console.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/petdesk/internal/app"
	"github.com/five82/petdesk/internal/apperr"
	"github.com/five82/petdesk/internal/route"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "petdesk: %v\n", err)
		if errors.Is(err, apperr.ErrSessionExpired) || errors.Is(err, errNotLoggedIn) {
			fmt.Fprintln(os.Stderr, "run 'petdesk login' to start a new session")
		}
		return 1
	}
	return 0
}

var errNotLoggedIn = errors.New("not logged in")

type globalOptions struct {
	configPath string
	apiURL     string
	prefsPath  string
}

func (g *globalOptions) appOptions() app.Options {
	return app.Options{ConfigPath: g.configPath, APIURL: g.apiURL, PrefsPath: g.prefsPath}
}

// open wires the application for one command. The caller closes it.
func (g *globalOptions) open() (*app.App, error) {
	return app.New(g.appOptions())
}

// openAuthenticated is open plus the same check the console's route guard
// applies before showing any collection.
func (g *globalOptions) openAuthenticated() (*app.App, error) {
	a, err := g.open()
	if err != nil {
		return nil, err
	}
	if !route.Allow(a.Session.Authenticated()) {
		_ = a.Close()
		return nil, errNotLoggedIn
	}
	return a, nil
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "petdesk",
		Short:         "Manage pets and tutores",
		Long:          "petdesk talks to the pet manager API. Run 'petdesk login' first, then use the\npets and tutores subcommands or 'petdesk console' for the interactive view.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/petdesk/config.toml)")
	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "API base URL, overrides config and PETDESK_API_URL")
	root.PersistentFlags().StringVar(&opts.prefsPath, "prefs", "", "preferences file (default ~/.config/petdesk/prefs.toml)")

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newPetsCmd(opts),
		newTutoresCmd(opts),
		newConsoleCmd(opts),
		newLogsCmd(opts),
	)
	return root
}

func newConsoleCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Open the interactive console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), opts.appOptions())
		},
	}
}
