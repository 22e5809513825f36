package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/petdesk/internal/prefs"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func newLoginCmd(opts *globalOptions) *cobra.Command {
	var (
		username      string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store the session",
		Long: `Authenticate against the pet manager API and store the token pair in the
configured credential backend.

Example:
  petdesk login --username admin
  echo "$PASSWORD" | petdesk login --username admin --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.ErrOrStderr()
			if username == "" {
				username = prefs.Load(opts.prefsPath).Username
			}
			if username == "" {
				if username, err = prompt(in, out, "Username: "); err != nil {
					return err
				}
			}
			var password string
			if passwordStdin {
				password, err = readLine(in)
			} else {
				password, err = promptPassword(out)
			}
			if err != nil {
				return err
			}

			cred, err := a.Session.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			_ = prefs.Update(opts.prefsPath, func(p *prefs.Prefs) { p.Username = username })
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s%s\n", username, expiresSuffix(cred.ExpiresAt))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (default: last used)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newLogoutCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			if err := a.Session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session and configuration in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			st := a.Session.Status()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "api_url:       %s\n", a.Config.APIURL)
			fmt.Fprintf(w, "credentials:   %s (%s)\n", a.Config.CredentialBackend, a.Config.CredentialPath)
			fmt.Fprintf(w, "authenticated: %t\n", st.Authenticated)
			if st.ExpiresAt != nil {
				fmt.Fprintf(w, "expires_at:    %s\n", st.ExpiresAt.Local().Format(time.RFC3339))
			}
			return nil
		},
	}
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	return readLine(in)
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func promptPassword(out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func expiresSuffix(at *time.Time) string {
	if at == nil {
		return ""
	}
	return fmt.Sprintf(" (token expires %s)", at.Local().Format(time.RFC3339))
}
