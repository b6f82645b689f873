package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/soyeahso/agentconsole/internal/session"
)

func newLoginCmd() *cobra.Command {
	var (
		username string
		token    string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the gateway",
		Long: "Sign in with the identity provider configured under auth.tokenUrl, or store an " +
			"existing bearer token with --token.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newSession()
			w := cmd.OutOrStdout()

			if token != "" {
				var expires time.Time
				if ttl > 0 {
					expires = time.Now().Add(ttl)
				}
				if err := p.Save(token, expires); err != nil {
					return err
				}
				green.Fprintln(w, "Token saved.")
				return nil
			}

			if username == "" {
				var err error
				if username, err = promptLine("Username: "); err != nil {
					return err
				}
			}
			password, err := promptPassword("Password: ")
			if err != nil {
				return err
			}

			if err := p.Login(cmd.Context(), username, password); err != nil {
				if errors.Is(err, session.ErrLoginNotConfigured) {
					return fmt.Errorf("%w (or use --token)", err)
				}
				return err
			}
			green.Fprintf(w, "Signed in as %s.\n", username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account name (prompted when omitted)")
	cmd.Flags().StringVar(&token, "token", "", "store this bearer token instead of signing in")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "expiry for a token given with --token")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newSession().Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := newSession().Claims(); err != nil {
				return err
			}
			heading(cmd.OutOrStdout(), "Identity")
			printSession(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// confirm asks a yes/no question; anything but y or yes is a no.
func confirm(prompt string) (bool, error) {
	answer, err := promptLine(prompt)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
