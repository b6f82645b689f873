package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/soyeahso/agentconsole/internal/config"
	"github.com/soyeahso/agentconsole/internal/session"
	"github.com/soyeahso/agentconsole/internal/store"
	"github.com/soyeahso/agentconsole/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, session, and local state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			cyan.Fprintf(w, "agentconsole %s\n", version.Info())

			heading(w, "Paths")
			label(w, "Config", paths.Config)
			label(w, "Session", paths.Session)
			label(w, "Database", paths.Database)

			heading(w, "Gateway")
			label(w, "Base URL", cfg.Gateway.BaseURL)
			label(w, "Timeout", cfg.Gateway.Timeout.String())
			label(w, "Login", orNone(cfg.Auth.TokenURL))
			label(w, "Polling", fmt.Sprintf("%d x %s", cfg.Creation.PollAttempts, cfg.Creation.PollInterval))

			heading(w, "Session")
			printSession(w)

			heading(w, "Tour")
			if db, err := openStore(); err != nil {
				label(w, "Completed", "unknown ("+err.Error()+")")
			} else {
				done, err := store.NewPreferences(db).TourCompleted()
				db.Close()
				if err != nil {
					label(w, "Completed", "unknown ("+err.Error()+")")
				} else {
					label(w, "Completed", yesNo(done))
				}
			}

			if issues := config.Validate(&cfg); len(issues) > 0 {
				fmt.Fprintln(w)
				yellow.Fprintf(w, "  Validation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(w, "    - %s\n", issue)
				}
			}
			fmt.Fprintln(w)
			return nil
		},
	}
}

func printSession(w io.Writer) {
	p := newSession()
	claims, err := p.Claims()
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		green.Fprintf(w, "  %-14s", "Signed in:")
		color.New(color.FgRed).Fprintln(w, "no")
		return
	case err != nil:
		label(w, "Signed in", "unknown ("+err.Error()+")")
		return
	}

	if _, err := p.Token(context.Background()); err != nil {
		green.Fprintf(w, "  %-14s", "Signed in:")
		color.New(color.FgRed).Fprintln(w, "expired")
	} else {
		label(w, "Signed in", "yes")
	}
	if claims.Subject != "" {
		label(w, "Subject", claims.Subject)
	}
	if claims.Email != "" {
		label(w, "Email", claims.Email)
	}
	if !claims.ExpiresAt.IsZero() {
		label(w, "Expires", claims.ExpiresAt.Local().Format(time.RFC1123)+" ("+until(claims.ExpiresAt)+")")
	}
}

func until(t time.Time) string {
	d := time.Until(t).Round(time.Minute)
	if d < 0 {
		return (-d).String() + " ago"
	}
	return "in " + d.String()
}
