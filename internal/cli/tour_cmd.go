package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soyeahso/agentconsole/internal/tour"
)

func newTourCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tour",
		Short: "Inspect or restart the guided tour",
		Long:  "The guided tour runs inside `agentconsole console`. These commands inspect its saved state.",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether the tour has been completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				done, err := a.prefs.TourCompleted()
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				label(w, "Completed", yesNo(done))
				label(w, "Auto start", yesNo(cfg.Tour.AutoStartEnabled()))
				fmt.Fprintln(w)
				for _, s := range tour.Steps() {
					gate := ""
					if s.Gate != "" {
						gate = dim.Sprintf("  (waits for %s)", s.Gate)
					}
					fmt.Fprintf(w, "  %d. %s%s\n", s.Index+1, s.Title, gate)
				}
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Show the tour again on the next console start",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if err := a.tour.Reset(cmd.Context()); err != nil {
					return err
				}
				green.Fprintln(cmd.OutOrStdout(), "Tour reset. It will start the next time you run `agentconsole console`.")
				return nil
			})
		},
	})
	return cmd
}
