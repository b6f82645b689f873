package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newTranscriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transcript",
		Aliases: []string{"transcripts", "history"},
		Short:   "Browse locally saved chat sessions",
	}
	cmd.AddCommand(newTranscriptListCmd())
	cmd.AddCommand(newTranscriptShowCmd())
	cmd.AddCommand(newTranscriptSearchCmd())
	return cmd
}

// resolveAgentID maps a name or id to an agent ID. Transcripts are local, so
// when the gateway cannot answer the reference is used as given.
func (a *app) resolveAgentID(ctx context.Context, ref string) string {
	ag, err := a.agents.Get(ctx, ref)
	if err != nil {
		log.Debug().Err(err).Str("ref", ref).Msg("using agent reference as id")
		return ref
	}
	return ag.AgentID
}

func newTranscriptListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list <agent>",
		Short: "List chat sessions with an agent, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				agentID := a.resolveAgentID(cmd.Context(), args[0])
				sessions, err := a.transcripts.ListForAgent(agentID, limit)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(sessions) == 0 {
					dim.Fprintln(w, "  No saved chats.")
					return nil
				}
				cyan.Fprintf(w, "  %-36s  %-16s  %-16s\n", "SESSION", "STARTED", "LAST ACTIVE")
				for _, s := range sessions {
					fmt.Fprintf(w, "  %-36s  %-16s  %-16s\n", s.ID,
						s.CreatedAt.Local().Format("2006-01-02 15:04"),
						s.UpdatedAt.Local().Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum sessions to list")
	return cmd
}

func newTranscriptShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a saved chat session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				s, err := a.transcripts.Get(args[0])
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				heading(w, "Session "+s.ID)
				label(w, "Agent", s.AgentID)
				label(w, "Alias", orNone(s.AliasID))
				fmt.Fprintln(w)
				printTranscript(w, s.Messages)
				return nil
			})
		},
	}
}

func newTranscriptSearchCmd() *cobra.Command {
	var (
		agent string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over saved chat messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				agentID := ""
				if agent != "" {
					agentID = a.resolveAgentID(cmd.Context(), agent)
				}
				hits, err := a.transcripts.Search(agentID, args[0], limit)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(hits) == 0 {
					dim.Fprintln(w, "  No matches.")
					return nil
				}
				for _, h := range hits {
					dim.Fprintf(w, "  %s  %s\n", h.SessionID, h.AgentID)
					fmt.Fprintf(w, "    %s: %s\n", h.Role, truncate(h.Content, 100))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&agent, "agent", "a", "", "only search chats with this agent")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum matches")
	return cmd
}
