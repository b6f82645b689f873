package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/agentconsole/internal/chat"
	"github.com/soyeahso/agentconsole/internal/domain"
)

func newChatCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "chat <agent>",
		Short: "Chat with an agent",
		Long: "Open a chat with an agent. Each line you type is sent as one message; " +
			"type /exit or press Ctrl-D to leave. With -m a single message is sent and the reply printed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return withApp(func(a *app) error {
				ag, err := a.agents.Get(ctx, args[0])
				if err != nil {
					return err
				}
				s, err := a.openChat(ctx, ag)
				if err != nil {
					return err
				}
				defer s.Close()

				w := cmd.OutOrStdout()
				if message != "" {
					reply, err := s.Send(ctx, message)
					if err != nil {
						return err
					}
					fmt.Fprintln(w, reply)
					return nil
				}
				return chatLoop(ctx, s, bufio.NewScanner(cmd.InOrStdin()), w)
			})
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "send one message and exit")
	return cmd
}

func (a *app) openChat(ctx context.Context, ag domain.Agent) (*chat.Session, error) {
	return chat.Open(ctx, a.api, ag, chat.Deps{
		Transcript: a.transcripts,
		Tour:       a.tour,
		Events:     asyncEvents{a.events},
	}, log)
}

// chatLoop reads lines from in until /exit or EOF. A failed turn is
// reported and the loop keeps going.
func chatLoop(ctx context.Context, s *chat.Session, in *bufio.Scanner, w io.Writer) error {
	ag := s.Agent()
	cyan.Fprintf(w, "Chatting with %s. Type /exit to leave.\n", ag.Name)
	for {
		fmt.Fprint(w, cyan.Sprint("you> "))
		if !in.Scan() {
			fmt.Fprintln(w)
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/history":
			printTranscript(w, s.History())
			continue
		}

		reply, err := s.Send(ctx, line)
		switch {
		case errors.Is(err, context.Canceled):
			return err
		case err != nil:
			yellow.Fprintf(w, "! %s\n", errorText(err))
			continue
		}
		green.Fprintf(w, "%s> ", ag.Name)
		fmt.Fprintln(w, reply)
	}
}
