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

	"github.com/soyeahso/agentconsole/internal/agents"
	"github.com/soyeahso/agentconsole/internal/creator"
	"github.com/soyeahso/agentconsole/internal/draft"
	"github.com/soyeahso/agentconsole/internal/hooks"
	"github.com/soyeahso/agentconsole/internal/tour"
)

var errQuit = errors.New("quit")

func newConsoleCmd() *cobra.Command {
	var noTour bool

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Interactive console with the guided tour",
		Long: "Start an interactive session. The creation dialog, the tour, and chats share one " +
			"session until you quit. Type `help` for commands.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				r := newREPL(a, cmd.InOrStdin(), cmd.OutOrStdout())
				r.interrupt = func(ctx context.Context) (context.Context, context.CancelFunc) {
					return signal.NotifyContext(ctx, os.Interrupt)
				}
				return r.run(cmd.Context(), !noTour && cfg.Tour.AutoStartEnabled())
			})
		},
	}
	cmd.Flags().BoolVar(&noTour, "no-tour", false, "do not start the tour automatically")
	return cmd
}

type replCommand struct {
	name  string
	usage string
	help  string
	run   func(ctx context.Context, arg string) error
}

// repl is the interactive console. It owns the scanner so that chats
// opened from it read from the same input.
type repl struct {
	a        *app
	in       *bufio.Scanner
	out      io.Writer
	commands []replCommand
	byName   map[string]*replCommand

	// interrupt scopes one command's context; the real console cancels it
	// on Ctrl-C.
	interrupt func(ctx context.Context) (context.Context, context.CancelFunc)
}

func newREPL(a *app, in io.Reader, out io.Writer) *repl {
	r := &repl{
		a:   a,
		in:  bufio.NewScanner(in),
		out: out,
		interrupt: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return context.WithCancel(ctx)
		},
	}
	r.commands = []replCommand{
		{"help", "help", "show this list", r.cmdHelp},
		{"create", "create", "open the creation dialog", r.cmdCreate},
		{"blueprints", "blueprints", "list blueprints", r.cmdBlueprints},
		{"blueprint", "blueprint <key>", "seed the draft from a blueprint (`custom` for blank)", r.cmdBlueprint},
		{"name", "name <text>", "set the agent name", r.cmdName},
		{"instructions", "instructions <text>", "set the instructions", r.cmdInstructions},
		{"http", "http on|off", "toggle the HTTP action", r.toggle(func(d *draft.Draft, v bool) { d.EnableHTTP = v })},
		{"email", "email on|off", "toggle the email action", r.toggle(func(d *draft.Draft, v bool) { d.EnableEmail = v })},
		{"file", "file <path>|none", "attach or detach a knowledge base file", r.cmdFile},
		{"draft", "draft", "show the draft", r.cmdDraft},
		{"submit", "submit", "create the agent (Ctrl-C cancels)", r.cmdSubmit},
		{"cancel", "cancel", "close the dialog and discard the draft", r.cmdCancel},
		{"agents", "agents", "list your agents", r.cmdAgents},
		{"info", "info <agent>", "show one agent", r.cmdInfo},
		{"chat", "chat <agent>", "chat with an agent (/exit to leave)", r.cmdChat},
		{"deploy", "deploy <agent>", "publish a public chat link", r.cmdDeploy},
		{"revoke", "revoke <agent>", "take the public link down", r.cmdRevoke},
		{"delete", "delete <agent>", "delete an agent", r.cmdDelete},
		{"history", "history <agent>", "list saved chats with an agent", r.cmdHistory},
		{"tour", "tour", "restart the guided tour", r.cmdTour},
		{"next", "next", "next tour step", r.cmdNext},
		{"back", "back", "previous tour step", r.cmdBack},
		{"skip", "skip", "close the tour for good", r.cmdSkip},
		{"quit", "quit", "leave the console", func(context.Context, string) error { return errQuit }},
	}
	r.byName = make(map[string]*replCommand, len(r.commands)+1)
	for i := range r.commands {
		r.byName[r.commands[i].name] = &r.commands[i]
	}
	r.byName["exit"] = r.byName["quit"]
	return r
}

func (r *repl) run(ctx context.Context, autoTour bool) error {
	r.a.events.Once(hooks.EventTourCompleted, "console-congrats", func(_ context.Context, p hooks.Payload) error {
		if dismissed, _ := p.Data["dismissed"].(bool); !dismissed {
			green.Fprintln(r.out, "Tour complete. Type `tour` to see it again.")
		}
		return nil
	})
	defer r.a.events.Off(hooks.EventTourCompleted, "console-congrats")

	cyan.Fprintln(r.out, "agentconsole. Type `help` for commands, `quit` to leave.")
	if autoTour {
		r.a.tour.AutoStart(ctx)
	}
	r.showTour()

	for {
		fmt.Fprint(r.out, cyan.Sprint("> "))
		if !r.in.Scan() {
			fmt.Fprintln(r.out)
			return r.in.Err()
		}
		err := r.exec(ctx, r.in.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			yellow.Fprintf(r.out, "! %s\n", r.errorText(err))
		}
		r.showTour()
	}
}

// exec runs one input line.
func (r *repl) exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	name, arg, _ := strings.Cut(line, " ")
	c, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("unknown command %q (type `help`)", name)
	}

	ctx, cancel := r.interrupt(ctx)
	defer cancel()
	return c.run(ctx, strings.TrimSpace(arg))
}

func (r *repl) errorText(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.Is(err, creator.ErrDialogClosed):
		return "The creation dialog is not open. Type `create` first."
	case errors.Is(err, tour.ErrClosed):
		return "The tour is not open. Type `tour` to start it."
	case errors.Is(err, tour.ErrStepGated):
		return "Finish this step to continue."
	case agentsErr(err):
		return err.Error() + ". Type `agents` to list them."
	}
	return errorText(err)
}

func (r *repl) showTour() {
	if r.a.tour.IsOpen() {
		fmt.Fprintln(r.out, renderTourCard(r.a.tour))
	}
}

func (r *repl) cmdHelp(context.Context, string) error {
	for _, c := range r.commands {
		cyan.Fprintf(r.out, "  %-22s", c.usage)
		fmt.Fprintln(r.out, c.help)
	}
	return nil
}

func (r *repl) cmdCreate(ctx context.Context, _ string) error {
	r.a.dialog.Open(ctx)
	heading(r.out, "New agent")
	printBlueprints(r.out)
	dim.Fprintln(r.out, "\n  Pick one with `blueprint <key>` or fill in `name` and `instructions`.")
	return nil
}

func (r *repl) cmdBlueprints(context.Context, string) error {
	printBlueprints(r.out)
	return nil
}

func (r *repl) cmdBlueprint(ctx context.Context, arg string) error {
	key := arg
	if strings.EqualFold(key, "custom") {
		key = ""
	}
	if err := r.a.dialog.SelectBlueprint(ctx, key); err != nil {
		return err
	}
	printDraft(r.out, r.a.dialog.Draft())
	return nil
}

func (r *repl) cmdName(_ context.Context, arg string) error {
	return r.a.dialog.Update(func(d *draft.Draft) { d.Name = arg })
}

func (r *repl) cmdInstructions(_ context.Context, arg string) error {
	return r.a.dialog.Update(func(d *draft.Draft) { d.Instructions = arg })
}

func (r *repl) toggle(set func(d *draft.Draft, v bool)) func(context.Context, string) error {
	return func(_ context.Context, arg string) error {
		var v bool
		switch strings.ToLower(arg) {
		case "on", "yes", "true":
			v = true
		case "off", "no", "false":
		default:
			return fmt.Errorf("expected on or off, got %q", arg)
		}
		return r.a.dialog.Update(func(d *draft.Draft) { set(d, v) })
	}
}

func (r *repl) cmdFile(_ context.Context, arg string) error {
	if strings.EqualFold(arg, "none") {
		arg = ""
	}
	return r.a.dialog.AttachFile(arg)
}

func (r *repl) cmdDraft(context.Context, string) error {
	if !r.a.dialog.IsOpen() {
		return creator.ErrDialogClosed
	}
	printDraft(r.out, r.a.dialog.Draft())
	return nil
}

func (r *repl) cmdSubmit(ctx context.Context, _ string) error {
	ag, err := submit(ctx, r.a, r.out)
	if err != nil {
		return err
	}
	printAgent(r.out, *ag)
	return nil
}

func (r *repl) cmdCancel(context.Context, string) error {
	r.a.dialog.Close()
	return nil
}

func (r *repl) cmdAgents(ctx context.Context, _ string) error {
	list, err := r.a.agents.Refresh(ctx)
	if err != nil {
		return err
	}
	printAgents(r.out, list)
	return nil
}

func requireArg(arg, usage string) error {
	if arg == "" {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

func (r *repl) cmdInfo(ctx context.Context, arg string) error {
	if err := requireArg(arg, "info <agent>"); err != nil {
		return err
	}
	ag, err := r.a.agents.Get(ctx, arg)
	if err != nil {
		return err
	}
	printAgent(r.out, ag)
	return nil
}

func (r *repl) cmdChat(ctx context.Context, arg string) error {
	if err := requireArg(arg, "chat <agent>"); err != nil {
		return err
	}
	ag, err := r.a.agents.Get(ctx, arg)
	if err != nil {
		return err
	}
	s, err := r.a.openChat(ctx, ag)
	if err != nil {
		return err
	}
	defer s.Close()
	return chatLoop(ctx, s, r.in, r.out)
}

func (r *repl) cmdDeploy(ctx context.Context, arg string) error {
	if err := requireArg(arg, "deploy <agent>"); err != nil {
		return err
	}
	ag, dep, err := r.a.agents.Deploy(ctx, arg)
	if err != nil {
		return err
	}
	printDeployment(r.out, ag.Name, dep.URL, dep.Key)
	return nil
}

func (r *repl) cmdRevoke(ctx context.Context, arg string) error {
	if err := requireArg(arg, "revoke <agent>"); err != nil {
		return err
	}
	ag, err := r.a.agents.Revoke(ctx, arg)
	if err != nil {
		return err
	}
	green.Fprintf(r.out, "Public link for %s revoked.\n", ag.Name)
	return nil
}

func (r *repl) cmdDelete(ctx context.Context, arg string) error {
	if err := requireArg(arg, "delete <agent>"); err != nil {
		return err
	}
	ag, err := r.a.agents.Get(ctx, arg)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Delete %s (%s)? [y/N] ", ag.Name, ag.AgentID)
	if !r.in.Scan() {
		return r.in.Err()
	}
	if a := strings.ToLower(strings.TrimSpace(r.in.Text())); a != "y" && a != "yes" {
		dim.Fprintln(r.out, "Cancelled.")
		return nil
	}
	if _, err := r.a.agents.Delete(ctx, ag.AgentID); err != nil {
		return err
	}
	green.Fprintf(r.out, "Deleted %s.\n", ag.Name)
	return nil
}

func (r *repl) cmdHistory(ctx context.Context, arg string) error {
	if err := requireArg(arg, "history <agent>"); err != nil {
		return err
	}
	sessions, err := r.a.transcripts.ListForAgent(r.a.resolveAgentID(ctx, arg), 10)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		dim.Fprintln(r.out, "  No saved chats.")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(r.out, "  %s  %s\n", s.ID, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func (r *repl) cmdTour(ctx context.Context, _ string) error {
	r.a.tour.Restart(ctx)
	return nil
}

func (r *repl) cmdNext(ctx context.Context, _ string) error {
	return r.a.tour.Next(ctx)
}

func (r *repl) cmdBack(ctx context.Context, _ string) error {
	return r.a.tour.Back(ctx)
}

func (r *repl) cmdSkip(ctx context.Context, _ string) error {
	return r.a.tour.Dismiss(ctx)
}

// agentsErr reports whether err is a lookup failure worth a hint.
func agentsErr(err error) bool {
	return errors.Is(err, agents.ErrNotFound) || errors.Is(err, agents.ErrAmbiguous)
}
