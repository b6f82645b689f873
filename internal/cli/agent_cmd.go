package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/agentconsole/internal/domain"
	"github.com/soyeahso/agentconsole/internal/draft"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "agent",
		Aliases: []string{"agents"},
		Short:   "Manage agents on the gateway",
	}

	cmd.AddCommand(newAgentListCmd())
	cmd.AddCommand(newAgentInfoCmd())
	cmd.AddCommand(newAgentCreateCmd())
	cmd.AddCommand(newAgentUpdateCmd())
	cmd.AddCommand(newAgentDeleteCmd())
	cmd.AddCommand(newAgentDeployCmd())
	cmd.AddCommand(newAgentRevokeCmd())
	return cmd
}

// withApp builds the service graph for a single command and tears it down
// afterwards.
func withApp(fn func(a *app) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func newAgentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				list, err := a.agents.Refresh(cmd.Context())
				if err != nil {
					return err
				}
				printAgents(cmd.OutOrStdout(), list)
				return nil
			})
		},
	}
}

func newAgentInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <agent>",
		Short: "Show details about an agent",
		Long:  "Show details about an agent. <agent> is its agent ID, record ID, or name.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ag, err := a.agents.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printAgent(cmd.OutOrStdout(), ag)
				return nil
			})
		},
	}
}

type draftFlags struct {
	name             string
	instructions     string
	instructionsFile string
	http             bool
	email            bool
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "agent name (letters, digits, '_' and '-')")
	cmd.Flags().StringVarP(&f.instructions, "instructions", "i", "", "agent instructions")
	cmd.Flags().StringVar(&f.instructionsFile, "instructions-file", "", "read instructions from a file")
	cmd.Flags().BoolVar(&f.http, "http", false, "enable the HTTP action")
	cmd.Flags().BoolVar(&f.email, "email", false, "enable the email action")
	cmd.MarkFlagsMutuallyExclusive("instructions", "instructions-file")
}

// apply overwrites only the fields whose flags were given.
func (f *draftFlags) apply(cmd *cobra.Command, d *draft.Draft) error {
	fs := cmd.Flags()
	if fs.Changed("name") {
		d.Name = f.name
	}
	if fs.Changed("instructions") {
		d.Instructions = f.instructions
	}
	if f.instructionsFile != "" {
		data, err := os.ReadFile(f.instructionsFile)
		if err != nil {
			return fmt.Errorf("reading instructions: %w", err)
		}
		d.Instructions = strings.TrimSpace(string(data))
	}
	if fs.Changed("http") {
		d.EnableHTTP = f.http
	}
	if fs.Changed("email") {
		d.EnableEmail = f.email
	}
	return nil
}

func newAgentCreateCmd() *cobra.Command {
	var (
		flags     draftFlags
		blueprint string
		file      string
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an agent, optionally from a blueprint",
		Long: "Create an agent. --blueprint seeds every field from a template; the other flags " +
			"then override individual fields. Press Ctrl-C to cancel while waiting for the agent.",
		Example: "  agentconsole agent create --blueprint joke\n" +
			"  agentconsole agent create -n SupportBot --instructions-file prompt.txt --file faq.md",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return withApp(func(a *app) error {
				a.dialog.Open(ctx)
				defer a.dialog.Close()

				if blueprint != "" {
					if err := a.dialog.SelectBlueprint(ctx, blueprint); err != nil {
						return err
					}
				}
				var applyErr error
				if err := a.dialog.Update(func(d *draft.Draft) { applyErr = flags.apply(cmd, d) }); err != nil {
					return err
				}
				if applyErr != nil {
					return applyErr
				}
				if file != "" {
					if err := a.dialog.AttachFile(file); err != nil {
						return err
					}
				}

				w := cmd.OutOrStdout()
				if dryRun {
					printDraft(w, a.dialog.Draft())
					_, err := draft.Prepare(a.dialog.Draft())
					return err
				}
				ag, err := submit(ctx, a, w)
				if err != nil {
					return err
				}
				printAgent(w, *ag)
				return nil
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&blueprint, "blueprint", "b", "", "seed the draft from a blueprint (see: blueprint list)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "upload a local file as the knowledge base")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print and validate the draft without creating it")
	return cmd
}

// submit runs the dialog's submission with a progress line on w.
func submit(ctx context.Context, a *app, w io.Writer) (*domain.Agent, error) {
	a.dialog.OnLoading(func(loading bool) {
		if loading {
			dim.Fprintln(w, "Creating agent, this can take a minute (Ctrl-C cancels)...")
		}
	})
	defer a.dialog.OnLoading(nil)

	ag, err := a.dialog.Submit(ctx)
	if err != nil {
		return nil, err
	}
	green.Fprintf(w, "Agent %s is ready.\n", ag.Name)
	return ag, nil
}

func newAgentUpdateCmd() *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "update <agent>",
		Short: "Edit an agent's name, instructions, or actions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ctx := cmd.Context()
				cur, err := a.agents.Get(ctx, args[0])
				if err != nil {
					return err
				}
				d := draft.Draft{
					Name:         cur.Name,
					Instructions: cur.Instructions,
					EnableHTTP:   cur.EnableHTTP,
					EnableEmail:  cur.EnableEmail,
				}
				if err := flags.apply(cmd, &d); err != nil {
					return err
				}
				updated, err := a.agents.Update(ctx, cur.AgentID, d)
				if err != nil {
					return err
				}
				green.Fprintf(cmd.OutOrStdout(), "Updated %s.\n", updated.Name)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newAgentDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <agent>",
		Short: "Delete an agent and its local chat history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ctx := cmd.Context()
				ag, err := a.agents.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if !yes {
					ok, err := confirm(fmt.Sprintf("Delete %s (%s)? [y/N] ", ag.Name, ag.AgentID))
					if err != nil {
						return err
					}
					if !ok {
						dim.Fprintln(cmd.OutOrStdout(), "Cancelled.")
						return nil
					}
				}
				if _, err := a.agents.Delete(ctx, ag.AgentID); err != nil {
					return err
				}
				green.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", ag.Name)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newAgentDeployCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy <agent>",
		Short: "Publish a public chat link for an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ag, dep, err := a.agents.Deploy(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printDeployment(cmd.OutOrStdout(), ag.Name, dep.URL, dep.Key)
				return nil
			})
		},
	}
}

func newAgentRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <agent>",
		Short: "Take down an agent's public chat link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ag, err := a.agents.Revoke(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				green.Fprintf(cmd.OutOrStdout(), "Public link for %s revoked.\n", ag.Name)
				return nil
			})
		},
	}
}
