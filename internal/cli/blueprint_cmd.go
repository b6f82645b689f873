package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/soyeahso/agentconsole/internal/blueprint"
	"github.com/spf13/cobra"
)

func newBlueprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "blueprint",
		Aliases: []string{"blueprints"},
		Short:   "Browse agent templates",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List blueprints",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printBlueprints(cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <key>",
		Short: "Show a blueprint's seed values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, ok := blueprint.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown blueprint %q (one of: %s)", args[0], strings.Join(blueprint.Keys(), ", "))
			}
			w := cmd.OutOrStdout()
			heading(w, b.Title)
			fmt.Fprintf(w, "  %s\n\n", b.Description)
			label(w, "Agent name", b.AgentName)
			label(w, "HTTP action", yesNo(b.EnableHTTP))
			label(w, "Email action", yesNo(b.EnableEmail))
			if b.KnowledgeBase != nil {
				label(w, "Knowledge", fmt.Sprintf("%s (%d bytes)", b.KnowledgeBase.FileName, len(b.KnowledgeBase.Content)))
			} else {
				label(w, "Knowledge", "(none)")
			}
			fmt.Fprintln(w)
			dim.Fprintln(w, indent(b.Instructions, "  "))
			fmt.Fprintln(w)
			return nil
		},
	})
	return cmd
}

func printBlueprints(w io.Writer) {
	for _, b := range blueprint.All() {
		key := b.Key
		if b.Custom() {
			key = `""`
		}
		cyan.Fprintf(w, "  %-12s", key)
		fmt.Fprintf(w, "%-24s %s\n", b.Title, b.Description)
	}
}
