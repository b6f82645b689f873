package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/soyeahso/agentconsole/internal/creator"
	"github.com/soyeahso/agentconsole/internal/domain"
	"github.com/soyeahso/agentconsole/internal/draft"
	"github.com/soyeahso/agentconsole/internal/session"
	"github.com/soyeahso/agentconsole/internal/tour"
)

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	dim    = color.New(color.Faint)
)

// printError writes err to stderr in red, using the creation dialog's
// wording for errors it knows.
func printError(err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "Error: %s\n", errorText(err))
}

func errorText(err error) string {
	var ve *draft.ValidationError
	var te *creator.TimeoutError
	var ce *creator.CleanupError
	switch {
	case errors.Is(err, session.ErrNotAuthenticated),
		errors.As(err, &ve), errors.As(err, &te), errors.As(err, &ce):
		return creator.UserMessage(err)
	default:
		return err.Error()
	}
}

func heading(w io.Writer, title string) {
	fmt.Fprintln(w)
	cyan.Fprintf(w, "  %s\n", title)
	cyan.Fprintf(w, "  %s\n", strings.Repeat("-", len(title)))
}

func label(w io.Writer, name, value string) {
	green.Fprintf(w, "  %-14s", name+":")
	fmt.Fprintln(w, value)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printAgents(w io.Writer, list []domain.Agent) {
	if len(list) == 0 {
		dim.Fprintln(w, "  No agents yet. Create one with `agentconsole agent create` or in the console.")
		return
	}
	cyan.Fprintf(w, "  %-20s %-14s %-6s %-8s %8s %8s\n", "NAME", "AGENT ID", "CHAT", "PUBLIC", "MONTH", "YEAR")
	for _, a := range list {
		chat := yellow.Sprint(fmt.Sprintf("%-6s", "no"))
		if a.ChatCapable() {
			chat = green.Sprint(fmt.Sprintf("%-6s", "yes"))
		}
		fmt.Fprintf(w, "  %-20s %-14s %s %-8s %8d %8d\n",
			truncate(a.Name, 20), truncate(a.AgentID, 14), chat, yesNo(a.Deployed()), a.UsageMonth, a.UsageYear)
	}
}

func printAgent(w io.Writer, a domain.Agent) {
	heading(w, a.Name)
	label(w, "Agent ID", a.AgentID)
	label(w, "Record ID", a.ID)
	label(w, "Alias", orNone(a.AliasID))
	label(w, "Chat ready", yesNo(a.ChatCapable()))
	label(w, "Deployable", yesNo(a.Deployable()))
	label(w, "Public link", orNone(a.DeploymentURL))
	label(w, "Knowledge", orNone(a.KnowledgeBaseID))
	label(w, "HTTP action", yesNo(a.EnableHTTP))
	label(w, "Email action", yesNo(a.EnableEmail))
	label(w, "Usage", fmt.Sprintf("%d this month, %d this year", a.UsageMonth, a.UsageYear))
	if a.Instructions != "" {
		fmt.Fprintln(w)
		dim.Fprintln(w, indent(a.Instructions, "  "))
	}
	fmt.Fprintln(w)
}

func printDraft(w io.Writer, d draft.Draft) {
	heading(w, "Draft")
	bp := d.BlueprintKey
	if bp == "" {
		bp = "custom"
	}
	label(w, "Blueprint", bp)
	label(w, "Name", orNone(d.Name))
	if s := draft.SanitizeName(d.Name); s != d.Name && d.Name != "" {
		label(w, "Sent as", orNone(s))
	}
	label(w, "Instructions", fmt.Sprintf("%d characters (min %d)", len([]rune(d.Instructions)), draft.MinInstructionsLength))
	label(w, "HTTP action", yesNo(d.EnableHTTP))
	label(w, "Email action", yesNo(d.EnableEmail))
	label(w, "File", orNone(d.File))
	if d.Instructions != "" {
		fmt.Fprintln(w)
		dim.Fprintln(w, indent(d.Instructions, "  "))
	}
	fmt.Fprintln(w)
}

var (
	cardStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).Padding(0, 2).Width(60)
	cardTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	cardDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cardWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// renderTourCard draws the current tour step.
func renderTourCard(c *tour.Coordinator) string {
	st := c.State()
	step := c.Current()

	var b strings.Builder
	b.WriteString(cardTitle.Render(fmt.Sprintf("Tour %d/%d  %s", st.Step+1, tour.StepCount(), step.Title)))
	b.WriteString("\n\n")
	b.WriteString(step.Body)
	b.WriteString("\n\n")

	var nav []string
	if st.Step > 0 {
		nav = append(nav, "back")
	}
	switch {
	case c.CanAdvance() && st.Step == tour.StepFinish:
		nav = append(nav, "next (finish)")
	case c.CanAdvance():
		nav = append(nav, "next")
	default:
		b.WriteString(cardWarn.Render("Do this step to continue."))
		b.WriteString("\n")
	}
	nav = append(nav, "skip")
	b.WriteString(cardDim.Render(strings.Join(nav, " · ")))
	return cardStyle.Render(b.String())
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func printDeployment(w io.Writer, name, url, key string) {
	green.Fprintf(w, "Public chat for %s is live.\n", name)
	label(w, "Link", url)
	if key != "" {
		label(w, "Key", key)
	}
}

func printTranscript(w io.Writer, msgs []domain.ChatMessage) {
	for _, m := range msgs {
		ts := m.Timestamp.Local().Format("2006-01-02 15:04")
		if m.Role == domain.RoleUser {
			cyan.Fprintf(w, "  %s you: ", ts)
		} else {
			green.Fprintf(w, "  %s agent: ", ts)
		}
		fmt.Fprintln(w, m.Content)
	}
}
