package creator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/agentconsole/internal/draft"
	"github.com/soyeahso/agentconsole/internal/gateway"
	"github.com/soyeahso/agentconsole/internal/session"
)

var (
	// ErrSubmitInProgress is returned when Submit is called while another
	// submission from the same dialog is still running.
	ErrSubmitInProgress = errors.New("agent creation already in progress")
	// ErrDialogClosed is returned by edits and Submit on a closed dialog.
	ErrDialogClosed = errors.New("creation dialog is not open")
	// ErrUnknownBlueprint is returned by SelectBlueprint for a key outside the catalog.
	ErrUnknownBlueprint = errors.New("unknown blueprint")
)

// TimeoutError means the agent never reported PREPARED within the attempt budget.
type TimeoutError struct {
	AgentID    string
	Attempts   int
	LastStatus string
	Waited     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("agent %s not ready after %d status checks (%s, last status %q)",
		e.AgentID, e.Attempts, e.Waited.Round(time.Second), e.LastStatus)
}

// CleanupError is a failed submission whose compensating delete also failed.
// The partially created agent is still on the gateway.
type CleanupError struct {
	AgentID string
	Cause   error
	Cleanup error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("%v (removing agent %s also failed: %v)", e.Cause, e.AgentID, e.Cleanup)
}

func (e *CleanupError) Unwrap() error { return e.Cause }

// UserMessage turns a submission error into the single line shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var cleanup *CleanupError
	if errors.As(err, &cleanup) {
		return UserMessage(cleanup.Cause) + fmt.Sprintf(
			" The partially created agent %s could not be removed; delete it before retrying.", cleanup.AgentID)
	}

	var (
		ve      *draft.ValidationError
		timeout *TimeoutError
		remote  *gateway.RemoteError
	)
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return "Please log in to continue."
	case errors.Is(err, ErrSubmitInProgress):
		return "An agent is already being created."
	case errors.Is(err, context.Canceled):
		return "Agent creation was cancelled."
	case errors.As(err, &ve):
		return capitalize(ve.Message) + "."
	case errors.As(err, &timeout):
		return "The agent is taking longer than expected to get ready. Try again in a few minutes."
	case errors.As(err, &remote):
		return "Error creating agent: " + remote.Message
	default:
		return "Error creating agent: " + err.Error()
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
