package creator

import (
	"context"
	"time"

	"github.com/soyeahso/agentconsole/internal/domain"
	"github.com/soyeahso/agentconsole/internal/gateway"
)

// waitPrepared checks the agent's status until it is PREPARED. The first
// check is immediate; later ones are interval apart. ctx is checked between
// attempts so a closed dialog stops polling.
func (d *Dialog) waitPrepared(ctx context.Context, agentID string) error {
	start := time.Now()
	var last string

	for attempt := 1; attempt <= d.opts.PollAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, d.opts.PollInterval); err != nil {
				return err
			}
		}

		status, err := d.api.GetAgentStatus(ctx, agentID)
		if err != nil {
			return err
		}
		last = status
		d.log.Debug().Str("agentId", agentID).Int("attempt", attempt).Str("status", status).Msg("agent status")

		switch status {
		case domain.StatusPrepared:
			return nil
		case domain.StatusFailed:
			return &gateway.RemoteError{Op: gateway.OpGetAgentStatus, Message: "agent preparation failed"}
		}
	}

	return &TimeoutError{
		AgentID:    agentID,
		Attempts:   d.opts.PollAttempts,
		LastStatus: last,
		Waited:     time.Since(start),
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
