// Package creator implements the agent creation dialog: draft editing,
// blueprint selection, and the remote creation workflow, kept in step with
// the onboarding tour.
package creator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soyeahso/agentconsole/internal/blueprint"
	"github.com/soyeahso/agentconsole/internal/config"
	"github.com/soyeahso/agentconsole/internal/domain"
	"github.com/soyeahso/agentconsole/internal/draft"
	"github.com/soyeahso/agentconsole/internal/gateway"
	"github.com/soyeahso/agentconsole/internal/hooks"
	"github.com/soyeahso/agentconsole/internal/logging"
	"github.com/soyeahso/agentconsole/internal/tour"
)

// Emitter receives lifecycle events. *hooks.Manager satisfies it.
type Emitter interface {
	Emit(ctx context.Context, event string, data map[string]any)
}

// Options tunes the creation workflow.
type Options struct {
	PollInterval time.Duration
	PollAttempts int
	// Compensate deletes a partially created agent when a later step fails.
	Compensate bool
}

// OptionsFromConfig builds Options from the creation config section.
func OptionsFromConfig(c config.CreationConfig) Options {
	o := Options{
		PollInterval: c.PollInterval,
		PollAttempts: c.PollAttempts,
		Compensate:   c.CompensateEnabled(),
	}
	if o.PollInterval <= 0 {
		o.PollInterval = config.DefaultPollInterval
	}
	if o.PollAttempts <= 0 {
		o.PollAttempts = config.DefaultPollAttempts
	}
	return o
}

// Dialog is the creation dialog. One submission runs at a time.
type Dialog struct {
	api    gateway.API
	tour   *tour.Coordinator
	events Emitter
	opts   Options
	log    *logging.Logger

	mu        sync.Mutex
	open      bool
	draft     draft.Draft
	cancel    context.CancelFunc
	lastError string
	onLoading func(bool)
	onCreated func(context.Context, domain.Agent)

	// gen changes on every Open and Close. A submission only touches the
	// dialog if gen still matches the value it started with.
	gen uint64

	submitting atomic.Bool
}

// New creates a dialog. coord and events may be nil.
func New(api gateway.API, coord *tour.Coordinator, events Emitter, opts Options, log *logging.Logger) *Dialog {
	d := &Dialog{
		api:    api,
		tour:   coord,
		events: events,
		opts:   opts,
		log:    log.Sub("creator"),
	}
	if coord != nil {
		coord.OnSkipBlueprint(d.resetToCustom)
	}
	return d
}

// OnLoading sets the callback toggled around each submission.
func (d *Dialog) OnLoading(fn func(loading bool)) {
	d.mu.Lock()
	d.onLoading = fn
	d.mu.Unlock()
}

// OnCreated sets the callback run after a successful submission, typically
// an agent list refresh.
func (d *Dialog) OnCreated(fn func(ctx context.Context, agent domain.Agent)) {
	d.mu.Lock()
	d.onCreated = fn
	d.mu.Unlock()
}

// Open shows the dialog with an empty draft. Opening an open dialog keeps
// its draft.
func (d *Dialog) Open(ctx context.Context) {
	d.mu.Lock()
	if d.open {
		d.mu.Unlock()
		return
	}
	d.open = true
	d.gen++
	d.draft = draft.Empty()
	d.lastError = ""
	d.mu.Unlock()

	if d.tour != nil {
		d.setFlag(tour.FlagAgentCreated, false)
		d.tour.Advance(ctx, tour.StepSelectBlueprint)
	}
}

// Close discards the draft and cancels a running submission.
func (d *Dialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
	d.open = false
	d.gen++
	d.draft = draft.Empty()
}

// IsOpen reports whether the dialog is showing.
func (d *Dialog) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// Submitting reports whether a submission is running.
func (d *Dialog) Submitting() bool { return d.submitting.Load() }

// Draft returns a copy of the current draft.
func (d *Dialog) Draft() draft.Draft {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

// LastError is the user-facing message of the last failed submission.
func (d *Dialog) LastError() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastError
}

// SelectBlueprint replaces the draft with the blueprint's values; the empty
// key resets to a blank custom draft. It always counts as a blueprint
// interaction for the tour.
func (d *Dialog) SelectBlueprint(ctx context.Context, key string) error {
	var bp *blueprint.Blueprint
	if key != "" {
		b, ok := blueprint.Lookup(key)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownBlueprint, key)
		}
		bp = &b
	}

	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return ErrDialogClosed
	}
	d.draft = draft.ApplyTemplate(d.draft, bp)
	d.mu.Unlock()

	if d.tour != nil {
		d.setFlag(tour.FlagBlueprintInteracted, true)
		d.tour.Advance(ctx, tour.StepReviewBlueprint)
	}
	return nil
}

// resetToCustom is the tour's skip action. It does not move the tour.
func (d *Dialog) resetToCustom() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		d.draft = draft.ApplyTemplate(d.draft, nil)
	}
}

// Update applies fn to the draft.
func (d *Dialog) Update(fn func(*draft.Draft)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return ErrDialogClosed
	}
	fn(&d.draft)
	return nil
}

// AttachFile selects a local file as the knowledge base. An empty path
// detaches the current file.
func (d *Dialog) AttachFile(path string) error {
	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return &draft.ValidationError{Field: "file", Message: fmt.Sprintf("cannot read %s", path)}
		}
		if info.IsDir() {
			return &draft.ValidationError{Field: "file", Message: fmt.Sprintf("%s is a directory", path)}
		}
	}
	return d.Update(func(dr *draft.Draft) { dr.File = path })
}

// Submit runs the creation workflow for the current draft. Local validation
// failures make no remote calls. On success the dialog closes and the new
// agent is returned; on failure the draft stays for another try.
func (d *Dialog) Submit(ctx context.Context) (*domain.Agent, error) {
	if !d.submitting.CompareAndSwap(false, true) {
		return nil, ErrSubmitInProgress
	}
	defer d.submitting.Store(false)

	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return nil, ErrDialogClosed
	}
	dr := d.draft
	gen := d.gen
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	loading := d.onLoading
	d.lastError = ""
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.cancel = nil
		d.mu.Unlock()
		cancel()
	}()

	if loading != nil {
		loading(true)
		defer loading(false)
	}

	agent, err := d.create(ctx, dr)
	if err != nil {
		msg := UserMessage(err)
		d.mu.Lock()
		if d.gen == gen {
			d.lastError = msg
		}
		d.mu.Unlock()
		d.emit(ctx, hooks.EventAgentFailed, map[string]any{"name": dr.Name, "error": err.Error()})
		return nil, err
	}

	d.mu.Lock()
	current := d.gen == gen
	if current {
		d.open = false
		d.gen++
		d.draft = draft.Empty()
	}
	created := d.onCreated
	d.mu.Unlock()

	d.log.Info().Str("agentId", agent.AgentID).Str("name", agent.Name).Msg("agent created")
	d.emit(ctx, hooks.EventAgentCreated, map[string]any{"agentId": agent.AgentID, "name": agent.Name})
	if created != nil {
		created(ctx, *agent)
	}
	if !current {
		d.log.Warn().Str("agentId", agent.AgentID).Msg("dialog was closed during creation; leaving it as is")
		return agent, nil
	}
	if d.tour != nil {
		d.setFlag(tour.FlagAgentCreated, true)
		d.tour.Advance(ctx, tour.StepAgentList)
	}
	return agent, nil
}

func (d *Dialog) create(ctx context.Context, dr draft.Draft) (*domain.Agent, error) {
	name, err := draft.Prepare(dr)
	if err != nil {
		return nil, err
	}
	kb, err := draft.ResolveKnowledgeBase(dr)
	if err != nil {
		return nil, err
	}

	agent := &domain.Agent{
		Name:         name,
		Instructions: dr.Instructions,
		EnableHTTP:   dr.EnableHTTP,
		EnableEmail:  dr.EnableEmail,
	}
	d.emit(ctx, hooks.EventAgentCreating, map[string]any{"name": name, "knowledgeBase": kb != nil})

	steps := []sagaStep{{
		name: gateway.OpCreateAgent,
		run: func(ctx context.Context) error {
			resp, err := d.api.CreateAgent(ctx, gateway.CreateAgentRequest{
				Name:            name,
				Instructions:    dr.Instructions,
				EnableHTTP:      dr.EnableHTTP,
				EnableEmail:     dr.EnableEmail,
				EnableUserInput: true,
			})
			if err != nil {
				return err
			}
			agent.ID, agent.AgentID = resp.ID, resp.AgentID
			return nil
		},
		compensate: func(ctx context.Context) error {
			return d.api.DeleteAgent(ctx, agent.AgentID)
		},
	}}
	if kb != nil {
		steps = append(steps, sagaStep{
			name: gateway.OpCreateKnowledgeBase,
			run: func(ctx context.Context) error {
				id, err := d.api.CreateKnowledgeBase(ctx, agent.AgentID, *kb)
				agent.KnowledgeBaseID = id
				return err
			},
		})
	}
	steps = append(steps,
		sagaStep{
			name: gateway.OpGetAgentStatus,
			run: func(ctx context.Context) error {
				return d.waitPrepared(ctx, agent.AgentID)
			},
		},
		sagaStep{
			name: gateway.OpCreateAlias,
			run: func(ctx context.Context) error {
				id, err := d.api.CreateAlias(ctx, agent.AgentID)
				agent.AliasID = id
				return err
			},
		},
	)

	s := &saga{steps: steps, compensate: d.opts.Compensate, log: d.log}
	if err := s.run(ctx); err != nil {
		var cleanup *CleanupError
		if errors.As(err, &cleanup) {
			cleanup.AgentID = agent.AgentID
		}
		return nil, err
	}
	return agent, nil
}

func (d *Dialog) setFlag(f tour.Flag, v bool) {
	if err := d.tour.SetFlag(f, v); err != nil {
		d.log.Warn().Err(err).Str("flag", string(f)).Msg("tour flag not set")
	}
}

func (d *Dialog) emit(ctx context.Context, event string, data map[string]any) {
	if d.events != nil {
		d.events.Emit(ctx, event, data)
	}
}
