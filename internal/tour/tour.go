// Package tour is the guided walkthrough state shared by every console
// component that takes part in onboarding. State changes only through the
// Coordinator's transitions, each of which is a no-op when already satisfied.
package tour

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/soyeahso/agentconsole/internal/hooks"
	"github.com/soyeahso/agentconsole/internal/logging"
)

var (
	// ErrStepGated means the current step waits on a user action.
	ErrStepGated = errors.New("finish this step before moving on")
	// ErrClosed means the tour is not open.
	ErrClosed = errors.New("tour is not open")
	// ErrInvalidStep is returned for an out-of-range step index.
	ErrInvalidStep = errors.New("no such tour step")
	// ErrUnknownFlag is returned for a flag outside AllFlags.
	ErrUnknownFlag = errors.New("unknown tour flag")
)

// Store persists the "tour completed" preference.
type Store interface {
	TourCompleted() (bool, error)
	SetTourCompleted(done bool) error
}

// Emitter receives transition events. *hooks.Manager satisfies it.
type Emitter interface {
	Emit(ctx context.Context, event string, data map[string]any)
}

// State is a snapshot of the coordinator.
type State struct {
	Step     int
	Open     bool
	FirstRun bool
	Flags    map[Flag]bool
}

// Coordinator owns the tour state.
type Coordinator struct {
	mu       sync.Mutex
	step     int
	open     bool
	firstRun bool
	flags    map[Flag]bool
	skip     func()

	store  Store
	events Emitter
	log    *logging.Logger
}

type event struct {
	name string
	data map[string]any
}

// New creates a coordinator. The tour counts as a first run unless the store
// says it was completed. store and events may be nil.
func New(store Store, events Emitter, log *logging.Logger) *Coordinator {
	c := &Coordinator{
		firstRun: true,
		flags:    make(map[Flag]bool, len(AllFlags)),
		store:    store,
		events:   events,
		log:      log.Sub("tour"),
	}
	if store != nil {
		done, err := store.TourCompleted()
		if err != nil {
			c.log.Warn().Err(err).Msg("reading tour preference")
		}
		c.firstRun = !done
	}
	return c
}

// OnSkipBlueprint registers the action run when the user moves past the
// blueprint step without choosing one.
func (c *Coordinator) OnSkipBlueprint(fn func()) {
	c.mu.Lock()
	c.skip = fn
	c.mu.Unlock()
}

// State returns a copy of the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Step: c.step, Open: c.open, FirstRun: c.firstRun, Flags: maps.Clone(c.flags)}
}

// Current returns the current step.
func (c *Coordinator) Current() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return steps[c.step]
}

// IsOpen reports whether the tour is showing.
func (c *Coordinator) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Flag returns the value of a gating flag.
func (c *Coordinator) Flag(f Flag) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flags[f]
}

// Open shows the tour at its current step.
func (c *Coordinator) Open(ctx context.Context) {
	c.mu.Lock()
	if c.open {
		c.mu.Unlock()
		return
	}
	c.open = true
	ev := &event{hooks.EventTourOpened, map[string]any{"step": c.step}}
	c.mu.Unlock()
	c.emit(ctx, ev)
}

// Close hides the tour without marking it completed.
func (c *Coordinator) Close(ctx context.Context) {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	c.open = false
	ev := &event{hooks.EventTourClosed, map[string]any{"step": c.step}}
	c.mu.Unlock()
	c.emit(ctx, ev)
}

// GoToStep moves to step n.
func (c *Coordinator) GoToStep(ctx context.Context, n int) error {
	c.mu.Lock()
	ev, err := c.goToLocked(n)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.emit(ctx, ev)
	return nil
}

func (c *Coordinator) goToLocked(n int) (*event, error) {
	if n < 0 || n >= len(steps) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStep, n)
	}
	if n == c.step {
		return nil, nil
	}
	from := c.step
	c.step = n
	c.log.Debug().Int("from", from).Int("to", n).Str("id", steps[n].ID).Msg("tour step changed")
	return &event{hooks.EventTourStepChanged, map[string]any{"from": from, "to": n, "id": steps[n].ID}}, nil
}

// Advance moves forward to step n, but only while the tour is open and
// behind n. It reports whether the step changed. Components call this to keep
// the walkthrough in sync with what the user just did.
func (c *Coordinator) Advance(ctx context.Context, n int) bool {
	c.mu.Lock()
	if !c.open || c.step >= n {
		c.mu.Unlock()
		return false
	}
	ev, err := c.goToLocked(n)
	c.mu.Unlock()
	if err != nil {
		c.log.Warn().Err(err).Msg("advance ignored")
		return false
	}
	c.emit(ctx, ev)
	return ev != nil
}

// SetFlag records a gating flag.
func (c *Coordinator) SetFlag(f Flag, v bool) error {
	if !validFlag(f) {
		return fmt.Errorf("%w: %s", ErrUnknownFlag, f)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flags[f] == v {
		return nil
	}
	c.flags[f] = v
	c.log.Debug().Str("flag", string(f)).Bool("value", v).Msg("tour flag set")
	return nil
}

// CanAdvance reports whether forward navigation is offered at the current step.
func (c *Coordinator) CanAdvance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open && c.canLeaveLocked()
}

func (c *Coordinator) canLeaveLocked() bool {
	gate := steps[c.step].Gate
	return gate == "" || !c.firstRun || c.flags[gate]
}

// Next moves forward one step. Leaving the blueprint step without having
// picked a blueprint runs the skip handler and lands on the create step.
// Next on the last step completes the tour.
func (c *Coordinator) Next(ctx context.Context) error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.canLeaveLocked() {
		c.mu.Unlock()
		return ErrStepGated
	}
	step := c.step
	skip := c.skip
	skipping := step == StepSelectBlueprint && !c.flags[FlagBlueprintInteracted]
	c.mu.Unlock()

	switch {
	case step == StepFinish:
		return c.Complete(ctx)
	case skipping:
		if skip != nil {
			skip()
		}
		return c.GoToStep(ctx, StepCreateAgent)
	default:
		return c.GoToStep(ctx, step+1)
	}
}

// Back moves back one step. At the first step it does nothing.
func (c *Coordinator) Back(ctx context.Context) error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return ErrClosed
	}
	step := c.step
	c.mu.Unlock()
	if step == 0 {
		return nil
	}
	return c.GoToStep(ctx, step-1)
}

// Complete finishes the tour and remembers that it was seen.
func (c *Coordinator) Complete(ctx context.Context) error {
	return c.finish(ctx, false)
}

// Dismiss closes the tour for good before its end.
func (c *Coordinator) Dismiss(ctx context.Context) error {
	return c.finish(ctx, true)
}

func (c *Coordinator) finish(ctx context.Context, dismissed bool) error {
	c.mu.Lock()
	if !c.open && !c.firstRun {
		c.mu.Unlock()
		return nil
	}
	c.open = false
	c.firstRun = false
	ev := &event{hooks.EventTourCompleted, map[string]any{"step": c.step, "dismissed": dismissed}}
	c.mu.Unlock()

	var err error
	if c.store != nil {
		if err = c.store.SetTourCompleted(true); err != nil {
			err = fmt.Errorf("saving tour preference: %w", err)
			c.log.Warn().Err(err).Msg("tour completion not persisted")
		}
	}
	c.emit(ctx, ev)
	return err
}

// AutoStart opens the tour from the beginning unless it was completed before.
// It reports whether the tour was opened.
func (c *Coordinator) AutoStart(ctx context.Context) bool {
	c.mu.Lock()
	if !c.firstRun || c.open {
		c.mu.Unlock()
		return false
	}
	ev, _ := c.goToLocked(StepWelcome)
	c.mu.Unlock()
	c.emit(ctx, ev)
	c.Open(ctx)
	return true
}

// Restart reopens the tour at the first step. Navigation stays free when
// the tour was completed before.
func (c *Coordinator) Restart(ctx context.Context) {
	c.mu.Lock()
	ev, _ := c.goToLocked(StepWelcome)
	c.mu.Unlock()
	c.emit(ctx, ev)
	c.Open(ctx)
}

// Reset forgets that the tour was completed, so the next start is a first
// run again with gating and cleared flags.
func (c *Coordinator) Reset(ctx context.Context) error {
	c.mu.Lock()
	c.open = false
	c.firstRun = true
	clear(c.flags)
	ev, _ := c.goToLocked(StepWelcome)
	c.mu.Unlock()
	c.emit(ctx, ev)

	if c.store != nil {
		if err := c.store.SetTourCompleted(false); err != nil {
			return fmt.Errorf("saving tour preference: %w", err)
		}
	}
	return nil
}

func (c *Coordinator) emit(ctx context.Context, ev *event) {
	if ev == nil || c.events == nil {
		return
	}
	c.events.Emit(ctx, ev.name, ev.data)
}
