// Package hooks dispatches console lifecycle events (tour progress, agent
// creation, chat activity) to registered listeners.
package hooks

import (
	"context"
	"slices"
	"sync"

	"github.com/soyeahso/agentconsole/internal/logging"
)

// Event names.
const (
	EventTourOpened      = "tour_opened"
	EventTourClosed      = "tour_closed"
	EventTourStepChanged = "tour_step_changed"
	EventTourCompleted   = "tour_completed"
	EventAgentCreating   = "agent_creating"
	EventAgentCreated    = "agent_created"
	EventAgentFailed     = "agent_failed"
	EventAgentDeleted    = "agent_deleted"
	EventChatOpened      = "chat_opened"
	EventChatMessage     = "chat_message"
	EventAgentDeployed   = "agent_deployed"
)

// AllEvents lists every event the console emits.
var AllEvents = []string{
	EventTourOpened,
	EventTourClosed,
	EventTourStepChanged,
	EventTourCompleted,
	EventAgentCreating,
	EventAgentCreated,
	EventAgentFailed,
	EventAgentDeleted,
	EventChatOpened,
	EventChatMessage,
	EventAgentDeployed,
}

// Payload carries event data to hook handlers.
type Payload struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// Handler handles one event. A returned error is logged; it never stops the
// remaining handlers.
type Handler func(ctx context.Context, p Payload) error

// Manager holds hook registrations and dispatches events.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	inflight sync.WaitGroup
	log      *logging.Logger
}

type namedHandler struct {
	name    string
	handler Handler
	once    bool
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("hooks"),
	}
}

// On registers a handler for event under name.
func (m *Manager) On(event, name string, handler Handler) {
	m.add(event, namedHandler{name: name, handler: handler})
}

// Once registers a handler that is removed after its first call.
func (m *Manager) Once(event, name string, handler Handler) {
	m.add(event, namedHandler{name: name, handler: handler, once: true})
}

func (m *Manager) add(event string, h namedHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], h)
	m.log.Debug().Str("event", event).Str("handler", h.name).Bool("once", h.once).Msg("hook registered")
}

// Off removes every handler registered for event under name.
func (m *Manager) Off(event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = slices.DeleteFunc(m.handlers[event], func(h namedHandler) bool {
		return h.name == name
	})
}

// take snapshots the handlers for event and drops the one-shot ones.
func (m *Manager) take(event string) []namedHandler {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.handlers[event]
	if len(current) == 0 {
		return nil
	}
	snapshot := slices.Clone(current)
	m.handlers[event] = slices.DeleteFunc(current, func(h namedHandler) bool { return h.once })
	return snapshot
}

// Emit calls the handlers for event synchronously, in registration order.
func (m *Manager) Emit(ctx context.Context, event string, data map[string]any) {
	handlers := m.take(event)
	if len(handlers) == 0 {
		return
	}
	payload := Payload{Event: event, Data: data}
	for _, h := range handlers {
		m.run(ctx, h, payload)
	}
}

// EmitAsync calls each handler on its own goroutine and returns immediately.
// Wait blocks until they finish.
func (m *Manager) EmitAsync(ctx context.Context, event string, data map[string]any) {
	handlers := m.take(event)
	payload := Payload{Event: event, Data: data}
	for _, h := range handlers {
		m.inflight.Add(1)
		go func() {
			defer m.inflight.Done()
			m.run(ctx, h, payload)
		}()
	}
}

// Wait blocks until every handler started by EmitAsync has returned.
func (m *Manager) Wait() {
	m.inflight.Wait()
}

func (m *Manager) run(ctx context.Context, h namedHandler, p Payload) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Interface("panic", r).Str("event", p.Event).Str("handler", h.name).Msg("hook handler panicked")
		}
	}()
	if err := h.handler(ctx, p); err != nil {
		m.log.Warn().Err(err).Str("event", p.Event).Str("handler", h.name).Msg("hook handler error")
	}
}
