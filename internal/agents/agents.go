// Package agents keeps the caller's agent list and runs the list-level
// operations: edit, delete, and public chat deployment.
package agents

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/soyeahso/agentconsole/internal/domain"
	"github.com/soyeahso/agentconsole/internal/draft"
	"github.com/soyeahso/agentconsole/internal/gateway"
	"github.com/soyeahso/agentconsole/internal/hooks"
	"github.com/soyeahso/agentconsole/internal/logging"
	"github.com/soyeahso/agentconsole/internal/tour"
)

var (
	// ErrNotFound means no agent matches the reference.
	ErrNotFound = errors.New("agent not found")
	// ErrAmbiguous means a name matches more than one agent.
	ErrAmbiguous = errors.New("agent reference is ambiguous")
	// ErrNotChatCapable means the agent has no alias yet.
	ErrNotChatCapable = errors.New("agent is not ready for chat")
	// ErrNotDeployed means the agent has no public chat link.
	ErrNotDeployed = errors.New("agent has no public chat link")
)

// Emitter receives lifecycle events. *hooks.Manager satisfies it.
type Emitter interface {
	Emit(ctx context.Context, event string, data map[string]any)
}

// TranscriptPurger drops local chat history of a deleted agent.
type TranscriptPurger interface {
	DeleteForAgent(agentID string) error
}

type usage struct{ month, year int64 }

// Service caches the agent list.
type Service struct {
	api         gateway.API
	transcripts TranscriptPurger
	tour        *tour.Coordinator
	events      Emitter
	log         *logging.Logger

	group singleflight.Group

	mu     sync.RWMutex
	agents []domain.Agent
	usage  map[string]usage
}

// Option configures a Service.
type Option func(*Service)

// WithTranscripts purges local transcripts when an agent is deleted.
func WithTranscripts(t TranscriptPurger) Option { return func(s *Service) { s.transcripts = t } }

// WithTour keeps the walkthrough in sync with deployments.
func WithTour(c *tour.Coordinator) Option { return func(s *Service) { s.tour = c } }

// WithEvents emits lifecycle events.
func WithEvents(e Emitter) Option { return func(s *Service) { s.events = e } }

// NewService creates an agent service.
func NewService(api gateway.API, log *logging.Logger, opts ...Option) *Service {
	s := &Service{
		api:   api,
		log:   log.Sub("agents"),
		usage: make(map[string]usage),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Refresh reloads the list from the gateway. Concurrent callers share one
// request.
func (s *Service) Refresh(ctx context.Context) ([]domain.Agent, error) {
	v, err, shared := s.group.Do("list", func() (any, error) {
		list, err := s.api.ListAgents(ctx)
		if err != nil {
			return nil, err
		}
		return s.store(list), nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Bool("shared", shared).Msg("agent list refreshed")
	return slices.Clone(v.([]domain.Agent)), nil
}

// store replaces the cache. Usage counters only move forward: a lower
// reported value keeps the previous one.
func (s *Service) store(list []domain.Agent) []domain.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(list)
	for i := range out {
		a := &out[i]
		prev := s.usage[a.AgentID]
		a.UsageMonth = max(a.UsageMonth, prev.month)
		a.UsageYear = max(a.UsageYear, prev.year)
		s.usage[a.AgentID] = usage{a.UsageMonth, a.UsageYear}
	}
	s.agents = out
	return out
}

// List returns the cached agents without a network call.
func (s *Service) List() []domain.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.agents)
}

// Get resolves ref (agent id, record id, or case-insensitive name) against
// the cache, refreshing once when nothing matches.
func (s *Service) Get(ctx context.Context, ref string) (domain.Agent, error) {
	s.mu.RLock()
	a, err := s.find(ref)
	s.mu.RUnlock()
	if !errors.Is(err, ErrNotFound) {
		return a, err
	}
	if _, err := s.Refresh(ctx); err != nil {
		return domain.Agent{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.find(ref)
}

func (s *Service) find(ref string) (domain.Agent, error) {
	for _, a := range s.agents {
		if a.AgentID == ref || (a.ID != "" && a.ID == ref) {
			return a, nil
		}
	}
	var match []domain.Agent
	for _, a := range s.agents {
		if strings.EqualFold(a.Name, ref) {
			match = append(match, a)
		}
	}
	switch len(match) {
	case 0:
		return domain.Agent{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return match[0], nil
	default:
		return domain.Agent{}, fmt.Errorf("%w: %d agents named %q", ErrAmbiguous, len(match), ref)
	}
}

func (s *Service) replace(a domain.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.agents {
		if s.agents[i].AgentID == a.AgentID {
			s.agents[i] = a
			return
		}
	}
}

// Update edits an agent. The name and instructions follow the same rules as
// creation.
func (s *Service) Update(ctx context.Context, ref string, d draft.Draft) (domain.Agent, error) {
	a, err := s.Get(ctx, ref)
	if err != nil {
		return domain.Agent{}, err
	}
	name, err := draft.Prepare(d)
	if err != nil {
		return domain.Agent{}, err
	}
	req := gateway.UpdateAgentRequest{
		Name:         name,
		Instructions: d.Instructions,
		EnableHTTP:   d.EnableHTTP,
		EnableEmail:  d.EnableEmail,
	}
	if err := s.api.UpdateAgent(ctx, a.AgentID, req); err != nil {
		return domain.Agent{}, err
	}
	a.Name, a.Instructions, a.EnableHTTP, a.EnableEmail = name, d.Instructions, d.EnableHTTP, d.EnableEmail
	s.replace(a)
	return a, nil
}

// Delete removes an agent and its local chat history.
func (s *Service) Delete(ctx context.Context, ref string) (domain.Agent, error) {
	a, err := s.Get(ctx, ref)
	if err != nil {
		return domain.Agent{}, err
	}
	if err := s.api.DeleteAgent(ctx, a.AgentID); err != nil {
		return domain.Agent{}, err
	}

	s.mu.Lock()
	s.agents = slices.DeleteFunc(s.agents, func(x domain.Agent) bool { return x.AgentID == a.AgentID })
	delete(s.usage, a.AgentID)
	s.mu.Unlock()

	if s.transcripts != nil {
		if err := s.transcripts.DeleteForAgent(a.AgentID); err != nil {
			s.log.Warn().Err(err).Str("agentId", a.AgentID).Msg("purging transcripts")
		}
	}
	s.emit(ctx, hooks.EventAgentDeleted, map[string]any{"agentId": a.AgentID, "name": a.Name})
	return a, nil
}

// Deploy publishes a public chat link. Only chat-capable agents qualify.
func (s *Service) Deploy(ctx context.Context, ref string) (domain.Agent, *gateway.Deployment, error) {
	a, err := s.Get(ctx, ref)
	if err != nil {
		return domain.Agent{}, nil, err
	}
	if !a.Deployable() {
		return a, nil, fmt.Errorf("%w: %s", ErrNotChatCapable, a.Name)
	}
	dep, err := s.api.DeployChat(ctx, a.AgentID)
	if err != nil {
		return a, nil, err
	}
	a.DeploymentURL = dep.URL
	s.replace(a)

	s.emit(ctx, hooks.EventAgentDeployed, map[string]any{"agentId": a.AgentID, "url": dep.URL})
	if s.tour != nil {
		if err := s.tour.SetFlag(tour.FlagAgentDeployed, true); err != nil {
			s.log.Warn().Err(err).Msg("tour flag not set")
		}
		s.tour.Advance(ctx, tour.StepFinish)
	}
	return a, dep, nil
}

// Revoke takes the public chat link down.
func (s *Service) Revoke(ctx context.Context, ref string) (domain.Agent, error) {
	a, err := s.Get(ctx, ref)
	if err != nil {
		return domain.Agent{}, err
	}
	if !a.Deployed() {
		return a, fmt.Errorf("%w: %s", ErrNotDeployed, a.Name)
	}
	if err := s.api.RevokeChat(ctx, a.AgentID); err != nil {
		return a, err
	}
	a.DeploymentURL = ""
	s.replace(a)
	return a, nil
}

func (s *Service) emit(ctx context.Context, event string, data map[string]any) {
	if s.events != nil {
		s.events.Emit(ctx, event, data)
	}
}
