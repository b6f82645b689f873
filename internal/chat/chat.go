// Package chat runs a synchronous chat session against one agent.
package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/soyeahso/agentconsole/internal/agents"
	"github.com/soyeahso/agentconsole/internal/domain"
	"github.com/soyeahso/agentconsole/internal/gateway"
	"github.com/soyeahso/agentconsole/internal/hooks"
	"github.com/soyeahso/agentconsole/internal/logging"
	"github.com/soyeahso/agentconsole/internal/tour"
)

// ErrEmptyMessage is returned by Send for blank input.
var ErrEmptyMessage = errors.New("message is empty")

// maxAuditUploads bounds concurrent audit calls per session.
const maxAuditUploads = 2

// Transcript persists chat turns locally. *store.Transcripts satisfies it.
type Transcript interface {
	Create(agentID, aliasID string) (*domain.ChatSession, error)
	Append(msg domain.ChatMessage) error
}

// Emitter receives lifecycle events. *hooks.Manager satisfies it.
type Emitter interface {
	Emit(ctx context.Context, event string, data map[string]any)
}

// Deps are the optional collaborators of a Session.
type Deps struct {
	Transcript Transcript
	Tour       *tour.Coordinator
	Events     Emitter
}

// Session is one conversation. Send calls are serialized.
type Session struct {
	api   gateway.API
	agent domain.Agent
	id    string
	deps  Deps
	log   *logging.Logger
	now   func() time.Time

	mu       sync.Mutex
	messages []domain.ChatMessage

	audit   *semaphore.Weighted
	pending sync.WaitGroup
}

// Open starts a session with a chat-capable agent.
func Open(ctx context.Context, api gateway.API, agent domain.Agent, deps Deps, log *logging.Logger) (*Session, error) {
	if !agent.ChatCapable() {
		return nil, fmt.Errorf("%w: %s", agents.ErrNotChatCapable, agent.Name)
	}
	s := &Session{
		api:   api,
		agent: agent,
		id:    uuid.New().String(),
		deps:  deps,
		log:   log.Sub("chat").With("agentId", agent.AgentID),
		now:   time.Now,
		audit: semaphore.NewWeighted(maxAuditUploads),
	}
	if deps.Transcript != nil {
		sess, err := deps.Transcript.Create(agent.AgentID, agent.AliasID)
		if err != nil {
			return nil, fmt.Errorf("starting transcript: %w", err)
		}
		s.id = sess.ID
	}

	if deps.Events != nil {
		deps.Events.Emit(ctx, hooks.EventChatOpened, map[string]any{"agentId": agent.AgentID, "sessionId": s.id})
	}
	if deps.Tour != nil {
		if err := deps.Tour.SetFlag(tour.FlagChatOpened, true); err != nil {
			s.log.Warn().Err(err).Msg("tour flag not set")
		}
		deps.Tour.Advance(ctx, tour.StepDeploy)
	}
	return s, nil
}

// ID is the session id sent with every turn.
func (s *Session) ID() string { return s.id }

// Agent returns the agent this session talks to.
func (s *Session) Agent() domain.Agent { return s.agent }

// History returns the turns so far.
func (s *Session) History() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Send runs one turn and returns the bot's reply. Local transcript and
// audit failures are logged, never returned.
func (s *Session) Send(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sent := s.now()
	reply, err := s.api.SendChat(ctx, gateway.SendChatRequest{
		AgentID:   s.agent.AgentID,
		AliasID:   s.agent.AliasID,
		SessionID: s.id,
		Message:   text,
	})
	if err != nil {
		return "", err
	}
	received := s.now()

	turn := []domain.ChatMessage{
		{SessionID: s.id, AgentID: s.agent.AgentID, Role: domain.RoleUser, Content: text, Timestamp: sent},
		{SessionID: s.id, AgentID: s.agent.AgentID, Role: domain.RoleBot, Content: reply, Timestamp: received},
	}
	s.messages = append(s.messages, turn...)

	if s.deps.Transcript != nil {
		for _, m := range turn {
			if err := s.deps.Transcript.Append(m); err != nil {
				s.log.Warn().Err(err).Msg("saving transcript")
				break
			}
		}
	}
	if s.deps.Events != nil {
		s.deps.Events.Emit(ctx, hooks.EventChatMessage, map[string]any{"agentId": s.agent.AgentID, "sessionId": s.id})
	}

	s.upload(ctx, turn, domain.CallRecord{
		SessionID: s.id,
		AgentID:   s.agent.AgentID,
		AliasID:   s.agent.AliasID,
		Request:   text,
		Response:  reply,
		LatencyMs: received.Sub(sent).Milliseconds(),
		Timestamp: sent,
	})
	return reply, nil
}

// upload records the turn on the gateway in the background.
func (s *Session) upload(ctx context.Context, turn []domain.ChatMessage, rec domain.CallRecord) {
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.audit.Acquire(ctx, 1); err != nil {
			return
		}
		defer s.audit.Release(1)

		for _, m := range turn {
			if err := s.api.SaveChatMessage(ctx, m); err != nil {
				s.log.Warn().Err(err).Str("role", m.Role).Msg("audit message not saved")
			}
		}
		if err := s.api.SaveCallRecord(ctx, rec); err != nil {
			s.log.Warn().Err(err).Msg("audit call record not saved")
		}
	}()
}

// Close waits for pending audit uploads.
func (s *Session) Close() {
	s.pending.Wait()
}
