package gateway

import (
	"context"
	"sync"

	"github.com/soyeahso/agentconsole/internal/domain"
)

// MockAPI is a test double for API. Unset funcs succeed with canned values.
// Every call is recorded by operation name.
type MockAPI struct {
	CreateAgentFunc         func(ctx context.Context, req CreateAgentRequest) (*CreateAgentResponse, error)
	CreateKnowledgeBaseFunc func(ctx context.Context, agentID string, kb domain.KnowledgeBasePayload) (string, error)
	GetAgentStatusFunc      func(ctx context.Context, agentID string) (string, error)
	CreateAliasFunc         func(ctx context.Context, agentID string) (string, error)
	ListAgentsFunc          func(ctx context.Context) ([]domain.Agent, error)
	UpdateAgentFunc         func(ctx context.Context, agentID string, req UpdateAgentRequest) error
	DeleteAgentFunc         func(ctx context.Context, agentID string) error
	DeployChatFunc          func(ctx context.Context, agentID string) (*Deployment, error)
	RevokeChatFunc          func(ctx context.Context, agentID string) error
	SendChatFunc            func(ctx context.Context, req SendChatRequest) (string, error)
	SaveChatMessageFunc     func(ctx context.Context, msg domain.ChatMessage) error
	SaveCallRecordFunc      func(ctx context.Context, rec domain.CallRecord) error

	mu    sync.Mutex
	calls []string
}

var _ API = (*MockAPI)(nil)

func (m *MockAPI) record(op string) {
	m.mu.Lock()
	m.calls = append(m.calls, op)
	m.mu.Unlock()
}

// Calls returns the operations invoked so far, in order.
func (m *MockAPI) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times op was invoked.
func (m *MockAPI) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (m *MockAPI) CreateAgent(ctx context.Context, req CreateAgentRequest) (*CreateAgentResponse, error) {
	m.record(OpCreateAgent)
	if m.CreateAgentFunc != nil {
		return m.CreateAgentFunc(ctx, req)
	}
	return &CreateAgentResponse{ID: "rec-1", AgentID: "a1"}, nil
}

func (m *MockAPI) CreateKnowledgeBase(ctx context.Context, agentID string, kb domain.KnowledgeBasePayload) (string, error) {
	m.record(OpCreateKnowledgeBase)
	if m.CreateKnowledgeBaseFunc != nil {
		return m.CreateKnowledgeBaseFunc(ctx, agentID, kb)
	}
	return "kb-1", nil
}

func (m *MockAPI) GetAgentStatus(ctx context.Context, agentID string) (string, error) {
	m.record(OpGetAgentStatus)
	if m.GetAgentStatusFunc != nil {
		return m.GetAgentStatusFunc(ctx, agentID)
	}
	return domain.StatusPrepared, nil
}

func (m *MockAPI) CreateAlias(ctx context.Context, agentID string) (string, error) {
	m.record(OpCreateAlias)
	if m.CreateAliasFunc != nil {
		return m.CreateAliasFunc(ctx, agentID)
	}
	return "alias-1", nil
}

func (m *MockAPI) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	m.record(OpListAgents)
	if m.ListAgentsFunc != nil {
		return m.ListAgentsFunc(ctx)
	}
	return nil, nil
}

func (m *MockAPI) UpdateAgent(ctx context.Context, agentID string, req UpdateAgentRequest) error {
	m.record(OpUpdateAgent)
	if m.UpdateAgentFunc != nil {
		return m.UpdateAgentFunc(ctx, agentID, req)
	}
	return nil
}

func (m *MockAPI) DeleteAgent(ctx context.Context, agentID string) error {
	m.record(OpDeleteAgent)
	if m.DeleteAgentFunc != nil {
		return m.DeleteAgentFunc(ctx, agentID)
	}
	return nil
}

func (m *MockAPI) DeployChat(ctx context.Context, agentID string) (*Deployment, error) {
	m.record(OpDeployChat)
	if m.DeployChatFunc != nil {
		return m.DeployChatFunc(ctx, agentID)
	}
	return &Deployment{URL: "https://chat.example.com/" + agentID, Key: "key-1"}, nil
}

func (m *MockAPI) RevokeChat(ctx context.Context, agentID string) error {
	m.record(OpRevokeChat)
	if m.RevokeChatFunc != nil {
		return m.RevokeChatFunc(ctx, agentID)
	}
	return nil
}

func (m *MockAPI) SendChat(ctx context.Context, req SendChatRequest) (string, error) {
	m.record(OpSendChat)
	if m.SendChatFunc != nil {
		return m.SendChatFunc(ctx, req)
	}
	return "mock reply", nil
}

func (m *MockAPI) SaveChatMessage(ctx context.Context, msg domain.ChatMessage) error {
	m.record(OpSaveChatMessage)
	if m.SaveChatMessageFunc != nil {
		return m.SaveChatMessageFunc(ctx, msg)
	}
	return nil
}

func (m *MockAPI) SaveCallRecord(ctx context.Context, rec domain.CallRecord) error {
	m.record(OpSaveCallRecord)
	if m.SaveCallRecordFunc != nil {
		return m.SaveCallRecordFunc(ctx, rec)
	}
	return nil
}
