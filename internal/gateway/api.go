package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/soyeahso/agentconsole/internal/domain"
)

// API is the set of remote operations the console uses.
type API interface {
	CreateAgent(ctx context.Context, req CreateAgentRequest) (*CreateAgentResponse, error)
	CreateKnowledgeBase(ctx context.Context, agentID string, kb domain.KnowledgeBasePayload) (string, error)
	GetAgentStatus(ctx context.Context, agentID string) (string, error)
	CreateAlias(ctx context.Context, agentID string) (string, error)
	ListAgents(ctx context.Context) ([]domain.Agent, error)
	UpdateAgent(ctx context.Context, agentID string, req UpdateAgentRequest) error
	DeleteAgent(ctx context.Context, agentID string) error
	DeployChat(ctx context.Context, agentID string) (*Deployment, error)
	RevokeChat(ctx context.Context, agentID string) error
	SendChat(ctx context.Context, req SendChatRequest) (string, error)
	SaveChatMessage(ctx context.Context, msg domain.ChatMessage) error
	SaveCallRecord(ctx context.Context, rec domain.CallRecord) error
}

var _ API = (*Client)(nil)

// CreateAgentRequest registers a new agent.
type CreateAgentRequest struct {
	Name            string `json:"agentName"`
	Instructions    string `json:"instructions"`
	EnableHTTP      bool   `json:"enableHttpAction"`
	EnableEmail     bool   `json:"enableEmailAction"`
	EnableUserInput bool   `json:"enableUserInputAction"`
}

// CreateAgentResponse carries the identifiers of a new agent.
type CreateAgentResponse struct {
	ID      string `json:"id"`
	AgentID string `json:"agentId"`
}

// UpdateAgentRequest edits an existing agent.
type UpdateAgentRequest struct {
	Name         string `json:"agentName"`
	Instructions string `json:"instructions"`
	EnableHTTP   bool   `json:"enableHttpAction"`
	EnableEmail  bool   `json:"enableEmailAction"`
}

// Deployment is a published public chat link.
type Deployment struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// SendChatRequest is one chat turn.
type SendChatRequest struct {
	AgentID   string `json:"agentId"`
	AliasID   string `json:"aliasId"`
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

func agentPath(agentID, suffix string) string {
	return "/agents/" + url.PathEscape(agentID) + suffix
}

// CreateAgent registers an agent. A response without an agent id is a RemoteError.
func (c *Client) CreateAgent(ctx context.Context, req CreateAgentRequest) (*CreateAgentResponse, error) {
	var out CreateAgentResponse
	if err := c.do(ctx, OpCreateAgent, http.MethodPost, "/agents", req, &out); err != nil {
		return nil, err
	}
	if out.AgentID == "" {
		return nil, missingField(OpCreateAgent, "agentId")
	}
	return &out, nil
}

// CreateKnowledgeBase attaches an encoded document to an agent and returns
// the knowledge base id.
func (c *Client) CreateKnowledgeBase(ctx context.Context, agentID string, kb domain.KnowledgeBasePayload) (string, error) {
	var out struct {
		KnowledgeBaseID string `json:"knowledgeBaseId"`
	}
	body := struct {
		AgentID string `json:"agentId"`
		domain.KnowledgeBasePayload
	}{agentID, kb}
	if err := c.do(ctx, OpCreateKnowledgeBase, http.MethodPost, agentPath(agentID, "/knowledge-base"), body, &out); err != nil {
		return "", err
	}
	if out.KnowledgeBaseID == "" {
		return "", missingField(OpCreateKnowledgeBase, "knowledgeBaseId")
	}
	return out.KnowledgeBaseID, nil
}

// GetAgentStatus returns the agent's preparation status.
func (c *Client) GetAgentStatus(ctx context.Context, agentID string) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, OpGetAgentStatus, http.MethodGet, agentPath(agentID, "/status"), nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// CreateAlias provisions the conversational alias. The alias id may be empty
// when the gateway does not echo it.
func (c *Client) CreateAlias(ctx context.Context, agentID string) (string, error) {
	var out struct {
		AliasID string `json:"aliasId"`
	}
	body := map[string]string{"agentId": agentID}
	if err := c.do(ctx, OpCreateAlias, http.MethodPost, agentPath(agentID, "/alias"), body, &out); err != nil {
		return "", err
	}
	return out.AliasID, nil
}

// ListAgents returns every agent owned by the caller.
func (c *Client) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	var out struct {
		Agents []domain.Agent `json:"agents"`
	}
	if err := c.do(ctx, OpListAgents, http.MethodGet, "/agents", nil, &out); err != nil {
		return nil, err
	}
	return out.Agents, nil
}

// UpdateAgent edits an agent's name, instructions, and capabilities.
func (c *Client) UpdateAgent(ctx context.Context, agentID string, req UpdateAgentRequest) error {
	return c.do(ctx, OpUpdateAgent, http.MethodPut, agentPath(agentID, ""), req, nil)
}

// DeleteAgent removes an agent.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	return c.do(ctx, OpDeleteAgent, http.MethodDelete, agentPath(agentID, ""), nil, nil)
}

// DeployChat publishes a public chat link.
func (c *Client) DeployChat(ctx context.Context, agentID string) (*Deployment, error) {
	var out Deployment
	if err := c.do(ctx, OpDeployChat, http.MethodPost, agentPath(agentID, "/deployment"), nil, &out); err != nil {
		return nil, err
	}
	if out.URL == "" {
		return nil, missingField(OpDeployChat, "url")
	}
	return &out, nil
}

// RevokeChat unpublishes the public chat link.
func (c *Client) RevokeChat(ctx context.Context, agentID string) error {
	return c.do(ctx, OpRevokeChat, http.MethodDelete, agentPath(agentID, "/deployment"), nil, nil)
}

// SendChat runs one synchronous chat turn and returns the bot's reply.
func (c *Client) SendChat(ctx context.Context, req SendChatRequest) (string, error) {
	var out struct {
		Response string `json:"response"`
	}
	if err := c.do(ctx, OpSendChat, http.MethodPost, "/chat", req, &out); err != nil {
		return "", err
	}
	if out.Response == "" {
		return "", missingField(OpSendChat, "response")
	}
	return out.Response, nil
}

// SaveChatMessage records one chat turn for auditing.
func (c *Client) SaveChatMessage(ctx context.Context, msg domain.ChatMessage) error {
	return c.do(ctx, OpSaveChatMessage, http.MethodPost, "/chat/messages", msg, nil)
}

// SaveCallRecord records one request/response round trip for auditing.
func (c *Client) SaveCallRecord(ctx context.Context, rec domain.CallRecord) error {
	return c.do(ctx, OpSaveCallRecord, http.MethodPost, "/chat/calls", rec, nil)
}
