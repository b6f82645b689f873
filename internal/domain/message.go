package domain

import "time"

// Chat roles.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// ChatMessage is one turn of a chat session.
type ChatMessage struct {
	SessionID string    `json:"sessionId"`
	AgentID   string    `json:"agentId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// CallRecord audits one request/response round trip against an agent.
type CallRecord struct {
	SessionID string    `json:"sessionId"`
	AgentID   string    `json:"agentId"`
	AliasID   string    `json:"aliasId"`
	Request   string    `json:"request"`
	Response  string    `json:"response"`
	LatencyMs int64     `json:"latencyMs"`
	Timestamp time.Time `json:"timestamp"`
}
