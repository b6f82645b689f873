package domain

import "time"

// ChatSession tracks a conversation between the user and one agent.
type ChatSession struct {
	ID        string        `json:"id"`
	AgentID   string        `json:"agentId"`
	AliasID   string        `json:"aliasId"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Messages  []ChatMessage `json:"messages,omitempty"`
}
