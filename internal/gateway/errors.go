package gateway

import (
	"fmt"
)

// Operation names, used in errors and logs.
const (
	OpCreateAgent         = "create agent"
	OpCreateKnowledgeBase = "create knowledge base"
	OpGetAgentStatus      = "get agent status"
	OpCreateAlias         = "create alias"
	OpListAgents          = "list agents"
	OpUpdateAgent         = "update agent"
	OpDeleteAgent         = "delete agent"
	OpDeployChat          = "deploy chat"
	OpRevokeChat          = "revoke chat"
	OpSendChat            = "send chat message"
	OpSaveChatMessage     = "save chat message"
	OpSaveCallRecord      = "save call record"
)

// ErrorShape is the error body the gateway returns on failure.
type ErrorShape struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (e ErrorShape) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// RemoteError is a call that reached the gateway but did not yield a usable
// result: a non-2xx status, an error body, or a payload missing a required field.
type RemoteError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: gateway returned %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func missingField(op, field string) *RemoteError {
	return &RemoteError{Op: op, Message: "response did not include " + field}
}
