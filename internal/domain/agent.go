// Package domain holds the records shared between the gateway client and the
// console's local state.
package domain

// Agent status values reported by the gateway.
const (
	StatusPrepared  = "PREPARED"
	StatusPreparing = "PREPARING"
	StatusCreating  = "CREATING"
	StatusFailed    = "FAILED"
)

// Agent mirrors a backend agent record.
type Agent struct {
	ID              string `json:"id"`
	AgentID         string `json:"agentId"`
	Name            string `json:"name"`
	Instructions    string `json:"instructions"`
	AliasID         string `json:"aliasId,omitempty"`
	DeploymentURL   string `json:"deploymentUrl,omitempty"`
	KnowledgeBaseID string `json:"knowledgeBaseId,omitempty"`
	UsageMonth      int64  `json:"usageMonth"`
	UsageYear       int64  `json:"usageYear"`
	EnableHTTP      bool   `json:"enableHttp"`
	EnableEmail     bool   `json:"enableEmail"`
}

// ChatCapable reports whether the agent has both an agent id and an alias.
func (a Agent) ChatCapable() bool {
	return a.AgentID != "" && a.AliasID != ""
}

// Deployable reports whether a public chat link may be published.
func (a Agent) Deployable() bool {
	return a.ChatCapable()
}

// Deployed reports whether a public chat link is currently published.
func (a Agent) Deployed() bool {
	return a.DeploymentURL != ""
}

// KnowledgeBasePayload is a document to attach to an agent, already encoded
// for transport.
type KnowledgeBasePayload struct {
	FileName string `json:"fileName"`
	Content  string `json:"fileContent"` // base64
}
