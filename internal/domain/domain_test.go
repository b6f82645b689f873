package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentCapabilities(t *testing.T) {
	tests := []struct {
		name       string
		agent      Agent
		chat       bool
		deployable bool
		deployed   bool
	}{
		{"fresh record", Agent{ID: "1"}, false, false, false},
		{"agent id only", Agent{ID: "1", AgentID: "a1"}, false, false, false},
		{"alias without agent id", Agent{ID: "1", AliasID: "al1"}, false, false, false},
		{"chat capable", Agent{ID: "1", AgentID: "a1", AliasID: "al1"}, true, true, false},
		{"deployed", Agent{ID: "1", AgentID: "a1", AliasID: "al1", DeploymentURL: "https://chat.example.com/x"}, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.chat, tt.agent.ChatCapable())
			assert.Equal(t, tt.deployable, tt.agent.Deployable())
			assert.Equal(t, tt.deployed, tt.agent.Deployed())
		})
	}
}

func TestAgentJSON_OmitsEmptyOptionals(t *testing.T) {
	data, err := json.Marshal(Agent{ID: "1", AgentID: "a1", Name: "MyBot"})
	require.NoError(t, err)

	raw := string(data)
	assert.NotContains(t, raw, "aliasId")
	assert.NotContains(t, raw, "deploymentUrl")
	assert.NotContains(t, raw, "knowledgeBaseId")
	assert.Contains(t, raw, `"enableHttp":false`)
}
