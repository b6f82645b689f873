package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuePaths(issues []ValidationIssue) []string {
	var paths []string
	for _, i := range issues {
		paths = append(paths, i.Path)
	}
	return paths
}

func TestValidate_ValidDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_GatewayURL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"https://gateway.example.com", true},
		{"http://localhost:8080/api", true},
		{"", false},
		{"not a url", false},
		{"/relative/path", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			cfg := Defaults()
			cfg.Gateway.BaseURL = tt.url
			issues := Validate(&cfg)
			if tt.valid {
				assert.Empty(t, issues)
			} else {
				assert.Contains(t, issuePaths(issues), "gateway.baseUrl")
			}
		})
	}
}

func TestValidate_AuthRequiresClientID(t *testing.T) {
	cfg := Defaults()
	cfg.Auth.TokenURL = "https://auth.example.com/oauth2/token"
	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "auth.clientId", issues[0].Path)

	cfg.Auth.ClientID = "console"
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_Creation(t *testing.T) {
	cfg := Defaults()
	cfg.Creation.PollAttempts = -1
	cfg.Creation.PollInterval = -1
	assert.ElementsMatch(t, []string{"creation.pollAttempts", "creation.pollInterval"}, issuePaths(Validate(&cfg)))
}

func TestValidate_Logging(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.Level = "loud"
	cfg.Logging.ConsoleStyle = "fancy"
	assert.ElementsMatch(t, []string{"logging.level", "logging.consoleStyle"}, issuePaths(Validate(&cfg)))
}

func TestValidationIssueString(t *testing.T) {
	issue := ValidationIssue{Path: "gateway.baseUrl", Message: "is required"}
	assert.Equal(t, "gateway.baseUrl: is required", issue.String())
}
