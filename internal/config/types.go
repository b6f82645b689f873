package config

import "time"

// Config is the root configuration for agentconsole.
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway,omitempty"`
	Auth     AuthConfig     `yaml:"auth,omitempty"`
	Creation CreationConfig `yaml:"creation,omitempty"`
	Tour     TourConfig     `yaml:"tour,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Store    StoreConfig    `yaml:"store,omitempty"`
}

// GatewayConfig points at the remote agent gateway.
type GatewayConfig struct {
	BaseURL string        `yaml:"baseUrl,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// AuthConfig configures the identity provider used by `login`.
type AuthConfig struct {
	TokenURL     string   `yaml:"tokenUrl,omitempty"`
	ClientID     string   `yaml:"clientId,omitempty"`
	ClientSecret string   `yaml:"clientSecret,omitempty"`
	Scopes       []string `yaml:"scopes,omitempty"`
	CookieName   string   `yaml:"cookieName,omitempty"`
}

// CreationConfig tunes the agent creation workflow.
type CreationConfig struct {
	PollInterval time.Duration `yaml:"pollInterval,omitempty"`
	PollAttempts int           `yaml:"pollAttempts,omitempty"`
	// Compensate deletes a half-created agent when a later step fails.
	Compensate *bool `yaml:"compensate,omitempty"`
}

// CompensateEnabled reports whether failed creations roll back. Defaults to true.
func (c CreationConfig) CompensateEnabled() bool {
	return c.Compensate == nil || *c.Compensate
}

// TourConfig controls the onboarding walkthrough.
type TourConfig struct {
	AutoStart *bool `yaml:"autoStart,omitempty"`
}

// AutoStartEnabled reports whether the tour may open on its own. Defaults to true.
func (t TourConfig) AutoStartEnabled() bool {
	return t.AutoStart == nil || *t.AutoStart
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}

// StoreConfig locates the local sqlite database.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"` // defaults to <data>/console.db; ":memory:" disables persistence
}
