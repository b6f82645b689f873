package config

import (
	"fmt"
	"time"
)

const (
	DefaultGatewayTimeout = 30 * time.Second
	DefaultPollInterval   = 4 * time.Second
	DefaultPollAttempts   = 20
	DefaultCookieName     = "access_token"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			BaseURL: "http://localhost:8080",
			Timeout: DefaultGatewayTimeout,
		},
		Auth: AuthConfig{
			Scopes:     []string{"openid", "email"},
			CookieName: DefaultCookieName,
		},
		Creation: CreationConfig{
			PollInterval: DefaultPollInterval,
			PollAttempts: DefaultPollAttempts,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
