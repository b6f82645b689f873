package config

import (
	"fmt"
	"net/url"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Gateway.BaseURL == "" {
		issues = append(issues, ValidationIssue{Path: "gateway.baseUrl", Message: "is required"})
	} else if u, err := url.Parse(cfg.Gateway.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.baseUrl",
			Message: fmt.Sprintf("must be an absolute URL, got %q", cfg.Gateway.BaseURL),
		})
	}
	if cfg.Gateway.Timeout < 0 {
		issues = append(issues, ValidationIssue{Path: "gateway.timeout", Message: "must not be negative"})
	}

	if cfg.Auth.TokenURL != "" {
		if u, err := url.Parse(cfg.Auth.TokenURL); err != nil || u.Scheme == "" {
			issues = append(issues, ValidationIssue{
				Path:    "auth.tokenUrl",
				Message: fmt.Sprintf("must be an absolute URL, got %q", cfg.Auth.TokenURL),
			})
		}
		if cfg.Auth.ClientID == "" {
			issues = append(issues, ValidationIssue{Path: "auth.clientId", Message: "required when auth.tokenUrl is set"})
		}
	}

	if cfg.Creation.PollInterval < 0 {
		issues = append(issues, ValidationIssue{Path: "creation.pollInterval", Message: "must not be negative"})
	}
	if cfg.Creation.PollAttempts < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "creation.pollAttempts",
			Message: fmt.Sprintf("must be positive, got %d", cfg.Creation.PollAttempts),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}
