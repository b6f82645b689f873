package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"single segment", "gateway", []string{"gateway"}, false},
		{"two segments", "gateway.baseUrl", []string{"gateway", "baseUrl"}, false},
		{"three segments", "creation.poll.interval", []string{"creation", "poll", "interval"}, false},
		{"empty", "", nil, true},
		{"empty segment", "gateway..baseUrl", nil, true},
		{"trailing dot", "gateway.", nil, true},
		{"blocked __proto__", "auth.__proto__", nil, true},
		{"blocked constructor", "constructor", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfigPath(tt.input)
			if tt.wantErr {
				var ce *ConfigError
				assert.ErrorAs(t, err, &ce)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetValueAtPath(t *testing.T) {
	root := map[string]any{
		"creation": map[string]any{
			"pollAttempts": 20,
		},
		"simple": "value",
	}

	tests := []struct {
		name string
		path []string
		want any
		ok   bool
	}{
		{"nested value", []string{"creation", "pollAttempts"}, 20, true},
		{"top level", []string{"simple"}, "value", true},
		{"missing key", []string{"tour"}, nil, false},
		{"non-map intermediate", []string{"simple", "sub"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, ok := GetValueAtPath(root, tt.path)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, val)
			}
		})
	}
}

func TestSetValueAtPath(t *testing.T) {
	root := map[string]any{"simple": "value"}

	SetValueAtPath(root, []string{"gateway", "baseUrl"}, "https://api.example.com")
	val, ok := GetValueAtPath(root, []string{"gateway", "baseUrl"})
	assert.True(t, ok)
	assert.Equal(t, "https://api.example.com", val)

	SetValueAtPath(root, []string{"simple", "nested"}, 1)
	val, ok = GetValueAtPath(root, []string{"simple", "nested"})
	assert.True(t, ok)
	assert.Equal(t, 1, val)
}

func TestUnsetValueAtPath(t *testing.T) {
	root := map[string]any{
		"tour": map[string]any{
			"autoStart": false,
			"other":     true,
		},
	}

	assert.True(t, UnsetValueAtPath(root, []string{"tour", "autoStart"}))
	_, exists := GetValueAtPath(root, []string{"tour", "autoStart"})
	assert.False(t, exists)

	val, exists := GetValueAtPath(root, []string{"tour", "other"})
	assert.True(t, exists)
	assert.Equal(t, true, val)

	assert.False(t, UnsetValueAtPath(root, []string{"tour", "missing"}))
	assert.False(t, UnsetValueAtPath(root, []string{"nope", "missing"}))
}

func TestResolvePaths_Default(t *testing.T) {
	t.Setenv("AGENTCONSOLE_HOME", "")

	paths, err := ResolvePaths()
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".agentconsole")
	assert.Equal(t, base, paths.Base)
	assert.Equal(t, filepath.Join(base, "config.yaml"), paths.Config)
	assert.Equal(t, filepath.Join(base, "credentials", "session.json"), paths.Session)
	assert.Equal(t, filepath.Join(base, "data", "console.db"), paths.Database)
}

func TestResolvePaths_CustomHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("AGENTCONSOLE_HOME", tmp)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, tmp, paths.Base)
	assert.Equal(t, filepath.Join(tmp, "credentials"), paths.Credentials)
	assert.Equal(t, filepath.Join(tmp, "data"), paths.Data)
}

func TestEnsureDirs(t *testing.T) {
	t.Setenv("AGENTCONSOLE_HOME", t.TempDir())
	paths, err := ResolvePaths()
	require.NoError(t, err)

	require.NoError(t, paths.EnsureDirs())
	require.NoError(t, paths.EnsureDirs())

	for _, d := range []string{paths.Base, paths.Credentials, paths.Data} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
