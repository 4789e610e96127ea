package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := defaults()

	assert.Equal(t, 20, cfg.Swarm.MaxHandoffs)
	assert.Equal(t, 20, cfg.Swarm.MaxIterations)
	assert.Equal(t, 10*time.Minute, cfg.Swarm.NodeTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Swarm.ExecutionTimeout)
	assert.Equal(t, 1, cfg.Selector.MinExperts)
	assert.Equal(t, 3, cfg.Selector.MaxExperts)
	assert.True(t, cfg.Memory.Enabled)
	require.NotEmpty(t, cfg.Roster)
	_, ok := cfg.Roster.Find("genai")
	assert.True(t, ok)
	require.NoError(t, cfg.Validate())
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("EXPERTSWARM_CONFIG", "/nonexistent/config.yaml")
	t.Setenv("EXPERTSWARM_GATEWAY_URL", "https://gw.example.com/mcp")
	t.Setenv("EXPERTSWARM_CLIENT_ID", "client-123")
	t.Setenv("EXPERTSWARM_MAX_HANDOFFS", "5")
	t.Setenv("EXPERTSWARM_MEMORY_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://gw.example.com/mcp", cfg.Gateway.URL)
	assert.Equal(t, "client-123", cfg.Gateway.ClientID)
	assert.Equal(t, 5, cfg.Swarm.MaxHandoffs)
	assert.False(t, cfg.Memory.Enabled)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "expertswarm.yaml")

	raw := `
swarm:
  max_handoffs: 3
  max_iterations: 7
  node_timeout: 90s
selector:
  min_experts: 1
  max_experts: 2
roster:
  - id: storage
    domain_tags: [s3, disk]
    capability: "Storage systems"
  - id: network
    domain_tags: [vpc, dns]
    capability: "Networking"
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
	t.Setenv("EXPERTSWARM_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Swarm.MaxHandoffs)
	assert.Equal(t, 7, cfg.Swarm.MaxIterations)
	assert.Equal(t, 90*time.Second, cfg.Swarm.NodeTimeout)
	assert.Equal(t, 2, cfg.Selector.MaxExperts)
	require.Len(t, cfg.Roster, 2)
	assert.Equal(t, "storage", cfg.Roster[0].ID)
}

func TestValidateFailsFast(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max_handoffs", func(c *Config) { c.Swarm.MaxHandoffs = 0 }},
		{"negative max_iterations", func(c *Config) { c.Swarm.MaxIterations = -1 }},
		{"zero node_timeout", func(c *Config) { c.Swarm.NodeTimeout = 0 }},
		{"zero execution_timeout", func(c *Config) { c.Swarm.ExecutionTimeout = 0 }},
		{"min above max", func(c *Config) { c.Selector.MinExperts = 5 }},
		{"empty roster", func(c *Config) { c.Roster = nil }},
		{"duplicate roster id", func(c *Config) { c.Roster = append(c.Roster, c.Roster[0]) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
