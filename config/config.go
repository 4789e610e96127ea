// Package config loads the orchestration engine configuration from a YAML
// file plus environment overrides. All bounds are validated once at startup;
// invalid configuration fails fast rather than surfacing mid-run.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/expertswarm/core"
)

// Config is the full configuration surface of the engine.
type Config struct {
	Swarm    SwarmConfig    `yaml:"swarm"`
	Selector SelectorConfig `yaml:"selector"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Memory   MemoryConfig   `yaml:"memory"`
	Logging  LoggingConfig  `yaml:"logging"`
	Roster   core.Roster    `yaml:"roster"`
}

// SwarmConfig bounds one swarm session.
type SwarmConfig struct {
	MaxHandoffs      int           `yaml:"max_handoffs"`
	MaxIterations    int           `yaml:"max_iterations"`
	NodeTimeout      time.Duration `yaml:"node_timeout"`
	ExecutionTimeout time.Duration `yaml:"execution_timeout"`
	ToolTimeout      time.Duration `yaml:"tool_timeout"`
}

// UnmarshalYAML accepts Go duration strings (e.g. "90s", "10m") for the
// timeout fields. Absent fields keep their current values so defaults
// survive partial files.
func (c *SwarmConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		MaxHandoffs      *int    `yaml:"max_handoffs"`
		MaxIterations    *int    `yaml:"max_iterations"`
		NodeTimeout      *string `yaml:"node_timeout"`
		ExecutionTimeout *string `yaml:"execution_timeout"`
		ToolTimeout      *string `yaml:"tool_timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.MaxHandoffs != nil {
		c.MaxHandoffs = *raw.MaxHandoffs
	}
	if raw.MaxIterations != nil {
		c.MaxIterations = *raw.MaxIterations
	}

	durations := []struct {
		name string
		src  *string
		dst  *time.Duration
	}{
		{"node_timeout", raw.NodeTimeout, &c.NodeTimeout},
		{"execution_timeout", raw.ExecutionTimeout, &c.ExecutionTimeout},
		{"tool_timeout", raw.ToolTimeout, &c.ToolTimeout},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("config: parse %s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	return nil
}

// SelectorConfig bounds participant selection per query.
type SelectorConfig struct {
	MinExperts int `yaml:"min_experts"`
	MaxExperts int `yaml:"max_experts"`
}

// GatewayConfig describes the retrieval gateway and its token endpoint.
type GatewayConfig struct {
	URL           string `yaml:"url"`
	TokenEndpoint string `yaml:"token_endpoint"`
	ClientID      string `yaml:"client_id"`
	ClientSecret  string `yaml:"client_secret"`
	Scope         string `yaml:"scope"`
}

// MemoryConfig controls cross-session recall.
type MemoryConfig struct {
	Enabled     bool `yaml:"enabled"`
	RecallLimit int  `yaml:"recall_limit"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaults() Config {
	return Config{
		Swarm: SwarmConfig{
			MaxHandoffs:      20,
			MaxIterations:    20,
			NodeTimeout:      10 * time.Minute,
			ExecutionTimeout: 30 * time.Minute,
			ToolTimeout:      30 * time.Second,
		},
		Selector: SelectorConfig{
			MinExperts: 1,
			MaxExperts: 3,
		},
		Memory: MemoryConfig{
			Enabled:     true,
			RecallLimit: 6,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Roster: DefaultRoster(),
	}
}

// Default returns the built-in configuration without touching the
// filesystem or environment.
func Default() *Config {
	cfg := defaults()
	return &cfg
}

// DefaultRoster returns the built-in advanced computing expert team.
func DefaultRoster() core.Roster {
	return core.Roster{
		{ID: "hpc", DomainTags: []string{"hpc", "parallel", "cluster", "batch", "pcs", "parallelcluster", "efa", "lustre"}, Capability: "High performance computing: parallel workloads, clusters, schedulers, performance optimization"},
		{ID: "quantum", DomainTags: []string{"quantum", "qubit", "circuit", "braket"}, Capability: "Quantum computing: algorithms, circuits, quantum-classical hybrid systems"},
		{ID: "genai", DomainTags: []string{"ai", "ml", "llm", "model", "predict", "analytics", "learning", "bedrock", "sagemaker", "rag", "agent"}, Capability: "Generative AI and machine learning: LLMs, predictive analytics, multi-agent systems, RAG"},
		{ID: "visual", DomainTags: []string{"3d", "gpu", "render", "graphics", "visualization", "rekognition"}, Capability: "Visual computing: 3D graphics, GPU acceleration, rendering, visualization"},
		{ID: "spatial", DomainTags: []string{"spatial", "geospatial", "mapping", "ar", "vr", "xr", "twin", "location"}, Capability: "Spatial computing: 3D mapping, geospatial data, AR/VR/XR, digital twins"},
		{ID: "iot", DomainTags: []string{"iot", "sensor", "camera", "robot", "edge", "sitewise", "greengrass", "monitoring"}, Capability: "Internet of things: sensors, edge devices, real-time data collection, equipment monitoring"},
		{ID: "partners", DomainTags: []string{"partner", "isv", "marketplace", "solution"}, Capability: "Technology partnerships: ISVs, partner solutions, joint architectures"},
	}
}

// Load reads configuration from the file named by EXPERTSWARM_CONFIG (default
// config/expertswarm.yaml), applies environment overrides and validates the
// result. A missing file is not an error; defaults plus env apply.
func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("EXPERTSWARM_CONFIG")
	if path == "" {
		path = "config/expertswarm.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("EXPERTSWARM_GATEWAY_URL"); v != "" {
		cfg.Gateway.URL = v
	}
	if v := os.Getenv("EXPERTSWARM_TOKEN_ENDPOINT"); v != "" {
		cfg.Gateway.TokenEndpoint = v
	}
	if v := os.Getenv("EXPERTSWARM_CLIENT_ID"); v != "" {
		cfg.Gateway.ClientID = v
	}
	if v := os.Getenv("EXPERTSWARM_CLIENT_SECRET"); v != "" {
		cfg.Gateway.ClientSecret = v
	}
	if v := os.Getenv("EXPERTSWARM_MAX_HANDOFFS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Swarm.MaxHandoffs = n
		}
	}
	if v := os.Getenv("EXPERTSWARM_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Swarm.MaxIterations = n
		}
	}
	if v := os.Getenv("EXPERTSWARM_MEMORY_ENABLED"); v != "" {
		cfg.Memory.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("EXPERTSWARM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks all bounds once at startup.
func (c *Config) Validate() error {
	if c.Swarm.MaxHandoffs <= 0 {
		return fmt.Errorf("config: max_handoffs must be positive, got %d", c.Swarm.MaxHandoffs)
	}
	if c.Swarm.MaxIterations <= 0 {
		return fmt.Errorf("config: max_iterations must be positive, got %d", c.Swarm.MaxIterations)
	}
	if c.Swarm.NodeTimeout <= 0 {
		return fmt.Errorf("config: node_timeout must be positive, got %v", c.Swarm.NodeTimeout)
	}
	if c.Swarm.ExecutionTimeout <= 0 {
		return fmt.Errorf("config: execution_timeout must be positive, got %v", c.Swarm.ExecutionTimeout)
	}
	if c.Swarm.ToolTimeout <= 0 {
		return fmt.Errorf("config: tool_timeout must be positive, got %v", c.Swarm.ToolTimeout)
	}
	if c.Selector.MinExperts <= 0 {
		return fmt.Errorf("config: min_experts must be positive, got %d", c.Selector.MinExperts)
	}
	if c.Selector.MinExperts > c.Selector.MaxExperts {
		return fmt.Errorf("config: min_experts %d exceeds max_experts %d", c.Selector.MinExperts, c.Selector.MaxExperts)
	}
	if len(c.Roster) == 0 {
		return fmt.Errorf("config: roster must not be empty")
	}
	seen := map[string]bool{}
	for _, p := range c.Roster {
		if p.ID == "" {
			return fmt.Errorf("config: roster entry with empty id")
		}
		if seen[p.ID] {
			return fmt.Errorf("config: duplicate roster id %q", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}
