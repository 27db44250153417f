// Package config provides configuration management for the orchestration
// core.
//
// Configuration can be loaded from multiple sources (in order of precedence):
// 1. Environment variables (highest priority), prefix HLCS_
// 2. Configuration file (JSON)
// 3. Default values (lowest priority)
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the complete process configuration (§6).
type Config struct {
	ListenAddress         string           `json:"listen_address"`
	RequestTimeoutMS      int              `json:"request_timeout_ms"`
	MaxConcurrentRequests int              `json:"max_concurrent_requests"`
	QualityThreshold      float64          `json:"quality_threshold"`
	MaxIterations         int              `json:"max_iterations"`
	ComplexityThreshold   float64          `json:"complexity_threshold"`
	StrategyDefault       string           `json:"strategy_default"`
	ConsensusDefaults     ConsensusDefaults `json:"consensus_defaults"`
	Backends              BackendsConfig   `json:"backends"`
	Memory                MemoryConfig     `json:"memory"`
	FeatureFlags          map[string]FeatureFlag `json:"feature_flags"`
	Logging               LoggingConfig    `json:"logging"`
}

// ConsensusDefaults configures the consensus engine's defaults.
type ConsensusDefaults struct {
	Type                         string          `json:"type"`
	DeadlineMS                   int             `json:"deadline_ms"`
	RoleWeights                  RoleWeights     `json:"role_weights"`
	AutonomousAgentRiskThreshold float64         `json:"autonomous_agent_risk_threshold"`
}

// RoleWeights is the per-role default voting weight.
type RoleWeights struct {
	PrimaryUser     float64 `json:"primary_user"`
	Administrator   float64 `json:"administrator"`
	AutonomousAgent float64 `json:"autonomous_agent"`
	Observer        float64 `json:"observer"`
}

// BackendsConfig configures the external tool server and local reasoner.
type BackendsConfig struct {
	ToolServer    ToolServerConfig    `json:"tool_server"`
	LocalReasoner LocalReasonerConfig `json:"local_reasoner"`
}

// ToolServerConfig configures the ToolServer HTTP adapter client.
type ToolServerConfig struct {
	URL       string `json:"url"`
	TimeoutMS int    `json:"timeout_ms"`
	Retries   int    `json:"retries"`
	// Capabilities resolves a capability tag (e.g. "retriever") to the
	// tool name registered on the tool server for it (§6: tool names are
	// opaque, the core references them by capability tag).
	Capabilities map[string]string `json:"capabilities"`
}

// LocalReasonerConfig configures the LocalReasoner HTTP adapter client.
type LocalReasonerConfig struct {
	Enabled   bool   `json:"enabled"`
	URL       string `json:"url"`
	TimeoutMS int    `json:"timeout_ms"`
}

// MemoryConfig configures the episode Store adapter.
type MemoryConfig struct {
	Backend               string  `json:"backend"` // "memory" or "sqlite"
	PersistDir            string  `json:"persist_dir"`
	SQLitePath            string  `json:"sqlite_path"`
	SQLiteTimeoutMS       int     `json:"sqlite_timeout_ms"`
	STMTTLHours           float64 `json:"stm_ttl_hours"`
	LTMPromotionThreshold float64 `json:"ltm_promotion_threshold"`
	SemanticSearchEnabled bool    `json:"semantic_search_enabled"`
	VectorPersistDir      string  `json:"vector_persist_dir"`
}

// FeatureFlag is one entry of the feature-flag rollout table (§9).
type FeatureFlag struct {
	Enabled           bool     `json:"enabled"`
	RolloutPercentage float64  `json:"rollout_percentage"`
	Strategy          string   `json:"strategy"`
	Whitelist         []string `json:"whitelist,omitempty"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level            string `json:"level"`
	Format           string `json:"format"`
	EnableTimestamps bool   `json:"enable_timestamps"`
}

// Default returns the configuration defaults named in §6.
func Default() *Config {
	return &Config{
		ListenAddress:         ":8080",
		RequestTimeoutMS:      30000,
		MaxConcurrentRequests: 100,
		QualityThreshold:      0.7,
		MaxIterations:         3,
		ComplexityThreshold:   0.5,
		StrategyDefault:       "adaptive",
		ConsensusDefaults: ConsensusDefaults{
			Type:       "WEIGHTED",
			DeadlineMS: 60000,
			RoleWeights: RoleWeights{
				PrimaryUser:     0.60,
				Administrator:   0.30,
				AutonomousAgent: 0.10,
				Observer:        0.00,
			},
			AutonomousAgentRiskThreshold: 0.5,
		},
		Backends: BackendsConfig{
			ToolServer: ToolServerConfig{
				URL:       "http://localhost:9001",
				TimeoutMS: 10000,
				Retries:   2,
				Capabilities: map[string]string{
					"conversational_responder": "conversational_responder",
					"retriever":                "retriever",
					"synthesize":               "synthesize",
					"classifier":               "classifier",
					"image_analyzer":           "image_analyzer",
					"audio_transcriber":        "audio_transcriber",
				},
			},
			LocalReasoner: LocalReasonerConfig{
				Enabled:   true,
				URL:       "http://localhost:9002",
				TimeoutMS: 15000,
			},
		},
		Memory: MemoryConfig{
			Backend:               "memory",
			PersistDir:            "./data/memory",
			SQLitePath:            "./data/memory/episodes.db",
			SQLiteTimeoutMS:       5000,
			STMTTLHours:           24,
			LTMPromotionThreshold: 0.75,
			SemanticSearchEnabled: false,
			VectorPersistDir:      "./data/memory/vectors",
		},
		FeatureFlags: map[string]FeatureFlag{},
		Logging: LoggingConfig{
			Level:            "info",
			Format:           "text",
			EnableTimestamps: true,
		},
	}
}

// Load loads configuration from environment variables and applies defaults.
func Load() (*Config, error) {
	cfg := Default()

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a JSON file, then applies
// environment overrides on top.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromEnv applies environment overrides. Variables follow the pattern
// HLCS_<SECTION>_<KEY>, e.g. HLCS_LISTEN_ADDRESS, HLCS_QUALITY_THRESHOLD.
func (c *Config) loadFromEnv() error {
	if v := os.Getenv("HLCS_LISTEN_ADDRESS"); v != "" {
		c.ListenAddress = v
	}
	if v := os.Getenv("HLCS_REQUEST_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RequestTimeoutMS = n
		}
	}
	if v := os.Getenv("HLCS_MAX_CONCURRENT_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrentRequests = n
		}
	}
	if v := os.Getenv("HLCS_QUALITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.QualityThreshold = f
		}
	}
	if v := os.Getenv("HLCS_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxIterations = n
		}
	}
	if v := os.Getenv("HLCS_COMPLEXITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.ComplexityThreshold = f
		}
	}
	if v := os.Getenv("HLCS_STRATEGY_DEFAULT"); v != "" {
		c.StrategyDefault = strings.ToLower(v)
	}
	if v := os.Getenv("HLCS_CONSENSUS_DEFAULTS_TYPE"); v != "" {
		c.ConsensusDefaults.Type = strings.ToUpper(v)
	}
	if v := os.Getenv("HLCS_CONSENSUS_DEFAULTS_DEADLINE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ConsensusDefaults.DeadlineMS = n
		}
	}
	if v := os.Getenv("HLCS_CONSENSUS_DEFAULTS_AUTONOMOUS_AGENT_RISK_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.ConsensusDefaults.AutonomousAgentRiskThreshold = f
		}
	}
	if v := os.Getenv("HLCS_BACKENDS_TOOL_SERVER_URL"); v != "" {
		c.Backends.ToolServer.URL = v
	}
	if v := os.Getenv("HLCS_BACKENDS_TOOL_SERVER_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backends.ToolServer.TimeoutMS = n
		}
	}
	if v := os.Getenv("HLCS_BACKENDS_LOCAL_REASONER_ENABLED"); v != "" {
		c.Backends.LocalReasoner.Enabled = parseBool(v)
	}
	if v := os.Getenv("HLCS_BACKENDS_LOCAL_REASONER_URL"); v != "" {
		c.Backends.LocalReasoner.URL = v
	}
	if v := os.Getenv("HLCS_MEMORY_PERSIST_DIR"); v != "" {
		c.Memory.PersistDir = v
	}
	if v := os.Getenv("HLCS_MEMORY_STM_TTL_HOURS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Memory.STMTTLHours = f
		}
	}
	if v := os.Getenv("HLCS_MEMORY_BACKEND"); v != "" {
		c.Memory.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("HLCS_MEMORY_SQLITE_PATH"); v != "" {
		c.Memory.SQLitePath = v
	}
	if v := os.Getenv("HLCS_MEMORY_SEMANTIC_SEARCH_ENABLED"); v != "" {
		c.Memory.SemanticSearchEnabled = parseBool(v)
	}
	if v := os.Getenv("HLCS_LOGGING_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("HLCS_LOGGING_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen_address cannot be empty")
	}
	if c.RequestTimeoutMS <= 0 {
		return fmt.Errorf("request_timeout_ms must be > 0")
	}
	if c.MaxConcurrentRequests < 1 {
		return fmt.Errorf("max_concurrent_requests must be >= 1")
	}
	if c.QualityThreshold < 0 || c.QualityThreshold > 1 {
		return fmt.Errorf("quality_threshold must be between 0 and 1")
	}
	if c.MaxIterations < 1 || c.MaxIterations > 10 {
		return fmt.Errorf("max_iterations must be between 1 and 10")
	}
	if c.ComplexityThreshold < 0 || c.ComplexityThreshold > 1 {
		return fmt.Errorf("complexity_threshold must be between 0 and 1")
	}
	switch strings.ToUpper(c.ConsensusDefaults.Type) {
	case "WEIGHTED", "SIMPLE_MAJORITY", "SUPERMAJORITY", "UNANIMOUS", "ADAPTIVE":
	default:
		return fmt.Errorf("consensus_defaults.type must be a recognized consensus type")
	}
	if c.ConsensusDefaults.DeadlineMS <= 0 {
		return fmt.Errorf("consensus_defaults.deadline_ms must be > 0")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json'")
	}
	switch c.Memory.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("memory.backend must be 'memory' or 'sqlite'")
	}
	return nil
}

// IsFeatureEnabled reports whether a named feature flag is enabled for a
// given user, honoring rollout percentage and whitelist rules (§9).
func (c *Config) IsFeatureEnabled(flag, userID string) bool {
	f, ok := c.FeatureFlags[flag]
	if !ok {
		return false
	}
	if !f.Enabled {
		return false
	}
	switch strings.ToUpper(f.Strategy) {
	case "WHITELIST":
		for _, id := range f.Whitelist {
			if id == userID {
				return true
			}
		}
		return false
	case "PERCENTAGE":
		return bucketOf(userID) < f.RolloutPercentage
	default: // ALL
		return true
	}
}

// bucketOf deterministically maps a user id to [0,100) for percentage
// rollout, so the same user always lands in the same bucket.
func bucketOf(userID string) float64 {
	if userID == "" {
		return 0
	}
	var sum int
	for _, r := range userID {
		sum += int(r)
	}
	return float64(sum % 100)
}

// parseBool parses a boolean from string (handles various formats).
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on" || s == "enabled"
}

// ToJSON serializes the configuration to JSON.
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// SaveToFile saves the configuration to a JSON file.
func (c *Config) SaveToFile(path string) error {
	data, err := c.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
