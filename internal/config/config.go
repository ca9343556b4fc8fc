// Package config loads Visioneer's configuration surface (§6), following
// the teacher's AiderConfig/LoadConfig pattern: a root Config struct with
// nested section structs, a DefaultConfig constructor, a LoadConfig that
// reads+unmarshals+validates, and a Validate method enumerating
// field-level constraints.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EmbeddingConfig controls the embedding provider.
type EmbeddingConfig struct {
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	BaseURL    string `yaml:"base_url" json:"base_url"`
	Model      string `yaml:"model" json:"model"`
}

// KnowledgeConfig controls semantic-search and implicit-relationship
// thresholds.
type KnowledgeConfig struct {
	MinSimilarityThreshold float64 `yaml:"min_similarity_threshold" json:"min_similarity_threshold"`
	CoretrievalThreshold   int     `yaml:"coretrieval_threshold" json:"coretrieval_threshold"`
}

// OrientationConfig controls orientation rewrite triggers.
type OrientationConfig struct {
	ActivityTriggerCount int `yaml:"activity_trigger_count" json:"activity_trigger_count"`
	MaxTokens            int `yaml:"max_tokens" json:"max_tokens"`
	MaxAgeHours          int `yaml:"max_age_hours" json:"max_age_hours"`
}

// ConfidenceWeights is the confidence_weight multiplier table of §4.4.
type ConfidenceWeights struct {
	Verified    float64 `yaml:"verified" json:"verified"`
	Inferred    float64 `yaml:"inferred" json:"inferred"`
	Speculative float64 `yaml:"speculative" json:"speculative"`
}

// RetrievalConfig controls the hybrid fusion pipeline.
type RetrievalConfig struct {
	RRFK              int               `yaml:"rrf_k" json:"rrf_k"`
	ConfidenceWeights ConfidenceWeights `yaml:"confidence_weights" json:"confidence_weights"`
	CandidatePoolSize int               `yaml:"candidate_pool_size" json:"candidate_pool_size"`
	ResultLimit       int               `yaml:"result_limit" json:"result_limit"`
}

// MemoryConfig controls decay and consolidation cadence.
type MemoryConfig struct {
	DecayIntervalTicks         int `yaml:"decay_interval_ticks" json:"decay_interval_ticks"`
	ConsolidationIntervalTicks int `yaml:"consolidation_interval_ticks" json:"consolidation_interval_ticks"`
	CoretrievalRetentionDays   int `yaml:"coretrieval_retention_days" json:"coretrieval_retention_days"`
	SummariseAgeTicks          int `yaml:"summarise_age_ticks" json:"summarise_age_ticks"`
	TombstoneRetentionTicks    int `yaml:"tombstone_retention_ticks" json:"tombstone_retention_ticks"`
}

// AgentConfig controls the agent cycle driver.
type AgentConfig struct {
	MaxTasksPerSession         int      `yaml:"max_tasks_per_session" json:"max_tasks_per_session"`
	ExecutorEndpoint           string   `yaml:"executor_endpoint" json:"executor_endpoint"`
	ExecutorTimeoutSec         int      `yaml:"executor_timeout_seconds" json:"executor_timeout_seconds"`
	PivotKeywords              []string `yaml:"pivot_keywords" json:"pivot_keywords"`
	PivotSimilarityThreshold   float64  `yaml:"pivot_similarity_threshold" json:"pivot_similarity_threshold"`
}

// ServerConfig holds the local dashboard/event-bus ports.
type ServerConfig struct {
	DashboardPort int `yaml:"dashboard_port" json:"dashboard_port"`
	EventBusPort  int `yaml:"event_bus_port" json:"event_bus_port"`
}

// Config is the root configuration for Visioneer.
type Config struct {
	DataDir     string            `yaml:"data_dir" json:"data_dir"`
	Server      ServerConfig      `yaml:"server" json:"server"`
	Embedding   EmbeddingConfig   `yaml:"embedding" json:"embedding"`
	Knowledge   KnowledgeConfig   `yaml:"knowledge" json:"knowledge"`
	Orientation OrientationConfig `yaml:"orientation" json:"orientation"`
	Retrieval   RetrievalConfig   `yaml:"retrieval" json:"retrieval"`
	Memory      MemoryConfig      `yaml:"memory" json:"memory"`
	Agent       AgentConfig       `yaml:"agent" json:"agent"`
}

// DefaultConfig returns Visioneer's default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "data",
		Server: ServerConfig{
			DashboardPort: 0,
			EventBusPort:  0, // 0 = let the embedded NATS server pick an ephemeral port
		},
		Embedding: EmbeddingConfig{
			Dimensions: 1536,
			BaseURL:    "http://localhost:1234/v1",
			Model:      "qwen2.5-coder-7b-instruct",
		},
		Knowledge: KnowledgeConfig{
			MinSimilarityThreshold: 0.15,
			CoretrievalThreshold:   3,
		},
		Orientation: OrientationConfig{
			ActivityTriggerCount: 50,
			MaxTokens:            2000,
			MaxAgeHours:          24,
		},
		Retrieval: RetrievalConfig{
			RRFK: 60,
			ConfidenceWeights: ConfidenceWeights{
				Verified:    1.0,
				Inferred:    0.8,
				Speculative: 0.5,
			},
			CandidatePoolSize: 50,
			ResultLimit:       20,
		},
		Memory: MemoryConfig{
			DecayIntervalTicks:         1,
			ConsolidationIntervalTicks: 20,
			CoretrievalRetentionDays:   30,
			SummariseAgeTicks:          40,
			TombstoneRetentionTicks:    10,
		},
		Agent: AgentConfig{
			MaxTasksPerSession:       1,
			ExecutorEndpoint:         "http://localhost:8081/execute",
			ExecutorTimeoutSec:       120,
			PivotKeywords:            []string{"change direction", "pivot", "instead let's", "new goal", "forget that"},
			PivotSimilarityThreshold: 0.75,
		},
	}
}

// LoadConfig loads configuration from a YAML file, falling back to
// DefaultConfig fields for anything the file omits.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks that the config satisfies §6's constraints.
func (c *Config) Validate() error {
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive")
	}
	if c.Knowledge.MinSimilarityThreshold < 0 || c.Knowledge.MinSimilarityThreshold > 1 {
		return fmt.Errorf("knowledge.min_similarity_threshold must be in [0,1]")
	}
	if c.Knowledge.CoretrievalThreshold <= 0 {
		return fmt.Errorf("knowledge.coretrieval_threshold must be positive")
	}
	if c.Orientation.ActivityTriggerCount <= 0 {
		return fmt.Errorf("orientation.activity_trigger_count must be positive")
	}
	if c.Retrieval.RRFK <= 0 {
		return fmt.Errorf("retrieval.rrf_k must be positive")
	}
	if c.Retrieval.ResultLimit <= 0 {
		return fmt.Errorf("retrieval.result_limit must be positive")
	}
	if c.Memory.DecayIntervalTicks <= 0 {
		return fmt.Errorf("memory.decay_interval_ticks must be positive")
	}
	if c.Memory.ConsolidationIntervalTicks <= 0 {
		return fmt.Errorf("memory.consolidation_interval_ticks must be positive")
	}
	if c.Agent.MaxTasksPerSession <= 0 {
		return fmt.Errorf("agent.max_tasks_per_session must be positive")
	}
	return nil
}
