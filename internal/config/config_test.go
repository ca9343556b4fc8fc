package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsBadKnowledgeThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Knowledge.MinSimilarityThreshold = 1.5
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveIntervals(t *testing.T) {
	tests := []struct {
		name  string
		break_ func(*Config)
	}{
		{name: "decay interval", break_: func(c *Config) { c.Memory.DecayIntervalTicks = 0 }},
		{name: "consolidation interval", break_: func(c *Config) { c.Memory.ConsolidationIntervalTicks = -1 }},
		{name: "rrf k", break_: func(c *Config) { c.Retrieval.RRFK = 0 }},
		{name: "result limit", break_: func(c *Config) { c.Retrieval.ResultLimit = 0 }},
		{name: "max tasks per session", break_: func(c *Config) { c.Agent.MaxTasksPerSession = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.break_(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/to/config.yaml")
	require.Error(t, err)
}
