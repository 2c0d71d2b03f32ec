// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunConfig bounds a single research run.
type RunConfig struct {
	// MaxDepth limits citation-following depth. The current pipeline reads
	// declared citations only (depth 1); the value is recorded with the run.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// MaxIterations limits refinement iterations per run.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
}

// AggregationConfig holds settings for the connector fan-out stage.
type AggregationConfig struct {
	// ConnectorWorkers bounds how many connectors run concurrently (default 4).
	ConnectorWorkers int `json:"connector_workers" yaml:"connector_workers"`

	// EngineWorkers bounds concurrent academic engine queries (default 7).
	EngineWorkers int `json:"engine_workers" yaml:"engine_workers"`

	// VerifyWorkers bounds concurrent per-candidate checks inside the
	// academic sub-aggregation (default 10).
	VerifyWorkers int `json:"verify_workers" yaml:"verify_workers"`

	// RatePerSecond throttles outbound connector calls per domain (default 2).
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second"`

	// Burst is the rate limiter burst size (default 4).
	Burst int `json:"burst" yaml:"burst"`
}

// SynthesisConfig holds settings for narrative generation.
type SynthesisConfig struct {
	// Model is the generation model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the generation API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint (e.g. a local gateway).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxTokens limits the generated response length (default 1200).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Timeout bounds the single generation call (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// HeartbeatInterval is the liveness message period during the blocking
	// generation call (default 5s).
	HeartbeatInterval time.Duration `json:"heartbeat_interval" yaml:"heartbeat_interval"`
}

// StoreConfig holds settings for run persistence.
type StoreConfig struct {
	// DataDir is the base directory for the index database and run documents.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// CacheTTL bounds how long loaded run documents stay cached (default 10m).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// CredibilityConfig holds settings for trust scoring.
type CredibilityConfig struct {
	// TiersFile optionally overrides the built-in domain tier table (YAML).
	TiersFile string `json:"tiers_file,omitempty" yaml:"tiers_file,omitempty"`

	// RetractionsFile optionally adds DOIs to the retraction registry (YAML).
	RetractionsFile string `json:"retractions_file,omitempty" yaml:"retractions_file,omitempty"`

	// RegistryURL optionally merges a remote newline-delimited DOI list
	// into the retraction registry at startup.
	RegistryURL string `json:"registry_url,omitempty" yaml:"registry_url,omitempty"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Run         RunConfig         `json:"run" yaml:"run"`
	Aggregation AggregationConfig `json:"aggregation" yaml:"aggregation"`
	Credibility CredibilityConfig `json:"credibility" yaml:"credibility"`
	Synthesis   SynthesisConfig   `json:"synthesis" yaml:"synthesis"`
	Store       StoreConfig       `json:"store" yaml:"store"`
}

// WithDefaults fills zero-valued fields with their documented defaults.
func (c PipelineConfig) WithDefaults() PipelineConfig {
	if c.Run.MaxDepth <= 0 {
		c.Run.MaxDepth = 1
	}
	if c.Run.MaxIterations <= 0 {
		c.Run.MaxIterations = 1
	}
	if c.Aggregation.ConnectorWorkers <= 0 {
		c.Aggregation.ConnectorWorkers = 4
	}
	if c.Aggregation.EngineWorkers <= 0 {
		c.Aggregation.EngineWorkers = 7
	}
	if c.Aggregation.VerifyWorkers <= 0 {
		c.Aggregation.VerifyWorkers = 10
	}
	if c.Aggregation.RatePerSecond <= 0 {
		c.Aggregation.RatePerSecond = 2
	}
	if c.Aggregation.Burst <= 0 {
		c.Aggregation.Burst = 4
	}
	if c.Synthesis.MaxTokens <= 0 {
		c.Synthesis.MaxTokens = 1200
	}
	if c.Synthesis.Timeout <= 0 {
		c.Synthesis.Timeout = 120 * time.Second
	}
	if c.Synthesis.HeartbeatInterval <= 0 {
		c.Synthesis.HeartbeatInterval = 5 * time.Second
	}
	if c.Store.DataDir == "" {
		c.Store.DataDir = "research"
	}
	if c.Store.CacheTTL <= 0 {
		c.Store.CacheTTL = 10 * time.Minute
	}
	return c
}
