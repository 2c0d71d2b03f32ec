// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the deep-research CLI: a pipeline
// that aggregates evidence for a query, scores and ranks sources, derives
// findings, synthesizes a cited narrative, and persists the run.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/deep-research/internal/secrets"
	"github.com/pdiddy/deep-research/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the deep-research CLI.
var rootCmd = &cobra.Command{
	Use:   "deep-research",
	Short: "Evidence aggregation and cited research synthesis",
	Long: `deep-research runs a research pipeline for a query: it aggregates
evidence from configured source connectors, assigns each source an
explainable trust score, ranks sources by blended credibility and citation
centrality, derives findings, produces a cited narrative synthesis, and
persists the completed run for later retrieval and search.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./deep-research.yaml or ~/.config/deep-research/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("deep-research")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "deep-research"))
		}
	}

	viper.SetEnvPrefix("DEEP_RESEARCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig materializes the viper state into the typed configuration.
// Secrets fill anything the config file leaves blank.
func pipelineConfig() types.PipelineConfig {
	cfg := types.PipelineConfig{
		Run: types.RunConfig{
			MaxDepth:      viper.GetInt("run.max_depth"),
			MaxIterations: viper.GetInt("run.max_iterations"),
		},
		Aggregation: types.AggregationConfig{
			ConnectorWorkers: viper.GetInt("aggregation.connector_workers"),
			EngineWorkers:    viper.GetInt("aggregation.engine_workers"),
			VerifyWorkers:    viper.GetInt("aggregation.verify_workers"),
			RatePerSecond:    viper.GetFloat64("aggregation.rate_per_second"),
			Burst:            viper.GetInt("aggregation.burst"),
		},
		Credibility: types.CredibilityConfig{
			TiersFile:       viper.GetString("credibility.tiers_file"),
			RetractionsFile: viper.GetString("credibility.retractions_file"),
			RegistryURL:     viper.GetString("credibility.registry_url"),
		},
		Synthesis: types.SynthesisConfig{
			Model:             viper.GetString("synthesis.model"),
			APIKey:            viper.GetString("synthesis.api_key"),
			BaseURL:           viper.GetString("synthesis.base_url"),
			MaxTokens:         viper.GetInt("synthesis.max_tokens"),
			Timeout:           viper.GetDuration("synthesis.timeout"),
			HeartbeatInterval: viper.GetDuration("synthesis.heartbeat_interval"),
		},
		Store: types.StoreConfig{
			DataDir:  viper.GetString("store.data_dir"),
			CacheTTL: viper.GetDuration("store.cache_ttl"),
		},
	}

	if cfg.Synthesis.APIKey == "" {
		cfg.Synthesis.APIKey = secrets.Get(loadedSecrets, "openai-api-key")
	}
	if cfg.Credibility.RegistryURL == "" {
		cfg.Credibility.RegistryURL = secrets.Get(loadedSecrets, "retraction-registry-url")
	}
	return cfg.WithDefaults()
}

// printTime formats a timestamp for table output, blank when zero.
func printTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
