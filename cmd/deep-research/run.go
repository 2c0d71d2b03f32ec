// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/deep-research/internal/aggregate"
	"github.com/pdiddy/deep-research/internal/credibility"
	"github.com/pdiddy/deep-research/internal/orchestrator"
	"github.com/pdiddy/deep-research/internal/progress"
	"github.com/pdiddy/deep-research/internal/store"
	"github.com/pdiddy/deep-research/internal/synthesis"
	"github.com/pdiddy/deep-research/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Execute a research run for a query",
	Long: `Run aggregates evidence from configured source connectors, scores and
ranks the sources, derives findings, synthesizes a cited narrative, and
persists the completed run.

Connectors are configured under aggregation.source_files (offline
source-file connectors); deployments embedding the engine register their
own API connectors programmatically. Without a synthesis API key the
deterministic fallback synthesis is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	runCmd.Flags().Int("max-depth", 0, "citation depth recorded with the run")
	runCmd.Flags().Int("max-iterations", 0, "refinement iteration budget")
	runCmd.Flags().Bool("json", false, "output the result payload as JSON")
	runCmd.Flags().Bool("quiet", false, "suppress progress events")

	rootCmd.AddCommand(runCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	if v, _ := cmd.Flags().GetInt("max-depth"); v > 0 {
		cfg.Run.MaxDepth = v
	}
	if v, _ := cmd.Flags().GetInt("max-iterations"); v > 0 {
		cfg.Run.MaxIterations = v
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	quiet, _ := cmd.Flags().GetBool("quiet")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scorer, err := credibility.FromConfig(ctx, credibility.Config{
		TiersFile:       cfg.Credibility.TiersFile,
		RetractionsFile: cfg.Credibility.RetractionsFile,
		RegistryURL:     cfg.Credibility.RegistryURL,
	}, &http.Client{Timeout: 30 * time.Second}, os.Stderr)
	if err != nil {
		return err
	}

	connectors, err := configuredConnectors(cfg)
	if err != nil {
		return err
	}

	var generator synthesis.Generator
	if cfg.Synthesis.APIKey != "" {
		g, err := synthesis.NewOpenAIGenerator(cfg.Synthesis)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: synthesis generator unavailable, using fallback: %v\n", err)
		} else {
			generator = g
		}
	}

	runs, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}

	emitter := progress.NewEmitter()
	if !quiet {
		emitter.Register(progress.ObserverFunc(func(e progress.Event) {
			fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", e.Status, e.Phase, e.Message)
		}))
	}

	orch := orchestrator.New(connectors, scorer, generator, runs, emitter, cfg, os.Stderr)
	defer orch.Close()

	result, err := orch.Run(ctx, args[0])
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("Run %s: %d sources, %d findings\n\n", result.ResearchID, result.TotalSources, result.FindingsCount)
	fmt.Println(result.Synthesis)
	return nil
}

// configuredConnectors builds the connector set from configuration.
// Files under aggregation.academic_source_files are served as engines of
// the academic sub-aggregation, so provenance tagging and the bounded
// verification pass apply to them.
func configuredConnectors(cfg types.PipelineConfig) ([]aggregate.Connector, error) {
	var connectors []aggregate.Connector
	for _, path := range viper.GetStringSlice("aggregation.source_files") {
		fc, err := aggregate.NewFileConnector(path)
		if err != nil {
			return nil, err
		}
		connectors = append(connectors, fc)
	}

	var engines []aggregate.Engine
	for _, path := range viper.GetStringSlice("aggregation.academic_source_files") {
		fc, err := aggregate.NewFileConnector(path)
		if err != nil {
			return nil, err
		}
		engines = append(engines, aggregate.EngineFromConnector(fc))
	}
	if len(engines) > 0 {
		connectors = append(connectors,
			aggregate.NewAcademicAggregator(engines, nil, cfg.Aggregation, os.Stderr))
	}
	return connectors, nil
}
