// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/store"
)

var showCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Load and display a completed research run",
	Long: `Show retrieves the full run document for a run id: sources with
credibility scores, findings, the citation graph, and the synthesis.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().Bool("json", false, "output the full run document as JSON")

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	runs, err := store.Open(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer runs.Close()

	run, err := runs.Load(args[0])
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	fmt.Printf("Query:     %s\n", run.Query)
	fmt.Printf("Started:   %s\n", printTime(run.StartedAt))
	fmt.Printf("Completed: %s\n", printTime(run.CompletedAt))
	fmt.Printf("Sources:   %d   Findings: %d   Model: %s\n\n",
		run.TotalSources, len(run.Findings), run.SynthesisModel)

	for i, s := range run.Sources {
		fmt.Printf("%2d. [%s] %-8s %.2f  %s\n", i+1, s.SourceID, s.CredibilityCategory, s.CredibilityScore, s.Title)
	}

	fmt.Printf("\n%s\n", run.Synthesis)
	return nil
}
