// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted research runs, newest first",
	Long: `List searches the run index. With --query only runs whose query
contains the substring are shown.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().String("query", "", "filter runs by query substring")
	listCmd.Flags().Int("limit", 20, "maximum number of runs to list")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	runs, err := store.Open(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer runs.Close()

	substr, _ := cmd.Flags().GetString("query")
	limit, _ := cmd.Flags().GetInt("limit")

	rows, err := runs.Search(substr, limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	fmt.Printf("%-48s  %-16s  %-7s  %s\n", "ID", "Completed", "Sources", "Query")
	fmt.Println(strings.Repeat("-", 100))
	for _, row := range rows {
		query := row.Query
		if len(query) > 40 {
			query = query[:37] + "..."
		}
		fmt.Printf("%-48s  %-16s  %-7d  %s\n", row.ID, printTime(row.CompletedAt), row.SourceCount, query)
	}
	fmt.Printf("\n%d runs\n", len(rows))
	return nil
}
