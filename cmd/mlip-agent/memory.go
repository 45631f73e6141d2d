// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/mlip-agent/internal/memory"
	"github.com/pdiddy/mlip-agent/pkg/types"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect the agent's record of past runs",
	Long: `Memory reads the JSONL store of past run records. Use "retrieve" to
rank records against a query the way the pipeline does, or "export" to
dump the full store as YAML.`,
}

// --- retrieve subcommand ---

var memoryRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Rank past runs by similarity to a query",
	RunE:  runMemoryRetrieve,
}

func runMemoryRetrieve(cmd *cobra.Command, args []string) error {
	store, err := openMemoryStore(cmd)
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	k, _ := cmd.Flags().GetInt("k")

	records, err := store.TopK(query, k)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No past runs recorded.")
		return nil
	}
	for _, rec := range records {
		fmt.Printf("%s  %-10s  %-12s  %s\n",
			rec.Timestamp.Format("2006-01-02 15:04"), rec.VerdictStatus, rec.Material, rec.QueryCanonical)
	}
	fmt.Printf("\n%d record(s)\n", len(records))
	return nil
}

// --- export subcommand ---

var memoryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full memory store as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openMemoryStore(cmd)
		if err != nil {
			return err
		}
		return store.ExportYAML(os.Stdout)
	},
}

func openMemoryStore(cmd *cobra.Command) (*memory.Store, error) {
	path, _ := cmd.Flags().GetString("memory-file")
	return memory.NewStore(types.MemoryConfig{Path: path}, zap.NewNop())
}

func init() {
	memoryCmd.PersistentFlags().String("memory-file", "memory/memory.jsonl", "path to the JSONL memory store")

	memoryRetrieveCmd.Flags().Int("k", 5, "number of records to return")
	memoryRetrieveCmd.Flags().Bool("json", false, "output records as JSON")

	memoryCmd.AddCommand(memoryRetrieveCmd)
	memoryCmd.AddCommand(memoryExportCmd)

	rootCmd.AddCommand(memoryCmd)
}
