package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerlens/ledgerlens/config"
	"github.com/ledgerlens/ledgerlens/store"
	"github.com/ledgerlens/ledgerlens/store/embedder/mock"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the persisted analyses",
	Long: `Load the persisted store from DATA_DIR and print aggregate statistics.
Reads only; no embedding calls are made.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	// The mock embedder stands in for the real one here: loading and
	// aggregating never embeds, only the configured dimension must match.
	st, err := store.New(mock.New(cfg.EmbeddingDims), store.Config{
		Dir:          cfg.DataDir,
		IndexFile:    cfg.IndexFile,
		MetadataFile: cfg.MetadataFile,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	stats := st.Statistics()
	fmt.Printf("Total analyses:       %d\n", stats.TotalAnalyses)
	fmt.Printf("Employees:            %d\n", len(stats.Employees))
	for _, name := range stats.Employees {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Printf("Status distribution:\n")
	for status, count := range stats.StatusDistribution {
		fmt.Printf("  %-22s %d\n", status, count)
	}
	fmt.Printf("Total reimbursed:     $%.2f\n", stats.TotalReimbursed)
	fmt.Printf("Average reimbursement: $%.2f (over %d amounts)\n",
		stats.AverageReimbursement, stats.ReimbursementCount)
	return nil
}
