package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ledgerlens",
	Short: "Invoice reimbursement analysis and retrieval-augmented chat",
	Long: `ledgerlens analyzes employee expense invoices against a reimbursement
policy, stores the structured results in an embedding index, and answers
natural-language questions about them over a conversational API.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
