package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "paperd",
	Short:         "Operational ledger for a paper supply company",
	Long:          "paperd tracks inventory, pricing, quotes, fulfillment, and cash for a paper supply company in an append-only transaction ledger.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(inventoryCmd)
	rootCmd.AddCommand(reorderCmd)
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(deliveryCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(cashCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
