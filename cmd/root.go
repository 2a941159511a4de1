package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cockpit/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "cockpit",
	Short: "Cockpit CLI - validates and posts vendor invoices from the SAP invoice cockpit",
	Long: `Cockpit CLI takes invoice documents waiting in the SAP invoice cockpit and
decides their fate: each document is either posted, rejected with a reason, or
reported as not found.

Reference lists (critical suppliers, transport vendors, FI vendors and the
posting calendar) are read from a Google Sheets workbook. Dispositions can be
appended to a report sheet, journaled to Postgres and published to Kafka.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Cockpit CLI executed")

		fmt.Println("Welcome to Cockpit CLI!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
