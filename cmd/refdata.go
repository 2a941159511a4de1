package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"cockpit/internal/config"
	"cockpit/internal/logger"
	"cockpit/internal/refdata"
	"cockpit/internal/sheets"
)

var refdataCmd = &cobra.Command{
	Use:   "refdata",
	Short: "Load the reference workbook and summarise it",
	Long: `Read the reference lists from the Google Sheets workbook and print how many
entries each list holds: critical suppliers per company, transport vendors per
company, FI vendors with their cir codes and posting calendar overrides.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_SHEET_URL - Reference workbook URL`,
	Example: `  # Check that the reference workbook loads
  cockpit refdata`,
	RunE: runRefdata,
}

func init() {
	rootCmd.AddCommand(refdataCmd)
}

func runRefdata(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("refdata")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required")
	}

	ctx := context.Background()

	sheetsService, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
	if err != nil {
		return fmt.Errorf("failed to initialize Google Sheets service: %w", err)
	}

	store, err := refdata.NewSheetsLoader(sheetsService, cfg.Tabs()).Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reference data: %w", err)
	}

	printStats(os.Stdout, store.Stats())
	log.Info().Msg("Reference data loaded successfully")
	return nil
}

func printStats(w io.Writer, s refdata.Stats) {
	fmt.Fprintln(w, "Critical suppliers:")
	printCounts(w, s.CriticalVendors)
	fmt.Fprintln(w, "Transport vendors:")
	printCounts(w, s.TransportVendors)
	fmt.Fprintf(w, "FI vendors: %d\n", s.FIVendors)
	fmt.Fprintf(w, "Calendar overrides: %d\n", s.CalendarEntries)
}

func printCounts(w io.Writer, counts map[string]int) {
	companies := make([]string, 0, len(counts))
	for cc := range counts {
		companies = append(companies, cc)
	}
	sort.Strings(companies)
	for _, cc := range companies {
		fmt.Fprintf(w, "  %s: %d\n", cc, counts[cc])
	}
}
