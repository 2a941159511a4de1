package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cockpit/internal/tolerance"
)

var toleranceCmd = &cobra.Command{
	Use:   "tolerance",
	Short: "Check an open balance against a tolerance band",
	Long: `Evaluate whether an open balance may be booked against a reference amount.

Amounts are given as displayed by SAP: "1.234,56" and trailing minus signs
("12,50-") are understood. A band passes when both its relative and its
absolute limit hold.

Bands:
  low     - 10% and 25 EUR
  high    - 20% and 100 EUR
  extreme - effectively unlimited`,
	Example: `  # Small difference on a standard order
  cockpit tolerance --saldo 12,50- --total 1.000,00

  # Ariba two-way match
  cockpit tolerance --saldo 80,00 --total 1.000,00 --band high`,
	RunE: runTolerance,
}

func init() {
	rootCmd.AddCommand(toleranceCmd)

	toleranceCmd.Flags().String("saldo", "", "Open balance")
	toleranceCmd.Flags().String("total", "", "Reference amount")
	toleranceCmd.Flags().String("band", "low", "Tolerance band: low, high or extreme")
	_ = toleranceCmd.MarkFlagRequired("saldo")
	_ = toleranceCmd.MarkFlagRequired("total")
}

func runTolerance(cmd *cobra.Command, args []string) error {
	saldo, _ := cmd.Flags().GetString("saldo")
	total, _ := cmd.Flags().GetString("total")
	bandName, _ := cmd.Flags().GetString("band")

	band, err := tolerance.BandByName(bandName)
	if err != nil {
		return err
	}

	if err := tolerance.CheckText(saldo, total, band); err != nil {
		if _, ok := tolerance.AsViolation(err); ok {
			fmt.Printf("FAILED: %v\n", err)
			return nil
		}
		return err
	}
	fmt.Printf("OK: %s is within the %s band of %s\n", saldo, band.Name, total)
	return nil
}
