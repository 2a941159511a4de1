package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cockpit/internal/classify"
)

var poFromNoteCmd = &cobra.Command{
	Use:   "po-from-note [note]",
	Short: "Extract a purchase order number from a workflow note",
	Long: `Look for a purchase order number in a free-text note, the way documents
without an order on their header are resolved. Notes referring to ZRM orders
are reported as unsupported.`,
	Example: `  cockpit po-from-note "please use PO 4500123456 for this invoice"`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runPOFromNote,
}

func init() {
	rootCmd.AddCommand(poFromNoteCmd)
}

func runPOFromNote(cmd *cobra.Command, args []string) error {
	fmt.Println(describeNote(strings.Join(args, " ")))
	return nil
}

func describeNote(note string) string {
	po, result := classify.PONumberFromNote(note)
	switch result {
	case classify.NotePO:
		return po
	case classify.NoteZRM:
		return "ZRM order: not supported"
	default:
		return "no purchase order number found"
	}
}
