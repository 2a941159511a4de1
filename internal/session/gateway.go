// Package session describes the interactive cockpit session the pipeline
// drives. Callers address fields and buttons by meaning; translating them
// to screen elements, and retrying flaky lookups, is up to the binding.
package session

import (
	"context"

	"cockpit/pkg/models"
)

// Gateway is one interactive session. Calls are strictly ordered: each one
// acts on the screen the previous call left behind.
type Gateway interface {
	// Find selects the document in the cockpit list.
	Find(ctx context.Context, docNumber, companyCode string) (bool, error)
	// Open shows the detail screen of the selected document.
	Open(ctx context.Context, docNumber string) error

	// Text reads a field. ErrFieldUnavailable is returned when the field is
	// not on screen.
	Text(ctx context.Context, field Field) (string, error)
	SetText(ctx context.Context, field Field, value string) error
	Press(ctx context.Context, action Action) error

	Editable(ctx context.Context) (bool, error)
	StatusBar(ctx context.Context) (Message, error)
	// Popup returns the information dialog on screen, if there is one.
	Popup(ctx context.Context) (Message, bool, error)
	// Messages returns the message log of the last check, post or proposal.
	Messages(ctx context.Context) ([]Message, error)

	Notes(ctx context.Context) ([]string, error)
	POItems(ctx context.Context) ([]models.POLineItem, error)
	POPartners(ctx context.Context) ([]models.Partner, error)

	// VendorMaster reads the master data of the document vendor.
	VendorMaster(ctx context.Context) (models.VendorMasterRecord, error)
	// LookupVendor displays the master data of any vendor in a company.
	// A host error message is returned as a *StatusError.
	LookupVendor(ctx context.Context, vendor, companyCode string) (models.VendorMasterRecord, error)
	Indexing(ctx context.Context) (models.IndexingDetails, error)
	PermittedPayee(ctx context.Context) (bool, error)

	Lines() LineTable

	// OpenSession starts a secondary session. ErrSessionLimit is returned
	// when the host has no session left.
	OpenSession(ctx context.Context) (Gateway, error)
	Close() error
}

// LineTable is the invoice line grid. Rows are addressed relative to the
// current scroll position, selection by absolute index.
type LineTable interface {
	VisibleRows() int
	ScrollTo(ctx context.Context, top int) error
	Cell(ctx context.Context, row int, col Column) (string, error)
	SetCell(ctx context.Context, row int, col Column, value string) error
	Select(ctx context.Context, index int, selected bool) error
	SelectAll(ctx context.Context) error
	DeleteSelected(ctx context.Context) error
}

// Severity is the message type the host attaches to a message.
type Severity string

const (
	SeveritySuccess Severity = "S"
	SeverityWarning Severity = "W"
	SeverityError   Severity = "E"
	SeverityInfo    Severity = "I"
	SeverityAbort   Severity = "A"
)

// Message is a status bar, dialog or message log entry.
type Message struct {
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

// IsError reports whether the message stops processing.
func (m Message) IsError() bool {
	return m.Severity == SeverityError || m.Severity == SeverityAbort
}

// ConfirmWarnings presses Enter while the status bar shows a warning.
func ConfirmWarnings(ctx context.Context, g Gateway) error {
	const maxConfirmations = 20
	for i := 0; i < maxConfirmations; i++ {
		msg, err := g.StatusBar(ctx)
		if err != nil {
			return err
		}
		if msg.Severity != SeverityWarning {
			return nil
		}
		if err := g.Press(ctx, ActionEnter); err != nil {
			return err
		}
	}
	return nil
}
