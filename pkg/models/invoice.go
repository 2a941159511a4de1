package models

import "github.com/shopspring/decimal"

// DocumentSource is the channel an invoice entered the cockpit through.
type DocumentSource string

const (
	SourceAriba        DocumentSource = "Ariba"
	SourcePDFCollector DocumentSource = "PDFCollector"
	SourceUnknown      DocumentSource = "Unknown"
)

// Document kinds as shown in the cockpit list.
const (
	KindMM = "MM"
	KindFI = "FI"
)

// InvoiceDocument holds what the pipeline learns about one cockpit document.
// It lives only for the duration of a single run.
type InvoiceDocument struct {
	// Identification
	DocNumber   string // Cockpit document number
	CompanyCode string // e.g. "3B5", "V436"

	// Cockpit list metadata
	WorkflowStatus      string // Workflow status text
	WorkflowDescription string // Workflow description text
	Kind                string // "MM" or "FI"
	FollowUp            string // Follow-up flag

	// Header facts
	Source      DocumentSource
	GivenPO     string // PO number resolved from workflow notes, if any
	PONumber    string // PO number on the General tab
	Vendor      string // Vendor account
	Currency    string
	NetAmount   decimal.Decimal // Net amount as a number
	NetText     string          // Net amount as displayed
	Saldo       decimal.Decimal // Balance: net amount minus the sum of lines
	SaldoText   string          // Balance as displayed
	GrossAmount string
}

// HasPO reports whether the document carries a usable purchase order number.
func (d *InvoiceDocument) HasPO() bool {
	return d.PONumber != "" && d.PONumber != KindFI
}
