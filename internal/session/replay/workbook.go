// Package replay implements session.Gateway over a recorded workbook of
// cockpit documents. It stands in for the host when running offline and in
// tests.
package replay

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"cockpit/internal/refdata"
	"cockpit/internal/session"
	"cockpit/pkg/models"
)

const (
	defaultVisibleRows = 7
	defaultMaxSessions = 6
)

// Workbook is the JSON document a replay host is built from.
type Workbook struct {
	VisibleRows  int                                  `json:"visible_rows"`
	MaxSessions  int                                  `json:"max_sessions"`
	BusySessions int                                  `json:"busy_sessions"` // sessions already open besides the primary one
	Refdata      refdata.Snapshot                     `json:"refdata"`
	Documents    []Document                           `json:"documents"`
	Vendors      map[string]models.VendorMasterRecord `json:"vendors"`       // vendor lookups by account
	VendorErrors map[string]string                    `json:"vendor_errors"` // host error text by account
}

// Document is one recorded cockpit document.
type Document struct {
	DocNumber   string                   `json:"doc_number"`
	CompanyCode string                   `json:"company_code"`
	Fields      map[session.Field]string `json:"fields"`
	Unavailable []session.Field          `json:"unavailable"`
	Editable    bool                     `json:"editable"`
	OpenError   string                   `json:"open_error"`

	// DisconnectOn names "open" or an action at which the host connection
	// drops. It fires once.
	DisconnectOn string `json:"disconnect_on"`

	StatusBar       session.Message  `json:"status_bar"`
	TakeOver        *Reaction        `json:"take_over"`
	DisplayPOStatus *session.Message `json:"display_po_status"`
	VendorPopup     string           `json:"vendor_popup"`

	Notes          []string                   `json:"notes"`
	POItems        []models.POLineItem        `json:"po_items"`
	POPartners     []models.Partner           `json:"po_partners"`
	Lines          []Line                     `json:"lines"`
	Proposal       *Proposal                  `json:"proposal"`
	CheckMessages  []session.Message          `json:"check_messages"`
	PostMessages   []session.Message          `json:"post_messages"`
	PostingNumber  string                     `json:"posting_number"`
	VendorMaster   *models.VendorMasterRecord `json:"vendor_master"`
	Indexing       *models.IndexingDetails    `json:"indexing"`
	PermittedPayee bool                       `json:"permitted_payee"`
}

// Reaction is what the host shows when a button is pressed.
type Reaction struct {
	Status *session.Message `json:"status"`
	Popup  string           `json:"popup"`
}

// Proposal is the outcome of regenerating the item proposal.
type Proposal struct {
	Lines    []Line            `json:"lines"`
	Messages []session.Message `json:"messages"`
}

// Line is one invoice line.
type Line struct {
	InvoiceItem string `json:"invoice_item"`
	PONumber    string `json:"po_number"`
	POItem      string `json:"po_item"`
	Amount      string `json:"amount"`
	Quantity    string `json:"quantity"`
	Unit        string `json:"unit"`
	TaxCode     string `json:"tax_code"`
}

func (l Line) get(col session.Column) (string, bool) {
	switch col {
	case session.ColumnInvoiceItem:
		return l.InvoiceItem, true
	case session.ColumnPONumber:
		return l.PONumber, true
	case session.ColumnPOItem:
		return l.POItem, true
	case session.ColumnAmount:
		return l.Amount, true
	case session.ColumnQuantity:
		return l.Quantity, true
	case session.ColumnUnit:
		return l.Unit, true
	case session.ColumnTaxCode:
		return l.TaxCode, true
	}
	return "", false
}

func (l *Line) set(col session.Column, v string) bool {
	switch col {
	case session.ColumnInvoiceItem:
		l.InvoiceItem = v
	case session.ColumnPONumber:
		l.PONumber = v
	case session.ColumnPOItem:
		l.POItem = v
	case session.ColumnAmount:
		l.Amount = v
	case session.ColumnQuantity:
		l.Quantity = v
	case session.ColumnUnit:
		l.Unit = v
	case session.ColumnTaxCode:
		l.TaxCode = v
	default:
		return false
	}
	return true
}

// placeholder is what an empty grid row shows in a column.
func placeholder(col session.Column) string {
	switch col {
	case session.ColumnPONumber:
		return "__________"
	case session.ColumnAmount:
		return "________________"
	case session.ColumnTaxCode:
		return "__"
	default:
		return "_____"
	}
}

// Load reads a workbook.
func Load(r io.Reader) (*Workbook, error) {
	var wb Workbook
	if err := json.NewDecoder(r).Decode(&wb); err != nil {
		return nil, fmt.Errorf("decode workbook: %w", err)
	}
	return &wb, nil
}

// LoadFile reads a workbook from disk.
func LoadFile(path string) (*Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// DocumentNumbers lists the documents of a company in workbook order. An
// empty company selects every document.
func (wb *Workbook) DocumentNumbers(companyCode string) []string {
	var out []string
	for _, d := range wb.Documents {
		if companyCode == "" || d.CompanyCode == companyCode {
			out = append(out, d.DocNumber)
		}
	}
	return out
}
