// Package vmd cross-checks vendor master data: the document vendor against
// its indexing data, then against the invoicing party of the purchase order.
package vmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"cockpit/internal/logger"
	"cockpit/internal/session"
	"cockpit/pkg/models"
)

// Indexed bank rows that carry the bank account to compare.
const (
	noCheckBankName = "No check (see additional bank data check)"
	invoicingParty  = "Invoicing Party"
)

var treasuryBankNames = []string{"ARCELOR MITTAL TREASURY", "ARCELORMITTAL TREASURY"}

// Rejection is a business reason the document cannot be posted.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string {
	return r.Reason
}

func reject(docNumber, format string, args ...any) *Rejection {
	return &Rejection{Reason: fmt.Sprintf("Document %s cannot be processed. ", docNumber) + fmt.Sprintf(format, args...)}
}

// AsRejection unwraps a *Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// Result holds what a passing check collected.
type Result struct {
	Vendor         models.VendorMasterRecord
	Indexing       models.IndexingDetails
	BankIndex      string
	POCompanyCode  string
	POCurrency     string
	InvoicingParty string
	Party          models.VendorMasterRecord
}

// Validator runs the vendor master data check.
type Validator struct {
	log zerolog.Logger
}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{log: logger.WithComponent("vmd")}
}

// Validate checks the open document. Business failures are returned as
// *Rejection; any other error is a session fault.
func (v *Validator) Validate(ctx context.Context, g session.Gateway, docNumber string) (Result, error) {
	const op = "Validate"
	var res Result

	vendor, err := g.VendorMaster(ctx)
	if err != nil {
		if unavailable(err) {
			return res, reject(docNumber, "Vendor details could not be downloaded (check vmd)")
		}
		return res, fmt.Errorf("%s: vendor master: %w", op, err)
	}
	res.Vendor = vendor

	indexing, err := g.Indexing(ctx)
	if err != nil {
		if unavailable(err) {
			return res, reject(docNumber, "Indexing details could not be downloaded (check vmd)")
		}
		return res, fmt.Errorf("%s: indexing: %w", op, err)
	}
	res.Indexing = indexing

	bankIndex, ok := IndexedBank(indexing, vendor.Interco)
	if !ok {
		return res, reject(docNumber, "Indexing details could not be downloaded (check vmd)")
	}
	res.BankIndex = bankIndex

	if reason := Compare(vendor, indexing.VAT, bankIndex); reason != "" {
		return res, reject(docNumber, "%s", reason)
	}

	if err := v.readPO(ctx, g, docNumber, &res); err != nil {
		return res, err
	}

	party, err := v.lookupParty(ctx, g, docNumber, res.InvoicingParty, res.POCompanyCode)
	if err != nil {
		return res, err
	}
	res.Party = party

	if len(vendor.VATNumbers) == 0 || len(party.VATNumbers) == 0 {
		return res, reject(docNumber, "VAT number of vendor or VAT number of invoicing party couldn't have been downloaded from VMD")
	}
	if vendor.VATNumbers[0] != party.VATNumbers[0] {
		return res, reject(docNumber, "VAT number of vendor and VAT number of invoicing party in PO are different")
	}
	if len(vendor.BankIDs) == 0 || len(party.BankIDs) == 0 {
		return res, reject(docNumber, "Bank IDs couldn't have been downloaded from VMD.")
	}
	if vendor.BankIDs[0].IBAN != party.BankIDs[0].IBAN {
		return res, reject(docNumber, "Bank account number of vendor and invoicing party in PO are different.")
	}

	v.log.Info().Str("doc_number", docNumber).Str("invoicing_party", res.InvoicingParty).Msg("Vendor master data check passed")
	return res, nil
}

// readPO collects company code, invoicing party and currency of the PO.
func (v *Validator) readPO(ctx context.Context, g session.Gateway, docNumber string, res *Result) error {
	const op = "readPO"

	if err := g.Press(ctx, session.ActionDisplayPO); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	company, err := g.Text(ctx, session.FieldPOCompanyCode)
	if err != nil && !unavailable(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if company == "" {
		return reject(docNumber, "There is no 'company code' on tab 'Org. Data' in this PO.")
	}
	res.POCompanyCode = company

	partners, err := g.POPartners(ctx)
	if err != nil && !unavailable(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, p := range partners {
		if strings.Contains(p.Role, invoicingParty) {
			res.InvoicingParty = p.Number
			break
		}
	}
	if res.InvoicingParty == "" {
		return reject(docNumber, "There is no 'invoicing party' on tab 'Partners' in this PO.")
	}

	currency, err := g.Text(ctx, session.FieldPOCurrency)
	if err != nil && !unavailable(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	res.POCurrency = strings.ToUpper(strings.TrimSpace(currency))
	if res.POCurrency == "" {
		return reject(docNumber, "There is no 'po currency' on tab 'Delivery/Invoice' in this PO.")
	}

	if err := g.Press(ctx, session.ActionBack); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// lookupParty reads the invoicing party on a secondary session, which is
// closed again on every path.
func (v *Validator) lookupParty(ctx context.Context, g session.Gateway, docNumber, party, companyCode string) (models.VendorMasterRecord, error) {
	const op = "lookupParty"

	secondary, err := g.OpenSession(ctx)
	if err != nil {
		if errors.Is(err, session.ErrSessionLimit) {
			v.log.Warn().Str("doc_number", docNumber).Msg("No secondary session available")
			return models.VendorMasterRecord{}, reject(docNumber, "Vendor details could not be downloaded. New SAP session couldn't be started")
		}
		return models.VendorMasterRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if cerr := secondary.Close(); cerr != nil {
			v.log.Warn().Err(cerr).Str("doc_number", docNumber).Msg("Failed to close secondary session")
		}
	}()

	rec, err := secondary.LookupVendor(ctx, party, companyCode)
	if err != nil {
		var se *session.StatusError
		switch {
		case errors.As(err, &se):
			return rec, reject(docNumber, "SAP info: %s", se.Message.Text)
		case unavailable(err):
			return rec, reject(docNumber, "Vendor details could not be downloaded (check vmd)")
		default:
			return rec, fmt.Errorf("%s: %w", op, err)
		}
	}
	return rec, nil
}

// IndexedBank picks the bank account captured at indexing level: the
// treasury account for intercompany vendors, the "no check" row for all
// others. A placeholder row means the bank tab could not be read.
func IndexedBank(details models.IndexingDetails, interco bool) (string, bool) {
	for _, b := range details.Banks {
		if b.Name == "" {
			break
		}
		if strings.Contains(b.Name, "__________________________") {
			return "", false
		}
		if interco {
			for _, name := range treasuryBankNames {
				if strings.Contains(b.Name, name) {
					return b.IBAN, true
				}
			}
			continue
		}
		if strings.Contains(b.Name, noCheckBankName) {
			return b.IBAN, true
		}
	}
	return "", false
}

// Compare checks the vendor master record against the indexed VAT number
// and bank account. It returns the rejection reason, or "" when they match.
func Compare(vendor models.VendorMasterRecord, vatIndex, bankIndex string) string {
	if !CompareVAT(vendor.VATNumbers, vatIndex) {
		return "VAT Numbers of Processed Vendor and Indexing Level Vendor do not match! (check vmd)"
	}
	if len(vendor.BankIDs) == 0 {
		return "No bank account available in vendor master data! (check vmd)"
	}
	if !CompareBanks(vendor.BankIDs, bankIndex) {
		return "Bank account in VMD and indexing level bank account do not match! (check vmd)"
	}
	return ""
}

// CompareVAT reports whether the indexed VAT number is one of the vendor's.
func CompareVAT(vatNumbers []string, vatIndex string) bool {
	for _, vat := range vatNumbers {
		if vat == vatIndex {
			return true
		}
	}
	return false
}

// CompareBanks reports whether an account contains, or is contained in, the
// indexed account. An empty value on either side is contained in the other,
// so a vendor passes when nothing was indexed.
func CompareBanks(banks []models.BankID, bankIndex string) bool {
	if len(banks) == 0 {
		return false
	}
	for _, b := range banks {
		if strings.Contains(b.IBAN, bankIndex) || strings.Contains(bankIndex, b.IBAN) {
			return true
		}
	}
	return false
}

func unavailable(err error) bool {
	return errors.Is(err, session.ErrFieldUnavailable)
}
