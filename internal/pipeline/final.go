package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cockpit/internal/numeric"
	"cockpit/internal/reconcile"
	"cockpit/internal/refdata"
	"cockpit/internal/session"
	"cockpit/internal/vmd"
)

const dateLayout = "02.01.2006"

func (p *Pipeline) vendorMasterData(ctx context.Context, r *run) Outcome {
	res, err := p.validator.Validate(ctx, p.gw, r.doc.DocNumber)
	if err != nil {
		if rej, ok := vmd.AsRejection(err); ok {
			return Reject(rej.Reason)
		}
		return p.fail(r, "checkVMD", err)
	}
	r.vendorData = res
	if r.doc.Vendor == "" {
		vendor, err := p.text(ctx, session.FieldVendor)
		if err != nil {
			return p.fail(r, "checkVMD", err)
		}
		r.doc.Vendor = vendor
	}
	return Continue()
}

func (p *Pipeline) permittedPayee(ctx context.Context, r *run) Outcome {
	const op = "checkPermittedPayee"
	doc := r.doc.DocNumber

	if err := p.gw.Press(ctx, session.ActionVendorMasterData); err != nil {
		return p.fail(r, op, err)
	}
	popup, ok, err := p.gw.Popup(ctx)
	if err != nil {
		return p.fail(r, op, err)
	}
	if ok && strings.Contains(popup.Text, "is marked for deletion") {
		if err := p.gw.Press(ctx, session.ActionClosePopup); err != nil {
			return p.fail(r, op, err)
		}
		return Rejectf(doc, "%s", popup.Text)
	}

	permitted, err := p.gw.PermittedPayee(ctx)
	if err != nil && !unavailable(err) {
		return p.fail(r, op, err)
	}
	if err := p.gw.Press(ctx, session.ActionBack); err != nil {
		return p.fail(r, op, err)
	}
	if permitted {
		return Reject(fmt.Sprintf("Vendor is excluded from posting. Document %s cannot be processed.", doc))
	}
	return Continue()
}

func (p *Pipeline) requiredFields(ctx context.Context, r *run) Outcome {
	const op = "checkFields"

	required := []struct {
		name  string
		field session.Field
	}{
		{"Reference", session.FieldReference},
		{"Document date", session.FieldDocumentDate},
		{"Gross amount", session.FieldGrossAmount},
		{"Net amount", session.FieldNetAmount},
		{"Vendor", session.FieldVendor},
		{"Currency", session.FieldCurrency},
		{"Company code", session.FieldCompanyCode},
	}

	values := make(map[session.Field]string, len(required))
	var empty []string
	for _, f := range required {
		v, err := p.text(ctx, f.field)
		if err != nil {
			return p.fail(r, op, err)
		}
		if v == "" {
			empty = append(empty, f.name)
		}
		values[f.field] = v
	}
	if len(empty) > 0 {
		label, verb := "Field", "is"
		if len(empty) > 1 {
			label, verb = "Fields", "are"
		}
		return Rejectf(r.doc.DocNumber, "%s: %s %s empty.", label, quotedList(empty), verb)
	}

	r.doc.GrossAmount = values[session.FieldGrossAmount]
	gross, gerr := numeric.Amount(values[session.FieldGrossAmount])
	net, nerr := numeric.Amount(values[session.FieldNetAmount])
	if gerr == nil && nerr == nil && gross.LessThan(net) {
		return Rejectf(r.doc.DocNumber, "Value in field [Net amount] is greater than in [Gross amount]")
	}
	return Continue()
}

func (p *Pipeline) poConsistency(ctx context.Context, r *run) Outcome {
	const op = "checkPO"

	invoice := make(map[session.Field]string, 3)
	for _, f := range []session.Field{session.FieldVendor, session.FieldCurrency, session.FieldCompanyCode} {
		v, err := p.text(ctx, f)
		if err != nil {
			return p.fail(r, op, err)
		}
		invoice[f] = v
	}

	if err := p.gw.Press(ctx, session.ActionDisplayPO); err != nil {
		return p.fail(r, op, err)
	}
	order := make(map[session.Field]string, 3)
	for _, f := range []session.Field{session.FieldPOVendor, session.FieldPOCurrency, session.FieldPOCompanyCode} {
		v, err := p.text(ctx, f)
		if err != nil {
			return p.fail(r, op, err)
		}
		order[f] = v
	}
	partners, err := p.gw.POPartners(ctx)
	if err != nil && !unavailable(err) {
		return p.fail(r, op, err)
	}
	if err := p.gw.Press(ctx, session.ActionBack); err != nil {
		return p.fail(r, op, err)
	}

	// The PO vendor field shows the account followed by the name.
	poVendor, _, _ := strings.Cut(order[session.FieldPOVendor], " ")

	var diff []string
	if refdata.VendorKey(invoice[session.FieldVendor]) != refdata.VendorKey(poVendor) {
		diff = append(diff, "vendor number")
	}
	if !strings.EqualFold(invoice[session.FieldCurrency], order[session.FieldPOCurrency]) {
		diff = append(diff, "currency")
	}
	if !strings.EqualFold(invoice[session.FieldCompanyCode], order[session.FieldPOCompanyCode]) {
		diff = append(diff, "company code")
	}
	hasParty := false
	for _, partner := range partners {
		if strings.Contains(partner.Role, "Invoicing Party") && partner.Number != "" {
			hasParty = true
			break
		}
	}
	if !hasParty {
		diff = append(diff, "There is no invoicing party on tab 'Partners' in this PO.")
	}

	if len(diff) > 0 {
		return Reject(fmt.Sprintf("PO and invoice have different: %s", quotedList(diff)))
	}
	return Continue()
}

func (p *Pipeline) dates(ctx context.Context, r *run) Outcome {
	const op = "checkDates"
	prefix := "Error during setting posting date: "

	docText, err := p.text(ctx, session.FieldDocumentDate)
	if err != nil {
		return p.fail(r, op, err)
	}
	docDate, err := refdata.ParseDate(docText)
	if err != nil {
		return Reject(prefix + fmt.Sprintf("Document %s: %v", r.doc.DocNumber, err))
	}

	now := p.opts.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	posting := today
	if override, ok := p.refs.LookupPostingDateOverride(r.doc.CompanyCode, today); ok {
		posting = override
		r.log.Info().Str("posting_date", posting.Format(dateLayout)).Msg("Posting date taken from the calendar")
	}

	if err := p.gw.SetText(ctx, session.FieldPostingDate, posting.Format(dateLayout)); err != nil {
		return p.fail(r, op, err)
	}
	if err := p.gw.Press(ctx, session.ActionEnter); err != nil {
		return p.fail(r, op, err)
	}
	if err := session.ConfirmWarnings(ctx, p.gw); err != nil {
		return p.fail(r, op, err)
	}

	backText, err := p.text(ctx, session.FieldPostingDate)
	if err != nil {
		return p.fail(r, op, err)
	}
	back, err := refdata.ParseDate(backText)
	if err != nil {
		return Reject(prefix + fmt.Sprintf("Document %s: %v", r.doc.DocNumber, err))
	}
	if back.Before(docDate) {
		return Reject(prefix + "Document date is greater than posting date.")
	}
	return Continue()
}

func (p *Pipeline) bankIDs(ctx context.Context, r *run) Outcome {
	const op = "checkBankIDs"
	doc := r.doc.DocNumber

	bankType, err := p.text(ctx, session.FieldBankType)
	if err != nil {
		return p.fail(r, op, err)
	}
	if bankType != "" {
		return Continue()
	}

	vendor := r.vendorData.Vendor
	choice := ""
	switch {
	case len(vendor.BankIDs) == 1:
		choice = vendor.BankIDs[0].Code
	case vendor.Interco:
		for _, b := range vendor.BankIDs {
			if b.Code == "CC" {
				choice = b.Code
				break
			}
		}
		if choice == "" {
			return Rejectf(doc, "Vendor %s is an intercompany partner, but there is no 'CC' bank account in master data.", r.doc.Vendor)
		}
	default:
		return Rejectf(doc, "Bank account was not selected.")
	}

	if err := p.gw.SetText(ctx, session.FieldBankType, choice); err != nil {
		return p.fail(r, op, err)
	}
	r.log.Debug().Str("bank_type", choice).Msg("Bank type selected")
	return Continue()
}

func (p *Pipeline) saldo(ctx context.Context, r *run) Outcome {
	saldo, err := p.readSaldo(ctx)
	if err != nil {
		return p.fail(r, "checkSaldo", err)
	}
	if !saldo.IsZero() {
		return Rejectf(r.doc.DocNumber, "Saldo is not zero (%s)", saldo.Text)
	}
	return Continue()
}

func (p *Pipeline) taxCode(ctx context.Context, r *run) Outcome {
	_, res, err := p.reconciler.Scan(ctx, p.gw.Lines(), reconcile.Options{TaxCodes: true})
	if err != nil {
		return p.fail(r, "checkTaxCode", err)
	}
	if res.MissingTaxCodes != "" {
		return Rejectf(r.doc.DocNumber, "%s", strings.TrimSpace(res.MissingTaxCodes))
	}
	return Continue()
}

func (p *Pipeline) beforeBook(ctx context.Context, r *run) Outcome {
	const op = "checkBeforeBook"
	doc := r.doc.DocNumber

	if err := session.ConfirmWarnings(ctx, p.gw); err != nil {
		return p.fail(r, op, err)
	}
	if err := p.gw.Press(ctx, session.ActionCheck); err != nil {
		return p.fail(r, op, err)
	}
	if err := session.ConfirmWarnings(ctx, p.gw); err != nil {
		return p.fail(r, op, err)
	}
	msgs, err := p.gw.Messages(ctx)
	if err != nil {
		return p.fail(r, op, err)
	}

	for _, m := range msgs {
		if !m.IsError() {
			continue
		}
		if strings.Contains(m.Text, "Transport inv - WC price/quantity difference needed") {
			if err := p.gw.Press(ctx, session.ActionBack); err != nil {
				return p.fail(r, op, err)
			}
			return Rejectf(doc, "Workflow 'Transport Invoice Difference'. WebCycle sending is disabled")
		}
		if strings.Contains(m.Text, "has been set as not relevant for tax") {
			if err := p.gw.SetText(ctx, session.FieldHeaderText, m.Text); err != nil {
				return p.fail(r, op, err)
			}
		}
		return Rejectf(doc, "%s", m.Text)
	}
	return Continue()
}

func (p *Pipeline) book(ctx context.Context, r *run) Outcome {
	const op = "performBookingAction"
	doc := r.doc.DocNumber

	if err := p.gw.Press(ctx, session.ActionCheck); err != nil {
		return p.fail(r, op, err)
	}
	msgs, err := p.gw.Messages(ctx)
	if err != nil {
		return p.fail(r, op, err)
	}
	for _, m := range msgs {
		if m.IsError() {
			return Rejectf(doc, "%s", m.Text)
		}
	}

	if err := p.gw.Press(ctx, session.ActionPost); err != nil {
		return p.fail(r, op, err)
	}
	if msgs, err = p.gw.Messages(ctx); err != nil {
		return p.fail(r, op, err)
	}
	confirmation := ""
	for _, m := range msgs {
		if !m.IsError() {
			confirmation = m.Text
		}
	}
	if confirmation == "" {
		return Rejectf(doc, "Posting was not confirmed")
	}

	number, err := p.text(ctx, session.FieldPostingNumber)
	if err != nil {
		return p.fail(r, "getPostingNumber", err)
	}
	if number == "" {
		return p.fail(r, "getPostingNumber", ErrNoPostingNumber)
	}
	r.postingNumber = number
	r.log.Info().Str("posting_number", number).Str("confirmation", confirmation).Msg("Document posted")
	return Continue()
}
