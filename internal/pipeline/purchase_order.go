package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"cockpit/internal/numeric"
	"cockpit/internal/session"
	"cockpit/internal/tolerance"
	"cockpit/pkg/models"
)

// poFacts selects what collectPO reads besides the common facts.
type poFacts struct {
	grBased bool
	taxCode bool
}

// collectPO reads the purchase order behind the document together with
// vendor, net amount and saldo of the invoice. A PO number resolved from the
// notes is written to the document first.
func (p *Pipeline) collectPO(ctx context.Context, r *run, want poFacts) Outcome {
	const op = "collectPO"
	doc := r.doc.DocNumber

	if r.doc.GivenPO != "" {
		if err := p.gw.SetText(ctx, session.FieldPONumber, r.doc.GivenPO); err != nil {
			return p.fail(r, op, err)
		}
	}
	number, err := p.text(ctx, session.FieldPONumber)
	if err != nil {
		return p.fail(r, op, err)
	}
	r.doc.PONumber = number

	po := models.PurchaseOrder{Number: number, Type: r.po.Type}
	if r.doc.HasPO() {
		if out := p.readPO(ctx, r, &po, want); out.Kind != OutcomeContinue {
			return out
		}
	}

	vendor, err := p.text(ctx, session.FieldVendor)
	if err != nil {
		return p.fail(r, op, err)
	}
	if vendor == "" {
		return Reject(fmt.Sprintf("Document %s, cannot be processed. No Vendor account was assigned", doc))
	}
	r.doc.Vendor = vendor
	po.Vendor = vendor

	net, err := p.text(ctx, session.FieldNetAmount)
	if err != nil {
		return p.fail(r, op, err)
	}
	r.doc.NetText = net
	r.doc.NetAmount = numeric.AmountOrZero(net)

	saldo, err := p.readSaldo(ctx)
	if err != nil {
		return p.fail(r, op, err)
	}
	r.doc.SaldoText = saldo.Text
	r.doc.Saldo = saldo.Value

	r.po = po
	r.log.Debug().
		Str("po_number", po.Number).
		Bool("two_way_match", po.TwoWayMatch).
		Int("po_items", len(po.Items)).
		Str("saldo", saldo.Text).
		Msg("Purchase order collected")
	return Continue()
}

// readPO displays the purchase order and reads its items, flags, totals and
// creator, then returns to the invoice.
func (p *Pipeline) readPO(ctx context.Context, r *run, po *models.PurchaseOrder, want poFacts) Outcome {
	const op = "readPO"
	doc := r.doc.DocNumber

	if err := p.gw.Press(ctx, session.ActionDisplayPO); err != nil {
		return p.fail(r, op, err)
	}

	items, err := p.gw.POItems(ctx)
	if err != nil && !unavailable(err) {
		return p.fail(r, op, err)
	}
	po.Items = items

	if want.grBased {
		gr, err := p.gw.Text(ctx, session.FieldPOGRBased)
		if err != nil {
			if !unavailable(err) {
				return p.fail(r, op, err)
			}
			if err := p.gw.Press(ctx, session.ActionBack); err != nil {
				return p.fail(r, op, err)
			}
			return Reject(fmt.Sprintf("Document %s, cannot be processed. [GR Based IV] field is not available in PO on tab Invoice", doc))
		}
		po.GRBased = checked(gr)
		po.TwoWayMatch = !po.GRBased
	}

	if want.taxCode {
		tax, err := p.gw.Text(ctx, session.FieldPOTaxCode)
		if err != nil {
			if !unavailable(err) {
				return p.fail(r, op, err)
			}
			return Reject(fmt.Sprintf("Document %s, cannot be processed. [Tax Code] field is not available in PO on tab Invoice. Tax Code cannot be downloaded", doc))
		}
		po.TaxCode = strings.TrimSpace(tax)
	}

	totals, err := p.readTotals(ctx)
	if err != nil {
		return p.fail(r, op, err)
	}
	po.Totals = totals

	po.Creator = "Missing"
	if !strings.HasPrefix(po.Number, "40") {
		creator, err := p.text(ctx, session.FieldPOCreator)
		if err != nil {
			return p.fail(r, op, err)
		}
		if creator != "" {
			po.Creator = creator
		}
	}

	if err := p.gw.Press(ctx, session.ActionBack); err != nil {
		return p.fail(r, op, err)
	}
	return Continue()
}

func (p *Pipeline) readTotals(ctx context.Context) (models.POTotals, error) {
	var t models.POTotals
	fields := []struct {
		field session.Field
		dst   *decimal.Decimal
	}{
		{session.FieldPOValueOrdered, &t.ValueOrdered},
		{session.FieldPOValueDelivered, &t.ValueDelivered},
		{session.FieldPOValueToDeliver, &t.ValueToDeliver},
		{session.FieldPOValueInvoiced, &t.ValueInvoiced},
		{session.FieldPOQtyOrdered, &t.QtyOrdered},
		{session.FieldPOQtyDelivered, &t.QtyDelivered},
		{session.FieldPOQtyToDeliver, &t.QtyToDeliver},
		{session.FieldPOQtyInvoiced, &t.QtyInvoiced},
	}
	for _, f := range fields {
		v, err := p.text(ctx, f.field)
		if err != nil {
			return t, err
		}
		*f.dst = numeric.AmountOrZero(v)
	}
	return t, nil
}

// checked reads a checkbox field.
func checked(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x", "true", "1", "yes":
		return true
	}
	return false
}

// takeOver makes the document editable for the current user.
func (p *Pipeline) takeOver(ctx context.Context, r *run) Outcome {
	const op = "takeOver"
	doc := r.doc.DocNumber

	editable, err := p.gw.Editable(ctx)
	if err != nil {
		return p.fail(r, op, err)
	}
	if editable {
		return Continue()
	}

	if err := p.gw.Press(ctx, session.ActionTakeOver); err != nil {
		return p.fail(r, op, err)
	}
	status, err := p.gw.StatusBar(ctx)
	if err != nil {
		return p.fail(r, op, err)
	}
	if strings.Contains(status.Text, "currently locked by user") || status.Severity == session.SeverityError {
		return Rejectf(doc, "%s", status.Text)
	}

	popup, ok, err := p.gw.Popup(ctx)
	if err != nil {
		return p.fail(r, op, err)
	}
	if ok {
		switch {
		case strings.Contains(popup.Text, "Documents with this status cannot be changed"):
			return Rejectf(doc, "[SAP comment] Documents with this status cannot be changed")
		case strings.Contains(popup.Text, "is marked for deletion"):
			return Rejectf(doc, "%s", popup.Text)
		}
		if err := p.gw.Press(ctx, session.ActionClosePopup); err != nil {
			return p.fail(r, op, err)
		}
	}
	return Continue()
}

func (p *Pipeline) aribaBranch(ctx context.Context, r *run) Outcome {
	if r.doc.Source != models.SourceAriba {
		return Continue()
	}
	if out := p.collectPO(ctx, r, poFacts{grBased: true}); out.Kind != OutcomeContinue {
		return out
	}
	if !r.po.TwoWayMatch {
		return Continue()
	}
	if out := p.takeOver(ctx, r); out.Kind != OutcomeContinue {
		return out
	}

	saldo, err := p.readSaldo(ctx)
	if err != nil {
		return p.fail(r, "aribaBranch", err)
	}
	if saldo.IsZero() {
		return Continue()
	}
	if out := p.checkTolerance(r, saldo, tolerance.Low); out.Kind != OutcomeContinue {
		return out
	}
	if out := p.addBalanceToFirstLine(ctx, r, saldo); out.Kind != OutcomeContinue {
		return out
	}
	return JumpTo(StageVMD)
}

func (p *Pipeline) purchaseOrder(ctx context.Context, r *run) Outcome {
	if out := p.takeOver(ctx, r); out.Kind != OutcomeContinue {
		return out
	}
	return p.collectPO(ctx, r, poFacts{taxCode: true})
}

func (p *Pipeline) takeOverStage(ctx context.Context, r *run) Outcome {
	return p.takeOver(ctx, r)
}

func (p *Pipeline) docType(ctx context.Context, r *run) Outcome {
	const op = "docType"

	kind, err := p.text(ctx, session.FieldDocumentType)
	if err != nil {
		return p.fail(r, op, err)
	}
	switch kind {
	case "Invoice":
		return Continue()
	case "Subsequent Debit":
		if err := p.gw.SetText(ctx, session.FieldDocumentType, "Invoice"); err != nil {
			return p.fail(r, op, err)
		}
		r.log.Info().Msg("Subsequent debit switched to invoice")
		return Continue()
	}
	return Rejectf(r.doc.DocNumber, "Document is not an invoice, it is %s.", kind)
}
