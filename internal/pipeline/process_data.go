package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"cockpit/internal/classify"
	"cockpit/internal/numeric"
	"cockpit/internal/reconcile"
	"cockpit/internal/session"
	"cockpit/internal/tolerance"
	"cockpit/pkg/models"
)

const (
	companyV436 = "V436"

	noProposalSignal      = "NO ITEM PROPOSAL COULD BE GENERATED"
	paymentConditionsText = "PAYMENT CONDITIONS ARE BEING CHANGED"
)

func (p *Pipeline) processData(ctx context.Context, r *run) Outcome {
	po := r.doc.PONumber
	if po == "" || strings.EqualFold(po, "FI") || r.po.FullyBooked() {
		return p.unassignedPO(ctx, r)
	}

	poType, out := p.checkPOType(ctx, r)
	if out.Kind != OutcomeContinue {
		return out
	}
	if !poType.Recognized() {
		return p.fiOrCritical(ctx, r)
	}
	r.poType = poType
	r.po.Type = string(poType)
	return p.checkProposal(ctx, r)
}

// unassignedPO handles documents without a usable purchase order: lines
// pointing at several orders are out of scope, the rest go through the FI
// transfer and critical vendor rules.
func (p *Pipeline) unassignedPO(ctx context.Context, r *run) Outcome {
	ok, res, err := p.reconciler.Scan(ctx, p.gw.Lines(), reconcile.Options{DifferentPOs: true, MultipleOnly: true})
	if err != nil {
		return p.fail(r, "checkProcessData", err)
	}
	if !ok || res.MultiplePOsExist {
		return Rejectf(r.doc.DocNumber, "There are multiple PO numbers and this case was not included in PDD")
	}
	return p.fiOrCritical(ctx, r)
}

func (p *Pipeline) fiOrCritical(ctx context.Context, r *run) Outcome {
	if r.doc.CompanyCode == companyV436 {
		if cir, ok := p.refs.LookupFICirCode(r.doc.Vendor); ok {
			if err := p.transferToFI(ctx, cir); err != nil {
				return p.fail(r, "transferToFI", err)
			}
			r.log.Info().Str("cir_code", cir).Msg("MM invoice transferred to FI")
			return Rejectf(r.doc.DocNumber, "MM invoice was transferred to FI")
		}
	}
	return p.vendorCritical(r)
}

func (p *Pipeline) transferToFI(ctx context.Context, cirCode string) error {
	if err := p.gw.Press(ctx, session.ActionTransferToFI); err != nil {
		return err
	}
	if err := p.gw.SetText(ctx, session.FieldCirCode, cirCode); err != nil {
		return err
	}
	return p.gw.Press(ctx, session.ActionEnter)
}

// vendorCritical always rejects; the reason depends on whether the vendor
// is critical and whether the order is fully booked.
func (p *Pipeline) vendorCritical(r *run) Outcome {
	doc := r.doc.DocNumber
	critical := p.vendors.IsCritical(r.doc.Vendor, r.doc.CompanyCode)
	booked := r.po.FullyBooked()

	switch {
	case critical && booked:
		return Rejectf(doc, "PO %s is fully booked", r.doc.PONumber)
	case critical:
		return Rejectf(doc, "Check vendor critical - PO number is missing")
	case booked:
		return Rejectf(doc, "Total invoiced amount equals total ordered amount for PO %s. Document was rejected with status code '06B'. Rejection #ID1", r.doc.PONumber)
	}
	return Rejectf(doc, "Document was rejected with status code '06C'. Rejection #ID2")
}

// checkPOType displays the purchase order and classifies its type label.
func (p *Pipeline) checkPOType(ctx context.Context, r *run) (classify.POType, Outcome) {
	const op = "checkPOType"
	doc := r.doc.DocNumber

	paymentConditions := func(m session.Message) bool {
		return strings.Contains(strings.ToUpper(m.Text), paymentConditionsText)
	}

	status, err := p.gw.StatusBar(ctx)
	if err != nil {
		return classify.POTypeUnrecognized, p.fail(r, op, err)
	}
	if paymentConditions(status) {
		return classify.POTypeUnrecognized, Rejectf(doc, "SAP info: 'Purchase order' change sub. debit - %s", status.Text)
	}

	if err := p.gw.Press(ctx, session.ActionDisplayPO); err != nil {
		return classify.POTypeUnrecognized, p.fail(r, op, err)
	}
	status, err = p.gw.StatusBar(ctx)
	if err != nil {
		return classify.POTypeUnrecognized, p.fail(r, op, err)
	}
	switch {
	case paymentConditions(status):
		if err := p.gw.Press(ctx, session.ActionBack); err != nil {
			return classify.POTypeUnrecognized, p.fail(r, op, err)
		}
		return classify.POTypeUnrecognized, Rejectf(doc, "SAP info: 'Purchase order' change sub. debit - %s", status.Text)
	case status.Severity == session.SeverityError:
		if err := p.gw.Press(ctx, session.ActionBack); err != nil {
			return classify.POTypeUnrecognized, p.fail(r, op, err)
		}
		return classify.POTypeUnrecognized, Rejectf(doc, "SAP info: %s", status.Text)
	case strings.Contains(status.Text, "does not exist"):
		return classify.POTypeUnrecognized, Rejectf(doc, "SAP info: Purchase order %s", status.Text)
	}

	label, err := p.text(ctx, session.FieldPOType)
	if err != nil {
		return classify.POTypeUnrecognized, p.fail(r, op, err)
	}
	if err := p.gw.Press(ctx, session.ActionBack); err != nil {
		return classify.POTypeUnrecognized, p.fail(r, op, err)
	}

	poType := classify.ClassifyPOType(label)
	r.log.Debug().Str("po_type_label", label).Str("po_type", string(poType)).Msg("Purchase order type classified")
	return poType, Continue()
}

// checkProposal regenerates the item proposal and balances the lines it
// produced against the net amount.
func (p *Pipeline) checkProposal(ctx context.Context, r *run) Outcome {
	const op = "checkProposal"
	doc := r.doc.DocNumber

	if err := p.gw.Press(ctx, session.ActionRegenerateProposal); err != nil {
		return p.fail(r, op, err)
	}
	msgs, err := p.gw.Messages(ctx)
	if err != nil {
		return p.fail(r, op, err)
	}
	for _, m := range msgs {
		if strings.Contains(strings.ToUpper(m.Text), noProposalSignal) {
			r.log.Info().Str("message", m.Text).Msg("No item proposal")
			return p.noProposal(ctx, r)
		}
	}

	saldo, err := p.readSaldo(ctx)
	if err != nil {
		return p.fail(r, op, err)
	}
	if saldo.IsZero() {
		return Continue()
	}
	matched, err := p.findMatchingLine(ctx, r)
	if err != nil {
		return p.fail(r, op, err)
	}
	if !matched {
		return Rejectf(doc, "saldo is not zero and no matching line could be found. - OUT of scope")
	}
	return Continue()
}

// findMatchingLine deletes proposal lines from the top until the saldo is
// zero. A first line equal to the net amount is kept and the line after it
// is deleted instead.
func (p *Pipeline) findMatchingLine(ctx context.Context, r *run) (bool, error) {
	lines := p.lines()
	for {
		exists, err := lines.Exists(ctx, 0)
		if err != nil || !exists {
			return false, err
		}
		saldo, err := p.readSaldo(ctx)
		if err != nil {
			return false, err
		}
		if saldo.IsZero() {
			return true, nil
		}

		amount, err := lines.Amount(ctx, 0)
		if err != nil {
			return false, err
		}
		if !amount.Equal(r.doc.NetAmount) {
			if err := lines.Delete(ctx, 0); err != nil {
				return false, err
			}
			continue
		}

		next, err := lines.Exists(ctx, 1)
		if err != nil || !next {
			return false, err
		}
		if err := lines.Delete(ctx, 1); err != nil {
			return false, err
		}
	}
}

// noProposal handles an order the proposal found no items for. Only
// standard two-way orders can still be balanced.
func (p *Pipeline) noProposal(ctx context.Context, r *run) Outcome {
	const op = "noProposal"
	doc := r.doc.DocNumber

	if r.poType != classify.POTypeStandard {
		return Rejectf(doc, "Purchase Order %s has no Goods Receipt", r.doc.PONumber)
	}

	if err := p.gw.Press(ctx, session.ActionDisplayPO); err != nil {
		return p.fail(r, op, err)
	}
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
	if err := p.gw.Press(ctx, session.ActionBack); err != nil {
		return p.fail(r, op, err)
	}
	r.po.GRBased = checked(gr)
	r.po.TwoWayMatch = !r.po.GRBased

	if !r.po.TwoWayMatch {
		return Rejectf(doc, "Document is an Ariba 3 way match invoice without items generated by PO proposal")
	}

	saldo := balance{Value: r.doc.Saldo, Text: r.doc.SaldoText, Numeric: numeric.Normalize(numeric.LeadingMinus(r.doc.SaldoText)).IsNumber()}
	if saldo.IsZero() {
		return Continue()
	}

	if r.po.ManyLines() {
		if err := p.enterData(ctx, r); err != nil {
			return p.fail(r, "enterData", err)
		}
		after, err := p.readSaldo(ctx)
		if err != nil {
			return p.fail(r, op, err)
		}
		if after.IsZero() {
			return JumpTo(StageVMD)
		}
		return Rejectf(doc, "saldo is not zero and no matching line could be found. - OUT of scope")
	}

	if out := p.checkTolerance(r, saldo, tolerance.High); out.Kind != OutcomeContinue {
		return out
	}
	if out := p.addBalanceToFirstLine(ctx, r, saldo); out.Kind != OutcomeContinue {
		return out
	}
	return JumpTo(StageVMD)
}

// enterData writes one invoice line per purchase order item. When the
// invoice has fewer lines than the order has items, the missing items are
// inserted first and the lines renumbered in item order.
func (p *Pipeline) enterData(ctx context.Context, r *run) error {
	lines := p.lines()
	if err := p.insertMissingItems(ctx, r, lines); err != nil {
		return err
	}

	for i, item := range r.po.Items {
		cells := []struct {
			col   session.Column
			value string
		}{
			{session.ColumnPONumber, r.doc.PONumber},
			{session.ColumnPOItem, item.ItemID},
			{session.ColumnAmount, numeric.Format(itemAmount(item))},
			{session.ColumnQuantity, item.Quantity},
			{session.ColumnTaxCode, r.po.TaxCode},
			{session.ColumnUnit, item.OrderUnit},
		}
		for _, c := range cells {
			if err := lines.SetCell(ctx, i, c.col, c.value); err != nil {
				return err
			}
		}
		if err := p.gw.Press(ctx, session.ActionEnter); err != nil {
			return err
		}
	}
	r.log.Info().Int("items", len(r.po.Items)).Msg("Purchase order items entered on invoice lines")
	return nil
}

func (p *Pipeline) insertMissingItems(ctx context.Context, r *run, lines *reconcile.Lines) error {
	n, err := lines.Count(ctx)
	if err != nil {
		return err
	}
	if n >= len(r.po.Items) {
		return nil
	}

	present := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		item, err := lines.Cell(ctx, i, session.ColumnPOItem)
		if err != nil {
			return err
		}
		present[strings.TrimSpace(item)] = true
	}

	inserted := 0
	for _, item := range r.po.Items {
		if present[item.ItemID] {
			continue
		}
		if err := p.gw.Press(ctx, session.ActionInsertLine); err != nil {
			return err
		}
		if err := lines.SetCell(ctx, 0, session.ColumnPOItem, item.ItemID); err != nil {
			return err
		}
		if err := p.gw.Press(ctx, session.ActionEnter); err != nil {
			return err
		}
		inserted++
	}

	if err := p.gw.Press(ctx, session.ActionSortByPOItem); err != nil {
		return err
	}
	for i := range r.po.Items {
		if err := lines.SetCell(ctx, i, session.ColumnInvoiceItem, fmt.Sprint(i+1)); err != nil {
			return err
		}
	}
	r.log.Debug().Int("inserted", inserted).Msg("Missing purchase order items inserted")
	return nil
}

// itemAmount is net price times quantity per price unit, rounded to cents.
func itemAmount(item models.POLineItem) decimal.Decimal {
	price := numeric.AmountOrZero(item.NetPrice)
	qty := numeric.AmountOrZero(item.Quantity)
	unit := numeric.AmountOrZero(item.PriceUnit)
	if unit.IsZero() {
		unit = decimal.NewFromInt(1)
	}
	return price.Mul(qty).Div(unit).Round(2)
}
