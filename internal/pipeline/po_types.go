package pipeline

import (
	"context"
	"fmt"

	"cockpit/internal/classify"
	"cockpit/internal/reconcile"
	"cockpit/internal/session"
	"cockpit/internal/tolerance"
)

// poTypes balances a document whose saldo is still open, by the rules of
// its purchase order type.
func (p *Pipeline) poTypes(ctx context.Context, r *run) Outcome {
	const op = "processPOTypes"
	doc := r.doc.DocNumber

	saldo, err := p.numericSaldo(ctx)
	if err != nil {
		return p.fail(r, op, err)
	}
	if saldo.IsZero() {
		return Continue()
	}

	if r.poType == classify.POTypeTransport || r.poType == classify.POTypeEPO {
		t := r.po.Totals
		noGR := (t.ValueDelivered.IsZero() && t.ValueToDeliver.IsPositive()) ||
			(t.ValueDelivered.IsPositive() && t.ValueToDeliver.IsPositive() && t.ValueToDeliver.Equal(t.ValueInvoiced))
		if noGR {
			return Rejectf(doc, "Purchase Order %s has no Goods Receipt", r.doc.PONumber)
		}
	}

	switch r.poType {
	case classify.POTypeIntercompany:
		return Rejectf(doc, "PO type - interco")
	case classify.POTypeTransport:
		return p.transport(ctx, r, saldo)
	case classify.POTypeEPO:
		return p.epo(ctx, r, saldo)
	case classify.POTypeStandard:
		return p.standard(ctx, r)
	}
	return Continue()
}

// transport balances a transport invoice: a single line absorbs the saldo,
// several lines are trimmed from the end until the saldo fits.
func (p *Pipeline) transport(ctx context.Context, r *run, saldo balance) Outcome {
	const op = "transportProcess"
	doc := r.doc.DocNumber

	if !p.vendors.IsTransport(r.doc.CompanyCode, r.doc.Vendor) {
		return Reject(fmt.Sprintf("Document %s is not transport invoice. Vendor is not transport type", doc))
	}

	_, scan, err := p.reconciler.Scan(ctx, p.gw.Lines(), reconcile.Options{
		Rule5:          true,
		Saldo:          saldo.Value,
		SearchedAmount: r.doc.NetAmount,
	})
	if err != nil {
		return p.fail(r, op, err)
	}
	saldo, err = p.numericSaldo(ctx)
	if err != nil {
		return p.fail(r, op, err)
	}
	if saldo.IsZero() {
		return Continue()
	}

	n := scan.HowManyLines
	switch {
	case n == 1 && saldo.Value.IsNegative():
		return p.addBalanceToFirstLine(ctx, r, saldo)
	case n == 1:
		if out := p.checkTolerance(r, saldo, tolerance.Low); out.Kind != OutcomeContinue {
			return out
		}
		return p.addBalanceToFirstLine(ctx, r, saldo)
	case n > 1 && saldo.Value.IsPositive():
		lines := p.lines()
		first, err := lines.Amount(ctx, 0)
		if err != nil {
			return p.fail(r, op, err)
		}
		if err := lines.SetAmount(ctx, 0, first.Add(saldo.Value)); err != nil {
			return p.fail(r, op, err)
		}
		if err := p.gw.Press(ctx, session.ActionEnter); err != nil {
			return p.fail(r, op, err)
		}
		return Continue()
	case n > 1:
		return p.trimTransportLines(ctx, r, saldo, scan)
	}
	return Rejectf(doc, "Robot did not find any matching line in PO %s (RULE 3b)", r.doc.PONumber)
}

// trimTransportLines removes lines from the end while the negative saldo
// covers them, then shortens the last line by the rest.
func (p *Pipeline) trimTransportLines(ctx context.Context, r *run, saldo balance, scan reconcile.Result) Outcome {
	const op = "transportProcess"
	doc := r.doc.DocNumber
	po := r.doc.PONumber

	lines := p.lines()
	count, value := scan.HowManyLines, scan.Value
	deadline := p.opts.Now().Add(p.opts.LineMatchTimeout)

	for {
		switch {
		case saldo.IsZero():
			return Continue()
		case saldo.Value.IsPositive():
			return Rejectf(doc, "Robot did not find any matching line in PO %s (RULE 3b)", po)
		case saldo.Value.Abs().GreaterThanOrEqual(value):
			if count == 0 {
				return Rejectf(doc, "Robot did not find any matching line in PO %s (RULE 3b)", po)
			}
			if p.opts.Now().After(deadline) {
				return Rejectf(doc, "Time limit for finding any matching line has passed. Error in PO %s (RULE 3b)", po)
			}
			if _, err := lines.RemoveLast(ctx); err != nil {
				return p.fail(r, op, err)
			}
			if err := p.gw.Press(ctx, session.ActionEnter); err != nil {
				return p.fail(r, op, err)
			}
			var err error
			if saldo, err = p.numericSaldo(ctx); err != nil {
				return p.fail(r, op, err)
			}
			if count, err = lines.Count(ctx); err != nil {
				return p.fail(r, op, err)
			}
			if count == 0 {
				return Rejectf(doc, "Robot did not find any matching line in PO %s", po)
			}
			if value, err = lines.Amount(ctx, count-1); err != nil {
				return p.fail(r, op, err)
			}
		default:
			if out := p.checkTolerance(r, saldo, tolerance.Extreme); out.Kind != OutcomeContinue {
				return out
			}
			changed, err := p.changeLastAmount(ctx)
			if err != nil {
				return p.fail(r, op, err)
			}
			if !changed {
				return Rejectf(doc, "Cannot change last amount in po type transport process. Rule 3b.")
			}
			return Continue()
		}
	}
}

// epo balances an EPO invoice by dropping trailing lines until the saldo
// is zero.
func (p *Pipeline) epo(ctx context.Context, r *run, saldo balance) Outcome {
	const op = "epoProcess"
	doc := r.doc.DocNumber
	rule4 := fmt.Sprintf("Document %s cannot be processed due to Rule 4 failure (no matching line in PO type 47 with multiple lines) (Rule 4).", doc)

	_, scan, err := p.reconciler.Scan(ctx, p.gw.Lines(), reconcile.Options{Saldo: saldo.Value})
	if err != nil {
		return p.fail(r, op, err)
	}
	if saldo, err = p.numericSaldo(ctx); err != nil {
		return p.fail(r, op, err)
	}

	if scan.HowManyLines == 1 {
		return Rejectf(doc, "po type = EPO, one line (Rule 4).")
	}
	if saldo.Value.IsPositive() {
		return Rejectf(doc, "Matching PO line couldn't be found (Rule 4).")
	}

	lines := p.lines()
	for {
		switch {
		case saldo.IsZero():
			return Continue()
		case saldo.Value.IsPositive():
			return Reject(rule4)
		case saldo.Value.Abs().LessThan(scan.Value):
			return Reject(rule4)
		}

		if _, err := lines.RemoveLast(ctx); err != nil {
			return p.fail(r, op, err)
		}
		if saldo, err = p.numericSaldo(ctx); err != nil {
			return p.fail(r, op, err)
		}
		if _, scan, err = p.reconciler.Scan(ctx, p.gw.Lines(), reconcile.Options{Saldo: saldo.Value}); err != nil {
			return p.fail(r, op, err)
		}
		if scan.HowManyLines == 0 {
			return Rejectf(doc, "No matching line in PO %s (Rule 4).", r.doc.PONumber)
		}
	}
}

// standard balances a standard order. Orders without open deliveries and
// two-way orders take the saldo on the first line within the low band;
// three-way orders need the proposal line that matches the net amount.
func (p *Pipeline) standard(ctx context.Context, r *run) Outcome {
	const op = "standardProcess"
	doc := r.doc.DocNumber

	if out := p.collectPO(ctx, r, poFacts{grBased: true, taxCode: true}); out.Kind != OutcomeContinue {
		return out
	}
	saldo, err := p.numericSaldo(ctx)
	if err != nil {
		return p.fail(r, op, err)
	}

	if r.po.Totals.ValueToDeliver.IsZero() || r.po.TwoWayMatch {
		if out := p.checkTolerance(r, saldo, tolerance.Low); out.Kind != OutcomeContinue {
			return out
		}
		return p.addBalanceToFirstLine(ctx, r, saldo)
	}

	matched, multiple, err := p.findMatchingLineStandard(ctx, r)
	if err != nil {
		return p.fail(r, op, err)
	}
	switch {
	case multiple:
		return Rejectf(doc, "Document is a 3 way match invoice.Rule 5 failed. Multiple matching lines were found in the proposal")
	case !matched:
		return Rejectf(doc, "Document is a 3 way match invoice.Rule 5 failed. No matching line was found in the proposal")
	}
	return Continue()
}
