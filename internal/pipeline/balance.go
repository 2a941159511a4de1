package pipeline

import (
	"context"

	"cockpit/internal/numeric"
	"cockpit/internal/session"
	"cockpit/internal/tolerance"
)

// checkTolerance compares the saldo with the ordered value of the purchase
// order.
func (p *Pipeline) checkTolerance(r *run, saldo balance, band tolerance.Band) Outcome {
	var err error
	if saldo.Numeric {
		err = tolerance.Check(saldo.Value, r.po.Totals.ValueOrdered, band)
	} else {
		err = tolerance.CheckText(saldo.Text, r.po.Totals.ValueOrdered.String(), band)
	}
	if err == nil {
		return Continue()
	}
	if v, ok := tolerance.AsViolation(err); ok {
		r.log.Info().Str("band", band.Name).Str("saldo", saldo.Text).Str("total_ordered", r.po.Totals.ValueOrdered.String()).Msg("Tolerance exceeded")
		return Reject(v.Reason(r.doc.DocNumber))
	}
	return p.fail(r, "checkTolerance", err)
}

// addBalanceToFirstLine books a positive saldo onto the first line. A
// negative saldo cannot be taken from it.
func (p *Pipeline) addBalanceToFirstLine(ctx context.Context, r *run, saldo balance) Outcome {
	const op = "addBalanceToFirstLine"

	if saldo.Value.IsNegative() {
		return Rejectf(r.doc.DocNumber, "saldo of %s cannot be substracted from the first line 0", saldo.Text)
	}
	if saldo.Value.IsPositive() {
		lines := p.lines()
		first, err := lines.Amount(ctx, 0)
		if err != nil {
			return p.fail(r, op, err)
		}
		if err := lines.SetAmount(ctx, 0, first.Add(saldo.Value)); err != nil {
			return p.fail(r, op, err)
		}
		r.log.Info().Str("saldo", saldo.Text).Msg("Saldo added to the first line")
	}
	if err := p.gw.Press(ctx, session.ActionEnter); err != nil {
		return p.fail(r, op, err)
	}
	return Continue()
}

// changeLastAmount takes the open saldo off the last line. It reports false
// when the line is smaller than the saldo.
func (p *Pipeline) changeLastAmount(ctx context.Context) (bool, error) {
	saldo, err := p.numericSaldo(ctx)
	if err != nil {
		return false, err
	}
	lines := p.lines()
	n, err := lines.Count(ctx)
	if err != nil || n == 0 {
		return false, err
	}
	last, err := lines.Amount(ctx, n-1)
	if err != nil {
		return false, err
	}
	abs := saldo.Value.Abs()
	if last.LessThan(abs) {
		return false, nil
	}
	if err := lines.SetAmount(ctx, n-1, last.Sub(abs)); err != nil {
		return false, err
	}
	return true, p.gw.Press(ctx, session.ActionEnter)
}

// findMatchingLineStandard looks for the proposal line equal to the net
// amount. Lines above it are deleted; a zero line ends the search. More than
// one equal line is reported as multiple and nothing is deleted.
func (p *Pipeline) findMatchingLineStandard(ctx context.Context, r *run) (matched, multiple bool, err error) {
	lines := p.lines()
	net := r.doc.NetAmount

	n, err := lines.Count(ctx)
	if err != nil {
		return false, false, err
	}
	equal := 0
	for i := 0; i < n; i++ {
		amount, err := lines.Amount(ctx, i)
		if err != nil {
			return false, false, err
		}
		if amount.Equal(net) {
			equal++
		}
	}
	if equal > 1 {
		return true, true, nil
	}

	for {
		exists, err := lines.Exists(ctx, 0)
		if err != nil || !exists {
			return false, false, err
		}
		text, err := lines.Cell(ctx, 0, session.ColumnAmount)
		if err != nil {
			return false, false, err
		}
		amount := numeric.AmountOrZero(text)
		if amount.IsZero() {
			return false, false, nil
		}
		if amount.Equal(net) {
			return true, false, nil
		}
		if err := lines.Delete(ctx, 0); err != nil {
			return false, false, err
		}
	}
}
