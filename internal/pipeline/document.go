package pipeline

import (
	"context"
	"fmt"
	"strings"

	"cockpit/internal/classify"
	"cockpit/internal/session"
	"cockpit/pkg/models"
)

func (p *Pipeline) metadata(ctx context.Context, r *run) Outcome {
	const op = "metadata"

	fields := []struct {
		field session.Field
		dst   *string
	}{
		{session.FieldWorkflowDescription, &r.doc.WorkflowDescription},
		{session.FieldWorkflowStatus, &r.doc.WorkflowStatus},
		{session.FieldDocumentKind, &r.doc.Kind},
		{session.FieldFollowUp, &r.doc.FollowUp},
	}
	for _, f := range fields {
		v, err := p.text(ctx, f.field)
		if err != nil {
			return p.fail(r, op, err)
		}
		*f.dst = v
	}

	company, err := p.text(ctx, session.FieldListCompanyCode)
	if err != nil {
		return p.fail(r, op, err)
	}
	if company != "" && !strings.EqualFold(company, r.doc.CompanyCode) {
		r.log.Warn().Str("list_company_code", company).Msg("Company code in the list differs from the requested one")
	}

	r.log.Debug().
		Str("workflow_status", r.doc.WorkflowStatus).
		Str("workflow_description", r.doc.WorkflowDescription).
		Str("kind", r.doc.Kind).
		Msg("Metadata read")
	return Continue()
}

func (p *Pipeline) open(ctx context.Context, r *run) Outcome {
	if err := p.gw.Open(ctx, r.doc.DocNumber); err != nil {
		if session.IsDisconnect(err) {
			return p.fail(r, "openInvoice", err)
		}
		r.log.Warn().Err(err).Msg("Document could not be opened")
		return Rejectf(r.doc.DocNumber, "Error during opening the document")
	}
	return Continue()
}

// answeredWorkflow reports whether the workflow asks for the purchase
// order number to be taken from the notes.
func answeredWorkflow(status, description string) bool {
	status = strings.ToLower(status)
	description = strings.ToLower(description)
	return (strings.Contains(status, "accepted") && strings.Contains(description, "provide gr related to invoice")) ||
		strings.Contains(description, "provide correct po number")
}

func (p *Pipeline) resolvePO(ctx context.Context, r *run) Outcome {
	const op = "resolvePO"
	doc := r.doc.DocNumber

	if !answeredWorkflow(r.doc.WorkflowStatus, r.doc.WorkflowDescription) {
		return Continue()
	}

	notes, err := p.gw.Notes(ctx)
	if err != nil && !unavailable(err) {
		return p.fail(r, op, err)
	}

	var po string
	for _, note := range notes {
		number, res := classify.PONumberFromNote(note)
		if res == classify.NoteZRM {
			return Rejectf(doc, "ZRM purchase order type is not supported by this robot")
		}
		if res == classify.NotePO {
			po = number
			break
		}
	}

	switch {
	case po != "":
		r.doc.GivenPO = po
		r.log.Info().Str("po_number", po).Msg("Purchase order taken from workflow notes")
		if strings.EqualFold(r.doc.Kind, models.KindFI) {
			if err := p.gw.SetText(ctx, session.FieldPONumber, po); err != nil {
				return p.fail(r, op, err)
			}
			if err := p.gw.Press(ctx, session.ActionTransferToMM); err != nil {
				return p.fail(r, op, err)
			}
			r.doc.Kind = models.KindMM
		}
	case len(notes) > 0:
		return Reject(fmt.Sprintf("Document %s cannot be processed, due to unexpected exception in processing 'Answered Workflows'(step 4c and 4f in 'Sending WC PDD')", doc))
	default:
		// Without notes the order filled on the General tab is used; only
		// a blank General tab rejects.
		general, err := p.text(ctx, session.FieldPONumber)
		if err != nil {
			return p.fail(r, op, err)
		}
		if general == "" {
			return Reject(fmt.Sprintf("Document %s cannot be processed, PO number was not found either on the tab 'Notes' or in the PO filled on tab 'General'", doc))
		}
		r.doc.GivenPO = general
	}
	return Continue()
}

func (p *Pipeline) priceDifferenceWorkflow(ctx context.Context, r *run) Outcome {
	status := strings.ToLower(r.doc.WorkflowStatus)
	if !strings.Contains(status, "accepted") || !strings.Contains(status, "transp.inv. price diff") {
		return Continue()
	}
	saldo, err := p.readSaldo(ctx)
	if err != nil {
		return p.fail(r, "priceDifferenceWorkflow", err)
	}
	if saldo.IsZero() {
		r.log.Info().Msg("Price difference workflow answered with zero saldo")
		return JumpTo(StageVMD)
	}
	return Continue()
}

func (p *Pipeline) classifySource(ctx context.Context, r *run) Outcome {
	const op = "classifySource"

	barcode, err := p.gw.Text(ctx, session.FieldBarcode)
	if err != nil && !unavailable(err) {
		return p.fail(r, op, err)
	}
	userID, err := p.gw.Text(ctx, session.FieldUserID)
	if err != nil && !unavailable(err) {
		return p.fail(r, op, err)
	}

	r.doc.Source = classify.Source(barcode, userID)
	if r.doc.Source == models.SourceUnknown {
		return Rejectf(r.doc.DocNumber, "Document could not be assigned neither to Ariba nor to PDF Collector category")
	}
	r.log.Debug().Str("source", string(r.doc.Source)).Msg("Document source classified")
	return Continue()
}
