// Package pipeline decides the fate of one cockpit invoice: it walks the
// document through a fixed sequence of stages and ends with a posting, a
// rejection with a reason, or a not-found result.
//
// Stages talk to the host only through a session.Gateway. Each stage returns
// an Outcome; a fault anywhere is turned into a rejection carrying the error
// text, flagged when the session was lost.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cockpit/internal/classify"
	"cockpit/internal/logger"
	"cockpit/internal/numeric"
	"cockpit/internal/reconcile"
	"cockpit/internal/refdata"
	"cockpit/internal/session"
	"cockpit/internal/vmd"
	"cockpit/pkg/models"
)

// DefaultLineMatchTimeout bounds the search for a matching transport line.
const DefaultLineMatchTimeout = time.Minute

// Options tune a Pipeline.
type Options struct {
	// LineMatchTimeout bounds the transport line removal loop.
	LineMatchTimeout time.Duration

	// Now returns the current time. Posting dates are derived from it.
	Now func() time.Time
}

// Pipeline runs documents through the decision stages.
type Pipeline struct {
	gw         session.Gateway
	refs       refdata.Store
	vendors    *classify.VendorClassifier
	reconciler *reconcile.Reconciler
	validator  *vmd.Validator
	opts       Options
	log        zerolog.Logger
}

// New creates a Pipeline over a session and the reference data.
func New(gw session.Gateway, refs refdata.Store, opts Options) *Pipeline {
	if opts.LineMatchTimeout <= 0 {
		opts.LineMatchTimeout = DefaultLineMatchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		gw:         gw,
		refs:       refs,
		vendors:    classify.NewVendorClassifier(refs),
		reconciler: reconcile.New(),
		validator:  vmd.NewValidator(),
		opts:       opts,
		log:        logger.WithComponent("pipeline"),
	}
}

// WithGateway returns a copy of the pipeline bound to another session,
// used after a reconnect.
func (p *Pipeline) WithGateway(gw session.Gateway) *Pipeline {
	c := *p
	c.gw = gw
	c.log.Debug().Msg("Pipeline bound to a new session")
	return &c
}

// run is the state carried from stage to stage for one document.
type run struct {
	doc           models.InvoiceDocument
	po            models.PurchaseOrder
	poType        classify.POType
	vendorData    vmd.Result
	postingNumber string
	log           zerolog.Logger
}

func (r *run) details() string {
	return "Doc number " + r.doc.DocNumber
}

type stageFunc func(ctx context.Context, r *run) Outcome

func (p *Pipeline) stages() []stageFunc {
	return []stageFunc{
		StageLocate:                  nil,
		StageMetadata:                p.metadata,
		StageOpen:                    p.open,
		StageResolvePO:               p.resolvePO,
		StagePriceDifferenceWorkflow: p.priceDifferenceWorkflow,
		StageClassifySource:          p.classifySource,
		StageAribaBranch:             p.aribaBranch,
		StagePurchaseOrder:           p.purchaseOrder,
		StageTakeOver:                p.takeOverStage,
		StageDocType:                 p.docType,
		StageProcessData:             p.processData,
		StagePOType:                  p.poTypes,
		StageVMD:                     p.vendorMasterData,
		StagePermittedPayee:          p.permittedPayee,
		StageRequiredFields:          p.requiredFields,
		StagePOConsistency:           p.poConsistency,
		StageDates:                   p.dates,
		StageBankIDs:                 p.bankIDs,
		StageSaldo:                   p.saldo,
		StageTaxCode:                 p.taxCode,
		StageBeforeBook:              p.beforeBook,
		StageBook:                    p.book,
	}
}

// Process runs one document and returns its disposition. It never returns
// an error: faults become rejections.
func (p *Pipeline) Process(ctx context.Context, docNumber, companyCode string) models.Disposition {
	companyCode = strings.ToUpper(strings.TrimSpace(companyCode))
	r := &run{
		doc: models.InvoiceDocument{DocNumber: docNumber, CompanyCode: companyCode},
		log: logger.WithDocument(docNumber, companyCode).With().Str("component", "pipeline").Logger(),
	}
	start := p.opts.Now()

	disp := p.execute(ctx, r)

	event := r.log.Info()
	if disp.SessionLost {
		event = r.log.Error()
	}
	event.Str("disposition", string(disp.Kind)).
		Str("posting_number", disp.PostingNumber).
		Str("reason", disp.Reason).
		Bool("session_lost", disp.SessionLost).
		Dur("elapsed", p.opts.Now().Sub(start)).
		Msg("Document processed")
	return disp
}

func (p *Pipeline) execute(ctx context.Context, r *run) models.Disposition {
	found, err := p.gw.Find(ctx, r.doc.DocNumber, r.doc.CompanyCode)
	if err != nil {
		return p.fault(r, StageLocate, WrapStepError("findInvoice", r.details(), err))
	}
	if !found {
		return models.NotFound(fmt.Sprintf("%s. Document has not been found", r.doc.DocNumber))
	}

	steps := p.stages()
	for s := StageMetadata; int(s) < len(steps); {
		if err := ctx.Err(); err != nil {
			return p.fault(r, s, WrapStepError(s.String(), r.details(), err))
		}

		out := steps[s](ctx, r)
		r.log.Debug().Str("stage", s.String()).Str("outcome", out.String()).Msg("Stage finished")

		switch out.Kind {
		case OutcomeContinue:
			s++
		case OutcomeJump:
			if out.Target <= s {
				return p.fault(r, s, NewStepError(s.String(), r.details(), ErrBackwardJump))
			}
			s = out.Target
		case OutcomeReject:
			r.log.Info().Str("stage", s.String()).Str("reason", out.Reason).Msg("Document rejected")
			return models.Rejected(out.Reason)
		case OutcomeFatal:
			return p.fault(r, s, out.Err)
		}
	}
	return models.Posted(r.postingNumber)
}

// fault converts an error into a rejection. A lost session is flagged so
// the caller can reconnect.
func (p *Pipeline) fault(r *run, s Stage, err error) models.Disposition {
	r.log.Error().Err(err).Str("stage", s.String()).Msg("Stage failed")
	d := models.Rejected(err.Error())
	d.SessionLost = session.IsDisconnect(err)
	return d
}

func (p *Pipeline) fail(r *run, op string, err error) Outcome {
	return Fatal(WrapStepError(op, r.details(), err))
}

func unavailable(err error) bool {
	return errors.Is(err, session.ErrFieldUnavailable)
}

// text reads a field, trimmed. A field that is not on screen reads as
// empty.
func (p *Pipeline) text(ctx context.Context, f session.Field) (string, error) {
	s, err := p.gw.Text(ctx, f)
	if err != nil {
		if unavailable(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// balance is the saldo as displayed and, when it parses, as a number.
type balance struct {
	Value   decimal.Decimal
	Text    string
	Numeric bool
}

func (b balance) IsZero() bool {
	return b.Numeric && b.Value.IsZero()
}

func (p *Pipeline) readSaldo(ctx context.Context) (balance, error) {
	text, err := p.text(ctx, session.FieldSaldo)
	if err != nil {
		return balance{}, err
	}
	v, err := numeric.Amount(text)
	if err != nil {
		return balance{Text: text}, nil
	}
	return balance{Value: v, Text: text, Numeric: true}, nil
}

// numericSaldo reads the saldo and fails when it is not a number.
func (p *Pipeline) numericSaldo(ctx context.Context) (balance, error) {
	b, err := p.readSaldo(ctx)
	if err != nil {
		return b, err
	}
	if !b.Numeric {
		return b, fmt.Errorf("%w: saldo %q", numeric.ErrNotNumeric, b.Text)
	}
	return b, nil
}

func (p *Pipeline) lines() *reconcile.Lines {
	return reconcile.NewLines(p.gw.Lines())
}

// quotedList renders names the way the cockpit reports list them:
// ['a', 'b'].
func quotedList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
