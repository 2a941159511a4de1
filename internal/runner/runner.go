// Package runner processes a list of cockpit documents one after another
// and reports each disposition to the configured sinks.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cockpit/internal/logger"
	"cockpit/internal/pipeline"
	"cockpit/internal/refdata"
	"cockpit/internal/session"
	"cockpit/pkg/models"
)

// Connector hands out a fresh primary session.
type Connector interface {
	Connect(ctx context.Context) (session.Gateway, error)
}

// Job names one document to process.
type Job struct {
	DocNumber   string
	CompanyCode string
}

// Options tune a Runner.
type Options struct {
	// RunID tags every record. A random id is used when empty.
	RunID string

	// Now stamps records and drives the pipeline clock.
	Now func() time.Time

	Pipeline pipeline.Options
}

// Summary counts the dispositions of a run.
type Summary struct {
	RunID         string
	Posted        int
	Rejected      int
	NotFound      int
	SessionResets int
	Records       []models.DispositionRecord
}

// Total is the number of processed documents.
func (s Summary) Total() int {
	return s.Posted + s.Rejected + s.NotFound
}

// Runner drives the pipeline over a job list.
type Runner struct {
	connector Connector
	refs      refdata.Store
	sinks     []Sink
	opts      Options
	log       zerolog.Logger
}

// New creates a Runner.
func New(connector Connector, refs refdata.Store, opts Options, sinks ...Sink) *Runner {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Pipeline.Now == nil {
		opts.Pipeline.Now = opts.Now
	}
	return &Runner{
		connector: connector,
		refs:      refs,
		sinks:     sinks,
		opts:      opts,
		log:       logger.WithRunID(opts.RunID).With().Str("component", "runner").Logger(),
	}
}

// Run processes jobs strictly in order. A lost session is replaced before
// the next document. The returned error is set only when no session could be
// obtained or ctx ended; the summary covers everything processed until then.
func (r *Runner) Run(ctx context.Context, jobs []Job) (Summary, error) {
	const op = "Run"

	sum := Summary{RunID: r.opts.RunID}

	gw, err := r.connector.Connect(ctx)
	if err != nil {
		return sum, fmt.Errorf("%s: connect: %w", op, err)
	}
	defer func() { _ = gw.Close() }()

	p := pipeline.New(gw, r.refs, r.opts.Pipeline)
	r.log.Info().Int("documents", len(jobs)).Msg("Run started")

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			r.flush(ctx)
			return sum, fmt.Errorf("%s: stopped before document %d of %d: %w", op, i+1, len(jobs), err)
		}

		disp := p.Process(ctx, job.DocNumber, job.CompanyCode)
		rec := models.DispositionRecord{
			RunID:       r.opts.RunID,
			DocNumber:   job.DocNumber,
			CompanyCode: job.CompanyCode,
			Disposition: disp,
			ProcessedAt: r.opts.Now().UTC(),
		}
		sum.Records = append(sum.Records, rec)
		switch disp.Kind {
		case models.DispositionPosted:
			sum.Posted++
		case models.DispositionNotFound:
			sum.NotFound++
		default:
			sum.Rejected++
		}
		r.report(ctx, rec)

		fault := disp.SessionLost || session.IsFaultText(disp.Reason)
		if !fault && disp.Kind == models.DispositionRejected {
			if err := gw.Press(ctx, session.ActionBackToCockpit); err != nil {
				r.log.Warn().Err(err).Str("doc_number", job.DocNumber).Msg("Could not return to the cockpit list")
				fault = true
			}
		}
		if fault {
			r.log.Warn().Str("doc_number", job.DocNumber).Msg("Session fault, reconnecting")
			_ = gw.Close()
			fresh, err := r.connector.Connect(ctx)
			if err != nil {
				r.flush(ctx)
				return sum, fmt.Errorf("%s: reconnect after %s: %w", op, job.DocNumber, err)
			}
			gw = fresh
			p = p.WithGateway(gw)
			sum.SessionResets++
		}
	}

	r.flush(ctx)
	r.log.Info().
		Int("posted", sum.Posted).
		Int("rejected", sum.Rejected).
		Int("not_found", sum.NotFound).
		Int("session_resets", sum.SessionResets).
		Msg("Run finished")
	return sum, nil
}

// report hands rec to every sink. Sink failures never change a disposition.
func (r *Runner) report(ctx context.Context, rec models.DispositionRecord) {
	for _, s := range r.sinks {
		if err := s.Record(ctx, rec); err != nil {
			r.log.Error().Err(err).Str("doc_number", rec.DocNumber).Str("sink", sinkName(s)).Msg("Sink failed")
		}
	}
}

func (r *Runner) flush(ctx context.Context) {
	for _, s := range r.sinks {
		f, ok := s.(Flusher)
		if !ok {
			continue
		}
		if err := f.Flush(context.WithoutCancel(ctx)); err != nil {
			r.log.Error().Err(err).Str("sink", sinkName(s)).Msg("Sink flush failed")
		}
	}
}
