// Package journal records dispositions in Postgres.
package journal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"cockpit/internal/logger"
	"cockpit/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS invoice_dispositions (
	id             UUID PRIMARY KEY,
	run_id         TEXT NOT NULL,
	doc_number     TEXT NOT NULL,
	company_code   TEXT NOT NULL,
	kind           TEXT NOT NULL,
	posting_number TEXT NOT NULL DEFAULT '',
	reason         TEXT NOT NULL DEFAULT '',
	session_lost   BOOLEAN NOT NULL DEFAULT FALSE,
	processed_at   TIMESTAMPTZ NOT NULL,
	UNIQUE (run_id, doc_number)
)`

const insertDisposition = `
INSERT INTO invoice_dispositions
	(id, run_id, doc_number, company_code, kind, posting_number, reason, session_lost, processed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (run_id, doc_number) DO NOTHING`

// Execer runs a statement. *pgxpool.Pool satisfies it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Journal writes one row per processed document.
type Journal struct {
	db  Execer
	log zerolog.Logger
}

// NewPool connects to Postgres and checks the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DATABASE_URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// New creates a Journal over db.
func New(db Execer) *Journal {
	return &Journal{db: db, log: logger.WithComponent("journal")}
}

// EnsureSchema creates the disposition table if it is missing.
func (j *Journal) EnsureSchema(ctx context.Context) error {
	if _, err := j.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("EnsureSchema: %w", err)
	}
	return nil
}

// Record stores rec. A document already recorded for the run is left as is.
func (j *Journal) Record(ctx context.Context, rec models.DispositionRecord) error {
	const op = "Record"

	d := rec.Disposition
	tag, err := j.db.Exec(ctx, insertDisposition,
		uuid.New(), rec.RunID, rec.DocNumber, rec.CompanyCode,
		string(d.Kind), d.PostingNumber, d.Reason, d.SessionLost, rec.ProcessedAt)
	if err != nil {
		return fmt.Errorf("%s: doc %s: %w", op, rec.DocNumber, err)
	}
	if tag.RowsAffected() == 0 {
		j.log.Debug().Str("run_id", rec.RunID).Str("doc_number", rec.DocNumber).Msg("Disposition already recorded")
	}
	return nil
}
