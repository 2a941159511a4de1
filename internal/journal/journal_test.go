package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cockpit/pkg/models"
)

type call struct {
	sql  string
	args []any
}

type fakeDB struct {
	calls []call
	tag   string
	err   error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, call{sql: sql, args: args})
	return pgconn.NewCommandTag(f.tag), f.err
}

func TestRecord(t *testing.T) {
	db := &fakeDB{tag: "INSERT 0 1"}
	j := New(db)
	at := time.Date(2026, time.October, 18, 8, 0, 0, 0, time.UTC)

	err := j.Record(context.Background(), models.DispositionRecord{
		RunID:       "run-1",
		DocNumber:   "5100000001",
		CompanyCode: "3B5",
		Disposition: models.Rejected("Saldo is not zero"),
		ProcessedAt: at,
	})

	require.NoError(t, err)
	require.Len(t, db.calls, 1)
	c := db.calls[0]
	assert.Contains(t, c.sql, "ON CONFLICT (run_id, doc_number) DO NOTHING")
	require.Len(t, c.args, 9)
	assert.IsType(t, uuid.UUID{}, c.args[0])
	assert.Equal(t, []any{"run-1", "5100000001", "3B5", "rejected", "", "Saldo is not zero", false, at}, c.args[1:])
}

func TestRecordDuplicateIsNotAnError(t *testing.T) {
	db := &fakeDB{tag: "INSERT 0 0"}

	err := New(db).Record(context.Background(), models.DispositionRecord{RunID: "run-1", DocNumber: "1"})

	assert.NoError(t, err)
}

func TestRecordError(t *testing.T) {
	db := &fakeDB{err: errors.New("connection refused")}

	err := New(db).Record(context.Background(), models.DispositionRecord{RunID: "run-1", DocNumber: "5100000001"})

	assert.ErrorIs(t, err, db.err)
	assert.ErrorContains(t, err, "doc 5100000001")
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}

	require.NoError(t, New(db).EnsureSchema(context.Background()))
	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].sql, "CREATE TABLE IF NOT EXISTS invoice_dispositions")
}

func TestNewPoolRequiresURL(t *testing.T) {
	_, err := NewPool(context.Background(), "")
	assert.Error(t, err)
}
