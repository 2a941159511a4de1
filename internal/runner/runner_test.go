package runner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cockpit/internal/refdata"
	"cockpit/internal/runner"
	"cockpit/internal/session"
	"cockpit/internal/session/replay"
	"cockpit/pkg/models"
)

const iban = "FR7630006000011234567890189"

var vendorRecord = models.VendorMasterRecord{
	VATNumbers: []string{"FR123"},
	BankIDs:    []models.BankID{{Code: "0001", IBAN: iban}},
}

func document(number, postingNumber string) replay.Document {
	record := vendorRecord
	return replay.Document{
		DocNumber:   number,
		CompanyCode: "3B5",
		Editable:    true,
		Fields: map[session.Field]string{
			session.FieldBarcode:        "BC1",
			session.FieldUserID:         "U1",
			session.FieldPONumber:       "4500000001",
			session.FieldPOType:         "Standard PO",
			session.FieldPOTaxCode:      "V1",
			session.FieldPOValueOrdered: "1.000,00",
			session.FieldPOVendor:       "12345 ACME SA",
			session.FieldPOCurrency:     "EUR",
			session.FieldPOCompanyCode:  "3B5",
			session.FieldVendor:         "12345",
			session.FieldNetAmount:      "1.000,00",
			session.FieldGrossAmount:    "1.200,00",
			session.FieldDocumentType:   "Invoice",
			session.FieldReference:      "INV-" + number,
			session.FieldDocumentDate:   "01.10.2026",
			session.FieldCurrency:       "EUR",
			session.FieldCompanyCode:    "3B5",
		},
		Lines:        []replay.Line{{InvoiceItem: "1", PONumber: "4500000001", Amount: "1.000,00", TaxCode: "V1"}},
		POPartners:   []models.Partner{{Role: "Invoicing Party", Number: "12345"}},
		VendorMaster: &record,
		Indexing: &models.IndexingDetails{
			VAT:   "FR123",
			Banks: []models.IndexedBank{{Name: "No check (see additional bank data check)", IBAN: iban}},
		},
		PostMessages:  []session.Message{{Severity: session.SeveritySuccess, Text: "Document posted"}},
		PostingNumber: postingNumber,
	}
}

func workbook() *replay.Workbook {
	rejected := document("5100000002", "")
	rejected.Fields[session.FieldDocumentType] = "Credit memo"

	dropped := document("5100000003", "")
	dropped.DisconnectOn = "open"

	return &replay.Workbook{
		Vendors: map[string]models.VendorMasterRecord{"12345": vendorRecord},
		Documents: []replay.Document{
			document("5100000001", "5200000001"),
			rejected,
			dropped,
			document("5100000004", "5200000004"),
		},
	}
}

func jobs(numbers ...string) []runner.Job {
	out := make([]runner.Job, len(numbers))
	for i, n := range numbers {
		out[i] = runner.Job{DocNumber: n, CompanyCode: "3B5"}
	}
	return out
}

func fixedNow() time.Time {
	return time.Date(2026, time.October, 18, 7, 0, 0, 0, time.UTC)
}

func TestRunProcessesDocumentsInOrder(t *testing.T) {
	host := replay.NewHost(workbook())
	var seen []models.DispositionRecord
	sink := runner.SinkFunc(func(_ context.Context, rec models.DispositionRecord) error {
		seen = append(seen, rec)
		return nil
	})
	var flushed [][]models.DispositionRecord
	batch := runner.NewBatch(func(_ context.Context, recs []models.DispositionRecord) error {
		flushed = append(flushed, recs)
		return nil
	})

	r := runner.New(host, refdata.NewMemory(), runner.Options{RunID: "run-1", Now: fixedNow}, sink, runner.Named("report", batch))
	sum, err := r.Run(context.Background(), jobs("5100000001", "5100000002", "5100000003", "5100000004", "5100000099"))

	require.NoError(t, err)
	assert.Equal(t, "run-1", sum.RunID)
	assert.Equal(t, 2, sum.Posted)
	assert.Equal(t, 2, sum.Rejected)
	assert.Equal(t, 1, sum.NotFound)
	assert.Equal(t, 1, sum.SessionResets)
	assert.Equal(t, 5, sum.Total())

	require.Len(t, seen, 5)
	assert.Equal(t, models.Posted("5200000001"), seen[0].Disposition)
	assert.Equal(t, "Document 5100000002 cannot be processed. Document is not an invoice, it is Credit memo.", seen[1].Disposition.Reason)
	assert.True(t, seen[2].Disposition.SessionLost)
	assert.Equal(t, models.Posted("5200000004"), seen[3].Disposition)
	assert.Equal(t, models.DispositionNotFound, seen[4].Disposition.Kind)
	for _, rec := range seen {
		assert.Equal(t, "run-1", rec.RunID)
		assert.Equal(t, fixedNow(), rec.ProcessedAt)
	}

	require.Len(t, flushed, 1)
	assert.Equal(t, seen, flushed[0])

	assert.Contains(t, host.Pressed("5100000002"), session.ActionBackToCockpit)
	assert.NotContains(t, host.Pressed("5100000001"), session.ActionBackToCockpit)
}

func TestRunSinkErrorsDoNotStopTheRun(t *testing.T) {
	host := replay.NewHost(workbook())
	failing := runner.SinkFunc(func(context.Context, models.DispositionRecord) error {
		return errors.New("journal unavailable")
	})

	sum, err := runner.New(host, refdata.NewMemory(), runner.Options{Now: fixedNow}, failing).
		Run(context.Background(), jobs("5100000001", "5100000004"))

	require.NoError(t, err)
	assert.Equal(t, 2, sum.Posted)
	assert.NotEmpty(t, sum.RunID)
}

type failingConnector struct{ err error }

func (f failingConnector) Connect(context.Context) (session.Gateway, error) {
	return nil, f.err
}

func TestRunConnectFailure(t *testing.T) {
	boom := errors.New("no SAP logon")

	_, err := runner.New(failingConnector{err: boom}, refdata.NewMemory(), runner.Options{}).
		Run(context.Background(), jobs("5100000001"))

	assert.ErrorIs(t, err, boom)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	host := replay.NewHost(workbook())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := runner.New(host, refdata.NewMemory(), runner.Options{Now: fixedNow}).
		Run(ctx, jobs("5100000001"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sum.Total())
}

func TestBatchKeepsRecordsOnFailedWrite(t *testing.T) {
	calls := 0
	b := runner.NewBatch(func(_ context.Context, recs []models.DispositionRecord) error {
		calls++
		if calls == 1 {
			return errors.New("quota exceeded")
		}
		assert.Len(t, recs, 1)
		return nil
	})
	ctx := context.Background()

	require.NoError(t, b.Record(ctx, models.DispositionRecord{DocNumber: "1"}))
	assert.Error(t, b.Flush(ctx))
	assert.NoError(t, b.Flush(ctx))
	assert.NoError(t, b.Flush(ctx))
	assert.Equal(t, 2, calls)
}
