package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cockpit/internal/classify"
	"cockpit/internal/numeric"
	"cockpit/internal/refdata"
	"cockpit/internal/session"
	"cockpit/internal/session/replay"
	"cockpit/internal/tolerance"
	"cockpit/internal/vmd"
	"cockpit/pkg/models"
)

const testDoc = "5105600002"

func amountLines(amounts ...string) []replay.Line {
	lines := make([]replay.Line, len(amounts))
	for i, a := range amounts {
		lines[i] = replay.Line{InvoiceItem: fmt.Sprint(i + 1), PONumber: "4500000001", Amount: a, TaxCode: "V1"}
	}
	return lines
}

func dec(s string) decimal.Decimal {
	return numeric.AmountOrZero(s)
}

type stageFixture struct {
	host *replay.Host
	p    *Pipeline
	r    *run
}

// newStageFixture opens a document with the given net amount and lines and
// prepares a run for a purchase order of the given type.
func newStageFixture(t *testing.T, refs *refdata.Memory, poType classify.POType, net string, fields map[session.Field]string, lines []replay.Line) *stageFixture {
	t.Helper()
	if refs == nil {
		refs = refdata.NewMemory()
	}
	all := map[session.Field]string{
		session.FieldNetAmount: net,
		session.FieldVendor:    "12345",
		session.FieldPONumber:  "4500000001",
	}
	for k, v := range fields {
		all[k] = v
	}

	host := replay.NewHost(&replay.Workbook{Documents: []replay.Document{{
		DocNumber:   testDoc,
		CompanyCode: "3B5",
		Editable:    true,
		Fields:      all,
		Lines:       lines,
	}}})
	ctx := context.Background()
	gw, err := host.Connect(ctx)
	require.NoError(t, err)
	found, err := gw.Find(ctx, testDoc, "3B5")
	require.NoError(t, err)
	require.True(t, found)

	p := New(gw, refs, Options{Now: func() time.Time { return time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC) }})
	r := &run{
		doc: models.InvoiceDocument{
			DocNumber:   testDoc,
			CompanyCode: "3B5",
			Vendor:      "12345",
			PONumber:    "4500000001",
			NetText:     net,
			NetAmount:   dec(net),
		},
		po: models.PurchaseOrder{
			Number: "4500000001",
			Totals: models.POTotals{ValueOrdered: dec("1.000,00"), ValueDelivered: dec("1.000,00")},
		},
		poType: poType,
		log:    zerolog.Nop(),
	}
	return &stageFixture{host: host, p: p, r: r}
}

func (f *stageFixture) amounts() []string {
	var out []string
	for _, l := range f.host.Lines(testDoc) {
		out = append(out, l.Amount)
	}
	return out
}

func transportVendor() *refdata.Memory {
	refs := refdata.NewMemory()
	refs.AddTransportVendor("3B5", "12345")
	return refs
}

func rejected(reason string) Outcome {
	return Reject(fmt.Sprintf("Document %s cannot be processed. %s", testDoc, reason))
}

func TestPOTypesZeroSaldoContinues(t *testing.T) {
	f := newStageFixture(t, nil, classify.POTypeTransport, "1.000,00", nil, amountLines("1.000,00"))

	assert.Equal(t, Continue(), f.p.poTypes(context.Background(), f.r))
	assert.Empty(t, f.host.Pressed(testDoc))
}

func TestPOTypesWithoutGoodsReceipt(t *testing.T) {
	f := newStageFixture(t, transportVendor(), classify.POTypeEPO, "1.010,00", nil, amountLines("1.000,00"))
	f.r.po.Totals = models.POTotals{ValueOrdered: dec("1.000,00"), ValueToDeliver: dec("1.000,00")}

	out := f.p.poTypes(context.Background(), f.r)

	assert.Equal(t, rejected("Purchase Order 4500000001 has no Goods Receipt"), out)
}

func TestPOTypesIntercompany(t *testing.T) {
	f := newStageFixture(t, nil, classify.POTypeIntercompany, "1.010,00", nil, amountLines("1.000,00"))

	assert.Equal(t, rejected("PO type - interco"), f.p.poTypes(context.Background(), f.r))
}

func TestTransport(t *testing.T) {
	tests := []struct {
		name  string
		refs  *refdata.Memory
		net   string
		lines []replay.Line
		want  Outcome
		after []string
	}{
		{
			name:  "single line takes positive saldo",
			refs:  transportVendor(),
			net:   "1.010,00",
			lines: amountLines("1.000,00"),
			want:  Continue(),
			after: []string{"1.010,00"},
		},
		{
			name:  "single line over tolerance",
			refs:  transportVendor(),
			net:   "1.300,00",
			lines: amountLines("1.000,00"),
			want:  rejected("The tolerance of '10.0'% / 25 EUR was exceeded"),
			after: []string{"1.000,00"},
		},
		{
			name:  "single line cannot absorb negative saldo",
			refs:  transportVendor(),
			net:   "900,00",
			lines: amountLines("1.000,00"),
			want:  rejected("saldo of 100,00- cannot be substracted from the first line 0"),
			after: []string{"1.000,00"},
		},
		{
			name:  "several lines take positive saldo on the first",
			refs:  transportVendor(),
			net:   "1.250,00",
			lines: amountLines("700,00", "500,00"),
			want:  Continue(),
			after: []string{"750,00", "500,00"},
		},
		{
			name:  "line equal to the negative saldo is dropped",
			refs:  transportVendor(),
			net:   "1.000,00",
			lines: amountLines("700,00", "300,00", "200,00"),
			want:  Continue(),
			after: []string{"700,00", "300,00"},
		},
		{
			name:  "last line shortened",
			refs:  transportVendor(),
			net:   "1.000,00",
			lines: amountLines("700,00", "500,00"),
			want:  Continue(),
			after: []string{"700,00", "300,00"},
		},
		{
			name:  "trailing lines removed until the saldo fits",
			refs:  transportVendor(),
			net:   "600,00",
			lines: amountLines("500,00", "150,00", "120,00"),
			want:  Continue(),
			after: []string{"500,00", "100,00"},
		},
		{
			name:  "vendor is not a transport vendor",
			net:   "1.010,00",
			lines: amountLines("1.000,00"),
			want:  Reject(fmt.Sprintf("Document %s is not transport invoice. Vendor is not transport type", testDoc)),
			after: []string{"1.000,00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStageFixture(t, tt.refs, classify.POTypeTransport, tt.net, nil, tt.lines)

			out := f.p.poTypes(context.Background(), f.r)

			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.after, f.amounts())
		})
	}
}

func TestEPO(t *testing.T) {
	rule4 := Reject(fmt.Sprintf("Document %s cannot be processed due to Rule 4 failure (no matching line in PO type 47 with multiple lines) (Rule 4).", testDoc))

	tests := []struct {
		name  string
		net   string
		lines []replay.Line
		want  Outcome
		after []string
	}{
		{
			name:  "one line",
			net:   "900,00",
			lines: amountLines("1.000,00"),
			want:  rejected("po type = EPO, one line (Rule 4)."),
			after: []string{"1.000,00"},
		},
		{
			name:  "positive saldo",
			net:   "1.000,00",
			lines: amountLines("400,00", "300,00"),
			want:  rejected("Matching PO line couldn't be found (Rule 4)."),
			after: []string{"400,00", "300,00"},
		},
		{
			name:  "trailing line covers the saldo",
			net:   "900,00",
			lines: amountLines("600,00", "300,00", "200,00"),
			want:  Continue(),
			after: []string{"600,00", "300,00"},
		},
		{
			name:  "last line larger than the saldo",
			net:   "950,00",
			lines: amountLines("600,00", "300,00", "200,00"),
			want:  rule4,
			after: []string{"600,00", "300,00", "200,00"},
		},
		{
			name:  "removal overshoots",
			net:   "750,00",
			lines: amountLines("600,00", "300,00", "200,00"),
			want:  rule4,
			after: []string{"600,00", "300,00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStageFixture(t, nil, classify.POTypeEPO, tt.net, nil, tt.lines)

			out := f.p.poTypes(context.Background(), f.r)

			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.after, f.amounts())
		})
	}
}

func TestStandard(t *testing.T) {
	twoWay := map[session.Field]string{
		session.FieldPOValueOrdered:   "1.000,00",
		session.FieldPOValueToDeliver: "500,00",
		session.FieldPOTaxCode:        "V1",
	}
	threeWay := map[session.Field]string{
		session.FieldPOValueOrdered:   "1.000,00",
		session.FieldPOValueToDeliver: "500,00",
		session.FieldPOTaxCode:        "V1",
		session.FieldPOGRBased:        "X",
	}

	tests := []struct {
		name   string
		fields map[session.Field]string
		net    string
		lines  []replay.Line
		want   Outcome
		after  []string
	}{
		{
			name:   "two way takes the saldo on the first line",
			fields: twoWay,
			net:    "1.010,00",
			lines:  amountLines("1.000,00"),
			want:   Continue(),
			after:  []string{"1.010,00"},
		},
		{
			name:   "three way keeps the matching line",
			fields: threeWay,
			net:    "1.000,00",
			lines:  amountLines("200,00", "1.000,00"),
			want:   Continue(),
			after:  []string{"1.000,00"},
		},
		{
			name:   "three way with several matching lines",
			fields: threeWay,
			net:    "1.000,00",
			lines:  amountLines("1.000,00", "1.000,00"),
			want:   rejected("Document is a 3 way match invoice.Rule 5 failed. Multiple matching lines were found in the proposal"),
			after:  []string{"1.000,00", "1.000,00"},
		},
		{
			name:   "three way without a matching line",
			fields: threeWay,
			net:    "1.000,00",
			lines:  amountLines("200,00", "300,00"),
			want:   rejected("Document is a 3 way match invoice.Rule 5 failed. No matching line was found in the proposal"),
			after:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStageFixture(t, nil, classify.POTypeStandard, tt.net, tt.fields, tt.lines)

			out := f.p.poTypes(context.Background(), f.r)

			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.after, f.amounts())
		})
	}
}

func TestSaldoStage(t *testing.T) {
	f := newStageFixture(t, nil, classify.POTypeStandard, "1.200,00", nil, amountLines("1.000,00"))

	assert.Equal(t, rejected("Saldo is not zero (200,00)"), f.p.saldo(context.Background(), f.r))
}

func TestBankIDs(t *testing.T) {
	tests := []struct {
		name   string
		vendor models.VendorMasterRecord
		want   Outcome
		bank   string
	}{
		{
			name:   "single account",
			vendor: models.VendorMasterRecord{BankIDs: []models.BankID{{Code: "0002"}}},
			want:   Continue(),
			bank:   "0002",
		},
		{
			name:   "intercompany account",
			vendor: models.VendorMasterRecord{Interco: true, BankIDs: []models.BankID{{Code: "0001"}, {Code: "CC"}}},
			want:   Continue(),
			bank:   "CC",
		},
		{
			name:   "intercompany without CC",
			vendor: models.VendorMasterRecord{Interco: true, BankIDs: []models.BankID{{Code: "0001"}, {Code: "0002"}}},
			want:   rejected("Vendor 12345 is an intercompany partner, but there is no 'CC' bank account in master data."),
		},
		{
			name:   "several accounts",
			vendor: models.VendorMasterRecord{BankIDs: []models.BankID{{Code: "0001"}, {Code: "0002"}}},
			want:   rejected("Bank account was not selected."),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStageFixture(t, nil, classify.POTypeStandard, "1.000,00", nil, amountLines("1.000,00"))
			f.r.vendorData = vmd.Result{Vendor: tt.vendor}

			assert.Equal(t, tt.want, f.p.bankIDs(context.Background(), f.r))
			assert.Equal(t, tt.bank, f.host.Field(testDoc, session.FieldBankType))
		})
	}
}

func TestBankIDsKeepsSelectedBank(t *testing.T) {
	f := newStageFixture(t, nil, classify.POTypeStandard, "1.000,00",
		map[session.Field]string{session.FieldBankType: "0003"}, amountLines("1.000,00"))

	assert.Equal(t, Continue(), f.p.bankIDs(context.Background(), f.r))
	assert.Equal(t, "0003", f.host.Field(testDoc, session.FieldBankType))
}

func TestCheckToleranceNonNumericSaldo(t *testing.T) {
	f := newStageFixture(t, nil, classify.POTypeStandard, "1.000,00", nil, nil)

	out := f.p.checkTolerance(f.r, balance{Text: "abc"}, tolerance.Low)

	assert.Equal(t, OutcomeReject, out.Kind)
	assert.Contains(t, out.Reason, "Check tolerance FAILED")
}

func TestEnterData(t *testing.T) {
	f := newStageFixture(t, nil, classify.POTypeStandard, "1.000,00", nil, nil)
	f.r.po.TaxCode = "V1"
	f.r.po.Items = []models.POLineItem{
		{ItemID: "10", Quantity: "3", NetPrice: "100,00", PriceUnit: "1", OrderUnit: "PC"},
		{ItemID: "20", Quantity: "4", NetPrice: "175,00", PriceUnit: "2", OrderUnit: "PC"},
	}

	require.NoError(t, f.p.enterData(context.Background(), f.r))

	lines := f.host.Lines(testDoc)
	require.Len(t, lines, 2)
	assert.Equal(t, replay.Line{InvoiceItem: "1", PONumber: "4500000001", POItem: "10", Amount: "300,00", Quantity: "3", Unit: "PC", TaxCode: "V1"}, lines[0])
	assert.Equal(t, "350,00", lines[1].Amount)
	assert.Equal(t, "350,00", f.host.Field(testDoc, session.FieldSaldo))
}

func TestEnterDataInsertsMissingItems(t *testing.T) {
	f := newStageFixture(t, nil, classify.POTypeStandard, "600,00", nil, []replay.Line{
		{InvoiceItem: "1", PONumber: "4500000001", POItem: "20", Amount: "500,00", TaxCode: "V1"},
	})
	f.r.po.TaxCode = "V1"
	f.r.po.Items = []models.POLineItem{
		{ItemID: "10", Quantity: "1", NetPrice: "100,00", PriceUnit: "1", OrderUnit: "PC"},
		{ItemID: "20", Quantity: "2", NetPrice: "100,00", PriceUnit: "1", OrderUnit: "PC"},
		{ItemID: "30", Quantity: "3", NetPrice: "100,00", PriceUnit: "1", OrderUnit: "PC"},
	}

	require.NoError(t, f.p.enterData(context.Background(), f.r))

	var inserts, sorts int
	for _, a := range f.host.Pressed(testDoc) {
		switch a {
		case session.ActionInsertLine:
			inserts++
		case session.ActionSortByPOItem:
			sorts++
		}
	}
	assert.Equal(t, 2, inserts)
	assert.Equal(t, 1, sorts)

	lines := f.host.Lines(testDoc)
	require.Len(t, lines, 3)
	for i, want := range []struct{ item, poItem, amount string }{
		{"1", "10", "100,00"},
		{"2", "20", "200,00"},
		{"3", "30", "300,00"},
	} {
		assert.Equal(t, want.item, lines[i].InvoiceItem)
		assert.Equal(t, want.poItem, lines[i].POItem)
		assert.Equal(t, want.amount, lines[i].Amount)
	}
	assert.Equal(t, "0,00", f.host.Field(testDoc, session.FieldSaldo))
}

func TestEnterDataKeepsCompleteInvoice(t *testing.T) {
	f := newStageFixture(t, nil, classify.POTypeStandard, "300,00", nil, []replay.Line{
		{InvoiceItem: "1", POItem: "10", Amount: "1,00"},
		{InvoiceItem: "2", POItem: "20", Amount: "1,00"},
	})
	f.r.po.Items = []models.POLineItem{
		{ItemID: "10", Quantity: "1", NetPrice: "100,00"},
		{ItemID: "20", Quantity: "2", NetPrice: "100,00"},
	}

	require.NoError(t, f.p.enterData(context.Background(), f.r))

	assert.NotContains(t, f.host.Pressed(testDoc), session.ActionInsertLine)
	assert.Len(t, f.host.Lines(testDoc), 2)
	assert.Equal(t, "0,00", f.host.Field(testDoc, session.FieldSaldo))
}

func TestItemAmount(t *testing.T) {
	tests := []struct {
		item models.POLineItem
		want string
	}{
		{models.POLineItem{Quantity: "2", NetPrice: "10,50", PriceUnit: "1"}, "21"},
		{models.POLineItem{Quantity: "3", NetPrice: "10,00", PriceUnit: "100"}, "0.3"},
		{models.POLineItem{Quantity: "1", NetPrice: "9,99"}, "9.99"},
	}
	for _, tt := range tests {
		got := itemAmount(tt.item)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
	}
}

func TestQuotedList(t *testing.T) {
	assert.Equal(t, "['vendor number', 'currency']", quotedList([]string{"vendor number", "currency"}))
	assert.Equal(t, "[]", quotedList(nil))
}
