package classify_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"cockpit/internal/classify"
	"cockpit/pkg/models"
)

func TestSource(t *testing.T) {
	assert.Equal(t, models.SourceAriba, classify.Source("", ""))
	assert.Equal(t, models.SourcePDFCollector, classify.Source("B1", "U1"))
	assert.Equal(t, models.SourceUnknown, classify.Source("B1", ""))
	assert.Equal(t, models.SourceUnknown, classify.Source("", "U1"))
}

func TestClassifyPOType(t *testing.T) {
	tests := map[string]classify.POType{
		"Purchase outside EPO": classify.POTypeEPO,
		"Transport PO":         classify.POTypeTransport,
		"Intercompany PO":      classify.POTypeIntercompany,
		"Standard PO":          classify.POTypeStandard,
		"Ivalua order":         classify.POTypeStandard,
		"Emergency PO":         classify.POTypeStandard,
		"Unknown Label":        classify.POTypeUnrecognized,
		"":                     classify.POTypeUnrecognized,
	}
	for label, want := range tests {
		t.Run(label, func(t *testing.T) {
			got := classify.ClassifyPOType(label)
			assert.Equal(t, want, got)
			assert.Equal(t, want != classify.POTypeUnrecognized, got.Recognized())
		})
	}
}

type lists struct {
	critical  map[string]bool
	transport map[string]bool
}

func (l lists) IsCriticalVendor(vendorID, companyCode string) bool {
	return l.critical[companyCode+"/"+vendorID]
}

func (l lists) IsTransportVendor(companyCode, vendorID string) bool {
	return l.transport[companyCode+"/"+vendorID]
}

func TestVendorClassifier(t *testing.T) {
	c := classify.NewVendorClassifier(lists{
		critical:  map[string]bool{"3B5/100": true},
		transport: map[string]bool{"V436/200": true},
	})

	assert.True(t, c.IsCritical("100", "3B5"))
	assert.False(t, c.IsCritical("100", "V436"))
	assert.False(t, c.IsCritical("", "3B5"))
	assert.True(t, c.IsTransport("V436", "200"))
	assert.False(t, c.IsTransport("3B5", "200"))

	var empty *classify.VendorClassifier
	assert.False(t, empty.IsCritical("100", "3B5"))
}

func TestPONumberFromNote(t *testing.T) {
	tests := []struct {
		name   string
		note   string
		po     string
		result classify.NoteResult
	}{
		{name: "plain number", note: "please use PO 4500012345 instead", po: "4500012345", result: classify.NotePO},
		{name: "dash shorthand", note: "PO 4500-12 ok", po: "4500000012", result: classify.NotePO},
		{name: "prefix 40", note: "4012345678", po: "4012345678", result: classify.NotePO},
		{name: "too short", note: "PO 45123", result: classify.NoteNoPO},
		{name: "zrm order", note: "order ZRM0012 not in scope", result: classify.NoteZRM},
		{name: "po before zrm wins", note: "4500012345 / ZRM00", po: "4500012345", result: classify.NotePO},
		{name: "nothing", note: "goods received", result: classify.NoteNoPO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			po, result := classify.PONumberFromNote(tt.note)
			assert.Equal(t, tt.result, result)
			assert.Equal(t, tt.po, po)
		})
	}
}

func ExamplePONumberFromNote() {
	po, _ := classify.PONumberFromNote("correct PO is 4700-987")
	fmt.Println(po)
	// Output: 4700000987
}
