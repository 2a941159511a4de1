package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"cockpit/internal/config"
	"cockpit/internal/refdata"
	"cockpit/internal/runner"
	"cockpit/internal/session/replay"
)

func TestSelectJobs(t *testing.T) {
	wb := &replay.Workbook{Documents: []replay.Document{
		{DocNumber: "5100000001", CompanyCode: "3B5"},
		{DocNumber: "5100000002", CompanyCode: "V436"},
		{DocNumber: "5100000003", CompanyCode: "ZZ01"},
	}}
	cfg := &config.Config{CompanyCodes: []string{"3B5", "V436"}}

	assert.Equal(t, []runner.Job{
		{DocNumber: "5100000001", CompanyCode: "3B5"},
		{DocNumber: "5100000002", CompanyCode: "V436"},
	}, selectJobs(wb, nil, "", cfg))

	assert.Equal(t, []runner.Job{
		{DocNumber: "5100000002", CompanyCode: "V436"},
	}, selectJobs(wb, nil, "V436", cfg))

	assert.Equal(t, []runner.Job{
		{DocNumber: "5100000002", CompanyCode: "V436"},
		{DocNumber: "5199999999", CompanyCode: ""},
	}, selectJobs(wb, splitDocs(" 5100000002, ,5199999999"), "", cfg))
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, refdata.Stats{
		CriticalVendors:  map[string]int{"V436": 2, "3B5": 5},
		TransportVendors: map[string]int{"3B5": 1},
		FIVendors:        3,
		CalendarEntries:  4,
	})

	assert.Equal(t, "Critical suppliers:\n  3B5: 5\n  V436: 2\nTransport vendors:\n  3B5: 1\nFI vendors: 3\nCalendar overrides: 4\n", buf.String())
}

func TestDescribeNote(t *testing.T) {
	assert.Equal(t, "4500123456", describeNote("please use PO 4500123456"))
	assert.Equal(t, "ZRM order: not supported", describeNote("see ZRM0012345"))
	assert.Equal(t, "no purchase order number found", describeNote("call the vendor"))
}
