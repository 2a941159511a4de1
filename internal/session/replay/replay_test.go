package replay_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cockpit/internal/session"
	"cockpit/internal/session/replay"
)

const workbookJSON = `{
  "max_sessions": 2,
  "documents": [
    {
      "doc_number": "5100000001",
      "company_code": "3B5",
      "fields": {"net_amount": "150,00", "vendor": "12345"},
      "lines": [
        {"invoice_item": "1", "amount": "100,00", "tax_code": "V1"},
        {"invoice_item": "2", "amount": "40,00", "tax_code": "V1"}
      ]
    },
    {
      "doc_number": "5100000002",
      "company_code": "V436",
      "disconnect_on": "open"
    }
  ]
}`

func newHost(t *testing.T) *replay.Host {
	t.Helper()
	wb, err := replay.Load(strings.NewReader(workbookJSON))
	require.NoError(t, err)
	return replay.NewHost(wb)
}

func TestSaldoFollowsLines(t *testing.T) {
	ctx := context.Background()
	host := newHost(t)
	g, err := host.Connect(ctx)
	require.NoError(t, err)

	found, err := g.Find(ctx, "5100000001", "3B5")
	require.NoError(t, err)
	require.True(t, found)

	saldo, err := g.Text(ctx, session.FieldSaldo)
	require.NoError(t, err)
	assert.Equal(t, "10,00", saldo)

	lines := g.Lines()
	require.NoError(t, lines.SetCell(ctx, 1, session.ColumnAmount, "50,00"))
	saldo, _ = g.Text(ctx, session.FieldSaldo)
	assert.Equal(t, "0,00", saldo)

	assert.Error(t, lines.SetCell(ctx, 2, session.ColumnAmount, "10,00"))

	cell, err := lines.Cell(ctx, 3, session.ColumnAmount)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cell, "__"))

	require.NoError(t, lines.Select(ctx, 0, true))
	require.NoError(t, lines.DeleteSelected(ctx))
	assert.Len(t, host.Lines("5100000001"), 1)
}

func TestInsertAndSortLines(t *testing.T) {
	ctx := context.Background()
	host := newHost(t)
	g, err := host.Connect(ctx)
	require.NoError(t, err)
	_, err = g.Find(ctx, "5100000001", "3B5")
	require.NoError(t, err)

	lines := g.Lines()
	require.NoError(t, lines.SetCell(ctx, 0, session.ColumnPOItem, "20"))
	require.NoError(t, lines.SetCell(ctx, 1, session.ColumnPOItem, "100"))

	require.NoError(t, g.Press(ctx, session.ActionInsertLine))
	require.NoError(t, lines.SetCell(ctx, 0, session.ColumnPOItem, "30"))
	require.NoError(t, g.Press(ctx, session.ActionSortByPOItem))

	var items []string
	for _, l := range host.Lines("5100000001") {
		items = append(items, l.POItem)
	}
	assert.Equal(t, []string{"20", "30", "100"}, items)
}

func TestFindWrongCompany(t *testing.T) {
	ctx := context.Background()
	g, _ := newHost(t).Connect(ctx)

	found, err := g.Find(ctx, "5100000001", "V436")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSecondarySessionLimit(t *testing.T) {
	ctx := context.Background()
	host := newHost(t)
	g, _ := host.Connect(ctx)

	second, err := g.OpenSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, host.OpenSessions())

	_, err = g.OpenSession(ctx)
	assert.ErrorIs(t, err, session.ErrSessionLimit)

	require.NoError(t, second.Close())
	assert.Equal(t, 1, host.OpenSessions())
}

func TestDisconnectAndReconnect(t *testing.T) {
	ctx := context.Background()
	host := newHost(t)
	g, _ := host.Connect(ctx)

	found, err := g.Find(ctx, "5100000002", "")
	require.NoError(t, err)
	require.True(t, found)

	err = g.Open(ctx, "5100000002")
	require.Error(t, err)
	assert.True(t, session.IsDisconnect(err))

	_, err = g.Text(ctx, session.FieldVendor)
	assert.True(t, session.IsDisconnect(err))

	g, err = host.Connect(ctx)
	require.NoError(t, err)
	found, _ = g.Find(ctx, "5100000002", "")
	require.True(t, found)
	assert.NoError(t, g.Open(ctx, "5100000002"))
}
