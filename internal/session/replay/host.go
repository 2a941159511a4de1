package replay

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"cockpit/internal/logger"
	"cockpit/internal/numeric"
	"cockpit/internal/session"
)

// Host owns the mutable state of a replayed workbook and hands out
// gateways onto it.
type Host struct {
	mu           sync.Mutex
	wb           *Workbook
	docs         map[string]*document
	order        []string
	open         int
	disconnected bool
	log          zerolog.Logger
}

type document struct {
	Document
	unavailable map[session.Field]bool
	selected    map[int]bool
	pressed     []session.Action
}

// NewHost prepares a host. The workbook is copied; replaying never changes
// the caller's value.
func NewHost(wb *Workbook) *Host {
	h := &Host{
		wb:   wb,
		docs: make(map[string]*document, len(wb.Documents)),
		log:  logger.WithComponent("replay"),
	}
	for _, d := range wb.Documents {
		doc := &document{
			Document:    cloneDocument(d),
			unavailable: make(map[session.Field]bool),
			selected:    make(map[int]bool),
		}
		for _, f := range d.Unavailable {
			doc.unavailable[f] = true
		}
		h.docs[d.DocNumber] = doc
		h.order = append(h.order, d.DocNumber)
	}
	return h
}

// Connect returns the primary gateway, restoring a dropped connection.
func (h *Host) Connect(context.Context) (session.Gateway, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disconnected {
		h.log.Info().Msg("Reconnecting replay session")
	}
	h.disconnected = false
	h.open = 1 + h.wb.BusySessions
	return &Gateway{host: h}, nil
}

// OpenSessions reports how many sessions are open, the primary included.
func (h *Host) OpenSessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open
}

// Pressed lists the actions pressed while the document was current.
func (h *Host) Pressed(docNumber string) []session.Action {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d, ok := h.docs[docNumber]; ok {
		return slices.Clone(d.pressed)
	}
	return nil
}

// Lines returns the current invoice lines of a document.
func (h *Host) Lines(docNumber string) []Line {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d, ok := h.docs[docNumber]; ok {
		return slices.Clone(d.Lines)
	}
	return nil
}

// Field returns the current value of a document field.
func (h *Host) Field(docNumber string, f session.Field) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d, ok := h.docs[docNumber]; ok {
		return d.field(f)
	}
	return ""
}

func (h *Host) visibleRows() int {
	if h.wb.VisibleRows > 0 {
		return h.wb.VisibleRows
	}
	return defaultVisibleRows
}

func (h *Host) maxSessions() int {
	if h.wb.MaxSessions > 0 {
		return h.wb.MaxSessions
	}
	return defaultMaxSessions
}

func (d *document) field(f session.Field) string {
	if f == session.FieldSaldo {
		return d.saldo()
	}
	return d.Fields[f]
}

// saldo is the net amount minus the line amounts, as the host recomputes
// it after each edit. Without a numeric net amount the recorded value is
// shown.
func (d *document) saldo() string {
	net, err := numeric.Amount(d.Fields[session.FieldNetAmount])
	if err != nil {
		return d.Fields[session.FieldSaldo]
	}
	for _, l := range d.Lines {
		net = net.Sub(numeric.AmountOrZero(l.Amount))
	}
	return numeric.Format(net)
}

func cloneDocument(d Document) Document {
	c := d
	c.Fields = make(map[session.Field]string, len(d.Fields))
	for k, v := range d.Fields {
		c.Fields[k] = v
	}
	c.Lines = slices.Clone(d.Lines)
	c.Notes = slices.Clone(d.Notes)
	c.POItems = slices.Clone(d.POItems)
	c.POPartners = slices.Clone(d.POPartners)
	return c
}
