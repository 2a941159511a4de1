package replay

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"

	"cockpit/internal/session"
	"cockpit/pkg/models"
)

// Gateway is a session onto a Host.
type Gateway struct {
	host      *Host
	secondary bool
	closed    bool

	current  *document
	status   session.Message
	popup    *session.Message
	messages []session.Message
	top      int
}

var _ session.Gateway = (*Gateway)(nil)

// begin locks the host and fails when the connection is gone.
func (g *Gateway) begin(op string) (func(), error) {
	g.host.mu.Lock()
	unlock := g.host.mu.Unlock
	if g.host.disconnected || g.closed {
		unlock()
		return nil, session.NewGatewayError(op, "", session.ErrDisconnected)
	}
	return unlock, nil
}

func (g *Gateway) doc(op string) (*document, error) {
	if g.current == nil {
		return nil, session.NewGatewayError(op, "", session.ErrNoDocument)
	}
	return g.current, nil
}

func (g *Gateway) drop(op string) error {
	g.host.disconnected = true
	g.current.DisconnectOn = ""
	g.host.log.Warn().Str("doc_number", g.current.DocNumber).Str("op", op).Msg("Replay session dropped")
	return session.NewGatewayError(op, "", session.ErrDisconnected)
}

func (g *Gateway) Find(_ context.Context, docNumber, companyCode string) (bool, error) {
	unlock, err := g.begin("Find")
	if err != nil {
		return false, err
	}
	defer unlock()

	d, ok := g.host.docs[docNumber]
	if !ok || (companyCode != "" && d.CompanyCode != companyCode) {
		return false, nil
	}
	g.current = d
	g.status = d.StatusBar
	g.popup = nil
	g.messages = nil
	g.top = 0
	return true, nil
}

func (g *Gateway) Open(_ context.Context, docNumber string) error {
	const op = "Open"
	unlock, err := g.begin(op)
	if err != nil {
		return err
	}
	defer unlock()

	d, err := g.doc(op)
	if err != nil {
		return err
	}
	if d.DocNumber != docNumber {
		return session.NewGatewayError(op, "", fmt.Errorf("document %s is not selected", docNumber))
	}
	if d.DisconnectOn == "open" {
		return g.drop(op)
	}
	if d.OpenError != "" {
		return session.NewGatewayError(op, "", &session.StatusError{Message: session.Message{Severity: session.SeverityError, Text: d.OpenError}})
	}
	return nil
}

func (g *Gateway) Text(_ context.Context, field session.Field) (string, error) {
	const op = "Text"
	unlock, err := g.begin(op)
	if err != nil {
		return "", err
	}
	defer unlock()

	d, err := g.doc(op)
	if err != nil {
		return "", err
	}
	if d.unavailable[field] {
		return "", session.NewGatewayError(op, field, session.ErrFieldUnavailable)
	}
	return d.field(field), nil
}

func (g *Gateway) SetText(_ context.Context, field session.Field, value string) error {
	const op = "SetText"
	unlock, err := g.begin(op)
	if err != nil {
		return err
	}
	defer unlock()

	d, err := g.doc(op)
	if err != nil {
		return err
	}
	if d.unavailable[field] {
		return session.NewGatewayError(op, field, session.ErrFieldUnavailable)
	}
	d.Fields[field] = value
	return nil
}

func (g *Gateway) Press(_ context.Context, action session.Action) error {
	const op = "Press"
	unlock, err := g.begin(op)
	if err != nil {
		return err
	}
	defer unlock()

	d, err := g.doc(op)
	if err != nil {
		return err
	}
	d.pressed = append(d.pressed, action)
	if d.DisconnectOn == string(action) {
		return g.drop(op)
	}

	switch action {
	case session.ActionEnter:
		if g.status.Severity == session.SeverityWarning {
			g.status = session.Message{}
		}
	case session.ActionBack:
		g.status = session.Message{}
	case session.ActionTakeOver:
		r := d.TakeOver
		if r == nil || (r.Status == nil && r.Popup == "") {
			d.Editable = true
			return nil
		}
		if r.Status != nil {
			g.status = *r.Status
		}
		if r.Popup != "" {
			g.popup = &session.Message{Severity: session.SeverityInfo, Text: r.Popup}
		}
	case session.ActionDisplayPO:
		if d.DisplayPOStatus != nil {
			g.status = *d.DisplayPOStatus
		}
	case session.ActionTransferToMM:
		d.Fields[session.FieldDocumentKind] = models.KindMM
	case session.ActionTransferToFI:
		d.Fields[session.FieldDocumentKind] = models.KindFI
	case session.ActionRegenerateProposal:
		g.messages = nil
		if d.Proposal != nil {
			if d.Proposal.Lines != nil {
				d.Lines = slices.Clone(d.Proposal.Lines)
			}
			g.messages = slices.Clone(d.Proposal.Messages)
		}
	case session.ActionCheck:
		g.messages = slices.Clone(d.CheckMessages)
	case session.ActionPost:
		if slices.ContainsFunc(d.CheckMessages, session.Message.IsError) {
			g.messages = slices.Clone(d.CheckMessages)
			return nil
		}
		g.messages = slices.Clone(d.PostMessages)
		if d.PostingNumber != "" {
			d.Fields[session.FieldPostingNumber] = d.PostingNumber
		}
	case session.ActionVendorMasterData:
		if d.VendorPopup != "" {
			g.popup = &session.Message{Severity: session.SeverityInfo, Text: d.VendorPopup}
		}
	case session.ActionInsertLine:
		at := min(g.top, len(d.Lines))
		d.Lines = slices.Insert(d.Lines, at, Line{})
		d.selected = make(map[int]bool)
	case session.ActionSortByPOItem:
		slices.SortStableFunc(d.Lines, func(a, b Line) int {
			return comparePOItems(a.POItem, b.POItem)
		})
		d.selected = make(map[int]bool)
	case session.ActionClosePopup, session.ActionBackToCockpit:
		g.popup = nil
	default:
		return session.NewGatewayError(op, "", fmt.Errorf("unknown action %q", action))
	}
	return nil
}

func (g *Gateway) Editable(context.Context) (bool, error) {
	unlock, err := g.begin("Editable")
	if err != nil {
		return false, err
	}
	defer unlock()

	d, err := g.doc("Editable")
	if err != nil {
		return false, err
	}
	return d.Editable, nil
}

func (g *Gateway) StatusBar(context.Context) (session.Message, error) {
	unlock, err := g.begin("StatusBar")
	if err != nil {
		return session.Message{}, err
	}
	defer unlock()
	return g.status, nil
}

func (g *Gateway) Popup(context.Context) (session.Message, bool, error) {
	unlock, err := g.begin("Popup")
	if err != nil {
		return session.Message{}, false, err
	}
	defer unlock()
	if g.popup == nil {
		return session.Message{}, false, nil
	}
	return *g.popup, true, nil
}

func (g *Gateway) Messages(context.Context) ([]session.Message, error) {
	unlock, err := g.begin("Messages")
	if err != nil {
		return nil, err
	}
	defer unlock()
	return slices.Clone(g.messages), nil
}

func (g *Gateway) Notes(context.Context) ([]string, error) {
	unlock, err := g.begin("Notes")
	if err != nil {
		return nil, err
	}
	defer unlock()

	d, err := g.doc("Notes")
	if err != nil {
		return nil, err
	}
	return slices.Clone(d.Notes), nil
}

func (g *Gateway) POItems(context.Context) ([]models.POLineItem, error) {
	unlock, err := g.begin("POItems")
	if err != nil {
		return nil, err
	}
	defer unlock()

	d, err := g.doc("POItems")
	if err != nil {
		return nil, err
	}
	return slices.Clone(d.POItems), nil
}

func (g *Gateway) POPartners(context.Context) ([]models.Partner, error) {
	unlock, err := g.begin("POPartners")
	if err != nil {
		return nil, err
	}
	defer unlock()

	d, err := g.doc("POPartners")
	if err != nil {
		return nil, err
	}
	return slices.Clone(d.POPartners), nil
}

func (g *Gateway) VendorMaster(context.Context) (models.VendorMasterRecord, error) {
	const op = "VendorMaster"
	unlock, err := g.begin(op)
	if err != nil {
		return models.VendorMasterRecord{}, err
	}
	defer unlock()

	d, err := g.doc(op)
	if err != nil {
		return models.VendorMasterRecord{}, err
	}
	if d.VendorMaster == nil {
		return models.VendorMasterRecord{}, session.NewGatewayError(op, "", session.ErrFieldUnavailable)
	}
	return *d.VendorMaster, nil
}

func (g *Gateway) LookupVendor(_ context.Context, vendor, companyCode string) (models.VendorMasterRecord, error) {
	const op = "LookupVendor"
	unlock, err := g.begin(op)
	if err != nil {
		return models.VendorMasterRecord{}, err
	}
	defer unlock()

	if text, ok := g.host.wb.VendorErrors[vendor]; ok {
		return models.VendorMasterRecord{}, &session.StatusError{Message: session.Message{Severity: session.SeverityError, Text: text}}
	}
	rec, ok := g.host.wb.Vendors[vendor]
	if !ok {
		return models.VendorMasterRecord{}, session.NewGatewayError(op, "", fmt.Errorf("vendor %s in %s: %w", vendor, companyCode, session.ErrFieldUnavailable))
	}
	return rec, nil
}

func (g *Gateway) Indexing(context.Context) (models.IndexingDetails, error) {
	const op = "Indexing"
	unlock, err := g.begin(op)
	if err != nil {
		return models.IndexingDetails{}, err
	}
	defer unlock()

	d, err := g.doc(op)
	if err != nil {
		return models.IndexingDetails{}, err
	}
	if d.Indexing == nil {
		return models.IndexingDetails{}, session.NewGatewayError(op, "", session.ErrFieldUnavailable)
	}
	return *d.Indexing, nil
}

func (g *Gateway) PermittedPayee(context.Context) (bool, error) {
	unlock, err := g.begin("PermittedPayee")
	if err != nil {
		return false, err
	}
	defer unlock()

	d, err := g.doc("PermittedPayee")
	if err != nil {
		return false, err
	}
	return d.PermittedPayee, nil
}

func (g *Gateway) Lines() session.LineTable {
	return &table{g: g}
}

func (g *Gateway) OpenSession(context.Context) (session.Gateway, error) {
	const op = "OpenSession"
	unlock, err := g.begin(op)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if g.host.open >= g.host.maxSessions() {
		return nil, session.NewGatewayError(op, "", session.ErrSessionLimit)
	}
	g.host.open++
	return &Gateway{host: g.host, secondary: true}, nil
}

func (g *Gateway) Close() error {
	g.host.mu.Lock()
	defer g.host.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	if g.secondary && g.host.open > 0 {
		g.host.open--
	}
	return nil
}

// comparePOItems orders item numbers numerically. Empty items sort last.
func comparePOItems(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return cmp.Compare(na, nb)
	}
	return cmp.Compare(a, b)
}
