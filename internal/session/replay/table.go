package replay

import (
	"context"
	"fmt"

	"cockpit/internal/session"
)

type table struct {
	g *Gateway
}

func (t *table) VisibleRows() int {
	return t.g.host.visibleRows()
}

func (t *table) ScrollTo(_ context.Context, top int) error {
	unlock, err := t.g.begin("ScrollTo")
	if err != nil {
		return err
	}
	defer unlock()
	if top < 0 {
		top = 0
	}
	t.g.top = top
	return nil
}

func (t *table) Cell(_ context.Context, row int, col session.Column) (string, error) {
	const op = "Cell"
	unlock, err := t.g.begin(op)
	if err != nil {
		return "", err
	}
	defer unlock()

	d, err := t.g.doc(op)
	if err != nil {
		return "", err
	}
	if row < 0 || row >= t.g.host.visibleRows() {
		return "", session.NewGatewayError(op, session.Field(col), fmt.Errorf("row %d: %w", row, session.ErrFieldUnavailable))
	}
	idx := t.g.top + row
	if idx >= len(d.Lines) {
		return placeholder(col), nil
	}
	v, ok := d.Lines[idx].get(col)
	if !ok {
		return "", session.NewGatewayError(op, session.Field(col), session.ErrFieldUnavailable)
	}
	return v, nil
}

func (t *table) SetCell(_ context.Context, row int, col session.Column, value string) error {
	const op = "SetCell"
	unlock, err := t.g.begin(op)
	if err != nil {
		return err
	}
	defer unlock()

	d, err := t.g.doc(op)
	if err != nil {
		return err
	}
	if row < 0 || row >= t.g.host.visibleRows() {
		return session.NewGatewayError(op, session.Field(col), fmt.Errorf("row %d: %w", row, session.ErrFieldUnavailable))
	}
	idx := t.g.top + row
	if idx >= len(d.Lines) {
		return session.NewGatewayError(op, session.Field(col), fmt.Errorf("row %d is beyond the last line", idx))
	}
	if !d.Lines[idx].set(col, value) {
		return session.NewGatewayError(op, session.Field(col), session.ErrFieldUnavailable)
	}
	return nil
}

func (t *table) Select(_ context.Context, index int, selected bool) error {
	const op = "Select"
	unlock, err := t.g.begin(op)
	if err != nil {
		return err
	}
	defer unlock()

	d, err := t.g.doc(op)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(d.Lines) {
		return session.NewGatewayError(op, "", fmt.Errorf("line %d does not exist", index))
	}
	if selected {
		d.selected[index] = true
	} else {
		delete(d.selected, index)
	}
	return nil
}

func (t *table) SelectAll(context.Context) error {
	unlock, err := t.g.begin("SelectAll")
	if err != nil {
		return err
	}
	defer unlock()

	d, err := t.g.doc("SelectAll")
	if err != nil {
		return err
	}
	for i := range d.Lines {
		d.selected[i] = true
	}
	return nil
}

func (t *table) DeleteSelected(context.Context) error {
	unlock, err := t.g.begin("DeleteSelected")
	if err != nil {
		return err
	}
	defer unlock()

	d, err := t.g.doc("DeleteSelected")
	if err != nil {
		return err
	}
	kept := d.Lines[:0:0]
	for i, l := range d.Lines {
		if !d.selected[i] {
			kept = append(kept, l)
		}
	}
	d.Lines = kept
	d.selected = make(map[int]bool)
	return nil
}
