package reconcile

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"cockpit/internal/numeric"
	"cockpit/internal/session"
)

// Lines addresses grid lines by absolute index, scrolling as needed.
type Lines struct {
	table  session.LineTable
	window int
}

// NewLines wraps a line grid.
func NewLines(table session.LineTable) *Lines {
	window := table.VisibleRows()
	if window <= 0 {
		window = DefaultWindow
	}
	return &Lines{table: table, window: window}
}

func (l *Lines) scroll(ctx context.Context, index int) (int, error) {
	if err := l.table.ScrollTo(ctx, index-index%l.window); err != nil {
		return 0, err
	}
	return index % l.window, nil
}

// Cell reads a cell of line index.
func (l *Lines) Cell(ctx context.Context, index int, col session.Column) (string, error) {
	row, err := l.scroll(ctx, index)
	if err != nil {
		return "", err
	}
	return l.table.Cell(ctx, row, col)
}

// SetCell writes a cell of line index. The line must exist.
func (l *Lines) SetCell(ctx context.Context, index int, col session.Column, value string) error {
	row, err := l.scroll(ctx, index)
	if err != nil {
		return err
	}
	return l.table.SetCell(ctx, row, col, value)
}

// Exists reports whether line index holds an amount.
func (l *Lines) Exists(ctx context.Context, index int) (bool, error) {
	text, err := l.Cell(ctx, index, session.ColumnAmount)
	if err != nil {
		return false, err
	}
	return text != "" && !numeric.IsPlaceholder(text), nil
}

// Amount reads the amount of line index. A missing line reads as zero.
func (l *Lines) Amount(ctx context.Context, index int) (decimal.Decimal, error) {
	text, err := l.Cell(ctx, index, session.ColumnAmount)
	if err != nil {
		return decimal.Zero, err
	}
	if strings.TrimSpace(text) == "" || numeric.IsPlaceholder(text) {
		return decimal.Zero, nil
	}
	return numeric.Amount(text)
}

// SetAmount writes the amount of line index.
func (l *Lines) SetAmount(ctx context.Context, index int, amount decimal.Decimal) error {
	return l.SetCell(ctx, index, session.ColumnAmount, numeric.Format(amount))
}

// Count returns the number of lines holding an amount.
func (l *Lines) Count(ctx context.Context) (int, error) {
	n := 0
	for {
		ok, err := l.Exists(ctx, n)
		if err != nil {
			return 0, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}

// Delete removes line index.
func (l *Lines) Delete(ctx context.Context, index int) error {
	return deleteLine(ctx, l.table, l.window, index+1)
}

// RemoveLast removes the last line. It reports false when there was none.
func (l *Lines) RemoveLast(ctx context.Context) (bool, error) {
	n, err := l.Count(ctx)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	return true, l.Delete(ctx, n-1)
}
