// Package reconcile scans the invoice line grid and balances it against
// target amounts.
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cockpit/internal/logger"
	"cockpit/internal/numeric"
	"cockpit/internal/session"
)

// DefaultWindow is the number of grid rows the cockpit shows at once.
const DefaultWindow = 7

// Options select the behaviours of one scan. Missing tax codes and rule 5
// matching are separate scan modes; the PO checks combine with either.
type Options struct {
	DifferentPOs bool // track PO changes between lines
	MultipleOnly bool // stop at the first PO change
	TaxCodes     bool // collect lines without a tax code
	Rule5        bool // match lines against SearchedAmount and -Saldo

	SearchedAmount decimal.Decimal
	Saldo          decimal.Decimal
}

// Result is what one scan found.
type Result struct {
	Options

	HowManyLines     int
	SumPOLines       decimal.Decimal
	MultiplePOsExist bool
	CropResult       bool   // lines were deleted by rule 5
	MissingTaxCodes  string // one "Tax code missing on line N." per line
	Value            decimal.Decimal

	Hits     int // lines equal to SearchedAmount
	HitsCrop int // lines equal to -Saldo
}

// Reconciler scans line grids.
type Reconciler struct {
	log zerolog.Logger
}

// New creates a Reconciler.
func New() *Reconciler {
	return &Reconciler{log: logger.WithComponent("reconciler")}
}

// Scan walks the grid from the top until an empty amount cell. It returns
// false only when MultipleOnly stopped the scan at a PO change.
//
// The grid is read one window at a time. Whenever a new window starts, its
// first row's invoice item is compared with the item remembered from the
// previous window; on a repeat the row's amount is added to SumPOLines and
// the scan ends there. Items are not compared line by line.
func (r *Reconciler) Scan(ctx context.Context, table session.LineTable, opts Options) (bool, Result, error) {
	const op = "Scan"

	res := Result{Options: opts}
	window := table.VisibleRows()
	if window <= 0 {
		window = DefaultWindow
	}

	var (
		a, b                  int
		previousItem, item    string
		previousPO, currentPO string
		keeper, cropLine      int
		lastAmount            decimal.Decimal
	)

	if err := table.ScrollTo(ctx, 0); err != nil {
		return false, res, fmt.Errorf("%s: %w", op, err)
	}

	for {
		if a > 0 && a%window == 0 {
			if err := table.ScrollTo(ctx, a); err != nil {
				return false, res, fmt.Errorf("%s: %w", op, err)
			}
			b = 0

			var err error
			if item, err = table.Cell(ctx, b, session.ColumnInvoiceItem); err != nil {
				return false, res, fmt.Errorf("%s: %w", op, err)
			}
			po, err := table.Cell(ctx, b, session.ColumnPONumber)
			if err != nil {
				return false, res, fmt.Errorf("%s: %w", op, err)
			}
			if strings.Contains(po, "____") {
				break
			}
			if previousItem == item {
				amount, err := table.Cell(ctx, b, session.ColumnAmount)
				if err != nil {
					return false, res, fmt.Errorf("%s: %w", op, err)
				}
				res.SumPOLines = res.SumPOLines.Add(numeric.AmountOrZero(amount))
				if opts.Rule5 && res.Hits == 1 {
					if err := r.keepOnly(ctx, table, window, keeper); err != nil {
						return false, res, fmt.Errorf("%s: %w", op, err)
					}
					res.CropResult = true
				}
				return true, res, nil
			}
		}

		if opts.DifferentPOs {
			var err error
			if currentPO, err = table.Cell(ctx, b, session.ColumnPONumber); err != nil {
				return false, res, fmt.Errorf("%s: %w", op, err)
			}
			if previousPO != "" && previousPO != currentPO && !strings.Contains(currentPO, "____") {
				res.MultiplePOsExist = true
				if opts.MultipleOnly {
					return false, res, nil
				}
			}
		}

		if opts.TaxCodes {
			tax, err := table.Cell(ctx, b, session.ColumnTaxCode)
			if err != nil {
				return false, res, fmt.Errorf("%s: %w", op, err)
			}
			if tax == "" {
				res.MissingTaxCodes += fmt.Sprintf("Tax code missing on line %d.\n", a+1)
			}
		}

		previousItem = item
		if opts.DifferentPOs {
			previousPO = currentPO
		}

		text, err := table.Cell(ctx, b, session.ColumnAmount)
		if err != nil {
			return false, res, fmt.Errorf("%s: %w", op, err)
		}
		if strings.HasPrefix(text, "__") || text == "" {
			break
		}
		res.HowManyLines++

		amount, numErr := numeric.Amount(text)
		if numErr == nil {
			lastAmount = amount
		}
		if opts.Rule5 && numErr == nil {
			res.Value = amount
			if amount.Equal(opts.SearchedAmount) {
				res.Hits++
				keeper = a + 1
			}
			if !amount.IsZero() && amount.Equal(opts.Saldo.Neg()) {
				res.HitsCrop++
				cropLine = a + 1
			}
		}
		a++
		b++
	}

	if opts.TaxCodes {
		return true, res, nil
	}
	res.Value = lastAmount

	if opts.Rule5 {
		switch {
		case res.Hits == 1:
			if err := r.keepOnly(ctx, table, window, keeper); err != nil {
				return false, res, fmt.Errorf("%s: %w", op, err)
			}
			res.CropResult = true
		case res.HitsCrop == 1:
			if err := deleteLine(ctx, table, window, cropLine); err != nil {
				return false, res, fmt.Errorf("%s: %w", op, err)
			}
			res.CropResult = true
		}
	}

	r.log.Debug().
		Int("lines", res.HowManyLines).
		Int("hits", res.Hits).
		Int("hits_crop", res.HitsCrop).
		Bool("multiple_pos", res.MultiplePOsExist).
		Bool("cropped", res.CropResult).
		Msg("Line scan finished")

	return true, res, nil
}

// keepOnly deletes every line except the 1-based line n.
func (r *Reconciler) keepOnly(ctx context.Context, table session.LineTable, window, n int) error {
	if err := table.ScrollTo(ctx, n-n%window); err != nil {
		return err
	}
	if err := table.SelectAll(ctx); err != nil {
		return err
	}
	if err := table.Select(ctx, n-1, false); err != nil {
		return err
	}
	return table.DeleteSelected(ctx)
}

// deleteLine deletes the 1-based line n.
func deleteLine(ctx context.Context, table session.LineTable, window, n int) error {
	if err := table.ScrollTo(ctx, n-n%window); err != nil {
		return err
	}
	if err := table.Select(ctx, n-1, true); err != nil {
		return err
	}
	return table.DeleteSelected(ctx)
}
