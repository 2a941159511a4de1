// Package tolerance decides whether an open balance is small enough to be
// booked against a reference amount.
package tolerance

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"cockpit/internal/numeric"
)

// Band is a tolerance band: a relative limit and an absolute limit, both
// of which must hold.
type Band struct {
	Name    string
	Percent decimal.Decimal // Relative limit, 0.1 means 10%
	Amount  decimal.Decimal // Absolute limit in document currency

	// label is how the relative limit appears in rejection texts.
	label string
}

var (
	Low     = Band{Name: "low", Percent: decimal.RequireFromString("0.1"), Amount: decimal.NewFromInt(25), label: "10.0"}
	High    = Band{Name: "high", Percent: decimal.RequireFromString("0.2"), Amount: decimal.NewFromInt(100), label: "20.0"}
	Extreme = Band{Name: "extreme", Percent: decimal.NewFromInt(10000), Amount: decimal.NewFromInt(20000000), label: "1000000"}
)

// ErrUnknownBand is returned by BandByName.
var ErrUnknownBand = errors.New("unknown tolerance band")

// BandByName returns the band called low, high or extreme.
func BandByName(name string) (Band, error) {
	for _, b := range []Band{Low, High, Extreme} {
		if b.Name == name {
			return b, nil
		}
	}
	return Band{}, fmt.Errorf("%w: %q", ErrUnknownBand, name)
}

func (b Band) percentLabel() string {
	if b.label != "" {
		return b.label
	}
	return b.Percent.Mul(decimal.NewFromInt(100)).String()
}

// Violation is returned when a balance is outside its band, or when the
// ratio could not be computed at all.
type Violation struct {
	Band      Band
	Saldo     string
	Reference string

	// Undefined is set when the reference is zero or either side is not a
	// number.
	Undefined bool
}

func (v *Violation) Error() string {
	if v.Undefined {
		return fmt.Sprintf("tolerance check failed: %s / %s", v.Saldo, v.Reference)
	}
	return fmt.Sprintf("tolerance of %s%% / %s EUR exceeded", v.Band.percentLabel(), v.Band.Amount)
}

// Reason renders the rejection text for a document.
func (v *Violation) Reason(docNumber string) string {
	if v.Undefined {
		return fmt.Sprintf("Document %s cannot be processed. Check tolerance FAILED: %s / %s [saldo] / [total_ordered]",
			docNumber, v.Saldo, v.Reference)
	}
	return fmt.Sprintf("Document %s cannot be processed. The tolerance of '%s'%% / %s EUR was exceeded",
		docNumber, v.Band.percentLabel(), v.Band.Amount)
}

// Check passes iff |saldo/reference| <= band percent and |saldo| <= band
// amount. A zero reference is a violation.
func Check(saldo, reference decimal.Decimal, band Band) error {
	if reference.IsZero() {
		return &Violation{Band: band, Saldo: saldo.String(), Reference: reference.String(), Undefined: true}
	}
	ratio := saldo.Div(reference).Abs()
	if ratio.LessThanOrEqual(band.Percent) && saldo.Abs().LessThanOrEqual(band.Amount) {
		return nil
	}
	return &Violation{Band: band, Saldo: saldo.String(), Reference: reference.String()}
}

// CheckText runs Check on displayed values. Trailing minus signs are moved
// to the front first; a side that is not numeric is a violation.
func CheckText(saldo, reference string, band Band) error {
	s := numeric.Normalize(numeric.LeadingMinus(saldo))
	r := numeric.Normalize(numeric.LeadingMinus(reference))
	sd, okS := s.Decimal()
	rd, okR := r.Decimal()
	if !okS || !okR {
		return &Violation{Band: band, Saldo: s.String(), Reference: r.String(), Undefined: true}
	}
	return Check(sd, rd, band)
}

// AsViolation unwraps a *Violation from err.
func AsViolation(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
