// Package numeric reads the amounts and quantities the cockpit displays.
//
// The cockpit renders numbers in German notation ("1.234,56") and marks
// negative values with a trailing minus ("25-"). Normalize follows an
// int-first policy and hands back the original text when nothing numeric
// can be read from it.
package numeric

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotNumeric is returned by Amount when the text does not hold a number.
var ErrNotNumeric = errors.New("value is not numeric")

// Kind tells what Normalize managed to read.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "text"
	}
}

// Value is the result of Normalize.
type Value struct {
	kind Kind
	num  decimal.Decimal
	text string
}

// Kind returns what kind of value was read.
func (v Value) Kind() Kind { return v.kind }

// IsNumber reports whether a number was read.
func (v Value) IsNumber() bool { return v.kind != KindText }

// Decimal returns the number and whether there is one.
func (v Value) Decimal() (decimal.Decimal, bool) {
	return v.num, v.kind != KindText
}

// Text returns the original input.
func (v Value) Text() string { return v.text }

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return v.num.String()
	case KindFloat:
		s := v.num.String()
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	default:
		return v.text
	}
}

// Normalize converts a locale formatted number. An integer parse is tried
// first. Otherwise a string with dots and exactly one comma has its dots
// dropped as thousands separators, the comma becomes the decimal point and
// a float parse is tried. Text that is still not numeric is returned as is.
//
// Trailing minus signs are not handled here, see LeadingMinus.
func Normalize(s string) Value {
	trimmed := strings.TrimSpace(s)
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return Value{kind: KindInt, num: decimal.NewFromInt(i), text: s}
	}

	candidate := trimmed
	if strings.Contains(candidate, ".") && strings.Count(candidate, ",") == 1 {
		candidate = strings.ReplaceAll(candidate, ".", "")
	}
	candidate = strings.ReplaceAll(candidate, ",", ".")
	if d, err := decimal.NewFromString(candidate); err == nil {
		return Value{kind: KindFloat, num: d, text: s}
	}
	return Value{kind: KindText, text: s}
}

// LeadingMinus moves a trailing minus sign to the front: "25-" becomes "-25".
func LeadingMinus(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "-") {
		return "-" + strings.TrimSuffix(s, "-")
	}
	return s
}

// Amount reads a displayed amount, trailing minus included.
func Amount(s string) (decimal.Decimal, error) {
	v := Normalize(LeadingMinus(s))
	d, ok := v.Decimal()
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}
	return d, nil
}

// AmountOrZero reads a displayed amount and treats empty or non-numeric
// text as zero.
func AmountOrZero(s string) decimal.Decimal {
	d, err := Amount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Format renders an amount the way the cockpit displays it, with two
// decimals, dot thousands separators and a trailing minus.
func Format(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	if neg {
		b.WriteByte('-')
	}
	return b.String()
}

// IsPlaceholder reports whether a cell shows the empty-row placeholder,
// a run of underscores.
func IsPlaceholder(s string) bool {
	return strings.Contains(s, "__")
}
