package refdata

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySheet is returned when a reference tab has no rows at all.
	ErrEmptySheet = errors.New("sheet is empty")

	// ErrHeaderNotFound is returned when the expected header row is missing.
	ErrHeaderNotFound = errors.New("header row not found")

	// ErrInvalidDate is returned for calendar cells that are not dates.
	ErrInvalidDate = errors.New("invalid date")
)

// LoadError reports a failure while reading one reference tab.
type LoadError struct {
	Sheet string
	Row   int // 1-based, 0 when the whole sheet failed
	Err   error
}

func (e *LoadError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("refdata: sheet %q row %d: %v", e.Sheet, e.Row, e.Err)
	}
	return fmt.Sprintf("refdata: sheet %q: %v", e.Sheet, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func (e *LoadError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewLoadError creates a LoadError for a sheet.
func NewLoadError(sheet string, row int, err error) *LoadError {
	return &LoadError{Sheet: sheet, Row: row, Err: err}
}

// WrapLoadError wraps err unless it already is a LoadError.
func WrapLoadError(sheet string, err error) error {
	if err == nil {
		return nil
	}
	var le *LoadError
	if errors.As(err, &le) {
		return err
	}
	return NewLoadError(sheet, 0, err)
}
