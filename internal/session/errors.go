package session

import (
	"errors"
	"fmt"
	"strings"
)

// Text fragments the host shows when a session is no longer usable.
const (
	DisconnectSignature  = "The object invoked has disconnected from its clients."
	ControlMissingSignal = "The control could not be found by id."
	OpenInvoiceSignal    = "Error in function openInvoice"
)

var (
	// ErrDisconnected is returned once the host connection is gone.
	ErrDisconnected = errors.New(DisconnectSignature)

	// ErrFieldUnavailable is returned for fields that are not on screen.
	ErrFieldUnavailable = errors.New("field is not available")

	// ErrSessionLimit is returned when no secondary session can be opened.
	ErrSessionLimit = errors.New("secondary session limit reached")

	// ErrNoDocument is returned when an operation needs an open document.
	ErrNoDocument = errors.New("no document is open")
)

// GatewayError wraps a failed gateway call.
type GatewayError struct {
	Op    string
	Field Field
	Err   error
}

func (e *GatewayError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("session: %s %s: %v", e.Op, e.Field, e.Err)
	}
	return fmt.Sprintf("session: %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func (e *GatewayError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewGatewayError creates a GatewayError.
func NewGatewayError(op string, field Field, err error) *GatewayError {
	return &GatewayError{Op: op, Field: field, Err: err}
}

// WrapGatewayError wraps err unless it already is a GatewayError.
func WrapGatewayError(op string, field Field, err error) error {
	if err == nil {
		return nil
	}
	var ge *GatewayError
	if errors.As(err, &ge) {
		return err
	}
	return NewGatewayError(op, field, err)
}

// StatusError carries an error message the host put on the status bar.
type StatusError struct {
	Message Message
}

func (e *StatusError) Error() string {
	return e.Message.Text
}

// IsDisconnect reports whether err means the session is gone.
func IsDisconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDisconnected) {
		return true
	}
	return IsDisconnectText(err.Error())
}

// IsDisconnectText reports whether a reason text carries the disconnect
// signature.
func IsDisconnectText(s string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(DisconnectSignature))
}

// IsFaultText reports whether a reason text shows the session can no
// longer be trusted.
func IsFaultText(s string) bool {
	return IsDisconnectText(s) ||
		strings.Contains(s, ControlMissingSignal) ||
		strings.Contains(s, OpenInvoiceSignal)
}
