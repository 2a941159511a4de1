package models

import (
	"fmt"
	"time"
)

// DispositionKind tags the terminal outcome of one pipeline run.
type DispositionKind string

const (
	DispositionPosted   DispositionKind = "posted"
	DispositionRejected DispositionKind = "rejected"
	DispositionNotFound DispositionKind = "not_found"
)

// Disposition is the terminal output of processing one document.
type Disposition struct {
	Kind          DispositionKind `json:"kind"`
	PostingNumber string          `json:"posting_number,omitempty"`
	Reason        string          `json:"reason,omitempty"`

	// SessionLost is set when the run ended on a session fault and the
	// caller must reconnect before processing the next document.
	SessionLost bool `json:"session_lost,omitempty"`
}

func Posted(postingNumber string) Disposition {
	return Disposition{Kind: DispositionPosted, PostingNumber: postingNumber}
}

func Rejected(reason string) Disposition {
	return Disposition{Kind: DispositionRejected, Reason: reason}
}

func NotFound(reason string) Disposition {
	return Disposition{Kind: DispositionNotFound, Reason: reason}
}

func (d Disposition) String() string {
	switch d.Kind {
	case DispositionPosted:
		return fmt.Sprintf("Posted(%s)", d.PostingNumber)
	case DispositionNotFound:
		return fmt.Sprintf("NotFound(%s)", d.Reason)
	default:
		return fmt.Sprintf("Rejected(%s)", d.Reason)
	}
}

// DispositionRecord is a disposition as reported to the sinks.
type DispositionRecord struct {
	RunID       string      `json:"run_id"`
	DocNumber   string      `json:"doc_number"`
	CompanyCode string      `json:"company_code"`
	Disposition Disposition `json:"disposition"`
	ProcessedAt time.Time   `json:"processed_at"`
}
