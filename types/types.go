// Package types contains the shared types for mxprobe.
// This package does not import anything from other mxprobe packages
// to avoid circular imports.
package types

import "fmt"

// Status is the three-way deliverability verdict.
type Status string

const (
	StatusValid        Status = "valid"
	StatusInvalid      Status = "invalid"
	StatusUndetermined Status = "undetermined"
)

// ErrorClass identifies which stage produced a non-Valid result.
type ErrorClass string

const (
	ClassNone             ErrorClass = ""
	ClassFormat           ErrorClass = "format"
	ClassDNSTransient     ErrorClass = "dns_transient"
	ClassDNSPermanent     ErrorClass = "dns_permanent"
	ClassSMTPPermanent    ErrorClass = "smtp_permanent"
	ClassExhaustedRetries ErrorClass = "exhausted_retries"
	ClassCancelled        ErrorClass = "cancelled"
)

// ParsedAddress is a syntactically valid address split into its parts.
// Domain is always lower-case ASCII (Punycode for IDNs).
type ParsedAddress struct {
	Local         string `json:"local"`
	Domain        string `json:"domain"`
	DomainUnicode string `json:"domainUnicode,omitempty"`
	Normalized    string `json:"normalized"`
}

// MXHost is one mail exchanger for a domain. Lower Priority is preferred.
type MXHost struct {
	Host     string `json:"host"`
	Priority uint16 `json:"priority"`
}

func (h MXHost) String() string {
	return fmt.Sprintf("%s (%d)", h.Host, h.Priority)
}

// OutcomeKind tags an Outcome.
type OutcomeKind int

const (
	OutcomeAccepted OutcomeKind = iota + 1
	OutcomeRejected
	OutcomeTransient
	OutcomePermanent
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	case OutcomeTransient:
		return "transient"
	case OutcomePermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Outcome is the result of a single probe attempt against one host.
// Code and Message are set when the server replied; Reason describes
// transport failures and other non-reply outcomes.
type Outcome struct {
	Kind    OutcomeKind
	Code    int
	Message string
	Reason  string
}

// ReasonUnrecognized prefixes the Reason of a Permanent outcome caused by
// a reply the probe does not know how to interpret.
const ReasonUnrecognized = "unrecognized reply"

// Definitive reports whether the outcome ends host iteration.
func (o Outcome) Definitive() bool {
	return o.Kind == OutcomeAccepted || o.Kind == OutcomeRejected
}

func Accepted(code int, msg string) Outcome {
	return Outcome{Kind: OutcomeAccepted, Code: code, Message: msg}
}

func Rejected(code int, msg string) Outcome {
	return Outcome{Kind: OutcomeRejected, Code: code, Message: msg}
}

func Transient(reason string) Outcome {
	return Outcome{Kind: OutcomeTransient, Reason: reason}
}

func Permanent(reason string) Outcome {
	return Outcome{Kind: OutcomePermanent, Reason: reason}
}

// VerificationResult is the single externally visible outcome for one
// input address. Address is the raw input exactly as submitted.
type VerificationResult struct {
	Address    string     `json:"address"`
	Status     Status     `json:"status"`
	Detail     string     `json:"detail"`
	Attempts   int        `json:"attempts"`
	Reason     string     `json:"reason,omitempty"`
	Class      ErrorClass `json:"class,omitempty"`
	MXHost     string     `json:"mxHost,omitempty"`
	SMTPCode   int        `json:"smtpCode,omitempty"`
	Disposable bool       `json:"disposable,omitempty"`
	Suggestion string     `json:"suggestion,omitempty"`
}

// Progress is emitted once per completed address during a batch.
// Index is the position of Result's address in the input slice.
type Progress struct {
	Completed int                `json:"completed"`
	Total     int                `json:"total"`
	Index     int                `json:"index"`
	Result    VerificationResult `json:"result"`
}
