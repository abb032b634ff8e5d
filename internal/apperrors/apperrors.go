package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that must pick a response
// (handler status code, retry decision, reconciliation).
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuthorization
	KindPreconditionFailed
	KindNotFound
	KindLedgerUnavailable
	KindTransactionRejected
	KindConfirmationTimeout
	KindReconciliationRequired
	KindResultsNotYetAvailable
)

func (kind Kind) String() string {
	switch kind {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindPreconditionFailed:
		return "precondition failed"
	case KindNotFound:
		return "not found"
	case KindLedgerUnavailable:
		return "ledger unavailable"
	case KindTransactionRejected:
		return "transaction rejected"
	case KindConfirmationTimeout:
		return "confirmation timeout"
	case KindReconciliationRequired:
		return "reconciliation required"
	case KindResultsNotYetAvailable:
		return "results not yet available"
	}

	return "unknown"
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}

	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the classification of err, KindUnknown when err does
// not carry one.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}

	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Ambiguous reports whether the outcome of the failed operation is
// unknown on the ledger side. Such errors must never be treated as a
// plain failure and retried blindly, the write may have landed.
func Ambiguous(err error) bool {
	return KindOf(err) == KindConfirmationTimeout
}
