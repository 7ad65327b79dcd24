// Package apperr defines the typed error kinds surfaced by the core:
// validation failures, missing entities, and transaction failures.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an error for the caller (and, ultimately, the API layer).
type Kind string

const (
	// KindValidation marks malformed input; the caller can recover by
	// correcting the request. Never retried automatically.
	KindValidation Kind = "validation"
	// KindNotFound marks a reference to a contact, note, or template
	// version that does not exist.
	KindNotFound Kind = "not_found"
	// KindTransaction marks a persistence commit or rollback failure.
	KindTransaction Kind = "transaction"
)

// Transaction stages, recorded on KindTransaction errors.
const (
	StageCommit   = "commit"
	StageRollback = "rollback"
)

// Error is the structured error crossing the service boundary. Op and At
// are filled in by Wrap when the error leaves a service operation.
type Error struct {
	Kind  Kind
	Op    string    // operation name, e.g. "contact.record_interaction"
	At    time.Time // UTC instant the error was wrapped
	Msg   string
	Stage string // commit/rollback, transaction errors only
	Fatal bool   // rollback failure: stored state is indeterminate
	Err   error
}

func (e *Error) Error() string {
	var s string
	switch {
	case e.Op != "" && e.Msg != "":
		s = fmt.Sprintf("%s: %s", e.Op, e.Msg)
	case e.Op != "":
		s = e.Op
	default:
		s = e.Msg
	}
	if e.Err != nil {
		if s == "" {
			return e.Err.Error()
		}
		return s + ": " + e.Err.Error()
	}
	return s
}

// Unwrap exposes the cause chain for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Validation constructs a validation error with a formatted message.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound constructs a not-found error with a formatted message.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// CommitFailed marks a failed transaction commit. Data may be partially
// applied upstream; the caller must re-check state.
func CommitFailed(err error) *Error {
	return &Error{Kind: KindTransaction, Msg: "commit failed", Stage: StageCommit, Err: err}
}

// RollbackFailed marks a failed rollback. The stored state is now
// indeterminate, so the error is fatal and must be flagged for manual
// reconciliation.
func RollbackFailed(err error) *Error {
	return &Error{Kind: KindTransaction, Msg: "rollback failed", Stage: StageRollback, Fatal: true, Err: err}
}

// Wrap stamps err with the operation name and a UTC timestamp before it
// crosses the service boundary, preserving the cause chain. The wrapper
// carries the kind of the innermost *Error so callers can classify
// without unwrapping.
func Wrap(op string, at time.Time, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindOf(err), Op: op, At: at.UTC(), Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or
// KindTransaction for unclassified errors (anything reaching the caller
// without a kind came from the persistence layer).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransaction
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsTransaction reports whether err is a transaction error.
func IsTransaction(err error) bool { return KindOf(err) == KindTransaction }

// IsFatal reports whether err carries a fatal (rollback-failed) marker
// anywhere in its chain.
func IsFatal(err error) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Fatal {
			return true
		}
		err = e.Err
	}
	return false
}
