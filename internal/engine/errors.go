package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/offload/internal/ir"
)

// RuntimeError reports why a submission did not go through.
//
// Reparse, compile and declare failures have already rolled back the
// submission's uncommitted entries when they are returned. Incomplete and
// busy results leave the ledger untouched.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Tx is the submission's transaction, NoTx if it had none.
	Tx ir.TxID

	// Removed lists the entry ids erased by the rollback.
	Removed []uint64

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeReparseFailed indicates the hoist pass could not reparse the
	// buffer.
	ErrCodeReparseFailed RuntimeErrorCode = "REPARSE_FAILED"

	// ErrCodeCompileFailed indicates the device compiler exited non-zero or
	// could not be started.
	ErrCodeCompileFailed RuntimeErrorCode = "COMPILE_FAILED"

	// ErrCodeDeclareFailed indicates the host rejected the generated header.
	ErrCodeDeclareFailed RuntimeErrorCode = "DECLARE_FAILED"

	// ErrCodeBusy indicates a submission arrived while the device compiler
	// was running.
	ErrCodeBusy RuntimeErrorCode = "BUSY"

	// ErrCodeIncomplete indicates the input ended inside an open unit.
	// Not a failure: the accumulated lines wait for the next submission.
	ErrCodeIncomplete RuntimeErrorCode = "INCOMPLETE"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Tx != ir.NoTx {
		msg += fmt.Sprintf(" (tx=%s)", e.Tx)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the RuntimeError in err's chain, or "".
func CodeOf(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsReparseError reports whether err is a reparse failure.
func IsReparseError(err error) bool {
	return CodeOf(err) == ErrCodeReparseFailed
}

// IsCompileError reports whether err is a device compile failure.
func IsCompileError(err error) bool {
	return CodeOf(err) == ErrCodeCompileFailed
}

// IsDeclareError reports whether err is a header declare failure.
func IsDeclareError(err error) bool {
	return CodeOf(err) == ErrCodeDeclareFailed
}

// IsBusyError reports whether err rejected a re-entrant submission.
func IsBusyError(err error) bool {
	return CodeOf(err) == ErrCodeBusy
}

// IsIncomplete reports whether the submission is waiting for more lines.
func IsIncomplete(err error) bool {
	return CodeOf(err) == ErrCodeIncomplete
}

// NewReparseError wraps a hoist failure.
func NewReparseError(err error) *RuntimeError {
	return &RuntimeError{Code: ErrCodeReparseFailed, Message: "hoist pass could not reparse buffer", Err: err}
}

// NewCompileError wraps a device compiler failure.
func NewCompileError(err error) *RuntimeError {
	return &RuntimeError{Code: ErrCodeCompileFailed, Message: "device compiler failed", Err: err}
}

// NewDeclareError wraps a rejected header.
func NewDeclareError(err error) *RuntimeError {
	return &RuntimeError{Code: ErrCodeDeclareFailed, Message: "host rejected metadata header", Err: err}
}

// NewBusyError rejects a submission made while the compiler runs.
func NewBusyError() *RuntimeError {
	return &RuntimeError{Code: ErrCodeBusy, Message: "device compilation in progress"}
}

// NewIncompleteError reports input that ended inside an open unit.
func NewIncompleteError() *RuntimeError {
	return &RuntimeError{Code: ErrCodeIncomplete, Message: "input incomplete, awaiting more lines"}
}
