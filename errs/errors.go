// Package errs defines the error taxonomy shared by all covkit packages.
//
// Errors fall into three groups:
//
//   - Format errors: the byte stream does not match the drcov grammar.
//     Always fatal; wrapped in a FormatError carrying the offending line.
//   - Validation errors: the parsed document violates an invariant.
//     Fatal in strict mode, repaired with a recorded Repair in permissive
//     mode.
//   - I/O errors: propagated unchanged from the os/io layer, never wrapped.
//
// All sentinels are comparable with errors.Is through the structured
// wrapper types.
package errs

import (
	"errors"
	"fmt"
)

// Format sentinels. Parsing fails with one of these wrapped in a FormatError.
var (
	ErrUnsupportedVersion         = errors.New("unsupported drcov file version")
	ErrMissingHeader              = errors.New("missing or garbled drcov header line")
	ErrMissingModuleTable         = errors.New("missing module table declaration")
	ErrMissingColumns             = errors.New("missing module table columns line")
	ErrUnknownTableVersion        = errors.New("unknown module table version")
	ErrUnknownColumn              = errors.New("unknown module table column")
	ErrColumnMismatch             = errors.New("module row column count mismatch")
	ErrInvalidNumber              = errors.New("unparsable numeric field")
	ErrTruncatedModuleTable       = errors.New("truncated module table")
	ErrMissingBBTable             = errors.New("missing basic block table declaration")
	ErrTruncatedBBTable           = errors.New("truncated basic block table")
	ErrTruncatedHitCounts         = errors.New("truncated hit count table")
	ErrUnsupportedHitCountVersion = errors.New("unsupported hit count table version")
	ErrMalformedHitCountDecl      = errors.New("malformed hit count table declaration")
)

// Validation sentinels. Strict validation fails with one of these wrapped
// in a ValidationError; permissive validation repairs instead.
var (
	ErrDuplicateModuleID  = errors.New("duplicate module id")
	ErrUnknownBlockModule = errors.New("basic block references unknown module")
	ErrHitCountMismatch   = errors.New("hit count array length mismatch")
)

// Builder sentinels.
var (
	ErrInvalidModuleID = errors.New("coverage references a module that was not added")
	ErrHitCountLength  = errors.New("hit count array length must equal block count")
)

// ErrModuleMismatch is returned when a basic block is resolved against a
// module entry whose id does not match the block's module id.
var ErrModuleMismatch = errors.New("module does not own this basic block")

// FormatError reports a structural violation of the drcov grammar,
// identifying the offending line when one exists. Line is 1-based and
// zero when the failure is not tied to a specific line.
type FormatError struct {
	Err  error
	Text string
	Line int
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("drcov format error at line %d (%q): %v", e.Line, e.Text, e.Err)
	}

	return fmt.Sprintf("drcov format error: %v", e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// NewFormatError wraps a format sentinel with the offending line.
func NewFormatError(err error, line int, text string) *FormatError {
	return &FormatError{Err: err, Line: line, Text: text}
}

// ValidationError reports an invariant violation found during strict
// document validation.
type ValidationError struct {
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("drcov validation error: %v: %s", e.Err, e.Detail)
	}

	return fmt.Sprintf("drcov validation error: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps a validation sentinel with a human readable detail.
func NewValidationError(err error, detail string) *ValidationError {
	return &ValidationError{Err: err, Detail: detail}
}
