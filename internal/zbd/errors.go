package zbd

import (
	"errors"
	"fmt"
)

// Code is the high-level error taxonomy every RAID core failure is tagged
// with (spec §7): Unsupported, IO, Corruption, NoSpace, InvalidArgument,
// plus AlreadyMapped for a rejected set_mapping.
type Code string

const (
	CodeUnsupported     Code = "unsupported"
	CodeIO               Code = "io"
	CodeCorruption       Code = "corruption"
	CodeNoSpace          Code = "no space"
	CodeInvalidArgument  Code = "invalid argument"
	CodeAlreadyMapped    Code = "already mapped"
)

// Error is a structured backend/RAID-core error: an operation name, a
// taxonomy code, a human message, and an optional wrapped cause.
type Error struct {
	Op    string
	Code  Code
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		return fmt.Sprintf("zbd: %s: %s (%s)", e.Op, msg, e.Code)
	}
	return fmt.Sprintf("zbd: %s (%s)", msg, e.Code)
}

func (e *Error) Unwrap() error { return e.Inner }

// Is lets errors.Is(err, zbd.ErrNoSpace) style sentinel comparisons work
// against the taxonomy code rather than pointer identity.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Code == te.Code
	}
	return false
}

func newErr(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewUnsupported builds a CodeUnsupported error for a reserved RAID mode or
// mode-inappropriate operation.
func NewUnsupported(op, msg string) *Error { return newErr(op, CodeUnsupported, msg) }

// NewInvalidArgument builds a CodeInvalidArgument error for a misaligned
// pos/size or out-of-range zone index.
func NewInvalidArgument(op, msg string) *Error { return newErr(op, CodeInvalidArgument, msg) }

// NewNoSpace builds a CodeNoSpace error for an allocator that could not find
// enough free physical slots.
func NewNoSpace(op, msg string) *Error { return newErr(op, CodeNoSpace, msg) }

// NewCorruption builds a CodeCorruption error for a mount-time compatibility
// mismatch or a mapping inconsistency discovered during restore.
func NewCorruption(op, msg string) *Error { return newErr(op, CodeCorruption, msg) }

// NewAlreadyMapped builds a CodeAlreadyMapped error for set_mapping when the
// (device, zone) pair already appears as a valid entry.
func NewAlreadyMapped(op, msg string) *Error { return newErr(op, CodeAlreadyMapped, msg) }

// WrapIO tags an error returned verbatim from a child backend as CodeIO,
// preserving it as the wrapped cause. Per spec §7, IO errors are propagated
// verbatim — this only attaches the taxonomy code for callers that switch
// on it, it does not alter the message.
func WrapIO(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Code: CodeIO, Msg: err.Error(), Inner: err}
}

// IsCode reports whether err (or any error it wraps) carries the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Sentinel errors for errors.Is comparisons against a bare code.
var (
	ErrUnsupported    = &Error{Code: CodeUnsupported}
	ErrNoSpace        = &Error{Code: CodeNoSpace}
	ErrCorruption     = &Error{Code: CodeCorruption}
	ErrInvalidArgument = &Error{Code: CodeInvalidArgument}
	ErrAlreadyMapped  = &Error{Code: CodeAlreadyMapped}
)
