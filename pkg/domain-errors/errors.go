// Package domainerrors provides coded errors for domain logic. Services attach
// a stable code so transports can map failures to responses without string
// matching, and tests can assert on outcomes without coupling to messages.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of domain failure.
type Code string

const (
	// CodeNotFound means the referenced profile or plan does not exist.
	CodeNotFound Code = "not_found"
	// CodeAlreadyDisclosed means the record completed disclosure and the
	// transition cannot run again.
	CodeAlreadyDisclosed Code = "already_disclosed"
	// CodeAlreadyPending means a disclosure request is outstanding for the
	// record and a second request would orphan the first correlation entry.
	CodeAlreadyPending Code = "already_pending"
	// CodeUnknownRequest means a callback carried a request identifier that
	// was never registered or was already consumed.
	CodeUnknownRequest Code = "unknown_request"
	// CodeInvalidProof means the capability rejected the disclosure proof.
	CodeInvalidProof Code = "invalid_proof"
	// CodeArityMismatch means the callback cleartext count disagrees with the
	// record's field count.
	CodeArityMismatch Code = "arity_mismatch"

	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeInternal     Code = "internal"
)

// Error is a domain error with a stable code.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded domain error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded domain error that preserves the underlying cause for
// errors.Is / errors.As chains.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, or CodeInternal when err is not a domain
// error. Callers that need "no error" semantics should check err == nil first.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
