package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/quotesync/internal/model"
)

// Error is a structured failure from a sync cycle or an override call.
//
// Errors are local to the cycle or call that produced them; nothing
// accumulates across cycles.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Key identifies the affected entity, when there is one.
	Key *model.Key

	// Index is the ledger position for override errors, -1 otherwise.
	Index int

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeFetchFailure: the remote collaborator produced no result.
	ErrCodeFetchFailure ErrorCode = "FETCH_FAILURE"

	// ErrCodeMalformedPayload: the remote payload failed structural validation.
	ErrCodeMalformedPayload ErrorCode = "MALFORMED_PAYLOAD"

	// ErrCodeNotFound: the ledger index is out of range.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeAlreadyResolved: the conflict was already overridden.
	ErrCodeAlreadyResolved ErrorCode = "ALREADY_RESOLVED"

	// ErrCodeEntityMissing: the conflicting entity is no longer in the local store.
	ErrCodeEntityMissing ErrorCode = "ENTITY_MISSING"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Key != nil {
		msg += fmt.Sprintf(" (key=%s)", e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrRemoteFailed is returned by Merge when handed an unsuccessful result.
var ErrRemoteFailed = errors.New("remote result is not successful")

func hasCode(err error, codes ...ErrorCode) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	for _, c := range codes {
		if e.Code == c {
			return true
		}
	}
	return false
}

// IsFetchFailure reports whether err is a fetch failure.
func IsFetchFailure(err error) bool { return hasCode(err, ErrCodeFetchFailure) }

// IsMalformed reports whether err is a malformed payload error.
func IsMalformed(err error) bool { return hasCode(err, ErrCodeMalformedPayload) }

// IsNotFound reports whether err means no overridable ledger entry exists at
// the index. An entry that was already overridden is not overridable, so
// ALREADY_RESOLVED matches as well.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound, ErrCodeAlreadyResolved)
}

// IsAlreadyResolved reports whether err is an already-resolved error.
func IsAlreadyResolved(err error) bool { return hasCode(err, ErrCodeAlreadyResolved) }

// IsEntityMissing reports whether err is an entity-missing error.
func IsEntityMissing(err error) bool { return hasCode(err, ErrCodeEntityMissing) }

// NewFetchError creates an Error for a failed fetch.
func NewFetchError(message string) *Error {
	return &Error{Code: ErrCodeFetchFailure, Message: message, Index: -1}
}

// NewMalformedError creates an Error for a payload that could not be read.
func NewMalformedError(message string, err error) *Error {
	return &Error{Code: ErrCodeMalformedPayload, Message: message, Index: -1, Err: err}
}

// NewNotFoundError creates an Error for an out-of-range ledger index.
func NewNotFoundError(index, size int) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("no conflict at index %d (ledger has %d)", index, size),
		Index:   index,
	}
}

// NewAlreadyResolvedError creates an Error for a second override.
func NewAlreadyResolvedError(index int, key model.Key) *Error {
	return &Error{
		Code:    ErrCodeAlreadyResolved,
		Message: fmt.Sprintf("conflict %d was already overridden", index),
		Key:     &key,
		Index:   index,
	}
}

// NewEntityMissingError creates an Error for an override whose entity is gone.
func NewEntityMissingError(index int, key model.Key) *Error {
	return &Error{
		Code:    ErrCodeEntityMissing,
		Message: fmt.Sprintf("conflict %d refers to an entity no longer in the local store", index),
		Key:     &key,
		Index:   index,
	}
}
