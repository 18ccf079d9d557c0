// Package vgpu structured error types for better error handling
package vgpu

import (
	"fmt"
)

// Kind represents categories of errors the runtime reports to callers.
type Kind int

const (
	// ErrKindInvalidArgument covers shape mismatches, non-2D inputs,
	// negative dimensions, and strides smaller than the relevant extent.
	ErrKindInvalidArgument Kind = iota
	// ErrKindOutOfMemory is returned when every tier refused an allocation.
	ErrKindOutOfMemory
	// ErrKindUnknownHandle is returned by operations that do not treat an
	// unknown handle as a silent no-op.
	ErrKindUnknownHandle
	// ErrKindSpillFailed marks a failed inter-tier copy job.
	ErrKindSpillFailed
	// ErrKindProbeFailed marks an autotuner probe with implausible timing.
	ErrKindProbeFailed
	// ErrKindPersistenceFailed marks a failure to read or write the tuner
	// configuration file.
	ErrKindPersistenceFailed
)

// Error represents a structured error with context.
type Error struct {
	Kind    Kind
	Op      string      // Operation that failed
	Message string      // Human-readable message
	Err     error       // Underlying error if any
	Context interface{} // Additional context
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vgpu %s error in %s: %s (caused by: %v)",
			e.Kind.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("vgpu %s error in %s: %s",
		e.Kind.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// String returns the error kind as a string.
func (k Kind) String() string {
	switch k {
	case ErrKindInvalidArgument:
		return "InvalidArgument"
	case ErrKindOutOfMemory:
		return "OutOfMemory"
	case ErrKindUnknownHandle:
		return "UnknownHandle"
	case ErrKindSpillFailed:
		return "SpillFailed"
	case ErrKindProbeFailed:
		return "ProbeFailed"
	case ErrKindPersistenceFailed:
		return "PersistenceFailed"
	default:
		return "Unknown"
	}
}

// Common error constructors

// NewInvalidArgument creates an invalid argument error.
func NewInvalidArgument(op, message string) error {
	return &Error{Kind: ErrKindInvalidArgument, Op: op, Message: message}
}

// NewOutOfMemory creates an out-of-memory error.
func NewOutOfMemory(op, message string) error {
	return &Error{Kind: ErrKindOutOfMemory, Op: op, Message: message}
}

// NewUnknownHandle creates an unknown-handle error.
func NewUnknownHandle(op string, handle Handle) error {
	return &Error{Kind: ErrKindUnknownHandle, Op: op, Message: "handle not found", Context: handle}
}

// NewSpillFailed creates a spill-failed error.
func NewSpillFailed(op, message string, err error) error {
	return &Error{Kind: ErrKindSpillFailed, Op: op, Message: message, Err: err}
}

// NewProbeFailed creates a probe-failed error.
func NewProbeFailed(op, message string) error {
	return &Error{Kind: ErrKindProbeFailed, Op: op, Message: message}
}

// NewPersistenceFailed creates a persistence-failed error.
func NewPersistenceFailed(op, message string, err error) error {
	return &Error{Kind: ErrKindPersistenceFailed, Op: op, Message: message, Err: err}
}

// Common pre-defined errors

var (
	// ErrOutOfMemory indicates allocation failure across every tier.
	ErrOutOfMemory = NewOutOfMemory("Allocator.Allocate", "no tier could satisfy the request")

	// ErrInvalidSize indicates a non-positive size parameter.
	ErrInvalidSize = NewInvalidArgument("Allocator.Allocate", "size must be positive")
)

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	if e, ok := err.(*Error); ok {
		return e.Kind == kind
	}
	return false
}
