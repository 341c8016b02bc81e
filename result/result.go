// Package result carries the outcome of one unit of pool work.
package result

import "github.com/abhissng/synapse/blame"

// Result is either a Success holding a value or a Failure holding a coded error.
type Result[T any] interface {
	IsSuccess() bool
	IsError() bool
	// Value returns the payload, which a Failure may still carry partially, and
	// the error if any.
	Value() (*T, blame.Blame)
	Error() blame.Blame
}

// Success is the outcome of a chunk whose items all mapped cleanly.
type Success[T any] struct {
	Val *T
}

// NewSuccess wraps value.
func NewSuccess[T any](value *T) Result[T] {
	return Success[T]{Val: value}
}

func (Success[T]) IsSuccess() bool { return true }

func (Success[T]) IsError() bool { return false }

func (s Success[T]) Value() (*T, blame.Blame) { return s.Val, nil }

// Error is always nil.
func (Success[T]) Error() blame.Blame { return nil }

// Failure is the outcome of a chunk that stopped at an error or a panic.
type Failure[T any] struct {
	Partial *T
	Err     blame.Blame
}

// NewFailure wraps err with no payload.
func NewFailure[T any](err blame.Blame) Result[T] {
	return Failure[T]{Err: err}
}

// NewPartialFailure keeps the items mapped before err.
func NewPartialFailure[T any](partial *T, err blame.Blame) Result[T] {
	return Failure[T]{Partial: partial, Err: err}
}

func (Failure[T]) IsSuccess() bool { return false }

func (Failure[T]) IsError() bool { return true }

func (f Failure[T]) Value() (*T, blame.Blame) { return f.Partial, f.Err }

func (f Failure[T]) Error() blame.Blame { return f.Err }

// From picks Success or Failure depending on err. A Failure keeps value for
// callers that want the partial payload; the worker pool does not, and drops a
// failing chunk as a whole.
func From[T any](value *T, err blame.Blame) Result[T] {
	if err != nil {
		return NewPartialFailure(value, err)
	}
	return NewSuccess(value)
}
