// Package blame provides a coded error type that carries a component, fields and
// underlying causes alongside the usual error message.
package blame

import "github.com/abhissng/synapse/utils/types"

// Blame is a coded error. Callers switch on FetchErrCode and log FetchFields.
type Blame interface {
	error
	FetchErrCode() types.ErrorCode
	// FetchMessage returns the message with field placeholders resolved.
	FetchMessage() string
	FetchFields() map[string]any
	// FetchSource is the file:line where the error was built.
	FetchSource() string
	FetchComponent() types.ComponentErrorType
	FetchCauses() []error
	WithField(key string, value any) *Error
	WithCause(err error) *Error
	WithComponent(component types.ComponentErrorType) *Error
	Unwrap() []error
}

// NewBlame creates a Blame with a code and a message template.
func NewBlame(code types.ErrorCode, message string) Blame {
	return newError(code, message)
}

// NewBasicBlame creates a Blame carrying only a code.
func NewBasicBlame(code types.ErrorCode) Blame {
	return newError(code, "")
}
