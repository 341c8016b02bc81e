package blame

import (
	"fmt"
	"maps"
	"runtime"
	"strings"

	"github.com/abhissng/synapse/utils/helpers"
	"github.com/abhissng/synapse/utils/types"
)

// Error is the concrete Blame. The message may reference fields as {{.key}}.
type Error struct {
	errCode   types.ErrorCode
	component types.ComponentErrorType
	message   string
	fields    map[string]any
	causes    []error
	source    string
}

// NewError records the caller as the error source.
func NewError(code types.ErrorCode, message string) *Error {
	return newError(code, message)
}

// NewBasicError is NewError without a message; Error() falls back to the code.
func NewBasicError(code types.ErrorCode) *Error {
	return newError(code, "")
}

func newError(code types.ErrorCode, message string) *Error {
	return &Error{errCode: code, message: message, fields: map[string]any{}, source: callerSource(3)}
}

func (e *Error) FetchErrCode() types.ErrorCode { return e.errCode }

func (e *Error) FetchFields() map[string]any { return e.fields }

func (e *Error) FetchSource() string { return e.source }

func (e *Error) FetchComponent() types.ComponentErrorType { return e.component }

func (e *Error) FetchCauses() []error { return e.causes }

// FetchMessage substitutes field values into the message template.
func (e *Error) FetchMessage() string {
	msg := e.message
	for k, v := range e.fields {
		msg = strings.ReplaceAll(msg, "{{."+k+"}}", fmt.Sprint(v))
	}
	return msg
}

func (e *Error) WithField(key string, value any) *Error {
	e.fields[key] = value
	return e
}

func (e *Error) WithFields(fields map[string]any) *Error {
	maps.Copy(e.fields, fields)
	return e
}

// WithCause appends err to the causes; nil is ignored.
func (e *Error) WithCause(err error) *Error {
	if err != nil {
		e.causes = append(e.causes, err)
	}
	return e
}

func (e *Error) WithComponent(component types.ComponentErrorType) *Error {
	e.component = component
	return e
}

// Unwrap lets errors.Is and errors.As see the causes.
func (e *Error) Unwrap() []error { return e.causes }

// Error renders "code: message (causes: a; b)", dropping empty parts.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.errCode.String())
	msg := e.FetchMessage()
	if msg != "" || len(e.causes) > 0 {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	if len(e.causes) > 0 {
		b.WriteString(" (causes: ")
		b.WriteString(strings.TrimSuffix(helpers.FetchErrorStack(e.causes), "; "))
		b.WriteString(")")
	}
	return b.String()
}

func callerSource(skip int) string {
	_, file, line, _ := runtime.Caller(skip)
	return fmt.Sprintf("%s:%d", strings.TrimPrefix(file, helpers.GetGoROOT()+"/src/"), line)
}
