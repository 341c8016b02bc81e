// Package types holds the small named types shared across packages so that
// adapters and the trainer do not import each other for them.
package types

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Field is a structured log field.
type Field = zap.Field

type (
	ErrorCode          string
	ComponentErrorType string
	// CodecType names a wire format of utils/codec.
	CodecType string
	// LogMode selects the colour of helpers.Println.
	LogMode string
	// EventName names a trainer lifecycle event such as "epoch:before".
	EventName string
	// Status is a dependency health value ("OK", "FAIL").
	Status string
)

func (e ErrorCode) String() string          { return string(e) }
func (c ComponentErrorType) String() string { return string(c) }
func (c CodecType) String() string          { return string(c) }
func (l LogMode) String() string            { return string(l) }
func (e EventName) String() string          { return string(e) }
func (s Status) String() string             { return string(s) }

// ToUpperCase is the codec name as shown in error messages.
func (c CodecType) ToUpperCase() string {
	return strings.ToUpper(string(c))
}

// RunID identifies a single training run.
type RunID uuid.UUID

func NewRunID() RunID { return RunID(uuid.New()) }

func (r RunID) String() string { return uuid.UUID(r).String() }

// CallID identifies one Map call on a worker pool; results are routed by it.
type CallID uuid.UUID

func NewCallID() CallID { return CallID(uuid.New()) }

func (c CallID) String() string { return uuid.UUID(c).String() }
