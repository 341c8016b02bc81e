package blame

import (
	"github.com/abhissng/synapse/utils/types"
)

// FetchOption customises a blame fetched from the definitions table.
type FetchOption func(*Error)

// WithCauses attaches causes to the fetched blame.
func WithCauses(causes ...error) FetchOption {
	return func(e *Error) {
		for _, c := range causes {
			e.WithCause(c)
		}
	}
}

// WithField attaches a single field to the fetched blame.
func WithField(key string, value any) FetchOption {
	return func(e *Error) {
		e.WithField(key, value)
	}
}

// WithFields attaches several fields to the fetched blame.
func WithFields(fields map[string]any) FetchOption {
	return func(e *Error) {
		e.WithFields(fields)
	}
}

// FetchBlameForError returns a blame built from the definition of errorCode.
func FetchBlameForError(errorCode types.ErrorCode, opts ...FetchOption) Blame {
	e := fetchBlameForError(errorCode)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

/*
** Constructors used across the toolkit
 */

// ConfigLoadError is an error when a configuration source cannot be read or decoded.
func ConfigLoadError(source string, cause error) Blame {
	return FetchBlameForError(ErrorConfigLoadFailure, WithField("source", source), WithCauses(cause))
}

// ArgsValidationError is an error when command line arguments fail validation.
func ArgsValidationError(field string, cause error) Blame {
	return FetchBlameForError(ErrorArgsValidationFailed, WithField("field", field), WithCauses(cause))
}

// FileNotFoundError is an error when the file is not found.
func FileNotFoundError(path string, cause error) Blame {
	return FetchBlameForError(ErrorFileUnavailable, WithField("path", path), WithCauses(cause))
}

// MarshalError is an error when marshaling fails.
func MarshalError(encodingType types.CodecType, cause error) Blame {
	return FetchBlameForError(ErrorMarshalFailed, WithField("type", encodingType.ToUpperCase()), WithCauses(cause))
}

// UnMarshalError is an error when unmarshaling fails.
func UnMarshalError(encodingType types.CodecType, cause error) Blame {
	return FetchBlameForError(ErrorUnmarshalFailed, WithField("type", encodingType.ToUpperCase()), WithCauses(cause))
}

// CheckpointError is an error when saving or loading a checkpoint fails.
func CheckpointError(op, path string, cause error) Blame {
	return FetchBlameForError(ErrorCheckpointFailure,
		WithFields(map[string]any{"op": op, "path": path}),
		WithCauses(cause),
	)
}

// WorkerError is an error raised by a pool worker while mapping a chunk.
func WorkerError(call types.CallID, exc string) Blame {
	return FetchBlameForError(ErrorWorkerException,
		WithFields(map[string]any{"call": call.String(), "exception": exc}),
	)
}

// DescriptionNotFoundError is an error when no description is registered under name.
func DescriptionNotFoundError(name string) Blame {
	return FetchBlameForError(ErrorDescriptionNotFound, WithField("name", name))
}

// DatasetIncompatibleError is an error when a dataset does not match the description configs.
func DatasetIncompatibleError(reason string) Blame {
	return FetchBlameForError(ErrorDatasetIncompatible, WithField("reason", reason))
}

// DatasetLoadError is an error when a dataset file cannot be read.
func DatasetLoadError(path string, cause error) Blame {
	return FetchBlameForError(ErrorDatasetLoadFailure, WithField("path", path), WithCauses(cause))
}

// NoDeviceAvailableError is an error when GPU training is requested without devices.
func NoDeviceAvailableError() Blame {
	return FetchBlameForError(ErrorNoDeviceAvailable)
}

// PublishMessageError is an error when publishing a message fails.
func PublishMessageError(subject string, cause error) Blame {
	return FetchBlameForError(ErrorPublishMessageFailed, WithField("subject", subject), WithCauses(cause))
}

// BucketUploadError is an error when the bucket upload fails.
func BucketUploadError(bucket, key string, cause error) Blame {
	return FetchBlameForError(ErrorBucketUploadFailure,
		WithFields(map[string]any{"bucket": bucket, "key": key}),
		WithCauses(cause),
	)
}

// UnknownAverageMethodError is an error when a loss average method name is not recognised.
func UnknownAverageMethodError(method string) Blame {
	return FetchBlameForError(ErrorUnknownAverageMethod, WithField("method", method))
}

// ModelForwardError is an error returned by a model forward/backward pass.
func ModelForwardError(cause error) Blame {
	return FetchBlameForError(ErrorModelForwardFailed, WithCauses(cause))
}

// AdapterInitialisationError is an error when an external adapter cannot be set up.
func AdapterInitialisationError(adapter string, cause error) Blame {
	return FetchBlameForError(ErrorAdapterInitialisation, WithField("adapter", adapter), WithCauses(cause))
}
