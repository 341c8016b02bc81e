package blame

import (
	"github.com/abhissng/synapse/utils/constant"
	"github.com/abhissng/synapse/utils/types"
)

// Error Identifiers for the toolkit
const (
	ErrorConfigLoadFailure     types.ErrorCode = "error-config-load-failure"
	ErrorArgsValidationFailed  types.ErrorCode = "error-args-validation-failed"
	ErrorFileUnavailable       types.ErrorCode = "error-file-unavailable"
	ErrorMarshalFailed         types.ErrorCode = "error-marshal-failed"
	ErrorUnmarshalFailed       types.ErrorCode = "error-unmarshal-failed"
	ErrorCheckpointFailure     types.ErrorCode = "error-checkpoint-failure"
	ErrorWorkerException       types.ErrorCode = "error-worker-exception"
	ErrorDescriptionNotFound   types.ErrorCode = "error-description-not-found"
	ErrorDatasetIncompatible   types.ErrorCode = "error-dataset-incompatible"
	ErrorDatasetLoadFailure    types.ErrorCode = "error-dataset-load-failure"
	ErrorNoDeviceAvailable     types.ErrorCode = "error-no-device-available"
	ErrorPublishMessageFailed  types.ErrorCode = "error-publish-message-failed"
	ErrorBucketUploadFailure   types.ErrorCode = "error-bucket-upload-failure"
	ErrorUnknownAverageMethod  types.ErrorCode = "error-unknown-average-method"
	ErrorModelForwardFailed    types.ErrorCode = "error-model-forward-failed"
	ErrorAdapterInitialisation types.ErrorCode = "error-adapter-initialisation"
)

// definition is the static description attached to an error code.
type definition struct {
	message   string
	component types.ComponentErrorType
}

var definitions = map[types.ErrorCode]definition{
	ErrorConfigLoadFailure:     {"failed to load configuration {{.source}}", constant.ErrUtils},
	ErrorArgsValidationFailed:  {"invalid arguments: {{.field}}", constant.ErrEngine},
	ErrorFileUnavailable:       {"file unavailable: {{.path}}", constant.ErrUtils},
	ErrorMarshalFailed:         {"failed to marshal {{.type}}", constant.ErrUtils},
	ErrorUnmarshalFailed:       {"failed to unmarshal {{.type}}", constant.ErrUtils},
	ErrorCheckpointFailure:     {"checkpoint {{.op}} failed for {{.path}}", constant.ErrTrainer},
	ErrorWorkerException:       {"worker got exception in call {{.call}}: {{.exception}}", constant.ErrPool},
	ErrorDescriptionNotFound:   {"no description registered as {{.name}}", constant.ErrEngine},
	ErrorDatasetIncompatible:   {"dataset incompatible with configs: {{.reason}}", constant.ErrDataset},
	ErrorDatasetLoadFailure:    {"failed to load dataset from {{.path}}", constant.ErrDataset},
	ErrorNoDeviceAvailable:     {"No GPU device available", constant.ErrEngine},
	ErrorPublishMessageFailed:  {"failed to publish to {{.subject}}", constant.ErrAdaptors},
	ErrorBucketUploadFailure:   {"failed to upload {{.key}} to bucket {{.bucket}}", constant.ErrAdaptors},
	ErrorUnknownAverageMethod:  {"Unknown average method: {{.method}}", constant.ErrLibrary},
	ErrorModelForwardFailed:    {"model forward failed", constant.ErrModel},
	ErrorAdapterInitialisation: {"failed to initialise adapter {{.adapter}}", constant.ErrAdaptors},
}

// fetchBlameForError builds a Blame from the static definition of errorCode.
func fetchBlameForError(errorCode types.ErrorCode) *Error {
	def, ok := definitions[errorCode]
	if !ok {
		return NewBasicError(errorCode)
	}
	e := NewError(errorCode, def.message)
	e.component = def.component
	return e
}
