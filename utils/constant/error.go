package constant

import "github.com/abhissng/synapse/utils/types"

// These are ComponentErrorType constant
const (
	ErrLibrary  types.ComponentErrorType = "library"
	ErrUtils    types.ComponentErrorType = "utils"
	ErrAdaptors types.ComponentErrorType = "adaptors"
	ErrEngine   types.ComponentErrorType = "engine"
	ErrTrainer  types.ComponentErrorType = "trainer"
	ErrPool     types.ComponentErrorType = "workerpool"
	ErrDataset  types.ComponentErrorType = "dataset"
	ErrModel    types.ComponentErrorType = "model"
)
