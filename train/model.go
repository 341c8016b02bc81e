// Package train sequences model forward/backward passes and optimizer updates,
// and owns checkpoint persistence for a training run.
package train

import "github.com/abhissng/synapse/tensor"

// FeedDict is one batch of named inputs.
type FeedDict map[string]any

// StepOutput is what a model returns for one batch.
type StepOutput struct {
	Loss     float64
	Monitors map[string]float64
	Outputs  map[string]any
}

// Model computes the loss of a batch and, in training mode, accumulates the
// gradients of that loss into its parameters.
type Model interface {
	Parameters() []*tensor.Tensor
	NamedParameters() map[string]*tensor.Tensor
	Train()
	Eval()
	Training() bool
	Forward(feed FeedDict) (*StepOutput, error)
}

// DeviceMover is implemented by models that can be placed on accelerators.
type DeviceMover interface {
	Cuda(devices []int) error
}

// Feed fetches a typed value from a feed dict.
func Feed[T any](feed FeedDict, key string) (T, bool) {
	v, ok := feed[key].(T)
	return v, ok
}
