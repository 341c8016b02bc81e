package nn

import (
	"github.com/abhissng/synapse/functional"
	"github.com/abhissng/synapse/tensor"
)

// Softmax normalizes x along dim.
func Softmax(x *tensor.Tensor, dim int) *tensor.Tensor {
	return LogSoftmax(x, dim).Exp()
}

// LogSoftmax returns x - logsumexp(x) along dim.
func LogSoftmax(x *tensor.Tensor, dim int) *tensor.Tensor {
	return tensor.Sub(x, functional.LogSumExp(x, dim, true))
}

// SoftmaxBackward maps the gradient w.r.t. softmax outputs to the gradient w.r.t. its inputs.
func SoftmaxBackward(probs, gradProbs *tensor.Tensor, dim int) *tensor.Tensor {
	dot := tensor.Mul(probs, gradProbs).Sum(dim, true)
	return tensor.Mul(probs, tensor.Sub(gradProbs, dot))
}
