// Package nn provides loss modules over tensor.Tensor. Each loss computes its
// forward value and the gradient with respect to its first input.
package nn

import (
	"strings"

	"github.com/abhissng/synapse/blame"
	"github.com/abhissng/synapse/tensor"
)

// LossAverageMethod selects how an elementwise loss is reduced.
type LossAverageMethod string

const (
	// AverageNone keeps the elementwise loss.
	AverageNone LossAverageMethod = "none"
	// AverageAll divides the masked sum by the number of elements.
	AverageAll LossAverageMethod = "all"
	// AverageValid divides the masked sum by the mask sum.
	AverageValid LossAverageMethod = "valid"
)

// ParseLossAverageMethod parses a method name, case-insensitively.
func ParseLossAverageMethod(s string) (LossAverageMethod, error) {
	switch m := LossAverageMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case AverageNone, AverageAll, AverageValid:
		return m, nil
	default:
		return "", blame.UnknownAverageMethodError(s)
	}
}

// AverageLoss reduces loss by method. A nil mask means a plain mean.
func AverageLoss(method LossAverageMethod, loss, mask *tensor.Tensor) (*tensor.Tensor, error) {
	if method == AverageNone {
		return loss, nil
	}
	coef, err := averageCoefficients(method, loss.Shape(), mask)
	if err != nil {
		return nil, err
	}
	return tensor.Scalar(tensor.Mul(loss, coef).SumAll()), nil
}

// averageCoefficients returns c such that the averaged loss is sum(c * loss).
// It is also d(averaged)/d(loss).
func averageCoefficients(method LossAverageMethod, shape []int, mask *tensor.Tensor) (*tensor.Tensor, error) {
	n := float64(numel(shape))
	switch {
	case method == AverageNone:
		return tensor.Ones(shape...), nil
	case mask == nil:
		return tensor.Full(1/n, shape...), nil
	case method == AverageAll:
		return broadcastTo(mask, shape).Scale(1 / n), nil
	case method == AverageValid:
		return broadcastTo(mask, shape).Scale(1 / mask.SumAll()), nil
	default:
		return nil, blame.UnknownAverageMethodError(string(method))
	}
}

func broadcastTo(t *tensor.Tensor, shape []int) *tensor.Tensor {
	return tensor.Add(tensor.New(shape...), t)
}

// MaskedAverage returns sum(t * mask) / max(sum(mask), eps).
func MaskedAverage(t, mask *tensor.Tensor, eps float64) *tensor.Tensor {
	masked := tensor.Mul(t, mask).SumAll()
	return tensor.Scalar(masked / max(mask.SumAll(), eps))
}

// lossWeights returns the per-sample weights used by WeightedLoss,
// or nil when every sample counts equally.
func lossWeights(target *tensor.IntTensor, weight *tensor.Tensor, ignoreIndex *int) *tensor.Tensor {
	if weight == nil && ignoreIndex == nil {
		return nil
	}
	w := tensor.Ones(target.Shape()...)
	data := w.Data()
	for i, c := range target.Data() {
		if ignoreIndex != nil && c == *ignoreIndex {
			data[i] = 0
			continue
		}
		if weight != nil {
			data[i] = weight.Data()[c]
		}
	}
	return w
}

// WeightedLoss averages a per-sample loss, weighting each sample by
// weight[target] and dropping samples whose target equals ignoreIndex.
// With neither set it is the plain mean.
func WeightedLoss(loss *tensor.Tensor, target *tensor.IntTensor, weight *tensor.Tensor, ignoreIndex *int) *tensor.Tensor {
	w := lossWeights(target, weight, ignoreIndex)
	if w == nil {
		return tensor.Scalar(loss.MeanAll())
	}
	return MaskedAverage(loss, w, 1e-8)
}

// weightedLossGrad returns d(WeightedLoss)/d(loss).
func weightedLossGrad(shape []int, target *tensor.IntTensor, weight *tensor.Tensor, ignoreIndex *int) *tensor.Tensor {
	w := lossWeights(target, weight, ignoreIndex)
	if w == nil {
		return tensor.Full(1/float64(numel(shape)), shape...)
	}
	return w.Scale(1 / max(w.SumAll(), 1e-8))
}

func numel(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
