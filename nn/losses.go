package nn

import (
	"fmt"
	"math"

	"github.com/abhissng/synapse/functional"
	"github.com/abhissng/synapse/tensor"
)

const probEps = 1e-8

// CrossEntropyLossWithProbs is the negative log-likelihood of target under
// probabilities laid out along Dim. The per-sample loss has the shape of target.
type CrossEntropyLossWithProbs struct {
	Dim     int
	Average LossAverageMethod
}

// NewCrossEntropyLossWithProbs returns the loss over the last dim with VALID averaging.
func NewCrossEntropyLossWithProbs() *CrossEntropyLossWithProbs {
	return &CrossEntropyLossWithProbs{Dim: -1, Average: AverageValid}
}

// Forward returns -average(log(probs + eps)[target]).
func (l *CrossEntropyLossWithProbs) Forward(probs *tensor.Tensor, target *tensor.IntTensor, mask *tensor.Tensor) (*tensor.Tensor, error) {
	logProb := functional.IndexOneHot(probs.AddScalar(probEps).Log(), l.Dim, target)
	loss, err := AverageLoss(l.Average, logProb, mask)
	if err != nil {
		return nil, err
	}
	return loss.Neg(), nil
}

// Backward returns the gradient of the summed Forward output w.r.t. probs.
func (l *CrossEntropyLossWithProbs) Backward(probs *tensor.Tensor, target *tensor.IntTensor, mask *tensor.Tensor) (*tensor.Tensor, error) {
	coef, err := averageCoefficients(l.Average, target.Shape(), mask)
	if err != nil {
		return nil, err
	}
	return l.backward(probs, target, coef), nil
}

func (l *CrossEntropyLossWithProbs) backward(probs *tensor.Tensor, target *tensor.IntTensor, coef *tensor.Tensor) *tensor.Tensor {
	picked := functional.IndexOneHot(probs, l.Dim, target).AddScalar(probEps)
	grad := tensor.New(probs.Shape()...)
	return functional.SetIndexOneHotTensor(grad, l.Dim, target, tensor.Div(coef, picked).Neg())
}

// CompatibleCrossEntropyLossWithProbs mirrors the class-weight and ignore-index
// semantics of a standard NLL loss on probabilities.
type CompatibleCrossEntropyLossWithProbs struct {
	Dim         int
	Weight      *tensor.Tensor
	IgnoreIndex *int
}

// Forward returns the weighted mean of the per-sample cross entropy.
func (l *CompatibleCrossEntropyLossWithProbs) Forward(probs *tensor.Tensor, target *tensor.IntTensor) (*tensor.Tensor, error) {
	base := CrossEntropyLossWithProbs{Dim: l.Dim, Average: AverageNone}
	loss, err := base.Forward(probs, target, nil)
	if err != nil {
		return nil, err
	}
	return WeightedLoss(loss, target, l.Weight, l.IgnoreIndex), nil
}

// Backward returns the gradient of Forward w.r.t. probs.
func (l *CompatibleCrossEntropyLossWithProbs) Backward(probs *tensor.Tensor, target *tensor.IntTensor) *tensor.Tensor {
	base := CrossEntropyLossWithProbs{Dim: l.Dim, Average: AverageNone}
	return base.backward(probs, target, weightedLossGrad(target.Shape(), target, l.Weight, l.IgnoreIndex))
}

// MSEProbabilityLoss is 0.5 * sum_c (probs - onehot(target))^2 per sample,
// averaged with WeightedLoss. probs has shape [N, C].
type MSEProbabilityLoss struct {
	Weight      *tensor.Tensor
	IgnoreIndex *int
}

func (l *MSEProbabilityLoss) diff(probs *tensor.Tensor, target *tensor.IntTensor) *tensor.Tensor {
	if probs.Dims() != 2 {
		panic(fmt.Sprintf("nn: mse probability loss needs [N, C] probs, got %v", probs.Shape()))
	}
	return tensor.Sub(probs, functional.OneHot(target, probs.Dim(1)))
}

// Forward returns the averaged loss.
func (l *MSEProbabilityLoss) Forward(probs *tensor.Tensor, target *tensor.IntTensor) *tensor.Tensor {
	d := l.diff(probs, target)
	loss := tensor.Mul(d, d).Sum(1, false).Scale(0.5)
	return WeightedLoss(loss, target, l.Weight, l.IgnoreIndex)
}

// Backward returns the gradient of Forward w.r.t. probs.
func (l *MSEProbabilityLoss) Backward(probs *tensor.Tensor, target *tensor.IntTensor) *tensor.Tensor {
	coef := weightedLossGrad(target.Shape(), target, l.Weight, l.IgnoreIndex)
	return tensor.Mul(l.diff(probs, target), coef.Unsqueeze(1))
}

// SmoothL1Loss is the Huber-style loss with transition at 1/sigma^2, summed
// over dim 1. A positive sidechain value marks a sample as valid.
type SmoothL1Loss struct {
	Sigma   float64
	Average LossAverageMethod
}

// NewSmoothL1Loss returns the loss with sigma 3 and VALID averaging.
func NewSmoothL1Loss() *SmoothL1Loss {
	return &SmoothL1Loss{Sigma: 3, Average: AverageValid}
}

func sidechainMask(sidechain *tensor.Tensor) *tensor.Tensor {
	if sidechain == nil {
		return nil
	}
	return sidechain.Apply(func(v float64) float64 {
		if v > 0 {
			return 1
		}
		return 0
	})
}

// Forward returns the averaged loss.
func (l *SmoothL1Loss) Forward(input, target, sidechain *tensor.Tensor) (*tensor.Tensor, error) {
	s2 := l.Sigma * l.Sigma
	elem := tensor.Sub(input, target).Apply(func(x float64) float64 {
		switch {
		case x >= 1/s2:
			return x - 0.5/s2
		case x <= -1/s2:
			return -x - 0.5/s2
		default:
			return 0.5 * x * x * s2
		}
	})
	return AverageLoss(l.Average, elem.Sum(1, false), sidechainMask(sidechain))
}

// Backward returns the gradient of the summed Forward output w.r.t. input.
func (l *SmoothL1Loss) Backward(input, target, sidechain *tensor.Tensor) (*tensor.Tensor, error) {
	s2 := l.Sigma * l.Sigma
	shape := input.Shape()
	reduced := append([]int{shape[0]}, shape[2:]...)
	coef, err := averageCoefficients(l.Average, reduced, sidechainMask(sidechain))
	if err != nil {
		return nil, err
	}
	elem := tensor.Sub(input, target).Apply(func(x float64) float64 {
		switch {
		case x >= 1/s2:
			return 1
		case x <= -1/s2:
			return -1
		default:
			return x * s2
		}
	})
	return tensor.Mul(elem, coef.Unsqueeze(1)), nil
}

// Accuracy returns the fraction of rows whose argmax along dim equals target.
func Accuracy(probs *tensor.Tensor, target *tensor.IntTensor, dim int) float64 {
	pred := probs.Argmax(dim, false).Data()
	if len(pred) == 0 {
		return math.NaN()
	}
	var hit int
	for i, c := range target.Data() {
		if pred[i] == c {
			hit++
		}
	}
	return float64(hit) / float64(len(pred))
}
