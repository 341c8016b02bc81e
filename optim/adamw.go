package optim

import (
	"math"

	"github.com/abhissng/synapse/tensor"
)

const adamWName = "adamw"

// AdamW is Adam with decoupled weight decay.
//
//	m = b1*m + (1-b1)*g
//	v = b2*v + (1-b2)*g^2
//	p -= lr*wd*p + lr * m_hat / (sqrt(v_hat) + eps)
type AdamW struct {
	params      []*tensor.Tensor
	lr          float64
	beta1       float64
	beta2       float64
	eps         float64
	weightDecay float64
	m, v        [][]float64
	step        int
}

// AdamWOption configures an AdamW optimizer.
type AdamWOption func(*AdamW)

// WithBetas sets the moment decay rates.
func WithBetas(beta1, beta2 float64) AdamWOption {
	return func(a *AdamW) {
		a.beta1, a.beta2 = beta1, beta2
	}
}

// WithEpsilon sets the denominator epsilon.
func WithEpsilon(eps float64) AdamWOption {
	return func(a *AdamW) {
		a.eps = eps
	}
}

// WithWeightDecay sets the decoupled weight decay.
func WithWeightDecay(wd float64) AdamWOption {
	return func(a *AdamW) {
		a.weightDecay = wd
	}
}

// NewAdamW returns an AdamW optimizer over the trainable subset of params.
func NewAdamW(params []*tensor.Tensor, lr float64, opts ...AdamWOption) *AdamW {
	a := &AdamW{
		params:      trainable(params),
		lr:          lr,
		beta1:       0.9,
		beta2:       0.999,
		eps:         1e-8,
		weightDecay: 1e-2,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.m = newBuffers(a.params)
	a.v = newBuffers(a.params)
	return a
}

// Step performs one AdamW update.
func (a *AdamW) Step() {
	a.step++
	bias1 := 1 - math.Pow(a.beta1, float64(a.step))
	bias2 := 1 - math.Pow(a.beta2, float64(a.step))

	for i, p := range a.params {
		data, grad, m, v := p.Data(), p.Grad(), a.m[i], a.v[i]
		for j := range data {
			g := grad[j]
			data[j] -= a.lr * a.weightDecay * data[j]
			m[j] = a.beta1*m[j] + (1-a.beta1)*g
			v[j] = a.beta2*v[j] + (1-a.beta2)*g*g
			data[j] -= a.lr * (m[j] / bias1) / (math.Sqrt(v[j]/bias2) + a.eps)
		}
	}
}

// ZeroGrad clears all gradients.
func (a *AdamW) ZeroGrad() { zeroGrad(a.params) }

// LearningRate returns the current learning rate.
func (a *AdamW) LearningRate() float64 { return a.lr }

// SetLearningRate changes the learning rate.
func (a *AdamW) SetLearningRate(lr float64) { a.lr = lr }

// StateDict snapshots the optimizer state.
func (a *AdamW) StateDict() State {
	st := State{Name: adamWName, LR: a.lr, Step: a.step, Buffers: map[string][]float64{}}
	saveBuffers(st.Buffers, "m", a.m)
	saveBuffers(st.Buffers, "v", a.v)
	return st
}

// LoadStateDict restores a snapshot taken by StateDict.
func (a *AdamW) LoadStateDict(state State) error {
	if err := checkName(state, adamWName); err != nil {
		return err
	}
	if err := loadBuffers(state.Buffers, bufferSet{"m", a.m}, bufferSet{"v", a.v}); err != nil {
		return err
	}
	a.lr, a.step = state.LR, state.Step
	return nil
}
