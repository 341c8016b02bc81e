package optim

import "github.com/abhissng/synapse/tensor"

const sgdName = "sgd"

// SGD is stochastic gradient descent with optional momentum and L2 weight decay.
type SGD struct {
	params      []*tensor.Tensor
	lr          float64
	momentum    float64
	weightDecay float64
	velocity    [][]float64
	step        int
}

// SGDOption configures an SGD optimizer.
type SGDOption func(*SGD)

// WithMomentum sets the momentum factor.
func WithMomentum(m float64) SGDOption {
	return func(s *SGD) {
		s.momentum = m
	}
}

// WithSGDWeightDecay adds wd * param to every gradient.
func WithSGDWeightDecay(wd float64) SGDOption {
	return func(s *SGD) {
		s.weightDecay = wd
	}
}

// NewSGD returns an SGD optimizer over the trainable subset of params.
func NewSGD(params []*tensor.Tensor, lr float64, opts ...SGDOption) *SGD {
	s := &SGD{params: trainable(params), lr: lr}
	for _, opt := range opts {
		opt(s)
	}
	s.velocity = newBuffers(s.params)
	return s
}

// Step updates: v = momentum*v + g; p -= lr*v.
func (s *SGD) Step() {
	s.step++
	for i, p := range s.params {
		data, grad, vel := p.Data(), p.Grad(), s.velocity[i]
		for j := range data {
			g := grad[j] + s.weightDecay*data[j]
			if s.momentum != 0 {
				vel[j] = s.momentum*vel[j] + g
				g = vel[j]
			}
			data[j] -= s.lr * g
		}
	}
}

// ZeroGrad clears all gradients.
func (s *SGD) ZeroGrad() { zeroGrad(s.params) }

// LearningRate returns the current learning rate.
func (s *SGD) LearningRate() float64 { return s.lr }

// SetLearningRate changes the learning rate.
func (s *SGD) SetLearningRate(lr float64) { s.lr = lr }

// StateDict snapshots the optimizer state.
func (s *SGD) StateDict() State {
	st := State{Name: sgdName, LR: s.lr, Step: s.step, Buffers: map[string][]float64{}}
	saveBuffers(st.Buffers, "velocity", s.velocity)
	return st
}

// LoadStateDict restores a snapshot taken by StateDict.
func (s *SGD) LoadStateDict(state State) error {
	if err := checkName(state, sgdName); err != nil {
		return err
	}
	if err := loadBuffers(state.Buffers, bufferSet{"velocity", s.velocity}); err != nil {
		return err
	}
	s.lr, s.step = state.LR, state.Step
	return nil
}
