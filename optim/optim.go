// Package optim updates trainable tensors from their accumulated gradients.
package optim

import (
	"fmt"

	"github.com/abhissng/synapse/tensor"
)

// Optimizer updates a fixed set of parameters.
type Optimizer interface {
	// Step applies one update from the current gradients.
	Step()
	// ZeroGrad clears the gradients of every parameter.
	ZeroGrad()
	LearningRate() float64
	SetLearningRate(lr float64)
	StateDict() State
	LoadStateDict(state State) error
}

// State is the serialisable state of an optimizer.
type State struct {
	Name    string               `json:"name"`
	LR      float64              `json:"lr"`
	Step    int                  `json:"step"`
	Buffers map[string][]float64 `json:"buffers,omitempty"`
}

// trainable filters params down to those that require gradients.
func trainable(params []*tensor.Tensor) []*tensor.Tensor {
	out := make([]*tensor.Tensor, 0, len(params))
	for _, p := range params {
		if p.RequiresGrad {
			p.Grad()
			out = append(out, p)
		}
	}
	return out
}

func zeroGrad(params []*tensor.Tensor) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

func bufferKey(name string, i int) string {
	return fmt.Sprintf("%s.%d", name, i)
}

func newBuffers(params []*tensor.Tensor) [][]float64 {
	out := make([][]float64, len(params))
	for i, p := range params {
		out[i] = make([]float64, p.Size())
	}
	return out
}

func saveBuffers(dst map[string][]float64, name string, bufs [][]float64) {
	for i, b := range bufs {
		dst[bufferKey(name, i)] = append([]float64(nil), b...)
	}
}

// bufferSet pairs a state key prefix with the live buffers it restores.
type bufferSet struct {
	name string
	bufs [][]float64
}

// loadBuffers validates every buffer in src before copying any, so a mismatched
// snapshot leaves the optimizer untouched.
func loadBuffers(src map[string][]float64, sets ...bufferSet) error {
	for _, set := range sets {
		for i, b := range set.bufs {
			key := bufferKey(set.name, i)
			if v, ok := src[key]; ok && len(v) != len(b) {
				return fmt.Errorf("optimizer buffer %s: size %d, want %d", key, len(v), len(b))
			}
		}
	}
	for _, set := range sets {
		for i, b := range set.bufs {
			if v, ok := src[bufferKey(set.name, i)]; ok {
				copy(b, v)
			}
		}
	}
	return nil
}

func checkName(state State, want string) error {
	if state.Name != want {
		return fmt.Errorf("optimizer state for %q cannot be loaded into %q", state.Name, want)
	}
	return nil
}
