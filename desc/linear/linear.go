// Package linear registers the "linear-softmax" description: softmax
// regression, optionally with one ReLU hidden layer, trained with cross entropy
// on class probabilities.
package linear

import (
	"fmt"
	"math"

	"github.com/abhissng/synapse/adapters/viper"
	"github.com/abhissng/synapse/dataset"
	"github.com/abhissng/synapse/desc"
	"github.com/abhissng/synapse/nn"
	"github.com/abhissng/synapse/tensor"
	"github.com/abhissng/synapse/train"
	"github.com/abhissng/synapse/utils/constant"
	"github.com/abhissng/synapse/utils/random"
)

// Name is the registry name of this description.
const Name = "linear-softmax"

func init() {
	desc.Register(Name, New)
}

// ModelConfig is decoded from configs.model.
type ModelConfig struct {
	Hidden    int     `mapstructure:"hidden"`
	InitScale float64 `mapstructure:"init_scale"`
	// InitStd is the old name of InitScale.
	InitStd float64 `mapstructure:"init_std"`
}

// Description builds a Model from its configs.
type Description struct {
	configs *desc.Configs
	model   ModelConfig
}

// New decodes configs.model and returns the description.
func New(cfg *desc.Configs) (desc.Description, error) {
	mc := ModelConfig{InitScale: 0.1}
	if cfg.Model != nil {
		if err := viper.DecodeMap(cfg.Model, &mc); err != nil {
			return nil, err
		}
	}
	if mc.Hidden < 0 {
		return nil, fmt.Errorf("hidden must be non-negative, got %d", mc.Hidden)
	}
	return &Description{configs: cfg, model: mc}, nil
}

// Configs returns the description configs.
func (d *Description) Configs() *desc.Configs { return d.configs }

// MakeModel builds the network for the configured data layout.
func (d *Description) MakeModel(args desc.Args) (train.Model, error) {
	in, classes := d.configs.Data.NumFeatures, d.configs.Data.NumClasses
	if in <= 0 || classes <= 0 {
		return nil, fmt.Errorf("model needs num_features and num_classes, got %d and %d", in, classes)
	}
	scale := d.model.InitScale
	if d.model.InitStd != 0 {
		if args.Notifier != nil {
			args.Notifier.Notify(Name+".init_std", "model.init_std is deprecated, use model.init_scale")
		}
		scale = d.model.InitStd
	}
	return NewModel(in, d.model.Hidden, classes, scale, args.Seed), nil
}

// CustomizeTrainer decays the learning rate after every epoch when lr_decay is set.
func (d *Description) CustomizeTrainer(env *train.TrainerEnv) error {
	decay := d.configs.Train.LRDecay
	if decay <= 0 || decay == 1 {
		return nil
	}
	env.RegisterEvent(constant.EventEpochAfter, func(env *train.TrainerEnv, _ train.EventData) {
		env.DecayLearningRate(decay)
	})
	return nil
}

type layer struct {
	w, b *tensor.Tensor
}

func newLayer(in, out int, scale float64, seed int64) layer {
	rng := random.NewRand(seed)
	return layer{
		w: tensor.Param(tensor.RandN(rng, scale/math.Sqrt(float64(in)), in, out)),
		b: tensor.Param(tensor.Zeros(out)),
	}
}

func (l layer) forward(x *tensor.Tensor) *tensor.Tensor {
	return tensor.Add(tensor.MatMul(x, l.w), l.b)
}

// backward accumulates parameter gradients and returns dL/dx.
func (l layer) backward(x, gradOut *tensor.Tensor) *tensor.Tensor {
	l.w.AccumulateGrad(tensor.MatMul(x.Transpose(0, 1), gradOut))
	l.b.AccumulateGrad(gradOut.Sum(0, false))
	return tensor.MatMul(gradOut, l.w.Transpose(0, 1))
}

// Model is a softmax classifier over [B, k] features.
type Model struct {
	hidden   *layer
	out      layer
	loss     *nn.CrossEntropyLossWithProbs
	training bool
	devices  []int
}

// NewModel returns a model with hidden units in an optional ReLU layer (0 for none).
func NewModel(in, hidden, classes int, scale float64, seed int64) *Model {
	m := &Model{loss: nn.NewCrossEntropyLossWithProbs(), training: true}
	if hidden > 0 {
		h := newLayer(in, hidden, scale, seed)
		m.hidden = &h
		m.out = newLayer(hidden, classes, scale, seed+1)
	} else {
		m.out = newLayer(in, classes, scale, seed)
	}
	return m
}

// Parameters returns every trainable tensor.
func (m *Model) Parameters() []*tensor.Tensor {
	var ps []*tensor.Tensor
	for _, p := range m.NamedParameters() {
		ps = append(ps, p)
	}
	return ps
}

// NamedParameters returns the parameters keyed by state-dict name.
func (m *Model) NamedParameters() map[string]*tensor.Tensor {
	ps := map[string]*tensor.Tensor{"out.weight": m.out.w, "out.bias": m.out.b}
	if m.hidden != nil {
		ps["hidden.weight"] = m.hidden.w
		ps["hidden.bias"] = m.hidden.b
	}
	return ps
}

// Train switches to training mode.
func (m *Model) Train() { m.training = true }

// Eval switches to evaluation mode.
func (m *Model) Eval() { m.training = false }

// Training reports whether the model is in training mode.
func (m *Model) Training() bool { return m.training }

// Cuda records the requested devices; computation stays on the CPU.
func (m *Model) Cuda(devices []int) error {
	m.devices = append([]int(nil), devices...)
	return nil
}

func relu(v float64) float64 { return math.Max(v, 0) }

// Forward computes class probabilities and the loss, and in training mode
// accumulates the gradients of the loss into the parameters.
func (m *Model) Forward(feed train.FeedDict) (*train.StepOutput, error) {
	x, ok := train.Feed[*tensor.Tensor](feed, dataset.KeyFeatures)
	if !ok {
		return nil, fmt.Errorf("feed has no %q tensor", dataset.KeyFeatures)
	}
	y, ok := train.Feed[*tensor.IntTensor](feed, dataset.KeyLabel)
	if !ok {
		return nil, fmt.Errorf("feed has no %q index tensor", dataset.KeyLabel)
	}

	h := x
	if m.hidden != nil {
		h = m.hidden.forward(x).Apply(relu)
	}
	probs := nn.Softmax(m.out.forward(h), -1)
	loss, err := m.loss.Forward(probs, y, nil)
	if err != nil {
		return nil, err
	}

	if m.training {
		gradProbs, err := m.loss.Backward(probs, y, nil)
		if err != nil {
			return nil, err
		}
		gradLogits := nn.SoftmaxBackward(probs, gradProbs, -1)
		gradH := m.out.backward(h, gradLogits)
		if m.hidden != nil {
			mask := h.Apply(func(v float64) float64 {
				if v > 0 {
					return 1
				}
				return 0
			})
			m.hidden.backward(x, tensor.Mul(gradH, mask))
		}
	}

	return &train.StepOutput{
		Loss:     loss.Item(),
		Monitors: map[string]float64{"acc": nn.Accuracy(probs, y, -1)},
		Outputs:  map[string]any{"probs": probs},
	}, nil
}

var (
	_ train.Model            = (*Model)(nil)
	_ train.DeviceMover      = (*Model)(nil)
	_ desc.TrainerCustomizer = (*Description)(nil)
)

// String summarises the architecture for logs.
func (m *Model) String() string {
	if m.hidden == nil {
		return fmt.Sprintf("linear %v", m.out.w.Shape())
	}
	return fmt.Sprintf("mlp %v -> %v", m.hidden.w.Shape(), m.out.w.Shape())
}
