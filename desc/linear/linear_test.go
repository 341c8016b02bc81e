package linear

import (
	"testing"

	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/dataset"
	"github.com/abhissng/synapse/desc"
	"github.com/abhissng/synapse/optim"
	"github.com/abhissng/synapse/tensor"
	"github.com/abhissng/synapse/train"
	"github.com/abhissng/synapse/utils/constant"
	"github.com/abhissng/synapse/utils/deprecated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func batch() train.FeedDict {
	return train.FeedDict{
		dataset.KeyFeatures: tensor.FromSlice([]float64{
			1, 0.2,
			0.9, -0.1,
			-1, 0.3,
			-0.8, -0.2,
		}, 4, 2),
		dataset.KeyLabel: tensor.IntFromSlice([]int{0, 0, 1, 1}),
	}
}

func lossAt(t *testing.T, m *Model) float64 {
	t.Helper()
	m.Eval()
	defer m.Train()
	out, err := m.Forward(batch())
	require.NoError(t, err)
	return out.Loss
}

func TestGradientsMatchFiniteDifferences(t *testing.T) {
	for _, hidden := range []int{0, 3} {
		m := NewModel(2, hidden, 2, 0.5, 7)
		_, err := m.Forward(batch())
		require.NoError(t, err)

		const eps = 1e-6
		for name, p := range m.NamedParameters() {
			grad := append([]float64(nil), p.Grad()...)
			data := p.Data()
			for i := range data {
				orig := data[i]
				data[i] = orig + eps
				up := lossAt(t, m)
				data[i] = orig - eps
				down := lossAt(t, m)
				data[i] = orig
				assert.InDelta(t, (up-down)/(2*eps), grad[i], 1e-4, "hidden=%d %s[%d]", hidden, name, i)
			}
		}
	}
}

func TestTrainingReducesLoss(t *testing.T) {
	m := NewModel(2, 0, 2, 0.1, 1)
	env := train.NewTrainerEnv(m, optim.NewSGD(m.Parameters(), 0.5))

	first, _, _, _, err := env.Step(batch())
	require.NoError(t, err)
	var last float64
	var monitors map[string]float64
	for range 50 {
		last, monitors, _, _, err = env.Step(batch())
		require.NoError(t, err)
	}
	assert.Less(t, last, first)
	assert.InDelta(t, 1.0, monitors["acc"], 1e-12)
}

func TestMissingFeedKeys(t *testing.T) {
	m := NewModel(2, 0, 2, 0.1, 1)
	_, err := m.Forward(train.FeedDict{dataset.KeyFeatures: tensor.Zeros(1, 2)})
	assert.Error(t, err)
}

func TestDescriptionFromConfigs(t *testing.T) {
	cfg := &desc.Configs{
		Train: desc.TrainConfig{LRDecay: 0.5},
		Data:  desc.DataConfig{NumFeatures: 2, NumClasses: 2},
		Model: map[string]any{"hidden": "4"},
	}
	d, err := New(cfg)
	require.NoError(t, err)

	model, err := d.MakeModel(desc.Args{Seed: 3})
	require.NoError(t, err)
	assert.Len(t, model.NamedParameters(), 4)
	assert.Contains(t, model.(*Model).String(), "mlp")

	opt := optim.NewSGD(model.Parameters(), 0.1)
	env := train.NewTrainerEnv(model, opt)
	require.NoError(t, d.(desc.TrainerCustomizer).CustomizeTrainer(env))
	env.TriggerEvent(constant.EventEpochAfter, train.EventData{})
	assert.InDelta(t, 0.05, opt.LearningRate(), 1e-12)
}

func TestRegisteredByDefault(t *testing.T) {
	_, err := desc.Default().Lookup(Name)
	assert.NoError(t, err)
}

func TestMakeModelNeedsDataLayout(t *testing.T) {
	d, err := New(&desc.Configs{})
	require.NoError(t, err)
	_, err = d.MakeModel(desc.Args{})
	assert.Error(t, err)
}

func TestInitStdIsDeprecatedAlias(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	notifier, err := deprecated.NewNotifier(log.FromZap(zap.New(core)), 0)
	require.NoError(t, err)

	cfg := &desc.Configs{
		Data:  desc.DataConfig{NumFeatures: 2, NumClasses: 2},
		Model: map[string]any{"init_std": 0.0},
	}
	d, err := New(cfg)
	require.NoError(t, err)
	_, err = d.MakeModel(desc.Args{Notifier: notifier})
	require.NoError(t, err)
	assert.Empty(t, logs.All())

	cfg.Model = map[string]any{"init_std": 0.2}
	d, err = New(cfg)
	require.NoError(t, err)
	for range 2 {
		_, err = d.MakeModel(desc.Args{Notifier: notifier})
		require.NoError(t, err)
	}
	assert.Len(t, logs.All(), 1)
}
