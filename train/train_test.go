package train

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/adapters/prometheus"
	"github.com/abhissng/synapse/optim"
	"github.com/abhissng/synapse/tensor"
	"github.com/abhissng/synapse/utils/constant"
	"github.com/abhissng/synapse/utils/types"
)

// scalarModel minimises 0.5*(w - target)^2.
type scalarModel struct {
	w        *tensor.Tensor
	target   float64
	training bool
	fail     bool
}

func newScalarModel(target float64) *scalarModel {
	return &scalarModel{w: tensor.Param(tensor.Zeros(1)), target: target, training: true}
}

func (m *scalarModel) Parameters() []*tensor.Tensor { return []*tensor.Tensor{m.w} }

func (m *scalarModel) NamedParameters() map[string]*tensor.Tensor {
	return map[string]*tensor.Tensor{"w": m.w}
}

func (m *scalarModel) Train()         { m.training = true }
func (m *scalarModel) Eval()          { m.training = false }
func (m *scalarModel) Training() bool { return m.training }

func (m *scalarModel) Forward(FeedDict) (*StepOutput, error) {
	if m.fail {
		return nil, errors.New("boom")
	}
	d := m.w.Data()[0] - m.target
	if m.training {
		m.w.Grad()[0] += d
	}
	return &StepOutput{Loss: 0.5 * d * d, Monitors: map[string]float64{"w": m.w.Data()[0]}}, nil
}

type recordingSink struct {
	names []types.EventName
	err   error
}

func (s *recordingSink) PublishEvent(name types.EventName, _ any) error {
	s.names = append(s.names, name)
	return s.err
}

type recordingMirror struct {
	paths []string
}

func (m *recordingMirror) MirrorFile(_ context.Context, path string, _ map[string]string) (string, error) {
	m.paths = append(m.paths, path)
	return "ckpt/" + filepath.Base(path), nil
}

func TestStepReducesLoss(t *testing.T) {
	model := newScalarModel(3)
	env := NewTrainerEnv(model, optim.NewSGD(model.Parameters(), 0.5))

	first, _, _, extra, err := env.Step(nil)
	require.NoError(t, err)
	assert.Contains(t, extra, "time/forward")
	assert.Contains(t, extra, "time/optimize")

	var last float64
	for i := 0; i < 20; i++ {
		last, _, _, _, err = env.Step(nil)
		require.NoError(t, err)
	}
	assert.Less(t, last, first)
	assert.InDelta(t, 3.0, model.w.Data()[0], 1e-3)
}

func TestStepForwardError(t *testing.T) {
	model := newScalarModel(1)
	model.fail = true
	env := NewTrainerEnv(model, optim.NewSGD(model.Parameters(), 0.1))
	_, _, _, _, err := env.Step(nil)
	assert.Error(t, err)
}

func TestEventsRunInOrderAndReachSink(t *testing.T) {
	model := newScalarModel(1)
	sink := &recordingSink{err: errors.New("offline")}
	env := NewTrainerEnv(model, optim.NewSGD(model.Parameters(), 0.1), WithEventSink(sink))

	var order []string
	env.RegisterEvent(constant.EventEpochBefore, func(_ *TrainerEnv, data EventData) {
		order = append(order, "a")
		assert.Equal(t, 1, data["epoch"])
	})
	env.RegisterEvent(constant.EventEpochBefore, func(*TrainerEnv, EventData) { order = append(order, "b") })

	env.TriggerEvent(constant.EventEpochBefore, EventData{"epoch": 1})
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, []types.EventName{constant.EventEpochBefore}, sink.names, "sink errors do not stop delivery")

	_, _, _, _, err := env.Step(nil)
	require.NoError(t, err)
	assert.Contains(t, sink.names, constant.EventForwardAfter)
	assert.Contains(t, sink.names, constant.EventOptimizeAfter)
}

func TestCheckpointRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoints", "epoch_2.pth")

	model := newScalarModel(2)
	mirror := &recordingMirror{}
	env := NewTrainerEnv(model, optim.NewAdamW(model.Parameters(), 0.1), WithCheckpointMirror(mirror))
	for i := 0; i < 3; i++ {
		_, _, _, _, err := env.Step(nil)
		require.NoError(t, err)
	}
	require.NoError(t, env.SaveCheckpoint(context.Background(), path, &Extra{Epoch: 2, MetaFile: "meta/run.json"}))
	assert.Equal(t, []string{path}, mirror.paths)

	restored := newScalarModel(2)
	opt := optim.NewAdamW(restored.Parameters(), 0.5)
	env2 := NewTrainerEnv(restored, opt)
	extra, err := env2.LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, 2, extra.Epoch)
	assert.Equal(t, "meta/run.json", extra.MetaFile)
	assert.Equal(t, model.w.Data(), restored.w.Data())
	assert.Equal(t, 0.1, opt.LearningRate())
	assert.Equal(t, 3, opt.StateDict().Step)

	fresh := newScalarModel(0)
	assert.True(t, NewTrainerEnv(fresh, optim.NewSGD(fresh.Parameters(), 1)).LoadWeights(path))
	assert.Equal(t, model.w.Data(), fresh.w.Data())
}

func TestLoadCheckpointOptimizerMismatchIsSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.pth")
	model := newScalarModel(1)
	require.NoError(t, NewTrainerEnv(model, optim.NewAdamW(model.Parameters(), 0.1)).SaveCheckpoint(context.Background(), path, nil))

	other := newScalarModel(1)
	_, err := NewTrainerEnv(other, optim.NewSGD(other.Parameters(), 0.1)).LoadCheckpoint(path)
	assert.NoError(t, err)
}

func TestLoadWeightsMissingFile(t *testing.T) {
	model := newScalarModel(1)
	env := NewTrainerEnv(model, optim.NewSGD(model.Parameters(), 0.1), WithLogger(log.NewNopLogger()))
	assert.False(t, env.LoadWeights(filepath.Join(t.TempDir(), "nope.pth")))
	_, err := env.LoadCheckpoint(filepath.Join(t.TempDir(), "nope.pth"))
	assert.Error(t, err)
}

func TestLoadStateDictKeysAndShapes(t *testing.T) {
	model := newScalarModel(1)
	err := LoadStateDict(model, map[string]ParamState{
		"w":     {Shape: []int{1}, Data: []float64{4}},
		"extra": {Shape: []int{1}, Data: []float64{0}},
	}, log.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, 4.0, model.w.Data()[0])

	err = LoadStateDict(model, map[string]ParamState{"w": {Shape: []int{2}, Data: []float64{1, 2}}}, log.NewNopLogger())
	assert.Error(t, err)
}

func TestClipGradNorm(t *testing.T) {
	model := newScalarModel(0)
	model.w.Grad()[0] = -10
	norm := ClipGradNorm(model, 2)
	assert.Equal(t, 10.0, norm)
	assert.InDelta(t, -2.0, model.w.Grad()[0], 1e-12)
}

func TestEvaluateRestoresMode(t *testing.T) {
	model := newScalarModel(1)
	env := NewTrainerEnv(model, optim.NewSGD(model.Parameters(), 0.1))
	out, err := env.Evaluate(nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, out.Loss, 1e-12)
	assert.True(t, model.Training())
	assert.Equal(t, 0.0, model.w.Grad()[0], "eval does not accumulate gradients")
}

func TestStepObservesMetrics(t *testing.T) {
	model := newScalarModel(1)
	mc := prometheus.NewMetricsCollector()
	env := NewTrainerEnv(model, optim.NewSGD(model.Parameters(), 0.1), WithMetrics(mc))
	_, _, _, _, err := env.Step(nil)
	require.NoError(t, err)

	families, err := mc.Registry().Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "synapse_train_step_duration_seconds" {
			found = true
			assert.Equal(t, uint64(1), f.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
	assert.True(t, found)
}

func TestDecayLearningRate(t *testing.T) {
	model := newScalarModel(1)
	env := NewTrainerEnv(model, optim.NewSGD(model.Parameters(), 0.1))
	env.DecayLearningRate(0.5)
	assert.InDelta(t, 0.05, env.Optimizer().LearningRate(), 1e-12)
}
