package train

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/adapters/prometheus"
	"github.com/abhissng/synapse/blame"
	"github.com/abhissng/synapse/optim"
	"github.com/abhissng/synapse/utils/constant"
	"github.com/abhissng/synapse/utils/types"
)

// EventData carries the values attached to a trainer event.
type EventData map[string]any

// EventFunc is a callback registered for a trainer event.
type EventFunc func(env *TrainerEnv, data EventData)

// EventSink receives every triggered event, e.g. a message-bus publisher.
type EventSink interface {
	PublishEvent(name types.EventName, payload any) error
}

// CheckpointMirror copies a saved checkpoint to remote storage.
type CheckpointMirror interface {
	MirrorFile(ctx context.Context, localPath string, metadata map[string]string) (string, error)
}

// TrainerEnv owns a model and its optimizer and runs training steps.
type TrainerEnv struct {
	model     Model
	optimizer optim.Optimizer
	logger    *log.Log
	sink      EventSink
	mirror    CheckpointMirror
	metrics   *prometheus.MetricsCollector
	gradClip  float64

	mu     sync.RWMutex
	events map[types.EventName][]EventFunc
}

// Option configures a TrainerEnv.
type Option func(*TrainerEnv)

// WithLogger sets the logger.
func WithLogger(l *log.Log) Option {
	return func(e *TrainerEnv) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEventSink forwards every triggered event to sink.
func WithEventSink(sink EventSink) Option {
	return func(e *TrainerEnv) {
		e.sink = sink
	}
}

// WithCheckpointMirror uploads every saved checkpoint through mirror.
func WithCheckpointMirror(mirror CheckpointMirror) Option {
	return func(e *TrainerEnv) {
		e.mirror = mirror
	}
}

// WithMetrics records step durations.
func WithMetrics(mc *prometheus.MetricsCollector) Option {
	return func(e *TrainerEnv) {
		e.metrics = mc
	}
}

// WithGradClip clips the global gradient norm to maxNorm before each update.
func WithGradClip(maxNorm float64) Option {
	return func(e *TrainerEnv) {
		e.gradClip = maxNorm
	}
}

// NewTrainerEnv returns an environment for model and optimizer.
func NewTrainerEnv(model Model, optimizer optim.Optimizer, opts ...Option) *TrainerEnv {
	env := &TrainerEnv{
		model:     model,
		optimizer: optimizer,
		logger:    log.NewNopLogger(),
		events:    make(map[types.EventName][]EventFunc),
	}
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// Model returns the model.
func (e *TrainerEnv) Model() Model { return e.model }

// Optimizer returns the optimizer.
func (e *TrainerEnv) Optimizer() optim.Optimizer { return e.optimizer }

// SetOptimizer replaces the optimizer.
func (e *TrainerEnv) SetOptimizer(o optim.Optimizer) { e.optimizer = o }

// RegisterEvent appends fn to the callbacks of name.
func (e *TrainerEnv) RegisterEvent(name types.EventName, fn EventFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events[name] = append(e.events[name], fn)
}

// TriggerEvent runs the callbacks of name in registration order, then
// forwards the event to the sink. Sink failures are logged, not returned.
func (e *TrainerEnv) TriggerEvent(name types.EventName, data EventData) {
	e.mu.RLock()
	callbacks := append([]EventFunc(nil), e.events[name]...)
	e.mu.RUnlock()

	for _, fn := range callbacks {
		fn(e, data)
	}
	if e.sink != nil {
		if err := e.sink.PublishEvent(name, data); err != nil {
			e.logger.Warn(constant.EventPublishedFailed, log.String("event", name.String()), log.Err(err))
		}
	}
}

// Step runs one training step: zero grad, forward and backward, optional
// gradient clipping, optimizer update. extra holds the step timings.
func (e *TrainerEnv) Step(feed FeedDict) (loss float64, monitors map[string]float64, outputs map[string]any, extra map[string]float64, err error) {
	start := time.Now()
	e.optimizer.ZeroGrad()

	e.TriggerEvent(constant.EventForwardBefore, EventData{})
	out, err := e.model.Forward(feed)
	if err != nil {
		return 0, nil, nil, nil, blame.ModelForwardError(err)
	}
	forwardDone := time.Now()
	e.TriggerEvent(constant.EventForwardAfter, EventData{"loss": out.Loss})

	e.TriggerEvent(constant.EventOptimizeBefore, EventData{})
	if e.gradClip > 0 {
		ClipGradNorm(e.model, e.gradClip)
	}
	e.optimizer.Step()
	e.TriggerEvent(constant.EventOptimizeAfter, EventData{})

	end := time.Now()
	if e.metrics != nil {
		e.metrics.StepDuration().Observe(end.Sub(start).Seconds())
	}
	extra = map[string]float64{
		"time/forward":  forwardDone.Sub(start).Seconds(),
		"time/optimize": end.Sub(forwardDone).Seconds(),
	}
	return out.Loss, out.Monitors, out.Outputs, extra, nil
}

// Evaluate runs a forward pass in eval mode and restores the previous mode.
func (e *TrainerEnv) Evaluate(feed FeedDict) (*StepOutput, error) {
	wasTraining := e.model.Training()
	e.model.Eval()
	defer func() {
		if wasTraining {
			e.model.Train()
		}
	}()
	out, err := e.model.Forward(feed)
	if err != nil {
		return nil, blame.ModelForwardError(err)
	}
	return out, nil
}

// DecayLearningRate multiplies the learning rate by factor.
func (e *TrainerEnv) DecayLearningRate(factor float64) {
	e.optimizer.SetLearningRate(e.optimizer.LearningRate() * factor)
}

// ClipGradNorm scales all trainable gradients so that their joint L2 norm is at
// most maxNorm, and returns the norm before clipping.
func ClipGradNorm(m Model, maxNorm float64) float64 {
	var sq float64
	params := m.Parameters()
	for _, p := range params {
		if !p.RequiresGrad {
			continue
		}
		for _, g := range p.Grad() {
			sq += g * g
		}
	}
	norm := math.Sqrt(sq)
	if norm <= maxNorm || norm == 0 {
		return norm
	}
	scale := maxNorm / norm
	for _, p := range params {
		if !p.RequiresGrad {
			continue
		}
		grad := p.Grad()
		for i := range grad {
			grad[i] *= scale
		}
	}
	return norm
}

// SaveCheckpoint writes model weights, optimizer state and extra to path and,
// when a mirror is configured, uploads the file.
func (e *TrainerEnv) SaveCheckpoint(ctx context.Context, path string, extra *Extra) error {
	state := e.optimizer.StateDict()
	ckpt := &Checkpoint{Model: StateDict(e.model), Optimizer: &state, Extra: extra}
	if err := WriteCheckpoint(path, ckpt); err != nil {
		return err
	}
	e.logger.Info(constant.CheckpointSaved, log.String("path", path))

	if e.mirror != nil {
		key, err := e.mirror.MirrorFile(ctx, path, map[string]string{"kind": "checkpoint"})
		if err != nil {
			e.logger.Warn(constant.CheckpointMirror, log.String("path", path), log.Err(err))
			return nil
		}
		e.logger.Info(constant.CheckpointMirror, log.String("path", path), log.String("key", key))
	}
	return nil
}

// LoadCheckpoint restores the model and optimizer from path and returns the
// stored extra. An optimizer state that does not fit is logged and skipped.
func (e *TrainerEnv) LoadCheckpoint(path string) (*Extra, error) {
	ckpt, err := ReadCheckpoint(path)
	if err != nil {
		return nil, err
	}
	if err := LoadStateDict(e.model, ckpt.Model, e.logger); err != nil {
		return nil, blame.CheckpointError("load", path, err)
	}
	if ckpt.Optimizer != nil {
		if err := e.optimizer.LoadStateDict(*ckpt.Optimizer); err != nil {
			e.logger.Warn("Optimizer state loading failed", log.String("path", path), log.Err(err))
		}
	}
	e.logger.Info(constant.CheckpointLoaded, log.String("path", path))

	if ckpt.Extra == nil {
		return &Extra{}, nil
	}
	return ckpt.Extra, nil
}

// LoadWeights loads only the model weights from a checkpoint. It reports
// whether the weights were loaded; failures are logged.
func (e *TrainerEnv) LoadWeights(path string) bool {
	ckpt, err := ReadCheckpoint(path)
	if err != nil {
		e.logger.Error("No weights file found", log.String("path", path), log.Err(err))
		return false
	}
	if err := LoadStateDict(e.model, ckpt.Model, e.logger); err != nil {
		e.logger.Error("Weights loading failed", log.String("path", path), log.Err(err))
		return false
	}
	e.logger.Info(constant.WeightsLoaded, log.String("path", path))
	return true
}
