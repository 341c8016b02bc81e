// Package engine drives a supervised training run: it prepares the run
// directories, log file and metainfo, builds the model, data loader, optimizer
// and trainer from a description file, and runs the epoch loop.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abhissng/synapse/adapters/log"
	appctx "github.com/abhissng/synapse/context"
	"github.com/abhissng/synapse/dataset"
	"github.com/abhissng/synapse/desc"
	"github.com/abhissng/synapse/optim"
	"github.com/abhissng/synapse/train"
	"github.com/abhissng/synapse/utils/constant"
	"github.com/abhissng/synapse/utils/helpers"
	"github.com/abhissng/synapse/utils/meter"
	"github.com/abhissng/synapse/utils/progress"
	"github.com/abhissng/synapse/utils/types"
)

// Meters is the meter group the epoch loop reports into.
type Meters interface {
	Reset()
	Update(updates map[string]float64, n int)
	Val() map[string]float64
	Values(kind meter.Kind) map[string]float64
	FormatSimple(caption string, kind meter.Kind, compressed bool) string
	Dump(path string, kind meter.Kind) error
}

// exportedMeters also publish their values after every step.
type exportedMeters interface {
	Meters
	SetStep(step int)
	Flush() error
}

// Engine runs one training run described by Args.
type Engine struct {
	args     *Args
	registry *desc.Registry
	gpuDir   string
	progress io.Writer
	stdin    io.Reader
	stdout   io.Writer
	logger   *log.Log
	sink     train.EventSink
	mirror   train.CheckpointMirror
	now      func() time.Time

	runID      types.RunID
	app        *appctx.AppContext
	paths      *Paths
	descName   string
	runName    string
	startedAt  time.Time
	desc       desc.Description
	file       *desc.File
	devices    []int
	model      train.Model
	loader     *dataset.DataLoader
	trainer    *train.TrainerEnv
	meters     Meters
	nrIters    int
	startEpoch int
	globalStep int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry looks descriptions up in r instead of the default registry.
func WithRegistry(r *desc.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithLogger uses logger instead of a logger writing to the run log file.
func WithLogger(logger *log.Log) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithGPUDir reads device entries from dir.
func WithGPUDir(dir string) Option {
	return func(e *Engine) {
		e.gpuDir = dir
	}
}

// WithProgressWriter draws the progress bar on w.
func WithProgressWriter(w io.Writer) Option {
	return func(e *Engine) {
		e.progress = w
	}
}

// WithEmbedIO sets the streams of the --embed pause.
func WithEmbedIO(in io.Reader, out io.Writer) Option {
	return func(e *Engine) {
		e.stdin, e.stdout = in, out
	}
}

// WithEventSink replaces the NATS publisher built from --events-url.
func WithEventSink(sink train.EventSink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithCheckpointMirror replaces the S3 mirror built from --ckpt-bucket.
func WithCheckpointMirror(mirror train.CheckpointMirror) Option {
	return func(e *Engine) {
		e.mirror = mirror
	}
}

// WithClock replaces time.Now when naming the run and stamping its metainfo.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New returns an engine for args.
func New(args *Args, opts ...Option) *Engine {
	e := &Engine{
		args:     args,
		registry: desc.Default(),
		gpuDir:   DefaultGPUDir,
		progress: os.Stderr,
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		now:      time.Now,
		runID:    types.NewRunID(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Paths returns the run paths once Prepare has run.
func (e *Engine) Paths() *Paths { return e.paths }

// Trainer returns the trainer once Prepare has run.
func (e *Engine) Trainer() *train.TrainerEnv { return e.trainer }

// StartEpoch returns the epoch the loop resumes after.
func (e *Engine) StartEpoch() int { return e.startEpoch }

// Run prepares the run, trains until the last epoch and releases resources.
func (e *Engine) Run(ctx context.Context) error {
	defer e.Close()
	if err := e.Prepare(ctx); err != nil {
		return err
	}
	return e.Loop(ctx)
}

// Prepare builds everything the epoch loop needs.
func (e *Engine) Prepare(ctx context.Context) error {
	args := e.args
	e.descName = EscapeDescName(args.Desc)
	e.startedAt = e.now()
	e.runName = RunName(e.startedAt)

	paths, err := BuildPaths(args.DumpRoot, args.SeriesName, e.descName, e.runName, args.UseTB)
	if err != nil {
		return err
	}
	e.paths = paths

	if e.logger == nil {
		logger, err := log.NewLogger(log.NewLoggerConfig(helpers.IsProdEnvironment(),
			log.WithOutputFile(paths.LogFile),
			log.WithServiceName(helpers.GetServiceName()),
		))
		if err != nil {
			return err
		}
		e.logger = logger
	}
	e.logger = e.logger.With(log.String("run_id", e.runID.String()))
	e.logger.Info("Writing logs to file", log.String("path", paths.LogFile))

	if err := e.buildAppContext(ctx); err != nil {
		return err
	}

	e.desc, e.file, err = e.registry.Build(args.Desc)
	if err != nil {
		return err
	}
	configs := e.desc.Configs()

	if args.UseGPU {
		e.devices, err = Devices(e.gpuDir, args.ForceGPU)
		if err != nil {
			e.logger.Error("No GPU device available", log.String("dir", e.gpuDir))
			return err
		}
	}

	e.logger.Info("Loading the dataset", log.String("dir", args.DataDir))
	ds, err := dataset.LoadCSVDataset(args.DataDir)
	if err != nil {
		return err
	}
	if err := configs.ValidateDatasetCompatibility(ds); err != nil {
		return err
	}

	e.logger.Info("Writing metainfo to file", log.String("path", paths.MetaFile))
	if err := e.writeMetainfo(configs); err != nil {
		return err
	}

	e.logger.Info("Building the model", log.String("desc", e.file.Name))
	if err := e.buildModel(); err != nil {
		return err
	}

	e.logger.Info("Building the data loader", log.Int("workers", args.DataWorkers))
	e.loader, err = dataset.NewDataLoader(ds,
		dataset.WithBatchSize(args.BatchSize),
		dataset.WithShuffle(true, args.Seed),
		dataset.WithDropLast(true),
		dataset.WithNumWorkers(args.DataWorkers),
		dataset.WithLoaderLogger(e.logger),
		dataset.WithLoaderMetrics(e.app.Metrics()),
	)
	if err != nil {
		return err
	}
	e.nrIters = args.ItersPerEpoch
	if e.nrIters == 0 {
		e.nrIters = e.loader.Len()
	}
	if e.nrIters == 0 {
		return fmt.Errorf("dataset has %d rows, fewer than one batch of %d", ds.Len(), args.BatchSize)
	}

	optimizer, err := e.buildOptimizer(configs)
	if err != nil {
		return err
	}

	e.trainer = train.NewTrainerEnv(e.model, optimizer, e.trainerOptions(configs)...)

	e.startEpoch = args.StartEpoch
	switch {
	case args.Resume != "":
		extra, err := e.trainer.LoadCheckpoint(args.Resume)
		if err != nil {
			e.logger.Error("Resume failed, starting from scratch", log.String("path", args.Resume), log.Err(err))
			break
		}
		e.startEpoch = extra.Epoch
		e.logger.Info("Resume from epoch", log.Int("epoch", e.startEpoch))
	case args.Load != "":
		if e.trainer.LoadWeights(args.Load) {
			e.logger.Info("Loaded weights from pretrained model", log.String("path", args.Load))
		}
	}

	if err := e.buildMeters(); err != nil {
		return err
	}
	e.logger.Info("Writing meter logs to file", log.String("path", paths.MeterFile))

	if args.Embed {
		if err := e.embed(); err != nil {
			return err
		}
	}

	if c, ok := e.desc.(desc.TrainerCustomizer); ok {
		if err := c.CustomizeTrainer(e.trainer); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) buildAppContext(ctx context.Context) error {
	opts := []appctx.AppContextOption{
		appctx.WithLogger(e.logger),
		appctx.WithRunID(e.runID),
	}
	if e.sink == nil {
		pub, err := NewEventPublisher(e.args, e.runID, e.logger)
		if err != nil {
			return err
		}
		if pub != nil {
			e.sink = pub
			opts = append(opts, appctx.WithNATSManager(pub))
		}
	}
	if e.mirror == nil {
		mirror, err := NewCheckpointMirror(ctx, e.args, e.descName)
		if err != nil {
			return err
		}
		if mirror != nil {
			e.mirror = mirror
		}
	}
	app, err := appctx.NewAppContext(opts...)
	if err != nil {
		return err
	}
	e.app = app
	return nil
}

func (e *Engine) writeMetainfo(configs *desc.Configs) error {
	data, err := DumpMetainfo(e.runID, e.startedAt, e.args, configs)
	if err != nil {
		return err
	}
	return os.WriteFile(e.paths.MetaFile, data, 0o640)
}

func (e *Engine) buildModel() error {
	model, err := e.desc.MakeModel(desc.Args{
		Seed:     e.args.Seed,
		UseGPU:   e.args.UseGPU,
		Logger:   e.logger,
		Notifier: e.app.Notifier(),
	})
	if err != nil {
		return err
	}
	if e.args.UseGPU {
		if mover, ok := model.(train.DeviceMover); ok {
			if err := mover.Cuda(e.devices); err != nil {
				return err
			}
			e.logger.Info("Model moved to devices", log.Ints("devices", e.devices))
		}
	}
	e.model = model
	return nil
}

func (e *Engine) buildOptimizer(configs *desc.Configs) (optim.Optimizer, error) {
	var optimizer optim.Optimizer
	if maker, ok := e.desc.(desc.OptimizerMaker); ok {
		e.logger.Info("Building customized optimizer")
		var err error
		if optimizer, err = maker.MakeOptimizer(e.model, e.args.LR); err != nil {
			return nil, err
		}
	} else {
		optimizer = optim.NewAdamW(e.model.Parameters(), e.args.LR, optim.WithWeightDecay(configs.Train.WeightDecay))
		e.logger.Info("Building AdamW optimizer", log.Float("lr", e.args.LR), log.Float("weight_decay", configs.Train.WeightDecay))
	}

	if e.args.AccGrad > 1 {
		optimizer = optim.NewAccumGrad(optimizer, e.model.Parameters(), e.args.AccGrad)
		e.logger.Warn("Use accumulated grad",
			log.Int("acc_grad", e.args.AccGrad),
			log.Int("effective_iters_per_epoch", e.nrIters/e.args.AccGrad),
		)
	}
	return optimizer, nil
}

func (e *Engine) trainerOptions(configs *desc.Configs) []train.Option {
	opts := []train.Option{
		train.WithLogger(e.logger),
		train.WithMetrics(e.app.Metrics()),
	}
	if configs.Train.GradClip > 0 {
		opts = append(opts, train.WithGradClip(configs.Train.GradClip))
	}
	if e.sink != nil {
		opts = append(opts, train.WithEventSink(e.sink))
	}
	if e.mirror != nil {
		opts = append(opts, train.WithCheckpointMirror(e.mirror))
	}
	return opts
}

func (e *Engine) buildMeters() error {
	if !e.args.UseTB {
		e.meters = meter.NewGroupMeters()
		return nil
	}
	m, err := meter.NewMetricsGroupMeters(e.app.Metrics(), e.paths.TBDir)
	if err != nil {
		return err
	}
	e.meters = m
	e.logger.Info("Writing metric snapshots to", log.String("path", m.SnapshotPath()))
	return nil
}

// Loop runs epochs StartEpoch+1 through Args.Epochs.
func (e *Engine) Loop(ctx context.Context) error {
	for epoch := e.startEpoch + 1; epoch <= e.args.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.meters.Reset()
		e.model.Train()
		if err := e.trainEpoch(ctx, epoch); err != nil {
			return err
		}

		if err := e.meters.Dump(e.paths.MeterFile, meter.KindAvg); err != nil {
			return err
		}
		e.logger.Info(e.meters.FormatSimple(fmt.Sprintf("Epoch = %d", epoch), meter.KindAvg, false))

		if epoch%e.args.SaveInterval == 0 {
			extra := &train.Extra{Epoch: epoch, MetaFile: e.paths.MetaFile}
			if err := e.trainer.SaveCheckpoint(ctx, checkpointPath(e.paths.CkptDir, epoch), extra); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) trainEpoch(ctx context.Context, epoch int) error {
	meter.Observe(e.meters, "epoch", epoch)
	e.trainer.TriggerEvent(constant.EventEpochBefore, train.EventData{"epoch": epoch})

	it := e.loader.Iter()
	if e.nrIters > e.loader.Len() {
		it.Cycle()
	}
	bar := progress.New(e.nrIters, progress.WithWriter(e.progress), progress.WithDescription(fmt.Sprintf("Epoch %d", epoch)))
	defer bar.Close()

	end := time.Now()
	for i := range e.nrIters {
		if err := ctx.Err(); err != nil {
			return err
		}
		feed, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		dataTime := time.Since(end).Seconds()
		end = time.Now()

		data := train.EventData{"epoch": epoch, "iter": i + 1}
		e.trainer.TriggerEvent(constant.EventStepBefore, data)
		loss, monitors, _, _, err := e.trainer.Step(feed)
		if err != nil {
			return err
		}
		stepTime := time.Since(end).Seconds()
		e.globalStep++
		e.trainer.TriggerEvent(constant.EventStepAfter, train.EventData{"epoch": epoch, "iter": i + 1, "loss": loss})

		e.meters.Update(map[string]float64{"loss": loss}, 1)
		e.meters.Update(monitors, 1)
		e.meters.Update(map[string]float64{"time/data": dataTime, "time/step": stepTime}, 1)
		if exp, ok := e.meters.(exportedMeters); ok {
			exp.SetStep(e.globalStep)
			if err := exp.Flush(); err != nil {
				e.logger.Warn("Meter flush failed", log.Err(err))
			}
		}

		bar.SetDescription(meter.Format(fmt.Sprintf("Epoch %d", epoch), progressValues(e.meters.Val()), "%s=%4f", " "))
		bar.Update(1)
		end = time.Now()
	}

	e.trainer.TriggerEvent(constant.EventEpochAfter, train.EventData{"epoch": epoch})
	return nil
}

// progressValues keeps the loss and timing meters shown on the progress bar.
func progressValues(values map[string]float64) map[string]float64 {
	out := make(map[string]float64)
	for k, v := range values {
		if strings.HasPrefix(k, "loss") || strings.HasPrefix(k, "time") {
			out[k] = v
		}
	}
	return out
}

// Close stops the data loader workers and shuts the app context down.
func (e *Engine) Close() {
	if e.loader != nil {
		e.loader.Close()
		e.loader = nil
	}
	if e.app != nil {
		ctx, cancel := context.WithTimeout(context.Background(), constant.ServiceDefaultGracefulTime)
		defer cancel()
		if err := e.app.Shutdown(ctx); err != nil {
			e.logger.Warn("Shutdown failed", log.Err(err))
		}
		e.app = nil
	}
}
