// Package desc loads description files and maps them onto registered
// description factories. A description builds the model (and optionally the
// optimizer) that the training driver runs.
package desc

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/adapters/validator"
	"github.com/abhissng/synapse/adapters/viper"
	"github.com/abhissng/synapse/blame"
	"github.com/abhissng/synapse/dataset"
	"github.com/abhissng/synapse/optim"
	"github.com/abhissng/synapse/train"
	"github.com/abhissng/synapse/utils/codec"
	"github.com/abhissng/synapse/utils/deprecated"
)

// TrainConfig holds optimisation settings.
type TrainConfig struct {
	WeightDecay float64 `mapstructure:"weight_decay" json:"weight_decay" validate:"gte=0"`
	GradClip    float64 `mapstructure:"grad_clip" json:"grad_clip,omitempty" validate:"gte=0"`
	LRDecay     float64 `mapstructure:"lr_decay" json:"lr_decay,omitempty" validate:"gte=0,lte=1"`
}

// DataConfig pins the dataset layout a description expects. Zero values are
// filled in from the dataset.
type DataConfig struct {
	NumFeatures int `mapstructure:"num_features" json:"num_features" validate:"gte=0"`
	NumClasses  int `mapstructure:"num_classes" json:"num_classes" validate:"gte=0"`
}

// Configs is the configuration block of a description file.
type Configs struct {
	Train TrainConfig    `mapstructure:"train" json:"train"`
	Data  DataConfig     `mapstructure:"data" json:"data"`
	Model map[string]any `mapstructure:"model" json:"model,omitempty"`
}

// ValidateDatasetCompatibility checks the dataset against Data and fills in
// the fields left at zero.
func (c *Configs) ValidateDatasetCompatibility(ds dataset.Dataset) error {
	if ds.Len() == 0 {
		return blame.DatasetIncompatibleError("dataset is empty")
	}
	shaped, ok := ds.(dataset.Shaped)
	if !ok {
		return nil
	}
	if c.Data.NumFeatures != 0 && c.Data.NumFeatures != shaped.NumFeatures() {
		return blame.DatasetIncompatibleError(fmt.Sprintf("description expects %d features, dataset has %d", c.Data.NumFeatures, shaped.NumFeatures()))
	}
	if c.Data.NumClasses != 0 && shaped.NumClasses() > c.Data.NumClasses {
		return blame.DatasetIncompatibleError(fmt.Sprintf("description expects %d classes, dataset has %d", c.Data.NumClasses, shaped.NumClasses()))
	}
	if c.Data.NumFeatures == 0 {
		c.Data.NumFeatures = shaped.NumFeatures()
	}
	if c.Data.NumClasses == 0 {
		c.Data.NumClasses = shaped.NumClasses()
	}
	return nil
}

// Args are the run settings a description may use when building its model.
type Args struct {
	Seed     int64
	UseGPU   bool
	Logger   *log.Log
	Notifier *deprecated.Notifier
}

// Description builds the pieces of a training run.
type Description interface {
	Configs() *Configs
	MakeModel(args Args) (train.Model, error)
}

// OptimizerMaker is implemented by descriptions that choose their own optimizer.
type OptimizerMaker interface {
	MakeOptimizer(model train.Model, lr float64) (optim.Optimizer, error)
}

// TrainerCustomizer is implemented by descriptions that hook into the trainer.
type TrainerCustomizer interface {
	CustomizeTrainer(env *train.TrainerEnv) error
}

// Factory creates a description from its decoded configs.
type Factory func(cfg *Configs) (Description, error)

// Registry maps description names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds factory under name, replacing any previous one.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	if !ok {
		return nil, blame.DescriptionNotFoundError(name)
	}
	return f, nil
}

// Names lists the registered names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

var defaultRegistry = NewRegistry()

// Register adds factory to the default registry. Description packages call it
// from init.
func Register(name string, factory Factory) {
	defaultRegistry.Register(name, factory)
}

// Default returns the default registry.
func Default() *Registry {
	return defaultRegistry
}

// File is a parsed description file.
type File struct {
	Name    string  `mapstructure:"name" json:"name" validate:"required"`
	Configs Configs `mapstructure:"configs" json:"configs"`
}

// Load parses and validates the description file at path.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, blame.FileNotFoundError(path, err)
	}
	doc, err := codec.Decode[map[string]any](raw, codec.YAML)
	if err != nil {
		return nil, blame.ConfigLoadError(path, err)
	}

	var f File
	if err := viper.DecodeMap(doc, &f); err != nil {
		return nil, blame.ConfigLoadError(path, err)
	}
	if err := validator.NewValidator().Validate(f); err != nil {
		return nil, blame.ConfigLoadError(path, err)
	}
	return &f, nil
}

// Build loads the file at path and creates its description from r.
func (r *Registry) Build(path string) (Description, *File, error) {
	f, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	factory, err := r.Lookup(f.Name)
	if err != nil {
		return nil, nil, err
	}
	d, err := factory(&f.Configs)
	if err != nil {
		return nil, nil, err
	}
	return d, f, nil
}
