package engine

import (
	"github.com/abhissng/synapse/adapters/validator"
	"github.com/abhissng/synapse/adapters/viper"
	"github.com/abhissng/synapse/utils/constant"
	"github.com/spf13/pflag"
)

// Args are the settings of one training run. Keys match the command line flags.
type Args struct {
	Desc          string  `mapstructure:"desc" json:"desc" validate:"required,file"`
	Epochs        int     `mapstructure:"epochs" json:"epochs" validate:"gte=1"`
	BatchSize     int     `mapstructure:"batch-size" json:"batch_size" validate:"gte=1"`
	LR            float64 `mapstructure:"lr" json:"lr" validate:"gt=0"`
	ItersPerEpoch int     `mapstructure:"iters-per-epoch" json:"iters_per_epoch" validate:"gte=0"`
	AccGrad       int     `mapstructure:"acc-grad" json:"acc_grad" validate:"gte=1"`

	Load         string `mapstructure:"load" json:"load,omitempty" validate:"omitempty,file"`
	Resume       string `mapstructure:"resume" json:"resume,omitempty" validate:"omitempty,file"`
	StartEpoch   int    `mapstructure:"start-epoch" json:"start_epoch" validate:"gte=0"`
	SaveInterval int    `mapstructure:"save-interval" json:"save_interval" validate:"gte=1"`

	DataDir     string `mapstructure:"data-dir" json:"data_dir" validate:"required,dir"`
	DataWorkers int    `mapstructure:"data-workers" json:"data_workers" validate:"gte=0"`

	UseGPU   bool `mapstructure:"use-gpu" json:"use_gpu"`
	UseTB    bool `mapstructure:"use-tb" json:"use_tb"`
	Embed    bool `mapstructure:"embed" json:"embed"`
	ForceGPU bool `mapstructure:"force-gpu" json:"force_gpu"`

	SeriesName string `mapstructure:"series-name" json:"series_name" validate:"required"`
	DumpRoot   string `mapstructure:"dump-root" json:"dump_root" validate:"required"`
	Seed       int64  `mapstructure:"seed" json:"seed"`

	CkptBucket   string `mapstructure:"ckpt-bucket" json:"ckpt_bucket,omitempty"`
	CkptRegion   string `mapstructure:"ckpt-region" json:"ckpt_region,omitempty"`
	CkptEndpoint string `mapstructure:"ckpt-endpoint" json:"ckpt_endpoint,omitempty" validate:"omitempty,url"`

	EventsURL     string `mapstructure:"events-url" json:"events_url,omitempty" validate:"omitempty,url"`
	EventsSubject string `mapstructure:"events-subject" json:"events_subject,omitempty"`
}

// RegisterFlags defines every Args flag with its default on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("desc", "", "description file (required)")

	fs.Int("epochs", 100, "number of total epochs to run")
	fs.Int("batch-size", 32, "batch size")
	fs.Float64("lr", 0.01, "initial learning rate")
	fs.Int("iters-per-epoch", 0, "number of iterations per epoch, 0 = one pass of the dataset")
	fs.Int("acc-grad", 1, "accumulated gradient steps")

	fs.String("load", "", "load the weights from a pretrained model")
	fs.String("resume", "", "path to latest checkpoint")
	fs.Int("start-epoch", 0, "manual epoch number")
	fs.Int("save-interval", 10, "model save interval in epochs")

	fs.String("data-dir", "", "data directory (required)")
	fs.Int("data-workers", 4, "the number of workers that prepare training batches")

	fs.Bool("use-gpu", false, "use GPU devices")
	fs.Bool("use-tb", true, "export meters as prometheus textfile snapshots")
	fs.Bool("embed", false, "pause for inspection after initialisation")
	fs.Bool("force-gpu", false, "assume one GPU when none is detected")

	fs.String("series-name", constant.DefaultSeriesName, "run series, the first level under the dump root")
	fs.String("dump-root", constant.DefaultDumpRoot, "root directory of run artefacts")
	fs.Int64("seed", 0, "random seed for initialisation and shuffling")

	fs.String("ckpt-bucket", "", "S3 bucket that receives a copy of every checkpoint")
	fs.String("ckpt-region", "", "region of the checkpoint bucket")
	fs.String("ckpt-endpoint", "", "custom S3 endpoint, e.g. a MinIO URL")

	fs.String("events-url", "", "NATS server that receives trainer events")
	fs.String("events-subject", "", "subject prefix of trainer events")
}

// ParseArgs decodes the bound flags, env and config of v into Args and validates them.
func ParseArgs(v *viper.Viper) (*Args, error) {
	var args Args
	if err := viper.UnmarshalConfig(v, &args); err != nil {
		return nil, err
	}
	if err := validator.NewValidator().Validate(args); err != nil {
		return nil, err
	}
	return &args, nil
}
