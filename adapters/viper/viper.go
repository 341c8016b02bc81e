// Package viper wires command line flags, environment variables and an optional
// config file into a single viper instance.
package viper

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/abhissng/synapse/utils/constant"
	"github.com/abhissng/synapse/utils/helpers"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Viper struct holds the viper instance used by one command.
type Viper struct {
	v          *viper.Viper
	configFile string
}

// Option configures a Viper.
type Option func(*Viper)

// WithConfigFile makes InitialiseViper read the given file (any format viper knows).
func WithConfigFile(path string) Option {
	return func(v *Viper) {
		v.configFile = path
	}
}

// NewViper creates a viper instance reading env variables prefixed with envPrefix.
// Dashes in keys map to underscores, so --batch-size reads SYNAPSE_BATCH_SIZE.
func NewViper(envPrefix string, opts ...Option) *Viper {
	v := viper.New()
	if envPrefix == "" {
		envPrefix = constant.EnvPrefix
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	out := &Viper{v: v}
	for _, opt := range opts {
		opt(out)
	}
	return out
}

// Instance exposes the underlying viper.
func (v *Viper) Instance() *viper.Viper {
	return v.v
}

// BindFlags binds every flag of fs so flag values take precedence over env and file.
func (v *Viper) BindFlags(fs *pflag.FlagSet) error {
	if err := v.v.BindPFlags(fs); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	return nil
}

// InitialiseViper reads the config file when one was configured.
func (v *Viper) InitialiseViper() error {
	if v.configFile == "" {
		return nil
	}
	v.v.SetConfigFile(v.configFile)
	if err := v.v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading configuration file: %w", err)
	}
	return v.LoadDynamicConfig()
}

// LoadDynamicConfig replaces {{.NAME}} placeholders in string settings with the
// value of the environment variable NAME.
func (v *Viper) LoadDynamicConfig() error {
	for _, key := range v.v.AllKeys() {
		if strValue, ok := v.v.Get(key).(string); ok && placeholder.MatchString(strValue) {
			v.v.Set(key, expandPlaceholders(strValue))
		}
	}
	return nil
}

var placeholder = regexp.MustCompile(`{{\s*\.[^}]+\s*}}`)

func expandPlaceholders(content string) string {
	return placeholder.ReplaceAllStringFunc(content, func(p string) string {
		key := strings.TrimSpace(p[3 : len(p)-2])
		value, ok := os.LookupEnv(key)
		if !ok {
			helpers.Println(constant.WARN, "Config placeholder ", key, " has no environment value")
		}
		return value
	})
}

// UnmarshalConfig unmarshals the entire configuration into the provided struct reference
// using its mapstructure tags.
//
// Example:
//
//	type Args struct {
//	    Epochs    int     `mapstructure:"epochs"`
//	    BatchSize int     `mapstructure:"batch-size"`
//	    LR        float64 `mapstructure:"lr"`
//	}
func UnmarshalConfig[T any](v *Viper, target *T) error {
	if target == nil {
		return fmt.Errorf("target struct cannot be nil")
	}

	if err := v.v.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to unmarshal viper config: %w", err)
	}

	return nil
}

// DecodeMap decodes a loosely typed map (e.g. parsed YAML) into target, matching
// mapstructure tags and converting scalars where needed.
func DecodeMap[T any](input map[string]any, target *T) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}
