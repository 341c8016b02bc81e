package log

import (
	"github.com/abhissng/synapse/blame"
	"github.com/abhissng/synapse/utils/helpers"
	"github.com/abhissng/synapse/utils/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel names a minimum severity.
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	FatalLevel LogLevel = "fatal"
)

// String returns a string field.
func String(key string, value string) types.Field {
	return zap.String(key, value)
}

// Int returns an int field.
func Int(key string, value int) types.Field {
	return zap.Int(key, value)
}

func Float(key string, value float64) types.Field {
	return zap.Float64(key, value)
}

// Strings keeps the slice as a JSON array rather than a reflected value.
func Strings(key string, values []string) types.Field {
	return zap.Strings(key, values)
}

func Ints(key string, values []int) types.Field {
	return zap.Ints(key, values)
}

// Any returns a field encoded by reflection.
func Any(key string, value any) types.Field {
	return zap.Any(key, value)
}

// Err returns the "error" field.
func Err(err error) types.Field {
	return zap.Error(err)
}

// causeList renders each cause as a string, so wrapped errors stay readable in JSON.
type causeList []error

func (a causeList) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, e := range a {
		if e == nil {
			enc.AppendString("<nil>")
		} else {
			enc.AppendString(e.Error())
		}
	}
	return nil
}

// Blame returns a field with the causes of b, or its message when it has none.
func Blame(b blame.Blame) zap.Field {
	cs := b.FetchCauses()
	switch len(cs) {
	case 0:
		return zap.String("blame", b.Error())
	case 1:
		return zap.Error(cs[0])
	default:
		return zap.Array("causes", causeList(cs))
	}
}

// zapLevel maps the level name onto zap's; unknown names log at info.
func (l LogLevel) zapLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(string(l))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// LoggerConfig configures NewLogger. Production mode logs JSON from Info up;
// otherwise a coloured console encoder logs from Debug up.
type LoggerConfig struct {
	IsProd      bool
	Level       LogLevel
	OutputFile  string
	ServiceName string
	Environment string
	// CallerSegments is the number of trailing path segments shown for the caller.
	CallerSegments int
}

// LoggerOption modifies a LoggerConfig.
type LoggerOption func(*LoggerConfig)

// NewLoggerConfig returns the default configuration with opts applied.
func NewLoggerConfig(isProd bool, opts ...LoggerOption) *LoggerConfig {
	cfg := &LoggerConfig{
		ServiceName:    helpers.GetServiceName(),
		Environment:    helpers.GetEnvironment(),
		IsProd:         isProd,
		CallerSegments: 3,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// WithOutputFile tees plain-text log entries into path.
func WithOutputFile(path string) LoggerOption {
	return func(c *LoggerConfig) {
		c.OutputFile = path
	}
}

// WithLevel forces the minimum log level.
func WithLevel(level LogLevel) LoggerOption {
	return func(c *LoggerConfig) {
		c.Level = level
	}
}

// WithServiceName sets the service field of every entry.
func WithServiceName(name string) LoggerOption {
	return func(c *LoggerConfig) {
		if name != "" {
			c.ServiceName = name
		}
	}
}
