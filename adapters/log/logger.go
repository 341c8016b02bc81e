package log

import (
	"errors"
	"io"
	"os"

	"github.com/abhissng/synapse/utils/helpers"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// consoleWriter hides the Sync of a terminal or pipe, which fails with EINVAL.
type consoleWriter struct{ io.Writer }

// Log wraps a zap logger and the log file it may own.
type Log struct {
	*zap.Logger
	closeLog func() error
}

// NewBasicLogger creates a stdout logger with the default configuration.
func NewBasicLogger(isProd bool) *Log {
	basicLogger, err := NewLogger(NewLoggerConfig(isProd))
	if err != nil {
		return NewNopLogger()
	}
	return basicLogger
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Log {
	return &Log{Logger: zap.NewNop()}
}

// FromZap wraps an existing zap logger.
func FromZap(l *zap.Logger) *Log {
	return &Log{Logger: l}
}

func newEncoderConfig(colour bool, tail int) zapcore.EncoderConfig {
	levelEncoder := zapcore.CapitalLevelEncoder
	if colour {
		levelEncoder = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "log",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		EncodeLevel:    levelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeCaller:   helpers.TailCallerEncoder(tail),
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// NewLogger creates a new Log instance from cfg. Stdout always receives logs; when
// cfg.OutputFile is set a plain-text copy is teed into that file.
func NewLogger(cfg *LoggerConfig) (*Log, error) {
	level := zapcore.DebugLevel
	if cfg.IsProd {
		level = zapcore.InfoLevel
	}
	if cfg.Level != "" {
		level = cfg.Level.zapLevel()
	}
	atomicLevel := zap.NewAtomicLevelAt(level)

	options := []zap.Option{
		zap.Fields(
			zap.String("environment", cfg.Environment),
			zap.String("service", cfg.ServiceName),
		),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
	}

	var encoder zapcore.Encoder
	if cfg.IsProd {
		encoder = zapcore.NewJSONEncoder(newEncoderConfig(false, cfg.CallerSegments))
	} else {
		encoder = zapcore.NewConsoleEncoder(newEncoderConfig(true, cfg.CallerSegments))
	}

	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.AddSync(consoleWriter{os.Stdout}), atomicLevel)}

	var closeFunc func() error
	if cfg.OutputFile != "" {
		fileWriter := getLumberjackLogger(cfg.OutputFile)
		fileEncoder := zapcore.NewConsoleEncoder(newEncoderConfig(false, cfg.CallerSegments))
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(fileWriter), atomicLevel))
		closeFunc = fileWriter.Close
	}

	l := zap.New(zapcore.NewTee(cores...), options...)
	return &Log{Logger: l, closeLog: closeFunc}, nil
}

// Debug logs a message at the DebugLevel.
func (l *Log) Debug(msg string, fields ...zap.Field) {
	l.Logger.Debug(msg, fields...)
}

// Info logs a message at the InfoLevel.
func (l *Log) Info(msg string, fields ...zap.Field) {
	l.Logger.Info(msg, fields...)
}

// Warn logs a message at the WarnLevel.
func (l *Log) Warn(msg string, fields ...zap.Field) {
	l.Logger.Warn(msg, fields...)
}

// Error logs a message at the ErrorLevel.
func (l *Log) Error(msg string, fields ...zap.Field) {
	l.Logger.Error(msg, fields...)
}

// Fatal logs a message at the FatalLevel and then exits the program.
func (l *Log) Fatal(msg string, fields ...zap.Field) {
	l.Logger.Fatal(msg, fields...)
}

// With creates a child Log with the specified fields. The child shares the
// parent's log file.
func (l *Log) With(fields ...zap.Field) *Log {
	return &Log{Logger: l.Logger.With(fields...), closeLog: l.closeLog}
}

// Sync flushes any buffered log entries and closes the output file if one is open.
func (l *Log) Sync() error {
	err := l.Logger.Sync()
	if l.closeLog != nil {
		err = errors.Join(err, l.closeLog())
	}
	return err
}

// getLumberjackLogger returns a rotating writer for path. Rotation only kicks in
// when log rotation is enabled in the environment.
func getLumberjackLogger(path string) *lumberjack.Logger {
	lj := &lumberjack.Logger{
		Filename: path,
		MaxSize:  1 << 20,
	}
	if helpers.GetIsLogRotationEnabled() {
		lj.MaxSize = 50
		lj.MaxBackups = 5
		lj.MaxAge = 30
		lj.Compress = true
	}
	return lj
}
