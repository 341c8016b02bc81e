// Package helpers holds small process-level utilities shared by the adapters:
// environment lookups, coloured console output and path checks.
package helpers

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abhissng/synapse/utils/constant"
	"github.com/abhissng/synapse/utils/types"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// FetchErrorStack joins the non-nil error messages with "; ".
func FetchErrorStack(errs []error) string {
	var s strings.Builder
	for _, err := range errs {
		if err != nil {
			s.WriteString(err.Error())
			s.WriteString("; ")
		}
	}
	return s.String()
}

// IsProdEnvironment returns true if Environment is set to "prod" or "production"
func IsProdEnvironment() bool {
	switch GetEnvironment() {
	case "prod", "production":
		return true
	default:
		return false
	}
}

// GetServiceName returns the service name from the app config, falling back to "synapse".
func GetServiceName() string {
	if name := viper.GetString(constant.ServiceName); name != "" {
		return name
	}
	return constant.DefaultServiceName
}

// GetEnvironment returns the environment from the process env or the loaded config.
func GetEnvironment() string {
	for _, key := range []string{constant.Environment, constant.RunMode} {
		if env := os.Getenv(key); env != "" {
			return env
		}
	}
	return viper.GetString(constant.Environment)
}

// GetIsLogRotationEnabled reports whether LogRotationEnabled is set to a true value.
func GetIsLogRotationEnabled() bool {
	enabled, _ := strconv.ParseBool(os.Getenv(constant.LogRotationEnabled))
	return enabled
}

// GetGoROOT returns the Go root directory
func GetGoROOT() string {
	return os.Getenv("GOROOT")
}

// EnsurePath creates the directory (and parents) if needed and returns it unchanged.
func EnsurePath(path string) (string, error) {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return path, fmt.Errorf("ensure path %q: %w", path, err)
	}
	return path, nil
}

func colorFor(mode types.LogMode) string {
	switch mode {
	case constant.INFO:
		return constant.GreenColor
	case constant.WARN:
		return constant.YellowColor
	case constant.ERROR, constant.FATAL:
		return constant.RedColor
	case constant.DEBUG:
		return constant.BlueColor
	default:
		return constant.ResetColor
	}
}

// Println prints a timestamped, coloured line for code paths that run without a
// logger. FATAL exits the process with status 1.
func Println(mode types.LogMode, args ...any) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Println(colorFor(mode) + "[" + timestamp + "] [" + mode.String() + "] " + fmt.Sprint(args...) + constant.ResetColor)
	if mode == constant.FATAL {
		os.Exit(1)
	}
}

// TailCallerEncoder encodes the caller as the last n path segments plus the line.
func TailCallerEncoder(n int) zapcore.CallerEncoder {
	if n <= 0 {
		return zapcore.ShortCallerEncoder
	}
	return func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		path := strings.ReplaceAll(caller.File, "\\", "/")
		start := len(path)
		for range n {
			i := strings.LastIndexByte(path[:start], '/')
			if i < 0 {
				start = 0
				break
			}
			start = i
		}
		tail := strings.TrimPrefix(path[start:], "/")
		enc.AppendString(tail + ":" + strconv.Itoa(caller.Line))
	}
}
