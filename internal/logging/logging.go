// Package logging builds the process logger: slog call sites backed by a zap core.
package logging

import (
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New creates a logger for the given environment.
// prod uses JSON output, local/dev use console output.
// level (if non-empty) overrides the log level: debug, info, warn, error.
func New(env, level string) (*slog.Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod", "production", "staging":
		cfg = zap.NewProductionConfig()
	case "", "local", "dev":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, errors.Newf("unknown environment %q for logger", env)
	}

	if level != "" {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(level)); err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", level)
		}
		cfg.Level = zap.NewAtomicLevelAt(l)
	}

	z, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return slog.New(zapslog.NewHandler(z.Core())), nil
}

// Environment reports "prod" when running inside AWS and "local" otherwise.
func Environment() string {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		return "prod"
	}
	return "local"
}

// Setup builds a logger with New and installs it as the slog default.
// An empty env is resolved with Environment.
func Setup(env, level string) error {
	if env == "" {
		env = Environment()
	}
	logger, err := New(env, level)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
