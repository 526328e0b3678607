package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar = zap.NewNop().Sugar()

// Init configures the global logger. level is one of debug/info/warn/error;
// if path is non-empty, log output is mirrored to that file in addition to
// stderr.
func Init(level string, path string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	if path != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, path)
	}

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	sugar = logger.Sugar()
	return nil
}

// Sync flushes buffered log entries. Call before process exit.
func Sync() {
	_ = sugar.Sync()
}

func Debug(format string, args ...interface{}) {
	sugar.Debugf(format, args...)
}

func Info(format string, args ...interface{}) {
	sugar.Infof(format, args...)
}

func Warn(format string, args ...interface{}) {
	sugar.Warnf(format, args...)
}

func Error(format string, args ...interface{}) {
	sugar.Errorf(format, args...)
}
