package commands

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger is built in the root command's PersistentPreRunE
var logger = zap.NewNop()

// newLogger builds a production logger at info level, or debug when verbose.
// With outputPaths set, logs go there instead of stderr.
func newLogger(verbose bool, outputPaths ...string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if len(outputPaths) > 0 {
		cfg.OutputPaths = outputPaths
		cfg.ErrorOutputPaths = outputPaths
	}
	return cfg.Build()
}

// interactiveLogger returns the logger for commands that draw on the
// terminal: quiet unless --verbose, so log lines never tear the output.
func interactiveLogger(verbose bool) *zap.Logger {
	if verbose {
		return logger
	}
	return zap.NewNop()
}
