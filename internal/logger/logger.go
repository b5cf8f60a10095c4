// Package logger holds the process-wide structured logger.
package logger

import "go.uber.org/zap"

// Log is a no-op logger until Initialize runs, so packages can log
// unconditionally.
var Log *zap.Logger = zap.NewNop()

// Initialize sets Log at the given level.
func Initialize(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	zl, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = zl
	return nil
}
