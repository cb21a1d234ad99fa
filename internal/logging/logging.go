// Package logging builds the zap loggers used by both binaries.
package logging

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultPath returns the default log file location for a binary.
func DefaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "cachebench", name+".log")
}

// New creates a JSON logger at the given level writing to path.
// An empty path or a file that cannot be opened falls back to stderr; stdout
// is left alone because it carries the report.
//
// The returned cleanup func closes the log file and must be called on exit.
func New(level, path string) (*zap.Logger, func(), error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return nil, nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	sink, closeSink := openSink(path)
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, zapLevel)
	logger := zap.New(core, zap.AddCaller())

	cleanup := func() {
		Flush(logger)
		closeSink()
	}
	return logger, cleanup, nil
}

func openSink(path string) (zapcore.WriteSyncer, func()) {
	stderr := zapcore.Lock(zapcore.AddSync(os.Stderr))
	if path == "" {
		return stderr, func() {}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return stderr, func() {}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return stderr, func() {}
	}
	return zapcore.Lock(f), func() { _ = f.Close() }
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Flush forces buffered entries out. Sync errors on non-file sinks are ignored.
func Flush(l *zap.Logger) {
	_ = l.Sync()
}
