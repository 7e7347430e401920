package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
)

// NewMultiCore creates a zapcore.Core that tees output to the console and a
// rotating log file.
//
// The file output always uses JSON encoding. The console uses the colored
// console encoder in development and JSON otherwise.
func NewMultiCore(level zapcore.Level, filePath string, isDev bool, opts Options) (zapcore.Core, error) {
	console := opts.Console
	if console == nil {
		console = stdoutSyncer()
	}

	if filePath == "" {
		return newConsoleCore(level, console, isDev), nil
	}

	// lumberjack creates the file lazily; fail fast on an unusable directory.
	dir := filepath.Dir(filePath)
	if info, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("log directory %s: %w", dir, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("log directory %s is not a directory", dir)
	}

	fileWriter := NewFileWriterWithConfig(filePath, opts.File)
	return NewMultiCoreWithWriters(level, console, fileWriter, isDev), nil
}

// NewMultiCoreWithWriters creates a zapcore.Core that tees output to the
// provided writers. Useful for tests.
//
// Example:
//
//	var buf bytes.Buffer
//	core := NewMultiCoreWithWriters(zapcore.DebugLevel, os.Stdout, zapcore.AddSync(&buf), true)
func NewMultiCoreWithWriters(level zapcore.Level, consoleWriter, fileWriter zapcore.WriteSyncer, isDev bool) zapcore.Core {
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(NewEncoderConfig()),
		fileWriter,
		level,
	)

	return zapcore.NewTee(newConsoleCore(level, consoleWriter, isDev), fileCore)
}

func newConsoleCore(level zapcore.Level, w zapcore.WriteSyncer, isDev bool) zapcore.Core {
	var encoder zapcore.Encoder
	if isDev {
		encoder = zapcore.NewConsoleEncoder(NewConsoleEncoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(NewEncoderConfig())
	}
	return zapcore.NewCore(encoder, w, level)
}
