package main

import (
	"fmt"
	"io"
	"os"

	"mindmap_backend/core"
	"mindmap_backend/db"
	"mindmap_backend/llm"
	"mindmap_backend/logging"
	"mindmap_backend/mindmap"
	"mindmap_backend/pdfprocessor"
	"mindmap_backend/pipeline"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app is the configuration and logger every command starts from.
type app struct {
	cfg    *core.Config
	logger *logging.Logger
}

// loadEnv loads path into the environment. Variables already set win.
func loadEnv(path string) {
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		// Logger isn't initialized yet.
		fmt.Fprintf(os.Stderr, "Warning: cannot load %s: %v\n", path, err)
	}
}

// loadApp reads .env and the environment, validates the configuration and
// builds the logger. Console logs go to console; one-shot commands pass
// stderr so stdout carries only their result.
func loadApp(opts *rootOptions, console io.Writer) (*app, error) {
	loadEnv(opts.envFile)

	cfg, err := core.LoadConfig()
	if err != nil {
		return nil, err
	}

	logOpts := logging.Options{Console: zapcore.Lock(zapcore.AddSync(console))}
	if level, ok := logging.ParseLogLevel(cfg.LogLevel); ok {
		logOpts.Level = &level
	}
	logger, err := logging.NewLoggerWithOptions(cfg.DevMode, cfg.LogFile, logOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) logConfig() {
	a.logger.Info("Configuration loaded",
		zap.String("provider", a.cfg.AIProvider),
		zap.String("model", a.cfg.Model()),
		zap.String("base_url", a.cfg.BaseURL()),
		zap.Int("max_retries", a.cfg.MaxRetries),
		zap.Duration("retry_delay", a.cfg.RetryDelay),
		zap.Duration("ai_timeout", a.cfg.AITimeout),
		zap.String("temp_dir", a.cfg.TempDir),
		zap.Int64("max_file_size", a.cfg.MaxFileSize),
		zap.Bool("record_history", a.cfg.RecordHistory),
		zap.Bool("allow_self_signed_certs", a.cfg.AllowSelfSignedCerts),
		zap.Bool("dev_mode", a.cfg.DevMode),
	)
}

// newRunner wires extractor, completion client and analyzer into a pipeline
// runner. A nil recorder disables run history.
func (a *app) newRunner(recorder pipeline.Recorder) *pipeline.Runner {
	logger := a.logger.Zap()
	completer := llm.NewFromConfig(a.cfg, logger.Named("llm"))
	analyzer := mindmap.NewAnalyzer(completer, logger.Named("mindmap"))
	runner := pipeline.NewRunner(pdfprocessor.NewDefaultExtractor(), analyzer, logger.Named("pipeline"))
	if recorder != nil {
		runner.SetRecorder(recorder)
	}
	return runner
}

// openHistory opens the run history database, or returns nil when history
// is disabled.
func (a *app) openHistory() (*db.Database, error) {
	if !a.cfg.RecordHistory {
		return nil, nil
	}
	database, err := db.Open(a.cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return database, nil
}
