// Package pipeline composes PDF extraction and the mind map analyzer into the
// two end-to-end flows the service exposes: PDF to topics, and PDF plus topic
// to mind map.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"mindmap_backend/core"
	"mindmap_backend/mindmap"

	"go.uber.org/zap"
)

// Pipeline names, as stored in run history and logs.
const (
	NamePDFToTopics    = "pdf_to_topics"
	NameTopicToMindmap = "topic_to_mindmap"
)

// Stage is a state of a pipeline run.
type Stage string

const (
	StageStart          Stage = "start"
	StageExtracted      Stage = "extracted"
	StageTopicsDetected Stage = "topics_detected"
	StageFiltered       Stage = "filtered"
	StageAborted        Stage = "aborted"
	StageMindMapBuilt   Stage = "mindmap_built"
	StageDone           Stage = "done"
)

// TextExtractor reads the text of a PDF on disk.
type TextExtractor interface {
	ExtractText(path string) (string, error)
}

// Analyzer is the backend-driven part of both pipelines.
type Analyzer interface {
	DetectTopics(ctx context.Context, rawText string) (mindmap.TopicsResult, error)
	FilterTopicText(ctx context.Context, rawText, topic string) (mindmap.FilteredText, error)
	GenerateMindMap(ctx context.Context, topicText string) (mindmap.MindMapResult, error)
}

// ProgressCallback is called on every stage transition.
type ProgressCallback func(pipeline string, stage Stage, message string)

// Runner executes pipelines. Each call is an independent sequential chain;
// a Runner may serve concurrent calls.
type Runner struct {
	extractor TextExtractor
	analyzer  Analyzer
	recorder  Recorder
	logger    *zap.Logger
	progress  ProgressCallback
}

// NewRunner creates a Runner. A nil logger disables logging.
func NewRunner(extractor TextExtractor, analyzer Analyzer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		extractor: extractor,
		analyzer:  analyzer,
		logger:    logger,
	}
}

// SetProgressCallback sets a callback for stage transitions.
func (r *Runner) SetProgressCallback(callback ProgressCallback) {
	r.progress = callback
}

// SetRecorder sets where finished runs are reported. Nil disables recording.
func (r *Runner) SetRecorder(recorder Recorder) {
	r.recorder = recorder
}

// PDFToTopics extracts the text of the PDF at path and detects its topics.
// Every failure is returned as a *core.PipelineError.
func (r *Runner) PDFToTopics(ctx context.Context, path string) (mindmap.TopicsResult, error) {
	run := r.begin(ctx, NamePDFToTopics, path, "")

	text, err := r.extractor.ExtractText(path)
	if err != nil {
		return mindmap.TopicsResult{}, r.fail(ctx, run, "extract", err)
	}
	r.report(run, StageExtracted, "Text extracted")

	result, err := r.analyzer.DetectTopics(ctx, text)
	if err != nil {
		return mindmap.TopicsResult{}, r.fail(ctx, run, "detect_topics", err)
	}
	r.report(run, StageTopicsDetected, "Topics detected")

	run.TopicCount = len(result.Topics)
	r.finish(ctx, run)
	return result, nil
}

// TopicToMindmap extracts the PDF at path, keeps the content related to
// topic and builds a mind map from it. When the filter finds nothing the run
// aborts with NoRelevantContent carrying the filter's message. Every failure
// is returned as a *core.PipelineError.
func (r *Runner) TopicToMindmap(ctx context.Context, path, topic string) (mindmap.MindMapResult, error) {
	run := r.begin(ctx, NameTopicToMindmap, path, topic)

	text, err := r.extractor.ExtractText(path)
	if err != nil {
		return mindmap.MindMapResult{}, r.fail(ctx, run, "extract", err)
	}
	r.report(run, StageExtracted, "Text extracted")

	filtered, err := r.analyzer.FilterTopicText(ctx, text, topic)
	if err != nil {
		return mindmap.MindMapResult{}, r.fail(ctx, run, "filter", err)
	}
	if filtered.Empty() {
		message := filtered.Message
		if message == "" {
			message = "No content found for topic"
		}
		r.report(run, StageAborted, message)
		return mindmap.MindMapResult{}, r.fail(ctx, run, "filter",
			core.NewError(core.KindNoRelevantContent, "%s", message))
	}
	r.report(run, StageFiltered, "Topic content filtered")

	result, err := r.analyzer.GenerateMindMap(ctx, filtered.TopicText)
	if err != nil {
		return mindmap.MindMapResult{}, r.fail(ctx, run, "generate_mindmap", err)
	}
	r.report(run, StageMindMapBuilt, "Mind map built")

	run.NodeCount = len(result.MindMap.Nodes)
	r.finish(ctx, run)
	return result, nil
}

func (r *Runner) begin(ctx context.Context, name, path, topic string) *Run {
	run := &Run{
		CorrelationID: CorrelationID(ctx),
		Pipeline:      name,
		FileName:      filepath.Base(path),
		Topic:         topic,
		StartedAt:     time.Now(),
	}
	r.report(run, StageStart, "Pipeline started")
	return run
}

func (r *Runner) fail(ctx context.Context, run *Run, stage string, err error) error {
	perr := &core.PipelineError{Pipeline: run.Pipeline, Stage: stage, Err: err}

	run.Status = StatusFailed
	run.ErrorKind = perr.Kind().String()
	run.ErrorMessage = err.Error()
	run.Duration = time.Since(run.StartedAt)

	r.logger.Warn("pipeline failed",
		zap.String("pipeline", run.Pipeline),
		zap.String("stage", stage),
		zap.String("error_kind", run.ErrorKind),
		zap.String("correlation_id", run.CorrelationID),
		zap.Error(err))

	r.record(ctx, run)
	return perr
}

func (r *Runner) finish(ctx context.Context, run *Run) {
	run.Status = StatusSucceeded
	run.Duration = time.Since(run.StartedAt)
	r.report(run, StageDone, "Pipeline complete")

	r.logger.Info("pipeline complete",
		zap.String("pipeline", run.Pipeline),
		zap.String("correlation_id", run.CorrelationID),
		zap.Int("topics", run.TopicCount),
		zap.Int("nodes", run.NodeCount),
		zap.Duration("duration", run.Duration))

	r.record(ctx, run)
}

func (r *Runner) record(ctx context.Context, run *Run) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordRun(ctx, *run); err != nil {
		r.logger.Warn("failed to record pipeline run", zap.Error(err))
	}
}

func (r *Runner) report(run *Run, stage Stage, message string) {
	r.logger.Debug("pipeline stage",
		zap.String("pipeline", run.Pipeline),
		zap.String("stage", string(stage)))
	if r.progress != nil {
		r.progress(run.Pipeline, stage, message)
	}
}
