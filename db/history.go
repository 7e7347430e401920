package db

import (
	"context"

	"mindmap_backend/pipeline"
)

// HistoryRecorder stores finished pipeline runs through a Repository.
type HistoryRecorder struct {
	repo *Repository
}

// NewHistoryRecorder wraps repo as a pipeline.Recorder.
func NewHistoryRecorder(repo *Repository) *HistoryRecorder {
	return &HistoryRecorder{repo: repo}
}

// RecordRun implements pipeline.Recorder.
func (h *HistoryRecorder) RecordRun(ctx context.Context, run pipeline.Run) error {
	// The request context may be cancelled right after the response is
	// written; the row should still be stored.
	_, err := h.repo.InsertRun(context.WithoutCancel(ctx), RecordFromRun(run))
	return err
}

var _ pipeline.Recorder = (*HistoryRecorder)(nil)
