package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"mindmap_backend/core"
	"mindmap_backend/llm"
	"mindmap_backend/mindmap"
	"mindmap_backend/pdfprocessor"
	"mindmap_backend/pdfprocessor/pdftest"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) ExtractText(path string) (string, error) {
	return f.text, f.err
}

// routedCompleter answers by prompt kind so one fake serves both pipelines.
func routedCompleter(topics, filtered, mindMap string) llm.Completer {
	return llm.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "Extract the main topics"):
			return topics, nil
		case strings.Contains(prompt, "extract ONLY the content"):
			return filtered, nil
		case strings.Contains(prompt, "Create a mind map"):
			return mindMap, nil
		}
		return "", errors.New("unexpected prompt")
	})
}

const (
	topicsReply   = `["Introduction", "Basics", "Advanced Topics"]`
	filteredReply = "Machine Learning is a field of AI. It includes supervised and unsupervised learning."
	mindMapReply  = `{"topic":"Machine Learning","nodes":[{"id":1,"parent":0,"text":"Supervised"},{"id":2,"parent":0,"text":"Unsupervised"}]}`
)

type memoryRecorder struct {
	mu   sync.Mutex
	runs []Run
}

func (m *memoryRecorder) RecordRun(ctx context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func newRunner(extractor TextExtractor, completer llm.Completer) *Runner {
	return NewRunner(extractor, mindmap.NewAnalyzer(completer, nil), nil)
}

func TestPDFToTopics_ScenarioA(t *testing.T) {
	dir := t.TempDir()
	path := pdftest.WriteFile(t, dir, "ml.pdf",
		"Introduction to Machine Learning. Chapter 1: Basics. Chapter 2: Advanced Topics.")

	runner := newRunner(pdfprocessor.NewDefaultExtractor(), routedCompleter(topicsReply, "", ""))
	result, err := runner.PDFToTopics(context.Background(), path)
	if err != nil {
		t.Fatalf("PDFToTopics() error: %v", err)
	}
	if len(result.Topics) < 1 {
		t.Fatal("expected at least one topic")
	}
}

func TestTopicToMindmap_ScenarioB(t *testing.T) {
	extractor := fakeExtractor{text: "Machine Learning is a field of AI. It includes supervised and unsupervised learning."}
	runner := newRunner(extractor, routedCompleter("", filteredReply, mindMapReply))

	result, err := runner.TopicToMindmap(context.Background(), "/tmp/ml.pdf", "Machine Learning")
	if err != nil {
		t.Fatalf("TopicToMindmap() error: %v", err)
	}
	if result.MindMap.Topic == "" {
		t.Error("mind map topic is empty")
	}
	if len(result.MindMap.Nodes) == 0 {
		t.Error("mind map has no nodes")
	}
}

func TestPDFToTopics_ScenarioC_MissingFile(t *testing.T) {
	runner := newRunner(pdfprocessor.NewDefaultExtractor(), routedCompleter(topicsReply, "", ""))
	missing := filepath.Join(t.TempDir(), "does-not-exist.pdf")

	_, err := runner.PDFToTopics(context.Background(), missing)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Pipeline failed") {
		t.Errorf("error %q does not contain 'Pipeline failed'", err)
	}
	if !core.IsKind(err, core.KindNotFound) {
		t.Errorf("kind = %v, want NotFound", core.KindOf(err))
	}

	var perr *core.PipelineError
	if !errors.As(err, &perr) {
		t.Fatal("error is not a PipelineError")
	}
	if perr.Stage != "extract" || perr.Pipeline != NamePDFToTopics {
		t.Errorf("PipelineError = %+v", perr)
	}
}

func TestTopicToMindmap_ScenarioD_EmptyTopic(t *testing.T) {
	runner := newRunner(fakeExtractor{text: "Some text"}, routedCompleter("", filteredReply, mindMapReply))

	_, err := runner.TopicToMindmap(context.Background(), "/tmp/ml.pdf", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Pipeline failed") {
		t.Errorf("error %q does not contain 'Pipeline failed'", err)
	}
	if !core.IsKind(err, core.KindEmptyTopic) {
		t.Errorf("kind = %v, want EmptyTopic", core.KindOf(err))
	}
}

func TestTopicToMindmap_NoRelevantContent(t *testing.T) {
	runner := newRunner(fakeExtractor{text: "Cooking recipes."}, routedCompleter("", "", mindMapReply))

	var stages []Stage
	runner.SetProgressCallback(func(pipeline string, stage Stage, message string) {
		stages = append(stages, stage)
	})

	_, err := runner.TopicToMindmap(context.Background(), "/tmp/food.pdf", "Quantum Physics")
	if !core.IsKind(err, core.KindNoRelevantContent) {
		t.Fatalf("err = %v, want NoRelevantContent", err)
	}
	want := "Pipeline failed: No relevant content found for topic: Quantum Physics"
	if err.Error() != want {
		t.Errorf("err = %q, want %q", err.Error(), want)
	}
	if stages[len(stages)-1] != StageAborted {
		t.Errorf("last stage = %q, want %q", stages[len(stages)-1], StageAborted)
	}
	for _, s := range stages {
		if s == StageMindMapBuilt {
			t.Error("mind map stage reached after abort")
		}
	}
}

func TestPipelines_KeepErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		runner   *Runner
		wantKind core.ErrorKind
	}{
		{
			name:     "no text",
			runner:   newRunner(fakeExtractor{err: core.NewError(core.KindNoText, "No extractable text found in PDF")}, routedCompleter(topicsReply, "", "")),
			wantKind: core.KindNoText,
		},
		{
			name:     "malformed topics",
			runner:   newRunner(fakeExtractor{text: "text"}, routedCompleter("not json", "", "")),
			wantKind: core.KindMalformedResponse,
		},
		{
			name:     "invalid topic list",
			runner:   newRunner(fakeExtractor{text: "text"}, routedCompleter(`{"a":1}`, "", "")),
			wantKind: core.KindInvalidTopicList,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.runner.PDFToTopics(context.Background(), "/tmp/x.pdf")
			if got := core.KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf(%v) = %v, want %v", err, got, tt.wantKind)
			}
			if !strings.HasPrefix(err.Error(), core.PipelinePrefix) {
				t.Errorf("error %q lacks pipeline prefix", err)
			}
		})
	}
}

func TestTopicToMindmap_InvalidMindMap(t *testing.T) {
	bad := `{"topic":"X","nodes":[{"id":1,"parent":5,"text":"a"}]}`
	runner := newRunner(fakeExtractor{text: "text"}, routedCompleter("", filteredReply, bad))

	_, err := runner.TopicToMindmap(context.Background(), "/tmp/x.pdf", "X")
	if !core.IsKind(err, core.KindInvalidMindMap) {
		t.Fatalf("err = %v, want InvalidMindMap", err)
	}
	if !strings.Contains(err.Error(), "node 1 has invalid parent reference: 5") {
		t.Errorf("err = %q, want the offending node named", err)
	}
}

func TestRunner_ProgressStages(t *testing.T) {
	runner := newRunner(fakeExtractor{text: "text"}, routedCompleter("", filteredReply, mindMapReply))

	var stages []Stage
	runner.SetProgressCallback(func(pipeline string, stage Stage, message string) {
		if pipeline != NameTopicToMindmap {
			t.Errorf("pipeline = %q", pipeline)
		}
		stages = append(stages, stage)
	})

	if _, err := runner.TopicToMindmap(context.Background(), "/tmp/x.pdf", "ML"); err != nil {
		t.Fatalf("TopicToMindmap() error: %v", err)
	}

	want := []Stage{StageStart, StageExtracted, StageFiltered, StageMindMapBuilt, StageDone}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage %d = %q, want %q", i, stages[i], want[i])
		}
	}
}

func TestRunner_RecordsRuns(t *testing.T) {
	recorder := &memoryRecorder{}
	runner := newRunner(fakeExtractor{text: "text"}, routedCompleter(topicsReply, "", ""))
	runner.SetRecorder(recorder)

	ctx := WithCorrelationID(context.Background(), "req-123")
	if _, err := runner.PDFToTopics(ctx, "/uploads/abc_doc.pdf"); err != nil {
		t.Fatalf("PDFToTopics() error: %v", err)
	}
	if _, err := runner.TopicToMindmap(ctx, "/uploads/abc_doc.pdf", " "); err == nil {
		t.Fatal("expected error for blank topic")
	}

	if len(recorder.runs) != 2 {
		t.Fatalf("recorded %d runs, want 2", len(recorder.runs))
	}

	ok := recorder.runs[0]
	if ok.Status != StatusSucceeded || ok.TopicCount != 3 || ok.FileName != "abc_doc.pdf" || ok.CorrelationID != "req-123" {
		t.Errorf("success run = %+v", ok)
	}

	failed := recorder.runs[1]
	if failed.Status != StatusFailed || failed.ErrorKind != "EmptyTopic" || failed.Pipeline != NameTopicToMindmap {
		t.Errorf("failed run = %+v", failed)
	}
}
