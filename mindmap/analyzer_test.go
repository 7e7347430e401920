package mindmap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"mindmap_backend/core"
	"mindmap_backend/llm"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeCompleter returns reply and records the prompt it was given.
type fakeCompleter struct {
	reply  string
	err    error
	prompt string
	calls  int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.reply, f.err
}

const sampleText = "Introduction to Machine Learning. Chapter 1: Basics. Chapter 2: Advanced Topics. " +
	"Machine Learning is a field of AI. It includes supervised and unsupervised learning."

func TestDetectTopics(t *testing.T) {
	fake := &fakeCompleter{reply: `["Introduction", "Basics", "Advanced Topics"]`}
	a := NewAnalyzer(fake, nil)

	result, err := a.DetectTopics(context.Background(), sampleText)
	if err != nil {
		t.Fatalf("DetectTopics() error: %v", err)
	}
	if len(result.Topics) == 0 {
		t.Fatal("no topics returned")
	}
	if result.Topics[2] != "Advanced Topics" {
		t.Errorf("Topics = %v", result.Topics)
	}
	if !strings.Contains(fake.prompt, "Return ONLY a JSON array") {
		t.Error("prompt does not ask for a JSON array")
	}
	if !strings.Contains(fake.prompt, sampleText) {
		t.Error("prompt does not contain the input text")
	}
}

func TestDetectTopics_CapsAtTen(t *testing.T) {
	var topics []string
	for i := 1; i <= 15; i++ {
		topics = append(topics, fmt.Sprintf("%q", fmt.Sprintf("Topic %d", i)))
	}
	fake := &fakeCompleter{reply: "[" + strings.Join(topics, ",") + "]"}

	result, err := NewAnalyzer(fake, nil).DetectTopics(context.Background(), sampleText)
	if err != nil {
		t.Fatalf("DetectTopics() error: %v", err)
	}
	if len(result.Topics) != MaxTopics {
		t.Fatalf("len(Topics) = %d, want %d", len(result.Topics), MaxTopics)
	}
	if result.Topics[9] != "Topic 10" {
		t.Errorf("Topics[9] = %q, want Topic 10", result.Topics[9])
	}
}

func TestDetectTopics_TruncatesInput(t *testing.T) {
	fake := &fakeCompleter{reply: `["A"]`}
	long := strings.Repeat("x", TopicInputChars) + "TAIL_MARKER"

	if _, err := NewAnalyzer(fake, nil).DetectTopics(context.Background(), long); err != nil {
		t.Fatalf("DetectTopics() error: %v", err)
	}
	if strings.Contains(fake.prompt, "TAIL_MARKER") {
		t.Error("prompt contains text beyond the topic input limit")
	}
}

func TestDetectTopics_Failures(t *testing.T) {
	backendErr := core.NewError(core.KindBackendFailure, "backend down")

	tests := []struct {
		name     string
		fake     *fakeCompleter
		wantKind core.ErrorKind
	}{
		{"not json", &fakeCompleter{reply: "Intro, Basics"}, core.KindMalformedResponse},
		{"object", &fakeCompleter{reply: `{"topics": ["A"]}`}, core.KindInvalidTopicList},
		{"non-string entry", &fakeCompleter{reply: `["A", 1]`}, core.KindInvalidTopicList},
		{"backend failure", &fakeCompleter{err: backendErr}, core.KindBackendFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAnalyzer(tt.fake, nil).DetectTopics(context.Background(), sampleText)
			if got := core.KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf(%v) = %v, want %v", err, got, tt.wantKind)
			}
		})
	}
}

func TestFilterTopicText(t *testing.T) {
	relevant := "Machine Learning is a field of AI. It includes supervised and unsupervised learning."

	tests := []struct {
		name        string
		reply       string
		wantText    string
		wantMessage string
	}{
		{"relevant content", relevant, relevant, ""},
		{"empty reply", "", "", "No relevant content found for topic: Machine Learning"},
		{"whitespace reply", "  \n\t ", "", "No relevant content found for topic: Machine Learning"},
		{"short reply", "ML is AI.", "", "Insufficient content found for topic: Machine Learning"},
		{"exactly fifty", strings.Repeat("a", 50), strings.Repeat("a", 50), ""},
		{"forty-nine padded", "   " + strings.Repeat("a", 49) + "   ", "", "Insufficient content found for topic: Machine Learning"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCompleter{reply: tt.reply}
			got, err := NewAnalyzer(fake, nil).FilterTopicText(context.Background(), sampleText, "Machine Learning")
			if err != nil {
				t.Fatalf("FilterTopicText() error: %v", err)
			}
			if got.TopicText != tt.wantText {
				t.Errorf("TopicText = %q, want %q", got.TopicText, tt.wantText)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMessage)
			}
			if got.TopicText != "" && len(strings.TrimSpace(got.TopicText)) < MinTopicTextLength {
				t.Errorf("non-empty TopicText shorter than %d characters", MinTopicTextLength)
			}
			if !strings.Contains(fake.prompt, `related to the topic: "Machine Learning"`) {
				t.Error("prompt does not name the topic")
			}
		})
	}
}

func TestFilterTopicText_EmptyTopic(t *testing.T) {
	for _, topic := range []string{"", " ", "\t\n"} {
		fake := &fakeCompleter{reply: "unused"}
		_, err := NewAnalyzer(fake, nil).FilterTopicText(context.Background(), sampleText, topic)
		if !core.IsKind(err, core.KindEmptyTopic) {
			t.Errorf("topic %q: err = %v, want EmptyTopic", topic, err)
		}
		if fake.calls != 0 {
			t.Errorf("topic %q: backend called %d times", topic, fake.calls)
		}
	}
}

func TestFilterTopicText_TruncatesInput(t *testing.T) {
	fake := &fakeCompleter{reply: strings.Repeat("relevant ", 10)}
	long := strings.Repeat("y", FilterTokenBudget*4) + "TAIL_MARKER"

	if _, err := NewAnalyzer(fake, nil).FilterTopicText(context.Background(), long, "Y"); err != nil {
		t.Fatalf("FilterTopicText() error: %v", err)
	}
	if strings.Contains(fake.prompt, "TAIL_MARKER") {
		t.Error("prompt contains text beyond the token budget")
	}
}

func TestGenerateMindMap(t *testing.T) {
	fake := &fakeCompleter{reply: "```json\n" + `{"topic":"Machine Learning","nodes":[
		{"id":1,"parent":0,"text":"Supervised"},
		{"id":2,"parent":1,"text":"Classification"},
		{"id":3,"parent":0,"text":"Unsupervised"}]}` + "\n```"}

	observed, logs := observer.New(zap.InfoLevel)
	a := NewAnalyzer(fake, zap.New(observed))

	result, err := a.GenerateMindMap(context.Background(), "Machine Learning is a field of AI.")
	if err != nil {
		t.Fatalf("GenerateMindMap() error: %v", err)
	}
	if result.MindMap.Topic != "Machine Learning" {
		t.Errorf("Topic = %q", result.MindMap.Topic)
	}
	if len(result.MindMap.Nodes) != 3 {
		t.Errorf("len(Nodes) = %d, want 3", len(result.MindMap.Nodes))
	}
	if !strings.Contains(fake.prompt, "at least 4 levels") {
		t.Error("prompt does not request hierarchy depth")
	}
	if logs.FilterMessage("mind map generated").Len() != 1 {
		t.Error("expected one 'mind map generated' log entry")
	}
}

func TestGenerateMindMap_Failures(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fake     *fakeCompleter
		wantKind core.ErrorKind
	}{
		{"empty input", "", &fakeCompleter{}, core.KindEmptyInput},
		{"blank input", "   ", &fakeCompleter{}, core.KindEmptyInput},
		{"malformed", "text", &fakeCompleter{reply: "not json"}, core.KindMalformedResponse},
		{"dangling parent", "text", &fakeCompleter{reply: `{"topic":"X","nodes":[{"id":1,"parent":5,"text":"a"}]}`}, core.KindInvalidMindMap},
		{"backend", "text", &fakeCompleter{err: core.NewError(core.KindBackendFailure, "down")}, core.KindBackendFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAnalyzer(tt.fake, nil).GenerateMindMap(context.Background(), tt.input)
			if got := core.KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf(%v) = %v, want %v", err, got, tt.wantKind)
			}
		})
	}
}

func TestAnalyzer_ValidationFailureIsNotRetried(t *testing.T) {
	fake := &fakeCompleter{reply: `{"topic":"X","nodes":[]}`}
	completer := llm.WithRetry(fake, llm.RetryPolicy{MaxRetries: 1}, nil)

	_, err := NewAnalyzer(completer, nil).GenerateMindMap(context.Background(), "text")
	if !core.IsKind(err, core.KindInvalidMindMap) {
		t.Fatalf("err = %v, want InvalidMindMap", err)
	}
	if fake.calls != 1 {
		t.Errorf("backend called %d times, want 1", fake.calls)
	}
}

func TestAnalyzer_BackendRetriedOnce(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("connection refused")}
	completer := llm.WithRetry(fake, llm.RetryPolicy{MaxRetries: 1}, nil)

	_, err := NewAnalyzer(completer, nil).DetectTopics(context.Background(), sampleText)
	if !core.IsKind(err, core.KindBackendFailure) {
		t.Fatalf("err = %v, want BackendFailure", err)
	}
	if fake.calls != 2 {
		t.Errorf("backend called %d times, want 2", fake.calls)
	}
}
