package mindmap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mindmap_backend/core"
	"mindmap_backend/llm"
	"mindmap_backend/pdfprocessor"

	"go.uber.org/zap"
)

const (
	// TopicInputChars is how much of the document the topic detector sees.
	TopicInputChars = 6000

	// MaxTopics caps the detected topic list. Fewer topics are accepted.
	MaxTopics = 10

	// FilterTokenBudget bounds the text sent to the topic filter.
	FilterTokenBudget = pdfprocessor.DefaultTokenBudget

	// MinTopicTextLength is the shortest trimmed filter result that counts
	// as relevant content.
	MinTopicTextLength = 50
)

// Analyzer runs the three backend-driven steps: topic detection, topic
// filtering and mind map generation. It holds no per-request state and is
// safe for concurrent use when its Completer is.
type Analyzer struct {
	completer llm.Completer
	logger    *zap.Logger
}

// NewAnalyzer creates an Analyzer. The completer should already carry the
// retry policy (see llm.WithRetry).
func NewAnalyzer(completer llm.Completer, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		completer: completer,
		logger:    logger,
	}
}

// DetectTopics asks the backend for the main topics of rawText.
//
// Returns MalformedResponse if the reply is not JSON and InvalidTopicList if
// it is not an array of strings.
func (a *Analyzer) DetectTopics(ctx context.Context, rawText string) (TopicsResult, error) {
	start := time.Now()
	text := pdfprocessor.TruncateChars(rawText, TopicInputChars)

	response, err := a.completer.Complete(ctx, BuildTopicsPrompt(text))
	if err != nil {
		return TopicsResult{}, err
	}

	doc, err := ParseResponse(response)
	if err != nil {
		return TopicsResult{}, err
	}

	topics, err := validateTopicList(doc)
	if err != nil {
		return TopicsResult{}, err
	}
	if len(topics) > MaxTopics {
		topics = topics[:MaxTopics]
	}

	a.logger.Info("topics detected",
		zap.Int("input_chars", len([]rune(text))),
		zap.Int("topics", len(topics)),
		zap.Duration("duration", time.Since(start)))

	return TopicsResult{Topics: topics}, nil
}

// FilterTopicText keeps only the parts of rawText related to topic.
//
// An empty or too short reply is not an error: the result has an empty
// TopicText and a Message saying why.
func (a *Analyzer) FilterTopicText(ctx context.Context, rawText, topic string) (FilteredText, error) {
	if strings.TrimSpace(topic) == "" {
		return FilteredText{}, core.NewError(core.KindEmptyTopic, "Topic cannot be empty")
	}

	text := pdfprocessor.TruncateToTokenBudget(rawText, FilterTokenBudget)
	response, err := a.completer.Complete(ctx, BuildFilterPrompt(text, topic))
	if err != nil {
		return FilteredText{}, err
	}

	trimmed := strings.TrimSpace(response)
	switch {
	case trimmed == "":
		a.logger.Info("no relevant content for topic", zap.String("topic", topic))
		return FilteredText{Message: fmt.Sprintf("No relevant content found for topic: %s", topic)}, nil
	case len([]rune(trimmed)) < MinTopicTextLength:
		a.logger.Info("insufficient content for topic",
			zap.String("topic", topic),
			zap.Int("chars", len([]rune(trimmed))))
		return FilteredText{Message: fmt.Sprintf("Insufficient content found for topic: %s", topic)}, nil
	}

	return FilteredText{TopicText: response}, nil
}

// GenerateMindMap asks the backend for a mind map of topicText and validates
// the reply.
//
// Returns EmptyInput for blank input, MalformedResponse if the reply is not
// JSON and InvalidMindMap if it breaks the tree rules.
func (a *Analyzer) GenerateMindMap(ctx context.Context, topicText string) (MindMapResult, error) {
	if strings.TrimSpace(topicText) == "" {
		return MindMapResult{}, core.NewError(core.KindEmptyInput, "Topic text cannot be empty")
	}

	start := time.Now()
	response, err := a.completer.Complete(ctx, BuildMindMapPrompt(topicText))
	if err != nil {
		return MindMapResult{}, err
	}

	doc, err := ParseResponse(response)
	if err != nil {
		return MindMapResult{}, err
	}

	m, err := Validate(doc)
	if err != nil {
		a.logger.Warn("backend returned an invalid mind map", zap.Error(err))
		return MindMapResult{}, err
	}

	a.logger.Info("mind map generated",
		zap.String("topic", m.Topic),
		zap.Int("nodes", len(m.Nodes)),
		zap.Int("depth", m.Depth()),
		zap.Duration("duration", time.Since(start)))

	return MindMapResult{MindMap: m}, nil
}
