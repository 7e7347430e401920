package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure raised while turning a PDF into topics or a
// mind map. The set is closed: every failure that leaves a pipeline carries
// exactly one of these kinds, and transport layers map kinds to status codes
// instead of inspecting message text.
type ErrorKind int

const (
	// KindInternal is the zero value and covers anything not otherwise classified.
	KindInternal ErrorKind = iota
	KindEmptyTopic
	KindEmptyInput
	KindMalformedResponse
	KindInvalidTopicList
	KindInvalidMindMap
	KindBackendFailure
	KindNoRelevantContent
	KindNotFound
	KindExtractionFailed
	KindNoText
	KindInvalidRequest
)

var kindNames = map[ErrorKind]string{
	KindInternal:          "Internal",
	KindEmptyTopic:        "EmptyTopic",
	KindEmptyInput:        "EmptyInput",
	KindMalformedResponse: "MalformedResponse",
	KindInvalidTopicList:  "InvalidTopicList",
	KindInvalidMindMap:    "InvalidMindMap",
	KindBackendFailure:    "BackendFailure",
	KindNoRelevantContent: "NoRelevantContent",
	KindNotFound:          "NotFound",
	KindExtractionFailed:  "ExtractionFailed",
	KindNoText:            "NoText",
	KindInvalidRequest:    "InvalidRequest",
}

// String returns the stable name used in logs and API error bodies.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// AllErrorKinds returns every defined kind in declaration order.
func AllErrorKinds() []ErrorKind {
	kinds := make([]ErrorKind, 0, len(kindNames))
	for k := KindInternal; k <= KindInvalidRequest; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Error is a classified failure. Message is the human-readable text; Err is an
// optional underlying cause reachable through errors.Unwrap.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, &core.Error{Kind: core.KindNoText}) matches any NoText failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// NewError builds a classified error with a formatted message.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies err under kind with a message prefix.
func WrapError(kind ErrorKind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// PipelinePrefix is prepended to every failure leaving a pipeline.
const PipelinePrefix = "Pipeline failed: "

// PipelineError wraps a failure at a pipeline boundary. Its message reads
// "Pipeline failed: <original message>" while the original kind stays
// reachable through Kind and errors.As.
type PipelineError struct {
	Pipeline string
	Stage    string
	Err      error
}

func (e *PipelineError) Error() string {
	return PipelinePrefix + e.Err.Error()
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Kind returns the kind of the wrapped failure.
func (e *PipelineError) Kind() ErrorKind {
	return KindOf(e.Err)
}
