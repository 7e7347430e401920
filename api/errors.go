package api

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"mindmap_backend/core"

	"go.uber.org/zap"
)

// GenericErrorMessage replaces messages that would expose internals.
const GenericErrorMessage = "An error occurred during processing"

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusForKind maps a failure kind to its HTTP status.
func StatusForKind(kind core.ErrorKind) int {
	switch kind {
	case core.KindEmptyTopic, core.KindEmptyInput, core.KindInvalidRequest:
		return http.StatusBadRequest
	case core.KindNotFound, core.KindNoRelevantContent:
		return http.StatusNotFound
	case core.KindNoText, core.KindExtractionFailed:
		return http.StatusUnprocessableEntity
	case core.KindMalformedResponse, core.KindInvalidTopicList, core.KindInvalidMindMap, core.KindBackendFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var (
	windowsPathPattern = regexp.MustCompile(`[A-Za-z]:\\[^\s]+`)
	unixPathPattern    = regexp.MustCompile(`/[^\s]+`)
)

// revealingMarkers identify stack traces and source locations.
var revealingMarkers = []string{"traceback", "goroutine ", "panic:", ".go:"}

// SanitizeErrorMessage replaces file-system paths with [PATH], keeps only
// the first line, and falls back to GenericErrorMessage when what is left
// still looks like a stack trace.
func SanitizeErrorMessage(message string) string {
	message = windowsPathPattern.ReplaceAllString(message, "[PATH]")
	message = unixPathPattern.ReplaceAllString(message, "[PATH]")
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		message = message[:i]
	}

	lower := strings.ToLower(message)
	for _, marker := range revealingMarkers {
		if strings.Contains(lower, marker) {
			return GenericErrorMessage
		}
	}
	return message
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError replies with the kind of err and its sanitized message.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	kind := core.KindOf(err)
	status := StatusForKind(kind)

	fields := []zap.Field{
		zap.String("error_kind", kind.String()),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Info("request rejected", fields...)
	}

	writeJSON(w, status, ErrorResponse{
		Error:   kind.String(),
		Message: SanitizeErrorMessage(err.Error()),
	})
}
