package api

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"mindmap_backend/core"
)

// ValidateUpload checks an uploaded file's size and name. Checks run in
// order: too large, empty, not a PDF.
func ValidateUpload(filename string, size, maxSize int64) error {
	if size > maxSize {
		return core.NewError(core.KindInvalidRequest,
			"File size (%.1fMB) exceeds maximum allowed size (%dMB)",
			float64(size)/(1024*1024), maxSize/(1024*1024))
	}
	if size == 0 {
		return core.NewError(core.KindInvalidRequest, "File is empty")
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return core.NewError(core.KindInvalidRequest, "File type not supported. Please upload a PDF file.")
	}
	return nil
}

// ValidateFile applies the upload rules to a file on disk. A missing path
// passes; the pipeline reports it as NotFound.
func ValidateFile(path string, maxSize int64) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil
	}
	return ValidateUpload(filepath.Base(path), info.Size(), maxSize)
}

// ValidateTopic trims topic and truncates it to maxLength runes.
func ValidateTopic(topic string, maxLength int) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", core.NewError(core.KindInvalidRequest, "Topic cannot be empty or contain only whitespace")
	}
	if maxLength > 0 && utf8.RuneCountInString(topic) > maxLength {
		topic = string([]rune(topic)[:maxLength])
	}
	return topic, nil
}
