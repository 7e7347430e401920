package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyFileWriterDefaults(t *testing.T) {
	got := applyFileWriterDefaults(FileWriterConfig{MaxSizeMB: 10})

	if got.MaxSizeMB != 10 {
		t.Errorf("MaxSizeMB = %d, want 10", got.MaxSizeMB)
	}
	if got.MaxBackups != DefaultMaxBackups {
		t.Errorf("MaxBackups = %d, want %d", got.MaxBackups, DefaultMaxBackups)
	}
	if got.MaxAgeDays != DefaultMaxAgeDays {
		t.Errorf("MaxAgeDays = %d, want %d", got.MaxAgeDays, DefaultMaxAgeDays)
	}
}

func TestNewFileWriter_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotating.log")

	w := NewFileWriter(path)
	if _, err := w.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(content) != "hello\n" {
		t.Errorf("content = %q, want %q", content, "hello\n")
	}
}
