package api

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"mindmap_backend/core"
)

func TestStatusForKind(t *testing.T) {
	want := map[core.ErrorKind]int{
		core.KindInternal:          http.StatusInternalServerError,
		core.KindEmptyTopic:        http.StatusBadRequest,
		core.KindEmptyInput:        http.StatusBadRequest,
		core.KindInvalidRequest:    http.StatusBadRequest,
		core.KindNotFound:          http.StatusNotFound,
		core.KindNoRelevantContent: http.StatusNotFound,
		core.KindNoText:            http.StatusUnprocessableEntity,
		core.KindExtractionFailed:  http.StatusUnprocessableEntity,
		core.KindMalformedResponse: http.StatusBadGateway,
		core.KindInvalidTopicList:  http.StatusBadGateway,
		core.KindInvalidMindMap:    http.StatusBadGateway,
		core.KindBackendFailure:    http.StatusBadGateway,
	}

	for _, kind := range core.AllErrorKinds() {
		status, ok := want[kind]
		if !ok {
			t.Errorf("kind %s has no expected status", kind)
			continue
		}
		if got := StatusForKind(kind); got != status {
			t.Errorf("StatusForKind(%s) = %d, want %d", kind, got, status)
		}
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "File is empty", "File is empty"},
		{"unix path", "PDF file not found: /tmp/uploads/a.pdf", "PDF file not found: [PATH]"},
		{"windows path", `open C:\temp\a.pdf failed`, "open [PATH] failed"},
		{"first line only", "bad response\nmore detail", "bad response"},
		{"goroutine dump", "panic: runtime error\ngoroutine 1 [running]:", GenericErrorMessage},
		{"source location", "failed at main.go:42", GenericErrorMessage},
		{"traceback", "Traceback (most recent call last)", GenericErrorMessage},
		{"file word is allowed", "File type not supported. Please upload a PDF file.", "File type not supported. Please upload a PDF file."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeErrorMessage(tt.in); got != tt.want {
				t.Errorf("SanitizeErrorMessage(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateTopic(t *testing.T) {
	tests := []struct {
		in      string
		max     int
		want    string
		wantErr bool
	}{
		{"  Optics  ", 200, "Optics", false},
		{"", 200, "", true},
		{" \t\n", 200, "", true},
		{"Ökologie und Umwelt", 8, "Ökologie", false},
		{"abc", 0, "abc", false},
	}

	for _, tt := range tests {
		got, err := ValidateTopic(tt.in, tt.max)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateTopic(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !core.IsKind(err, core.KindInvalidRequest) {
			t.Errorf("ValidateTopic(%q) kind = %s", tt.in, core.KindOf(err))
		}
		if got != tt.want {
			t.Errorf("ValidateTopic(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateUpload(t *testing.T) {
	const maxSize = 80 * 1024 * 1024

	err := ValidateUpload("big.pdf", 90*1024*1024, maxSize)
	if err == nil || err.Error() != "File size (90.0MB) exceeds maximum allowed size (80MB)" {
		t.Errorf("oversize error = %v", err)
	}

	// Size is checked before the extension.
	if err := ValidateUpload("big.txt", maxSize+1, maxSize); err == nil || err.Error()[:9] != "File size" {
		t.Errorf("oversize .txt error = %v", err)
	}
	if err := ValidateUpload("a.PDF", 1, maxSize); err != nil {
		t.Errorf("upper-case extension rejected: %v", err)
	}
	if err := ValidateUpload("a.pdf", maxSize, maxSize); err != nil {
		t.Errorf("file at the limit rejected: %v", err)
	}
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, size int) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, make([]byte, size), 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"pdf", write("a.pdf", 10), false},
		{"empty", write("empty.pdf", 0), true},
		{"too large", write("big.pdf", 101), true},
		{"not a pdf", write("a.txt", 10), true},
		{"missing is left to the pipeline", filepath.Join(dir, "absent.pdf"), false},
		{"directory is left to the pipeline", dir, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(tt.path, 100)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateFile() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !core.IsKind(err, core.KindInvalidRequest) {
				t.Errorf("kind = %v", core.KindOf(err))
			}
		})
	}
}
