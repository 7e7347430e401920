package core

import (
	"errors"
	"testing"
)

func TestExitCodeName(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{ExitCodeSuccess, "success"},
		{ExitCodeError, "error"},
		{ExitCodeConfig, "configuration error"},
		{ExitCodeSIGINT, "interrupted (SIGINT)"},
		{ExitCodeSIGTERM, "terminated (SIGTERM)"},
		{42, "unknown"},
	}

	for _, tt := range tests {
		if got := ExitCodeName(tt.code); got != tt.want {
			t.Errorf("ExitCodeName(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestExitCodeForError(t *testing.T) {
	if got := ExitCodeForError(nil); got != ExitCodeSuccess {
		t.Errorf("ExitCodeForError(nil) = %d, want %d", got, ExitCodeSuccess)
	}
	if got := ExitCodeForError(ErrMissingAuth(ProviderOpenAI)); got != ExitCodeConfig {
		t.Errorf("ExitCodeForError(config) = %d, want %d", got, ExitCodeConfig)
	}
	if got := ExitCodeForError(errors.New("boom")); got != ExitCodeError {
		t.Errorf("ExitCodeForError(other) = %d, want %d", got, ExitCodeError)
	}
}
