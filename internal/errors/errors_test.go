package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("underlying error")

	err := New(AmbiguousReferenceFile, "found 2 sector files", cause)

	if err.Code != AmbiguousReferenceFile {
		t.Errorf("Code = %v, want %v", err.Code, AmbiguousReferenceFile)
	}
	if err.Message != "found 2 sector files" {
		t.Errorf("Message = %q, want %q", err.Message, "found 2 sector files")
	}
	if len(err.SuggestedFixes) != 1 {
		t.Errorf("len(SuggestedFixes) = %d, want 1", len(err.SuggestedFixes))
	}
}

func TestUpdaterError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      MissingCollaboratorTool,
			message:   "git not found",
			cause:     errors.New("exec: \"git\": executable file not found"),
			wantParts: []string{"MISSING_COLLABORATOR_TOOL", "git not found", "executable file not found"},
		},
		{
			name:      "without cause",
			code:      InvalidDateFormat,
			message:   "cannot parse \"2021\"",
			cause:     nil,
			wantParts: []string{"INVALID_DATE_FORMAT", "cannot parse"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.cause)
			got := err.Error()

			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestUpdaterError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something broke", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestUpdaterError_Is_MatchesCode(t *testing.T) {
	err := New(MalformedRecord, "record has no colon tokens", nil)

	if !errors.Is(err, New(MalformedRecord, "", nil)) {
		t.Error("errors.Is should match on equal codes")
	}
	if errors.Is(err, New(InvalidDateFormat, "", nil)) {
		t.Error("errors.Is should not match different codes")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(DownloadFailed, "http 404", nil)); got != DownloadFailed {
		t.Errorf("CodeOf = %v, want %v", got, DownloadFailed)
	}
	if got := CodeOf(errors.New("plain")); got != InternalError {
		t.Errorf("CodeOf(plain) = %v, want %v", got, InternalError)
	}
}

func TestGetSuggestedFixes(t *testing.T) {
	fixes := GetSuggestedFixes(MissingCollaboratorTool)
	if len(fixes) == 0 {
		t.Fatal("expected suggested fixes for MissingCollaboratorTool")
	}
	if fixes[0].Tool != "git" {
		t.Errorf("Tool = %q, want %q", fixes[0].Tool, "git")
	}

	if fixes := GetSuggestedFixes(MalformedRecord); fixes != nil {
		t.Errorf("expected no fixes for MalformedRecord, got %v", fixes)
	}
}
