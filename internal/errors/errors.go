package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InvalidDateFormat indicates a malformed cycle date input
	InvalidDateFormat ErrorCode = "INVALID_DATE_FORMAT"
	// MissingCollaboratorTool indicates the git binary is not installed
	MissingCollaboratorTool ErrorCode = "MISSING_COLLABORATOR_TOOL"
	// AmbiguousReferenceFile indicates zero or more than one sector file was found
	AmbiguousReferenceFile ErrorCode = "AMBIGUOUS_REFERENCE_FILE"
	// MalformedRecord indicates a retained customization that cannot be parsed
	MalformedRecord ErrorCode = "MALFORMED_RECORD"
	// DetachedHeadUnresolved indicates a detached HEAD with no matching tag (informational)
	DetachedHeadUnresolved ErrorCode = "DETACHED_HEAD_UNRESOLVED"
	// WorkingDirMissing indicates the controller pack working directory was not found
	WorkingDirMissing ErrorCode = "WORKING_DIR_MISSING"
	// DownloadFailed indicates a sector archive could not be fetched or extracted
	DownloadFailed ErrorCode = "DOWNLOAD_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
	// InstallTool suggests installing a tool
	InstallTool FixActionType = "install-tool"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
	Tool        string        `json:"tool,omitempty"`
}

// UpdaterError represents an updater error with code, message, and suggestions
type UpdaterError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new UpdaterError
func New(code ErrorCode, message string, cause error) *UpdaterError {
	return &UpdaterError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *UpdaterError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *UpdaterError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *UpdaterError) WithDetails(details interface{}) *UpdaterError {
	e.Details = details
	return e
}

// Is reports whether target carries the same error code.
// This lets callers match on codes with errors.Is from the standard library.
func (e *UpdaterError) Is(target error) bool {
	t, ok := target.(*UpdaterError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// CodeOf extracts the error code from err, or InternalError if err is not an UpdaterError
func CodeOf(err error) ErrorCode {
	if ue, ok := err.(*UpdaterError); ok {
		return ue.Code
	}
	return InternalError
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	MissingCollaboratorTool: {
		{
			Type:        InstallTool,
			Tool:        "git",
			Command:     "winget install --id Git.Git -e --source winget",
			Safe:        true,
			Description: "Install git, which this tool needs for cloning and diffing the controller pack",
			URL:         "https://git-scm.com/download/win",
		},
	},
	AmbiguousReferenceFile: {
		{
			Type:        RunCommand,
			Command:     "ukcpup update",
			Safe:        true,
			Description: "Remove stale sector data and re-download the current release",
		},
	},
	WorkingDirMissing: {
		{
			Type:        RunCommand,
			Command:     "ukcpup update",
			Safe:        true,
			Description: "Clone the controller pack before applying settings",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
