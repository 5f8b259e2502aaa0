package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Exit codes for CLI applications.
const (
	// ExitSuccess indicates the run completed.
	ExitSuccess = 0

	// ExitUser indicates a configuration problem the user has to fix.
	ExitUser = 1

	// ExitSystem indicates an environment problem (remote unreachable, binary missing).
	ExitSystem = 2

	// ExitPartial indicates the run completed but at least one item failed.
	// It is only used when strict mode is enabled.
	ExitPartial = 3
)

// Sentinel errors for the failure taxonomy of a backup run.
var (
	// ErrConfigNotFound indicates the configuration document could not be opened.
	ErrConfigNotFound = crdb.New("config file not found")

	// ErrConfigMalformed indicates the configuration document could not be parsed.
	ErrConfigMalformed = crdb.New("config file is malformed")

	// ErrConfigInvalid indicates the configuration parsed but failed validation.
	ErrConfigInvalid = crdb.New("invalid configuration")

	// ErrDirectoryCreation indicates an item output directory could not be created.
	// Errors carrying it are also marked with ErrConfigInvalid.
	ErrDirectoryCreation = crdb.New("output directory creation failed")

	// ErrConnectionFailed indicates the remote host did not answer the probe.
	ErrConnectionFailed = crdb.New("connection failed")
)

// New returns an error with the given message and a stack trace.
func New(msg string) error {
	return crdb.NewWithDepth(1, msg)
}

// Newf returns a formatted error with a stack trace.
func Newf(format string, args ...any) error {
	return crdb.NewWithDepthf(1, format, args...)
}

// Wrap annotates err with msg. It returns nil when err is nil.
func Wrap(err error, msg string) error {
	return crdb.WrapWithDepth(1, err, msg)
}

// Wrapf annotates err with a formatted message. It returns nil when err is nil.
func Wrapf(err error, format string, args ...any) error {
	return crdb.WrapWithDepthf(1, err, format, args...)
}

// Mark classifies err as reference while keeping its message and causes intact.
func Mark(err error, reference error) error {
	return crdb.Mark(err, reference)
}

// Is reports whether any error in err's chain matches reference.
func Is(err, reference error) bool {
	return crdb.Is(err, reference)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return crdb.As(err, target)
}

// WithDetail attaches a user-facing detail string to err.
func WithDetail(err error, detail string) error {
	return crdb.WithDetail(err, detail)
}

// Details returns all detail strings attached to err.
func Details(err error) []string {
	return crdb.GetAllDetails(err)
}

// ExitError wraps an error with an exit code and optional suggestion for CLI applications.
// It implements the error interface and supports unwrapping via errors.Unwrap.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is an optional actionable suggestion for the user.
	Suggestion string
}

// NewExitError creates an ExitError with the given underlying error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{
		Err:  err,
		Code: code,
	}
}

// NewUserError creates an ExitError with ExitUser code and a suggestion.
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: suggestion,
	}
}

// NewSystemError creates an ExitError with ExitSystem code and a suggestion.
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitSystem,
		Suggestion: suggestion,
	}
}

// Classify maps a run error onto an ExitError with the exit code and suggestion
// matching its place in the taxonomy. Errors that already are ExitErrors are
// returned unchanged; nil stays nil.
func Classify(err error) *ExitError {
	if err == nil {
		return nil
	}

	var exitErr *ExitError
	if As(err, &exitErr) {
		return exitErr
	}

	switch {
	case Is(err, ErrConfigNotFound):
		return NewUserError(err, "Pass --config or create ./config.json")
	case Is(err, ErrConfigMalformed):
		return NewUserError(err, "Check the config file syntax")
	case Is(err, ErrDirectoryCreation):
		return NewSystemError(err, "Check permissions on the output location")
	case Is(err, ErrConfigInvalid):
		return NewUserError(err, "Run: sbackup validate")
	case Is(err, ErrConnectionFailed):
		return NewSystemError(err, "Run: sbackup check")
	default:
		return NewSystemError(err, "")
	}
}

// Error returns the error message from the underlying error.
// If the underlying error is nil, it returns a generic message with the exit code.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As
// to examine the error chain.
func (e *ExitError) Unwrap() error {
	return e.Err
}
