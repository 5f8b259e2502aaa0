// Package errors provides error handling conventions for the sbackup CLI.
//
// It wraps [github.com/cockroachdb/errors] so the rest of the module has a
// single import for wrapping and classification, defines the sentinel errors
// of the backup failure taxonomy, and an ExitError type for CLI exit codes.
//
// # Sentinel Errors
//
// Fatal run errors are classified with [Mark] so the original cause stays in
// the message while callers still match the class with [Is]:
//
//	err := errors.Mark(errors.Wrap(cause, "opening config"), errors.ErrConfigNotFound)
//	if errors.Is(err, errors.ErrConfigNotFound) {
//	    // abort before any transfer
//	}
//
// Transfer failures are not errors. They are recorded as item status.
//
// # Exit Codes
//
//   - ExitSuccess (0): run completed (individual transfers may have failed)
//   - ExitUser (1): configuration could not be found, parsed or validated
//   - ExitSystem (2): remote unreachable, output directory or process launch failure
//   - ExitPartial (3): strict mode and at least one item failed
//
// # ExitError
//
// [Classify] turns any run error into an [ExitError] carrying the exit code
// and a suggestion for the user:
//
//	if exitErr := errors.Classify(err); exitErr != nil {
//	    os.Exit(exitErr.Code)
//	}
package errors
