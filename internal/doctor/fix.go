package doctor

// Fixer is an optional interface that checks can implement to support
// remediation with `sbackup check --fix`.
type Fixer interface {
	// CanFix returns true if the last Run found something fixable.
	CanFix() bool

	// Fix attempts to remediate what Run found. Must be called after Run.
	Fix() []FixResult
}

// FixResult describes the outcome of an attempted fix operation.
type FixResult struct {
	// Path is the file or directory that was targeted for fixing.
	Path string `json:"path"`

	// Fixed indicates whether the fix was successfully applied.
	Fixed bool `json:"fixed"`

	// Description explains what was fixed or why it couldn't be fixed.
	Description string `json:"description"`

	// Error contains the error if the fix failed.
	Error error `json:"-"`
}
