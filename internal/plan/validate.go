package plan

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/thoreinstein/sbackup/internal/errors"
	"github.com/thoreinstein/sbackup/internal/validator"
)

// ValidationError carries every issue found in a rejected plan.
// It is always marked ErrConfigInvalid.
type ValidationError struct {
	Result *validator.Result
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + e.Result.Summary()
}

func newValidationError(result *validator.Result) error {
	return errors.Mark(&ValidationError{Result: result}, errors.ErrConfigInvalid)
}

// AsValidationError extracts the issue list from a load error, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// validate checks the raw document and records every problem in result.
// It never stops at the first issue.
func validate(doc *rawDocument, result *validator.Result) {
	if doc.Setup == nil {
		result.AddError("setup", "section is missing", nil)
	} else {
		validateSetup(doc.Setup, result)
	}

	if doc.Items == nil {
		result.AddError("items", "section is missing, nothing to back up", nil)
		return
	}

	seen := make(map[string]int)
	for i, item := range *doc.Items {
		field := fmt.Sprintf("items[%d]", i)

		if item.Name == nil || *item.Name == "" {
			result.AddError(field+".name", "is required", nil)
			continue
		}
		name := *item.Name
		if !filepath.IsLocal(name) || filepath.Clean(name) == "." {
			result.AddError(field+".name", "must name a directory below the output location", name)
		}
		if first, ok := seen[name]; ok {
			result.AddWarning(field+".name", fmt.Sprintf("duplicates items[%d]; the later entry replaces it", first), name)
		} else {
			seen[name] = i
		}

		validatePaths(field+".files", item.Files, result)
		validatePaths(field+".directories", item.Directories, result)

		if isEmptyList(item.Files) && isEmptyList(item.Directories) {
			result.AddWarning(field, "has no files or directories and will not be backed up", name)
		}
	}
}

func validateSetup(s *rawSetup, result *validator.Result) {
	switch {
	case s.Host == nil:
		result.AddError("setup.host", "is required", nil)
	case strings.TrimSpace(*s.Host) == "":
		result.AddError("setup.host", "must not be empty", nil)
	case strings.HasPrefix(*s.Host, "-"):
		result.AddError("setup.host", "must not start with '-'", *s.Host)
	}

	fileFlags, fileKey := pickString(s.FileTransferFlags, "file_transfer_flags", s.RsyncFileFlags, "rsync_file_flags", result)
	dirFlags, dirKey := pickString(s.DirectoryTransferFlags, "directory_transfer_flags", s.RsyncDirFlags, "rsync_dir_flags", result)
	checkFlags(fileKey, fileFlags, result)
	checkFlags(dirKey, dirFlags, result)

	if s.ElevatedMode != nil && s.RsyncSudoMode != nil {
		result.AddWarning("setup.rsync_sudo_mode", "ignored because elevated_mode is set", *s.RsyncSudoMode)
	}

	if s.TransferRetries != nil && *s.TransferRetries < 0 {
		result.AddError("setup.transfer_retries", "must not be negative", *s.TransferRetries)
	}

	if s.TransferTimeout != nil && *s.TransferTimeout != "" {
		d, err := time.ParseDuration(*s.TransferTimeout)
		switch {
		case err != nil:
			result.AddError("setup.transfer_timeout", "is not a duration", *s.TransferTimeout)
		case d < 0:
			result.AddError("setup.transfer_timeout", "must not be negative", *s.TransferTimeout)
		}
	}
}

func checkFlags(key string, flags *string, result *validator.Result) {
	if flags == nil {
		return
	}
	if _, err := shellquote.Split(*flags); err != nil {
		result.AddError("setup."+key, "cannot be split into arguments: "+err.Error(), *flags)
	}
}

// pickString resolves a key that has a legacy spelling. The current
// name wins when both are present. A nil result skips the warning.
func pickString(current *string, currentKey string, legacy *string, legacyKey string, result *validator.Result) (*string, string) {
	switch {
	case current != nil:
		if legacy != nil && result != nil {
			result.AddWarning("setup."+legacyKey, "ignored because "+currentKey+" is set", *legacy)
		}
		return current, currentKey
	case legacy != nil:
		return legacy, legacyKey
	default:
		return nil, currentKey
	}
}

func validatePaths(field string, list *[]string, result *validator.Result) {
	if list == nil {
		return
	}
	for j, p := range *list {
		if strings.TrimSpace(p) == "" {
			result.AddError(fmt.Sprintf("%s[%d]", field, j), "must not be empty", nil)
		}
	}
}

func isEmptyList(list *[]string) bool {
	return list == nil || len(*list) == 0
}
