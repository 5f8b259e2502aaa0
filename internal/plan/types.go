package plan

import (
	"path/filepath"
	"time"

	"github.com/thoreinstein/sbackup/internal/validator"
)

// Default values substituted for absent setup keys.
const (
	DefaultOutputLocation = "./output/"
	DefaultFileFlags      = "-a --progress --partial"
	DefaultDirFlags       = "-a --progress --partial"
)

// ElevatedFlag asks rsync on the remote side to run through sudo.
const ElevatedFlag = "--rsync-path=sudo rsync"

// Status is the outcome recorded on an item.
type Status string

const (
	// StatusNotStarted is the only legal value before processing, and stays
	// on items that have nothing to transfer.
	StatusNotStarted Status = "not started"
	// StatusSuccess means the item's last transfer exited zero.
	StatusSuccess Status = "success"
	// StatusFailed means the item's last transfer exited non-zero.
	StatusFailed Status = "failed"
)

// Kind selects the flag set used for a transfer.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// Title returns the capitalized kind for log messages.
func (k Kind) Title() string {
	if k == KindDirectory {
		return "Directory"
	}
	return "File"
}

// Setup is the run-wide configuration. It is not modified after Load returns.
type Setup struct {
	Host           string `json:"host" yaml:"host"`
	OutputLocation string `json:"output_location" yaml:"output_location"`

	// FileFlags and DirectoryFlags are argument vectors, already split
	// from the configured flag strings.
	FileFlags      []string `json:"file_transfer_flags" yaml:"file_transfer_flags"`
	DirectoryFlags []string `json:"directory_transfer_flags" yaml:"directory_transfer_flags"`

	ElevatedMode bool `json:"elevated_mode" yaml:"elevated_mode"`

	// TransferRetries is how many times a failed transfer is retried.
	TransferRetries int `json:"transfer_retries" yaml:"transfer_retries"`
	// TransferTimeout bounds each transfer attempt. Zero means no limit.
	TransferTimeout time.Duration `json:"transfer_timeout" yaml:"transfer_timeout"`
}

// Flags returns the flag vector for kind.
func (s *Setup) Flags(kind Kind) []string {
	if kind == KindDirectory {
		return s.DirectoryFlags
	}
	return s.FileFlags
}

// Destination returns the local directory an item is mirrored into,
// with a trailing separator so rsync treats it as a directory.
func (s *Setup) Destination(name string) string {
	return filepath.Join(s.OutputLocation, name) + string(filepath.Separator)
}

// Item is one named backup target.
type Item struct {
	Name        string   `json:"name" yaml:"name"`
	Files       []string `json:"files" yaml:"files"`
	Directories []string `json:"directories" yaml:"directories"`
	Status      Status   `json:"status" yaml:"status"`

	// Size is the number of bytes mirrored locally, measured after processing.
	Size int64 `json:"size,omitempty" yaml:"size,omitempty"`
}

// Empty reports whether the item has nothing to transfer.
func (it *Item) Empty() bool {
	return len(it.Files) == 0 && len(it.Directories) == 0
}

// Plan is the result of a successful Load.
type Plan struct {
	Path  string `json:"path" yaml:"path"`
	Setup Setup  `json:"setup" yaml:"setup"`
	Items *Items `json:"items" yaml:"items"`

	// Warnings lists accepted but suspicious settings.
	Warnings []validator.Issue `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}
