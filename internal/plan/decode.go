package plan

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/sbackup/internal/errors"
)

// Format identifies the encoding of a plan document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the document format from the file extension.
// Unknown extensions are treated as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// rawDocument mirrors the on-disk schema. Pointer fields distinguish an
// absent key from its zero value.
type rawDocument struct {
	Setup *rawSetup  `json:"setup" yaml:"setup" toml:"setup"`
	Items *[]rawItem `json:"items" yaml:"items" toml:"items"`
}

type rawSetup struct {
	Host                   *string `json:"host" yaml:"host" toml:"host"`
	OutputLocation         *string `json:"output_location" yaml:"output_location" toml:"output_location"`
	FileTransferFlags      *string `json:"file_transfer_flags" yaml:"file_transfer_flags" toml:"file_transfer_flags"`
	DirectoryTransferFlags *string `json:"directory_transfer_flags" yaml:"directory_transfer_flags" toml:"directory_transfer_flags"`
	ElevatedMode           *bool   `json:"elevated_mode" yaml:"elevated_mode" toml:"elevated_mode"`
	TransferRetries        *int    `json:"transfer_retries" yaml:"transfer_retries" toml:"transfer_retries"`
	TransferTimeout        *string `json:"transfer_timeout" yaml:"transfer_timeout" toml:"transfer_timeout"`

	// Older configs spell the rsync settings differently.
	RsyncFileFlags *string `json:"rsync_file_flags" yaml:"rsync_file_flags" toml:"rsync_file_flags"`
	RsyncDirFlags  *string `json:"rsync_dir_flags" yaml:"rsync_dir_flags" toml:"rsync_dir_flags"`
	RsyncSudoMode  *bool   `json:"rsync_sudo_mode" yaml:"rsync_sudo_mode" toml:"rsync_sudo_mode"`
}

type rawItem struct {
	Name        *string   `json:"name" yaml:"name" toml:"name"`
	Files       *[]string `json:"files" yaml:"files" toml:"files"`
	Directories *[]string `json:"directories" yaml:"directories" toml:"directories"`
}

// decode parses data into the raw schema. Any failure is marked
// ErrConfigMalformed.
func decode(data []byte, format Format) (*rawDocument, error) {
	var doc rawDocument
	var err error

	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	default:
		if len(bytes.TrimSpace(data)) == 0 {
			err = errors.New("document is empty")
			break
		}
		err = json.Unmarshal(data, &doc)
	}

	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parsing %s document", format), errors.ErrConfigMalformed)
	}
	return &doc, nil
}

func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}
