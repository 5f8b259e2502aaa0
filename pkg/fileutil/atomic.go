// Package fileutil provides bounded reads and atomic writes for the files
// sbackup reads and produces: backup plans and run summaries.
package fileutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/sbackup/internal/errors"
)

// DefaultFilePerm is the mode of files written by AtomicWrite.
const DefaultFilePerm = 0o644

// AtomicWriteFile replaces path with data by writing a temp file in the same
// directory and renaming it over path. A reader sees the old content or the
// new content, never a partial file. The parent directory must exist.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sbackup-*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()
	renamed := false
	defer func() {
		if !renamed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing temp file")
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return errors.Wrap(err, "setting file permissions")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}

	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "replacing %s", path)
	}
	renamed = true
	return nil
}

// AtomicWrite encodes v and writes it to path atomically, creating the
// parent directory when needed. Files ending in .yaml or .yml get YAML,
// everything else gets indented JSON.
func AtomicWrite(path string, v any) error {
	data, err := encode(path, v)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "creating parent directory")
		}
	}

	return AtomicWriteFile(path, data, DefaultFilePerm)
}

func encode(path string, v any) (data []byte, err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		// yaml.Marshal panics on types it cannot encode.
		defer func() {
			if r := recover(); r != nil {
				err = errors.Newf("marshaling YAML: %v", r)
			}
		}()
		data, err = yaml.Marshal(v)
		return data, errors.Wrap(err, "marshaling YAML")
	default:
		data, err = json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "marshaling JSON")
		}
		return append(data, '\n'), nil
	}
}
