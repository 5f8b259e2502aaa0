package fileutil

import (
	"io"
	"os"

	"github.com/thoreinstein/sbackup/internal/errors"
)

// MaxFileSize is the maximum file size we'll read (1MB).
// Backup plans are small; anything larger is almost certainly the wrong file.
const MaxFileSize = 1024 * 1024 // 1MB

var (
	// ErrFileTooLarge indicates that a file exceeded MaxFileSize.
	ErrFileTooLarge = errors.Newf("file exceeds maximum size of %d bytes", MaxFileSize)

	// ErrOpen marks failures to open the file, as opposed to failures while reading it.
	ErrOpen = errors.New("cannot open file")
)

// ReadFileWithLimit reads a file up to MaxFileSize.
// It returns an error if the file is larger than the limit. Open failures
// are marked with ErrOpen so callers can tell a missing file from a bad one.
func ReadFileWithLimit(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "opening file"), ErrOpen)
	}
	defer f.Close()

	// Get file info to fail fast if size is already too large
	info, err := f.Stat()
	if err == nil {
		if info.IsDir() {
			return nil, errors.Mark(errors.Newf("%s is a directory", path), ErrOpen)
		}
		if info.Size() > MaxFileSize {
			return nil, ErrFileTooLarge
		}
	}

	r := io.LimitReader(f, MaxFileSize+1)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}

	if len(data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	return data, nil
}
