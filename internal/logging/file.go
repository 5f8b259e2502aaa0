package logging

import (
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/thoreinstein/sbackup/internal/errors"
)

// Rotation limits for the persistent log file.
const (
	fileMaxSizeMB  = 10
	fileMaxBackups = 5
	fileMaxAgeDays = 90
)

// OpenFile opens the persistent log at path for appending and writes a blank
// line so each run is visually separated from the previous one.
// The returned writer rotates the file once it grows past fileMaxSizeMB.
func OpenFile(path string) (io.WriteCloser, error) {
	if path == "" {
		return nil, errors.New("log file path is empty")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "creating log directory")
		}
	}

	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    fileMaxSizeMB,
		MaxBackups: fileMaxBackups,
		MaxAge:     fileMaxAgeDays,
	}

	if _, err := w.Write([]byte("\n")); err != nil {
		_ = w.Close()
		return nil, errors.Wrapf(err, "opening log file %s", path)
	}

	return w, nil
}
