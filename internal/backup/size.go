package backup

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/thoreinstein/sbackup/internal/errors"
)

// DirSize returns the total size of the regular files under root.
// A missing root has size zero.
func DirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return filepath.SkipAll
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "measuring %s", root)
	}
	return total, nil
}
