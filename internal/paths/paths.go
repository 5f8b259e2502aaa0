package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/mitchellh/go-homedir"

	"github.com/thoreinstein/sbackup/internal/errors"
)

// AppName is the directory name used under the XDG config home.
const AppName = "sbackup"

// DefaultConfigFile is used when no config file is found anywhere.
const DefaultConfigFile = "config.json"

// ConfigExtensions lists the config formats in search order.
var ConfigExtensions = []string{".json", ".yaml", ".yml", ".toml"}

// ErrHomeDirNotFound indicates the user's home directory could not be determined.
var ErrHomeDirNotFound = errors.New("home directory not found")

// DefaultDirPerm is the permission for newly created output directories.
const DefaultDirPerm = 0o755

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	if err := os.MkdirAll(path, perm); err != nil {
		return errors.Wrapf(err, "creating directory %s", path)
	}
	return nil
}

// Expand replaces a leading "~" with the user's home directory.
// Paths without a tilde are returned unchanged.
func Expand(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "expanding %q", path), ErrHomeDirNotFound)
	}
	return expanded, nil
}

// ConfigHome returns the XDG config home directory.
// On Linux: ~/.config
// On macOS: ~/Library/Application Support
func ConfigHome() string {
	return xdg.ConfigHome
}

// AppConfigDir returns the sbackup directory under the XDG config home.
func AppConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// FindConfig returns the first config file that exists, searching the
// working directory and then the XDG config directories. The second return
// value reports whether a file was actually found; when it is false the
// path is DefaultConfigFile.
func FindConfig() (string, bool) {
	for _, ext := range ConfigExtensions {
		name := "config" + ext
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			return name, true
		}
	}

	for _, ext := range ConfigExtensions {
		if path, err := xdg.SearchConfigFile(filepath.Join(AppName, "config"+ext)); err == nil {
			return path, true
		}
	}

	return DefaultConfigFile, false
}
