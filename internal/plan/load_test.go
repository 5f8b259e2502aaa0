package plan

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/sbackup/internal/errors"
	"github.com/thoreinstein/sbackup/internal/logging"
)

// writeConfig writes content to dir/name and returns the path.
func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func bufferLogger(t *testing.T) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	return logging.New(logging.Config{Level: slog.LevelDebug, Output: &buf}), &buf
}

func TestLoad_DeclarationOrder(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "output")
	path := writeConfig(t, dir, "config.json", `{
		"setup": {"host": "nas", "output_location": "`+out+`"},
		"items": [
			{"name": "zeta", "files": ["/etc/hosts"]},
			{"name": "alpha", "directories": ["/var/www"]},
			{"name": "mid", "files": ["/a", "/b"], "directories": ["/c"]}
		]
	}`)

	p, err := Load(context.Background(), path)
	require.NoError(t, err)

	var names []string
	for _, it := range p.Items.All() {
		names = append(names, it.Name)
		assert.Equal(t, StatusNotStarted, it.Status)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
	assert.Equal(t, path, p.Path)
	assert.Equal(t, "nas", p.Setup.Host)
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, "config.json", `{"setup": {"host": "nas"}, "items": [{"name": "web", "files": ["/etc/hosts"]}]}`)
	logger, buf := bufferLogger(t)

	p, err := Load(context.Background(), path, WithLogger(logger))
	require.NoError(t, err)

	assert.Equal(t, DefaultOutputLocation, p.Setup.OutputLocation)
	assert.Equal(t, []string{"-a", "--progress", "--partial"}, p.Setup.FileFlags)
	assert.Equal(t, []string{"-a", "--progress", "--partial"}, p.Setup.DirectoryFlags)
	assert.False(t, p.Setup.ElevatedMode)
	assert.Zero(t, p.Setup.TransferRetries)
	assert.Zero(t, p.Setup.TransferTimeout)

	logs := buf.String()
	assert.Contains(t, logs, "INFO  No output location specified in config, using default ./output/")
	assert.Contains(t, logs, "INFO  No file transfer flags specified in config, using default -a --progress --partial")
	assert.Contains(t, logs, "INFO  No directory transfer flags specified in config, using default -a --progress --partial")
	assert.Contains(t, logs, "INFO  No elevated mode specified in config, using default false")

	info, err := os.Stat(filepath.Join(dir, "output", "web"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoad_ConfiguredValues(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.json", `{
		"setup": {
			"host": "admin@nas",
			"output_location": "`+dir+`/out/",
			"file_transfer_flags": "-a --checksum",
			"directory_transfer_flags": "-a --delete --rsync-path=\"sudo rsync\"",
			"elevated_mode": true,
			"transfer_retries": 2,
			"transfer_timeout": "30m"
		},
		"items": [{"name": "web", "directories": ["/var/www"]}]
	}`)
	logger, buf := bufferLogger(t)

	p, err := Load(context.Background(), path, WithLogger(logger))
	require.NoError(t, err)

	assert.Equal(t, []string{"-a", "--checksum"}, p.Setup.FileFlags)
	assert.Equal(t, []string{"-a", "--delete", "--rsync-path=sudo rsync"}, p.Setup.DirectoryFlags)
	assert.True(t, p.Setup.ElevatedMode)
	assert.Equal(t, 2, p.Setup.TransferRetries)
	assert.Equal(t, 30*time.Minute, p.Setup.TransferTimeout)
	assert.NotContains(t, buf.String(), "using default", "configured values must not be reported as defaults")
	assert.Contains(t, buf.String(), "DEBUG elevated mode configured elevated_mode=true")
}

func TestLoad_LegacyKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.json", `{
		"setup": {
			"host": "nas",
			"output_location": "`+dir+`/",
			"rsync_file_flags": "-av",
			"rsync_dir_flags": "-avz",
			"rsync_sudo_mode": true
		},
		"items": []
	}`)

	p, err := Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"-av"}, p.Setup.FileFlags)
	assert.Equal(t, []string{"-avz"}, p.Setup.DirectoryFlags)
	assert.True(t, p.Setup.ElevatedMode)
	assert.Equal(t, 0, p.Items.Len())
}

func TestLoad_CurrentKeyWinsOverLegacy(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.json", `{
		"setup": {"host": "nas", "output_location": "`+dir+`/", "file_transfer_flags": "-a", "rsync_file_flags": "-z"},
		"items": []
	}`)

	p, err := Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"-a"}, p.Setup.FileFlags)
	require.Len(t, p.Warnings, 1)
	assert.Equal(t, "setup.rsync_file_flags", p.Warnings[0].Field)
}

func TestLoad_Formats(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "output")

	docs := map[string]string{
		"config.yaml": `
setup:
  host: nas
  output_location: ` + out + `
  elevated_mode: true
items:
  - name: web
    files: [/etc/nginx/nginx.conf]
    directories: [/var/www]
  - name: db
    directories: [/var/lib/postgresql]
`,
		"config.toml": `
[setup]
host = "nas"
output_location = "` + out + `"
elevated_mode = true

[[items]]
name = "web"
files = ["/etc/nginx/nginx.conf"]
directories = ["/var/www"]

[[items]]
name = "db"
directories = ["/var/lib/postgresql"]
`,
		"config.json": `{
  "setup": {"host": "nas", "output_location": "` + out + `", "elevated_mode": true},
  "items": [
    {"name": "web", "files": ["/etc/nginx/nginx.conf"], "directories": ["/var/www"]},
    {"name": "db", "directories": ["/var/lib/postgresql"]}
  ]
}`,
	}

	want := []Item{
		{Name: "web", Files: []string{"/etc/nginx/nginx.conf"}, Directories: []string{"/var/www"}, Status: StatusNotStarted},
		{Name: "db", Directories: []string{"/var/lib/postgresql"}, Status: StatusNotStarted},
	}

	for name, content := range docs {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, dir, name, content)

			p, err := Load(context.Background(), path)
			require.NoError(t, err)

			assert.Equal(t, "nas", p.Setup.Host)
			assert.True(t, p.Setup.ElevatedMode)
			assert.Equal(t, want, p.Items.All())
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		content   string
		wantClass error
		wantField []string
	}{
		{
			name:      "missing setup host",
			content:   `{"setup": {}, "items": [{"name": "web", "files": ["/etc/hosts"]}]}`,
			wantClass: errors.ErrConfigInvalid,
			wantField: []string{"setup.host"},
		},
		{
			name:      "empty host",
			content:   `{"setup": {"host": "  "}, "items": []}`,
			wantClass: errors.ErrConfigInvalid,
			wantField: []string{"setup.host"},
		},
		{
			name:      "host looks like an option",
			content:   `{"setup": {"host": "-oProxyCommand=x"}, "items": []}`,
			wantClass: errors.ErrConfigInvalid,
			wantField: []string{"setup.host"},
		},
		{
			name:      "missing setup and items",
			content:   `{}`,
			wantClass: errors.ErrConfigInvalid,
			wantField: []string{"setup", "items"},
		},
		{
			name:      "missing items",
			content:   `{"setup": {"host": "nas"}}`,
			wantClass: errors.ErrConfigInvalid,
			wantField: []string{"items"},
		},
		{
			name:      "item without name",
			content:   `{"setup": {"host": "nas"}, "items": [{"files": ["/etc/hosts"]}]}`,
			wantClass: errors.ErrConfigInvalid,
			wantField: []string{"items[0].name"},
		},
		{
			name:      "item name escapes the output location",
			content:   `{"setup": {"host": "nas"}, "items": [{"name": "../escaped", "files": ["/etc/hosts"]}, {"name": "a/../../x", "files": ["/etc/hosts"]}, {"name": "/srv", "files": ["/etc/hosts"]}, {"name": "web/..", "files": ["/etc/hosts"]}]}`,
			wantClass: errors.ErrConfigInvalid,
			wantField: []string{"items[0].name", "items[1].name", "items[2].name", "items[3].name"},
		},
		{
			name:      "every issue is reported",
			content:   `{"setup": {"transfer_retries": -1, "transfer_timeout": "soon", "file_transfer_flags": "-a '--x"}, "items": [{"name": "..", "files": [""]}]}`,
			wantClass: errors.ErrConfigInvalid,
			wantField: []string{
				"setup.host",
				"setup.file_transfer_flags",
				"setup.transfer_retries",
				"setup.transfer_timeout",
				"items[0].name",
				"items[0].files[0]",
			},
		},
		{
			name:      "malformed json",
			content:   `{"setup": {"host": "nas"},`,
			wantClass: errors.ErrConfigMalformed,
		},
		{
			name:      "empty json",
			content:   ``,
			wantClass: errors.ErrConfigMalformed,
		},
		{
			name:      "wrong type",
			content:   `{"setup": {"host": 42}, "items": []}`,
			wantClass: errors.ErrConfigMalformed,
		},
		{
			name:      "malformed yaml",
			file:      "config.yaml",
			content:   "setup: [unclosed",
			wantClass: errors.ErrConfigMalformed,
		},
		{
			name:      "malformed toml",
			file:      "config.toml",
			content:   "[setup\nhost = ",
			wantClass: errors.ErrConfigMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			file := tt.file
			if file == "" {
				file = "config.json"
			}
			path := writeConfig(t, dir, file, tt.content)

			p, err := Load(context.Background(), path)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, tt.wantClass), "error %v is not %v", err, tt.wantClass)

			if tt.wantClass == errors.ErrConfigMalformed {
				assert.False(t, errors.Is(err, errors.ErrConfigInvalid), "malformed must short-circuit before validation")
			}

			if tt.wantField != nil {
				ve, ok := AsValidationError(err)
				require.True(t, ok)
				var fields []string
				for _, issue := range ve.Result.Errors() {
					fields = append(fields, issue.Field)
				}
				assert.Equal(t, tt.wantField, fields)
			}

			_, statErr := os.Stat(filepath.Join(dir, "output"))
			assert.True(t, os.IsNotExist(statErr), "no directories may be created for a rejected plan")
		})
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "config.json"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfigNotFound))
	assert.False(t, errors.Is(err, errors.ErrConfigMalformed))
}

func TestLoad_ItemWithoutFilesOrDirectories(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.json", `{"setup": {"host": "nas", "output_location": "`+dir+`/"}, "items": [{"name": "empty"}]}`)
	logger, buf := bufferLogger(t)

	p, err := Load(context.Background(), path, WithLogger(logger))
	require.NoError(t, err)

	item := p.Items.At(0)
	assert.Empty(t, item.Files)
	assert.Empty(t, item.Directories)
	assert.True(t, item.Empty())
	assert.Contains(t, buf.String(), "item has no files item=empty")
	assert.Contains(t, buf.String(), "item has no directories item=empty")
	require.Len(t, p.Warnings, 1)
	assert.Equal(t, "items[0]", p.Warnings[0].Field)
}

func TestLoad_DuplicateNamesReplaceInPlace(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.json", `{
		"setup": {"host": "nas", "output_location": "`+dir+`/"},
		"items": [
			{"name": "web", "files": ["/old"]},
			{"name": "db", "files": ["/db"]},
			{"name": "web", "directories": ["/new"]}
		]
	}`)
	logger, buf := bufferLogger(t)

	p, err := Load(context.Background(), path, WithLogger(logger))
	require.NoError(t, err)

	require.Equal(t, 2, p.Items.Len())
	web := p.Items.At(0)
	assert.Equal(t, "web", web.Name, "replacement keeps the first position")
	assert.Nil(t, web.Files)
	assert.Equal(t, []string{"/new"}, web.Directories)
	assert.Equal(t, "db", p.Items.At(1).Name)
	assert.Contains(t, buf.String(), "item replaces an earlier item with the same name item=web")
}

func TestLoad_Idempotent(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "output")
	path := writeConfig(t, dir, "config.json", `{"setup": {"host": "nas", "output_location": "`+out+`"}, "items": [{"name": "web", "files": ["/x"]}]}`)

	_, err := Load(context.Background(), path)
	require.NoError(t, err)

	existing := filepath.Join(out, "web", "hosts")
	require.NoError(t, os.WriteFile(existing, []byte("127.0.0.1 localhost\n"), 0o600))
	require.NoError(t, os.Chmod(filepath.Join(out, "web"), 0o750))

	_, err = Load(context.Background(), path)
	require.NoError(t, err)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1 localhost\n", string(data))

	info, err := os.Stat(filepath.Join(out, "web"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm(), "existing directories are not altered")
}

func TestLoad_DirectoryCreationFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := writeConfig(t, dir, "output", "not a directory")
	path := writeConfig(t, dir, "config.json", `{"setup": {"host": "nas", "output_location": "`+blocker+`"}, "items": [{"name": "web", "files": ["/x"]}]}`)

	_, err := Load(context.Background(), path)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDirectoryCreation))
	assert.True(t, errors.Is(err, errors.ErrConfigInvalid))
}

func TestLoad_WithoutDirectories(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "output")
	path := writeConfig(t, dir, "config.json", `{"setup": {"host": "nas", "output_location": "`+out+`"}, "items": [{"name": "web", "files": ["/x"]}]}`)

	_, err := Load(context.Background(), path, WithoutDirectories())
	require.NoError(t, err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	path := writeConfig(t, t.TempDir(), "config.json", `{"setup": {"host": "nas", "output_location": "~/backups"}, "items": [{"name": "web", "files": ["/x"]}]}`)

	p, err := Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "backups"), p.Setup.OutputLocation)
	assert.DirExists(t, filepath.Join(home, "backups", "web"))
}

func TestLoad_Cancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.json", `{"setup": {"host": "nas", "output_location": "`+dir+`/out"}, "items": [{"name": "web", "files": ["/x"]}]}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParse(t *testing.T) {
	p, err := Parse([]byte("setup:\n  host: nas\nitems:\n  - name: web\n    files: [/etc/hosts]\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "nas", p.Setup.Host)
	assert.Equal(t, 1, p.Items.Len())
}

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"config.json":     FormatJSON,
		"config.yaml":     FormatYAML,
		"config.YML":      FormatYAML,
		"config.toml":     FormatTOML,
		"config":          FormatJSON,
		"backup.conf.txt": FormatJSON,
	}
	for path, want := range tests {
		assert.Equal(t, want, FormatFor(path), path)
	}
}

func TestLoad_NestedItemNameStaysInside(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	path := writeConfig(t, dir, "config.json", `{"setup": {"host": "nas", "output_location": "`+filepath.ToSlash(out)+`"},
		"items": [{"name": "hosts/web", "files": ["/etc/hosts"]}]}`)

	p, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(out, "hosts", "web"))
	assert.Equal(t, 1, p.Items.Len())

	bad := writeConfig(t, dir, "escape.json", `{"setup": {"host": "nas", "output_location": "`+filepath.ToSlash(out)+`"},
		"items": [{"name": "../escaped", "files": ["/etc/hosts"]}]}`)
	_, err = Load(context.Background(), bad)
	require.Error(t, err)
	assert.NoDirExists(t, filepath.Join(dir, "escaped"))
}
