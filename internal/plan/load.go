package plan

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/thoreinstein/sbackup/internal/errors"
	"github.com/thoreinstein/sbackup/internal/logging"
	"github.com/thoreinstein/sbackup/internal/paths"
	"github.com/thoreinstein/sbackup/internal/validator"
	"github.com/thoreinstein/sbackup/pkg/fileutil"
)

// Option configures Load.
type Option func(*loader)

type loader struct {
	logger     *slog.Logger
	createDirs bool
}

// WithLogger sets the logger used to report defaults and progress.
func WithLogger(logger *slog.Logger) Option {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithoutDirectories skips creating the per-item output directories.
// Used by read-only commands such as validate.
func WithoutDirectories() Option {
	return func(l *loader) {
		l.createDirs = false
	}
}

// Load reads, validates and normalizes the plan at path, then makes sure
// every item has an output directory.
//
// Errors are marked with ErrConfigNotFound when the file cannot be opened,
// ErrConfigMalformed when it cannot be parsed and ErrConfigInvalid when it
// fails validation or an output directory cannot be created.
func Load(ctx context.Context, path string, opts ...Option) (*Plan, error) {
	l := &loader{logger: logging.NewDiscard(), createDirs: true}
	for _, opt := range opts {
		opt(l)
	}

	l.logger.Debug("opening config", "path", path)

	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		if errors.Is(err, fileutil.ErrOpen) {
			return nil, errors.Mark(errors.Wrapf(err, "config file %s", path), errors.ErrConfigNotFound)
		}
		return nil, errors.Mark(errors.Wrapf(err, "config file %s", path), errors.ErrConfigMalformed)
	}

	p, err := l.parse(data, FormatFor(path))
	if err != nil {
		return nil, err
	}
	p.Path = path

	if l.createDirs {
		if err := l.ensureOutputDirs(ctx, p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Parse decodes, validates and normalizes a plan document without
// touching the filesystem.
func Parse(data []byte, format Format, opts ...Option) (*Plan, error) {
	l := &loader{logger: logging.NewDiscard()}
	for _, opt := range opts {
		opt(l)
	}
	return l.parse(data, format)
}

func (l *loader) parse(data []byte, format Format) (*Plan, error) {
	doc, err := decode(data, format)
	if err != nil {
		return nil, err
	}

	result := &validator.Result{}
	validate(doc, result)
	if result.HasErrors() {
		return nil, newValidationError(result)
	}

	setup, err := l.normalizeSetup(doc.Setup)
	if err != nil {
		result.AddError("setup.output_location", err.Error(), nil)
		return nil, newValidationError(result)
	}

	warnings := result.Warnings()
	for _, w := range warnings {
		l.logger.Warn(w.Message, "field", w.Field)
	}

	return &Plan{
		Setup:    setup,
		Items:    l.buildItems(*doc.Items),
		Warnings: warnings,
	}, nil
}

// normalizeSetup fills in defaults. The raw setup has already passed validation.
func (l *loader) normalizeSetup(raw *rawSetup) (Setup, error) {
	s := Setup{Host: *raw.Host}
	l.logger.Debug("host configured", "host", s.Host)

	output := DefaultOutputLocation
	if raw.OutputLocation != nil {
		output = *raw.OutputLocation
		l.logger.Debug("output location configured", "output_location", output)
	} else {
		l.logger.Info("No output location specified in config, using default " + DefaultOutputLocation)
	}
	expanded, err := paths.Expand(output)
	if err != nil {
		return Setup{}, err
	}
	s.OutputLocation = expanded

	fileFlags, fileKey := pickString(raw.FileTransferFlags, "file_transfer_flags", raw.RsyncFileFlags, "rsync_file_flags", nil)
	s.FileFlags = l.flags(fileFlags, fileKey, DefaultFileFlags, "file")

	dirFlags, dirKey := pickString(raw.DirectoryTransferFlags, "directory_transfer_flags", raw.RsyncDirFlags, "rsync_dir_flags", nil)
	s.DirectoryFlags = l.flags(dirFlags, dirKey, DefaultDirFlags, "directory")

	switch {
	case raw.ElevatedMode != nil:
		s.ElevatedMode = *raw.ElevatedMode
		l.logger.Debug("elevated mode configured", "elevated_mode", s.ElevatedMode)
	case raw.RsyncSudoMode != nil:
		s.ElevatedMode = *raw.RsyncSudoMode
		l.logger.Debug("elevated mode configured", "rsync_sudo_mode", s.ElevatedMode)
	default:
		l.logger.Info("No elevated mode specified in config, using default false")
	}

	if raw.TransferRetries != nil {
		s.TransferRetries = *raw.TransferRetries
		l.logger.Debug("transfer retries configured", "transfer_retries", s.TransferRetries)
	}
	if raw.TransferTimeout != nil && *raw.TransferTimeout != "" {
		// Already checked by validate.
		s.TransferTimeout, _ = time.ParseDuration(*raw.TransferTimeout)
		l.logger.Debug("transfer timeout configured", "transfer_timeout", s.TransferTimeout)
	}

	return s, nil
}

func (l *loader) flags(configured *string, key, def, kind string) []string {
	value := def
	if configured != nil {
		value = *configured
		l.logger.Debug(kind+" transfer flags configured", key, value)
	} else {
		l.logger.Info("No " + kind + " transfer flags specified in config, using default " + def)
	}
	// Already checked by validate; defaults always split.
	argv, _ := shellquote.Split(value)
	return argv
}

func (l *loader) buildItems(raw []rawItem) *Items {
	l.logger.Debug("loading items")

	items := NewItems()
	for _, r := range raw {
		item := Item{Name: *r.Name}

		if r.Files != nil {
			item.Files = append([]string(nil), *r.Files...)
		} else {
			l.logger.Debug("item has no files", "item", item.Name)
		}
		if r.Directories != nil {
			item.Directories = append([]string(nil), *r.Directories...)
		} else {
			l.logger.Debug("item has no directories", "item", item.Name)
		}

		if items.Add(item) {
			l.logger.Debug("item replaces an earlier item with the same name", "item", item.Name)
		}
		l.logger.Debug("item loaded",
			"item", item.Name,
			"files", len(item.Files),
			"directories", len(item.Directories),
		)
	}
	return items
}

// ensureOutputDirs creates output_location/<name>/ for every item.
// Existing directories are left untouched.
func (l *loader) ensureOutputDirs(ctx context.Context, p *Plan) error {
	for _, item := range p.Items.All() {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "creating output directories")
		}

		dir := filepath.Join(p.Setup.OutputLocation, item.Name)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			l.logger.Debug("output directory already exists", "item", item.Name, "path", dir)
			continue
		}

		l.logger.Debug("creating output directory", "item", item.Name, "path", dir)
		if err := paths.EnsureDir(dir, paths.DefaultDirPerm); err != nil {
			return errors.Mark(
				errors.Mark(errors.Wrapf(err, "output directory for item %s", item.Name), errors.ErrDirectoryCreation),
				errors.ErrConfigInvalid,
			)
		}
	}
	return nil
}
