package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/thoreinstein/sbackup/internal/errors"
	"github.com/thoreinstein/sbackup/internal/paths"
)

// ConfigCheck reports whether the backup plan loads.
type ConfigCheck struct {
	path string
	load func(ctx context.Context) error
}

var _ Check = (*ConfigCheck)(nil)

// NewConfigCheck creates a check that calls load for the plan at path.
func NewConfigCheck(path string, load func(ctx context.Context) error) *ConfigCheck {
	return &ConfigCheck{path: path, load: load}
}

// Name returns the unique identifier for this check.
func (c *ConfigCheck) Name() string { return "config" }

// Category returns the grouping for this check.
func (c *ConfigCheck) Category() string { return "config" }

// Run loads the plan.
func (c *ConfigCheck) Run(ctx context.Context) *CheckResult {
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Details:  map[string]any{"path": c.path},
	}

	if err := c.load(ctx); err != nil {
		result.Status = SeverityError
		result.Message = err.Error()
		if exitErr := errors.Classify(err); exitErr != nil {
			result.FixHint = exitErr.Suggestion
		}
		return result
	}

	result.Status = SeverityPass
	result.Message = "plan loaded from " + c.path
	return result
}

// BinaryCheck verifies that an external program is on PATH.
type BinaryCheck struct {
	binary   string
	lookPath func(string) (string, error)
}

var _ Check = (*BinaryCheck)(nil)

// NewBinaryCheck creates a check for binary.
func NewBinaryCheck(binary string) *BinaryCheck {
	return &BinaryCheck{binary: binary, lookPath: exec.LookPath}
}

// Name returns the unique identifier for this check, e.g. "rsync-binary".
func (c *BinaryCheck) Name() string {
	return filepath.Base(c.binary) + "-binary"
}

// Category returns the grouping for this check.
func (c *BinaryCheck) Category() string { return "tools" }

// Run looks the binary up.
func (c *BinaryCheck) Run(_ context.Context) *CheckResult {
	path, err := c.lookPath(c.binary)
	if err != nil {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityError,
			Message:  fmt.Sprintf("%s not found on PATH", c.binary),
			FixHint:  "install " + filepath.Base(c.binary) + " with your package manager",
		}
	}
	return &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityPass,
		Message:  "found at " + path,
		Details:  map[string]any{"path": path},
	}
}

// OutputLocationCheck verifies that mirrored files can be written.
// It implements Fixer: a missing output location can be created.
type OutputLocationCheck struct {
	path    string
	missing bool
}

var (
	_ Check = (*OutputLocationCheck)(nil)
	_ Fixer = (*OutputLocationCheck)(nil)
)

// NewOutputLocationCheck creates a check for the output directory at path.
func NewOutputLocationCheck(path string) *OutputLocationCheck {
	return &OutputLocationCheck{path: path}
}

// Name returns the unique identifier for this check.
func (c *OutputLocationCheck) Name() string { return "output-location" }

// Category returns the grouping for this check.
func (c *OutputLocationCheck) Category() string { return "filesystem" }

// Run inspects the output location.
func (c *OutputLocationCheck) Run(_ context.Context) *CheckResult {
	c.missing = false
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Details:  map[string]any{"path": c.path},
	}

	info, err := os.Stat(c.path)
	switch {
	case os.IsNotExist(err):
		c.missing = true
		result.Status = SeverityInfo
		result.Message = "does not exist yet and will be created on the first run"
		result.Fixable = true
		result.FixHint = "sbackup check --fix"
		return result
	case err != nil:
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot stat: %v", err)
		return result
	case !info.IsDir():
		result.Status = SeverityError
		result.Message = "exists but is not a directory"
		result.FixHint = "point setup.output_location at a directory"
		return result
	}

	probe, err := os.CreateTemp(c.path, ".sbackup-check-*")
	if err != nil {
		result.Status = SeverityError
		result.Message = "is not writable"
		result.FixHint = "chmod u+w " + c.path
		return result
	}
	probe.Close()
	os.Remove(probe.Name())

	result.Status = SeverityPass
	result.Message = "writable directory"
	return result
}

// CanFix reports whether the last Run found the location missing.
func (c *OutputLocationCheck) CanFix() bool {
	return c.missing
}

// Fix creates the output location.
func (c *OutputLocationCheck) Fix() []FixResult {
	result := FixResult{Path: c.path}
	if err := paths.EnsureDir(c.path, paths.DefaultDirPerm); err != nil {
		result.Description = "failed to create directory"
		result.Error = err
		return []FixResult{result}
	}
	c.missing = false
	result.Fixed = true
	result.Description = fmt.Sprintf("created with mode %04o", paths.DefaultDirPerm)
	return []FixResult{result}
}

// Prober verifies that a host answers.
type Prober interface {
	Check(ctx context.Context, host string) error
}

// RemoteCheck runs the reachability probe used before every backup.
type RemoteCheck struct {
	host   string
	prober Prober
}

var _ Check = (*RemoteCheck)(nil)

// NewRemoteCheck creates a check that probes host.
func NewRemoteCheck(host string, prober Prober) *RemoteCheck {
	return &RemoteCheck{host: host, prober: prober}
}

// Name returns the unique identifier for this check.
func (c *RemoteCheck) Name() string { return "remote-reachable" }

// Category returns the grouping for this check.
func (c *RemoteCheck) Category() string { return "remote" }

// Run probes the host.
func (c *RemoteCheck) Run(ctx context.Context) *CheckResult {
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Details:  map[string]any{"host": c.host},
	}

	if err := c.prober.Check(ctx, c.host); err != nil {
		result.Status = SeverityError
		result.Message = err.Error()
		if details := errors.Details(err); len(details) > 0 {
			result.Details["stderr"] = strings.Join(details, "\n")
		}
		result.FixHint = fmt.Sprintf("make sure 'ssh %s' logs in without a password prompt", c.host)
		return result
	}

	result.Status = SeverityPass
	result.Message = c.host + " answered"
	return result
}
