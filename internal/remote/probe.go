package remote

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/thoreinstein/sbackup/internal/errors"
	"github.com/thoreinstein/sbackup/internal/logging"
)

// probeReply is the line the remote shell must echo back.
const probeReply = "test"

// DefaultSSHCommand is the remote-shell binary used for the probe.
const DefaultSSHCommand = "ssh"

// Checker verifies that the remote host answers before any transfer starts.
type Checker struct {
	exec   Executor
	logger *slog.Logger
	ssh    string
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithSSHCommand overrides the remote-shell binary.
func WithSSHCommand(name string) CheckerOption {
	return func(c *Checker) {
		if name != "" {
			c.ssh = name
		}
	}
}

// WithCheckerLogger sets the logger.
func WithCheckerLogger(logger *slog.Logger) CheckerOption {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChecker creates a Checker that starts processes through exec.
func NewChecker(exec Executor, opts ...CheckerOption) *Checker {
	c := &Checker{
		exec:   exec,
		logger: logging.NewDiscard(),
		ssh:    DefaultSSHCommand,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProbeCommand returns the argument vector of the reachability probe.
func (c *Checker) ProbeCommand(host string) []string {
	return []string{c.ssh, host, `echo "` + probeReply + `"`}
}

// Check runs the probe against host. It succeeds only when the first line
// of the probe's stdout is exactly "test". Any other outcome is
// ErrConnectionFailed, with the probe's stderr attached as a detail.
func (c *Checker) Check(ctx context.Context, host string) error {
	c.logger.Debug("testing connection via ssh", "host", host)

	argv := c.ProbeCommand(host)
	res, err := c.exec.Execute(ctx, argv[0], argv[1:]...)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "probing %s", host), errors.ErrConnectionFailed)
	}

	line, ok := firstLine(res.Stdout)
	switch {
	case !ok:
		return connectionError(errors.Newf("probe of %s produced no output", host), res)
	case line != probeReply:
		return connectionError(errors.Newf("probe of %s returned %q", host, line), res)
	}

	c.logger.Debug("connection successful", "host", host)
	return nil
}

func connectionError(err error, res *Result) error {
	err = errors.Mark(err, errors.ErrConnectionFailed)
	if stderr := string(bytes.TrimSpace(res.Stderr)); stderr != "" {
		err = errors.WithDetail(err, stderr)
	}
	return err
}

// firstLine returns the first line of out without its line ending.
// It reports false when out is empty.
func firstLine(out []byte) (string, bool) {
	if len(out) == 0 {
		return "", false
	}
	line, _, _ := bytes.Cut(out, []byte{'\n'})
	return string(bytes.TrimSuffix(line, []byte{'\r'})), true
}
