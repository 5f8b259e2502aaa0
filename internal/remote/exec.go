package remote

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/thoreinstein/sbackup/internal/errors"
)

// Result is the outcome of a process that was started.
// A non-zero ExitCode is not an error.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Executor starts an external process and waits for it to exit.
// It returns an error only when the process could not be run at all.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (*Result, error)
}

// ExecExecutor runs processes with os/exec.
type ExecExecutor struct {
	// WaitDelay bounds how long to wait for output pipes after the process
	// is killed by context cancellation. Zero uses a 5 second default.
	// On Unix the whole process group is killed, so this is only a backstop.
	WaitDelay time.Duration
}

var _ Executor = (*ExecExecutor)(nil)

// Execute runs name with args, capturing stdout and stderr.
func (e *ExecExecutor) Execute(ctx context.Context, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = e.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = 5 * time.Second
	}

	err := cmd.Run()
	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.As(err, &exitErr):
		// Killed processes report -1.
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	case ctx.Err() != nil:
		res.ExitCode = -1
		return res, nil
	default:
		return nil, errors.Wrapf(err, "running %s", name)
	}
}
