package remote

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v3"
	"github.com/kballard/go-shellquote"

	"github.com/thoreinstein/sbackup/internal/doctor"
	"github.com/thoreinstein/sbackup/internal/errors"
	"github.com/thoreinstein/sbackup/internal/logging"
	"github.com/thoreinstein/sbackup/internal/plan"
)

// DefaultRsyncCommand is the transfer binary.
const DefaultRsyncCommand = "rsync"

// Transferer mirrors single remote paths to local directories with rsync.
type Transferer struct {
	setup      plan.Setup
	exec       Executor
	logger     *slog.Logger
	rsync      string
	newBackOff func() backoff.BackOff
}

// TransferOption configures a Transferer.
type TransferOption func(*Transferer)

// WithRsyncCommand overrides the transfer binary.
func WithRsyncCommand(name string) TransferOption {
	return func(t *Transferer) {
		if name != "" {
			t.rsync = name
		}
	}
}

// WithTransferLogger sets the logger.
func WithTransferLogger(logger *slog.Logger) TransferOption {
	return func(t *Transferer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithBackOff sets the delay policy between retries of a failed transfer.
func WithBackOff(fn func() backoff.BackOff) TransferOption {
	return func(t *Transferer) {
		if fn != nil {
			t.newBackOff = fn
		}
	}
}

func defaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = time.Minute
	bo.MaxElapsedTime = 0
	return bo
}

// NewTransferer creates a Transferer for setup. The setup is copied.
func NewTransferer(setup plan.Setup, exec Executor, opts ...TransferOption) *Transferer {
	t := &Transferer{
		setup:      setup,
		exec:       exec,
		logger:     logging.NewDiscard(),
		rsync:      DefaultRsyncCommand,
		newBackOff: defaultBackOff,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Command returns the argument vector for mirroring source into destDir:
// the transfer binary, the kind's flags, the elevation flag when enabled,
// host:source and destDir. Source is passed through verbatim.
func (t *Transferer) Command(source, destDir string, kind plan.Kind) []string {
	flags := t.setup.Flags(kind)
	argv := make([]string, 0, len(flags)+4)
	argv = append(argv, t.rsync)
	argv = append(argv, flags...)
	if t.setup.ElevatedMode {
		argv = append(argv, plan.ElevatedFlag)
	}
	return append(argv, t.setup.Host+":"+source, destDir)
}

// Run mirrors one path and classifies the outcome. A non-zero exit is
// reported as StatusFailed, never as an error. The error return is
// reserved for processes that could not be started and for cancellation.
//
// With transfer retries configured, a failed attempt is repeated after a
// backoff delay and the last attempt decides the status.
func (t *Transferer) Run(ctx context.Context, source, destDir string, kind plan.Kind) (plan.Status, error) {
	argv := t.Command(source, destDir, kind)
	t.logger.Debug("fetching "+kind.String(), "source", source)
	t.logger.Debug("rsync command", "cmd", shellquote.Join(doctor.RedactArgv(argv)...))

	bo := t.newBackOff()
	bo.Reset()

	for attempt := 0; ; attempt++ {
		res, err := t.attempt(ctx, argv)
		if err != nil {
			return plan.StatusFailed, errors.Wrapf(err, "%s %s", kind, source)
		}
		if res.ExitCode == 0 {
			t.logger.Info(kind.Title() + " " + source + " fetched")
			return plan.StatusSuccess, nil
		}
		if err := ctx.Err(); err != nil {
			return plan.StatusFailed, errors.Wrapf(err, "%s %s", kind, source)
		}

		delay := backoff.Stop
		if attempt < t.setup.TransferRetries {
			delay = bo.NextBackOff()
		}
		if delay == backoff.Stop {
			t.logger.Error(kind.Title()+" "+source+" failed to fetch",
				"return_code", res.ExitCode,
				"stderr", string(bytes.TrimSpace(res.Stderr)),
			)
			return plan.StatusFailed, nil
		}

		t.logger.Warn(kind.Title()+" "+source+" failed to fetch, retrying",
			"return_code", res.ExitCode,
			"attempt", attempt+1,
			"delay", delay,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return plan.StatusFailed, errors.Wrapf(ctx.Err(), "%s %s", kind, source)
		case <-timer.C:
		}
	}
}

// attempt runs argv once, bounded by the configured transfer timeout.
func (t *Transferer) attempt(ctx context.Context, argv []string) (*Result, error) {
	if t.setup.TransferTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.setup.TransferTimeout)
		defer cancel()
	}

	return t.exec.Execute(ctx, argv[0], argv[1:]...)
}
