package backup

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/thoreinstein/sbackup/internal/errors"
	"github.com/thoreinstein/sbackup/internal/logging"
	"github.com/thoreinstein/sbackup/internal/plan"
	"github.com/thoreinstein/sbackup/internal/report"
)

// ConnectionChecker verifies the remote host before any transfer.
type ConnectionChecker interface {
	Check(ctx context.Context, host string) error
}

// TransferRunner mirrors one remote path into a local directory.
type TransferRunner interface {
	Run(ctx context.Context, source, destDir string, kind plan.Kind) (plan.Status, error)
}

// OutcomeReporter summarizes the final item statuses.
type OutcomeReporter interface {
	Report(items []plan.Item) *report.Summary
}

// Orchestrator runs a backup plan.
type Orchestrator struct {
	checker     ConnectionChecker
	transfer    TransferRunner
	reporter    OutcomeReporter
	logger      *slog.Logger
	parallelism int
	now         func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithParallelism sets how many items may be processed at once.
// Values below 1 are ignored.
func WithParallelism(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

// NewOrchestrator creates an Orchestrator from its collaborators.
func NewOrchestrator(checker ConnectionChecker, transfer TransferRunner, reporter OutcomeReporter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		checker:     checker,
		transfer:    transfer,
		reporter:    reporter,
		logger:      logging.NewDiscard(),
		parallelism: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run checks the connection, processes every item and reports the outcome.
//
// It returns an error without touching any item when the connection check
// fails, and stops early when a transfer cannot be started or ctx is done.
// Failed transfers are reflected in the summary, not in the error.
func (o *Orchestrator) Run(ctx context.Context, setup plan.Setup, items *plan.Items) (*report.Summary, error) {
	started := o.now()

	if err := o.checker.Check(ctx, setup.Host); err != nil {
		return nil, err
	}

	o.logger.Debug("starting backup", "items", items.Len(), "parallelism", o.parallelism)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)
	for i := range items.Len() {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return o.processItem(gctx, setup, items, i)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "backup interrupted")
	}

	o.logger.Debug("backup complete")

	summary := o.reporter.Report(items.All())
	summary.Host = setup.Host
	summary.StartedAt = started
	summary.FinishedAt = o.now()
	return summary, nil
}

// processItem runs the item's transfers in order and records the status
// of the last one at index i.
func (o *Orchestrator) processItem(ctx context.Context, setup plan.Setup, items *plan.Items, i int) error {
	item := items.At(i)
	logger := o.logger.With("item", item.Name)
	logger.Debug("processing item")

	dest := setup.Destination(item.Name)
	last := plan.StatusNotStarted

	run := func(source string, kind plan.Kind) error {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "item %s", item.Name)
		}
		status, err := o.transfer.Run(ctx, source, dest, kind)
		if err != nil {
			return errors.Wrapf(err, "item %s", item.Name)
		}
		last = status
		return nil
	}

	for _, file := range item.Files {
		if err := run(file, plan.KindFile); err != nil {
			return err
		}
	}
	for _, dir := range item.Directories {
		if err := run(dir, plan.KindDirectory); err != nil {
			return err
		}
	}

	items.SetStatus(i, last)

	if !item.Empty() {
		size, err := DirSize(filepath.Join(setup.OutputLocation, item.Name))
		if err != nil {
			logger.Debug("cannot measure mirrored size", "error", err)
		} else {
			items.SetSize(i, size)
		}
		logger.Debug("item complete", "status", last, "size", humanize.IBytes(uint64(size)))
		return nil
	}

	logger.Debug("item has nothing to transfer")
	return nil
}
