package commands

import (
	"github.com/spf13/cobra"

	"github.com/thoreinstein/sbackup/internal/backup"
	"github.com/thoreinstein/sbackup/internal/errors"
	"github.com/thoreinstein/sbackup/internal/logging"
	"github.com/thoreinstein/sbackup/internal/plan"
	"github.com/thoreinstein/sbackup/internal/remote"
	"github.com/thoreinstein/sbackup/internal/report"
)

func newRunCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "run",
		Short: "Run the backup plan",
		Long: `Load the plan, check the remote host, mirror every item and print a summary.

This is also what plain 'sbackup' does.`,
		Args: cobra.NoArgs,
		RunE: a.runBackup,
	}
	addRunFlags(c)
	return c
}

// addRunFlags registers the flags that only affect a backup run.
// They exist on both the root command and run.
func addRunFlags(c *cobra.Command) {
	c.Flags().IntP("parallel", "p", 1, "number of items transferred at once")
	c.Flags().String("report", "", "write the run summary to this file (.json, .yaml or .yml)")
	c.Flags().Bool("strict", false, "exit with code 3 when any item failed")
}

func (a *app) runBackup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s := a.settings
	logger := logging.FromContext(ctx)

	if !s.ConfigFound {
		logger.Debug("no config file found, trying the default", "path", s.Config)
	}

	p, err := plan.Load(ctx, s.Config, plan.WithLogger(logger))
	if err != nil {
		return err
	}

	executor := &remote.ExecExecutor{}
	orchestrator := backup.NewOrchestrator(
		remote.NewChecker(executor, remote.WithCheckerLogger(logger)),
		remote.NewTransferer(p.Setup, executor, remote.WithTransferLogger(logger)),
		report.NewReporter(logger),
		backup.WithLogger(logger),
		backup.WithParallelism(s.Parallel),
	)

	summary, err := orchestrator.Run(ctx, p.Setup, p.Items)
	if err != nil {
		return err
	}

	if !s.Quiet {
		report.Print(cmd.OutOrStdout(), summary)
	}

	if s.Report != "" {
		if err := report.Write(s.Report, summary); err != nil {
			return errors.NewSystemError(err, "Check the --report path")
		}
		logger.Info("report written", "path", s.Report)
	}

	if s.Strict && summary.Failures > 0 {
		return errors.NewExitError(
			errors.Newf("%d of %d items failed", summary.Failures, summary.Total()),
			errors.ExitPartial,
		)
	}
	return nil
}
