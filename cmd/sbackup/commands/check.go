package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/sbackup/internal/doctor"
	"github.com/thoreinstein/sbackup/internal/errors"
	"github.com/thoreinstein/sbackup/internal/logging"
	"github.com/thoreinstein/sbackup/internal/plan"
	"github.com/thoreinstein/sbackup/internal/remote"
)

type checkOptions struct {
	json bool
	fix  bool
}

func newCheckCmd(a *app) *cobra.Command {
	opts := &checkOptions{}
	c := &cobra.Command{
		Use:   "check",
		Short: "Diagnose problems before running a backup",
		Long: `Run preflight checks without transferring anything.

Checks that the plan loads, that rsync and ssh are on PATH, that the output
location is a writable directory and that the remote host answers.

Output modes:
  (default)   Show errors, warnings and info
  --verbose   Show all checks including passed ones
  --quiet     No output, exit code only
  --json      Machine-readable JSON output

Exit codes:
  0 - No errors or warnings
  1 - Warnings present, no errors
  2 - Errors present`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCheck(cmd, opts)
		},
	}
	c.Flags().BoolVar(&opts.json, "json", false, "output results as JSON")
	c.Flags().BoolVar(&opts.fix, "fix", false, "create a missing output location")
	return c
}

func (a *app) runCheck(cmd *cobra.Command, opts *checkOptions) error {
	ctx := cmd.Context()
	s := a.settings
	out := cmd.OutOrStdout()
	logger := logging.FromContext(ctx)

	p, loadErr := plan.Load(ctx, s.Config, plan.WithLogger(logger), plan.WithoutDirectories())

	runner := doctor.NewRunner()
	runner.AddCheck(doctor.NewConfigCheck(s.Config, func(_ context.Context) error { return loadErr }))
	runner.AddCheck(doctor.NewBinaryCheck(remote.DefaultRsyncCommand))
	runner.AddCheck(doctor.NewBinaryCheck(remote.DefaultSSHCommand))
	if loadErr == nil {
		checker := remote.NewChecker(&remote.ExecExecutor{}, remote.WithCheckerLogger(logger))
		runner.AddCheck(doctor.NewOutputLocationCheck(p.Setup.OutputLocation))
		runner.AddCheck(doctor.NewRemoteCheck(p.Setup.Host, checker))
	}

	report := runner.Run(ctx)

	if opts.fix {
		fixes := runner.Fix()
		if !opts.json && !s.Quiet {
			printFixes(out, fixes)
		}
		if len(fixes) > 0 {
			report = runner.Run(ctx)
		}
	}

	switch {
	case opts.json:
		if err := printCheckJSON(out, report); err != nil {
			return err
		}
	case !s.Quiet:
		printCheckText(out, report, s.Verbose)
	}

	if report.HasErrors() {
		return errors.NewExitError(nil, errors.ExitSystem)
	}
	if report.HasWarnings() {
		return errors.NewExitError(nil, errors.ExitUser)
	}
	return nil
}

func printCheckJSON(w io.Writer, report *doctor.DoctorReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(report), "encoding JSON")
}

func printCheckText(w io.Writer, report *doctor.DoctorReport, showAll bool) {
	hasOutput := false
	for _, result := range report.Results {
		if !showAll && result.Status == doctor.SeverityPass {
			continue
		}

		hasOutput = true
		fmt.Fprintf(w, "%s [%s] %s: %s\n", statusIcon(result.Status), result.Category, result.Name, result.Message)

		if result.FixHint != "" && result.Status != doctor.SeverityPass {
			fmt.Fprintf(w, "  hint: %s\n", result.FixHint)
		}
		if stderr, ok := result.Details["stderr"]; ok {
			fmt.Fprintf(w, "  stderr: %v\n", stderr)
		}
	}

	if hasOutput {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Summary: %d passed, %d info, %d warnings, %d errors\n",
		report.Summary.Passed, report.Summary.Info, report.Summary.Warnings, report.Summary.Errors)
}

func printFixes(w io.Writer, fixes []doctor.FixResult) {
	for _, f := range fixes {
		if f.Fixed {
			fmt.Fprintf(w, "%s fixed %s: %s\n", color.GreenString("✓"), f.Path, f.Description)
			continue
		}
		fmt.Fprintf(w, "%s could not fix %s: %v\n", color.RedString("✗"), f.Path, f.Error)
	}
}

func statusIcon(s doctor.Severity) string {
	switch s {
	case doctor.SeverityPass:
		return color.GreenString("✓")
	case doctor.SeverityInfo:
		return color.CyanString("ℹ")
	case doctor.SeverityWarning:
		return color.YellowString("⚠")
	case doctor.SeverityError:
		return color.RedString("✗")
	default:
		return "?"
	}
}
