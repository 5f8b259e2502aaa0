// Package commands implements the CLI commands for sbackup.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thoreinstein/sbackup/cmd"
	"github.com/thoreinstein/sbackup/internal/config"
	"github.com/thoreinstein/sbackup/internal/errors"
	"github.com/thoreinstein/sbackup/internal/logging"
)

// app holds the state shared by all commands of one invocation.
type app struct {
	v        *viper.Viper
	settings *config.Settings
	logger   *slog.Logger
	logFile  io.Closer
}

// Execute runs the CLI with the process arguments and returns the exit code.
func Execute(ctx context.Context) int {
	return execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{v: config.New()}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	return a.exit(root.ExecuteContext(ctx), stderr)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "sbackup",
		Short: "Mirror files and directories from a remote host with rsync",
		Long: `sbackup reads a backup plan, checks that the remote host answers over
ssh, then mirrors every configured file and directory into a local output
location with rsync. Each item gets a status and the run ends with a summary.

A failed transfer never aborts the run. Configuration problems and an
unreachable host do.

The plan is read from --config, or from the first of ./config.json,
./config.yaml, ./config.yml, ./config.toml and $XDG_CONFIG_HOME/sbackup/.

Exit codes:
  0 - Run completed (individual transfers may have failed)
  1 - Configuration could not be found, parsed or validated
  2 - Remote unreachable or a process could not be started
  3 - --strict was given and at least one item failed`,
		Example: `  # Run the backup described by ./config.json
  sbackup

  # Use another plan and transfer two items at a time
  sbackup run --config ~/backups/nas.yaml --parallel 2

  # Check tools, output location and ssh access without transferring
  sbackup check`,
		Version:           cmd.Version,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.runBackup,
	}
	root.SetVersionTemplate("sbackup version {{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.NewUserError(err, "Run 'sbackup --help' for usage")
	})

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "path to the backup plan (.json, .yaml, .yml or .toml)")
	pf.String("log-file", config.DefaultLogFile, "append logs to this file (empty disables)")
	pf.String("log-format", string(logging.FormatText), "log file format: text, json")
	pf.BoolP("verbose", "v", false, "log debug output, including the exact commands run")
	pf.BoolP("quiet", "q", false, "log errors only and suppress the summary table")

	addRunFlags(root)

	root.AddCommand(newRunCmd(a), newCheckCmd(a), newValidateCmd(a), newVersionCmd(), newGenDocCmd())
	return root
}

// setup resolves settings and builds the logger for every command.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}

	s, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.settings = s

	var file io.Writer
	if s.LogFile != "" {
		w, err := logging.OpenFile(s.LogFile)
		if err != nil {
			return errors.NewSystemError(err, "Check --log-file or pass --log-file ''")
		}
		a.logFile = w
		file = w
	}

	a.logger = logging.New(logging.Config{
		Level:  s.Level(),
		Format: logging.ParseFormat(s.LogFormat),
		Output: cmd.ErrOrStderr(),
		File:   file,
	})
	cmd.SetContext(logging.NewContext(cmd.Context(), a.logger))

	a.logger.Debug("settings resolved",
		"config", s.Config,
		"config_found", s.ConfigFound,
		"log_file", s.LogFile,
		"parallel", s.Parallel,
	)
	return nil
}

// exit turns the command error into an exit code. Fatal errors are logged
// as a single error line. An ExitError without a cause only sets the code.
func (a *app) exit(err error, stderr io.Writer) int {
	exitErr := errors.Classify(err)
	if exitErr == nil {
		return errors.ExitSuccess
	}
	if exitErr.Err == nil {
		return exitErr.Code
	}

	logger := a.logger
	if logger == nil {
		logger = logging.New(logging.Config{Level: slog.LevelError, Output: stderr})
	}

	attrs := []any{"exit_code", exitErr.Code}
	if details := errors.Details(err); len(details) > 0 {
		attrs = append(attrs, "details", strings.Join(details, "; "))
	}
	if exitErr.Suggestion != "" {
		attrs = append(attrs, "hint", exitErr.Suggestion)
	}
	logger.Error(exitErr.Error(), attrs...)

	return exitErr.Code
}

func (a *app) close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}
