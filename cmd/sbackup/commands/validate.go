package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/sbackup/internal/errors"
	"github.com/thoreinstein/sbackup/internal/logging"
	"github.com/thoreinstein/sbackup/internal/plan"
	"github.com/thoreinstein/sbackup/internal/validator"
)

func newValidateCmd(a *app) *cobra.Command {
	var asJSON bool
	c := &cobra.Command{
		Use:   "validate [ITEM...]",
		Short: "Validate the backup plan and print it",
		Long: `Load and validate the backup plan without creating directories or
contacting the remote host, then print the plan with all defaults applied.

Naming items prints only those items.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd, asJSON, args)
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "output the normalized plan as JSON")
	return c
}

func (a *app) runValidate(cmd *cobra.Command, asJSON bool, names []string) error {
	out := cmd.OutOrStdout()
	logger := logging.FromContext(cmd.Context())
	format := validator.FormatText
	if asJSON {
		format = validator.FormatJSON
	}

	p, err := plan.Load(cmd.Context(), a.settings.Config, plan.WithLogger(logger), plan.WithoutDirectories())
	if err != nil {
		verr, ok := plan.AsValidationError(err)
		if !ok {
			return err
		}
		if err := validator.NewReporter(out, format).Report(verr.Result); err != nil {
			return err
		}
		return errors.NewExitError(nil, errors.ExitUser)
	}

	if len(names) > 0 {
		selected, err := selectItems(p.Items, names)
		if err != nil {
			return err
		}
		p.Items = selected
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(p), "encoding plan")
	}

	if err := validator.NewReporter(out, format).Report(&validator.Result{Issues: p.Warnings}); err != nil {
		return err
	}
	printPlan(out, p)
	return nil
}

// selectItems returns the named items in the order given.
func selectItems(items *plan.Items, names []string) (*plan.Items, error) {
	selected := plan.NewItems()
	for _, name := range names {
		i, ok := items.Index(name)
		if !ok {
			return nil, errors.NewUserError(
				errors.Newf("no item named %q", name),
				"Run 'sbackup validate' to list the items",
			)
		}
		selected.Add(items.At(i))
	}
	return selected, nil
}

func printPlan(w io.Writer, p *plan.Plan) {
	s := p.Setup
	fmt.Fprintf(w, "\nPlan: %s\n", p.Path)
	fmt.Fprintf(w, "  host:            %s\n", s.Host)
	fmt.Fprintf(w, "  output location: %s\n", s.OutputLocation)
	fmt.Fprintf(w, "  file flags:      %s\n", shellquote.Join(s.FileFlags...))
	fmt.Fprintf(w, "  directory flags: %s\n", shellquote.Join(s.DirectoryFlags...))
	fmt.Fprintf(w, "  elevated mode:   %t\n", s.ElevatedMode)
	if s.TransferRetries > 0 {
		fmt.Fprintf(w, "  retries:         %d\n", s.TransferRetries)
	}
	if s.TransferTimeout > 0 {
		fmt.Fprintf(w, "  timeout:         %s\n", s.TransferTimeout)
	}

	fmt.Fprintf(w, "\nItems (%d):\n", p.Items.Len())
	for _, it := range p.Items.All() {
		fmt.Fprintf(w, "  %s -> %s\n", it.Name, s.Destination(it.Name))
		if len(it.Files) > 0 {
			fmt.Fprintf(w, "    files:       %s\n", strings.Join(it.Files, ", "))
		}
		if len(it.Directories) > 0 {
			fmt.Fprintf(w, "    directories: %s\n", strings.Join(it.Directories, ", "))
		}
	}
}
