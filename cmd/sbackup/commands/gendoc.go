package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/thoreinstein/sbackup/cmd"
	"github.com/thoreinstein/sbackup/internal/errors"
)

func newGenDocCmd() *cobra.Command {
	c := &cobra.Command{
		Use:    "gen-doc",
		Short:  "Generate Markdown or man page documentation for the CLI",
		Hidden: true,
		Args:   cobra.NoArgs,
		// Documentation does not need settings or a log file.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(c *cobra.Command, _ []string) error {
			outputDir, _ := c.Flags().GetString("dir")
			format, _ := c.Flags().GetString("format")
			if outputDir == "" {
				return errors.NewUserError(errors.New("output directory is required"), "Pass --dir")
			}

			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return errors.Wrap(err, "creating output directory")
			}

			root := c.Root()
			root.DisableAutoGenTag = true

			var err error
			switch format {
			case "markdown":
				err = doc.GenMarkdownTree(root, outputDir)
			case "man":
				err = doc.GenManTree(root, &doc.GenManHeader{
					Title:   "SBACKUP",
					Section: "1",
					Source:  "sbackup " + cmd.Version,
				}, outputDir)
			default:
				return errors.NewUserError(errors.Newf("unknown format %q", format), "Use --format markdown or --format man")
			}
			if err != nil {
				return errors.Wrapf(err, "generating %s", format)
			}

			fmt.Fprintf(c.OutOrStdout(), "Documentation generated in %s\n", outputDir)
			return nil
		},
	}
	c.Flags().StringP("dir", "d", "", "output directory for documentation")
	c.Flags().String("format", "markdown", "documentation format: markdown, man")
	return c
}
