package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/sbackup/cmd"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Long:  `Print the version, commit, and build date of sbackup.`,
		Args:  cobra.NoArgs,
		// Skip settings and the log file.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(c *cobra.Command, _ []string) {
			out := c.OutOrStdout()
			fmt.Fprintf(out, "sbackup version %s\n", cmd.Version)
			fmt.Fprintf(out, "  commit: %s\n", cmd.Commit)
			fmt.Fprintf(out, "  built:  %s\n", cmd.Date)
		},
	}
}
