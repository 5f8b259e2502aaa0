package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/thoreinstein/sbackup/internal/errors"
	"github.com/thoreinstein/sbackup/internal/plan"
	"github.com/thoreinstein/sbackup/pkg/fileutil"
)

// Write saves the summary to path as YAML (.yaml, .yml) or JSON.
func Write(path string, s *Summary) error {
	if err := fileutil.AtomicWrite(path, s); err != nil {
		return errors.Wrapf(err, "writing report %s", path)
	}
	return nil
}

// Print renders the summary as a table for the terminal.
func Print(w io.Writer, s *Summary) {
	nameWidth := len("ITEM")
	for _, r := range s.Rows {
		nameWidth = max(nameWidth, len(r.Name))
	}

	bold := color.New(color.Bold)
	bold.Fprintf(w, "%-*s  %-11s  %5s  %5s  %9s\n", nameWidth, "ITEM", "STATUS", "FILES", "DIRS", "SIZE")

	for _, r := range s.Rows {
		size := "-"
		if r.Size > 0 {
			size = humanize.IBytes(uint64(r.Size))
		}
		fmt.Fprintf(w, "%-*s  %s  %5d  %5d  %9s\n",
			nameWidth, r.Name, statusCell(r.Status), r.Files, r.Directories, size)
	}

	fmt.Fprintln(w)

	var line string
	switch {
	case s.Failures > 0:
		line = color.RedString("%s", s.Line())
	case s.Unknown > 0:
		line = color.YellowString("%s", s.Line())
	default:
		line = color.GreenString("%s", s.Line())
	}
	fmt.Fprint(w, line)

	if d := s.Duration(); d > 0 {
		fmt.Fprintf(w, " in %s", d.Round(100*time.Millisecond))
	}
	fmt.Fprintln(w)
}

// statusCell pads before coloring so escape codes do not break alignment.
func statusCell(st plan.Status) string {
	cell := fmt.Sprintf("%-11s", st)
	switch st {
	case plan.StatusSuccess:
		return color.GreenString("%s", cell)
	case plan.StatusFailed:
		return color.RedString("%s", cell)
	default:
		return color.YellowString("%s", cell)
	}
}
