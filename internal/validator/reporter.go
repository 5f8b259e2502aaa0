package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/thoreinstein/sbackup/internal/errors"
)

// Format specifies the output format for validation reports.
type Format string

const (
	// FormatText produces human-readable text output.
	FormatText Format = "text"
	// FormatJSON produces machine-readable JSON output.
	FormatJSON Format = "json"
)

// Reporter formats and writes validation results.
type Reporter struct {
	out    io.Writer
	format Format
}

// NewReporter creates a new Reporter.
func NewReporter(out io.Writer, format Format) *Reporter {
	return &Reporter{
		out:    out,
		format: format,
	}
}

// Report writes the validation result to the output.
func (r *Reporter) Report(result *Result) error {
	if result == nil {
		result = &Result{}
	}

	switch r.format {
	case FormatJSON:
		encoder := json.NewEncoder(r.out)
		encoder.SetIndent("", "  ")
		return errors.Wrap(encoder.Encode(result), "encoding JSON report")
	default:
		r.reportText(result)
		return nil
	}
}

func (r *Reporter) reportText(result *Result) {
	errs := result.Errors()
	warnings := result.Warnings()

	if len(errs) == 0 && len(warnings) == 0 {
		fmt.Fprintln(r.out, color.GreenString("✓ Plan is valid"))
		return
	}

	var summary []string
	if len(errs) > 0 {
		summary = append(summary, color.RedString("%d error(s)", len(errs)))
	}
	if len(warnings) > 0 {
		summary = append(summary, color.YellowString("%d warning(s)", len(warnings)))
	}

	if len(errs) > 0 {
		fmt.Fprintf(r.out, "Plan is invalid: %s\n\n", strings.Join(summary, ", "))
	} else {
		fmt.Fprintf(r.out, "Plan is valid with %s\n\n", strings.Join(summary, ", "))
	}

	r.printSection("Errors:", errs, color.FgRed)
	r.printSection("Warnings:", warnings, color.FgYellow)
}

func (r *Reporter) printSection(title string, issues []Issue, c color.Attribute) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintln(r.out, title)
	for _, i := range issues {
		r.printIssue(i, c)
	}
	fmt.Fprintln(r.out)
}

func (r *Reporter) printIssue(i Issue, c color.Attribute) {
	printer := color.New(c).SprintFunc()

	// Format:  • field: message [value]
	var sb strings.Builder
	sb.WriteString("  • ")

	if i.Field != "" {
		sb.WriteString(printer(i.Field))
		sb.WriteString(": ")
	}

	sb.WriteString(i.Message)

	if i.Value != nil {
		valStr := fmt.Sprintf("%v", i.Value)
		if len(valStr) > 50 {
			valStr = valStr[:47] + "..."
		}
		sb.WriteString(color.New(color.FgHiBlack).Sprintf(" [%s]", valStr))
	}

	fmt.Fprintln(r.out, sb.String())
}
