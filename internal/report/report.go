// Package report aggregates item outcomes into a run summary and renders it.
package report

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/thoreinstein/sbackup/internal/logging"
	"github.com/thoreinstein/sbackup/internal/plan"
)

// Row is the per-item part of a summary.
type Row struct {
	Name        string      `json:"name" yaml:"name"`
	Status      plan.Status `json:"status" yaml:"status"`
	Files       int         `json:"files" yaml:"files"`
	Directories int         `json:"directories" yaml:"directories"`
	Size        int64       `json:"size" yaml:"size"`
}

// Summary counts item outcomes. Successes+Failures+Unknown always equals
// the number of rows.
type Summary struct {
	Host       string    `json:"host,omitempty" yaml:"host,omitempty"`
	StartedAt  time.Time `json:"started_at,omitzero" yaml:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitzero" yaml:"finished_at,omitempty"`

	Successes int   `json:"successes" yaml:"successes"`
	Failures  int   `json:"failures" yaml:"failures"`
	Unknown   int   `json:"unknown" yaml:"unknown"`
	Rows      []Row `json:"items" yaml:"items"`
}

// Total returns the number of items summarized.
func (s *Summary) Total() int {
	return len(s.Rows)
}

// Line renders the counts, e.g. "1 successes, 0 failures, 0 unknown".
func (s *Summary) Line() string {
	return fmt.Sprintf("%d successes, %d failures, %d unknown", s.Successes, s.Failures, s.Unknown)
}

// Duration returns how long the run took, or zero if it was not timed.
func (s *Summary) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Summarize classifies items: success counts as a success, not started as
// unknown and any other status as a failure. Items are not modified.
func Summarize(items []plan.Item) *Summary {
	s := &Summary{Rows: make([]Row, 0, len(items))}
	for _, it := range items {
		switch it.Status {
		case plan.StatusSuccess:
			s.Successes++
		case plan.StatusNotStarted:
			s.Unknown++
		default:
			s.Failures++
		}
		s.Rows = append(s.Rows, Row{
			Name:        it.Name,
			Status:      it.Status,
			Files:       len(it.Files),
			Directories: len(it.Directories),
			Size:        it.Size,
		})
	}
	return s
}

// ItemLine renders one item as "<name> - <status> - <n> files - <m> directories".
func ItemLine(r Row) string {
	return fmt.Sprintf("%s - %s - %d files - %d directories", r.Name, r.Status, r.Files, r.Directories)
}

// Reporter logs the outcome of a run.
type Reporter struct {
	logger *slog.Logger
}

// NewReporter creates a Reporter. A nil logger discards output.
func NewReporter(logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &Reporter{logger: logger}
}

// Report logs one info line per item in order, then the counts line,
// and returns the summary.
func (r *Reporter) Report(items []plan.Item) *Summary {
	s := Summarize(items)
	for _, row := range s.Rows {
		r.logger.Info(ItemLine(row))
	}
	r.logger.Info(s.Line())
	return s
}
