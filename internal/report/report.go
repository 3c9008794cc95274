// report.go emits run outputs and the Markdown status summary.
//
// Package report writes the two artifacts a run leaves behind: a named
// output in the GitHub-Actions key=value format, and a Markdown table
// appended to the step summary. Both destinations come from the runner's
// environment; when they are absent the output falls back to stdout and the
// summary becomes a no-op.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/aboul/komodo-actions/internal/results"
)

// Runner environment variables naming the sink files.
const (
	EnvOutputFile  = "GITHUB_OUTPUT"
	EnvSummaryFile = "GITHUB_STEP_SUMMARY"
)

// Sink knows where the CI runner wants run outputs and step summaries.
type Sink struct {
	outputPath  string
	summaryPath string
	stdout      io.Writer
}

// NewSink builds a sink from a lookup over the process environment. The
// stdout writer is the fallback for outputs when the runner file is not
// configured.
func NewSink(lookup func(string) string, stdout io.Writer) *Sink {
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Sink{
		outputPath:  strings.TrimSpace(lookup(EnvOutputFile)),
		summaryPath: strings.TrimSpace(lookup(EnvSummaryFile)),
		stdout:      stdout,
	}
}

// SetOutput appends a named output in the runner's key=value format.
// Multi-line values use the heredoc form with a random delimiter. Setting
// the same name twice appends both lines; the runner keeps the last one.
func (s *Sink) SetOutput(name, value string) error {
	line := formatOutput(name, value)
	if s.outputPath == "" {
		_, err := io.WriteString(s.stdout, line)
		return err
	}
	return appendFile(s.outputPath, line)
}

// AppendSummary appends Markdown to the step summary. No configured summary
// file is not an error; the write is simply skipped.
func (s *Sink) AppendSummary(markdown string) error {
	if s.summaryPath == "" {
		return nil
	}
	return appendFile(s.summaryPath, markdown)
}

// HasSummary reports whether a summary destination is configured.
func (s *Sink) HasSummary() bool {
	return s.summaryPath != ""
}

func formatOutput(name, value string) string {
	if !strings.Contains(value, "\n") {
		return fmt.Sprintf("%s=%s\n", name, value)
	}
	delimiter := "ghadelimiter_" + uuid.NewString()
	return fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter)
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.WriteString(f, content); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// SummaryTable renders the status mapping as a Markdown table, one row per
// entry in insertion order.
func SummaryTable(m *results.StatusMapping) string {
	var b strings.Builder
	b.WriteString("| Update | Status |\n")
	b.WriteString("| --- | --- |\n")
	for _, id := range m.Keys() {
		status, _ := m.Get(id)
		fmt.Fprintf(&b, "| %s | %s |\n", id, status)
	}
	return b.String()
}
