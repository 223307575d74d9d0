package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/seo-intel/seointel/internal/model"
)

// TextWriter outputs a human-readable run summary.
// This format is designed for terminal display when the full markdown
// document goes to a file.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type TextWriter struct {
	baseWriter

	// verbose enables per-issue detail in the output.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithVerbose enables verbose output with per-issue detail.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *TextWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeScores(&sb, report)
	w.writeUnits(&sb, report)
	w.writeQuickWins(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run identification block.
func (w *TextWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      SEO INTELLIGENCE SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Site:     %s\n", report.Site))
	sb.WriteString(fmt.Sprintf("Mode:     %s\n", report.Mode))
	sb.WriteString(fmt.Sprintf("Date:     %s\n", report.StartedAt.UTC().Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration: %ds\n", report.DurationSeconds))
	if !report.BaselineDate.IsZero() {
		sb.WriteString(fmt.Sprintf("Baseline: %s\n", report.BaselineDate.UTC().Format("2006-01-02")))
	} else {
		sb.WriteString("Baseline: none (first run)\n")
	}
	sb.WriteString("\n")
}

// writeScores writes the per-dimension score lines with deltas.
func (w *TextWriter) writeScores(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SCORES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.DimensionScores) == 0 {
		sb.WriteString("  No dimension scores were produced.\n\n")
		return
	}

	deltas := deltaIndex(report.Deltas)
	for _, dim := range model.DimensionOrder {
		score, ok := report.DimensionScores[dim]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-12s %3d/100  [%s]\n", dim+":", score, deltaCell(deltas, "dimension/"+string(dim))))
	}
	sb.WriteString("\n")
}

// writeUnits writes the execution outcome of every unit.
func (w *TextWriter) writeUnits(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("UNITS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, res := range report.UnitResults {
		marker := "+"
		if res.Status == model.StatusFailed {
			marker = "x"
		} else if res.Status == model.StatusPartial {
			marker = "~"
		}
		line := fmt.Sprintf("  [%s] %-20s %s", marker, res.UnitID, res.StatusText)
		if res.Score != nil {
			line += fmt.Sprintf(" (%d/100)", *res.Score)
		}
		sb.WriteString(line + "\n")

		if w.verbose {
			for _, issue := range res.Issues {
				sb.WriteString(fmt.Sprintf("        %s: %s\n", issue.SeverityText, issue.Title))
			}
		}
	}
	for _, sk := range report.Skipped {
		sb.WriteString(fmt.Sprintf("  [-] %-20s skipped: %s\n", sk.UnitID, sk.Reason))
	}
	sb.WriteString("\n")
}

// writeQuickWins writes the first sprint of the action plan so the terminal
// summary ends with something actionable.
func (w *TextWriter) writeQuickWins(sb *strings.Builder, report *model.RunReport) {
	if report.Plan == nil {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("QUICK WINS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	items := report.Plan.Sprints[model.SprintQuickWin]
	if len(items) == 0 {
		sb.WriteString("  No quick wins identified.\n")
	}
	for i, item := range items {
		if i >= 5 && !w.verbose {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-i))
			break
		}
		sb.WriteString(fmt.Sprintf("  %d. [%s] %s\n", i+1, item.SeverityText, item.Action))
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
