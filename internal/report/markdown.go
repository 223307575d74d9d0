package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/seo-intel/seointel/internal/model"
	"github.com/seo-intel/seointel/internal/provider"
	"github.com/seo-intel/seointel/internal/registry"
	"github.com/seo-intel/seointel/internal/score"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// registry supplies section titles and the fixed section order.
	registry *registry.Registry

	// version is rendered in the header and the metadata block.
	version string
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, reg *registry.Registry, version string) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		registry:   reg,
		version:    version,
	}
}

// sprintTitles are the fixed headings of the three action plan sprints.
var sprintTitles = map[model.SprintBucket]string{
	model.SprintQuickWin:  "Sprint 1: Quick Wins (Weeks 1-2)",
	model.SprintGrowth:    "Sprint 2: Growth (Weeks 3-6)",
	model.SprintAuthority: "Sprint 3: Authority (Weeks 7-12)",
}

// Write outputs the full report in Markdown format. The document stages run
// in fixed order and the metadata block is always last.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	if err := Validate(w.registry, report); err != nil {
		return 0, err
	}

	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writePerformance(md, report)
	w.writeUnitSections(md, report)
	w.writeKeywords(md, report)
	w.writeActionPlan(md, report)
	if err := w.writeMetadata(md, report); err != nil {
		return 0, err
	}

	return len(md.String()), md.Build()
}

// writeHeader writes the leading key-value header block.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("SEO Intelligence Report")
	md.PlainText("")

	executed := "none"
	if ids := report.ExecutedUnitIDs(); len(ids) > 0 {
		executed = strings.Join(ids, ", ")
	}

	skipped := "none"
	if len(report.Skipped) > 0 {
		parts := make([]string, 0, len(report.Skipped))
		for _, sk := range report.Skipped {
			parts = append(parts, fmt.Sprintf("%s (%s)", sk.UnitID, sk.Reason))
		}
		skipped = strings.Join(parts, ", ")
	}

	baselineRef := "none"
	if !report.BaselineDate.IsZero() {
		baselineRef = report.BaselineDate.UTC().Format(time.RFC3339)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Skill", SkillName + " " + w.version},
			{"Mode", string(report.Mode)},
			{"Site", "`" + report.Site + "`"},
			{"Date", report.StartedAt.UTC().Format(time.RFC3339)},
			{"Period", report.PeriodStart.Format("2006-01-02") + " to " + report.PeriodEnd.Format("2006-01-02")},
			{"Executed Units", executed},
			{"Skipped Units", skipped},
			{"Duration", strconv.Itoa(report.DurationSeconds) + "s"},
			{"Baseline", baselineRef},
		},
	})
	md.PlainText("")
}

// writeSummary writes the comparative score table and the severity overview.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Score Summary")
	md.PlainText("")

	deltas := deltaIndex(report.Deltas)
	caser := cases.Title(language.English)

	var rows [][]string
	for _, dim := range model.DimensionOrder {
		cur, hasCur := report.DimensionScores[dim]
		prev, hasPrev := report.PreviousScores[dim]
		if !hasCur && !hasPrev {
			continue
		}

		curCell, prevCell := "-", "-"
		if hasCur {
			curCell = fmt.Sprintf("%d/100", cur)
		}
		if hasPrev {
			prevCell = fmt.Sprintf("%d/100", prev)
		}
		rows = append(rows, []string{
			dimensionLabel(caser, dim),
			curCell,
			prevCell,
			deltaCell(deltas, "dimension/"+string(dim)),
		})
	}

	if len(rows) == 0 {
		md.PlainText("No dimension scores were produced in this run.")
		md.PlainText("")
	} else {
		md.Table(markdown.TableSet{
			Header: []string{"Dimension", "Current", "Previous", "Delta"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if overall, ok := score.Overall(report.DimensionScores); ok {
		md.PlainTextf("Overall score: **%d/100**", overall)
		md.PlainText("")
	}

	if report.BaselineWarning != "" {
		md.Warningf("Baseline snapshot was unreadable (%s); this run proceeded without a baseline and every delta is reported as new.", report.BaselineWarning)
		md.PlainText("")
	}

	w.writeSeverityOverview(md, report)
}

// writeSeverityOverview writes the issue distribution chart and an alert
// matched to the worst severity present.
func (w *MarkdownWriter) writeSeverityOverview(md *markdown.Markdown, report *model.RunReport) {
	var critical, high, medium, low int
	for _, res := range report.UnitResults {
		critical += res.CountBySeverity(model.SeverityCritical)
		high += res.CountBySeverity(model.SeverityHigh)
		medium += res.CountBySeverity(model.SeverityMedium)
		low += res.CountBySeverity(model.SeverityLow)
	}
	total := critical + high + medium + low

	if total > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Issue Severity Distribution"),
			piechart.WithShowData(true),
		)
		if critical > 0 {
			chart.LabelAndIntValue("Critical", uint64(critical))
		}
		if high > 0 {
			chart.LabelAndIntValue("High", uint64(high))
		}
		if medium > 0 {
			chart.LabelAndIntValue("Medium", uint64(medium))
		}
		if low > 0 {
			chart.LabelAndIntValue("Low", uint64(low))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case critical > 0:
		md.Cautionf("%d critical issue(s) require immediate attention.", critical)
	case high > 0:
		md.Warningf("%d high severity issue(s) should be addressed this sprint.", high)
	case medium > 0:
		md.Importantf("%d medium severity issue(s) found.", medium)
	case total > 0:
		md.Note("Only low severity issues were found.")
	default:
		md.Tip("No issues were detected in this run.")
	}
	md.PlainText("")
}

// writePerformance writes the performance data section. The section always
// renders; its content depends on which performance source was usable.
func (w *MarkdownWriter) writePerformance(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Performance Data")
	md.PlainText("")

	res := report.ResultFor(registry.UnitPageExperience)
	switch {
	case res != nil && res.Status.Executed():
		md.PlainTextf("Core Web Vitals for `%s`:", report.Site)
		md.PlainText("")
		w.writeMetricsTable(md, res)
	case providerUsable(report.Capabilities, provider.WebSearch):
		md.Importantf("Page performance measurements are unavailable for this run; performance signals elsewhere in this report are estimated from %s data (source: estimated).", provider.WebSearch)
		md.PlainText("")
	default:
		md.Note("Performance data is not available for this run (source: not-available).")
		md.PlainText("")
	}
}

// writeUnitSections writes one section per registered unit in ascending
// registry order. Skipped units render a one-line notice in position; the
// action plan unit renders as the dedicated plan section further down.
func (w *MarkdownWriter) writeUnitSections(md *markdown.Markdown, report *model.RunReport) {
	skipped := make(map[string]model.SkippedUnit, len(report.Skipped))
	for _, sk := range report.Skipped {
		skipped[sk.UnitID] = sk
	}

	for _, u := range w.registry.Units() {
		if u.ID == registry.UnitActionPlan {
			continue
		}
		if sk, ok := skipped[u.ID]; ok {
			notice := fmt.Sprintf("*%s skipped: %s*", u.Title, sk.Reason)
			if sk.Detail != "" {
				notice = fmt.Sprintf("*%s skipped: %s (%s)*", u.Title, sk.Reason, sk.Detail)
			}
			md.PlainText(notice)
			md.PlainText("")
			continue
		}
		if res := report.ResultFor(u.ID); res != nil {
			w.writeUnitSection(md, u, res)
		}
	}
}

// writeUnitSection writes the full section for one executed or failed unit.
func (w *MarkdownWriter) writeUnitSection(md *markdown.Markdown, u registry.Unit, res *model.UnitResult) {
	md.H2(u.Title)
	md.PlainText("")

	if res.Score != nil {
		md.PlainTextf("Score: **%d/100** (status: %s)", *res.Score, res.StatusText)
	} else {
		md.PlainTextf("Status: %s", res.StatusText)
	}
	if res.FailureReason != "" {
		md.PlainTextf("Reason: %s", res.FailureReason)
	}
	md.PlainText("")

	if len(res.RawMetrics) > 0 {
		w.writeMetricsTable(md, res)
	}

	if len(res.Issues) > 0 {
		rows := make([][]string, len(res.Issues))
		for i, issue := range res.Issues {
			rows[i] = []string{issue.SeverityText, issue.Title, issue.SuggestedAction}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Severity", "Finding", "Suggested Action"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeMetricsTable writes a unit's metrics sorted by name, each with its
// classification and source annotation.
func (w *MarkdownWriter) writeMetricsTable(md *markdown.Markdown, res *model.UnitResult) {
	names := make([]string, 0, len(res.RawMetrics))
	for name := range res.RawMetrics {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		metric := res.RawMetrics[name]
		label := metric.Label
		if label == "" {
			label = "-"
		}
		rows = append(rows, []string{name, formatMetricValue(metric), label, string(metric.Annotation)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value", "Rating", "Source"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeKeywords writes the keyword position section with per-keyword deltas.
func (w *MarkdownWriter) writeKeywords(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Keyword Positions")
	md.PlainText("")

	if len(report.KeywordPositions) == 0 && len(report.KeywordDeltas) == 0 {
		md.PlainText("No keyword position data was collected in this run.")
		md.PlainText("")
		return
	}

	deltas := deltaIndex(report.KeywordDeltas)
	kmRes := report.ResultFor(registry.UnitKeywordMovement)

	keywords := make([]string, 0, len(report.KeywordPositions))
	for kw := range report.KeywordPositions {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	rows := make([][]string, 0, len(keywords))
	for _, kw := range keywords {
		ann := model.AnnotationNotAvailable
		if kmRes != nil {
			if m, ok := kmRes.RawMetrics["position/"+kw]; ok {
				ann = m.Annotation
			}
		}
		rows = append(rows, []string{
			kw,
			fmt.Sprintf("%.1f", report.KeywordPositions[kw]),
			deltaCell(deltas, "keyword/"+kw),
			string(ann),
		})
	}

	// Keywords present only in the baseline stay visible as discontinued.
	for _, rec := range report.KeywordDeltas {
		if rec.Direction != model.DirectionDiscontinued {
			continue
		}
		kw := strings.TrimPrefix(rec.EntityKey, "keyword/")
		rows = append(rows, []string{kw, "-", "discontinued", string(model.AnnotationNotAvailable)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Keyword", "Position", "Change", "Source"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeActionPlan writes the three sprints in fixed order. Empty sprints
// keep their headings so the plan structure never varies.
func (w *MarkdownWriter) writeActionPlan(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Action Plan")
	md.PlainText("")

	for _, bucket := range model.SprintOrder {
		md.H3(sprintTitles[bucket])
		md.PlainText("")

		items := report.Plan.Sprints[bucket]
		if len(items) == 0 {
			md.PlainText("No items in this sprint.")
			md.PlainText("")
			continue
		}

		rows := make([][]string, len(items))
		for i, item := range items {
			rows[i] = []string{item.SeverityText, item.Action, item.Impact, item.Effort, item.OriginUnitID}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Severity", "Action", "Impact", "Effort", "Unit"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// runMetadata is the closing machine-readable block. Field order here is
// the serialization order.
type runMetadata struct {
	Skill           string                              `json:"skill"`
	Version         string                              `json:"version"`
	RunID           string                              `json:"run_id"`
	Mode            model.Mode                          `json:"mode"`
	Site            string                              `json:"site"`
	Date            string                              `json:"date"`
	PeriodStart     string                              `json:"period_start"`
	PeriodEnd       string                              `json:"period_end"`
	ExecutedUnits   []string                            `json:"executed_units"`
	SkippedUnits    []model.SkippedUnit                 `json:"skipped_units"`
	Capabilities    map[string]model.ProviderCapability `json:"capabilities"`
	DimensionScores map[model.Dimension]int             `json:"dimension_scores"`
	DurationSeconds int                                 `json:"duration_seconds"`
	BaselineDate    string                              `json:"baseline_date,omitempty"`
	BaselineWarning string                              `json:"baseline_warning,omitempty"`
	Warnings        []string                            `json:"warnings,omitempty"`
}

// writeMetadata writes the metadata block. It is always the last block in
// the document.
func (w *MarkdownWriter) writeMetadata(md *markdown.Markdown, report *model.RunReport) error {
	meta := runMetadata{
		Skill:           SkillName,
		Version:         w.version,
		RunID:           report.RunID,
		Mode:            report.Mode,
		Site:            report.Site,
		Date:            report.StartedAt.UTC().Format(time.RFC3339),
		PeriodStart:     report.PeriodStart.UTC().Format(time.RFC3339),
		PeriodEnd:       report.PeriodEnd.UTC().Format(time.RFC3339),
		ExecutedUnits:   report.ExecutedUnitIDs(),
		SkippedUnits:    report.Skipped,
		Capabilities:    report.Capabilities,
		DimensionScores: report.DimensionScores,
		DurationSeconds: report.DurationSeconds,
		BaselineWarning: report.BaselineWarning,
		Warnings:        report.Warnings,
	}
	if !report.BaselineDate.IsZero() {
		meta.BaselineDate = report.BaselineDate.UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return &AssemblyContractViolation{Stage: "metadata", Detail: err.Error()}
	}

	md.H2("Run Metadata")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightJSON, string(data))
	return nil
}

// deltaIndex maps delta records by entity key for table lookup.
func deltaIndex(records []model.DeltaRecord) map[string]model.DeltaRecord {
	idx := make(map[string]model.DeltaRecord, len(records))
	for _, rec := range records {
		idx[rec.EntityKey] = rec
	}
	return idx
}

// deltaCell renders one delta table cell. Numeric changes are never bare
// numbers; a metric without a baseline record renders as new.
func deltaCell(records map[string]model.DeltaRecord, key string) string {
	rec, ok := records[key]
	if !ok {
		return "new"
	}
	switch rec.Direction {
	case model.DirectionUp:
		return "+" + trimFloat(rec.Magnitude) + " ↑"
	case model.DirectionDown:
		return "-" + trimFloat(rec.Magnitude) + " ↓"
	case model.DirectionFlat:
		return "0 →"
	case model.DirectionDiscontinued:
		return "discontinued"
	default:
		return "new"
	}
}

// formatMetricValue renders a metric value, attaching the currency symbol
// for monetary metrics.
func formatMetricValue(m model.Metric) string {
	if m.Currency == "" {
		return trimFloat(m.Value)
	}
	unit, err := currency.ParseISO(m.Currency)
	if err != nil {
		return m.Currency + " " + strconv.FormatFloat(m.Value, 'f', 2, 64)
	}
	p := message.NewPrinter(language.English)
	return p.Sprint(currency.NarrowSymbol(unit.Amount(m.Value)))
}

// trimFloat formats a float without trailing zeros.
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// dimensionLabel renders a dimension name for table headers.
func dimensionLabel(caser cases.Caser, dim model.Dimension) string {
	if dim == model.DimensionSEO {
		return "SEO"
	}
	return caser.String(string(dim))
}

// providerUsable reports whether the resolved capability allows serving
// requests. An absent entry is unusable.
func providerUsable(caps map[string]model.ProviderCapability, providerID string) bool {
	c, ok := caps[providerID]
	return ok && c.State.Usable()
}
