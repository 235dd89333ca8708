package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/ecoaudit/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// The output is plain ASCII so it can be piped to files.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to show are printed.
	showEmpty bool

	// verbose adds audit descriptions and category weights.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.AuditReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeCategory(&sb, report.Category)
	w.writeAudits(&sb, report.Results)
	w.writeRatings(&sb, model.NewSummary(report))
	w.writeWarnings(&sb, report.Warnings)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteSummary outputs a short block for one stored report.
func (w *SimpleWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "URL:        %s\n", summary.URL)
	fmt.Fprintf(&sb, "Audit Date: %s\n", summary.DateAudited.Format(dateLayout))
	fmt.Fprintf(&sb, "Score:      %s (%s)\n",
		formatScore(summary.CategoryScore), ratingLabel(model.RateScore(summary.CategoryScore)))
	fmt.Fprintf(&sb, "Audits:     %d pass, %d average, %d fail, %d n/a, %d error\n",
		summary.PassCount, summary.AverageCount, summary.FailCount,
		summary.NotApplicableCount, summary.ErrorCount)
	if len(summary.Failing) > 0 {
		fmt.Fprintf(&sb, "Failing:    %s\n", strings.Join(summary.Failing, ", "))
	}
	if summary.Error != "" {
		fmt.Fprintf(&sb, "Status:     %s\n", statusText(summary.Error))
	}
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.AuditReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          ECOAUDIT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "URL:        %s\n", report.URL)
	if report.FinalURL != "" && report.FinalURL != report.URL {
		fmt.Fprintf(sb, "Final URL:  %s\n", report.FinalURL)
	}
	fmt.Fprintf(sb, "Audit Date: %s\n", report.DateAudited.Format(dateLayout))
	fmt.Fprintf(sb, "Status:     %s\n", statusText(report.ErrorMessage))
	sb.WriteString("\n")
}

// section writes a section title between rules.
func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeCategory writes the category score.
func (w *SimpleWriter) writeCategory(sb *strings.Builder, category *model.CategoryResult) {
	if category == nil {
		return
	}

	section(sb, strings.ToUpper(category.Title))
	fmt.Fprintf(sb, "  Score: %s / 100 (%s)\n", formatScore(category.Score), ratingLabel(category.Rating()))

	if w.verbose {
		sb.WriteString("\n")
		for _, ref := range category.Refs {
			fmt.Fprintf(sb, "  %-24s weight %4g  applied %4g\n", ref.ID, ref.Weight, ref.AppliedWeight)
		}
	}
	if len(category.Unavailable) > 0 {
		fmt.Fprintf(sb, "  Not run: %s\n", strings.Join(category.Unavailable, ", "))
	}
	sb.WriteString("\n")
}

// writeAudits writes one entry per audit result.
func (w *SimpleWriter) writeAudits(sb *strings.Builder, results []model.AuditResult) {
	if len(results) == 0 && !w.showEmpty {
		return
	}

	section(sb, "AUDITS")

	if len(results) == 0 {
		sb.WriteString("  No audits were run\n\n")
		return
	}

	for i := range results {
		r := &results[i]
		rating := r.Rating()
		fmt.Fprintf(sb, "[%s] %s (%s)\n", ratingIndicator(rating), r.Title, r.ID)

		switch {
		case r.Errored():
			fmt.Fprintf(sb, "    Error: %s\n", r.ErrorMessage)
		case rating == model.RatingNotApplicable:
			sb.WriteString("    Nothing to audit on this page\n")
		default:
			fmt.Fprintf(sb, "    Score: %s  Value: %s\n", formatScore(r.Score), formatNumeric(r))
			if r.DisplayValue != "" {
				fmt.Fprintf(sb, "    %s\n", r.DisplayValue)
			}
		}
		if w.verbose && r.Description != "" {
			fmt.Fprintf(sb, "    Description: %s\n", r.Description)
		}
	}
	sb.WriteString("\n")
}

// writeRatings writes the count of audits per rating.
func (w *SimpleWriter) writeRatings(sb *strings.Builder, summary *model.Summary) {
	section(sb, "RATING SUMMARY")
	for _, r := range model.Ratings() {
		fmt.Fprintf(sb, "  %-15s %d\n", ratingLabel(r)+":", summary.Count(r))
	}
	sb.WriteString("\n")
}

// writeWarnings writes non-fatal problems of the run.
func (w *SimpleWriter) writeWarnings(sb *strings.Builder, warnings []string) {
	if len(warnings) == 0 && !w.showEmpty {
		return
	}

	section(sb, "WARNINGS")
	if len(warnings) == 0 {
		sb.WriteString("  No warnings\n")
	}
	for _, warning := range warnings {
		fmt.Fprintf(sb, "  [!] %s\n", warning)
	}
	sb.WriteString("\n")
}

// ratingIndicator returns a short tag for the rating.
func ratingIndicator(r model.Rating) string {
	switch r {
	case model.RatingPass:
		return "PASS"
	case model.RatingAverage:
		return "AVG"
	case model.RatingFail:
		return "FAIL"
	case model.RatingNotApplicable:
		return "N/A"
	case model.RatingError:
		return "ERR"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by ecoaudit\n")
	sb.WriteString("https://github.com/nao1215/ecoaudit\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
