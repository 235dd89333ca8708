package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/ecoaudit/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in GitHub-flavored Markdown using
// nao1215/markdown, with alerts for the category rating and a mermaid pie
// chart of audit ratings.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.AuditReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := model.NewSummary(report)

	w.writeHeader(md, report)
	w.writeCategory(md, report.Category)
	w.writeRatings(md, summary)
	w.writeAudits(md, report.Results)
	w.writeWarnings(md, report.Warnings)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs the summary of a stored report as a table.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H2(summary.URL)
	md.PlainText("")

	rows := [][]string{
		{"Audit Date", summary.DateAudited.Format(dateLayout)},
		{"Score", formatScore(summary.CategoryScore)},
		{"Rating", ratingLabel(model.RateScore(summary.CategoryScore))},
	}
	for _, r := range model.Ratings() {
		rows = append(rows, []string{ratingLabel(r), strconv.Itoa(summary.Count(r))})
	}
	if len(summary.Failing) > 0 {
		rows = append(rows, []string{"Failing", "`" + strings.Join(summary.Failing, "`, `") + "`"})
	}
	if summary.Error != "" {
		rows = append(rows, []string{"Status", "❌ " + statusText(summary.Error)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.AuditReport) {
	md.H1("ecoaudit Report")
	md.PlainText("")

	rows := [][]string{
		{"URL", "`" + report.URL + "`"},
	}
	if report.FinalURL != "" && report.FinalURL != report.URL {
		rows = append(rows, []string{"Final URL", "`" + report.FinalURL + "`"})
	}
	rows = append(rows,
		[]string{"Audit Date", report.DateAudited.Format(dateLayout)},
		[]string{"Status", w.getStatusText(report)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.AuditReport) string {
	if report.ErrorMessage != "" {
		return "❌ " + statusText(report.ErrorMessage)
	}
	return "✅ Complete"
}

// writeCategory writes the category score and an alert for its rating.
func (w *MarkdownWriter) writeCategory(md *markdown.Markdown, category *model.CategoryResult) {
	if category == nil {
		return
	}

	md.H2(category.Title)
	md.PlainText("")
	if category.Description != "" {
		md.PlainText(category.Description)
		md.PlainText("")
	}

	score := formatScore(category.Score)
	switch category.Rating() {
	case model.RatingPass:
		md.Tipf("Score %s / 100. The page follows sustainable web design practices.", score)
	case model.RatingAverage:
		md.Warningf("Score %s / 100. Some resources could be lighter.", score)
	case model.RatingFail:
		md.Cautionf("Score %s / 100. The page transfers or decodes more than it needs to.", score)
	default:
		md.Note("No audit in this category could be scored.")
	}
	md.PlainText("")

	rows := make([][]string, 0, len(category.Refs))
	for _, ref := range category.Refs {
		rows = append(rows, []string{
			"`" + ref.ID + "`",
			strconv.FormatFloat(ref.Weight, 'f', -1, 64),
			strconv.FormatFloat(ref.AppliedWeight, 'f', -1, 64),
		})
	}
	md.Details("Weights", tableString([]string{"Audit", "Weight", "Applied"}, rows))
	md.PlainText("")

	if len(category.Unavailable) > 0 {
		md.PlainTextf("Not run in this audit: %s", strings.Join(category.Unavailable, ", "))
		md.PlainText("")
	}
}

// writeRatings writes the rating count table and pie chart.
func (w *MarkdownWriter) writeRatings(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Rating Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(model.Ratings()))
	total := 0
	for _, r := range model.Ratings() {
		n := summary.Count(r)
		total += n
		rows = append(rows, []string{ratingEmoji(r) + " " + ratingLabel(r), strconv.Itoa(n)})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(total) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Rating", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if total > 0 {
		w.writePieChart(md, summary)
	}
}

// writePieChart writes a mermaid pie chart of the rating distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Audit Rating Distribution"),
		piechart.WithShowData(true),
	)

	for _, r := range model.Ratings() {
		if n := summary.Count(r); n > 0 {
			chart.LabelAndIntValue(ratingLabel(r), uint64(n))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAudits writes the audit result table and descriptions.
func (w *MarkdownWriter) writeAudits(md *markdown.Markdown, results []model.AuditResult) {
	md.H2("Audits")
	md.PlainText("")

	if len(results) == 0 {
		md.PlainText("No audits were run.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(results))
	for i := range results {
		r := &results[i]
		detail := r.DisplayValue
		if r.Errored() {
			detail = r.ErrorMessage
		}
		if detail == "" {
			detail = "-"
		}
		rows[i] = []string{
			r.Title,
			ratingEmoji(r.Rating()) + " " + ratingLabel(r.Rating()),
			formatScore(r.Score),
			formatNumeric(r),
			truncateString(detail, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Audit", "Rating", "Score", "Value", "Details"},
		Rows:   rows,
	})
	md.PlainText("")

	for i := range results {
		if results[i].Description != "" {
			md.Details(results[i].Title, results[i].Description)
		}
	}
	md.PlainText("")
}

// writeWarnings writes non-fatal problems of the run.
func (w *MarkdownWriter) writeWarnings(md *markdown.Markdown, warnings []string) {
	if len(warnings) == 0 {
		return
	}

	md.H2("Warnings")
	md.PlainText("")
	md.BulletList(warnings...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [ecoaudit](https://github.com/nao1215/ecoaudit)*")
}

// ratingEmoji returns a colored marker for the rating.
func ratingEmoji(r model.Rating) string {
	switch r {
	case model.RatingPass:
		return "🟢"
	case model.RatingAverage:
		return "🟠"
	case model.RatingFail:
		return "🔴"
	case model.RatingError:
		return "⚠️"
	default:
		return "⚪"
	}
}

// tableString renders a markdown table into a string so it can be nested
// in a details block.
func tableString(header []string, rows [][]string) string {
	var sb strings.Builder
	markdown.NewMarkdown(&sb).
		Table(markdown.TableSet{Header: header, Rows: rows}).
		Build() //nolint:errcheck // strings.Builder does not fail
	return sb.String()
}
