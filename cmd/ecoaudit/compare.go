package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/ecoaudit/internal/config"
	"github.com/nao1215/ecoaudit/internal/database"
	"github.com/nao1215/ecoaudit/internal/model"
	"github.com/nao1215/ecoaudit/internal/report"
	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"
)

// Directions of a score or audit change.
const (
	directionImproved  = "improved"
	directionWorsened  = "worsened"
	directionUnchanged = "unchanged"
	directionUnknown   = "unknown"
	directionAdded     = "added"
	directionRemoved   = "removed"
)

const (
	compareDateLayout = "2006-01-02 15:04:05"
	sinceLayout       = "2006-01-02"
)

var (
	// errNoHistory is returned when the database has no report for the URL.
	errNoHistory = errors.New("no audit history found")

	// errNotEnoughHistory is returned when fewer than two reports can be compared.
	errNotEnoughHistory = errors.New("at least 2 audits are required for comparison")

	// errReportNotFound is returned for an unknown --with-id.
	errReportNotFound = errors.New("audit report not found")
)

// NewCompareCmd creates the compare command.
// This command compares audit results with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [url]",
		Short: "Compare audit results with historical data",
		Long: `Compare displays differences between the latest and an earlier audit of a URL.

It shows:
- The change of the sustainability score
- Whether the HTML document itself changed between the audits
- Audits that improved, worsened, appeared or disappeared

The comparison requires at least two audits of the URL in the database.
Use 'ecoaudit audit' to audit a page and save the result.

Examples:
  # Compare the latest two audits of a page
  ecoaudit compare https://example.com/

  # List the audit history of a page
  ecoaudit compare --list https://example.com/

  # Compare with a specific audit by ID
  ecoaudit compare --with-id 5 https://example.com/

  # Compare with the first audit since a date
  ecoaudit compare --since 2026-01-01 https://example.com/

  # Output comparison in JSON format
  ecoaudit compare --json https://example.com/

  # List all audited URLs
  ecoaudit compare --list-urls`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List audit history for the specified URL")
	cmd.Flags().BoolP("list-urls", "L", false,
		"List all audited URLs in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare with a specific audit by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first audit at or after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format")

	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")

	return cmd
}

// compareOptions holds the parsed flags of the compare command.
type compareOptions struct {
	withID   int64
	since    time.Time
	json     bool
	markdown bool
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	listURLs, err := flags.GetBool("list-urls")
	if err != nil {
		return err
	}
	listHistory, err := flags.GetBool("list")
	if err != nil {
		return err
	}

	var opts compareOptions
	if opts.withID, err = flags.GetInt64("with-id"); err != nil {
		return err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if opts.json && opts.markdown {
		return config.ErrConflictingReportFormats
	}
	sinceDate, err := flags.GetString("since")
	if err != nil {
		return err
	}
	if sinceDate != "" {
		opts.since, err = time.Parse(sinceLayout, sinceDate)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
	}
	if opts.withID != 0 && sinceDate != "" {
		return errors.New("--with-id and --since cannot be used together")
	}

	// Validate arguments before opening the database.
	var target string
	if !listURLs {
		if len(args) == 0 {
			return errors.New("URL is required (use --list-urls to see audited URLs)")
		}
		target, err = normalizeTarget(args[0])
		if err != nil {
			return err
		}
	}

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case listURLs:
		return listAuditedURLs(ctx, db, out, opts)
	case listHistory:
		return listAuditHistory(ctx, db, out, target, opts)
	default:
		return runComparison(ctx, db, out, target, opts)
	}
}

// listAuditedURLs lists all URLs that have reports in the database.
func listAuditedURLs(ctx context.Context, db *database.HistoryDB, out io.Writer, opts compareOptions) error {
	urls, err := db.ListAuditedURLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list URLs: %w", err)
	}

	if opts.json {
		if urls == nil {
			urls = []string{}
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(urls)
	}

	if len(urls) == 0 {
		fmt.Fprintln(out, "No audited URLs found in the database.")
		fmt.Fprintln(out, "\nUse 'ecoaudit audit <url>' to audit a page.")
		return nil
	}

	if opts.markdown {
		md := markdown.NewMarkdown(out)
		md.H2(fmt.Sprintf("Audited URLs (%d)", len(urls)))
		md.PlainText("")
		md.BulletList(urls...)
		return md.Build()
	}

	fmt.Fprintf(out, "Audited URLs (%d):\n\n", len(urls))
	for _, u := range urls {
		fmt.Fprintf(out, "  - %s\n", u)
	}
	fmt.Fprintln(out, "\nUse 'ecoaudit compare --list <url>' to see the audit history of a URL.")
	return nil
}

// listAuditHistory lists all stored reports of a URL, newest first.
func listAuditHistory(ctx context.Context, db *database.HistoryDB, out io.Writer, target string, opts compareOptions) error {
	metas, err := db.GetHistoryMetadata(ctx, target, opts.since)
	if err != nil {
		return fmt.Errorf("failed to get audit history: %w", err)
	}

	switch {
	case opts.json:
		w := report.NewJSONWriter(out, report.WithPrettyPrint())
		for _, meta := range metas {
			if _, err := w.WriteSummary(meta.Summary); err != nil {
				return err
			}
		}
		return nil
	case opts.markdown:
		w := report.NewMarkdownWriter(out)
		for _, meta := range metas {
			if _, err := w.WriteSummary(meta.Summary); err != nil {
				return err
			}
		}
		return nil
	}

	if len(metas) == 0 {
		fmt.Fprintf(out, "No audit history found for %s\n", target)
		fmt.Fprintln(out, "\nUse 'ecoaudit audit' to audit this page.")
		return nil
	}

	fmt.Fprintf(out, "Audit history for %s (%d audits):\n\n", target, len(metas))
	fmt.Fprintf(out, "  %-6s  %-20s  %-5s  %-10s  %s\n", "ID", "Date", "Score", "Document", "Ratings")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 66))

	for _, meta := range metas {
		fmt.Fprintf(out, "  %-6d  %-20s  %-5s  %-10s  %s\n",
			meta.ID,
			meta.AuditedAt.Local().Format(compareDateLayout),
			formatPoints(meta.CategoryScore),
			shortHash(meta.DocumentHash),
			formatRatingCounts(meta.Summary),
		)
	}

	fmt.Fprintln(out, "\nUse 'ecoaudit compare <url>' to compare the latest two audits.")
	fmt.Fprintln(out, "Use 'ecoaudit compare --with-id <id> <url>' to compare with a specific audit.")
	return nil
}

// formatRatingCounts renders the rating counts, e.g. "P:2 A:1 F:1".
func formatRatingCounts(s *model.Summary) string {
	if s == nil {
		return "N/A"
	}
	parts := []string{
		"P:" + strconv.Itoa(s.PassCount),
		"A:" + strconv.Itoa(s.AverageCount),
		"F:" + strconv.Itoa(s.FailCount),
	}
	if s.NotApplicableCount > 0 {
		parts = append(parts, "N:"+strconv.Itoa(s.NotApplicableCount))
	}
	if s.ErrorCount > 0 {
		parts = append(parts, "E:"+strconv.Itoa(s.ErrorCount))
	}
	return strings.Join(parts, " ")
}

// runComparison compares the latest report of target with an earlier one.
func runComparison(ctx context.Context, db *database.HistoryDB, out io.Writer, target string, opts compareOptions) error {
	metas, err := db.GetHistoryMetadata(ctx, target, time.Time{})
	if err != nil {
		return fmt.Errorf("failed to get audit history: %w", err)
	}
	if len(metas) == 0 {
		return fmt.Errorf("%w for %s", errNoHistory, target)
	}

	currentID := metas[0].ID
	var previousID int64

	switch {
	case opts.withID != 0:
		if opts.withID == currentID {
			return fmt.Errorf("audit %d is the latest audit; choose an earlier one", opts.withID)
		}
		previousID = opts.withID
	case !opts.since.IsZero():
		since, err := db.GetHistoryMetadata(ctx, target, opts.since)
		if err != nil {
			return fmt.Errorf("failed to get audit history: %w", err)
		}
		if len(since) == 0 {
			return fmt.Errorf("%w since %s", errNoHistory, opts.since.Format(sinceLayout))
		}
		// Newest first, so the oldest match is last.
		previousID = since[len(since)-1].ID
		if previousID == currentID {
			return fmt.Errorf("%w: only one audit since %s", errNotEnoughHistory, opts.since.Format(sinceLayout))
		}
	default:
		if len(metas) < 2 {
			return fmt.Errorf("%w (found %d)", errNotEnoughHistory, len(metas))
		}
		previousID = metas[1].ID
	}

	current, err := db.GetReportByID(ctx, currentID)
	if err != nil {
		return fmt.Errorf("failed to get audit %d: %w", currentID, err)
	}
	previous, err := db.GetReportByID(ctx, previousID)
	if err != nil {
		return fmt.Errorf("failed to get audit %d: %w", previousID, err)
	}
	if current == nil {
		return fmt.Errorf("%w: %d", errReportNotFound, currentID)
	}
	if previous == nil {
		return fmt.Errorf("%w: %d", errReportNotFound, previousID)
	}
	if previous.URL != target {
		return fmt.Errorf("audit %d belongs to %s, not %s", previousID, previous.URL, target)
	}

	comparison := compareReports(previous, current)
	comparison.Previous.ID = previousID
	comparison.Current.ID = currentID

	switch {
	case opts.json:
		return outputComparisonJSON(out, comparison)
	case opts.markdown:
		return outputComparisonMarkdown(out, comparison)
	default:
		return outputComparisonText(out, comparison)
	}
}

// ComparisonResult holds the result of comparing two audit reports.
type ComparisonResult struct {
	// URL is the audited URL.
	URL string `json:"url"`

	// Previous describes the earlier audit.
	Previous AuditMetadata `json:"previous"`

	// Current describes the latest audit.
	Current AuditMetadata `json:"current"`

	// DocumentChanged reports whether the HTML document differs between the audits.
	DocumentChanged bool `json:"document_changed"`

	// ScoreChange describes the change of the category score.
	ScoreChange ScoreChange `json:"score_change"`

	// Audits lists the change of every audit present in either report.
	Audits []AuditChange `json:"audits"`
}

// AuditMetadata contains metadata about one audit for comparison display.
type AuditMetadata struct {
	// ID is the database ID of the report.
	ID int64 `json:"id"`

	// DateAudited is when the audit was performed.
	DateAudited time.Time `json:"date_audited"`

	// DocumentHash is the digest of the main document.
	DocumentHash string `json:"document_hash,omitempty"`

	// Score is the category score on the 0..100 scale, or nil.
	Score *int `json:"score"`

	// PassCount, AverageCount and FailCount are the rating counts.
	PassCount    int `json:"pass_count"`
	AverageCount int `json:"average_count"`
	FailCount    int `json:"fail_count"`
}

// ScoreChange describes the change of the category score between audits.
type ScoreChange struct {
	// Direction is "improved", "worsened", "unchanged" or "unknown" when
	// either audit has no score.
	Direction string `json:"direction"`

	// Delta is the change in points, or nil when Direction is "unknown".
	Delta *int `json:"delta"`

	PassDelta    int `json:"pass_delta"`
	AverageDelta int `json:"average_delta"`
	FailDelta    int `json:"fail_delta"`
}

// AuditChange describes how a single audit changed.
type AuditChange struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	PreviousScore *int `json:"previous_score"`
	CurrentScore  *int `json:"current_score"`

	PreviousRating string `json:"previous_rating,omitempty"`
	CurrentRating  string `json:"current_rating,omitempty"`

	// Direction is one of improved, worsened, unchanged, added or removed.
	Direction string `json:"direction"`
}

// compareReports compares two audit reports.
func compareReports(previous, current *model.AuditReport) *ComparisonResult {
	result := &ComparisonResult{
		URL:             current.URL,
		Previous:        newAuditMetadata(previous),
		Current:         newAuditMetadata(current),
		DocumentChanged: previous.DocumentHash != current.DocumentHash,
	}

	result.ScoreChange = ScoreChange{
		Direction:    scoreDirection(result.Previous.Score, result.Current.Score),
		PassDelta:    result.Current.PassCount - result.Previous.PassCount,
		AverageDelta: result.Current.AverageCount - result.Previous.AverageCount,
		FailDelta:    result.Current.FailCount - result.Previous.FailCount,
	}
	if result.Previous.Score != nil && result.Current.Score != nil {
		delta := *result.Current.Score - *result.Previous.Score
		result.ScoreChange.Delta = &delta
	}

	// Current audits in report order, then audits that disappeared.
	for i := range current.Results {
		cur := &current.Results[i]
		change := AuditChange{
			ID:            cur.ID,
			Title:         cur.Title,
			CurrentScore:  points(cur.Score),
			CurrentRating: cur.Rating().String(),
		}
		if prev := previous.Result(cur.ID); prev != nil {
			change.PreviousScore = points(prev.Score)
			change.PreviousRating = prev.Rating().String()
			change.Direction = auditDirection(prev, cur)
		} else {
			change.Direction = directionAdded
		}
		result.Audits = append(result.Audits, change)
	}
	for i := range previous.Results {
		prev := &previous.Results[i]
		if current.Result(prev.ID) != nil {
			continue
		}
		result.Audits = append(result.Audits, AuditChange{
			ID:             prev.ID,
			Title:          prev.Title,
			PreviousScore:  points(prev.Score),
			PreviousRating: prev.Rating().String(),
			Direction:      directionRemoved,
		})
	}

	return result
}

// newAuditMetadata extracts the comparison metadata of a report.
func newAuditMetadata(r *model.AuditReport) AuditMetadata {
	summary := model.NewSummary(r)
	return AuditMetadata{
		DateAudited:  r.DateAudited,
		DocumentHash: r.DocumentHash,
		Score:        points(summary.CategoryScore),
		PassCount:    summary.PassCount,
		AverageCount: summary.AverageCount,
		FailCount:    summary.FailCount,
	}
}

// points converts a 0..1 score to rounded points on the 0..100 scale.
// Comparing points instead of raw scores ignores float noise.
func points(score *float64) *int {
	if score == nil {
		return nil
	}
	p := int(math.Round(*score * 100))
	return &p
}

// scoreDirection compares two scores in points.
func scoreDirection(previous, current *int) string {
	switch {
	case previous == nil || current == nil:
		return directionUnknown
	case *current > *previous:
		return directionImproved
	case *current < *previous:
		return directionWorsened
	default:
		return directionUnchanged
	}
}

// auditDirection compares one audit across two reports. An audit with
// nothing to check counts as a full score; starting or stopping to error is
// a change in itself.
func auditDirection(previous, current *model.AuditResult) string {
	prevErr, curErr := previous.Errored(), current.Errored()
	switch {
	case prevErr && curErr:
		return directionUnchanged
	case curErr:
		return directionWorsened
	case prevErr:
		return directionImproved
	}
	return scoreDirection(effectivePoints(previous), effectivePoints(current))
}

// effectivePoints returns the points of a result, 100 when not applicable.
func effectivePoints(r *model.AuditResult) *int {
	if r.NotApplicable {
		full := 100
		return &full
	}
	return points(r.Score)
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(out io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)

	md.H1("Audit Comparison: " + result.URL)
	md.PlainText("")
	md.H2("Summary")
	md.PlainText("")
	md.PlainTextf("**Score:** %s", formatDirection(result.ScoreChange.Direction))
	md.PlainText("")
	if result.DocumentChanged {
		md.Note("The HTML document changed between the audits.")
	} else {
		md.Note("The HTML document is identical in both audits.")
	}
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"ID", strconv.FormatInt(result.Previous.ID, 10), strconv.FormatInt(result.Current.ID, 10), "-"},
			{"Date", result.Previous.DateAudited.Local().Format(compareDateLayout),
				result.Current.DateAudited.Local().Format(compareDateLayout), "-"},
			{"**Score**", formatIntPoints(result.Previous.Score), formatIntPoints(result.Current.Score),
				formatDeltaPtr(result.ScoreChange.Delta)},
			{"Pass", strconv.Itoa(result.Previous.PassCount), strconv.Itoa(result.Current.PassCount),
				formatDelta(result.ScoreChange.PassDelta)},
			{"Average", strconv.Itoa(result.Previous.AverageCount), strconv.Itoa(result.Current.AverageCount),
				formatDelta(result.ScoreChange.AverageDelta)},
			{"Fail", strconv.Itoa(result.Previous.FailCount), strconv.Itoa(result.Current.FailCount),
				formatDelta(result.ScoreChange.FailDelta)},
		},
	})
	md.PlainText("")

	if len(result.Audits) > 0 {
		md.H2("Audits")
		md.PlainText("")
		rows := make([][]string, 0, len(result.Audits))
		for _, a := range result.Audits {
			rows = append(rows, []string{
				"`" + a.ID + "`",
				formatIntPoints(a.PreviousScore),
				formatIntPoints(a.CurrentScore),
				a.Direction,
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Audit", "Previous", "Current", "Change"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	return md.Build()
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(out io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(out, "Audit Comparison: %s\n", result.URL)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nScore: %s\n", formatDirection(result.ScoreChange.Direction))

	fmt.Fprintf(out, "\nPrevious audit: #%d %s (%s)\n", result.Previous.ID,
		result.Previous.DateAudited.Local().Format(compareDateLayout), humanize.Time(result.Previous.DateAudited))
	fmt.Fprintf(out, "Current audit:  #%d %s (%s)\n", result.Current.ID,
		result.Current.DateAudited.Local().Format(compareDateLayout), humanize.Time(result.Current.DateAudited))
	if result.DocumentChanged {
		fmt.Fprintln(out, "Document:       changed")
	} else {
		fmt.Fprintln(out, "Document:       unchanged")
	}

	fmt.Fprintln(out, "\nSummary:")
	fmt.Fprintf(out, "  %-10s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	fmt.Fprintf(out, "  %-10s  %-10s  %-10s  %-10s\n", "Score",
		formatIntPoints(result.Previous.Score), formatIntPoints(result.Current.Score),
		formatDeltaPtr(result.ScoreChange.Delta))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Pass",
		result.Previous.PassCount, result.Current.PassCount, formatDelta(result.ScoreChange.PassDelta))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Average",
		result.Previous.AverageCount, result.Current.AverageCount, formatDelta(result.ScoreChange.AverageDelta))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Fail",
		result.Previous.FailCount, result.Current.FailCount, formatDelta(result.ScoreChange.FailDelta))

	if len(result.Audits) > 0 {
		fmt.Fprintln(out, "\nAudits:")
		for _, a := range result.Audits {
			fmt.Fprintf(out, "  [%s] %-20s %s -> %s\n",
				auditMarker(a.Direction), a.ID, formatIntPoints(a.PreviousScore), formatIntPoints(a.CurrentScore))
		}
	}

	return nil
}

// auditMarker returns a one-character marker for an audit change.
func auditMarker(direction string) string {
	switch direction {
	case directionImproved:
		return "+"
	case directionWorsened:
		return "-"
	case directionAdded:
		return "N"
	case directionRemoved:
		return "R"
	default:
		return "="
	}
}

// formatDirection formats the score direction for display.
func formatDirection(direction string) string {
	switch direction {
	case directionImproved:
		return "IMPROVED (score increased)"
	case directionWorsened:
		return "WORSENED (score decreased)"
	case directionUnknown:
		return "UNKNOWN (score missing)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}

// formatDeltaPtr formats an optional delta, "-" when missing.
func formatDeltaPtr(delta *int) string {
	if delta == nil {
		return "-"
	}
	return formatDelta(*delta)
}

// formatIntPoints renders optional points, "-" when missing.
func formatIntPoints(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

// formatPoints renders a 0..1 score as points, "-" when missing.
func formatPoints(score *float64) string {
	return formatIntPoints(points(score))
}

// shortHash returns the first 8 characters of a document hash.
func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	if hash == "" {
		return "-"
	}
	return hash
}
