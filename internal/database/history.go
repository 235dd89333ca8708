package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/ecoaudit/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "ecoaudit.db"

// timestampLayout is fixed width so that audited_at sorts lexically.
const timestampLayout = "2006-01-02 15:04:05.000000"

// HistoryDB provides SQLite-based storage for audit reports.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// Otherwise a missing database yields ErrDatabaseNotFound.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a new file, mode=rwc allows it. A second
	// process opening the file waits for the lock instead of failing.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}
	dsn += "&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		audited_at TEXT NOT NULL,
		document_hash TEXT NOT NULL DEFAULT '',
		category_score REAL,
		summary_json TEXT NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_url ON audit_reports(url);
	CREATE INDEX IF NOT EXISTS idx_reports_audited_at ON audit_reports(audited_at);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport stores a report and returns its ID.
func (hdb *HistoryDB) SaveReport(ctx context.Context, report *model.AuditReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	summary := model.NewSummary(report)
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize summary: %w", err)
	}

	var score sql.NullFloat64
	if summary.CategoryScore != nil {
		score = sql.NullFloat64{Float64: *summary.CategoryScore, Valid: true}
	}

	query := `
	INSERT INTO audit_reports (url, audited_at, document_hash, category_score, summary_json, report_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		report.URL,
		formatTimestamp(report.DateAudited),
		report.DocumentHash,
		score,
		string(summaryJSON),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save audit report: %w", err)
	}

	return result.LastInsertId()
}

// GetLatestReport retrieves the most recent report for url.
// It returns nil without error when there is none.
func (hdb *HistoryDB) GetLatestReport(ctx context.Context, url string) (*model.AuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE url = ?
	ORDER BY audited_at DESC, id DESC
	LIMIT 1
	`
	return hdb.queryReport(ctx, query, url)
}

// GetReportByID retrieves a report by its database ID.
// It returns nil without error when there is none.
func (hdb *HistoryDB) GetReportByID(ctx context.Context, id int64) (*model.AuditReport, error) {
	return hdb.queryReport(ctx, `SELECT report_json FROM audit_reports WHERE id = ?`, id)
}

// queryReport runs a single-row query returning report_json.
func (hdb *HistoryDB) queryReport(ctx context.Context, query string, args ...any) (*model.AuditReport, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, args...).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit report: %w", err)
	}

	var report model.AuditReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// ListAuditedURLs returns every URL with at least one stored report.
func (hdb *HistoryDB) ListAuditedURLs(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT url FROM audit_reports
	ORDER BY url
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list URLs: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan URL: %w", err)
		}
		urls = append(urls, u)
	}

	return urls, rows.Err()
}

// GetHistory retrieves all reports for url, newest first.
// Malformed rows are skipped.
func (hdb *HistoryDB) GetHistory(ctx context.Context, url string) ([]*model.AuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE url = ?
	ORDER BY audited_at DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer rows.Close()

	var reports []*model.AuditReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.AuditReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// ReportMetadata describes a stored report without loading it.
type ReportMetadata struct {
	// ID is the unique identifier of the report in the database.
	ID int64

	// URL is the audited URL.
	URL string

	// AuditedAt is when the audit was performed.
	AuditedAt time.Time

	// DocumentHash is the SHA3-256 digest of the audited document.
	DocumentHash string

	// CategoryScore is the category score, or nil when none was computed.
	CategoryScore *float64

	// Summary holds the rating counts of the report.
	Summary *model.Summary
}

// GetHistoryMetadata retrieves report metadata for url, newest first.
// A non-zero since keeps only reports audited at or after it.
func (hdb *HistoryDB) GetHistoryMetadata(ctx context.Context, url string, since time.Time) ([]ReportMetadata, error) {
	query := `
	SELECT id, url, audited_at, document_hash, category_score, summary_json
	FROM audit_reports
	WHERE url = ?
	`
	args := []any{url}

	if !since.IsZero() {
		query += " AND audited_at >= ?"
		args = append(args, formatTimestamp(since))
	}
	query += " ORDER BY audited_at DESC, id DESC"

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer rows.Close()

	var results []ReportMetadata
	for rows.Next() {
		var meta ReportMetadata
		var auditedAt, summaryJSON string
		var score sql.NullFloat64

		if err := rows.Scan(&meta.ID, &meta.URL, &auditedAt, &meta.DocumentHash, &score, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.AuditedAt = parseTimestamp(auditedAt)
		if score.Valid {
			meta.CategoryScore = &score.Float64
		}

		meta.Summary = &model.Summary{}
		if err := json.Unmarshal([]byte(summaryJSON), meta.Summary); err != nil {
			meta.Summary = &model.Summary{URL: meta.URL, DateAudited: meta.AuditedAt}
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// formatTimestamp renders t in UTC with timestampLayout.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats accepted when reading.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// parseTimestamp parses a stored timestamp as UTC.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
