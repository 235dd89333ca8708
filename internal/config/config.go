package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "ecoaudit"

	// DefaultTimeout bounds gathering and auditing a single URL, including
	// every stylesheet fetch and video probe.
	DefaultTimeout = 2 * time.Minute

	// DefaultBatchSize is the number of URLs audited concurrently.
	// Each video probe starts an ffprobe process, so this stays small.
	DefaultBatchSize = 4

	// DefaultUserAgent identifies ecoaudit in HTTP requests.
	DefaultUserAgent = "ecoaudit/1.0 (+https://github.com/nao1215/ecoaudit)"

	// DefaultMaxBodySize limits how many bytes of a response are read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultMaxStylesheets limits how many linked stylesheets are fetched per page.
	DefaultMaxStylesheets = 50

	// DefaultFFProbePath is the ffprobe binary, looked up in PATH.
	DefaultFFProbePath = "ffprobe"

	// DefaultProbeTimeout bounds a single ffprobe invocation.
	DefaultProbeTimeout = 30 * time.Second
)

// Config holds all configuration options for an audit run.
// It is populated from CLI flags, optionally merged with the config file,
// and passed explicitly to the components that need it.
type Config struct {
	// Targets is the list of URLs to audit.
	Targets []string

	// HTMLFile is a local HTML document to audit instead of fetching Targets.
	HTMLFile string

	// CSSFiles are local stylesheets used together with HTMLFile.
	CSSFiles []string

	// FinalURL is the URL HTMLFile would be served from. Relative video
	// sources are resolved against it.
	FinalURL string

	// Timeout bounds gathering and auditing a single URL.
	Timeout time.Duration

	// BatchSize is the number of URLs audited concurrently.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .ecoaudit is searched in the current directory and then
	// in the user's home directory.
	ConfigFilePath string

	// File holds the settings loaded from the configuration file, if any.
	File *File

	// JSONReport enables JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory of the SQLite history database.
	// Defaults to the XDG data directory (~/.local/share/ecoaudit on Linux).
	DBDir string

	// SaveToDB indicates whether audit reports are stored for later comparison.
	SaveToDB bool

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// MaxStylesheets limits how many linked stylesheets are fetched per page.
	MaxStylesheets int

	// FFProbePath is the ffprobe binary used by the video-codec audit.
	FFProbePath string

	// ProbeTimeout bounds a single video probe.
	ProbeTimeout time.Duration

	// SkipVideo disables the video-codec audit, e.g. when ffprobe is not installed.
	SkipVideo bool

	// ProxyAddress is a SOCKS5 proxy (host:port) for all HTTP requests.
	// Empty means direct connections. Ignored when auditing local files.
	ProxyAddress string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:        DefaultTimeout,
		BatchSize:      DefaultBatchSize,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
		MaxStylesheets: DefaultMaxStylesheets,
		FFProbePath:    DefaultFFProbePath,
		ProbeTimeout:   DefaultProbeTimeout,
		DBDir:          XDGDataDir(),
		SaveToDB:       true,
	}
}

// XDGDataDir returns the XDG data directory for ecoaudit.
// On Linux: ~/.local/share/ecoaudit
// On macOS: ~/Library/Application Support/ecoaudit
// On Windows: %LOCALAPPDATA%\ecoaudit
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for ecoaudit.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Offline reports whether the run audits local files instead of URLs.
func (c *Config) Offline() bool {
	return c.HTMLFile != ""
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 && c.HTMLFile == "" {
		return ErrNoTarget
	}
	if len(c.Targets) > 0 && c.HTMLFile != "" {
		return ErrConflictingTargets
	}
	if c.HTMLFile == "" && (len(c.CSSFiles) > 0 || c.FinalURL != "") {
		return ErrFileOptionsWithoutHTML
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxStylesheets < 0 {
		return ErrInvalidMaxStylesheets
	}
	if !c.SkipVideo && c.ProbeTimeout <= 0 {
		return ErrInvalidProbeTimeout
	}
	return nil
}
