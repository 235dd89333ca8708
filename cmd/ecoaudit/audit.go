package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/ecoaudit/internal/audit"
	"github.com/nao1215/ecoaudit/internal/config"
	"github.com/nao1215/ecoaudit/internal/database"
	"github.com/nao1215/ecoaudit/internal/gather"
	"github.com/nao1215/ecoaudit/internal/log"
	"github.com/nao1215/ecoaudit/internal/model"
	"github.com/nao1215/ecoaudit/internal/pipeline"
	"github.com/nao1215/ecoaudit/internal/plugin"
	"github.com/nao1215/ecoaudit/internal/report"
	"github.com/nao1215/ecoaudit/internal/transport"
	"github.com/spf13/cobra"
)

// errAuditsFailed is returned when at least one URL could not be audited.
var errAuditsFailed = errors.New("audit failed")

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [url...]",
		Short: "Audit web pages for sustainability issues",
		Long: `Audit fetches web pages and checks them for wasted bytes:

- font-format:     fonts not served as WOFF2
- font-family:     @font-face families that are not web safe (need a download)
- unminified-html: HTML that would shrink when minified
- video-codec:     videos not encoded with AV1, VP9, HEVC or H.264 (requires ffprobe)

The results are rolled up into the "Sustainable Web Design" score and the
report is saved to the history database for "ecoaudit compare".

Examples:
  # Audit a single page
  ecoaudit audit https://example.com/

  # Audit several pages, two at a time
  ecoaudit audit -b 2 example.com example.org

  # Audit local files as if served from a URL
  ecoaudit audit --html dist/index.html --css dist/site.css --final-url https://example.com/

  # Write a Markdown report without ffprobe
  ecoaudit audit --skip-video -m -o report.md https://example.com/

  # Fetch through a SOCKS5 proxy
  ecoaudit audit --proxy 127.0.0.1:1080 https://intranet.example/

Configuration file (.ecoaudit) example:
  sites:
    www.example.com:
      cookie: "consent=accepted"
  video:
    probeTimeout: 1m
  category:
    weights:
      video-codec: 10`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	// Offline input
	cmd.Flags().String("html", "", "Audit a local HTML file instead of fetching URLs")
	cmd.Flags().StringSlice("css", nil, "Local CSS files used with --html (repeatable)")
	cmd.Flags().String("final-url", "", "URL the --html file is served from")

	// Audit behavior
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Time limit for gathering and auditing one URL")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent audits")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent header")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum size in bytes of a page or stylesheet; larger pages are not audited")
	cmd.Flags().Int("max-stylesheets", config.DefaultMaxStylesheets,
		"Maximum number of linked stylesheets fetched per page")
	cmd.Flags().String("ffprobe", config.DefaultFFProbePath, "Path of the ffprobe binary")
	cmd.Flags().Duration("probe-timeout", config.DefaultProbeTimeout, "Time limit for one video probe")
	cmd.Flags().Bool("skip-video", false, "Do not run the video-codec audit")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy address (host:port) for all requests")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .ecoaudit in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")
	cmd.Flags().Bool("no-save", false, "Do not save reports to the history database")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAudit(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and the config file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.HTMLFile, err = flags.GetString("html"); err != nil {
		return nil, err
	}
	if cfg.CSSFiles, err = flags.GetStringSlice("css"); err != nil {
		return nil, err
	}
	if cfg.FinalURL, err = flags.GetString("final-url"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.MaxStylesheets, err = flags.GetInt("max-stylesheets"); err != nil {
		return nil, err
	}
	if cfg.FFProbePath, err = flags.GetString("ffprobe"); err != nil {
		return nil, err
	}
	if cfg.ProbeTimeout, err = flags.GetDuration("probe-timeout"); err != nil {
		return nil, err
	}
	if cfg.SkipVideo, err = flags.GetBool("skip-video"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	cfg.Verbose = getVerboseFlag(cmd)

	// An explicit config path must exist; the default locations are optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file, flags.Changed)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	for _, arg := range args {
		target, err := normalizeTarget(arg)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, target)
	}

	return cfg, nil
}

// runAudit audits every target and writes one report per target to out.
// Progress messages go to status so that out stays machine readable.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger, out, status io.Writer) error {
	manifest := plugin.DefaultManifest()
	if cfg.File != nil && len(cfg.File.Category.Weights) > 0 {
		var err error
		manifest, err = manifest.WithWeights(cfg.File.Category.Weights)
		if err != nil {
			return fmt.Errorf("invalid category weights: %w", err)
		}
	}

	source, targets, err := newSource(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var db *database.HistoryDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
	}

	output, closeOutput, err := openOutput(cfg.ReportFile, out)
	if err != nil {
		return err
	}
	defer closeOutput()

	writer := newReportWriter(cfg, output)
	audits := audit.Defaults(newProber(cfg, logger))

	factory := func() *pipeline.Pipeline {
		return pipeline.DefaultPipeline(source, audits, &manifest.Category,
			pipeline.WithLogger(logger),
			pipeline.WithTimeout(cfg.Timeout),
		)
	}

	var (
		mu     sync.Mutex
		failed int
	)
	handle := func(r *model.AuditReport) {
		mu.Lock()
		defer mu.Unlock()

		if r.Error != nil {
			failed++
			logger.Error("audit failed", "url", log.SanitizeURL(r.URL), "error", r.Error)
			fmt.Fprintf(status, "Audit error for %s: %v\n", log.SanitizeURL(r.URL), r.Error)
		}
		if _, err := writer.Write(r); err != nil {
			logger.Error("report failed", "url", log.SanitizeURL(r.URL), "error", err)
		}
		// Only complete runs go to the history so compare never sees a
		// report without a score.
		if r.Error != nil || r.Category == nil {
			return
		}
		if err := saveReport(ctx, db, r, logger); err != nil {
			logger.Error("failed to save report", "url", log.SanitizeURL(r.URL), "error", err)
		}
	}

	start := time.Now()
	if len(targets) > 1 && cfg.BatchSize > 1 {
		fmt.Fprintf(status, "Auditing %d URLs (concurrency: %d)...\n", len(targets), cfg.BatchSize)
		bp := pipeline.NewBatchProcessor(factory,
			pipeline.WithConcurrency(cfg.BatchSize),
			pipeline.WithBatchLogger(logger),
		)
		err = bp.ProcessBatchWithCallback(ctx, targets, func(r *model.AuditReport, _ int) {
			handle(r)
		})
	} else {
		err = runSequential(ctx, factory, targets, status, handle)
	}
	fmt.Fprintf(status, "Finished in %s\n", time.Since(start).Round(time.Millisecond))

	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d URL(s) could not be audited", errAuditsFailed, failed, len(targets))
	}
	return nil
}

// runSequential audits targets one at a time.
func runSequential(
	ctx context.Context,
	factory func() *pipeline.Pipeline,
	targets []string,
	status io.Writer,
	handle func(*model.AuditReport),
) error {
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintf(status, "Auditing %s...\n", log.SanitizeURL(target))
		r := model.NewAuditReport(target)
		// Execute records its error in the report.
		_ = factory().Execute(ctx, r) //nolint:errcheck // handled through r.Error
		handle(r)
	}
	return nil
}

// newSource returns where pages come from and the URLs to audit.
// An offline run has exactly one target: the final URL, or the file URL of
// the HTML document when no final URL is given. A configured proxy is
// checked once here so that a dead proxy does not fail every URL.
func newSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.Source, []string, error) {
	if cfg.Offline() {
		target := cfg.FinalURL
		if target == "" {
			if abs, err := filepath.Abs(cfg.HTMLFile); err == nil {
				target = "file://" + filepath.ToSlash(abs)
			} else {
				target = cfg.HTMLFile
			}
		}
		return &pipeline.FileSource{
			HTMLPath: cfg.HTMLFile,
			CSSPaths: cfg.CSSFiles,
			FinalURL: cfg.FinalURL,
		}, []string{target}, nil
	}

	var clientOpts []transport.Option
	if cfg.ProxyAddress != "" {
		if status := transport.CheckProxy(ctx, cfg.ProxyAddress); status != transport.ProxyStatusOK {
			return nil, nil, fmt.Errorf("proxy %s: %w", cfg.ProxyAddress, status.Error())
		}
		logger.Debug("using proxy", "address", cfg.ProxyAddress)
		clientOpts = append(clientOpts, transport.WithProxy(cfg.ProxyAddress))
	}
	client, err := transport.NewHTTPClient(cfg.Timeout, clientOpts...)
	if err != nil {
		return nil, nil, err
	}

	opts := []gather.Option{
		gather.WithHTTPClient(client),
		gather.WithUserAgent(cfg.UserAgent),
		gather.WithMaxBodySize(cfg.MaxBodySize),
		gather.WithMaxStylesheets(cfg.MaxStylesheets),
		gather.WithLogger(logger),
	}
	if cfg.File != nil {
		opts = append(opts, gather.WithSiteSettings(cfg.File))
	}
	return gather.New(opts...), cfg.Targets, nil
}

// newProber returns the video prober, or nil when the video audit is skipped.
func newProber(cfg *config.Config, logger *slog.Logger) audit.CodecProber {
	if cfg.SkipVideo {
		return nil
	}
	if _, err := exec.LookPath(cfg.FFProbePath); err != nil {
		logger.Warn("ffprobe not found, pages with videos will report a video-codec error",
			"ffprobe", cfg.FFProbePath, "error", err)
	}
	return audit.NewFFProbe(
		audit.WithFFProbePath(cfg.FFProbePath),
		audit.WithProbeTimeout(cfg.ProbeTimeout),
	)
}

// newReportWriter returns the writer for the requested format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, readBuildInfo().Version, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// openOutput opens the report destination. An empty path selects stdout.
// The file is opened once so that reports of all targets end up in it.
func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports may contain cookies echoed in URLs, keep them owner readable.
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// saveReport saves the report to the database if enabled.
// If db is nil, this function is a no-op.
func saveReport(ctx context.Context, db *database.HistoryDB, r *model.AuditReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	// The run context may already be cancelled; the finished report is still kept.
	id, err := db.SaveReport(context.WithoutCancel(ctx), r)
	if err != nil {
		return err
	}

	logger.Debug("report saved", "url", log.SanitizeURL(r.URL), "id", id)
	return nil
}
