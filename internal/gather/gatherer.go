package gather

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/ecoaudit/internal/config"
	"github.com/nao1215/ecoaudit/internal/model"
)

const (
	defaultUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) ecoaudit"
	defaultMaxBodySize    = 10 * 1024 * 1024 // 10MB
	defaultMaxStylesheets = 50
	defaultRequestTimeout = 30 * time.Second
)

// SiteSettings provides per-host request settings such as cookies and headers.
// *config.File implements it.
type SiteSettings interface {
	GetSiteConfig(host string) config.SiteConfig
}

// Result is the outcome of gathering one page.
type Result struct {
	// Artifacts is the page data handed to the audits.
	Artifacts *model.Artifacts

	// DocumentHash is the hex SHA3-256 digest of the decoded main document.
	DocumentHash string

	// Warnings lists non-fatal problems, e.g. a stylesheet that failed to load.
	Warnings []string
}

// Gatherer fetches a page and its stylesheets.
type Gatherer struct {
	client         *http.Client
	userAgent      string
	maxBodySize    int64
	maxStylesheets int
	sites          SiteSettings
	logger         *slog.Logger
}

// Option configures a Gatherer.
type Option func(*Gatherer)

// WithHTTPClient sets the HTTP client. The client's transport must not
// decompress responses on its own when Accept-Encoding is set explicitly,
// which is the behavior of http.Transport.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gatherer) {
		g.client = client
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(g *Gatherer) {
		if ua != "" {
			g.userAgent = ua
		}
	}
}

// WithMaxBodySize limits how many bytes of each response are read.
func WithMaxBodySize(size int64) Option {
	return func(g *Gatherer) {
		if size > 0 {
			g.maxBodySize = size
		}
	}
}

// WithMaxStylesheets limits how many linked stylesheets are fetched.
func WithMaxStylesheets(n int) Option {
	return func(g *Gatherer) {
		if n >= 0 {
			g.maxStylesheets = n
		}
	}
}

// WithSiteSettings sets the provider of per-host cookies and headers.
func WithSiteSettings(sites SiteSettings) Option {
	return func(g *Gatherer) {
		g.sites = sites
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gatherer) {
		g.logger = logger
	}
}

// New creates a new Gatherer.
func New(opts ...Option) *Gatherer {
	g := &Gatherer{
		userAgent:      defaultUserAgent,
		maxBodySize:    defaultMaxBodySize,
		maxStylesheets: defaultMaxStylesheets,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.client == nil {
		g.client = &http.Client{Timeout: defaultRequestTimeout}
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Gather loads the page at rawURL and returns its artifacts.
// Failing to load the main document is an error; failing to load a
// stylesheet is only a warning.
func (g *Gatherer) Gather(ctx context.Context, rawURL string) (*Result, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, target.Scheme)
	}
	if target.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	doc, err := g.fetch(ctx, target.String(), model.ResourceTypeDocument)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	if doc.record.StatusCode < 200 || doc.record.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, doc.record.StatusCode)
	}
	if !isHTML(doc.contentType) {
		return nil, fmt.Errorf("%w: %s", ErrNotHTML, doc.contentType)
	}

	content, err := decodeText(doc.body, doc.contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyDocument
	}

	finalURL := doc.record.URL
	result := &Result{
		Artifacts: &model.Artifacts{
			URL: model.URLArtifact{
				RequestedURL:      target.String(),
				MainDocumentURL:   finalURL,
				FinalDisplayedURL: finalURL,
			},
			MainDocumentContent: content,
			NetworkRecords:      []model.NetworkRecord{doc.record},
		},
		DocumentHash: Hash([]byte(content)),
	}

	refs, err := discoverStylesheets(content, finalURL)
	if err != nil {
		return nil, err
	}
	result.Artifacts.Stylesheets = g.loadStylesheets(ctx, refs, result)

	g.logger.Debug("gathered page",
		"url", finalURL,
		"bytes", len(content),
		"stylesheets", len(result.Artifacts.Stylesheets),
		"warnings", len(result.Warnings),
	)
	return result, nil
}

// loadStylesheets fetches linked stylesheets and keeps inline ones.
func (g *Gatherer) loadStylesheets(ctx context.Context, refs []stylesheetRef, result *Result) []model.Stylesheet {
	sheets := make([]model.Stylesheet, 0, len(refs))
	fetched := 0

	for _, ref := range refs {
		if ref.URL == "" {
			sheets = append(sheets, model.Stylesheet{Content: ref.Inline})
			continue
		}

		if fetched >= g.maxStylesheets {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("stylesheet limit of %d reached, skipped %s", g.maxStylesheets, ref.URL))
			continue
		}
		fetched++

		res, err := g.fetch(ctx, ref.URL, model.ResourceTypeStylesheet)
		if err != nil {
			g.logger.Warn("failed to fetch stylesheet", "url", ref.URL, "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to fetch stylesheet %s: %v", ref.URL, err))
			continue
		}
		result.Artifacts.NetworkRecords = append(result.Artifacts.NetworkRecords, res.record)

		if res.record.StatusCode < 200 || res.record.StatusCode > 299 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("stylesheet %s returned status %d", ref.URL, res.record.StatusCode))
			continue
		}

		css, err := decodeText(res.body, res.contentType)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to decode stylesheet %s: %v", ref.URL, err))
			continue
		}
		sheets = append(sheets, model.Stylesheet{URL: res.record.URL, Content: css})
	}
	return sheets
}

// isHTML reports whether the Content-Type describes an HTML document.
// A missing Content-Type is accepted.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
