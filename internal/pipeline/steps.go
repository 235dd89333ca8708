package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/ecoaudit/internal/audit"
	"github.com/nao1215/ecoaudit/internal/gather"
	"github.com/nao1215/ecoaudit/internal/model"
	"github.com/nao1215/ecoaudit/internal/plugin"
)

// Source produces the artifacts for a URL.
// *gather.Gatherer fetches them over HTTP; FileSource reads them from disk.
type Source interface {
	Gather(ctx context.Context, rawURL string) (*gather.Result, error)
}

// FileSource loads artifacts from local files instead of the network.
// The URL passed to Gather is ignored.
type FileSource struct {
	// HTMLPath is the main document.
	HTMLPath string

	// CSSPaths are extra stylesheets, in addition to inline <style> blocks.
	CSSPaths []string

	// FinalURL is used to resolve relative video URLs. Empty means the
	// file:// URL of HTMLPath.
	FinalURL string
}

// Gather implements Source.
func (f *FileSource) Gather(_ context.Context, _ string) (*gather.Result, error) {
	return gather.LoadFiles(f.HTMLPath, f.CSSPaths, f.FinalURL)
}

// GatherStep collects the page artifacts and stores them on the report.
type GatherStep struct {
	source Source
	logger *slog.Logger
}

// GatherStepOption configures a GatherStep.
type GatherStepOption func(*GatherStep)

// WithGatherLogger sets a custom logger for the gather step.
func WithGatherLogger(logger *slog.Logger) GatherStepOption {
	return func(s *GatherStep) {
		s.logger = logger
	}
}

// NewGatherStep creates a gather step reading from source.
func NewGatherStep(source Source, opts ...GatherStepOption) *GatherStep {
	s := &GatherStep{
		source: source,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *GatherStep) Name() string {
	return "gather"
}

// Do executes the gather step.
func (s *GatherStep) Do(ctx context.Context, report *model.AuditReport) error {
	result, err := s.source.Gather(ctx, report.URL)
	if err != nil {
		return fmt.Errorf("failed to gather artifacts: %w", err)
	}

	report.Artifacts = result.Artifacts
	report.FinalURL = result.Artifacts.URL.FinalDisplayedURL
	report.DocumentHash = result.DocumentHash
	for _, w := range result.Warnings {
		report.AddWarning(w)
	}

	s.logger.Debug("artifacts gathered",
		"stylesheets", len(result.Artifacts.Stylesheets),
		"document_bytes", len(result.Artifacts.MainDocumentContent),
		"warnings", len(result.Warnings),
	)
	return nil
}

// AuditStep runs the registered audits against the gathered artifacts.
type AuditStep struct {
	runner *audit.Runner
}

// NewAuditStep creates an audit step backed by runner.
func NewAuditStep(runner *audit.Runner) *AuditStep {
	return &AuditStep{runner: runner}
}

// Name returns the step name.
func (s *AuditStep) Name() string {
	return "audit"
}

// Do executes the audit step. Results gathered before a cancellation are
// still added to the report.
func (s *AuditStep) Do(ctx context.Context, report *model.AuditReport) error {
	if report.Artifacts == nil {
		return ErrNoArtifacts
	}

	results, err := s.runner.Run(ctx, report.Artifacts)
	for _, r := range results {
		report.AddResult(r)
	}
	if err != nil {
		return fmt.Errorf("audit run interrupted: %w", err)
	}
	return nil
}

// CategoryStep scores the category from the audit results.
type CategoryStep struct {
	category *plugin.Category
	logger   *slog.Logger
}

// CategoryStepOption configures a CategoryStep.
type CategoryStepOption func(*CategoryStep)

// WithCategoryLogger sets a custom logger for the category step.
func WithCategoryLogger(logger *slog.Logger) CategoryStepOption {
	return func(s *CategoryStep) {
		s.logger = logger
	}
}

// NewCategoryStep creates a category step for category.
func NewCategoryStep(category *plugin.Category, opts ...CategoryStepOption) *CategoryStep {
	s := &CategoryStep{
		category: category,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *CategoryStep) Name() string {
	return "category"
}

// Do executes the category step.
func (s *CategoryStep) Do(_ context.Context, report *model.AuditReport) error {
	if len(report.Results) == 0 {
		return ErrNoResults
	}

	report.Category = s.category.Score(report.Results)
	if len(report.Category.Unavailable) > 0 {
		s.logger.Debug("category references without results",
			"category", report.Category.ID,
			"refs", report.Category.Unavailable,
		)
	}
	return nil
}

// DefaultPipeline creates the standard gather, audit, category pipeline.
// The pipeline logger is shared with the steps and the audit runner.
func DefaultPipeline(source Source, audits []audit.Audit, category *plugin.Category, opts ...Option) *Pipeline {
	p := New(opts...)

	p.AddSteps(
		NewGatherStep(source, WithGatherLogger(p.logger)),
		NewAuditStep(audit.NewRunner(audits, audit.WithRunnerLogger(p.logger))),
		NewCategoryStep(category, WithCategoryLogger(p.logger)),
	)
	return p
}
