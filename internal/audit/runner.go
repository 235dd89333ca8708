package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/ecoaudit/internal/model"
)

// Runner runs registered audits against one set of artifacts and turns each
// outcome into a model.AuditResult.
//
// Audits run sequentially in registration order. A failing audit is recorded
// as an errored result and does not stop the others.
type Runner struct {
	audits []Audit
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets the logger used to report audit failures.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner with the given audits.
func NewRunner(audits []Audit, opts ...RunnerOption) *Runner {
	r := &Runner{
		audits: make([]Audit, 0, len(audits)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.Register(audits...)
	return r
}

// Register adds audits to the runner.
func (r *Runner) Register(audits ...Audit) {
	r.audits = append(r.audits, audits...)
}

// IDs returns the IDs of the registered audits in run order.
func (r *Runner) IDs() []string {
	ids := make([]string, len(r.audits))
	for i, a := range r.audits {
		ids[i] = a.Meta().ID
	}
	return ids
}

// Run executes every registered audit. On cancellation it returns the
// results gathered so far together with the context error.
func (r *Runner) Run(ctx context.Context, artifacts *model.Artifacts) ([]model.AuditResult, error) {
	results := make([]model.AuditResult, 0, len(r.audits))

	for _, a := range r.audits {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		result := r.runOne(ctx, a, artifacts)
		results = append(results, result)
	}
	return results, nil
}

// runOne runs a single audit and converts its outcome.
func (r *Runner) runOne(ctx context.Context, a Audit, artifacts *model.Artifacts) model.AuditResult {
	meta := a.Meta()
	result := model.AuditResult{
		ID:          meta.ID,
		Title:       meta.Title,
		Description: meta.Description,
	}

	if err := checkArtifacts(meta, artifacts); err != nil {
		r.logger.Warn("audit skipped", "audit", meta.ID, "error", err)
		result.ErrorMessage = err.Error()
		return result
	}

	product, err := a.Audit(ctx, artifacts)
	if err == nil && product == nil {
		err = fmt.Errorf("%w: no result", ErrInvalidScore)
	}
	if err == nil && !validScore(product.Score) {
		err = fmt.Errorf("%w: %v", ErrInvalidScore, *product.Score)
	}
	if err != nil {
		r.logger.Warn("audit failed", "audit", meta.ID, "error", err)
		result.ErrorMessage = err.Error()
		return result
	}

	result.Score = product.Score
	result.NumericValue = product.NumericValue
	result.NumericUnit = product.NumericUnit
	result.DisplayValue = product.DisplayValue
	result.NotApplicable = product.NotApplicable

	if meta.FailureTitle != "" && product.Score != nil && *product.Score < model.RatingPassThreshold {
		result.Title = meta.FailureTitle
	}

	r.logger.Debug("audit completed", "audit", meta.ID, "display", product.DisplayValue)
	return result
}

// checkArtifacts returns ErrMissingArtifact for the first required artifact
// that was not gathered.
func checkArtifacts(meta Meta, artifacts *model.Artifacts) error {
	for _, name := range meta.RequiredArtifacts {
		if !artifacts.Has(name) {
			return fmt.Errorf("%w: %s", ErrMissingArtifact, name)
		}
	}
	return nil
}
