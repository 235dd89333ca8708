package pipeline

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/ecoaudit/internal/audit"
	"github.com/nao1215/ecoaudit/internal/gather"
	"github.com/nao1215/ecoaudit/internal/model"
	"github.com/nao1215/ecoaudit/internal/plugin"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name   string
	doFunc func(ctx context.Context, report *model.AuditReport) error
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, report *model.AuditReport) error {
	if m.doFunc != nil {
		return m.doFunc(ctx, report)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// brokenAudit always fails.
type brokenAudit struct {
	id string
}

func (a *brokenAudit) Meta() audit.Meta {
	return audit.Meta{ID: a.id, Title: a.id}
}

func (a *brokenAudit) Audit(_ context.Context, _ *model.Artifacts) (*audit.Product, error) {
	return nil, errors.New("stylesheet could not be parsed")
}

// blockingSource waits until the context ends.
type blockingSource struct{}

func (blockingSource) Gather(ctx context.Context, _ string) (*gather.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func gatheredPage() *gather.Result {
	return &gather.Result{
		Artifacts: &model.Artifacts{
			URL: model.URLArtifact{
				RequestedURL:      "https://example.com/",
				MainDocumentURL:   "https://example.com/",
				FinalDisplayedURL: "https://example.com/",
			},
			MainDocumentContent: "<p>hello</p>",
		},
		DocumentHash: "abc123",
		Warnings:     []string{"failed to fetch stylesheet https://example.com/print.css"},
	}
}

func equalWeights() *plugin.Category {
	return &plugin.Category{
		ID: "test",
		AuditRefs: []plugin.AuditRef{
			{ID: "ok", Weight: 1},
			{ID: "broken", Weight: 1},
		},
	}
}

func newAuditPipeline(source Source, audits []audit.Audit, opts ...Option) *Pipeline {
	return DefaultPipeline(source, audits, equalWeights(), opts...)
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs gather, audit and category", func(t *testing.T) {
		t.Parallel()

		source := &fakeSource{result: gatheredPage()}
		p := newAuditPipeline(source, []audit.Audit{
			&fixedAudit{id: "ok", score: 1},
		})

		report := model.NewAuditReport("https://example.com/")
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if source.gotURL != "https://example.com/" {
			t.Errorf("gather got %q", source.gotURL)
		}
		if report.DocumentHash != "abc123" || report.FinalURL != "https://example.com/" {
			t.Errorf("gathered fields not copied: hash=%q final=%q", report.DocumentHash, report.FinalURL)
		}
		if len(report.Warnings) != 1 {
			t.Errorf("expected gather warning on report, got %v", report.Warnings)
		}
		if r := report.Result("ok"); r == nil || r.Score == nil || *r.Score != 1 {
			t.Errorf("unexpected result: %+v", r)
		}
		if report.Category == nil || report.Category.Score == nil || *report.Category.Score != 1 {
			t.Fatalf("unexpected category: %+v", report.Category)
		}
		if !slices.Equal(report.Category.Unavailable, []string{"broken"}) {
			t.Errorf("expected broken unavailable, got %v", report.Category.Unavailable)
		}
	})

	t.Run("errored audit is recorded and scored as zero", func(t *testing.T) {
		t.Parallel()

		for _, continueOnError := range []bool{false, true} {
			p := newAuditPipeline(&fakeSource{result: gatheredPage()}, []audit.Audit{
				&fixedAudit{id: "ok", score: 0.5},
				&brokenAudit{id: "broken"},
			}, WithContinueOnError(continueOnError))

			report := model.NewAuditReport("https://example.com/")
			if err := p.Execute(context.Background(), report); err != nil {
				t.Fatalf("continueOnError=%v: unexpected error: %v", continueOnError, err)
			}

			r := report.Result("broken")
			if r == nil || !r.Errored() || r.Score != nil {
				t.Errorf("continueOnError=%v: expected errored result, got %+v", continueOnError, r)
			}
			if report.Error != nil {
				t.Errorf("continueOnError=%v: an audit failure is not a pipeline failure, got %v", continueOnError, report.Error)
			}
			// ok 0.5*1 + broken 0*1
			if report.Category == nil || report.Category.Score == nil || *report.Category.Score != 0.25 {
				t.Errorf("continueOnError=%v: unexpected category: %+v", continueOnError, report.Category)
			}
		}
	})

	t.Run("stops when gather fails", func(t *testing.T) {
		t.Parallel()

		gatherErr := errors.New("connection refused")
		p := newAuditPipeline(&fakeSource{err: gatherErr}, []audit.Audit{
			&fixedAudit{id: "ok", score: 1},
		})

		report := model.NewAuditReport("https://example.com/")
		err := p.Execute(context.Background(), report)

		if !errors.Is(err, gatherErr) {
			t.Errorf("expected %v, got %v", gatherErr, err)
		}
		if !errors.Is(report.Error, gatherErr) {
			t.Errorf("expected %v in report, got %v", gatherErr, report.Error)
		}
		if !strings.Contains(report.ErrorMessage, "connection refused") {
			t.Errorf("unexpected error message %q", report.ErrorMessage)
		}
		if len(report.Results) != 0 || report.Category != nil {
			t.Errorf("later steps should not run: results=%v category=%+v", report.Results, report.Category)
		}
	})

	t.Run("continues after gather fails when configured", func(t *testing.T) {
		t.Parallel()

		p := newAuditPipeline(&fakeSource{err: errors.New("connection refused")}, []audit.Audit{
			&fixedAudit{id: "ok", score: 1},
		}, WithContinueOnError(true))

		report := model.NewAuditReport("https://example.com/")
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("expected nil error with continueOnError, got %v", err)
		}

		// The audit step fails without artifacts, then the category step
		// fails without results; the last error wins.
		if !errors.Is(report.Error, ErrNoResults) {
			t.Errorf("expected ErrNoResults in report, got %v", report.Error)
		}
		if report.Category != nil {
			t.Errorf("expected no category, got %+v", report.Category)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		source := &fakeSource{result: gatheredPage()}
		p := newAuditPipeline(source, nil)

		report := model.NewAuditReport("https://example.com/")
		err := p.Execute(ctx, report)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if source.gotURL != "" {
			t.Error("gather should not have been called")
		}
		if !errors.Is(report.Error, context.Canceled) {
			t.Errorf("expected cancellation recorded in report, got %v", report.Error)
		}
	})
}

func TestPipelineWithTimeout(t *testing.T) {
	t.Parallel()

	p := newAuditPipeline(blockingSource{}, []audit.Audit{
		&fixedAudit{id: "ok", score: 1},
	}, WithTimeout(20*time.Millisecond))

	report := model.NewAuditReport("https://example.com/")
	err := p.Execute(context.Background(), report)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
	if !errors.Is(report.Error, context.DeadlineExceeded) {
		t.Errorf("expected deadline recorded in report, got %v", report.Error)
	}
	if len(report.Results) != 0 {
		t.Errorf("audits should not run after a timeout, got %v", report.Results)
	}
}

// TestPipelineStepNames tests the StepNames method.
func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	if names := New().StepNames(); len(names) != 0 {
		t.Errorf("expected empty slice, got %v", names)
	}

	p := New(WithContinueOnError(true))
	p.AddStep(NewAuditStep(audit.NewRunner(nil)))
	p.AddSteps(NewCategoryStep(equalWeights()), &mockStep{name: "export"})

	if p.StepCount() != 3 {
		t.Errorf("expected 3 steps, got %d", p.StepCount())
	}
	if got := p.StepNames(); !slices.Equal(got, []string{"audit", "category", "export"}) {
		t.Errorf("unexpected names: %v", got)
	}
}
