package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/ecoaudit/internal/log"
	"github.com/nao1215/ecoaudit/internal/model"
	"golang.org/x/sync/errgroup"
)

// defaultConcurrency is the number of URLs audited at once when
// WithConcurrency is not given.
const defaultConcurrency = 4

// BatchProcessor audits multiple URLs concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each URL so that no
	// state is shared between runs.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent audits.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed reports, guarded by mu.
	results []*model.AuditReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent audits.
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
// pipelineFactory is called once per URL.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     defaultConcurrency,
		results:         make([]*model.AuditReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch audits the URLs concurrently and returns one report per URL
// in input order, including reports of failed runs. The error is non-nil
// only when the batch was cancelled; URLs that never started then have a
// nil entry.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) ([]*model.AuditReport, error) {
	bp.mu.Lock()
	bp.results = make([]*model.AuditReport, len(urls))
	bp.mu.Unlock()

	err := bp.ProcessBatchWithCallback(ctx, urls, func(report *model.AuditReport, index int) {
		bp.mu.Lock()
		bp.results[index] = report
		bp.mu.Unlock()
	})

	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.results, err
}

// ProcessBatchWithCallback audits the URLs and calls callback for each
// completed report with the index of its URL. The callback runs on the
// goroutine that finished the audit and must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	urls []string,
	callback func(report *model.AuditReport, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_urls", len(urls),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range urls {
		i := i
		target := target
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("auditing",
				"url", log.SanitizeURL(target),
				"index", i+1,
				"total", len(urls),
			)

			report := model.NewAuditReport(target)
			if err := bp.pipelineFactory().Execute(ctx, report); err != nil {
				// The error is recorded in the report; other URLs go on.
				bp.logger.Warn("audit failed",
					"url", log.SanitizeURL(target),
					"error", err,
				)
			}

			callback(report, i)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_urls", len(urls),
		"elapsed", time.Since(startTime),
	)
	return err
}
