package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/verify-feedback/internal/model"
)

// EventProcessor produces the feedback result for one event.
type EventProcessor interface {
	ProcessOne(ctx context.Context, index int, ev model.AuthenticationEvent) model.FeedbackResult
}

// Reconciler fans event processing out across a hook delivery.
type Reconciler struct {
	processor EventProcessor
	warnAfter time.Duration
}

// NewReconciler creates a Reconciler. warnAfter is the elapsed wall time
// past which a delivery logs a deadline warning; zero disables the check.
func NewReconciler(processor EventProcessor, warnAfter time.Duration) *Reconciler {
	return &Reconciler{processor: processor, warnAfter: warnAfter}
}

// Reconcile processes every event in the delivery concurrently and returns
// one summary with results index-aligned to the input. All events run to
// completion regardless of how the others fare: ProcessOne converts its own
// failures to result records, so the join below never cancels early. The
// only shared write is each goroutine's own slice slot.
func (r *Reconciler) Reconcile(ctx context.Context, events []model.AuthenticationEvent) model.BatchSummary {
	if len(events) == 0 {
		return model.BatchSummary{Results: []model.FeedbackResult{}}
	}

	start := time.Now()
	zap.L().Info("processing delivery", zap.Int("events", len(events)))

	results := make([]model.FeedbackResult, len(events))

	// All events dispatch at once: batch size is bounded by what Okta
	// bundles into one delivery, and each unit is a short I/O-bound call
	// chain, so there is no concurrency limit here.
	var g errgroup.Group
	for i, ev := range events {
		g.Go(func() error {
			results[i] = r.processor.ProcessOne(ctx, i, ev)
			return nil
		})
	}
	_ = g.Wait()

	var success, skipped, failed int
	for _, res := range results {
		switch res.Status {
		case model.StatusSuccess:
			success++
		case model.StatusSkipped:
			skipped++
		case model.StatusError:
			failed++
		}
	}

	elapsed := time.Since(start)
	zap.L().Info("delivery processed",
		zap.Int("events", len(events)),
		zap.Int("success", success),
		zap.Int("skipped", skipped),
		zap.Int("error", failed),
		zap.Duration("elapsed", elapsed),
	)

	// Okta retries deliveries that exceed the invocation deadline; the
	// warning flags batches that are getting close so operators can see
	// them before deliveries start failing outright.
	if r.warnAfter > 0 && elapsed > r.warnAfter {
		zap.L().Warn("delivery approaching invocation deadline",
			zap.Duration("elapsed", elapsed),
			zap.Duration("warn_after", r.warnAfter),
			zap.Int("events", len(events)),
		)
	}

	return model.BatchSummary{TotalEvents: len(events), Results: results}
}
