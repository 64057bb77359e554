package worker

import (
	"context"
	"fmt"
	"time"

	"nexu/internal/amqp"
	"nexu/internal/core"
	"nexu/internal/log"
	"nexu/internal/metrics"
)

type (
	Summarizer interface {
		Summarize(ctx context.Context, p core.Period) (core.MonthlySummary, error)
	}

	// Warmer stores insights for a summary ahead of the first request.
	Warmer interface {
		Warm(ctx context.Context, s core.MonthlySummary) bool
	}
)

// InsightsWorker recomputes the summary of every month touched by a ledger
// change and warms the shared insight cache for it.
type InsightsWorker struct {
	summaries Summarizer
	advisor   Warmer
	metrics   *metrics.Metrics
	logger    *log.Logger
}

func NewInsightsWorker(summaries Summarizer, advisor Warmer, m *metrics.Metrics, logger *log.Logger) *InsightsWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &InsightsWorker{
		summaries: summaries,
		advisor:   advisor,
		metrics:   m,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleLedgerChange processes one message. Changes without a month (credit
// card edits) do not affect any summary and are acknowledged as-is.
func (w *InsightsWorker) HandleLedgerChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error {
	w.metrics.Event("consume", true)

	p, ok := msg.Period()
	if !ok {
		w.logger.DebugContext(ctx, "Ledger change without period, skipping",
			log.FieldKind, msg.Kind, log.FieldEntityID, msg.ID)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing ledger change",
		log.NewFields().WithEntity(msg.Kind, msg.ID).WithOperation(msg.Operation).WithPeriod(p.Year, p.Month).ToSlice()...)

	return w.WarmPeriod(ctx, p)
}

// WarmPeriod summarizes p and makes sure insights for it are cached.
func (w *InsightsWorker) WarmPeriod(ctx context.Context, p core.Period) error {
	summary, err := w.summaries.Summarize(ctx, p)
	if err != nil {
		return fmt.Errorf("summarize %s: %w", p, err)
	}

	generated := w.advisor.Warm(ctx, summary)
	w.logger.DebugContext(ctx, "Insights warmed",
		log.FieldYear, p.Year, log.FieldMonth, p.Month, "generated", generated)
	return nil
}

// WarmCurrent warms the month containing now. Run at startup so the current
// dashboard is ready even if change messages were lost.
func (w *InsightsWorker) WarmCurrent(ctx context.Context, now time.Time) error {
	return w.WarmPeriod(ctx, core.PeriodOf(now))
}
