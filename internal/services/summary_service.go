package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"nexu/internal/core"
	"nexu/internal/ledger"
	"nexu/internal/log"
	"nexu/internal/metrics"
)

// SummarySource is the read side the aggregator needs.
type SummarySource interface {
	ListIncome(ctx context.Context, f ledger.Filter) ([]core.Income, error)
	ListExpenses(ctx context.Context, f ledger.Filter) ([]core.Expense, error)
	ListCardTransactions(ctx context.Context, f ledger.Filter) ([]core.CardTransaction, error)
}

// SummaryService computes monthly summaries. The three reads are independent
// and not wrapped in a snapshot.
type SummaryService struct {
	source  SummarySource
	metrics *metrics.Metrics
	logger  *log.Logger
}

func NewSummaryService(source SummarySource, m *metrics.Metrics, logger *log.Logger) *SummaryService {
	if logger == nil {
		logger = log.Discard()
	}
	return &SummaryService{
		source:  source,
		metrics: m,
		logger:  logger.WithComponent(log.ComponentSummary),
	}
}

// Summarize aggregates income, expenses and card spend for p. Card
// transactions are selected by purchase date and contribute one amortized
// installment each.
func (s *SummaryService) Summarize(ctx context.Context, p core.Period) (core.MonthlySummary, error) {
	start := time.Now()
	filter := ledger.ForPeriod(p)

	var (
		income   []core.Income
		expenses []core.Expense
		txs      []core.CardTransaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = s.source.ListIncome(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.source.ListExpenses(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.source.ListCardTransactions(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to load summary inputs",
			log.NewFields().WithPeriod(p.Year, p.Month).WithError(err).ToSlice()...)
		return core.MonthlySummary{}, fmt.Errorf("summarize %s: %w", p, err)
	}

	summary, err := core.Aggregate(income, expenses, txs)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("summarize %s: %w", p, err)
	}

	elapsed := time.Since(start)
	s.metrics.SummaryComputed(elapsed)
	s.logger.Log(ctx, slog.LevelDebug, "Summary computed",
		log.FieldYear, p.Year,
		log.FieldMonth, p.Month,
		"income_rows", len(income),
		"expense_rows", len(expenses),
		"card_rows", len(txs),
		log.FieldDuration, elapsed.Milliseconds())

	return summary, nil
}
