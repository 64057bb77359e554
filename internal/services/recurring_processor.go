package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"nexu/internal/core"
	"nexu/internal/log"
	"nexu/internal/metrics"
)

// RecurringProcessor copies recurring income and expenses into a new month.
// It only runs when explicitly asked to.
type RecurringProcessor struct {
	ledger  *LedgerService
	metrics *metrics.Metrics
	logger  *log.Logger
}

func NewRecurringProcessor(ledger *LedgerService, m *metrics.Metrics, logger *log.Logger) *RecurringProcessor {
	if logger == nil {
		logger = log.Discard()
	}
	return &RecurringProcessor{
		ledger:  ledger,
		metrics: m,
		logger:  logger.WithComponent(log.ComponentRecurring),
	}
}

type recurringKey struct {
	description string
	category    string
}

func keyOf(description, category string) recurringKey {
	return recurringKey{strings.ToLower(description), strings.ToLower(category)}
}

// Rollover creates, in target, a copy of every recurring entry of the
// previous month that target does not already have. The day of month is kept,
// clamped to the target month's length. Copied expenses start pending.
// Running it twice for the same month creates nothing the second time.
func (p *RecurringProcessor) Rollover(ctx context.Context, target core.Period) (int, error) {
	if p.ledger == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	source := target.Previous()

	created := 0
	n, err := p.rolloverIncome(ctx, source, target)
	created += n
	if err != nil {
		return created, err
	}
	n, err = p.rolloverExpenses(ctx, source, target)
	created += n
	if err != nil {
		return created, err
	}

	p.metrics.RolloverCreated(created)
	p.logger.InfoContext(ctx, "Recurring rollover complete",
		log.NewFields().WithPeriod(target.Year, target.Month).WithOperation(log.OpRollover).ToSlice()...,
	)
	p.logger.DebugContext(ctx, "Recurring rollover counts", log.FieldCount, created, "source", source.String())
	return created, nil
}

func (p *RecurringProcessor) rolloverIncome(ctx context.Context, source, target core.Period) (int, error) {
	prev, err := p.ledger.ListIncome(ctx, &source)
	if err != nil {
		return 0, fmt.Errorf("list income for %s: %w", source, err)
	}
	existing, err := p.ledger.ListIncome(ctx, &target)
	if err != nil {
		return 0, fmt.Errorf("list income for %s: %w", target, err)
	}

	have := map[recurringKey]bool{}
	for _, in := range existing {
		if in.Recurring {
			have[keyOf(in.Description, in.Category)] = true
		}
	}

	created := 0
	for _, in := range prev {
		k := keyOf(in.Description, in.Category)
		if !in.Recurring || have[k] {
			continue
		}
		in.ID = 0
		in.Date = target.Clamp(in.Date.Day())
		if _, err := p.ledger.CreateIncome(ctx, in); err != nil {
			return created, fmt.Errorf("copy income %q: %w", in.Description, err)
		}
		have[k] = true
		created++
	}
	return created, nil
}

func (p *RecurringProcessor) rolloverExpenses(ctx context.Context, source, target core.Period) (int, error) {
	prev, err := p.ledger.ListExpenses(ctx, &source)
	if err != nil {
		return 0, fmt.Errorf("list expenses for %s: %w", source, err)
	}
	existing, err := p.ledger.ListExpenses(ctx, &target)
	if err != nil {
		return 0, fmt.Errorf("list expenses for %s: %w", target, err)
	}

	have := map[recurringKey]bool{}
	for _, e := range existing {
		if e.Recurring {
			have[keyOf(e.Description, e.Category)] = true
		}
	}

	created := 0
	for _, e := range prev {
		k := keyOf(e.Description, e.Category)
		if !e.Recurring || have[k] {
			continue
		}
		e.ID = 0
		e.DueDate = target.Clamp(e.DueDate.Day())
		e.Status = core.StatusPending
		e.AmountActual = decimal.NullDecimal{}
		if _, err := p.ledger.CreateExpense(ctx, e); err != nil {
			return created, fmt.Errorf("copy expense %q: %w", e.Description, err)
		}
		have[k] = true
		created++
	}
	return created, nil
}
