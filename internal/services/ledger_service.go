package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"nexu/internal/core"
	"nexu/internal/ledger"
	"nexu/internal/log"
	"nexu/internal/metrics"
)

// LedgerService validates and persists ledger entities, then announces each
// committed write. Publishing is best effort: a failed publish is logged and
// never fails the request.
type LedgerService struct {
	store     ledger.Store
	publisher ledger.Publisher
	metrics   *metrics.Metrics
	logger    *log.Logger
	closers   []io.Closer
}

type LedgerOption func(*LedgerService)

// WithPublisher sets where change notifications go.
func WithPublisher(p ledger.Publisher) LedgerOption {
	return func(s *LedgerService) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) LedgerOption {
	return func(s *LedgerService) { s.metrics = m }
}

func WithLogger(l *log.Logger) LedgerOption {
	return func(s *LedgerService) { s.logger = l.WithComponent(log.ComponentLedger) }
}

// WithClosers registers resources released by Close, in order.
func WithClosers(c ...io.Closer) LedgerOption {
	return func(s *LedgerService) { s.closers = append(s.closers, c...) }
}

func NewLedgerService(store ledger.Store, opts ...LedgerOption) *LedgerService {
	s := &LedgerService{
		store:  store,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying store for read-only collaborators.
func (s *LedgerService) Store() ledger.Store {
	return s.store
}

func (s *LedgerService) committed(ctx context.Context, kind ledger.Kind, id int64, op ledger.Operation, periods ...core.Period) {
	s.metrics.LedgerWrite(string(kind), string(op))
	s.logger.InfoContext(ctx, "Ledger entry "+string(op)+"d",
		log.NewFields().WithEntity(string(kind), id).WithOperation(string(op)).ToSlice()...)

	if s.publisher == nil {
		return
	}

	seen := map[core.Period]bool{}
	for _, p := range periods {
		if seen[p] {
			continue
		}
		seen[p] = true
		change := ledger.Change{Kind: kind, ID: id, Operation: op, Period: p}
		if err := s.publisher.PublishLedgerChange(ctx, change); err != nil {
			s.metrics.Event("publish", false)
			s.logger.ErrorContext(ctx, "Failed to publish ledger change",
				log.NewFields().WithEntity(string(kind), id).WithOperation(log.OpPublish).WithError(err).ToSlice()...)
			continue
		}
		s.metrics.Event("publish", true)
	}
}

func periodFilter(p *core.Period) ledger.Filter {
	if p == nil {
		return ledger.Filter{}
	}
	return ledger.ForPeriod(*p)
}

// Income

func (s *LedgerService) ListIncome(ctx context.Context, p *core.Period) ([]core.Income, error) {
	return s.store.ListIncome(ctx, periodFilter(p))
}

func (s *LedgerService) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	created, err := s.store.CreateIncome(ctx, in)
	if err != nil {
		return core.Income{}, fmt.Errorf("create income: %w", err)
	}
	s.committed(ctx, ledger.KindIncome, created.ID, ledger.OpCreate, created.Date.Period())
	return created, nil
}

// UpdateIncome replaces every field of income id.
func (s *LedgerService) UpdateIncome(ctx context.Context, id int64, in core.Income) (core.Income, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	current, err := s.store.GetIncome(ctx, id)
	if err != nil {
		return core.Income{}, err
	}
	in.ID = id
	updated, err := s.store.UpdateIncome(ctx, in)
	if err != nil {
		return core.Income{}, fmt.Errorf("update income: %w", err)
	}
	s.committed(ctx, ledger.KindIncome, id, ledger.OpUpdate, current.Date.Period(), updated.Date.Period())
	return updated, nil
}

func (s *LedgerService) DeleteIncome(ctx context.Context, id int64) error {
	current, err := s.store.GetIncome(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteIncome(ctx, id); err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	s.committed(ctx, ledger.KindIncome, id, ledger.OpDelete, current.Date.Period())
	return nil
}

// Expenses

func (s *LedgerService) ListExpenses(ctx context.Context, p *core.Period) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, periodFilter(p))
}

func (s *LedgerService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Normalize()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	s.committed(ctx, ledger.KindExpense, created.ID, ledger.OpCreate, created.DueDate.Period())
	return created, nil
}

// UpdateExpense runs one of the two update commands. A status command never
// touches description, category, due date or notes.
func (s *LedgerService) UpdateExpense(ctx context.Context, id int64, cmd core.ExpenseUpdate) (core.Expense, error) {
	if cmd == nil {
		return core.Expense{}, core.ErrMissingUpdate
	}
	if err := cmd.Validate(); err != nil {
		return core.Expense{}, err
	}
	current, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	updated, err := s.store.UpdateExpense(ctx, id, cmd)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.committed(ctx, ledger.KindExpense, id, ledger.OpUpdate, current.DueDate.Period(), updated.DueDate.Period())
	return updated, nil
}

// ToggleExpenseStatus flips pending and paid. Paying records the planned
// amount as actual; reverting zeroes it.
func (s *LedgerService) ToggleExpenseStatus(ctx context.Context, id int64) (core.Expense, error) {
	current, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	next := current.Toggled()
	actual := next.AmountActual.Decimal
	return s.UpdateExpense(ctx, id, core.ExpenseSetStatus{Status: next.Status, AmountActual: &actual})
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id int64) error {
	current, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.committed(ctx, ledger.KindExpense, id, ledger.OpDelete, current.DueDate.Period())
	return nil
}

// Credit cards

func (s *LedgerService) ListCards(ctx context.Context) ([]core.CreditCard, error) {
	return s.store.ListCards(ctx)
}

func (s *LedgerService) GetCard(ctx context.Context, id int64) (core.CreditCard, error) {
	return s.store.GetCard(ctx, id)
}

func (s *LedgerService) CreateCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return core.CreditCard{}, err
	}
	created, err := s.store.CreateCard(ctx, c)
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("create credit card: %w", err)
	}
	s.committed(ctx, ledger.KindCard, created.ID, ledger.OpCreate, core.Period{})
	return created, nil
}

func (s *LedgerService) UpdateCard(ctx context.Context, id int64, c core.CreditCard) (core.CreditCard, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return core.CreditCard{}, err
	}
	c.ID = id
	updated, err := s.store.UpdateCard(ctx, c)
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("update credit card: %w", err)
	}
	s.committed(ctx, ledger.KindCard, id, ledger.OpUpdate, core.Period{})
	return updated, nil
}

// DeleteCard fails with core.ErrCardInUse while the card has transactions.
func (s *LedgerService) DeleteCard(ctx context.Context, id int64) error {
	if err := s.store.DeleteCard(ctx, id); err != nil {
		if errors.Is(err, core.ErrCardInUse) {
			s.logger.WarnContext(ctx, "Refusing to delete card with transactions",
				log.NewFields().WithEntity(string(ledger.KindCard), id).WithErrorType(log.ErrorTypeConflict).ToSlice()...)
		}
		return fmt.Errorf("delete credit card: %w", err)
	}
	s.committed(ctx, ledger.KindCard, id, ledger.OpDelete, core.Period{})
	return nil
}

// Card transactions

func (s *LedgerService) ListCardTransactions(ctx context.Context, f ledger.Filter) ([]core.CardTransaction, error) {
	if f.BuyerType != "" && !f.BuyerType.Valid() {
		return nil, core.ErrInvalidBuyerType
	}
	return s.store.ListCardTransactions(ctx, f)
}

func (s *LedgerService) CreateCardTransaction(ctx context.Context, t core.CardTransaction) (core.CardTransaction, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return core.CardTransaction{}, err
	}
	created, err := s.store.CreateCardTransaction(ctx, t)
	if err != nil {
		return core.CardTransaction{}, fmt.Errorf("create card transaction: %w", err)
	}
	s.committed(ctx, ledger.KindCardTransaction, created.ID, ledger.OpCreate, created.Date.Period())
	return created, nil
}

// UpdateCardTransaction replaces a transaction. A zero CardID keeps the
// transaction on its current card.
func (s *LedgerService) UpdateCardTransaction(ctx context.Context, id int64, t core.CardTransaction) (core.CardTransaction, error) {
	current, err := s.store.GetCardTransaction(ctx, id)
	if err != nil {
		return core.CardTransaction{}, err
	}
	if t.CardID == 0 {
		t.CardID = current.CardID
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return core.CardTransaction{}, err
	}
	t.ID = id
	updated, err := s.store.UpdateCardTransaction(ctx, t)
	if err != nil {
		return core.CardTransaction{}, fmt.Errorf("update card transaction: %w", err)
	}
	s.committed(ctx, ledger.KindCardTransaction, id, ledger.OpUpdate, current.Date.Period(), updated.Date.Period())
	return updated, nil
}

func (s *LedgerService) DeleteCardTransaction(ctx context.Context, id int64) error {
	current, err := s.store.GetCardTransaction(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCardTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete card transaction: %w", err)
	}
	s.committed(ctx, ledger.KindCardTransaction, id, ledger.OpDelete, current.Date.Period())
	return nil
}

// Third-party debts

func (s *LedgerService) ListDebts(ctx context.Context, p *core.Period) ([]core.ThirdPartyDebt, error) {
	return s.store.ListDebts(ctx, periodFilter(p))
}

func (s *LedgerService) CreateDebt(ctx context.Context, d core.ThirdPartyDebt) (core.ThirdPartyDebt, error) {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return core.ThirdPartyDebt{}, err
	}
	created, err := s.store.CreateDebt(ctx, d)
	if err != nil {
		return core.ThirdPartyDebt{}, fmt.Errorf("create debt: %w", err)
	}
	s.committed(ctx, ledger.KindDebt, created.ID, ledger.OpCreate, created.Date.Period())
	return created, nil
}

// UpdateDebt runs one of the two update commands. Replace keeps the status.
func (s *LedgerService) UpdateDebt(ctx context.Context, id int64, cmd core.DebtUpdate) (core.ThirdPartyDebt, error) {
	if cmd == nil {
		return core.ThirdPartyDebt{}, core.ErrMissingUpdate
	}
	if err := cmd.Validate(); err != nil {
		return core.ThirdPartyDebt{}, err
	}
	current, err := s.store.GetDebt(ctx, id)
	if err != nil {
		return core.ThirdPartyDebt{}, err
	}
	updated, err := s.store.UpdateDebt(ctx, id, cmd)
	if err != nil {
		return core.ThirdPartyDebt{}, fmt.Errorf("update debt: %w", err)
	}
	s.committed(ctx, ledger.KindDebt, id, ledger.OpUpdate, current.Date.Period(), updated.Date.Period())
	return updated, nil
}

func (s *LedgerService) DeleteDebt(ctx context.Context, id int64) error {
	current, err := s.store.GetDebt(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDebt(ctx, id); err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	s.committed(ctx, ledger.KindDebt, id, ledger.OpDelete, current.Date.Period())
	return nil
}

// Ping checks the store is reachable.
func (s *LedgerService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close releases registered resources, reporting every failure.
func (s *LedgerService) Close() error {
	var errs []error
	for _, c := range s.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
