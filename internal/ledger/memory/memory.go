package memory

import (
	"context"
	"sort"
	"sync"

	"nexu/internal/core"
	"nexu/internal/ledger"
)

// Store keeps every entity in process memory. Ids are assigned per entity
// kind starting at 1.
type Store struct {
	mu       sync.Mutex
	nextID   map[ledger.Kind]int64
	income   map[int64]core.Income
	expenses map[int64]core.Expense
	cards    map[int64]core.CreditCard
	txs      map[int64]core.CardTransaction
	debts    map[int64]core.ThirdPartyDebt
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		nextID:   map[ledger.Kind]int64{},
		income:   map[int64]core.Income{},
		expenses: map[int64]core.Expense{},
		cards:    map[int64]core.CreditCard{},
		txs:      map[int64]core.CardTransaction{},
		debts:    map[int64]core.ThirdPartyDebt{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) id(kind ledger.Kind) int64 {
	s.nextID[kind]++
	return s.nextID[kind]
}

func inRange(f ledger.Filter, d core.Date) bool {
	return f.Range == nil || f.Range.Contains(d)
}

func byDate[T any](items []T, date func(T) core.Date, id func(T) int64) {
	sort.Slice(items, func(i, j int) bool {
		di, dj := date(items[i]), date(items[j])
		if !di.Equal(dj.Time) {
			return di.Before(dj.Time)
		}
		return id(items[i]) < id(items[j])
	})
}

// Income

func (s *Store) CreateIncome(_ context.Context, in core.Income) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = s.id(ledger.KindIncome)
	s.income[in.ID] = in
	return in, nil
}

func (s *Store) GetIncome(_ context.Context, id int64) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.income[id]
	if !ok {
		return core.Income{}, core.ErrNotFound
	}
	return in, nil
}

func (s *Store) ListIncome(_ context.Context, f ledger.Filter) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Income, 0, len(s.income))
	for _, in := range s.income {
		if inRange(f, in.Date) {
			out = append(out, in)
		}
	}
	byDate(out, func(i core.Income) core.Date { return i.Date }, func(i core.Income) int64 { return i.ID })
	return out, nil
}

func (s *Store) UpdateIncome(_ context.Context, in core.Income) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.income[in.ID]; !ok {
		return core.Income{}, core.ErrNotFound
	}
	s.income[in.ID] = in
	return in, nil
}

func (s *Store) DeleteIncome(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.income[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.income, id)
	return nil
}

// Expenses

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id(ledger.KindExpense)
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

func (s *Store) ListExpenses(_ context.Context, f ledger.Filter) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if inRange(f, e.DueDate) {
			out = append(out, e)
		}
	}
	byDate(out, func(e core.Expense) core.Date { return e.DueDate }, func(e core.Expense) int64 { return e.ID })
	return out, nil
}

func (s *Store) UpdateExpense(_ context.Context, id int64, cmd core.ExpenseUpdate) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	e = cmd.Apply(e)
	s.expenses[id] = e
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

// Credit cards

func (s *Store) CreateCard(_ context.Context, c core.CreditCard) (core.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id(ledger.KindCard)
	s.cards[c.ID] = c
	return c, nil
}

func (s *Store) GetCard(_ context.Context, id int64) (core.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return core.CreditCard{}, core.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCards(_ context.Context) ([]core.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.CreditCard, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateCard(_ context.Context, c core.CreditCard) (core.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[c.ID]; !ok {
		return core.CreditCard{}, core.ErrNotFound
	}
	s.cards[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCard(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[id]; !ok {
		return core.ErrNotFound
	}
	for _, t := range s.txs {
		if t.CardID == id {
			return core.ErrCardInUse
		}
	}
	delete(s.cards, id)
	return nil
}

// Card transactions

func (s *Store) CreateCardTransaction(_ context.Context, t core.CardTransaction) (core.CardTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[t.CardID]; !ok {
		return core.CardTransaction{}, core.ErrReferential
	}
	t.ID = s.id(ledger.KindCardTransaction)
	s.txs[t.ID] = t
	return t, nil
}

func (s *Store) GetCardTransaction(_ context.Context, id int64) (core.CardTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok {
		return core.CardTransaction{}, core.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListCardTransactions(_ context.Context, f ledger.Filter) ([]core.CardTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.CardTransaction, 0, len(s.txs))
	for _, t := range s.txs {
		if !inRange(f, t.Date) {
			continue
		}
		if f.CardID != 0 && t.CardID != f.CardID {
			continue
		}
		if f.BuyerType != "" && t.BuyerType != f.BuyerType {
			continue
		}
		out = append(out, t)
	}
	byDate(out, func(t core.CardTransaction) core.Date { return t.Date }, func(t core.CardTransaction) int64 { return t.ID })
	return out, nil
}

func (s *Store) UpdateCardTransaction(_ context.Context, t core.CardTransaction) (core.CardTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[t.ID]; !ok {
		return core.CardTransaction{}, core.ErrNotFound
	}
	if _, ok := s.cards[t.CardID]; !ok {
		return core.CardTransaction{}, core.ErrReferential
	}
	s.txs[t.ID] = t
	return t, nil
}

func (s *Store) DeleteCardTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

// Third-party debts

func (s *Store) CreateDebt(_ context.Context, d core.ThirdPartyDebt) (core.ThirdPartyDebt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.id(ledger.KindDebt)
	s.debts[d.ID] = d
	return d, nil
}

func (s *Store) GetDebt(_ context.Context, id int64) (core.ThirdPartyDebt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debts[id]
	if !ok {
		return core.ThirdPartyDebt{}, core.ErrNotFound
	}
	return d, nil
}

func (s *Store) ListDebts(_ context.Context, f ledger.Filter) ([]core.ThirdPartyDebt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ThirdPartyDebt, 0, len(s.debts))
	for _, d := range s.debts {
		if inRange(f, d.Date) {
			out = append(out, d)
		}
	}
	byDate(out, func(d core.ThirdPartyDebt) core.Date { return d.Date }, func(d core.ThirdPartyDebt) int64 { return d.ID })
	return out, nil
}

func (s *Store) UpdateDebt(_ context.Context, id int64, cmd core.DebtUpdate) (core.ThirdPartyDebt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debts[id]
	if !ok {
		return core.ThirdPartyDebt{}, core.ErrNotFound
	}
	d = cmd.Apply(d)
	s.debts[id] = d
	return d, nil
}

func (s *Store) DeleteDebt(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.debts[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.debts, id)
	return nil
}
