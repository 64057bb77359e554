package ledger

import (
	"context"

	"nexu/internal/core"
)

const (
	KindIncome          Kind = "income"
	KindExpense         Kind = "expense"
	KindCard            Kind = "credit_card"
	KindCardTransaction Kind = "card_transaction"
	KindDebt            Kind = "third_party_debt"

	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

type (
	Kind      string
	Operation string

	// Filter narrows list results. Zero values mean "no restriction".
	// Range applies to the entity's anchor date: date for income, card
	// transactions and debts, due_date for expenses.
	Filter struct {
		Range     *core.DateRange
		CardID    int64
		BuyerType core.BuyerType
	}

	// Change describes a committed write. Period is zero for entities that
	// are not anchored in a month (credit cards).
	Change struct {
		Kind      Kind
		ID        int64
		Operation Operation
		Period    core.Period
	}
)

// ForPeriod returns a filter restricted to the period's date range.
func ForPeriod(p core.Period) Filter {
	r := p.Range()
	return Filter{Range: &r}
}

// Ports for storage backends.
type (
	IncomeStore interface {
		CreateIncome(ctx context.Context, in core.Income) (core.Income, error)
		GetIncome(ctx context.Context, id int64) (core.Income, error)
		ListIncome(ctx context.Context, f Filter) ([]core.Income, error)
		UpdateIncome(ctx context.Context, in core.Income) (core.Income, error)
		DeleteIncome(ctx context.Context, id int64) error
	}

	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		GetExpense(ctx context.Context, id int64) (core.Expense, error)
		ListExpenses(ctx context.Context, f Filter) ([]core.Expense, error)
		// UpdateExpense applies cmd to the stored row atomically and returns
		// the result.
		UpdateExpense(ctx context.Context, id int64, cmd core.ExpenseUpdate) (core.Expense, error)
		DeleteExpense(ctx context.Context, id int64) error
	}

	CardStore interface {
		CreateCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error)
		GetCard(ctx context.Context, id int64) (core.CreditCard, error)
		ListCards(ctx context.Context) ([]core.CreditCard, error)
		UpdateCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error)
		// DeleteCard fails with core.ErrCardInUse while transactions
		// reference the card.
		DeleteCard(ctx context.Context, id int64) error
	}

	CardTransactionStore interface {
		// CreateCardTransaction fails with core.ErrReferential when the
		// card does not exist.
		CreateCardTransaction(ctx context.Context, t core.CardTransaction) (core.CardTransaction, error)
		GetCardTransaction(ctx context.Context, id int64) (core.CardTransaction, error)
		ListCardTransactions(ctx context.Context, f Filter) ([]core.CardTransaction, error)
		UpdateCardTransaction(ctx context.Context, t core.CardTransaction) (core.CardTransaction, error)
		DeleteCardTransaction(ctx context.Context, id int64) error
	}

	DebtStore interface {
		CreateDebt(ctx context.Context, d core.ThirdPartyDebt) (core.ThirdPartyDebt, error)
		GetDebt(ctx context.Context, id int64) (core.ThirdPartyDebt, error)
		ListDebts(ctx context.Context, f Filter) ([]core.ThirdPartyDebt, error)
		UpdateDebt(ctx context.Context, id int64, cmd core.DebtUpdate) (core.ThirdPartyDebt, error)
		DeleteDebt(ctx context.Context, id int64) error
	}

	// Store is the full entity store.
	Store interface {
		IncomeStore
		ExpenseStore
		CardStore
		CardTransactionStore
		DebtStore
		Ping(ctx context.Context) error
	}

	// Publisher notifies other processes about committed writes.
	Publisher interface {
		PublishLedgerChange(ctx context.Context, c Change) error
	}
)
