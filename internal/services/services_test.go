package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexu/internal/core"
	"nexu/internal/ledger"
	"nexu/internal/ledger/memory"
)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []ledger.Change
	err     error
}

func (p *recordingPublisher) PublishLedgerChange(_ context.Context, c ledger.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return p.err
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var march = core.Period{Year: 2024, Month: 3}

func seedMarch(t *testing.T, svc *LedgerService, buyer core.BuyerType, name string) {
	t.Helper()
	ctx := context.Background()

	_, err := svc.CreateIncome(ctx, core.Income{Description: "Salary", Category: "Work", Amount: dec("5000"), Date: core.NewDate(2024, 3, 10)})
	require.NoError(t, err)
	_, err = svc.CreateExpense(ctx, core.Expense{Description: "Rent", Category: "Housing", AmountPlanned: dec("1200"), DueDate: core.NewDate(2024, 3, 5)})
	require.NoError(t, err)
	card, err := svc.CreateCard(ctx, core.CreditCard{Name: "Visa", CreditLimit: dec("5000"), ClosingDay: 3, DueDay: 10})
	require.NoError(t, err)
	_, err = svc.CreateCardTransaction(ctx, core.CardTransaction{
		CardID: card.ID, Description: "TV", Amount: dec("300"), Date: core.NewDate(2024, 3, 15),
		InstallmentsTotal: 3, BuyerType: buyer, ThirdPartyName: name,
	})
	require.NoError(t, err)

	// Outside the period; must not count.
	_, err = svc.CreateIncome(ctx, core.Income{Description: "Bonus", Category: "Work", Amount: dec("999"), Date: core.NewDate(2024, 4, 1)})
	require.NoError(t, err)
}

func TestSummarizeUserPurchase(t *testing.T) {
	store := memory.New()
	svc := NewLedgerService(store)
	seedMarch(t, svc, core.BuyerUser, "")

	s, err := NewSummaryService(store, nil, nil).Summarize(context.Background(), march)
	require.NoError(t, err)
	assert.True(t, s.TotalIncome.Equal(dec("5000")), "income %s", s.TotalIncome)
	assert.True(t, s.TotalExpenses.Equal(dec("1300")), "expenses %s", s.TotalExpenses)
	assert.True(t, s.PaidExpenses.IsZero())
	assert.True(t, s.CardTotal.Equal(dec("100")))
	assert.True(t, s.Balance.Equal(dec("3700")))
}

func TestSummarizeThirdPartyPurchase(t *testing.T) {
	store := memory.New()
	svc := NewLedgerService(store)
	seedMarch(t, svc, core.BuyerThirdParty, "Ana")

	s, err := NewSummaryService(store, nil, nil).Summarize(context.Background(), march)
	require.NoError(t, err)
	assert.True(t, s.TotalExpenses.Equal(dec("1200")))
	assert.True(t, s.CardTotal.Equal(dec("100")))
	assert.True(t, s.Balance.Equal(dec("3800")))
}

func TestSummarizeEmptyPeriod(t *testing.T) {
	s, err := NewSummaryService(memory.New(), nil, nil).Summarize(context.Background(), march)
	require.NoError(t, err)
	for _, v := range []decimal.Decimal{s.TotalIncome, s.TotalExpenses, s.PaidExpenses, s.CardTotal, s.Balance} {
		assert.True(t, v.IsZero())
	}
}

type failingSource struct{ *memory.Store }

func (failingSource) ListExpenses(context.Context, ledger.Filter) ([]core.Expense, error) {
	return nil, errors.New("database is locked")
}

func TestSummarizePropagatesStoreErrors(t *testing.T) {
	src := &failingSource{Store: memory.New()}
	_, err := NewSummaryService(src, nil, nil).Summarize(context.Background(), march)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestStatusUpdateLeavesOtherFields(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memory.New())

	e, err := svc.CreateExpense(ctx, core.Expense{
		Description: "Gym", Category: "Health", AmountPlanned: dec("90"), DueDate: core.NewDate(2024, 3, 20), Notes: "monthly",
	})
	require.NoError(t, err)

	got, err := svc.UpdateExpense(ctx, e.ID, core.ExpenseSetStatus{Status: core.StatusPaid})
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaid, got.Status)
	assert.True(t, got.AmountActual.Decimal.Equal(dec("90")))
	assert.Equal(t, e.Description, got.Description)
	assert.Equal(t, e.Category, got.Category)
	assert.Equal(t, e.DueDate, got.DueDate)
	assert.Equal(t, e.Notes, got.Notes)
}

func TestToggleExpenseStatus(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memory.New())
	e, err := svc.CreateExpense(ctx, core.Expense{Description: "Rent", Category: "Housing", AmountPlanned: dec("1200"), DueDate: core.NewDate(2024, 3, 5)})
	require.NoError(t, err)

	paid, err := svc.ToggleExpenseStatus(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaid, paid.Status)
	assert.True(t, paid.AmountActual.Decimal.Equal(dec("1200")))

	pending, err := svc.ToggleExpenseStatus(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, pending.Status)
	assert.True(t, pending.AmountActual.Decimal.IsZero())

	_, err = svc.ToggleExpenseStatus(ctx, 404)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestValidationRejectsWithoutWriting(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewLedgerService(store)
	card, err := svc.CreateCard(ctx, core.CreditCard{Name: "Visa", ClosingDay: 1, DueDay: 8})
	require.NoError(t, err)

	_, err = svc.CreateCardTransaction(ctx, core.CardTransaction{
		CardID: card.ID, Description: "Gift", Amount: dec("50"), Date: core.NewDate(2024, 3, 1), BuyerType: core.BuyerThirdParty,
	})
	require.ErrorIs(t, err, core.ErrThirdPartyNameRequired)

	txs, err := store.ListCardTransactions(ctx, ledger.Filter{})
	require.NoError(t, err)
	assert.Empty(t, txs)

	_, err = svc.CreateCardTransaction(ctx, core.CardTransaction{
		CardID: card.ID + 1, Description: "Gift", Amount: dec("50"), Date: core.NewDate(2024, 3, 1),
	})
	assert.ErrorIs(t, err, core.ErrReferential)

	_, err = svc.UpdateExpense(ctx, 1, nil)
	assert.ErrorIs(t, err, core.ErrMissingUpdate)
}

func TestDeleteCardInUse(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memory.New())
	card, _ := svc.CreateCard(ctx, core.CreditCard{Name: "Visa", ClosingDay: 1, DueDay: 8})
	_, err := svc.CreateCardTransaction(ctx, core.CardTransaction{CardID: card.ID, Description: "x", Amount: dec("1"), Date: core.NewDate(2024, 3, 1)})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteCard(ctx, card.ID), core.ErrCardInUse)
}

func TestPublishesChangesBestEffort(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("channel closed")}
	svc := NewLedgerService(memory.New(), WithPublisher(pub))

	in, err := svc.CreateIncome(ctx, core.Income{Description: "Salary", Category: "Work", Amount: dec("10"), Date: core.NewDate(2024, 3, 10)})
	require.NoError(t, err, "publish failures must not fail the write")

	_, err = svc.UpdateIncome(ctx, in.ID, core.Income{Description: "Salary", Category: "Work", Amount: dec("10"), Date: core.NewDate(2024, 4, 10)})
	require.NoError(t, err)

	require.Len(t, pub.changes, 3)
	assert.Equal(t, ledger.Change{Kind: ledger.KindIncome, ID: in.ID, Operation: ledger.OpCreate, Period: march}, pub.changes[0])
	assert.Equal(t, march, pub.changes[1].Period)
	assert.Equal(t, core.Period{Year: 2024, Month: 4}, pub.changes[2].Period)
}

func TestDebtTwoModeUpdate(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memory.New())
	d, err := svc.CreateDebt(ctx, core.ThirdPartyDebt{PersonName: "Ana", Amount: dec("40"), Date: core.NewDate(2024, 3, 1), Origin: "TV"})
	require.NoError(t, err)
	assert.Equal(t, core.DebtPending, d.Status)

	got, err := svc.UpdateDebt(ctx, d.ID, core.DebtSetStatus{Status: core.DebtReceived})
	require.NoError(t, err)
	assert.Equal(t, core.DebtReceived, got.Status)
	assert.Equal(t, "TV", got.Origin)

	got, err = svc.UpdateDebt(ctx, d.ID, core.DebtReplace{Fields: core.ThirdPartyDebt{PersonName: "Bia", Amount: dec("20"), Date: core.NewDate(2024, 3, 2)}})
	require.NoError(t, err)
	assert.Equal(t, "Bia", got.PersonName)
	assert.Equal(t, core.DebtReceived, got.Status)
	assert.Equal(t, d.ID, got.ID)

	_, err = svc.UpdateDebt(ctx, 404, core.DebtSetStatus{Status: core.DebtReceived})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestReplaceKeepsPaidExpenseInSummary(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewLedgerService(store)
	summaries := NewSummaryService(store, nil, nil)

	e, err := svc.CreateExpense(ctx, core.Expense{Description: "Rent", Category: "Housing", AmountPlanned: dec("1200"), DueDate: core.NewDate(2024, 3, 5)})
	require.NoError(t, err)
	_, err = svc.ToggleExpenseStatus(ctx, e.ID)
	require.NoError(t, err)

	got, err := svc.UpdateExpense(ctx, e.ID, core.ExpenseReplace{Fields: core.Expense{
		Description: "Rent March", Category: "Housing", AmountPlanned: dec("1200"), DueDate: core.NewDate(2024, 3, 5),
	}})
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaid, got.Status)
	assert.True(t, got.AmountActual.Valid)
	assert.True(t, got.AmountActual.Decimal.Equal(dec("1200")))

	s, err := summaries.Summarize(ctx, march)
	require.NoError(t, err)
	assert.True(t, s.PaidExpenses.Equal(dec("1200")), s.PaidExpenses.String())
}

func TestDebtMovePublishesBothPeriods(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewLedgerService(memory.New(), WithPublisher(pub))

	d, err := svc.CreateDebt(ctx, core.ThirdPartyDebt{PersonName: "Ana", Amount: dec("40"), Date: core.NewDate(2024, 3, 1)})
	require.NoError(t, err)

	_, err = svc.UpdateDebt(ctx, d.ID, core.DebtReplace{Fields: core.ThirdPartyDebt{PersonName: "Ana", Amount: dec("40"), Date: core.NewDate(2024, 4, 1)}})
	require.NoError(t, err)

	require.Len(t, pub.changes, 3)
	assert.Equal(t, ledger.Change{Kind: ledger.KindDebt, ID: d.ID, Operation: ledger.OpUpdate, Period: march}, pub.changes[1])
	assert.Equal(t, core.Period{Year: 2024, Month: 4}, pub.changes[2].Period)
}

func TestRolloverIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memory.New())

	_, err := svc.CreateIncome(ctx, core.Income{Description: "Salary", Category: "Work", Amount: dec("5000"), Date: core.NewDate(2024, 1, 31), Recurring: true})
	require.NoError(t, err)
	_, err = svc.CreateIncome(ctx, core.Income{Description: "Gift", Category: "Other", Amount: dec("50"), Date: core.NewDate(2024, 1, 5)})
	require.NoError(t, err)
	_, err = svc.CreateExpense(ctx, core.Expense{
		Description: "Rent", Category: "Housing", AmountPlanned: dec("1200"), DueDate: core.NewDate(2024, 1, 30),
		Recurring: true, Status: core.StatusPaid,
	})
	require.NoError(t, err)

	proc := NewRecurringProcessor(svc, nil, nil)
	feb := core.Period{Year: 2024, Month: 2}

	n, err := proc.Rollover(ctx, feb)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	income, err := svc.ListIncome(ctx, &feb)
	require.NoError(t, err)
	require.Len(t, income, 1)
	assert.Equal(t, "2024-02-29", income[0].Date.String())

	expenses, err := svc.ListExpenses(ctx, &feb)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, core.StatusPending, expenses[0].Status)
	assert.False(t, expenses[0].AmountActual.Valid)
	assert.Equal(t, "2024-02-29", expenses[0].DueDate.String())

	n, err = proc.Rollover(ctx, feb)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestCloseAggregatesErrors(t *testing.T) {
	svc := NewLedgerService(memory.New(), WithClosers(
		closerFunc(func() error { return errors.New("amqp: closed") }),
		nil,
		closerFunc(func() error { return nil }),
	))
	err := svc.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amqp: closed")
}
