package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseSetStatusKeepsOtherFields(t *testing.T) {
	e := Expense{
		ID:            7,
		Description:   "Internet",
		Category:      "Utilities",
		AmountPlanned: dec("99.90"),
		DueDate:       NewDate(2024, 3, 12),
		Status:        StatusPending,
		Notes:         "fiber",
	}

	got := ExpenseSetStatus{Status: StatusPaid}.Apply(e)
	assert.Equal(t, StatusPaid, got.Status)
	assert.True(t, got.AmountActual.Decimal.Equal(dec("99.90")))
	assert.Equal(t, e.Description, got.Description)
	assert.Equal(t, e.Category, got.Category)
	assert.Equal(t, e.DueDate, got.DueDate)
	assert.Equal(t, e.Notes, got.Notes)

	actual := dec("120")
	got = ExpenseSetStatus{Status: StatusPaid, AmountActual: &actual}.Apply(e)
	assert.True(t, got.AmountActual.Decimal.Equal(actual))

	got = ExpenseSetStatus{Status: StatusPending}.Apply(got)
	assert.True(t, got.AmountActual.Decimal.IsZero())
}

func TestExpenseSetStatusValidate(t *testing.T) {
	assert.ErrorIs(t, ExpenseSetStatus{Status: "done"}.Validate(), ErrInvalidStatus)

	neg := decimal.NewFromInt(-1)
	err := ExpenseSetStatus{Status: StatusPaid, AmountActual: &neg}.Validate()
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestExpenseReplaceKeepsID(t *testing.T) {
	current := Expense{ID: 3, Description: "Old", Status: StatusPending}
	cmd := ExpenseReplace{Fields: Expense{
		ID:            99,
		Description:   "New",
		Category:      "Food",
		AmountPlanned: dec("10"),
		DueDate:       NewDate(2024, 5, 1),
	}}
	require.NoError(t, cmd.Validate())

	got := cmd.Apply(current)
	assert.Equal(t, int64(3), got.ID)
	assert.Equal(t, "New", got.Description)
	assert.Equal(t, StatusPending, got.Status)
}

func TestReplaceKeepsStatus(t *testing.T) {
	paid := Expense{
		ID:            4,
		Description:   "Rent",
		Category:      "Housing",
		AmountPlanned: dec("1200"),
		AmountActual:  decimal.NewNullDecimal(dec("1150")),
		DueDate:       NewDate(2024, 3, 5),
		Status:        StatusPaid,
	}
	got := ExpenseReplace{Fields: Expense{
		Description:   "Rent (fixed typo)",
		Category:      "Housing",
		AmountPlanned: dec("1250"),
		DueDate:       NewDate(2024, 3, 6),
		Status:        StatusPending,
	}}.Apply(paid)
	assert.Equal(t, StatusPaid, got.Status)
	assert.True(t, got.AmountActual.Valid)
	assert.True(t, got.AmountActual.Decimal.Equal(dec("1150")))
	assert.Equal(t, "Rent (fixed typo)", got.Description)
	assert.True(t, got.AmountPlanned.Equal(dec("1250")))

	received := ThirdPartyDebt{ID: 2, PersonName: "Ana", Amount: dec("40"), Date: NewDate(2024, 3, 1), Status: DebtReceived}
	gotDebt := DebtReplace{Fields: ThirdPartyDebt{PersonName: "Ana Maria", Amount: dec("45"), Date: NewDate(2024, 3, 2)}}.Apply(received)
	assert.Equal(t, DebtReceived, gotDebt.Status)
	assert.Equal(t, "Ana Maria", gotDebt.PersonName)
	assert.Equal(t, int64(2), gotDebt.ID)
}

func TestDebtUpdates(t *testing.T) {
	d := ThirdPartyDebt{ID: 1, PersonName: "Ana", Amount: dec("40"), Date: NewDate(2024, 3, 1), Status: DebtPending}

	got := DebtSetStatus{Status: DebtReceived}.Apply(d)
	assert.Equal(t, DebtReceived, got.Status)
	assert.Equal(t, "Ana", got.PersonName)

	assert.ErrorIs(t, DebtSetStatus{Status: "paid"}.Validate(), ErrInvalidStatus)
	assert.ErrorIs(t, DebtReplace{Fields: ThirdPartyDebt{Amount: dec("1")}}.Validate(), ErrEmptyPersonName)
}
