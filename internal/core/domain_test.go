package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validTransaction() CardTransaction {
	return CardTransaction{
		CardID:      1,
		Description: "Notebook",
		Amount:      dec("300"),
		Date:        NewDate(2024, 3, 15),
	}
}

func TestCardTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CardTransaction)
		wantErr error
	}{
		{"defaults are valid", func(*CardTransaction) {}, nil},
		{"third party with name", func(tx *CardTransaction) {
			tx.BuyerType = BuyerThirdParty
			tx.ThirdPartyName = "Ana"
		}, nil},
		{"third party without name", func(tx *CardTransaction) {
			tx.BuyerType = BuyerThirdParty
		}, ErrThirdPartyNameRequired},
		{"third party blank name", func(tx *CardTransaction) {
			tx.BuyerType = BuyerThirdParty
			tx.ThirdPartyName = "   "
		}, ErrThirdPartyNameRequired},
		{"user with name", func(tx *CardTransaction) {
			tx.ThirdPartyName = "Ana"
		}, ErrThirdPartyNameForbidden},
		{"negative installments", func(tx *CardTransaction) {
			tx.InstallmentsTotal = -1
		}, ErrInvalidInstallments},
		{"current beyond total", func(tx *CardTransaction) {
			tx.InstallmentsTotal = 3
			tx.InstallmentCurrent = 4
		}, ErrInvalidCurrentInstall},
		{"zero amount", func(tx *CardTransaction) {
			tx.Amount = decimal.Zero
		}, ErrInvalidAmount},
		{"missing card", func(tx *CardTransaction) {
			tx.CardID = 0
		}, ErrInvalidCard},
		{"unknown buyer", func(tx *CardTransaction) {
			tx.BuyerType = "friend"
		}, ErrInvalidBuyerType},
		{"empty description", func(tx *CardTransaction) {
			tx.Description = " "
		}, ErrEmptyDescription},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			tx.Normalize()
			err := tx.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCardTransactionNormalizeDefaults(t *testing.T) {
	tx := validTransaction()
	tx.Normalize()
	assert.Equal(t, 1, tx.InstallmentsTotal)
	assert.Equal(t, 1, tx.InstallmentCurrent)
	assert.Equal(t, BuyerUser, tx.BuyerType)
}

func TestExpenseNormalizeAndValidate(t *testing.T) {
	e := Expense{
		Description:   " Rent ",
		Category:      "Housing",
		AmountPlanned: dec("1200"),
		DueDate:       NewDate(2024, 3, 5),
	}
	e.Normalize()
	require.NoError(t, e.Validate())
	assert.Equal(t, "Rent", e.Description)
	assert.Equal(t, StatusPending, e.Status)
	assert.False(t, e.AmountActual.Valid)

	e.Status = StatusPaid
	e.Normalize()
	require.True(t, e.AmountActual.Valid)
	assert.True(t, e.AmountActual.Decimal.Equal(dec("1200")))

	e.Status = "late"
	assert.ErrorIs(t, e.Validate(), ErrInvalidStatus)
}

func TestExpenseToggled(t *testing.T) {
	e := Expense{
		Description:   "Rent",
		Category:      "Housing",
		AmountPlanned: dec("1200"),
		DueDate:       NewDate(2024, 3, 5),
		Status:        StatusPending,
	}

	paid := e.Toggled()
	assert.Equal(t, StatusPaid, paid.Status)
	assert.True(t, paid.AmountActual.Decimal.Equal(dec("1200")))

	back := paid.Toggled()
	assert.Equal(t, StatusPending, back.Status)
	require.True(t, back.AmountActual.Valid)
	assert.True(t, back.AmountActual.Decimal.IsZero())
}

func TestCreditCardValidate(t *testing.T) {
	c := CreditCard{Name: "Nubank", CreditLimit: dec("5000"), ClosingDay: 3, DueDay: 10}
	require.NoError(t, c.Validate())

	c.DueDay = 32
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	c.DueDay = 10
	c.Name = ""
	assert.ErrorIs(t, c.Validate(), ErrEmptyName)
}

func TestDebtValidate(t *testing.T) {
	d := ThirdPartyDebt{PersonName: "Ana", Amount: dec("50"), Date: NewDate(2024, 3, 1)}
	d.Normalize()
	require.NoError(t, d.Validate())
	assert.Equal(t, DebtPending, d.Status)

	d.PersonName = ""
	assert.ErrorIs(t, d.Validate(), ErrEmptyPersonName)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"12.34", "12.34", false},
		{"12,34", "12.34", false},
		{" 100 ", "100", false},
		{"0", "", true},
		{"-5", "", true},
		{"abc", "", true},
		{"1.2.3", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tt.want)), "got %s", got)
		})
	}
}
