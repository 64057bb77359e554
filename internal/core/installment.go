package core

import "github.com/shopspring/decimal"

// PerPeriodCharge returns the slice of a card purchase billed in one period:
// the total amount divided evenly by the installment count.
func PerPeriodCharge(t CardTransaction) (decimal.Decimal, error) {
	if t.InstallmentsTotal < 1 {
		return decimal.Zero, ErrInvalidInstallments
	}
	if t.InstallmentsTotal == 1 {
		return t.Amount, nil
	}
	return t.Amount.Div(decimal.NewFromInt(int64(t.InstallmentsTotal))), nil
}
