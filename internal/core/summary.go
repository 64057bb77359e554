package core

import "github.com/shopspring/decimal"

func init() {
	// Amounts travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// MonthlySummary is the derived aggregate for one period. It is never stored.
type MonthlySummary struct {
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	PaidExpenses  decimal.Decimal `json:"paidExpenses"`
	CardTotal     decimal.Decimal `json:"cardTotal"`
	Balance       decimal.Decimal `json:"balance"`
}

// Aggregate computes the summary from rows already restricted to one period.
// Third-party card spend counts toward CardTotal but not TotalExpenses.
func Aggregate(income []Income, expenses []Expense, txs []CardTransaction) (MonthlySummary, error) {
	s := MonthlySummary{
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		PaidExpenses:  decimal.Zero,
		CardTotal:     decimal.Zero,
		Balance:       decimal.Zero,
	}

	for _, in := range income {
		s.TotalIncome = s.TotalIncome.Add(in.Amount)
	}

	planned := decimal.Zero
	for _, e := range expenses {
		planned = planned.Add(e.AmountPlanned)
		if e.Status == StatusPaid && e.AmountActual.Valid {
			s.PaidExpenses = s.PaidExpenses.Add(e.AmountActual.Decimal)
		}
	}

	personal := decimal.Zero
	for _, t := range txs {
		charge, err := PerPeriodCharge(t)
		if err != nil {
			return MonthlySummary{}, err
		}
		s.CardTotal = s.CardTotal.Add(charge)
		if t.BuyerType == BuyerUser {
			personal = personal.Add(charge)
		}
	}

	s.TotalExpenses = planned.Add(personal)
	s.Balance = s.TotalIncome.Sub(s.TotalExpenses)
	return s, nil
}
