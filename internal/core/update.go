package core

import "github.com/shopspring/decimal"

type (
	// ExpenseUpdate is either ExpenseSetStatus or ExpenseReplace.
	ExpenseUpdate interface {
		Validate() error
		Apply(Expense) Expense
		isExpenseUpdate()
	}

	// ExpenseSetStatus changes only status and actual amount. A nil
	// AmountActual means "planned amount" when paid and zero when pending.
	ExpenseSetStatus struct {
		Status       ExpenseStatus
		AmountActual *decimal.Decimal
	}

	// ExpenseReplace overwrites every field except id, status and
	// amount_actual. Status changes go through ExpenseSetStatus.
	ExpenseReplace struct {
		Fields Expense
	}

	// DebtUpdate is either DebtSetStatus or DebtReplace.
	DebtUpdate interface {
		Validate() error
		Apply(ThirdPartyDebt) ThirdPartyDebt
		isDebtUpdate()
	}

	DebtSetStatus struct {
		Status DebtStatus
	}

	// DebtReplace overwrites every field except id and status.
	DebtReplace struct {
		Fields ThirdPartyDebt
	}
)

func (ExpenseSetStatus) isExpenseUpdate() {}
func (ExpenseReplace) isExpenseUpdate()   {}
func (DebtSetStatus) isDebtUpdate()       {}
func (DebtReplace) isDebtUpdate()         {}

func (c ExpenseSetStatus) Validate() error {
	if !c.Status.Valid() {
		return ErrInvalidStatus
	}
	if c.AmountActual != nil && c.AmountActual.IsNegative() {
		return newValidationError("amount_actual", "must not be negative")
	}
	return nil
}

func (c ExpenseSetStatus) Apply(e Expense) Expense {
	e.Status = c.Status
	switch {
	case c.AmountActual != nil:
		e.AmountActual = decimal.NewNullDecimal(*c.AmountActual)
	case c.Status == StatusPaid:
		e.AmountActual = decimal.NewNullDecimal(e.AmountPlanned)
	default:
		e.AmountActual = decimal.NewNullDecimal(decimal.Zero)
	}
	return e
}

func (c ExpenseReplace) Validate() error {
	f := c.Fields
	f.Normalize()
	return f.Validate()
}

func (c ExpenseReplace) Apply(e Expense) Expense {
	f := c.Fields
	f.Normalize()
	f.ID = e.ID
	f.Status = e.Status
	f.AmountActual = e.AmountActual
	return f
}

func (c DebtSetStatus) Validate() error {
	if !c.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func (c DebtSetStatus) Apply(d ThirdPartyDebt) ThirdPartyDebt {
	d.Status = c.Status
	return d
}

func (c DebtReplace) Validate() error {
	f := c.Fields
	f.Normalize()
	return f.Validate()
}

func (c DebtReplace) Apply(d ThirdPartyDebt) ThirdPartyDebt {
	f := c.Fields
	f.Normalize()
	f.ID = d.ID
	f.Status = d.Status
	return f
}
