package core

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	StatusPending ExpenseStatus = "pending"
	StatusPaid    ExpenseStatus = "paid"

	DebtPending  DebtStatus = "pending"
	DebtReceived DebtStatus = "received"

	BuyerUser       BuyerType = "user"
	BuyerThirdParty BuyerType = "third_party"

	maxDescriptionLength = 200
)

type (
	ExpenseStatus string
	DebtStatus    string
	BuyerType     string

	Income struct {
		ID          int64           `json:"id"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Amount      decimal.Decimal `json:"amount"`
		Date        Date            `json:"date"`
		Recurring   bool            `json:"is_recurring"`
	}

	// Expense is a planned outflow anchored by its due date.
	// AmountActual is only meaningful once Status is paid.
	Expense struct {
		ID            int64               `json:"id"`
		Description   string              `json:"description"`
		Category      string              `json:"category"`
		AmountPlanned decimal.Decimal     `json:"amount_planned"`
		AmountActual  decimal.NullDecimal `json:"amount_actual"`
		DueDate       Date                `json:"due_date"`
		Status        ExpenseStatus       `json:"status"`
		Recurring     bool                `json:"is_recurring"`
		Notes         string              `json:"notes"`
	}

	CreditCard struct {
		ID          int64           `json:"id"`
		Name        string          `json:"name"`
		CreditLimit decimal.Decimal `json:"credit_limit"`
		ClosingDay  int             `json:"closing_day"`
		DueDay      int             `json:"due_day"`
	}

	// CardTransaction is a purchase on a card, possibly split into
	// installments. It is anchored by the purchase date.
	CardTransaction struct {
		ID                 int64           `json:"id"`
		CardID             int64           `json:"card_id"`
		Description        string          `json:"description"`
		Amount             decimal.Decimal `json:"amount"`
		Date               Date            `json:"date"`
		InstallmentsTotal  int             `json:"installments_total"`
		InstallmentCurrent int             `json:"installment_current"`
		BuyerType          BuyerType       `json:"buyer_type"`
		ThirdPartyName     string          `json:"third_party_name,omitempty"`
	}

	ThirdPartyDebt struct {
		ID         int64           `json:"id"`
		PersonName string          `json:"person_name"`
		Amount     decimal.Decimal `json:"amount"`
		Date       Date            `json:"date"`
		Origin     string          `json:"origin"`
		Status     DebtStatus      `json:"status"`
	}
)

var ErrEmptyPersonName = newValidationError("person_name", "must not be empty")

func (s ExpenseStatus) Valid() bool {
	return s == StatusPending || s == StatusPaid
}

func (s DebtStatus) Valid() bool {
	return s == DebtPending || s == DebtReceived
}

func (b BuyerType) Valid() bool {
	return b == BuyerUser || b == BuyerThirdParty
}

func validateDescription(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(s) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func validateDay(day int) error {
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	return nil
}

// Normalize trims free-text fields.
func (i *Income) Normalize() {
	i.Description = strings.TrimSpace(i.Description)
	i.Category = strings.TrimSpace(i.Category)
}

func (i Income) Validate() error {
	if err := validateDescription(i.Description); err != nil {
		return err
	}
	if strings.TrimSpace(i.Category) == "" {
		return ErrEmptyCategory
	}
	if err := requirePositive(i.Amount); err != nil {
		return err
	}
	return i.Date.Validate()
}

// Normalize trims free-text fields and fills defaults. A paid expense without
// an actual amount is assumed paid in full.
func (e *Expense) Normalize() {
	e.Description = strings.TrimSpace(e.Description)
	e.Category = strings.TrimSpace(e.Category)
	e.Notes = strings.TrimSpace(e.Notes)
	if e.Status == "" {
		e.Status = StatusPending
	}
	if e.Status == StatusPaid && !e.AmountActual.Valid {
		e.AmountActual = decimal.NewNullDecimal(e.AmountPlanned)
	}
}

func (e Expense) Validate() error {
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if err := requirePositive(e.AmountPlanned); err != nil {
		return err
	}
	if e.AmountActual.Valid && e.AmountActual.Decimal.IsNegative() {
		return ErrNegativeAmount
	}
	if !e.Status.Valid() {
		return ErrInvalidStatus
	}
	return e.DueDate.Validate()
}

// Toggled flips the expense between pending and paid. Marking paid sets the
// actual amount to the planned one; reverting resets it to zero.
func (e Expense) Toggled() Expense {
	if e.Status == StatusPaid {
		e.Status = StatusPending
		e.AmountActual = decimal.NewNullDecimal(decimal.Zero)
		return e
	}
	e.Status = StatusPaid
	e.AmountActual = decimal.NewNullDecimal(e.AmountPlanned)
	return e
}

func (c *CreditCard) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
}

func (c CreditCard) Validate() error {
	if c.Name == "" {
		return ErrEmptyName
	}
	if c.CreditLimit.IsNegative() {
		return Invalidf("credit_limit", "must not be negative")
	}
	if err := validateDay(c.ClosingDay); err != nil {
		return Invalidf("closing_day", "must be between 1 and 31")
	}
	if err := validateDay(c.DueDay); err != nil {
		return Invalidf("due_day", "must be between 1 and 31")
	}
	return nil
}

// Normalize fills installment and buyer defaults.
func (t *CardTransaction) Normalize() {
	t.Description = strings.TrimSpace(t.Description)
	t.ThirdPartyName = strings.TrimSpace(t.ThirdPartyName)
	if t.InstallmentsTotal == 0 {
		t.InstallmentsTotal = 1
	}
	if t.InstallmentCurrent == 0 {
		t.InstallmentCurrent = 1
	}
	if t.BuyerType == "" {
		t.BuyerType = BuyerUser
	}
}

func (t CardTransaction) Validate() error {
	if t.CardID <= 0 {
		return ErrInvalidCard
	}
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if err := requirePositive(t.Amount); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.InstallmentsTotal < 1 {
		return ErrInvalidInstallments
	}
	if t.InstallmentCurrent < 1 || t.InstallmentCurrent > t.InstallmentsTotal {
		return ErrInvalidCurrentInstall
	}
	if !t.BuyerType.Valid() {
		return ErrInvalidBuyerType
	}
	if t.BuyerType == BuyerThirdParty && strings.TrimSpace(t.ThirdPartyName) == "" {
		return ErrThirdPartyNameRequired
	}
	if t.BuyerType == BuyerUser && t.ThirdPartyName != "" {
		return ErrThirdPartyNameForbidden
	}
	return nil
}

func (d *ThirdPartyDebt) Normalize() {
	d.PersonName = strings.TrimSpace(d.PersonName)
	d.Origin = strings.TrimSpace(d.Origin)
	if d.Status == "" {
		d.Status = DebtPending
	}
}

func (d ThirdPartyDebt) Validate() error {
	if d.PersonName == "" {
		return ErrEmptyPersonName
	}
	if err := requirePositive(d.Amount); err != nil {
		return err
	}
	if !d.Status.Valid() {
		return ErrInvalidStatus
	}
	return d.Date.Validate()
}
