package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"nexu/internal/core"
)

// modeStatus selects the status-only update branch; "replace" overwrites
// every field but status and amount_actual.
const modeStatus = "status"

type expenseRequest struct {
	Description   string      `json:"description" validate:"required,max=200"`
	Category      string      `json:"category" validate:"required,max=100"`
	AmountPlanned flexAmount  `json:"amount_planned" validate:"required"`
	AmountActual  *flexAmount `json:"amount_actual"`
	DueDate       string      `json:"due_date" validate:"required"`
	Status        string      `json:"status" validate:"omitempty,oneof=pending paid"`
	Recurring     bool        `json:"is_recurring"`
	Notes         string      `json:"notes" validate:"max=1000"`
}

func (req expenseRequest) toExpense() (core.Expense, error) {
	planned, err := req.AmountPlanned.positive("amount_planned")
	if err != nil {
		return core.Expense{}, err
	}
	due, err := core.ParseDate(req.DueDate)
	if err != nil {
		return core.Expense{}, core.Invalidf("due_date", "must be a valid YYYY-MM-DD date")
	}
	e := core.Expense{
		Description:   sanitizeInput(req.Description),
		Category:      sanitizeInput(req.Category),
		AmountPlanned: planned,
		DueDate:       due,
		Status:        core.ExpenseStatus(req.Status),
		Recurring:     req.Recurring,
		Notes:         sanitizeInput(req.Notes),
	}
	if req.AmountActual != nil && *req.AmountActual != "" {
		actual, err := req.AmountActual.nonNegative("amount_actual")
		if err != nil {
			return core.Expense{}, err
		}
		e.AmountActual = decimal.NewNullDecimal(actual)
	}
	return e, nil
}

// updateEnvelope carries the explicit update mode shared by expenses and
// debts.
type updateEnvelope struct {
	Mode string `json:"mode" validate:"required,oneof=status replace"`
}

type expenseStatusRequest struct {
	Status       string      `json:"status" validate:"required,oneof=pending paid"`
	AmountActual *flexAmount `json:"amount_actual"`
}

// decodeExpenseUpdate turns a PATCH body into the matching update command.
// In status mode only status and amount_actual are read.
func (s *Server) decodeExpenseUpdate(r *http.Request) (core.ExpenseUpdate, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	var env updateEnvelope
	if err := s.decodeJSON(body, &env); err != nil {
		return nil, err
	}

	if env.Mode == modeStatus {
		var req expenseStatusRequest
		if err := s.decodeJSON(body, &req); err != nil {
			return nil, err
		}
		cmd := core.ExpenseSetStatus{Status: core.ExpenseStatus(req.Status)}
		if req.AmountActual != nil && *req.AmountActual != "" {
			actual, err := req.AmountActual.nonNegative("amount_actual")
			if err != nil {
				return nil, err
			}
			cmd.AmountActual = &actual
		}
		return cmd, nil
	}

	var req expenseRequest
	if err := s.decodeJSON(body, &req); err != nil {
		return nil, err
	}
	e, err := req.toExpense()
	if err != nil {
		return nil, err
	}
	return core.ExpenseReplace{Fields: e}, nil
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	p, err := optionalPeriod(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items, err := s.ledger.ListExpenses(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := req.toExpense()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateExpense(r.Context(), e)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cmd, err := s.decodeExpenseUpdate(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.ledger.UpdateExpense(r.Context(), id, cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleToggleExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.ledger.ToggleExpenseStatus(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
