package http

import (
	"net/http"

	"nexu/internal/core"
)

type incomeRequest struct {
	Description string     `json:"description" validate:"required,max=200"`
	Category    string     `json:"category" validate:"required,max=100"`
	Amount      flexAmount `json:"amount" validate:"required"`
	Date        string     `json:"date" validate:"required"`
	Recurring   bool       `json:"is_recurring"`
}

func (req incomeRequest) toIncome() (core.Income, error) {
	amount, err := req.Amount.positive("amount")
	if err != nil {
		return core.Income{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Income{}, err
	}
	return core.Income{
		Description: sanitizeInput(req.Description),
		Category:    sanitizeInput(req.Category),
		Amount:      amount,
		Date:        date,
		Recurring:   req.Recurring,
	}, nil
}

func (s *Server) decodeIncome(r *http.Request) (core.Income, error) {
	var req incomeRequest
	if err := s.readJSON(r, &req); err != nil {
		return core.Income{}, err
	}
	return req.toIncome()
}

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	p, err := optionalPeriod(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items, err := s.ledger.ListIncome(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodeIncome(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateIncome(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := s.decodeIncome(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.ledger.UpdateIncome(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteIncome(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
