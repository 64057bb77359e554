package http

import (
	"net/http"

	"nexu/internal/core"
)

type debtRequest struct {
	PersonName string     `json:"person_name" validate:"required,max=100"`
	Amount     flexAmount `json:"amount" validate:"required"`
	Date       string     `json:"date" validate:"required"`
	Origin     string     `json:"origin" validate:"max=200"`
	Status     string     `json:"status" validate:"omitempty,oneof=pending received"`
}

func (req debtRequest) toDebt() (core.ThirdPartyDebt, error) {
	amount, err := req.Amount.positive("amount")
	if err != nil {
		return core.ThirdPartyDebt{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.ThirdPartyDebt{}, err
	}
	return core.ThirdPartyDebt{
		PersonName: sanitizeInput(req.PersonName),
		Amount:     amount,
		Date:       date,
		Origin:     sanitizeInput(req.Origin),
		Status:     core.DebtStatus(req.Status),
	}, nil
}

type debtStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending received"`
}

func (s *Server) decodeDebtUpdate(r *http.Request) (core.DebtUpdate, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	var env updateEnvelope
	if err := s.decodeJSON(body, &env); err != nil {
		return nil, err
	}

	if env.Mode == modeStatus {
		var req debtStatusRequest
		if err := s.decodeJSON(body, &req); err != nil {
			return nil, err
		}
		return core.DebtSetStatus{Status: core.DebtStatus(req.Status)}, nil
	}

	var req debtRequest
	if err := s.decodeJSON(body, &req); err != nil {
		return nil, err
	}
	d, err := req.toDebt()
	if err != nil {
		return nil, err
	}
	return core.DebtReplace{Fields: d}, nil
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	p, err := optionalPeriod(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	debts, err := s.ledger.ListDebts(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(debts))
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := req.toDebt()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateDebt(r.Context(), d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cmd, err := s.decodeDebtUpdate(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.ledger.UpdateDebt(r.Context(), id, cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteDebt(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
