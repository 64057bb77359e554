package http

import (
	"net/http"

	"nexu/internal/core"
)

type cardRequest struct {
	Name        string     `json:"name" validate:"required,max=100"`
	CreditLimit flexAmount `json:"credit_limit"`
	ClosingDay  int        `json:"closing_day" validate:"required,min=1,max=31"`
	DueDay      int        `json:"due_day" validate:"required,min=1,max=31"`
}

func (s *Server) decodeCard(r *http.Request) (core.CreditCard, error) {
	var req cardRequest
	if err := s.readJSON(r, &req); err != nil {
		return core.CreditCard{}, err
	}
	limit, err := req.CreditLimit.nonNegative("credit_limit")
	if err != nil {
		return core.CreditCard{}, err
	}
	return core.CreditCard{
		Name:        sanitizeInput(req.Name),
		CreditLimit: limit,
		ClosingDay:  req.ClosingDay,
		DueDay:      req.DueDay,
	}, nil
}

type cardTransactionRequest struct {
	CardID             int64      `json:"card_id" validate:"omitempty,gt=0"`
	Description        string     `json:"description" validate:"required,max=200"`
	Amount             flexAmount `json:"amount" validate:"required"`
	Date               string     `json:"date" validate:"required"`
	InstallmentsTotal  int        `json:"installments_total" validate:"omitempty,min=1"`
	InstallmentCurrent int        `json:"installment_current" validate:"omitempty,min=1"`
	BuyerType          string     `json:"buyer_type" validate:"omitempty,oneof=user third_party"`
	ThirdPartyName     string     `json:"third_party_name" validate:"max=100"`
}

// decodeCardTransaction reads a transaction body. cardID, when non-zero,
// comes from the URL and wins over the body.
func (s *Server) decodeCardTransaction(r *http.Request, cardID int64) (core.CardTransaction, error) {
	var req cardTransactionRequest
	if err := s.readJSON(r, &req); err != nil {
		return core.CardTransaction{}, err
	}
	amount, err := req.Amount.positive("amount")
	if err != nil {
		return core.CardTransaction{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.CardTransaction{}, err
	}
	if cardID == 0 {
		cardID = req.CardID
	}
	return core.CardTransaction{
		CardID:             cardID,
		Description:        sanitizeInput(req.Description),
		Amount:             amount,
		Date:               date,
		InstallmentsTotal:  req.InstallmentsTotal,
		InstallmentCurrent: req.InstallmentCurrent,
		BuyerType:          core.BuyerType(req.BuyerType),
		ThirdPartyName:     sanitizeInput(req.ThirdPartyName),
	}, nil
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.ledger.ListCards(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cards))
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	card, err := s.ledger.GetCard(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	c, err := s.decodeCard(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateCard(r.Context(), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.decodeCard(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.ledger.UpdateCard(r.Context(), id, c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteCard(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCardTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.ledger.GetCard(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.listTransactions(w, r, id)
}

func (s *Server) handleListAllCardTransactions(w http.ResponseWriter, r *http.Request) {
	s.listTransactions(w, r, 0)
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request, cardID int64) {
	f, err := transactionFilter(r, cardID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	txs, err := s.ledger.ListCardTransactions(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(txs))
}

func (s *Server) handleCreateCardTransaction(w http.ResponseWriter, r *http.Request) {
	cardID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.decodeCardTransaction(r, cardID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateCardTransaction(r.Context(), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCardTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.decodeCardTransaction(r, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.ledger.UpdateCardTransaction(r.Context(), id, t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCardTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteCardTransaction(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
