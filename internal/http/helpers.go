package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"nexu/internal/core"
	"nexu/internal/ledger"
	"nexu/internal/log"
)

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalidf("id", "must be a positive integer")
	}
	return id, nil
}

// requiredPeriod reads month and year from the query; both must be present.
func requiredPeriod(r *http.Request) (core.Period, error) {
	q := r.URL.Query()
	return core.ParsePeriod(q.Get("month"), q.Get("year"))
}

// optionalPeriod returns nil when neither month nor year is given. Supplying
// only one of them is an error.
func optionalPeriod(r *http.Request) (*core.Period, error) {
	q := r.URL.Query()
	month, year := strings.TrimSpace(q.Get("month")), strings.TrimSpace(q.Get("year"))
	if month == "" && year == "" {
		return nil, nil
	}
	p, err := core.ParsePeriod(month, year)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// buyerTypeQuery reads buyer_type; empty and "all" mean no filter.
func buyerTypeQuery(r *http.Request) (core.BuyerType, error) {
	v := strings.TrimSpace(r.URL.Query().Get("buyer_type"))
	if v == "" || v == "all" {
		return "", nil
	}
	bt := core.BuyerType(v)
	if !bt.Valid() {
		return "", core.ErrInvalidBuyerType
	}
	return bt, nil
}

// transactionFilter builds the card transaction filter from the query.
func transactionFilter(r *http.Request, cardID int64) (ledger.Filter, error) {
	p, err := optionalPeriod(r)
	if err != nil {
		return ledger.Filter{}, err
	}
	bt, err := buyerTypeQuery(r)
	if err != nil {
		return ledger.Filter{}, err
	}
	f := ledger.Filter{CardID: cardID, BuyerType: bt}
	if p != nil {
		rng := p.Range()
		f.Range = &rng
	}
	return f, nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Ping(r.Context()); err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
