package http

import "net/http"

type rolloverResponse struct {
	Period  string `json:"period"`
	Created int    `json:"created"`
}

// handleRollover copies recurring entries of the previous month into the
// requested one. Repeating the call creates nothing new.
func (s *Server) handleRollover(w http.ResponseWriter, r *http.Request) {
	p, err := requiredPeriod(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.recurring.Rollover(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rolloverResponse{Period: p.String(), Created: created})
}
