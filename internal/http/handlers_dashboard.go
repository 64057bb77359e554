package http

import (
	"net/http"

	"nexu/internal/core"
)

type insightsResponse struct {
	Period   string              `json:"period"`
	Summary  core.MonthlySummary `json:"summary"`
	Insights []string            `json:"insights"`
}

// handleSummary answers with exactly the five summary fields.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	p, err := requiredPeriod(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summary, err := s.summaries.Summarize(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleInsights never fails because of the advisor; only the summary read
// can produce an error.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	p, err := requiredPeriod(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summary, err := s.summaries.Summarize(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insightsResponse{
		Period:   p.String(),
		Summary:  summary,
		Insights: s.advisor.Advise(r.Context(), summary),
	})
}
