package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"nexu/internal/core"
	"nexu/internal/log"
	"nexu/internal/middleware/trace"
)

type errorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Unexpected errors are logged
// and answered with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{RequestID: trace.GetRequestID(r.Context())}

	var (
		verr   *core.ValidationError
		tooBig *http.MaxBytesError
		status int
	)
	switch {
	case errors.As(err, &tooBig):
		status = http.StatusRequestEntityTooLarge
		resp.Error = "request body too large"
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		resp.Error = verr.Error()
		resp.Field = verr.Field
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
		resp.Error = "not found"
	case errors.Is(err, core.ErrReferential):
		status = http.StatusUnprocessableEntity
		resp.Error = err.Error()
	case errors.Is(err, core.ErrCardInUse):
		status = http.StatusConflict
		resp.Error = err.Error()
	default:
		status = http.StatusInternalServerError
		resp.Error = "internal server error"
		log.LogError(r.Context(), log.FromContext(r.Context()), "Request failed", err,
			operationFor(r.Method),
			log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, ""))
	}

	writeJSON(w, status, resp)
}

// operationFor names the ledger operation a request method performs.
func operationFor(method string) string {
	switch method {
	case http.MethodPost:
		return log.OpCreate
	case http.MethodPut, http.MethodPatch:
		return log.OpUpdate
	case http.MethodDelete:
		return log.OpDelete
	default:
		return log.OpRead
	}
}
