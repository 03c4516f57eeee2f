package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"challan-backend/internal/challan"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": message} with the request id.
func writeError(w http.ResponseWriter, r *http.Request, message string, status int) {
	writeJSON(w, status, errorResponse{
		Error:     message,
		RequestID: requestIDFromContext(r.Context()),
	})
}

func kindStatus(kind challan.Kind) int {
	switch kind {
	case challan.KindBadRequest:
		return http.StatusBadRequest
	case challan.KindForbidden:
		return http.StatusForbidden
	case challan.KindNotFound:
		return http.StatusNotFound
	case challan.KindValidation, challan.KindERPResult:
		return http.StatusUnprocessableEntity
	case challan.KindDownstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// failure converts a workflow error into the message and status shown to the operator. Internal
// errors are reported and never leak their cause.
func (h *Handler) failure(id string, err error) (string, int) {
	f := challan.AsFailure(err)
	if f.Kind == challan.KindInternal {
		h.tel.ReportBroken(id, err)
	}
	return f.Message, kindStatus(f.Kind)
}

func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, id string, err error) {
	message, status := h.failure(id, err)
	writeError(w, r, message, status)
}

// decodeJSON reads the request body into out, on failure it returns the status to answer with.
func decodeJSON(r *http.Request, out any) (int, error) {
	err := json.NewDecoder(r.Body).Decode(out)
	if err == nil {
		return http.StatusOK, nil
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge, err
	}
	return http.StatusBadRequest, err
}
