package api

import (
	"errors"
	"net/http"

	"challan-backend/internal/challan"
	"challan-backend/internal/security"
)

const (
	report_api_process = "process"
	report_api_delete  = "delete"
)

type processRequest struct {
	Challan   string `json:"challan"`
	CompanyID string `json:"company_id"`
}

type processResponse struct {
	Status string `json:"status"`
	// Message is only set on errors.
	Message string `json:"message,omitempty"`
	*challan.CreateResult
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	var body processRequest
	if status, err := decodeJSON(r, &body); err != nil {
		writeJSON(w, status, processResponse{Status: "error", Message: "Missing Data"})
		return
	}

	res, err := h.services.Challans.Create(r.Context(), challan.CreateRequest{
		ChallanNo: security.Sanitize(body.Challan, 50),
		CompanyID: security.Digits(security.Sanitize(body.CompanyID, 5)),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		message, status := h.failure(report_api_process, err)
		writeJSON(w, status, processResponse{Status: "error", Message: message})
		return
	}
	writeJSON(w, http.StatusOK, processResponse{Status: "success", CreateResult: &res})
}

// deleteRequest is the plaintext of the envelope posted to /api/delete.
type deleteRequest struct {
	Action     string `json:"action"`
	ChallanNo  string `json:"challan_no"`
	CompanyID  string `json:"company_id"`
	LocationID string `json:"location_id"`
	SystemID   string `json:"system_id"`
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(security.DeleteTokenCookie); err == nil {
		token = cookie.Value
	}
	key, err := h.services.DeleteAuth.SessionKey(token)
	switch {
	case errors.Is(err, security.ErrSessionKeyExpired):
		writeError(w, r, "Session key expired", http.StatusUnauthorized)
		return
	case err != nil:
		writeError(w, r, "Unauthorized, session expired or invalid", http.StatusUnauthorized)
		return
	}

	// every response from here on is encrypted with the session key
	respond := func(status int, v any) {
		env, err := security.Seal(key, v)
		if err != nil {
			h.tel.ReportBroken(report_api_delete, err)
			writeError(w, r, "Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, status, env)
	}
	fail := func(err error) {
		message, status := h.failure(report_api_delete, err)
		respond(status, errorResponse{Error: message})
	}

	var env security.Envelope
	var body deleteRequest
	if status, err := decodeJSON(r, &env); err != nil {
		respond(status, errorResponse{Error: "Invalid encrypted payload"})
		return
	}
	if err := security.Open(key, env, &body); err != nil {
		respond(http.StatusBadRequest, errorResponse{Error: "Invalid encrypted payload"})
		return
	}

	ctx := r.Context()
	challanNo := security.Sanitize(body.ChallanNo, 50)
	companyID := security.Digits(body.CompanyID)
	locationID := security.Digits(body.LocationID)
	systemID := security.Digits(body.SystemID)

	switch body.Action {
	case "search":
		systemID, err := h.services.Challans.Search(ctx, challan.SearchRequest{
			ChallanNo:  challanNo,
			CompanyID:  companyID,
			LocationID: locationID,
			UserAgent:  r.UserAgent(),
		})
		if err != nil {
			fail(err)
			return
		}
		respond(http.StatusOK, map[string]string{"system_id": systemID})
	case "preview":
		details, err := h.services.Challans.Preview(ctx, systemID, r.UserAgent())
		if err != nil {
			fail(err)
			return
		}
		respond(http.StatusOK, map[string]any{"details": details})
	case "delete":
		res, err := h.services.Challans.Delete(ctx, challan.DeleteRequest{
			SystemID:   systemID,
			ChallanNo:  challanNo,
			CompanyID:  companyID,
			LocationID: locationID,
			UserAgent:  r.UserAgent(),
		})
		if err != nil {
			fail(err)
			return
		}
		respond(http.StatusOK, res)
	default:
		respond(http.StatusBadRequest, errorResponse{Error: "Invalid action. Use: search, preview, or delete"})
	}
}
