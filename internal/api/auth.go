package api

import (
	"errors"
	"net/http"

	"challan-backend/internal/security"
)

const (
	report_api_csrf  = "csrf"
	report_api_login = "login"
)

func (h *Handler) csrf(w http.ResponseWriter, r *http.Request) {
	token, err := h.services.CSRF.Issue()
	if err != nil {
		h.tel.ReportBroken(report_api_csrf, err)
		writeError(w, r, "Server Error", http.StatusInternalServerError)
		return
	}
	// the page reads the cookie to echo it in the header, it cannot be HttpOnly
	http.SetCookie(w, &http.Cookie{
		Name:     security.CSRFCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.services.CSRF.TTL().Seconds()),
		Secure:   secureRequest(r),
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) challenge(w http.ResponseWriter, r *http.Request) {
	challenge, err := h.services.DeleteAuth.Challenge()
	if err != nil {
		h.tel.ReportBroken(report_api_login, err)
		writeError(w, r, "Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, challenge)
}

type loginRequest struct {
	Username    string `json:"username"`
	ChallengeID string `json:"challengeId"`
	Proof       string `json:"proof"`
}

func loginStatus(err error) (string, int) {
	switch {
	case errors.Is(err, security.ErrTooManyAttempts):
		return "Too many attempts, try again later", http.StatusTooManyRequests
	case errors.Is(err, security.ErrInvalidRequest):
		return "Invalid request format", http.StatusBadRequest
	case errors.Is(err, security.ErrChallengeExpired):
		return "Challenge expired, please retry", http.StatusBadRequest
	case errors.Is(err, security.ErrInvalidCredentials):
		return "Invalid credentials", http.StatusUnauthorized
	default:
		return "Server Error", http.StatusInternalServerError
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if status, err := decodeJSON(r, &body); err != nil {
		writeError(w, r, "Invalid request format", status)
		return
	}

	token, exchange, err := h.services.DeleteAuth.Login(
		security.ClientIP(r),
		security.Sanitize(body.Username, 100),
		body.ChallengeID,
		body.Proof,
	)
	if err != nil {
		message, status := loginStatus(err)
		if status == http.StatusInternalServerError {
			h.tel.ReportBroken(report_api_login, err)
		}
		writeError(w, r, message, status)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     security.DeleteTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(security.DeleteTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   secureRequest(r),
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, exchange)
}
