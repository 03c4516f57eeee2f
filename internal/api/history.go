package api

import (
	"net/http"
	"strconv"

	"challan-backend/internal/history"
	"challan-backend/internal/security"
)

const report_api_history = "history"

type pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type historyResponse struct {
	Entries    []history.Record `json:"entries"`
	Stats      history.Stats    `json:"stats"`
	Pagination pagination       `json:"pagination"`
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit := h.config.HistoryLimit
	filter := history.Filter{
		ChallanNo: security.Sanitize(query.Get("challan_no"), 100),
		LineNo:    security.Sanitize(query.Get("line_no"), 100),
		Date:      security.Sanitize(query.Get("date"), 100),
		BookingNo: security.Sanitize(query.Get("booking_no"), 100),
	}

	ctx := r.Context()
	entries, total, err := h.services.History.Find(ctx, filter, page, limit)
	if err != nil {
		h.tel.ReportBroken(report_api_history, err)
		writeError(w, r, "Failed to load history", http.StatusInternalServerError)
		return
	}
	stats, err := history.ComputeStats(ctx, h.services.History, h.time.Now())
	if err != nil {
		h.tel.ReportBroken(report_api_history, err)
		writeError(w, r, "Failed to load history", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Record{}
	}

	writeJSON(w, http.StatusOK, historyResponse{
		Entries: entries,
		Stats:   stats,
		Pagination: pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + int64(limit) - 1) / int64(limit),
		},
	})
}
