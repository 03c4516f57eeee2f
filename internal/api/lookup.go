package api

import (
	"net/http"

	"challan-backend/internal/barcode"
	"challan-backend/internal/security"
)

const (
	report_api_barcode = "barcode"
	report_api_report  = "report"
)

type barcodeRequest struct {
	Action     string `json:"action"`
	IntRef     string `json:"int_ref"`
	CompanyID  string `json:"company_id"`
	FullJobNo  string `json:"full_cclbd_no"`
	InternalID string `json:"internal_id"`
	ColorIDs   string `json:"color_ids"`
	// ColorID is the single color form older pages send.
	ColorID    string `json:"color_id"`
	ScanChoice string `json:"scan_choice"`
}

type barcodeSearchResponse struct {
	Success bool `json:"success"`
	barcode.SearchResult
}

type barcodeReportResponse struct {
	Success bool                `json:"success"`
	Data    []barcode.ReportRow `json:"data"`
	Total   int                 `json:"total"`
}

func (h *Handler) barcode(w http.ResponseWriter, r *http.Request) {
	var body barcodeRequest
	if status, err := decodeJSON(r, &body); err != nil {
		writeError(w, r, "Invalid request format", status)
		return
	}
	companyID := security.Digits(security.Sanitize(body.CompanyID, 5))

	switch body.Action {
	case "search":
		res, err := h.services.Barcodes.Search(
			r.Context(),
			security.Sanitize(body.IntRef, 50),
			companyID,
			r.UserAgent(),
		)
		if err != nil {
			h.writeFailure(w, r, report_api_barcode, err)
			return
		}
		writeJSON(w, http.StatusOK, barcodeSearchResponse{Success: true, SearchResult: res})
	case "report":
		colors := body.ColorIDs
		if colors == "" {
			colors = body.ColorID
		}
		rows, err := h.services.Barcodes.Report(r.Context(), barcode.ReportRequest{
			CompanyID:  companyID,
			FullJobNo:  security.Sanitize(body.FullJobNo, 100),
			InternalID: security.Sanitize(body.InternalID, 50),
			ColorIDs:   security.ColorIDs(security.Sanitize(colors, 200)),
			Scan:       barcode.ParseScanChoice(body.ScanChoice),
			UserAgent:  r.UserAgent(),
		})
		if err != nil {
			h.writeFailure(w, r, report_api_barcode, err)
			return
		}
		writeJSON(w, http.StatusOK, barcodeReportResponse{Success: true, Data: rows, Total: len(rows)})
	default:
		writeError(w, r, "Unknown action", http.StatusBadRequest)
	}
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	report, err := h.services.Reports.Fetch(r.Context(), r.URL.Query().Get("url"), r.UserAgent())
	if err != nil {
		h.writeFailure(w, r, report_api_report, err)
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report.Body)
}
