// Package barcode looks up the bundles of a job in the sewing tracking report: an internal
// reference resolves to a job and its colors, and the per-color report lists every bundle with
// its cutting QC and sewing scan state.
package barcode

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"challan-backend/internal/challan"
	"challan-backend/internal/components/assert"
	"challan-backend/internal/components/telemetry"
	"challan-backend/internal/scrapers/erp"
	"challan-backend/internal/scrapers/erp/extract"
)

const (
	report_search_open = "search.open-session"
	report_search_job  = "search.job-number"
	report_report_open = "report.open-session"
	report_report_rows = "report.rows"
)

const reportTitle = "❏ Sewing Input and Output Report"

var trackingPage = erp.PathTrackingReportPage + "?permission=1_1_1_1"

type ScanChoice string

const (
	Scanned   ScanChoice = "scanned"
	Unscanned ScanChoice = "unscanned"
)

// ParseScanChoice reads anything but "scanned" as Unscanned.
func ParseScanChoice(s string) ScanChoice {
	if strings.EqualFold(strings.TrimSpace(s), string(Scanned)) {
		return Scanned
	}
	return Unscanned
}

func (c ScanChoice) flag() string {
	if c == Scanned {
		return "yes"
	}
	return "no"
}

type Color struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SearchResult struct {
	ExtractedNumber string  `json:"extractedNumber"`
	InternalID      string  `json:"internalId"`
	FullJobNo       string  `json:"fullCclbdNo"`
	Colors          []Color `json:"colors"`
}

type ReportRequest struct {
	CompanyID  string
	FullJobNo  string
	InternalID string
	// ColorIDs are reported one after the other, rows keep this order.
	ColorIDs  []string
	Scan      ScanChoice
	UserAgent string
}

type ReportRow struct {
	Barcode      string `json:"barcode"`
	CuttingNo    string `json:"cuttingNo"`
	BundleNo     string `json:"bundleNo"`
	Size         string `json:"size"`
	Qty          string `json:"qty"`
	InputDate    string `json:"inputDate"`
	ChallanNo    string `json:"challanNo"`
	LineNo       string `json:"lineNo"`
	SewingOutput string `json:"sewingOutput"`

	cuttingQC  string
	sewingScan string
}

// Include tells whether the row belongs in a report for the given scan choice: only bundles that
// passed cutting QC and whose sewing scan state matches.
func (r ReportRow) Include(scan ScanChoice) bool {
	return strings.EqualFold(r.cuttingQC, "yes") &&
		strings.EqualFold(r.sewingScan, scan.flag())
}

type Config struct {
	Credentials erp.Credentials
	Timeout     time.Duration
}

type Service struct {
	erp    *erp.Client
	config Config
	tel    telemetry.API
}

func NewService(client *erp.Client, config Config, tel telemetry.API) *Service {
	assert.NotNil(client, "client")
	assert.NotNil(tel, "tel")

	if config.Timeout <= 0 {
		config.Timeout = challan.DefaultTimeout
	}
	return &Service{
		erp:    client,
		config: config,
		tel:    telemetry.NewScopedAPI("barcode", tel),
	}
}

func finish(ctx context.Context, workflow string, err error) error {
	if err == nil {
		telemetry.RecordOutcome(ctx, workflow, "success")
		return nil
	}
	failure := challan.AsFailure(err)
	telemetry.RecordOutcome(ctx, workflow, string(failure.Kind))
	return failure
}

// maxJobDigits bounds the significant digits of a job number, the ERP issues far fewer.
const maxJobDigits = 9

var errNoJobNumber = errors.New("no job number")

// jobNumber is the numeric suffix of a full job number ("CCL-24-000123" is 123), leading digits
// of the last dash separated segment.
func jobNumber(fullJobNo string) (string, error) {
	last := fullJobNo[strings.LastIndex(fullJobNo, "-")+1:]
	last = strings.TrimSpace(last)
	end := 0
	for end < len(last) && last[end] >= '0' && last[end] <= '9' {
		end++
	}
	digits := last[:end]
	if digits == "" {
		return "", errNoJobNumber
	}
	if len(strings.TrimLeft(digits, "0")) > maxJobDigits {
		return "", fmt.Errorf("job number %q has more than %d significant digits", digits, maxJobDigits)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(n), nil
}

// Search resolves an internal reference to its job and lists the colors of the job.
func (s *Service) Search(ctx context.Context, intRef, companyID, userAgent string) (SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	res, err := s.search(ctx, intRef, companyID, userAgent)
	return res, finish(ctx, "barcode.search", err)
}

func (s *Service) search(ctx context.Context, intRef, companyID, userAgent string) (SearchResult, error) {
	if intRef == "" || companyID == "" {
		return SearchResult{}, challan.NewFailure(challan.KindBadRequest, "Missing Int. Ref. or Company")
	}

	session, err := s.erp.Open(ctx, s.config.Credentials, userAgent, erp.TrackingPlan)
	if err != nil {
		s.tel.ReportBroken(report_search_open, err)
		return SearchResult{}, err
	}

	form := erp.NewForm().
		Set("action", "generate_report").
		Set("cbo_company_name", companyID).
		Set("hidden_job_id", "").
		Set("hidden_color_id", "").
		Set("cbo_year", "0").
		Set("cbo_wo_company_name", "0").
		Set("cbo_location_name", "0").
		Set("hidden_floor_id", "").
		Set("hidden_line_id", "").
		Set("txt_int_ref", intRef).
		Set("type", "1").
		Set("report_title", reportTitle)
	res, err := session.Post(
		ctx,
		erp.PathSewingReportController,
		form,
		session.FormHeader(erp.PathSewingReportPage+"?permission=1_1_1_1"),
	)
	if err != nil {
		return SearchResult{}, err
	}
	fullJobNo, ok := extract.JobPopupMarker.First(res.Text())
	if !ok {
		return SearchResult{}, challan.NewFailure(challan.KindNotFound, "No Job Number found for this Int. Ref.")
	}
	number, err := jobNumber(fullJobNo)
	if errors.Is(err, errNoJobNumber) {
		return SearchResult{}, challan.NewFailure(challan.KindNotFound, "No Job Number found for this Int. Ref.")
	}
	if err != nil {
		s.tel.ReportBroken(report_search_job, err, fullJobNo)
		return SearchResult{}, &challan.Failure{
			Kind:    challan.KindInternal,
			Message: "Unexpected job number format in ERP response",
			Err:     err,
		}
	}

	res, err = session.Get(
		ctx,
		erp.PathTrackingReportController+"?"+erp.NewForm().
			Set("data", companyID+"**0**1**"+number+"**0").
			Set("action", "search_list_view").
			Encode(),
		session.PageHeader(erp.PathTrackingReportController+"?action=search_by_action&lc_company="+url.QueryEscape(companyID)+"&buyer=0&permission=1_1_1_1"),
	)
	if err != nil {
		return SearchResult{}, err
	}
	groups, ok := extract.TrackingMarker.Find(res.Text())
	if !ok {
		return SearchResult{}, challan.NewFailure(challan.KindNotFound, "Tracking data not found in response.")
	}
	result := SearchResult{
		ExtractedNumber: number,
		InternalID:      groups[0],
		FullJobNo:       groups[1],
	}

	res, err = session.Get(
		ctx,
		erp.PathTrackingReportController+"?"+erp.NewForm().
			Set("action", "color_popup").
			Set("txt_job_no", result.FullJobNo).
			Set("txt_job_id", result.InternalID).
			Set("permission", "1_1_1_1").
			Encode(),
		session.PageHeader(trackingPage).Merge(erp.Header{
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Upgrade-Insecure-Requests": "1",
		}),
	)
	if err != nil {
		return SearchResult{}, err
	}
	result.Colors = Colors(res.Text())
	if len(result.Colors) == 0 {
		return SearchResult{}, challan.NewFailure(challan.KindNotFound, "No color data found.")
	}
	return result, nil
}

// Colors reads the rows of a color popup. Rows without a color marker or with too few cells
// are skipped.
func Colors(src string) []Color {
	var out []Color
	for _, row := range extract.Rows(src, "tr_") {
		id, ok := extract.ColorMarker.First(row.Raw)
		if !ok {
			continue
		}
		cells, ok := extract.ColorPopupLayout.Apply(row)
		if !ok {
			continue
		}
		out = append(out, Color{ID: id, Name: cells[extract.ColumnColorName]})
	}
	return out
}

// ReportRows reads every row of a tracking report, rows with too few cells are skipped.
func ReportRows(src string) []ReportRow {
	var out []ReportRow
	for _, row := range extract.Rows(src, "tr_") {
		cells, ok := extract.TrackingReportLayout.Apply(row)
		if !ok {
			continue
		}
		out = append(out, ReportRow{
			Barcode:      cells[extract.ColumnBarcode],
			CuttingNo:    cells[extract.ColumnCuttingNo],
			BundleNo:     cells[extract.ColumnBundleNo],
			Size:         cells[extract.ColumnSize],
			Qty:          cells[extract.ColumnQty],
			InputDate:    cells[extract.ColumnInputDate],
			ChallanNo:    cells[extract.ColumnChallanNo],
			LineNo:       cells[extract.ColumnLineNo],
			SewingOutput: cells[extract.ColumnSewingOutput],
			cuttingQC:    cells[extract.ColumnCuttingQC],
			sewingScan:   cells[extract.ColumnSewingScan],
		})
	}
	return out
}

// Filter keeps the rows included for scan, in order.
func Filter(rows []ReportRow, scan ScanChoice) []ReportRow {
	out := make([]ReportRow, 0, len(rows))
	for _, r := range rows {
		if r.Include(scan) {
			out = append(out, r)
		}
	}
	return out
}

// Report generates the tracking report of every requested color in turn, each with its own
// session, and concatenates the included rows.
func (s *Service) Report(ctx context.Context, req ReportRequest) ([]ReportRow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	rows, err := s.report(ctx, req)
	return rows, finish(ctx, "barcode.report", err)
}

func (s *Service) report(ctx context.Context, req ReportRequest) ([]ReportRow, error) {
	if req.CompanyID == "" || req.FullJobNo == "" || req.InternalID == "" || len(req.ColorIDs) == 0 {
		return nil, challan.NewFailure(challan.KindBadRequest, "Missing required parameters")
	}

	out := []ReportRow{}
	for _, colorID := range req.ColorIDs {
		rows, err := s.colorReport(ctx, req, colorID)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (s *Service) colorReport(ctx context.Context, req ReportRequest, colorID string) ([]ReportRow, error) {
	session, err := s.erp.Open(ctx, s.config.Credentials, req.UserAgent, erp.TrackingPlan)
	if err != nil {
		s.tel.ReportBroken(report_report_open, err)
		return nil, err
	}

	form := erp.NewForm().
		Set("action", "report_generate").
		Set("cbo_lc_company_id", req.CompanyID).
		Set("cbo_working_company_id", "0").
		Set("cbo_location_id", "0").
		Set("cbo_floor_id", "0").
		Set("cbo_buyer_id", "0").
		Set("txt_job_no", req.FullJobNo).
		Set("txt_file_no", "").
		Set("txt_int_ref", "").
		Set("color_id", colorID).
		Set("txt_cutting_no", "").
		Set("txt_bunle_no", "").
		Set("txt_date_from", "").
		Set("txt_date_to", "").
		Set("txt_job_id", req.InternalID).
		Set("txt_color_name", colorID).
		Set("type", "2")
	res, err := session.Post(ctx, erp.PathTrackingReportController, form, session.FormHeader(trackingPage))
	if err != nil {
		return nil, err
	}

	rows := ReportRows(res.Text())
	s.tel.ReportDebug(report_report_rows, colorID, len(rows))
	return Filter(rows, req.Scan), nil
}
