package challan

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"challan-backend/internal/components/chrono"
	"challan-backend/internal/components/tasks"
	"challan-backend/internal/history"
	"challan-backend/internal/scrapers/erp"
	"challan-backend/internal/scrapers/erp/extract"
)

const (
	report_create_open          = "create.open-session"
	report_create_print_details = "create.print-details"
)

var createPage = erp.PathSewingInputPage + "?permission=1_1_2_1"

// values the popup script uses for "nothing selected"
var unsetValues = map[string]bool{
	"0":         true,
	"00":        true,
	"":          true,
	"undefined": true,
	"null":      true,
}

type CreateRequest struct {
	// ChallanNo is the cutting delivery challan to turn into a sewing input challan.
	ChallanNo string
	CompanyID string
	UserAgent string
}

type CreateResult struct {
	ChallanNo  string `json:"challan_no"`
	SystemID   string `json:"system_id"`
	Report1URL string `json:"report1_url"`
	Report2URL string `json:"report2_url"`
}

// popupHeader is what the cutting delivery popup tells about a challan.
type popupHeader struct {
	Source     string
	EmbCompany string
	Line       string
	Location   string
	Floor      string
}

func readPopupHeader(src string) popupHeader {
	value := func(id string) string {
		v, ok := extract.ScriptValue(src, id)
		if !ok {
			return "0"
		}
		return v
	}
	return popupHeader{
		Source:     value("cbo_source"),
		EmbCompany: value("cbo_emb_company"),
		Line:       value("cbo_line_no"),
		Location:   value("cbo_location"),
		Floor:      value("cbo_floor"),
	}
}

// validate lists every required field left unset in a single failure.
func (h popupHeader) validate() error {
	var missing []string
	check := func(label, value string) {
		if unsetValues[value] {
			missing = append(missing, label)
		}
	}
	check("Source", h.Source)
	check("Emb Company", h.EmbCompany)
	check("Line No", h.Line)
	check("Location", h.Location)

	if len(missing) > 0 {
		return fail(KindValidation, "Missing/Zero: "+strings.Join(missing, ", "))
	}
	return nil
}

// Create turns a cutting delivery challan into a sewing input challan. Once the ERP has accepted
// the save, the history record is written in the background and never affects the result.
func (s *Service) Create(ctx context.Context, req CreateRequest) (CreateResult, error) {
	ctx, cancel := s.deadline(ctx)
	defer cancel()

	res, err := s.create(ctx, req)
	return res, s.finish(ctx, "create", err)
}

func (s *Service) create(ctx context.Context, req CreateRequest) (CreateResult, error) {
	if req.ChallanNo == "" || req.CompanyID == "" {
		return CreateResult{}, fail(KindBadRequest, "Missing Data")
	}

	session, err := s.erp.Open(ctx, s.config.Credentials, req.UserAgent, erp.CreatePlan)
	if err != nil {
		s.tel.ReportBroken(report_create_open, err)
		return CreateResult{}, err
	}
	ajax := session.AjaxHeader(createPage)

	res, err := session.Get(ctx, controllerQuery(
		erp.PathCuttingDeliveryController, "create_challan_search_list_view",
		fmt.Sprintf("%s_0__%s_2__1_", req.ChallanNo, req.CompanyID),
	), ajax)
	if err != nil {
		return CreateResult{}, err
	}
	systemID, ok := extract.ChallanListMarker.First(res.Text())
	if !ok {
		return CreateResult{}, fail(KindNotFound, "Invalid Challan / No Data")
	}

	res, err = session.Post(
		ctx,
		controllerQuery(erp.PathCuttingDeliveryController, "populate_data_from_challan_popup", systemID),
		erp.NewForm().Set("rndval", strconv.FormatInt(s.time.Now().UnixMilli(), 10)),
		session.FormHeader(createPage),
	)
	if err != nil {
		return CreateResult{}, err
	}
	header := readPopupHeader(res.Text())
	err = header.validate()
	if err != nil {
		return CreateResult{}, err
	}

	res, err = session.Get(ctx, controllerQuery(erp.PathCuttingDeliveryController, "bundle_nos", systemID), ajax)
	if err != nil {
		return CreateResult{}, err
	}
	bundleIDs := extract.FirstSegment(res.Text())
	if bundleIDs == "" {
		return CreateResult{}, fail(KindNotFound, "Empty Bundle List")
	}

	res, err = session.Get(ctx, controllerQuery(
		erp.PathCuttingDeliveryController, "populate_bundle_data_update",
		fmt.Sprintf("%s**0**%s**%s**%s", bundleIDs, systemID, req.CompanyID, header.Line),
	), ajax)
	if err != nil {
		return CreateResult{}, err
	}
	bundles := extract.BundleTable(res.Text(), extract.SaveBundleTable)

	now := s.time.Now()
	issueDate := chrono.FormatERPDate(chrono.IssueDate(now))
	payload := BuildPayload(SaveHeader{
		Operation:     OperationSave,
		CompanyID:     req.CompanyID,
		Source:        header.Source,
		EmbCompany:    header.EmbCompany,
		Location:      header.Location,
		Floor:         header.Floor,
		IssueDate:     issueDate,
		LineNo:        header.Line,
		ReportingHour: chrono.FormatReportingHour(now),
		Quoted:        true,
	}, bundles)

	res, err = session.Post(ctx, erp.PathSewingInputController, payload, session.FormHeader(createPage))
	if err != nil {
		return CreateResult{}, err
	}
	outcome := InterpretSave(res.Text(), res.Status)
	if !outcome.Success {
		return CreateResult{}, fail(KindERPResult, outcome.Message)
	}

	issuePrint, challanPrint := ReportPaths(outcome.SystemID)
	result := CreateResult{
		ChallanNo:  outcome.ChallanNo,
		SystemID:   outcome.SystemID,
		Report1URL: session.URL(issuePrint),
		Report2URL: session.URL(challanPrint),
	}

	record := history.Record{
		ChallanNo:     result.ChallanNo,
		SystemID:      result.SystemID,
		CompanyID:     req.CompanyID,
		CompanyName:   s.CompanyName(req.CompanyID),
		LineNo:        header.Line,
		Date:          issueDate,
		TotalQuantity: TotalQuantity(bundles),
		Report1URL:    result.Report1URL,
		Report2URL:    result.Report2URL,
	}
	s.executor.Submit(tasks.Task{
		Name: "challan.record-created",
		Run: func(ctx context.Context) error {
			ctx, cancel := s.deadline(ctx)
			defer cancel()
			return s.recordCreated(ctx, session, challanPrint, record)
		},
	})

	return result, nil
}

// recordCreated fills the record with what the challan print page shows, keeping the values
// known from the workflow when the page cannot be read, and stores it.
func (s *Service) recordCreated(ctx context.Context, session *erp.Session, printPath string, record history.Record) error {
	res, err := session.Get(ctx, printPath, session.PageHeader(createPage))
	if err != nil {
		s.tel.ReportWarning(report_create_print_details, err, record.ChallanNo)
	} else {
		details := extract.ChallanPrint(res.Text())
		if line, ok := details[extract.FieldLine]; ok {
			record.LineNo = line
		}
		record.Color = details[extract.FieldColor]
		record.BookingNo = details[extract.FieldBookingNo]
		if qty, err := strconv.Atoi(details[extract.FieldTotalQty]); err == nil && qty > 0 {
			record.TotalQuantity = qty
		}
	}

	record.CreatedAt = s.time.Now()
	return s.history.Insert(ctx, record)
}
