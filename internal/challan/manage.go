package challan

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"challan-backend/internal/components/chrono"
	"challan-backend/internal/components/telemetry"
	"challan-backend/internal/scrapers/erp"
	"challan-backend/internal/scrapers/erp/extract"
)

const (
	report_manage_open           = "manage.open-session"
	report_manage_history_delete = "manage.history-delete"
)

const defaultLocation = "1"

var managePage = erp.PathSewingInputPage + "?permission=1_1_1_1"

type SearchRequest struct {
	ChallanNo  string
	CompanyID  string
	LocationID string
	UserAgent  string
}

type DeleteRequest struct {
	SystemID   string
	ChallanNo  string
	CompanyID  string
	LocationID string
	UserAgent  string
}

type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Raw is the beginning of the ERP response, kept for diagnosis.
	Raw string `json:"raw"`
}

func location(id string) string {
	if id == "" {
		return defaultLocation
	}
	return id
}

func (s *Service) openManageSession(ctx context.Context, userAgent string) (*erp.Session, error) {
	session, err := s.erp.Open(ctx, s.config.DeleteCredentials, userAgent, erp.DeletePlan)
	if err != nil {
		s.tel.ReportBroken(report_manage_open, err)
		return nil, err
	}
	return session, nil
}

// Search resolves a sewing input challan number to its ERP system id.
func (s *Service) Search(ctx context.Context, req SearchRequest) (string, error) {
	ctx, cancel := s.deadline(ctx)
	defer cancel()

	systemID, err := s.search(ctx, req)
	return systemID, s.finish(ctx, "search", err)
}

func (s *Service) search(ctx context.Context, req SearchRequest) (string, error) {
	if req.ChallanNo == "" || req.CompanyID == "" {
		return "", fail(KindBadRequest, "Challan number and company required")
	}

	session, err := s.openManageSession(ctx, req.UserAgent)
	if err != nil {
		return "", err
	}
	res, err := session.Get(ctx, controllerQuery(
		erp.PathSewingInputController, "create_challan_search_list_view",
		fmt.Sprintf("%s_0__%s_%s__1___", req.ChallanNo, req.CompanyID, location(req.LocationID)),
	), session.PageHeader(managePage))
	if err != nil {
		return "", err
	}

	systemID, ok := extract.ChallanSearchMarker.First(res.Text())
	if !ok {
		return "", fail(KindNotFound, "Challan not found in ERP system")
	}
	return systemID, nil
}

// Preview reads the challan print page. Fields the page does not show are left out.
func (s *Service) Preview(ctx context.Context, systemID, userAgent string) (map[string]string, error) {
	ctx, cancel := s.deadline(ctx)
	defer cancel()

	details, err := s.preview(ctx, systemID, userAgent)
	return details, s.finish(ctx, "preview", err)
}

func (s *Service) preview(ctx context.Context, systemID, userAgent string) (map[string]string, error) {
	if systemID == "" {
		return nil, fail(KindBadRequest, "System ID required")
	}

	session, err := s.openManageSession(ctx, userAgent)
	if err != nil {
		return nil, err
	}
	_, challanPrint := ReportPaths(systemID)
	res, err := session.Get(ctx, challanPrint, session.PageHeader(managePage))
	if err != nil {
		return nil, err
	}
	if res.Status < http.StatusOK || res.Status >= http.StatusMultipleChoices {
		return nil, fail(KindInternal, "Failed to fetch challan details")
	}
	return extract.ChallanPrint(res.Text()), nil
}

// Delete removes a sewing input challan from the ERP. An ERP refusal is not an error, it is
// reported through DeleteResult.Success and Message. On success the history record is removed,
// failing to do so does not change the result.
func (s *Service) Delete(ctx context.Context, req DeleteRequest) (DeleteResult, error) {
	ctx, cancel := s.deadline(ctx)
	defer cancel()

	res, err := s.delete(ctx, req)
	if err == nil && !res.Success {
		telemetry.RecordOutcome(ctx, "delete", string(KindERPResult))
		return res, nil
	}
	return res, s.finish(ctx, "delete", err)
}

func (s *Service) delete(ctx context.Context, req DeleteRequest) (DeleteResult, error) {
	if req.SystemID == "" || req.ChallanNo == "" || req.CompanyID == "" {
		return DeleteResult{}, fail(KindBadRequest, "System ID, challan number, and company required")
	}
	loc := location(req.LocationID)

	session, err := s.openManageSession(ctx, req.UserAgent)
	if err != nil {
		return DeleteResult{}, err
	}

	res, err := session.Get(ctx, controllerQuery(
		erp.PathSewingInputController, "bundle_nos", req.SystemID,
	), session.AjaxHeader(managePage))
	if err != nil {
		return DeleteResult{}, err
	}
	bundleIDs := extract.FirstSegment(res.Text())
	if bundleIDs == "" {
		return DeleteResult{}, fail(KindNotFound, "No bundles found for this challan")
	}

	res, err = session.Post(
		ctx,
		controllerQuery(erp.PathSewingInputController, "populate_data_from_challan_popup", req.SystemID),
		erp.NewForm().Set("rndval", strconv.FormatInt(s.time.Now().UnixMilli(), 10)),
		session.FormHeader(managePage),
	)
	if err != nil {
		return DeleteResult{}, err
	}
	values := extract.ScriptValues(res.Text(), "cbo_line_no", "cbo_floor", "txt_issue_date")
	lineNo, floor, issueDate := values["cbo_line_no"], values["cbo_floor"], values["txt_issue_date"]
	if lineNo == "" || floor == "" || issueDate == "" {
		return DeleteResult{}, fail(KindInternal, "Failed to retrieve challan header data")
	}

	res, err = session.Post(
		ctx,
		erp.PathSewingInputController+"?action=populate_bundle_data_update",
		erp.NewForm().Set("data", fmt.Sprintf("%s**0**%s**%s**%s", bundleIDs, req.SystemID, req.CompanyID, lineNo)),
		session.AjaxFormHeader(managePage),
	)
	if err != nil {
		return DeleteResult{}, err
	}
	bundles := extract.BundleTable(res.Text(), extract.DeleteBundleTable)
	if len(bundles) == 0 {
		return DeleteResult{}, fail(KindNotFound, "No bundle rows found in challan")
	}

	payload := BuildPayload(SaveHeader{
		Operation:     OperationDelete,
		CompanyID:     req.CompanyID,
		Source:        "1",
		EmbCompany:    req.CompanyID,
		Location:      loc,
		Floor:         floor,
		IssueDate:     issueDate,
		SystemID:      req.SystemID,
		ChallanNo:     req.ChallanNo,
		LineNo:        lineNo,
		ReportingHour: chrono.FormatReportingHour(s.time.Now()),
	}, bundles)

	res, err = session.Post(ctx, erp.PathSewingInputController, payload, session.FormHeader(managePage))
	if err != nil {
		return DeleteResult{}, err
	}
	text := res.Text()
	outcome := InterpretDelete(text)
	result := DeleteResult{
		Success: outcome.Success,
		Message: outcome.Message,
		Raw:     truncate(strings.TrimSpace(text), 50),
	}

	if outcome.Success {
		err := s.history.DeleteByChallanNo(ctx, req.ChallanNo)
		if err != nil {
			s.tel.ReportBroken(report_manage_history_delete, err, req.ChallanNo)
		}
	}
	return result, nil
}
