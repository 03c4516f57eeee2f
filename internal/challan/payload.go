package challan

import (
	"fmt"
	"strconv"

	"challan-backend/internal/scrapers/erp"
	"challan-backend/internal/scrapers/erp/extract"
)

const (
	OperationSave   = "0"
	OperationDelete = "2"
)

// SaveHeader holds the header fields of a save_update_delete submission.
type SaveHeader struct {
	Operation     string
	CompanyID     string
	Source        string
	EmbCompany    string
	Location      string
	Floor         string
	IssueDate     string
	SystemID      string
	ChallanNo     string
	LineNo        string
	ReportingHour string
	// Quoted wraps header values in single quotes the way the sewing input page does when it
	// saves a new challan.
	Quoted bool
}

// BuildPayload renders the header followed by one indexed field set per bundle (1..N), in the
// order the bundles were extracted.
func BuildPayload(h SaveHeader, bundles []extract.BundleRow) *erp.Form {
	value := func(v string) string {
		if h.Quoted {
			return "'" + v + "'"
		}
		return v
	}

	form := erp.NewForm().
		Set("action", "save_update_delete").
		Set("operation", h.Operation).
		Set("tot_row", strconv.Itoa(len(bundles))).
		Set("garments_nature", value("2")).
		Set("cbo_company_name", value(h.CompanyID)).
		Set("sewing_production_variable", value("3")).
		Set("cbo_source", value(h.Source)).
		Set("cbo_emb_company", value(h.EmbCompany)).
		Set("cbo_location", value(h.Location)).
		Set("cbo_floor", value(h.Floor)).
		Set("txt_issue_date", value(h.IssueDate)).
		Set("txt_organic", value("")).
		Set("txt_system_id", value(h.SystemID)).
		Set("delivery_basis", value("3")).
		Set("txt_challan_no", value(h.ChallanNo)).
		Set("cbo_line_no", value(h.LineNo)).
		Set("cbo_shift_name", value("0")).
		Set("cbo_working_company_name", value("0")).
		Set("cbo_working_location", value("0")).
		Set("txt_remarks", value("")).
		Set("txt_reporting_hour", value(h.ReportingHour))

	for i, b := range bundles {
		idx := i + 1
		field := func(name, v string) {
			form.Set(fmt.Sprintf("%s_%d", name, idx), v)
		}
		field("bundleNo", b.BundleNo)
		field("orderId", b.OrderID)
		field("gmtsitemId", b.GmtsItemID)
		field("countryId", b.CountryID)
		field("colorId", b.ColorID)
		field("sizeId", b.SizeID)
		field("inseamId", "0")
		field("colorSizeId", b.ColorSizeID)
		field("qty", b.Qty)
		field("dtlsId", b.DtlsID)
		field("cutNo", b.CutNo)
		field("isRescan", b.IsRescan)
		field("barcodeNo", b.Barcode)
		field("cutMstIdNo", "0")
		field("cutNumPrefixNo", "0")
	}
	return form
}

// TotalQuantity sums the qty of every bundle, unparsable quantities count as 0.
func TotalQuantity(bundles []extract.BundleRow) int {
	total := 0
	for _, b := range bundles {
		n, err := strconv.Atoi(b.Qty)
		if err == nil {
			total += n
		}
	}
	return total
}
