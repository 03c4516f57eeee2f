package challan

import (
	"fmt"
	"net/url"

	"challan-backend/internal/scrapers/erp"
)

// printTitle is "❏ Bundle Wise Sewing Input", percent-encoded the way the ERP page does it.
const printTitle = "%E2%9D%8F%20Bundle%20Wise%20Sewing%20Input"

// ReportPaths returns the paths (relative to the ERP base url) of the two printable reports of a
// challan: the embellishment issue print and the sewing input challan print.
func ReportPaths(systemID string) (issuePrint string, challanPrint string) {
	issuePrint = fmt.Sprintf(
		"%s?data=1*%s*3*%s*1*undefined*undefined*undefined&action=emblishment_issue_print_13",
		erp.PathSewingInputController, url.QueryEscape(systemID), printTitle,
	)
	challanPrint = fmt.Sprintf(
		"%s?data=1*%s*3*%s*undefined*undefined*undefined*1&action=sewing_input_challan_print_5",
		erp.PathSewingInputController, url.QueryEscape(systemID), printTitle,
	)
	return issuePrint, challanPrint
}

// controllerQuery builds "<controller>?data=<data>&action=<action>". data is escaped as a whole,
// the ERP decodes it back to its "*", "_" and "**" separated form.
func controllerQuery(controller, action, data string) string {
	return controller + "?" + erp.NewForm().Set("data", data).Set("action", action).Encode()
}
