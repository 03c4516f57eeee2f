package erp

// Paths of the ERP pages and controllers this client talks to, relative to the base url.
const (
	PathLogin       = "login.php"
	PathMenu        = "tools/valid_user_action.php"
	PathMenuSession = "includes/common_functions_for_js.php"

	PathSewingInputPage           = "production/bundle_wise_sewing_input.php"
	PathSewingInputController     = "production/requires/bundle_wise_sewing_input_controller.php"
	PathCuttingDeliveryController = "production/requires/bundle_wise_cutting_delevar_to_input_controller.php"

	PathSewingReportPage         = "production/reports/sewing_input_and_output_report.php"
	PathSewingReportController   = "production/reports/requires/sewing_input_and_output_report_controller.php"
	PathTrackingReportPage       = "production/reports/bundle_wise_sewing_tracking_report.php"
	PathTrackingReportController = "production/reports/requires/bundle_wise_sewing_tracking_report_controller.php"
)

const DefaultMenuID = "724"

// Plan describes the requests that prime a fresh ERP session before any data call works. The ERP
// page javascript makes exactly these requests, its session middleware depends on them.
type Plan struct {
	// Name is used in telemetry only.
	Name string
	// MainPage is fetched right after login when not empty.
	MainPage string
	// MenuReferer is the Referer of the menu activation request, MainPage is used when empty.
	MenuReferer string
	// MenuSession is the "<module>_<page>" suffix of the create_menu_session call, the call is
	// skipped when empty.
	MenuSession string
}

var (
	// CreatePlan primes a session for saving a sewing input challan.
	CreatePlan = Plan{
		Name:        "create",
		MenuReferer: PathSewingInputPage + "?permission=1_1_2_1",
		MenuSession: "7_406",
	}
	// DeletePlan primes a session for the delete-capable sewing input page.
	DeletePlan = Plan{
		Name:        "delete",
		MainPage:    PathSewingInputPage + "?permission=1_1_1_1",
		MenuSession: "7_405",
	}
	// TrackingPlan primes a session for the sewing tracking reports.
	TrackingPlan = Plan{
		Name:        "tracking",
		MenuReferer: PathTrackingReportPage + "?permission=1_1_1_1",
	}
	// ReportPlan primes a session for fetching printable challan reports.
	ReportPlan = Plan{
		Name:        "report",
		MenuReferer: PathSewingInputPage + "?permission=1_1_2_1",
	}
)
