package extract

// Layout maps cell positions of one ERP report template to field names. Positions are tied to
// the exact template the ERP renders and have to be checked against captured pages whenever the
// ERP is upgraded.
type Layout struct {
	Name string
	// MinCells is the number of cells below which a row is skipped.
	MinCells int
	Columns  map[string]int
}

// Apply maps the cells of row, ok is false when the row is too short.
func (l Layout) Apply(row Row) (map[string]string, bool) {
	if len(row.Cells) < l.MinCells {
		return nil, false
	}
	out := make(map[string]string, len(l.Columns))
	for name, idx := range l.Columns {
		out[name] = row.Cell(idx)
	}
	return out, true
}

const (
	ColumnColorName = "color_name"

	ColumnBarcode      = "barcode"
	ColumnCuttingNo    = "cutting_no"
	ColumnSize         = "size"
	ColumnBundleNo     = "bundle_no"
	ColumnCuttingQC    = "cutting_qc"
	ColumnSewingScan   = "sewing_scan"
	ColumnInputDate    = "input_date"
	ColumnChallanNo    = "challan_no"
	ColumnSewingOutput = "sewing_output"
	ColumnLineNo       = "line_no"
	ColumnQty          = "qty"
)

var (
	// ColorPopupLayout is the color_popup list of the sewing tracking report.
	ColorPopupLayout = Layout{
		Name:     "tracking.color_popup",
		MinCells: 4,
		Columns: map[string]int{
			ColumnColorName: 3,
		},
	}

	// TrackingReportLayout is the type=2 report_generate table of the bundle wise sewing
	// tracking report.
	TrackingReportLayout = Layout{
		Name:     "tracking.report_generate",
		MinCells: 24,
		Columns: map[string]int{
			ColumnBarcode:      1,
			ColumnCuttingNo:    2,
			ColumnSize:         3,
			ColumnBundleNo:     4,
			ColumnCuttingQC:    5,
			ColumnSewingScan:   15,
			ColumnInputDate:    16,
			ColumnChallanNo:    17,
			ColumnSewingOutput: 18,
			ColumnLineNo:       21,
			ColumnQty:          22,
		},
	}
)
