package extract

import (
	"strings"
)

// Fields read from the sewing input challan print page.
const (
	FieldChallanNo     = "challan_no"
	FieldInputDate     = "input_date"
	FieldSewingCompany = "sewing_company"
	FieldFloor         = "floor"
	FieldLine          = "line"
	FieldLocation      = "location"
	FieldSewingSource  = "sewing_source"
	FieldBuyer         = "buyer"
	FieldStyleRef      = "style_ref"
	FieldBookingNo     = "booking_no"
	FieldColor         = "color"
	FieldTotalQty      = "total_qty"
	FieldTotalBundles  = "total_bundles"
)

var PrintLabels = []LabelRule{
	{Field: FieldChallanNo, Label: "Challan No"},
	{Field: FieldInputDate, Label: "Input Date"},
	{Field: FieldSewingCompany, Label: "Sewing Company"},
	{Field: FieldFloor, Label: "Floor"},
	{Field: FieldLine, Label: "Line"},
	{Field: FieldLocation, Label: "Location"},
	{Field: FieldSewingSource, Label: "Sewing Source"},
}

// positions in the first body row of the print page
var printBodyColumns = map[string]int{
	FieldBuyer:     1,
	FieldStyleRef:  3,
	FieldBookingNo: 4,
}

const sizeCellWidth = "50"

func isSizeCell(c Cell) bool {
	return strings.TrimSpace(c.Attrs["width"]) == sizeCellWidth
}

// printColor is the text of the cell right before the first size cell, the size breakdown of a
// challan always follows its color.
func printColor(cells []Cell) (string, bool) {
	for i := 0; i+1 < len(cells); i++ {
		if !isSizeCell(cells[i+1]) || len([]rune(cells[i].Text)) < 2 {
			continue
		}
		if isDigits(cells[i].Text) {
			return "", false
		}
		return cells[i].Text, true
	}
	return "", false
}

// printTotals reads the quantity and bundle count of the "Grand Total" line: a run of size
// cells followed by the total quantity and the bundle count.
func printTotals(cells []Cell) (qty string, bundles string) {
	start := -1
	for i, c := range cells {
		if strings.Contains(c.Text, "Grand Total") {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return "", ""
	}

	for j := start; j < len(cells); j++ {
		if !isSizeCell(cells[j]) {
			continue
		}
		k := j
		for k < len(cells) && isSizeCell(cells[k]) {
			k++
		}
		if k < len(cells) && isDigits(cells[k].Text) {
			qty = cells[k].Text
			if k+1 < len(cells) && isDigits(cells[k+1].Text) {
				bundles = cells[k+1].Text
			}
			return qty, bundles
		}
		j = k
	}
	return "", ""
}

// ChallanPrint reads the sewing input challan print page. Every field is optional, fields that
// cannot be found are left out.
func ChallanPrint(src string) map[string]string {
	cells := Cells(src)
	out := Labels(cells, PrintLabels)

	if row, ok := FirstBodyRow(src); ok {
		for field, idx := range printBodyColumns {
			if value := row.Cell(idx); value != "" {
				out[field] = value
			}
		}
	}
	if color, ok := printColor(cells); ok {
		out[FieldColor] = color
	}
	qty, bundles := printTotals(cells)
	if qty != "" {
		out[FieldTotalQty] = qty
	}
	if bundles != "" {
		out[FieldTotalBundles] = bundles
	}
	return out
}
