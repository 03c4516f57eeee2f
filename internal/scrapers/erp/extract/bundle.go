package extract

import (
	"strings"
)

// BundleRow is one bundle of a challan as listed by the bundle table of the sewing input page.
// The ERP correlates bundle rows by position, so a []BundleRow must keep extraction order all the
// way to the submitted payload.
type BundleRow struct {
	Barcode     string
	BundleNo    string
	OrderID     string
	GmtsItemID  string
	CountryID   string
	ColorID     string
	SizeID      string
	ColorSizeID string
	Qty         string
	DtlsID      string
	CutNo       string
	IsRescan    string
}

// BundleTableOptions controls how absent or malformed values are read.
type BundleTableOptions struct {
	// Default replaces values that are absent (or rejected by Numeric).
	Default string
	// Numeric only accepts digit-only hidden values, cutNo is exempt.
	Numeric bool
}

var (
	// SaveBundleTable reads rows the way the save form expects them: missing ids become "0".
	SaveBundleTable = BundleTableOptions{Default: "0", Numeric: true}
	// DeleteBundleTable keeps values verbatim and leaves missing ones empty.
	DeleteBundleTable = BundleTableOptions{Default: ""}
)

const (
	bundleRowPrefix  = "tr_"
	bundleCellPrefix = "bundle_"
)

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (o BundleTableOptions) input(row Row, name string, numeric bool) string {
	value, ok := row.Input(name + "[]")
	if !ok || value == "" {
		return o.Default
	}
	if numeric && o.Numeric && !isDigits(value) {
		return o.Default
	}
	return value
}

// BundleTable reads every bundle row of a populate_bundle_data_update response.
func BundleTable(src string, opts BundleTableOptions) []BundleRow {
	rows := Rows(src, bundleRowPrefix)
	out := make([]BundleRow, 0, len(rows))
	for _, row := range rows {
		bundle := BundleRow{
			Barcode:     opts.Default,
			BundleNo:    opts.Default,
			OrderID:     opts.input(row, "orderId", true),
			GmtsItemID:  opts.input(row, "gmtsitemId", true),
			CountryID:   opts.input(row, "countryId", true),
			ColorID:     opts.input(row, "colorId", true),
			SizeID:      opts.input(row, "sizeId", true),
			ColorSizeID: opts.input(row, "colorSizeId", true),
			Qty:         opts.input(row, "qty", true),
			DtlsID:      opts.input(row, "dtlsId", true),
			CutNo:       opts.input(row, "cutNo", false),
			IsRescan:    opts.input(row, "isRescan", true),
		}
		if barcode, ok := row.Attr("title", isDigits); ok {
			bundle.Barcode = barcode
		}
		if bundleNo, ok := row.TextByID(bundleCellPrefix); ok {
			bundle.BundleNo = strings.TrimSpace(bundleNo)
		}
		out = append(out, bundle)
	}
	return out
}
