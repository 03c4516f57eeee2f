package challan

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"challan-backend/internal/scrapers/erp/extract"

	"github.com/stretchr/testify/require"
)

func bundles(n int) []extract.BundleRow {
	out := make([]extract.BundleRow, n)
	for i := range out {
		out[i] = extract.BundleRow{
			Barcode:  fmt.Sprintf("24%05d", i),
			BundleNo: fmt.Sprintf("B-%d", i),
			Qty:      fmt.Sprint(i + 1),
			CutNo:    "C-1",
		}
	}
	return out
}

func TestPayloadIndexesEveryBundleInOrder(t *testing.T) {
	for _, n := range []int{0, 1, 2, 17} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			rows := bundles(n)
			form := BuildPayload(SaveHeader{Operation: OperationSave}, rows)

			tot, _ := form.Get("tot_row")
			require.Equal(t, fmt.Sprint(n), tot)

			keys := form.Keys()
			headerLen := len(keys) - n*15
			require.Equal(t, 21, headerLen)

			for i, row := range rows {
				idx := i + 1
				first := headerLen + i*15
				require.Equal(t, fmt.Sprintf("bundleNo_%d", idx), keys[first])
				require.Equal(t, fmt.Sprintf("cutNumPrefixNo_%d", idx), keys[first+14])

				barcode, ok := form.Get(fmt.Sprintf("barcodeNo_%d", idx))
				require.True(t, ok)
				require.Equal(t, row.Barcode, barcode)
			}
			_, ok := form.Get(fmt.Sprintf("bundleNo_%d", n+1))
			require.False(t, ok)
		})
	}
}

func TestPayloadQuoting(t *testing.T) {
	header := SaveHeader{Operation: OperationSave, CompanyID: "2", LineNo: "7", Quoted: true}
	form := BuildPayload(header, nil)
	company, _ := form.Get("cbo_company_name")
	require.Equal(t, "'2'", company)
	remarks, _ := form.Get("txt_remarks")
	require.Equal(t, "''", remarks)
	operation, _ := form.Get("operation")
	require.Equal(t, "0", operation)

	header.Quoted = false
	header.Operation = OperationDelete
	form = BuildPayload(header, nil)
	company, _ = form.Get("cbo_company_name")
	require.Equal(t, "2", company)
	operation, _ = form.Get("operation")
	require.Equal(t, "2", operation)
}

func TestTotalQuantity(t *testing.T) {
	require.Equal(t, 6, TotalQuantity(bundles(3)))
	require.Equal(t, 5, TotalQuantity([]extract.BundleRow{{Qty: "5"}, {Qty: "x"}, {Qty: ""}}))
}

func TestReportPaths(t *testing.T) {
	issue, challanPrint := ReportPaths("55001")
	require.Equal(t, "production/requires/bundle_wise_sewing_input_controller.php?data=1*55001*3*%E2%9D%8F%20Bundle%20Wise%20Sewing%20Input*1*undefined*undefined*undefined&action=emblishment_issue_print_13", issue)
	require.Equal(t, "production/requires/bundle_wise_sewing_input_controller.php?data=1*55001*3*%E2%9D%8F%20Bundle%20Wise%20Sewing%20Input*undefined*undefined*undefined*1&action=sewing_input_challan_print_5", challanPrint)
}

func TestControllerQueryKeepsDataInOneParameter(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{name: "plain", data: "CUT-1_0__2_2__1_"},
		{name: "separators", data: "101,102**0**55001**2**7"},
		{name: "ampersand", data: "CH-1&action=delete_challan&x=1_0__2_2__1_"},
		{name: "fragment and percent", data: "CH-1#frag%41_0__2_2__1_"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			target := controllerQuery("controller.php", "bundle_nos", tc.data)
			path, rawQuery, ok := strings.Cut(target, "?")
			require.True(t, ok)
			require.Equal(t, "controller.php", path)
			require.NotContains(t, rawQuery, "#")

			query, err := url.ParseQuery(rawQuery)
			require.NoError(t, err)
			require.Equal(t, []string{tc.data}, query["data"])
			require.Equal(t, []string{"bundle_nos"}, query["action"])
			require.Len(t, query, 2)
		})
	}
}
