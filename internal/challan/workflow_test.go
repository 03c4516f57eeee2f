package challan

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"challan-backend/internal/components/chrono"
	"challan-backend/internal/components/tasks"
	"challan-backend/internal/components/telemetry"
	"challan-backend/internal/history"
	"challan-backend/internal/scrapers/erp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cuttingController = "/" + erp.PathCuttingDeliveryController
	sewingController  = "/" + erp.PathSewingInputController
)

func bundleRowsHtml(n int) string {
	var out strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&out, `<tr id="tr_%d"><td title="240000%d">%d</td><td id="bundle_%d">B-%d</td><td>`+
			`<input type="hidden" name="orderId[]" value="11"><input type="hidden" name="gmtsitemId[]" value="12">`+
			`<input type="hidden" name="countryId[]" value="13"><input type="hidden" name="colorId[]" value="14">`+
			`<input type="hidden" name="sizeId[]" value="15"><input type="hidden" name="colorSizeId[]" value="16">`+
			`<input type="hidden" name="qty[]" value="%d"><input type="hidden" name="dtlsId[]" value="17">`+
			`<input type="hidden" name="cutNo[]" value="C-%d"><input type="hidden" name="isRescan[]" value="0">`+
			`</td></tr>`, i, i, i, i, i, i*5, i)
	}
	return out.String()
}

const printPageHtml = `<table>
<tr><td><strong>Line </strong></td><td>: 31</td></tr>
</table>
<table><tbody>
<tr><td>1</td><td>ACME</td><td>JOB-1</td><td>ST-22</td><td><p>1500/315 B</p></td><td>NAVY</td><td width="50">10</td><td>10</td></tr>
<tr><td>Grand Total</td><td width="50">10</td><td>22</td><td>2</td></tr>
</tbody></table>`

// fakeERP plays the sewing input pages of the ERP, every response can be overridden per action.
type fakeERP struct {
	t         testing.TB
	mutex     sync.Mutex
	responses map[string]string
	saved     url.Values
	actions   []string
}

func newFakeERP(t testing.TB) *fakeERP {
	return &fakeERP{
		t: t,
		responses: map[string]string{
			"search":  `<tr onclick="js_set_value(55001)"><td>CUT-1</td></tr>`,
			"search2": `<tr onclick="js_set_value('55001','SW-1')"><td>SW-1</td></tr>`,
			"popup": `<script>$('#cbo_source').val('1');$('#cbo_emb_company').val('2');` +
				`$('#cbo_line_no').val('7');$('#cbo_location').val('3');$('#cbo_floor').val('4');` +
				`$('#txt_issue_date').val('23-05-2024');</script>`,
			"bundle_nos":   "101,102**0",
			"bundle_table": bundleRowsHtml(2),
			"save":         "0**55001**CH-9001",
			"print":        printPageHtml,
		},
	}
}

func (f *fakeERP) respond(w http.ResponseWriter, key string) {
	f.mutex.Lock()
	f.actions = append(f.actions, key)
	body := f.responses[key]
	f.mutex.Unlock()
	w.Write([]byte(body))
}

func (f *fakeERP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !assert.NoError(f.t, r.ParseForm()) {
		return
	}

	action := r.URL.Query().Get("action")
	switch {
	case r.URL.Path == "/login.php":
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "s"})
	case r.URL.Path == cuttingController && action == "create_challan_search_list_view":
		assert.Equal(f.t, "CUT-1_0__2_2__1_", r.URL.Query().Get("data"))
		f.respond(w, "search")
	case r.URL.Path == sewingController && action == "create_challan_search_list_view":
		assert.Equal(f.t, "SW-1_0__2_1__1___", r.URL.Query().Get("data"))
		f.respond(w, "search2")
	case action == "populate_data_from_challan_popup":
		assert.Equal(f.t, http.MethodPost, r.Method)
		assert.NotEmpty(f.t, r.PostForm.Get("rndval"))
		f.respond(w, "popup")
	case action == "bundle_nos":
		f.respond(w, "bundle_nos")
	case action == "populate_bundle_data_update":
		assert.Equal(f.t, "101,102**0**55001**2**7", r.Form.Get("data"))
		f.respond(w, "bundle_table")
	case action == "sewing_input_challan_print_5":
		f.respond(w, "print")
	case r.URL.Path == sewingController && r.PostForm.Get("action") == "save_update_delete":
		f.mutex.Lock()
		f.saved = r.PostForm
		f.mutex.Unlock()
		f.respond(w, "save")
	}
}

type testEnv struct {
	erp     *fakeERP
	service *Service
	store   *history.SQLStore
	tel     *telemetry.MemoryAPI
}

// 2024-05-24 is a Friday
var fridayMorning = time.Date(2024, time.May, 24, 10, 30, 0, 0, chrono.Dhaka())

func setup(t *testing.T) testEnv {
	fake := newFakeERP(t)
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	tel := &telemetry.MemoryAPI{}
	client, err := erp.NewClient(erp.Options{
		BaseURL:   srv.URL,
		Attempts:  2,
		RetryStep: time.Millisecond,
	}, tel)
	require.NoError(t, err)

	store, err := history.OpenSQL(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })

	service := NewService(
		client,
		store,
		tasks.InlineExecutor{Tel: tel},
		chrono.FixedTime{At: fridayMorning},
		Config{Timeout: 10 * time.Second},
		tel,
	)
	return testEnv{erp: fake, service: service, store: store, tel: tel}
}

func TestCreate(t *testing.T) {
	env := setup(t)

	res, err := env.service.Create(context.Background(), CreateRequest{ChallanNo: "CUT-1", CompanyID: "2"})
	require.NoError(t, err)
	require.Equal(t, "CH-9001", res.ChallanNo)
	require.Equal(t, "55001", res.SystemID)
	require.Contains(t, res.Report1URL, "action=emblishment_issue_print_13")
	require.True(t, strings.HasSuffix(res.Report2URL, "action=sewing_input_challan_print_5"))

	saved := env.erp.saved
	require.Equal(t, "0", saved.Get("operation"))
	require.Equal(t, "2", saved.Get("tot_row"))
	require.Equal(t, "'2'", saved.Get("cbo_company_name"))
	require.Equal(t, "'7'", saved.Get("cbo_line_no"))
	require.Equal(t, "'4'", saved.Get("cbo_floor"))
	require.Equal(t, "'23-May-2024'", saved.Get("txt_issue_date"))
	require.Equal(t, "'10:30'", saved.Get("txt_reporting_hour"))
	require.Equal(t, "B-1", saved.Get("bundleNo_1"))
	require.Equal(t, "B-2", saved.Get("bundleNo_2"))
	require.Equal(t, "2400002", saved.Get("barcodeNo_2"))
	require.Equal(t, "10", saved.Get("qty_2"))
	require.Equal(t, "C-2", saved.Get("cutNo_2"))
	require.Empty(t, saved.Get("bundleNo_3"))

	records, total, err := env.store.Find(context.Background(), history.Filter{}, 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	record := records[0]
	require.Equal(t, "CH-9001", record.ChallanNo)
	require.Equal(t, "Cotton Clothing", record.CompanyName)
	require.Equal(t, "31", record.LineNo)
	require.Equal(t, "NAVY", record.Color)
	require.Equal(t, "1500/315 B", record.BookingNo)
	require.Equal(t, 22, record.TotalQuantity)
	require.Equal(t, "23-May-2024", record.Date)
}

func TestCreateKeepsKnownValuesWhenPrintPageIsEmpty(t *testing.T) {
	env := setup(t)
	env.erp.responses["print"] = "<p>session expired</p>"

	_, err := env.service.Create(context.Background(), CreateRequest{ChallanNo: "CUT-1", CompanyID: "2"})
	require.NoError(t, err)

	records, _, err := env.store.Find(context.Background(), history.Filter{}, 1, 20)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "7", records[0].LineNo)
	require.Equal(t, 15, records[0].TotalQuantity)
	require.Empty(t, records[0].Color)
	require.Empty(t, records[0].BookingNo)
}

func TestCreateFailures(t *testing.T) {
	testCases := []struct {
		name     string
		override map[string]string
		kind     Kind
		message  string
	}{
		{
			name:     "unknown challan",
			override: map[string]string{"search": "<p>no data found</p>"},
			kind:     KindNotFound,
			message:  "Invalid Challan / No Data",
		},
		{
			name:     "missing header values",
			override: map[string]string{"popup": `$('#cbo_source').val('0');$('#cbo_line_no').val('7');$('#cbo_location').val('null');`},
			kind:     KindValidation,
			message:  "Missing/Zero: Source, Emb Company, Location",
		},
		{
			name:     "no bundles",
			override: map[string]string{"bundle_nos": "**0"},
			kind:     KindNotFound,
			message:  "Empty Bundle List",
		},
		{
			name:     "already scanned",
			override: map[string]string{"save": "20"},
			kind:     KindERPResult,
			message:  "Bundle Already Scanned!",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := setup(t)
			for k, v := range tc.override {
				env.erp.responses[k] = v
			}

			_, err := env.service.Create(context.Background(), CreateRequest{ChallanNo: "CUT-1", CompanyID: "2"})
			failure := AsFailure(err)
			require.NotNil(t, failure)
			require.Equal(t, tc.kind, failure.Kind)
			require.Equal(t, tc.message, failure.Message)

			_, total, err := env.store.Find(context.Background(), history.Filter{}, 1, 20)
			require.NoError(t, err)
			require.Zero(t, total)
		})
	}
}

func TestCreateRequiresInput(t *testing.T) {
	env := setup(t)
	_, err := env.service.Create(context.Background(), CreateRequest{ChallanNo: "CUT-1"})
	require.Equal(t, KindBadRequest, KindOf(err))
	require.Empty(t, env.erp.actions)
}

func TestCreateDownstreamUnavailable(t *testing.T) {
	tel := &telemetry.MemoryAPI{}
	client, err := erp.NewClient(erp.Options{
		BaseURL:   "http://127.0.0.1:1",
		Attempts:  2,
		RetryStep: time.Millisecond,
	}, tel)
	require.NoError(t, err)
	store, err := history.OpenSQL(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	defer store.Close(context.Background())

	service := NewService(client, store, tasks.InlineExecutor{Tel: tel}, chrono.StandardTime{}, Config{}, tel)
	_, err = service.Create(context.Background(), CreateRequest{ChallanNo: "CUT-1", CompanyID: "2"})
	require.Equal(t, KindDownstream, KindOf(err))
}

func TestSearchAndPreview(t *testing.T) {
	env := setup(t)

	systemID, err := env.service.Search(context.Background(), SearchRequest{ChallanNo: "SW-1", CompanyID: "2"})
	require.NoError(t, err)
	require.Equal(t, "55001", systemID)

	details, err := env.service.Preview(context.Background(), systemID, "")
	require.NoError(t, err)
	require.Equal(t, "31", details["line"])
	require.Equal(t, "ACME", details["buyer"])
	require.Equal(t, "22", details["total_qty"])
	require.Equal(t, "2", details["total_bundles"])

	env.erp.responses["search2"] = "<p>nothing</p>"
	_, err = env.service.Search(context.Background(), SearchRequest{ChallanNo: "SW-1", CompanyID: "2"})
	require.Equal(t, KindNotFound, KindOf(err))
	require.Equal(t, "Challan not found in ERP system", AsFailure(err).Message)
}

func TestDelete(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	require.NoError(t, env.store.Insert(ctx, history.Record{ChallanNo: "SW-1", CreatedAt: fridayMorning}))
	env.erp.responses["save"] = "13**insufficient"

	req := DeleteRequest{SystemID: "55001", ChallanNo: "SW-1", CompanyID: "2"}
	res, err := env.service.Delete(ctx, req)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "Already forwarded to next process - cannot delete", res.Message)
	require.Equal(t, "13**insufficient", res.Raw)

	saved := env.erp.saved
	require.Equal(t, "2", saved.Get("operation"))
	require.Equal(t, "2", saved.Get("cbo_company_name"))
	require.Equal(t, "1", saved.Get("cbo_source"))
	require.Equal(t, "1", saved.Get("cbo_location"))
	require.Equal(t, "4", saved.Get("cbo_floor"))
	require.Equal(t, "23-05-2024", saved.Get("txt_issue_date"))
	require.Equal(t, "55001", saved.Get("txt_system_id"))
	require.Equal(t, "SW-1", saved.Get("txt_challan_no"))
	require.Equal(t, "B-2", saved.Get("bundleNo_2"))

	_, total, err := env.store.Find(ctx, history.Filter{}, 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	env.erp.responses["save"] = "2**55001"
	res, err = env.service.Delete(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "Challan deleted successfully", res.Message)

	_, total, err = env.store.Find(ctx, history.Filter{}, 1, 20)
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestDeleteFailures(t *testing.T) {
	testCases := []struct {
		name     string
		override map[string]string
		kind     Kind
		message  string
	}{
		{
			name:     "no bundles",
			override: map[string]string{"bundle_nos": ""},
			kind:     KindNotFound,
			message:  "No bundles found for this challan",
		},
		{
			name:     "missing header",
			override: map[string]string{"popup": `$('#cbo_line_no').val('7');$('#cbo_floor').val('4');`},
			kind:     KindInternal,
			message:  "Failed to retrieve challan header data",
		},
		{
			name:     "no rows",
			override: map[string]string{"bundle_table": "<tr><td>nothing</td></tr>"},
			kind:     KindNotFound,
			message:  "No bundle rows found in challan",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := setup(t)
			for k, v := range tc.override {
				env.erp.responses[k] = v
			}
			_, err := env.service.Delete(context.Background(), DeleteRequest{SystemID: "55001", ChallanNo: "SW-1", CompanyID: "2"})
			failure := AsFailure(err)
			require.Equal(t, tc.kind, failure.Kind)
			require.Equal(t, tc.message, failure.Message)
			require.NotContains(t, env.erp.actions, "save")
		})
	}
}
