package erp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormKeepsInsertionOrder(t *testing.T) {
	form := NewForm().
		Set("action", "save_update_delete").
		Set("operation", "0").
		Set("txt_remarks", "").
		Set("cbo_company_name", "'2'").
		Set("bundleNo_1", "A 1")

	require.Equal(t, []string{"action", "operation", "txt_remarks", "cbo_company_name", "bundleNo_1"}, form.Keys())
	require.Equal(
		t,
		"action=save_update_delete&operation=0&txt_remarks=&cbo_company_name=%272%27&bundleNo_1=A+1",
		form.Encode(),
	)

	form.Set("operation", "2")
	require.Equal(t, 5, form.Len())
	require.Equal(t, "operation", form.Keys()[1])
	require.Equal(t, "2", form.Values().Get("operation"))
}
