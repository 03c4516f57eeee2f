package challan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterpretSave(t *testing.T) {
	testCases := []struct {
		text     string
		status   int
		expected SaveOutcome
	}{
		{"0**55001**CH-9001", 200, SaveOutcome{Success: true, SystemID: "55001", ChallanNo: "CH-9001"}},
		{" 0**55001 ", 200, SaveOutcome{Success: true, SystemID: "55001", ChallanNo: "Sewing Challan"}},
		{"20", 200, SaveOutcome{Message: "Bundle Already Scanned!"}},
		{"20**1", 200, SaveOutcome{Message: "Bundle Already Scanned!"}},
		{"10**", 200, SaveOutcome{Message: "Validation Error (10)."}},
		{"35**whatever", 200, SaveOutcome{Message: "Server Error Code: 35"}},
		{"<html>login</html>", 302, SaveOutcome{Message: "Save Failed: 302"}},
		{"0", 200, SaveOutcome{Message: "Save Failed: 200"}},
	}
	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			require.Equal(t, tc.expected, InterpretSave(tc.text, tc.status))
		})
	}
}

func TestInterpretDelete(t *testing.T) {
	testCases := []struct {
		text    string
		success bool
		message string
	}{
		{"2**55001", true, "Challan deleted successfully"},
		{"0**1", true, "Data saved/inserted (unexpected for delete)"},
		{"1**1", true, "Data updated (unexpected for delete)"},
		{"12", true, "Data updated (unexpected for delete)"},
		{"10**", false, "Permission error - insufficient privileges"},
		{"11**", false, "Duplicate data detected"},
		{"13**insufficient", false, "Already forwarded to next process - cannot delete"},
		{"10", false, "Server response: 10"},
		{"", false, "Server response: "},
	}
	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			outcome := InterpretDelete(tc.text)
			require.Equal(t, tc.success, outcome.Success)
			require.Equal(t, tc.message, outcome.Message)
		})
	}

	long := "9" + strings.Repeat("x", 300)
	require.Equal(t, "Server response: "+long[:100], InterpretDelete(long).Message)
}
