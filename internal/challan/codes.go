package challan

import (
	"fmt"
	"strconv"
	"strings"

	"challan-backend/internal/scrapers/erp/extract"
)

const defaultChallanName = "Sewing Challan"

// SaveOutcome is the meaning of a save_update_delete response to a create.
type SaveOutcome struct {
	Success   bool
	SystemID  string
	ChallanNo string
	Message   string
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// InterpretSave maps the "**" delimited response of a create to its outcome:
// "0**<system id>**<challan no>" is a success, "20" means a bundle was already scanned and "10"
// a validation error. A response without any delimiter that is not a known code is reported with
// the http status.
func InterpretSave(text string, status int) SaveOutcome {
	text = strings.TrimSpace(text)
	parts := extract.Segments(text)
	code := strings.TrimSpace(parts[0])
	delimited := len(parts) > 1

	switch {
	case code == "0" && delimited:
		out := SaveOutcome{
			Success:   true,
			SystemID:  strings.TrimSpace(parts[1]),
			ChallanNo: defaultChallanName,
		}
		if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
			out.ChallanNo = strings.TrimSpace(parts[2])
		}
		return out
	case code == "20":
		return SaveOutcome{Message: "Bundle Already Scanned!"}
	case code == "10":
		return SaveOutcome{Message: "Validation Error (10)."}
	case delimited:
		return SaveOutcome{Message: "Server Error Code: " + truncate(code, 100)}
	default:
		return SaveOutcome{Message: "Save Failed: " + strconv.Itoa(status)}
	}
}

// DeleteOutcome is the meaning of a save_update_delete response to a delete.
type DeleteOutcome struct {
	Success bool
	Message string
}

// InterpretDelete maps the response of a delete by its leading code. "0" and "1x" (other than
// 10, 11 and 13) are the ERP's insert and update acknowledgements, they still count as success.
//
// TODO: confirm against the live ERP whether "0" and "1x" can actually be returned for
// operation=2 before treating them as anything other than success.
func InterpretDelete(text string) DeleteOutcome {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "2"):
		return DeleteOutcome{Success: true, Message: "Challan deleted successfully"}
	case strings.HasPrefix(text, "0"):
		return DeleteOutcome{Success: true, Message: "Data saved/inserted (unexpected for delete)"}
	case strings.HasPrefix(text, "1") &&
		!strings.HasPrefix(text, "10") &&
		!strings.HasPrefix(text, "11") &&
		!strings.HasPrefix(text, "13"):
		return DeleteOutcome{Success: true, Message: "Data updated (unexpected for delete)"}
	case strings.HasPrefix(text, "10**"):
		return DeleteOutcome{Message: "Permission error - insufficient privileges"}
	case strings.HasPrefix(text, "11"):
		return DeleteOutcome{Message: "Duplicate data detected"}
	case strings.HasPrefix(text, "13"):
		return DeleteOutcome{Message: "Already forwarded to next process - cannot delete"}
	default:
		return DeleteOutcome{Message: fmt.Sprintf("Server response: %s", truncate(text, 100))}
	}
}
