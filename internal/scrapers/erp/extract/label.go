package extract

import (
	"strings"
	"unicode"
)

func colonOrSpace(r rune) bool {
	return r == ':' || unicode.IsSpace(r)
}

// LabelRule reads a value laid out as a label cell followed by a value cell, as print pages do:
// `<td><strong>Floor</strong></td><td>: 3rd</td>`.
type LabelRule struct {
	Field string
	Label string
}

func normalizeLabel(text string) string {
	text = strings.TrimRightFunc(text, colonOrSpace)
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// Find returns the trimmed text of the cell after the cell labeled r.Label. A value cell
// introduced by a colon wins over one that is not, so table headers that share a label name are
// not picked up by accident.
func (r LabelRule) Find(cells []Cell) (string, bool) {
	want := normalizeLabel(r.Label)
	fallback := -1
	for i := 0; i+1 < len(cells); i++ {
		if normalizeLabel(cells[i].Text) != want {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(cells[i+1].Text), ":") {
			return labelValue(cells[i+1])
		}
		if fallback < 0 {
			fallback = i + 1
		}
	}
	if fallback < 0 {
		return "", false
	}
	return labelValue(cells[fallback])
}

func labelValue(cell Cell) (string, bool) {
	value := strings.TrimSpace(strings.TrimLeftFunc(cell.Text, colonOrSpace))
	return value, value != ""
}

// Labels applies every rule, fields whose label is absent are left out of the result.
func Labels(cells []Cell, rules []LabelRule) map[string]string {
	out := make(map[string]string, len(rules))
	for _, r := range rules {
		if value, ok := r.Find(cells); ok {
			out[r.Field] = value
		}
	}
	return out
}
