package extract

import (
	"regexp"
	"strings"
	"sync"
)

var scriptPatterns sync.Map

func scriptPattern(id string) *regexp.Regexp {
	if cached, ok := scriptPatterns.Load(id); ok {
		return cached.(*regexp.Regexp)
	}
	pattern := regexp.MustCompile(
		`\$\(\s*['"]#` + regexp.QuoteMeta(id) + `['"]\s*\)\s*\.val\(\s*['"]?([^'")\s]*)['"]?\s*\)`,
	)
	scriptPatterns.Store(id, pattern)
	return pattern
}

// ScriptValue finds the value the ERP popup script assigns to a form control, as in
// `$('#cbo_line_no').val('7')`. Only the exact id matches, `floor` does not match `#cbo_floor`.
// An empty assignment counts as absent.
func ScriptValue(src, id string) (string, bool) {
	match := scriptPattern(id).FindStringSubmatch(src)
	if match == nil {
		return "", false
	}
	value := strings.TrimSpace(match[1])
	return value, value != ""
}

// ScriptValues runs ScriptValue for every id, absent ids are left out of the result.
func ScriptValues(src string, ids ...string) map[string]string {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if value, ok := ScriptValue(src, id); ok {
			out[id] = value
		}
	}
	return out
}
