package extract

import (
	"regexp"
	"strings"
)

// Marker is a javascript call the ERP embeds in its markup to hand ids to its own popups, like
// `js_set_value(123)`. Markers are the only way to learn the ids, the ERP has no api.
type Marker struct {
	Name    string
	pattern *regexp.Regexp
}

func NewMarker(name, expr string) Marker {
	return Marker{Name: name, pattern: regexp.MustCompile(expr)}
}

// Find returns the capture groups of the first occurrence of the marker.
func (m Marker) Find(src string) ([]string, bool) {
	match := m.pattern.FindStringSubmatch(src)
	if match == nil {
		return nil, false
	}
	return match[1:], true
}

// First returns the first capture group of the first occurrence of the marker.
func (m Marker) First(src string) (string, bool) {
	groups, ok := m.Find(src)
	if !ok || len(groups) == 0 {
		return "", false
	}
	return groups[0], true
}

var (
	// ChallanListMarker carries the system id in the create-side challan search list.
	ChallanListMarker = NewMarker("challan-list", `js_set_value\((\d+)\)`)
	// ChallanSearchMarker carries the (quoted) system id in the delete-side challan search.
	ChallanSearchMarker = NewMarker("challan-search", `js_set_value\('(\d+)'`)
	// JobPopupMarker carries the full job number in the sewing input/output report.
	JobPopupMarker = NewMarker("job-popup", `open_job_qty_popup\('[^']+','([^']+)'\)`)
	// TrackingMarker carries "<x>_<internal id>_<full job no>" in the tracking search list.
	TrackingMarker = NewMarker("tracking", `js_set_value\('[^_]+_([^_]+)_([^']+)'\)`)
	// ColorMarker carries "<n>_<color id>" on every color popup row.
	ColorMarker = NewMarker("color", `js_set_value\('\d+_(\d+)'\)`)
)

// FirstSegment returns the part of a "**" delimited ERP response before the first delimiter.
func FirstSegment(text string) string {
	head, _, _ := strings.Cut(text, "**")
	return head
}

// Segments splits a "**" delimited ERP response.
func Segments(text string) []string {
	return strings.Split(text, "**")
}
