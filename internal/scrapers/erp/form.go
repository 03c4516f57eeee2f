package erp

import (
	"net/url"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Form is an application/x-www-form-urlencoded payload that keeps the order fields were set in,
// the ERP's save handler is written against the field order its own javascript produces.
type Form struct {
	values *orderedmap.OrderedMap[string, string]
}

func NewForm() *Form {
	return &Form{values: orderedmap.New[string, string]()}
}

// Set stores a field, overwriting an existing field in place.
func (f *Form) Set(key, value string) *Form {
	f.values.Set(key, value)
	return f
}

func (f *Form) Get(key string) (string, bool) {
	return f.values.Get(key)
}

func (f *Form) Len() int {
	return f.values.Len()
}

func (f *Form) Keys() []string {
	keys := make([]string, 0, f.values.Len())
	for pair := f.values.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Values converts the form to url.Values, order is lost.
func (f *Form) Values() url.Values {
	out := url.Values{}
	for pair := f.values.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	return out
}

// Encode renders the form in insertion order.
func (f *Form) Encode() string {
	var out strings.Builder
	for pair := f.values.Oldest(); pair != nil; pair = pair.Next() {
		if out.Len() > 0 {
			out.WriteByte('&')
		}
		out.WriteString(url.QueryEscape(pair.Key))
		out.WriteByte('=')
		out.WriteString(url.QueryEscape(pair.Value))
	}
	return out.String()
}
