package erp

import (
	"net/http"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Jar keeps the session cookies of one ERP session. Only the name=value pair of a Set-Cookie is
// kept: the ERP is a single origin and a jar never outlives its session, so Path, Domain and
// Expires do not matter.
type Jar struct {
	cookies *orderedmap.OrderedMap[string, string]
}

func NewJar() *Jar {
	return &Jar{cookies: orderedmap.New[string, string]()}
}

// Update merges every Set-Cookie of the given response headers into the jar. A cookie that is
// already present keeps its position and takes the new value.
func (j *Jar) Update(header http.Header) {
	for _, line := range header.Values("Set-Cookie") {
		pair, _, _ := strings.Cut(line, ";")
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		j.cookies.Set(name, strings.TrimSpace(value))
	}
}

// Set stores a single cookie.
func (j *Jar) Set(name, value string) {
	j.cookies.Set(name, value)
}

func (j *Jar) Get(name string) (string, bool) {
	return j.cookies.Get(name)
}

func (j *Jar) Len() int {
	return j.cookies.Len()
}

// Header renders the jar as a Cookie header value ("k1=v1; k2=v2") in insertion order.
func (j *Jar) Header() string {
	var out strings.Builder
	for pair := j.cookies.Oldest(); pair != nil; pair = pair.Next() {
		if out.Len() > 0 {
			out.WriteString("; ")
		}
		out.WriteString(pair.Key)
		out.WriteString("=")
		out.WriteString(pair.Value)
	}
	return out.String()
}
