package erp

const (
	contentTypeForm = "application/x-www-form-urlencoded"
	requestedWith   = "XMLHttpRequest"
)

// Header is a set of request headers, keys are sent as given.
type Header map[string]string

// With returns a copy of the header with key set to value.
func (h Header) With(key, value string) Header {
	out := make(Header, len(h)+1)
	for k, v := range h {
		out[k] = v
	}
	out[key] = value
	return out
}

// Merge returns a copy of the header overlaid with other.
func (h Header) Merge(other Header) Header {
	out := make(Header, len(h)+len(other))
	for k, v := range h {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
