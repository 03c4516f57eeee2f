package erp

import (
	"context"
	"net/http"

	"challan-backend/internal/components/telemetry"
)

// Session is one logged in ERP session. It is owned by a single workflow invocation and must not
// be shared between callers.
type Session struct {
	client        *Client
	transport     *Transport
	jar           *Jar
	userAgent     string
	authenticated bool
	tel           telemetry.API
}

func (s *Session) Jar() *Jar {
	return s.jar
}

// Authenticated reports whether the login request went through (not whether the ERP accepted
// the credentials).
func (s *Session) Authenticated() bool {
	return s.authenticated
}

// URL resolves a path against the ERP base url.
func (s *Session) URL(path string) string {
	return s.client.URL(path)
}

func (s *Session) BaseURL() string {
	return s.client.BaseURL()
}

// PageHeader is the header set of a plain page navigation.
func (s *Session) PageHeader(referer string) Header {
	if referer == "" {
		referer = PathLogin
	}
	return Header{
		"User-Agent": s.userAgent,
		"Referer":    s.client.URL(referer),
	}
}

// FormHeader is the header set of a form submission.
func (s *Session) FormHeader(referer string) Header {
	return s.PageHeader(referer).Merge(Header{
		"Content-Type": contentTypeForm,
		"Origin":       s.client.Origin(),
	})
}

// AjaxHeader is the header set of an XHR issued by ERP page javascript.
func (s *Session) AjaxHeader(referer string) Header {
	return s.PageHeader(referer).With("X-Requested-With", requestedWith)
}

// AjaxFormHeader is the header set of an XHR form post.
func (s *Session) AjaxFormHeader(referer string) Header {
	return s.FormHeader(referer).With("X-Requested-With", requestedWith)
}

func (s *Session) Get(ctx context.Context, path string, header Header) (*Response, error) {
	if header == nil {
		header = s.PageHeader("")
	}
	return s.transport.Do(ctx, http.MethodGet, s.client.URL(path), header, "")
}

// Post sends the form with its fields in insertion order.
func (s *Session) Post(ctx context.Context, path string, form *Form, header Header) (*Response, error) {
	return s.PostRaw(ctx, path, form.Encode(), header)
}

// PostRaw sends an already encoded body.
func (s *Session) PostRaw(ctx context.Context, path, body string, header Header) (*Response, error) {
	if header == nil {
		header = s.FormHeader("")
	}
	return s.transport.Do(ctx, http.MethodPost, s.client.URL(path), header, body)
}
