package erp

import (
	"context"
	"mime"
	"net/http"
	"time"

	"challan-backend/internal/components/telemetry"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const report_transport_retry = "transport.retry"

// Response is a fully read ERP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *Response) Text() string {
	return string(r.Body)
}

// MediaType returns the content type without parameters, "" when missing.
func (r *Response) MediaType() string {
	value := r.Header.Get("Content-Type")
	if value == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return value
	}
	return mediaType
}

// linearBackOff waits n*step before the n-th retry.
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *linearBackOff) Reset() {
	b.n = 0
}

// Transport sends requests on behalf of one session: it attaches the session cookies, merges the
// response cookies back and retries network failures. HTTP error statuses are returned as is and
// redirects are never followed.
type Transport struct {
	http     *resty.Client
	jar      *Jar
	attempts int
	step     time.Duration
	tel      telemetry.API
}

type transportOptions struct {
	roundTripper      http.RoundTripper
	timeout           time.Duration
	attempts          int
	step              time.Duration
	requestsPerSecond float64
	capture           telemetry.CaptureOutput
}

func newTransport(jar *Jar, opts transportOptions, tel telemetry.API) *Transport {
	httpClient := resty.NewWithClient(&http.Client{
		Transport: opts.roundTripper,
		Timeout:   opts.timeout,
	})
	httpClient.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}))

	if opts.requestsPerSecond > 0 {
		burst := int(opts.requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		rateLimiter := rate.NewLimiter(rate.Limit(opts.requestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, "challan-backend/erp", tel, opts.capture)

	attempts := opts.attempts
	if attempts <= 0 {
		attempts = 1
	}
	return &Transport{
		http:     httpClient,
		jar:      jar,
		attempts: attempts,
		step:     opts.step,
		tel:      tel,
	}
}

// Do sends a request, body is sent verbatim when not empty. It fails with a *TransportError once
// every attempt failed at the network level.
func (t *Transport) Do(ctx context.Context, method, target string, header Header, body string) (*Response, error) {
	attempts := 0
	var res *resty.Response

	operation := func() error {
		attempts++
		req := t.http.R().
			SetContext(ctx).
			SetHeaders(header)
		if cookie := t.jar.Header(); cookie != "" {
			req.SetHeader("Cookie", cookie)
		}
		if body != "" {
			req.SetBody(body)
		}

		r, err := req.Execute(method, target)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		res = r
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{step: t.step}, uint64(t.attempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		t.tel.ReportWarning(report_transport_retry, err, method, target, wait.String())
	})
	if err != nil {
		return nil, &TransportError{
			Method:   method,
			URL:      target,
			Attempts: attempts,
			Err:      err,
		}
	}

	t.jar.Update(res.Header())
	return &Response{
		Status: res.StatusCode(),
		Header: res.Header(),
		Body:   res.Body(),
	}, nil
}
