package erp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"challan-backend/internal/components/assert"
	"challan-backend/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
)

const (
	report_session_login        = "session.login"
	report_session_main_page    = "session.main-page"
	report_session_menu         = "session.menu"
	report_session_menu_session = "session.menu-session"
)

const DefaultUserAgent = "Mozilla/5.0 (Linux; Android 10; K) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/145.0.0.0 Mobile Safari/537.36"

type Options struct {
	BaseURL string
	// UserAgent is used when the caller does not forward its own.
	UserAgent string
	MenuID    string
	// Attempts is the number of tries of a request that fails at the network level.
	Attempts int
	// RetryStep is the linear backoff unit, the n-th retry waits n*RetryStep.
	RetryStep         time.Duration
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	CloudflareBypass  bool
	Capture           telemetry.CaptureOutput
}

// Credentials of an ERP user.
type Credentials struct {
	Username string
	Password string
}

// Client opens ERP sessions. It holds configuration only, every session it opens gets its own
// cookie jar and transport.
type Client struct {
	opts         Options
	baseUrl      string
	origin       string
	roundTripper http.RoundTripper
	tel          telemetry.API
}

func NewClient(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel, "tel")

	parsed, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("erp base url must be absolute: %q", opts.BaseURL)
	}

	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MenuID == "" {
		opts.MenuID = DefaultMenuID
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.RetryStep <= 0 {
		opts.RetryStep = time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	var roundTripper http.RoundTripper = http.DefaultTransport.(*http.Transport).Clone()
	if opts.CloudflareBypass {
		roundTripper = cloudflarebp.AddCloudFlareByPass(roundTripper)
	}

	return &Client{
		opts:         opts,
		baseUrl:      strings.TrimSuffix(opts.BaseURL, "/"),
		origin:       fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host),
		roundTripper: roundTripper,
		tel:          telemetry.NewScopedAPI("erp", tel),
	}, nil
}

// BaseURL returns the configured base url without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseUrl
}

// Origin returns scheme://host of the base url.
func (c *Client) Origin() string {
	return c.origin
}

// URL resolves a path against the base url, absolute urls are returned unchanged.
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseUrl + "/" + strings.TrimPrefix(path, "/")
}

// Open logs in and primes a new session following the given plan. Only a network failure of the
// login itself is fatal, the ERP gives no reliable success signal so a rejected login shows up
// as empty data on the following calls.
func (c *Client) Open(ctx context.Context, creds Credentials, userAgent string, plan Plan) (*Session, error) {
	if userAgent == "" {
		userAgent = c.opts.UserAgent
	}

	jar := NewJar()
	s := &Session{
		client:    c,
		jar:       jar,
		userAgent: userAgent,
		transport: newTransport(jar, transportOptions{
			roundTripper:      c.roundTripper,
			timeout:           c.opts.RequestTimeout,
			attempts:          c.opts.Attempts,
			step:              c.opts.RetryStep,
			requestsPerSecond: c.opts.RequestsPerSecond,
			capture:           c.opts.Capture,
		}, c.tel),
		tel: c.tel,
	}

	login := NewForm().
		Set("txt_userid", creds.Username).
		Set("txt_password", creds.Password).
		Set("submit", "Login")
	_, err := s.Post(ctx, PathLogin, login, s.FormHeader(PathLogin))
	if err != nil {
		c.tel.ReportBroken(report_session_login, err, plan.Name)
		return nil, err
	}
	s.authenticated = true

	menuReferer := plan.MenuReferer
	if plan.MainPage != "" {
		_, err = s.Get(ctx, plan.MainPage, s.PageHeader(PathLogin))
		if err != nil {
			c.tel.ReportWarning(report_session_main_page, err, plan.Name)
		}
		if menuReferer == "" {
			menuReferer = plan.MainPage
		}
	}

	_, err = s.Get(ctx, PathMenu+"?menuid="+c.opts.MenuID, s.PageHeader(menuReferer))
	if err != nil {
		c.tel.ReportWarning(report_session_menu, err, plan.Name)
	}

	if plan.MenuSession != "" {
		target := fmt.Sprintf(
			"%s?data=%s_%s&action=create_menu_session",
			PathMenuSession, c.opts.MenuID, plan.MenuSession,
		)
		_, err = s.Get(ctx, target, s.AjaxHeader(menuReferer))
		if err != nil {
			c.tel.ReportWarning(report_session_menu_session, err, plan.Name)
		}
	}

	return s, nil
}
