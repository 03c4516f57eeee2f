// Package reportproxy serves printable ERP reports to browsers that have no ERP session. Report
// pages reference their scripts (among them the barcode renderer) relative to the ERP, so html
// is rewritten to point at the ERP or to carry the assets inline.
package reportproxy

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"challan-backend/internal/challan"
	"challan-backend/internal/components/assert"
	"challan-backend/internal/components/telemetry"
	"challan-backend/internal/scrapers/erp"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	report_fetch_open   = "fetch.open-session"
	report_fetch_inline = "fetch.inline-asset"
)

var tracer = otel.Tracer("challan.reportproxy")

const defaultContentType = "text/html"

var reportReferer = erp.PathSewingInputPage + "?permission=1_1_2_1"

// parentPrefix matches the "../" run report pages use to reach the ERP root.
var parentPrefix = regexp.MustCompile(`^(\.\./)+`)

type Config struct {
	Credentials erp.Credentials
	// InlineAssets replaces same-origin <script src> and stylesheet <link> elements with their
	// contents instead of only rewriting their urls.
	InlineAssets bool
	Timeout      time.Duration
}

type Report struct {
	ContentType string
	Body        []byte
}

type Proxy struct {
	erp    *erp.Client
	config Config
	tel    telemetry.API
}

func NewProxy(client *erp.Client, config Config, tel telemetry.API) *Proxy {
	assert.NotNil(client, "client")
	assert.NotNil(tel, "tel")

	if config.Timeout <= 0 {
		config.Timeout = challan.DefaultTimeout
	}
	return &Proxy{
		erp:    client,
		config: config,
		tel:    telemetry.NewScopedAPI("reportproxy", tel),
	}
}

// Allowed tells whether target points into the ERP.
func (p *Proxy) Allowed(target string) bool {
	base := p.erp.BaseURL()
	return target == base || strings.HasPrefix(target, base+"/") || strings.HasPrefix(target, base+"?")
}

// Fetch downloads target with a fresh ERP session. Html is rewritten, anything else is returned
// byte for byte with its content type.
func (p *Proxy) Fetch(ctx context.Context, target, userAgent string) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	report, err := p.fetch(ctx, target, userAgent)
	if err == nil {
		telemetry.RecordOutcome(ctx, "report", "success")
		return report, nil
	}
	failure := challan.AsFailure(err)
	telemetry.RecordOutcome(ctx, "report", string(failure.Kind))
	return Report{}, failure
}

func (p *Proxy) fetch(ctx context.Context, target, userAgent string) (Report, error) {
	if target == "" {
		return Report{}, challan.NewFailure(challan.KindBadRequest, "Missing url parameter")
	}
	if !p.Allowed(target) {
		return Report{}, challan.NewFailure(challan.KindForbidden, "Invalid URL")
	}

	session, err := p.erp.Open(ctx, p.config.Credentials, userAgent, erp.ReportPlan)
	if err != nil {
		p.tel.ReportBroken(report_fetch_open, err)
		return Report{}, err
	}
	res, err := session.Get(ctx, target, session.PageHeader(reportReferer))
	if err != nil {
		return Report{}, err
	}

	contentType := res.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	if !strings.Contains(contentType, defaultContentType) {
		return Report{ContentType: contentType, Body: res.Body}, nil
	}

	body, err := p.rewrite(ctx, session, res.Body)
	if err != nil {
		return Report{}, err
	}
	return Report{ContentType: contentType, Body: body}, nil
}

// absolute resolves a "../" relative reference against the ERP root, ok is false for any other
// reference.
func absolute(base, ref string) (string, bool) {
	loc := parentPrefix.FindStringIndex(ref)
	if loc == nil {
		return "", false
	}
	return base + "/" + ref[loc[1]:], true
}

func (p *Proxy) rewrite(ctx context.Context, session *erp.Session, page []byte) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "rewrite")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	base := p.erp.BaseURL()

	rewritten := 0
	for _, attr := range []string{"src", "href"} {
		doc.Find(fmt.Sprintf("[%s]", attr)).Each(func(_ int, sel *goquery.Selection) {
			ref, _ := sel.Attr(attr)
			if abs, ok := absolute(base, ref); ok {
				sel.SetAttr(attr, abs)
				rewritten++
			}
		})
	}
	span.SetAttributes(attribute.Int("rewritten", rewritten))

	if p.config.InlineAssets {
		p.inline(ctx, session, doc)
	}

	out, err := doc.Html()
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// inline replaces ERP scripts and stylesheets with their contents. An asset that cannot be
// fetched keeps its (already absolute) reference.
func (p *Proxy) inline(ctx context.Context, session *erp.Session, doc *goquery.Document) {
	fetch := func(ref string) (string, bool) {
		if !p.Allowed(ref) {
			return "", false
		}
		res, err := session.Get(ctx, ref, session.PageHeader(reportReferer))
		if err != nil {
			p.tel.ReportWarning(report_fetch_inline, err, ref)
			return "", false
		}
		if res.Status < 200 || res.Status >= 300 {
			p.tel.ReportWarning(report_fetch_inline, fmt.Errorf("status %d", res.Status), ref)
			return "", false
		}
		return res.Text(), true
	}

	doc.Find("script[src]").Each(func(_ int, sel *goquery.Selection) {
		ref, _ := sel.Attr("src")
		content, ok := fetch(ref)
		if !ok {
			return
		}
		sel.RemoveAttr("src")
		// a literal closing tag would end the inlined script early
		sel.Empty()
		sel.AppendNodes(&html.Node{
			Type: html.TextNode,
			Data: strings.ReplaceAll(content, "</script", `<\/script`),
		})
	})
	doc.Find(`link[rel="stylesheet"][href]`).Each(func(_ int, sel *goquery.Selection) {
		ref, _ := sel.Attr("href")
		content, ok := fetch(ref)
		if !ok {
			return
		}
		style := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
		style.AppendChild(&html.Node{Type: html.TextNode, Data: content})
		sel.ReplaceWithNodes(style)
	})
}
