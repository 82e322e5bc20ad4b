// Package assessor scrapes parcel ownership data out of the Clark
// County assessor's ParcelDetail pages. The site is classic ASP.NET
// WebForms: a search page carrying anti-forgery state, a form POST,
// and a redirect (sometimes server-side, sometimes scripted) to the
// detail page.
package assessor

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/cvdnnn/clark-county-apn-scraper/lib/htmlutil"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/restyutil"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html/charset"
)

var tracer = otel.Tracer("scrapers/assessor")

const (
	BaseUrl    = "https://maps.clarkcountynv.gov/assessor/AssessorParcelDetail/"
	searchPage = "pcl.aspx"
)

// the anti-forgery state WebForms wants echoed back on every POST
var hiddenTokenFields = []string{"__VIEWSTATE", "__VIEWSTATEGENERATOR", "__EVENTVALIDATION"}

var instrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput routes raw http dumps of every exchange to
// `output` for clients created afterwards. Debug tooling only.
func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	instrumentOutput = output
}

type ClientOptions struct {
	// defaults to the county site
	BaseUrl string
	// per-request timeout, defaults to 10s
	Timeout time.Duration
	// extra attempts on 500/502/503/504, defaults to 3
	MaxRetries int
	// the county endpoint serves an incomplete certificate chain, so
	// verification is off unless asked for
	VerifyTLS bool
	// optional detail-page cache, nil disables caching entirely
	Cache *badger.DB
	// how long cached pages live, defaults to 24h
	CacheTTL time.Duration
}

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	cache *pageCache
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = BaseUrl
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 10
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = time.Hour * 24
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)

	client.SetTransport(&http.Transport{
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: !opts.VerifyTLS},
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     time.Second * 90,
		TLSHandshakeTimeout: time.Second * 10,
	})
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeaders(map[string]string{
		"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.5",
		"Accept-Encoding":           "gzip, deflate",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
	})
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(opts.Timeout)

	client.SetRetryCount(opts.MaxRetries)
	client.SetRetryWaitTime(time.Millisecond * 300)
	client.SetRetryMaxWaitTime(time.Second * 5)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		if res == nil {
			return false
		}
		switch res.StatusCode() {
		case http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	})

	telemetry.InstrumentResty(client, "scrapers/assessor/http")
	restyutil.InstrumentClient(client, instrumentOutput)

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}
	if opts.Cache != nil {
		c.cache = &pageCache{
			db:      opts.Cache,
			baseUrl: baseUrl,
			ttl:     opts.CacheTTL,
		}
	}
	return c, nil
}

// Close releases the idle connection pool. The cache handle, if any,
// belongs to the caller.
func (c *Client) Close() {
	c.Http.GetClient().CloseIdleConnections()
}

func (c *Client) SearchURL() string {
	return c.resolveHref(searchPage)
}

func parseDocument(res *resty.Response) (*goquery.Document, error) {
	reader, err := charset.NewReader(
		bytes.NewReader(res.Body()),
		res.Header().Get("Content-Type"),
	)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(reader)
}

// ResolveDetailURL runs the search flow for one APN and returns the
// absolute url of its detail page.
func (c *Client) ResolveDetailURL(ctx context.Context, apn string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:ResolveDetailURL")
	defer span.End()
	span.SetAttributes(attribute.String("apn", apn))

	res, err := c.Http.R().
		SetContext(ctx).
		Get(searchPage)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch search page")
		return "", fmt.Errorf("search page: %w", err)
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "search page returned an error status")
		return "", fmt.Errorf("search page: %s", res.Status())
	}
	searchDoc, err := parseDocument(res)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse search page")
		return "", fmt.Errorf("parse search page: %w", err)
	}

	form := map[string]string{
		"tbParcel":  apn,
		"btnSubmit": "Submit",
		"r1":        "pcl7",
	}
	hidden := htmlutil.HiddenInputs(searchDoc)
	for _, name := range hiddenTokenFields {
		value, ok := hidden[name]
		if !ok {
			// the POST can still succeed without it, so just complain
			slog.WarnContext(ctx, "search page is missing a hidden form field", "name", name)
			continue
		}
		form[name] = value
	}

	res, err = c.Http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(searchPage)
	if err != nil {
		span.SetStatus(codes.Error, "search submit failed")
		return "", fmt.Errorf("search submit: %w", err)
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "search submit returned an error status")
		return "", fmt.Errorf("search submit: %s", res.Status())
	}
	doc, err := parseDocument(res)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse search result")
		return "", fmt.Errorf("parse search result: %w", err)
	}

	for _, match := range detailMatchers {
		if detailUrl := match(c, res, doc); detailUrl != "" {
			span.SetAttributes(attribute.String("detail_url", detailUrl))
			return detailUrl, nil
		}
	}

	if phrase := findFailurePhrase(doc); phrase != "" {
		slog.WarnContext(ctx, "search says the parcel does not exist", "apn", apn, "phrase", phrase)
		span.SetStatus(codes.Error, ErrParcelNotFound.Error())
		return "", fmt.Errorf("%w: page says %q", ErrParcelNotFound, phrase)
	}

	slog.WarnContext(ctx, "search did not lead to a detail page, the apn may be invalid", "apn", apn)
	span.SetStatus(codes.Error, ErrNoDetailPage.Error())
	return "", ErrNoDetailPage
}

// FetchDetail downloads and parses a detail page, going through the
// page cache when one is attached.
func (c *Client) FetchDetail(ctx context.Context, pageUrl string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "client:FetchDetail")
	defer span.End()

	if c.cache != nil {
		if page, err := c.cache.getPage(ctx, pageUrl); err == nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
		}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(pageUrl)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch detail page")
		return nil, fmt.Errorf("detail page: %w", err)
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "detail page returned an error status")
		return nil, fmt.Errorf("detail page: %s", res.Status())
	}
	doc, err := parseDocument(res)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse detail page")
		return nil, fmt.Errorf("parse detail page: %w", err)
	}

	if c.cache != nil {
		err := c.cache.setPage(ctx, pageUrl, cachedPage{Body: res.Body()})
		if err != nil {
			slog.WarnContext(ctx, "failed to cache detail page", "url", pageUrl, "err", err)
		}
	}
	return doc, nil
}

// ScrapeParcel is the whole fetch side: search, resolve, download.
// The document comes back alongside the resolved url so callers can
// attribute what they extracted.
func (c *Client) ScrapeParcel(ctx context.Context, apn string) (*goquery.Document, string, error) {
	ctx, span := tracer.Start(ctx, "client:ScrapeParcel")
	defer span.End()
	start := time.Now()

	var pageUrl string
	if c.cache != nil {
		pageUrl = c.cache.getDetailURL(ctx, apn)
	}
	if pageUrl == "" {
		var err error
		pageUrl, err = c.ResolveDetailURL(ctx, apn)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, "", err
		}
		if c.cache != nil {
			c.cache.setDetailURL(ctx, apn, pageUrl)
		}
	}

	doc, err := c.FetchDetail(ctx, pageUrl)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	slog.InfoContext(
		ctx, "scraped parcel",
		"apn", apn,
		"seconds", time.Since(start).Seconds(),
	)
	return doc, pageUrl, nil
}

// Lookup never fails outward: whatever happens during fetch or
// extraction comes back as a Record with a terminal status.
func (c *Client) Lookup(ctx context.Context, apn string) *Record {
	ctx, span := tracer.Start(ctx, "client:Lookup")
	defer span.End()
	span.SetAttributes(attribute.String("apn", apn))

	doc, pageUrl, err := c.ScrapeParcel(ctx, apn)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch parcel", "apn", apn, "err", err)
		span.SetStatus(codes.Error, err.Error())
		rec := NewRecord(apn)
		rec.MarkError("Failed to fetch page")
		return rec
	}

	rec := Extract(doc, apn)
	span.SetAttributes(
		attribute.String("detail_url", pageUrl),
		attribute.String("status", rec.Status),
	)
	return rec
}
