package assessor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cvdnnn/clark-county-apn-scraper/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

var (
	// the search flow landed on a page that admits the parcel does
	// not exist
	ErrParcelNotFound = fmt.Errorf("parcel not found")
	// the search flow ended somewhere unrecognizable, usually an
	// invalid APN or a markup change
	ErrNoDetailPage = fmt.Errorf("no parcel detail page found")
)

// detail pages live under this path, its presence in a url is how we
// recognize that the search flow arrived
const detailPathMarker = "ParcelDetail.aspx"

// a detailMatcher inspects the post-search response and returns the
// detail page url, or "" to let the next matcher try
type detailMatcher func(c *Client, res *resty.Response, doc *goquery.Document) string

// ordered: a server-side redirect is authoritative, the script and
// form fallbacks only matter when the site answers with an
// interstitial page instead
var detailMatchers = []detailMatcher{
	matchFinalURL,
	matchScriptRedirect,
	matchFormAction,
}

func (c *Client) resolveHref(href string) string {
	u, err := c.BaseUrl.Parse(href)
	if err != nil {
		return ""
	}
	return u.String()
}

func matchFinalURL(c *Client, res *resty.Response, doc *goquery.Document) string {
	if res.RawResponse == nil || res.RawResponse.Request == nil {
		return ""
	}
	final := res.RawResponse.Request.URL.String()
	if strings.Contains(final, detailPathMarker) {
		return final
	}
	return ""
}

var scriptRedirectRegex = regexp.MustCompile(`location\.href\s*=\s*["']([^"']+)["']`)

func matchScriptRedirect(c *Client, res *resty.Response, doc *goquery.Document) string {
	for _, script := range doc.Find("script").Nodes {
		groups := scriptRedirectRegex.FindStringSubmatch(htmlutil.GetText(script))
		if len(groups) < 2 {
			continue
		}
		return c.resolveHref(groups[1])
	}
	return ""
}

func matchFormAction(c *Client, res *resty.Response, doc *goquery.Document) string {
	action := doc.Find("form#aspnetForm").AttrOr("action", "")
	if strings.Contains(action, detailPathMarker) {
		return c.resolveHref(action)
	}
	return ""
}

// phrases that mark a search result page as a definite miss, checked
// in order against the page's visible text
var failurePhrases = []string{"not found", "no results", "invalid", "error"}

func findFailurePhrase(doc *goquery.Document) string {
	text := strings.ToLower(doc.Text())
	for _, phrase := range failurePhrases {
		if strings.Contains(text, phrase) {
			return phrase
		}
	}
	return ""
}
