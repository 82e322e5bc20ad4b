package assessor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/cvdnnn/clark-county-apn-scraper/lib/telemetry"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

const searchPageFixture = `<!DOCTYPE html>
<html><body>
<form method="post" action="./pcl.aspx" id="aspnetForm">
<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="/wEPDwUKMTY5" />
<input type="hidden" name="__VIEWSTATEGENERATOR" id="__VIEWSTATEGENERATOR" value="CA0B0334" />
<input type="hidden" name="__EVENTVALIDATION" id="__EVENTVALIDATION" value="/wEdAAlx" />
<input name="tbParcel" type="text" id="tbParcel" />
<input id="pcl7" type="radio" name="r1" value="pcl7" checked="checked" />
<input type="submit" name="btnSubmit" value="Submit" id="btnSubmit" />
</form></body></html>`

func newTestClient(t testing.TB, server *httptest.Server, opts ClientOptions) *Client {
	opts.BaseUrl = server.URL + "/"
	client, err := NewClient(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestLookupFlow(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/assessor")
	defer cleanup()

	var lastForm url.Values
	mux := http.NewServeMux()
	mux.HandleFunc("/pcl.aspx", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			err := r.ParseForm()
			if err != nil {
				t.Error(err)
			}
			lastForm = r.PostForm
			http.Redirect(w, r, "./ParcelDetail.aspx?hdnParcel=17604612023&hdnInstance=pcl7", http.StatusFound)
			return
		}
		w.Write([]byte(searchPageFixture))
	})
	mux.HandleFunc("/ParcelDetail.aspx", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(detailPageFixture))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server, ClientOptions{})
	rec := client.Lookup(context.Background(), "17604612023")

	require.True(t, rec.Succeeded())
	require.Equal(t, "SMITH JOHN & JANE", rec.Owner)
	require.Equal(t, "SMITH FAMILY TRUST", rec.Owner2)
	require.Equal(t, "WINCHESTER", rec.Town)

	require.Equal(t, "17604612023", lastForm.Get("tbParcel"))
	require.Equal(t, "Submit", lastForm.Get("btnSubmit"))
	require.Equal(t, "pcl7", lastForm.Get("r1"))
	require.Equal(t, "/wEPDwUKMTY5", lastForm.Get("__VIEWSTATE"))
	require.Equal(t, "CA0B0334", lastForm.Get("__VIEWSTATEGENERATOR"))
	require.Equal(t, "/wEdAAlx", lastForm.Get("__EVENTVALIDATION"))
}

func TestScriptRedirectFlow(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/assessor")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/pcl.aspx", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`<html><head>
<script type="text/javascript">location.href='./ParcelDetail.aspx?hdnParcel=17604612023&hdnInstance=pcl7';</script>
</head><body>Redirecting...</body></html>`))
			return
		}
		w.Write([]byte(searchPageFixture))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server, ClientOptions{})
	detailUrl, err := client.ResolveDetailURL(context.Background(), "17604612023")

	require.NoError(t, err)
	require.Equal(t, server.URL+"/ParcelDetail.aspx?hdnParcel=17604612023&hdnInstance=pcl7", detailUrl)
}

func TestRetryOnServerError(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/assessor")
	defer cleanup()

	var searchGets int
	mux := http.NewServeMux()
	mux.HandleFunc("/pcl.aspx", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			http.Redirect(w, r, "./ParcelDetail.aspx?hdnParcel=17604612023&hdnInstance=pcl7", http.StatusFound)
			return
		}
		searchGets++
		if searchGets <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(searchPageFixture))
	})
	mux.HandleFunc("/ParcelDetail.aspx", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(detailPageFixture))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server, ClientOptions{})
	detailUrl, err := client.ResolveDetailURL(context.Background(), "17604612023")

	require.NoError(t, err)
	require.Contains(t, detailUrl, "ParcelDetail.aspx")
	require.Equal(t, 3, searchGets)
}

func TestParcelNotFound(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/assessor")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/pcl.aspx", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`<html><body>
<form id="aspnetForm" action="./pcl.aspx" method="post">
<span id="lblError">Parcel Not Found in the current assessment roll.</span>
</form></body></html>`))
			return
		}
		w.Write([]byte(searchPageFixture))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server, ClientOptions{})
	_, err := client.ResolveDetailURL(context.Background(), "00000000000")

	require.ErrorIs(t, err, ErrParcelNotFound)
}

func TestNoDetailPage(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/assessor")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/pcl.aspx", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`<html><body><p>Please wait...</p></body></html>`))
			return
		}
		w.Write([]byte(searchPageFixture))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server, ClientOptions{})
	_, err := client.ResolveDetailURL(context.Background(), "99999999999")

	require.ErrorIs(t, err, ErrNoDetailPage)
}

func TestLookupNeverFails(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/assessor")
	defer cleanup()

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := newTestClient(t, server, ClientOptions{})
	rec := client.Lookup(context.Background(), "17604612023")

	require.False(t, rec.Succeeded())
	require.Equal(t, "Error: Failed to fetch page", rec.Status)
	require.Equal(t, "Failed to fetch page", rec.ErrorMessage)
}

func TestScrapeParcelUsesCache(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/assessor")
	defer cleanup()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true))
	require.NoError(t, err)
	defer db.Close()

	var searchPosts, detailGets int
	mux := http.NewServeMux()
	mux.HandleFunc("/pcl.aspx", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			searchPosts++
			// interstitial instead of a 302 so the detail page is
			// only ever requested by FetchDetail
			w.Write([]byte(`<html><head>
<script>location.href='./ParcelDetail.aspx?hdnParcel=17604612023&hdnInstance=pcl7';</script>
</head><body></body></html>`))
			return
		}
		w.Write([]byte(searchPageFixture))
	})
	mux.HandleFunc("/ParcelDetail.aspx", func(w http.ResponseWriter, r *http.Request) {
		detailGets++
		w.Write([]byte(detailPageFixture))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server, ClientOptions{Cache: db})

	_, firstUrl, err := client.ScrapeParcel(context.Background(), "17604612023")
	require.NoError(t, err)
	require.Equal(t, 1, searchPosts)
	require.Equal(t, 1, detailGets)

	doc, secondUrl, err := client.ScrapeParcel(context.Background(), "17604612023")
	require.NoError(t, err)
	require.Equal(t, firstUrl, secondUrl)
	require.Equal(t, 1, searchPosts)
	require.Equal(t, 1, detailGets)

	rec := Extract(doc, "17604612023")
	require.Equal(t, "SMITH JOHN & JANE", rec.Owner)
}
