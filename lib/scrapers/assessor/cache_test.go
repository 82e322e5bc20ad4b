package assessor

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var cacheDb *badger.DB
var cacheBaseUrl *url.URL

func init() {
	var err error
	cacheBaseUrl, err = url.Parse(BaseUrl)
	if err != nil {
		panic(err)
	}
	cacheDb, err = badger.Open(badger.DefaultOptions("").WithInMemory(true))
	if err != nil {
		panic(err)
	}
}

func TestPageCacheNormalization(t *testing.T) {
	cache := pageCache{baseUrl: cacheBaseUrl}

	cases := []struct {
		href   string
		expect string
	}{
		{
			href:   "ParcelDetail.aspx?hdnInstance=pcl7&hdnParcel=123#top",
			expect: BaseUrl + "ParcelDetail.aspx?hdnInstance=pcl7&hdnParcel=123",
		},
		{
			href:   BaseUrl + "ParcelDetail.aspx?hdnParcel=123&hdnInstance=pcl7",
			expect: BaseUrl + "ParcelDetail.aspx?hdnInstance=pcl7&hdnParcel=123",
		},
	}

	for _, test := range cases {
		got, err := cache.normalizeUrl(test.href)
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, test.expect, got)
	}
}

func TestPageCache(t *testing.T) {
	cache := pageCache{
		db:      cacheDb,
		baseUrl: cacheBaseUrl,
		ttl:     time.Hour,
	}
	ctx := context.Background()

	_, err := cache.getPage(ctx, "ParcelDetail.aspx?hdnParcel=1")
	require.Equal(t, errPageNotCached, err)

	original := cachedPage{Body: []byte("<html>parcel one</html>")}
	err = cache.setPage(ctx, "ParcelDetail.aspx?hdnParcel=1&hdnInstance=pcl7", original)
	require.Nil(t, err)

	// same page, different query order and an extra fragment
	got, err := cache.getPage(ctx, "ParcelDetail.aspx?hdnInstance=pcl7&hdnParcel=1#detail")
	require.Nil(t, err)
	diff := cmp.Diff(original.Body, got.Body)
	require.Empty(t, diff)
	require.False(t, got.FetchedAt.IsZero())
}

func TestPageCacheExpiry(t *testing.T) {
	cache := pageCache{
		db:      cacheDb,
		baseUrl: cacheBaseUrl,
		ttl:     time.Millisecond * 50,
	}
	ctx := context.Background()

	err := cache.setPage(ctx, "ParcelDetail.aspx?hdnParcel=2", cachedPage{
		Body: []byte("<html>parcel two</html>"),
	})
	require.Nil(t, err)

	_, err = cache.getPage(ctx, "ParcelDetail.aspx?hdnParcel=2")
	require.Nil(t, err)

	time.Sleep(time.Millisecond * 100)
	_, err = cache.getPage(ctx, "ParcelDetail.aspx?hdnParcel=2")
	require.Equal(t, errPageNotCached, err)
}

func TestDetailURLMemo(t *testing.T) {
	cache := pageCache{
		db:      cacheDb,
		baseUrl: cacheBaseUrl,
		ttl:     time.Hour,
	}
	ctx := context.Background()

	require.Empty(t, cache.getDetailURL(ctx, "17604612023"))

	cache.setDetailURL(ctx, "17604612023", BaseUrl+"ParcelDetail.aspx?hdnParcel=17604612023")
	require.Equal(
		t,
		BaseUrl+"ParcelDetail.aspx?hdnParcel=17604612023",
		cache.getDetailURL(ctx, "17604612023"),
	)
}
