package assessor

import (
	"bytes"
	"context"
	"encoding/gob"
	"log/slog"
	"net/url"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
)

var errPageNotCached = badger.ErrKeyNotFound

// pageCache keeps already-downloaded detail pages, plus a memo of
// which detail url each apn resolved to, so re-runs skip the whole
// search flow for parcels they have seen before.
//
// key layout:
//
//	apn:<apn>             the resolved detail page url, as raw bytes
//	page:<normalized url> gob-encoded cachedPage
type pageCache struct {
	db      *badger.DB
	baseUrl *url.URL
	ttl     time.Duration
}

type cachedPage struct {
	Body      []byte
	FetchedAt time.Time
}

// query param order and fragments vary between visits to the same page
func (c *pageCache) normalizeUrl(href string) (string, error) {
	u, err := c.baseUrl.Parse(href)
	if err != nil {
		return "", err
	}
	return purell.NormalizeURL(
		u,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	), nil
}

func (c *pageCache) getPage(ctx context.Context, href string) (cachedPage, error) {
	normalized, err := c.normalizeUrl(href)
	if err != nil {
		return cachedPage{}, err
	}
	key := []byte("page:" + normalized)

	var page cachedPage
	err = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return gob.NewDecoder(bytes.NewReader(value)).Decode(&page)
		})
	})
	if err != nil {
		return cachedPage{}, err
	}

	if c.ttl > 0 && time.Since(page.FetchedAt) > c.ttl {
		err = c.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		})
		if err != nil {
			slog.WarnContext(ctx, "failed to evict expired page", "url", normalized, "err", err)
		}
		return cachedPage{}, errPageNotCached
	}
	return page, nil
}

func (c *pageCache) setPage(ctx context.Context, href string, page cachedPage) error {
	normalized, err := c.normalizeUrl(href)
	if err != nil {
		return err
	}
	page.FetchedAt = time.Now()

	var buffer bytes.Buffer
	err = gob.NewEncoder(&buffer).Encode(page)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("page:"+normalized), buffer.Bytes())
	})
}

// getDetailURL returns "" when the apn has no usable memo.
func (c *pageCache) getDetailURL(ctx context.Context, apn string) string {
	var href string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("apn:" + apn))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			href = string(value)
			return nil
		})
	})
	if err != nil {
		return ""
	}
	return href
}

func (c *pageCache) setDetailURL(ctx context.Context, apn string, href string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte("apn:"+apn), []byte(href))
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to memo detail url", "apn", apn, "err", err)
	}
}
