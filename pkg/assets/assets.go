// Package assets keeps the web client's static files in a named cache,
// serving cache-first with network fallback.
package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"pigeonflight/pkg/config"
	"pigeonflight/pkg/request"
	"pigeonflight/pkg/store"
)

// Fetcher is a cache-first HTTP getter; request.Client implements it.
type Fetcher interface {
	Get(ctx context.Context, u, cacheKey string) ([]byte, error)
}

// Cache is a named generation of cached assets.
type Cache struct {
	name    string
	baseURL string
	list    []string
	fetch   Fetcher
	store   store.CacheStore
	logger  *slog.Logger
}

// New creates a Cache. f must read and write through s for cached
// responses to be visible to Keys.
func New(cfg config.AssetsConfig, f Fetcher, s store.CacheStore) *Cache {
	return &Cache{
		name:    cfg.CacheName,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		list:    cfg.List,
		fetch:   f,
		store:   s,
		logger:  slog.With("component", "assets", "cache", cfg.CacheName),
	}
}

// Name is the cache generation, e.g. "pigeon-cache-v1".
func (c *Cache) Name() string {
	return c.name
}

// Key is the store key for asset.
func (c *Cache) Key(asset string) string {
	return c.name + ":" + normalize(asset)
}

// URL resolves asset against the base URL. Absolute URLs are used as is.
func (c *Cache) URL(asset string) string {
	if isAbsolute(asset) {
		return asset
	}
	return c.baseURL + normalize(asset)
}

func isAbsolute(asset string) bool {
	u, err := url.Parse(asset)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// normalize turns "./index.html", "index.html" and "/index.html" into the
// same path. Absolute URLs are left alone.
func normalize(asset string) string {
	if isAbsolute(asset) {
		return asset
	}
	asset = strings.TrimPrefix(asset, ".")
	if !strings.HasPrefix(asset, "/") {
		asset = "/" + asset
	}
	return asset
}

// Precache fetches every listed asset into the cache. All assets are
// attempted; the returned error joins the individual failures.
func (c *Cache) Precache(ctx context.Context) error {
	var errs []error
	for _, a := range c.list {
		if _, err := c.fetch.Get(ctx, c.URL(a), c.Key(a)); err != nil {
			c.logger.Warn("Precache failed", "asset", a, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", a, err))
			continue
		}
		c.logger.Debug("Precached", "asset", a)
	}
	if len(errs) == 0 {
		c.logger.Info("Assets precached", "count", len(c.list))
	}
	return errors.Join(errs...)
}

// Keys lists every cached entry of this generation.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	return c.store.ListCacheKeys(ctx, c.name+":")
}

// Handler serves GET /assets/{path...} from the cache, falling back to
// the network on a miss.
func (c *Cache) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		asset := "/" + r.PathValue("path")

		body, err := c.fetch.Get(r.Context(), c.URL(asset), c.Key(asset))
		if err != nil {
			var se *request.StatusError
			if errors.As(err, &se) && se.Code == http.StatusNotFound {
				http.NotFound(w, r)
				return
			}
			c.logger.Warn("Asset fetch failed", "asset", asset, "error", err)
			http.Error(w, "asset unavailable", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", contentType(asset, body))
		_, _ = w.Write(body)
	})
}

func contentType(asset string, body []byte) string {
	ext := path.Ext(asset)
	if asset == "/" {
		ext = ".html"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return http.DetectContentType(body)
}
