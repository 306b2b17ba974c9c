package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/erwaittime/internal/domain/providers"
	"github.com/zatekoja/erwaittime/internal/infrastructure/observability"
)

const responseCachePrefix = "http:cache:"

// CacheMiddleware replays hospital directory responses from the cache
// provider. Routes without a TTL in the route policy are never stored.
type CacheMiddleware struct {
	cache  providers.CacheProvider
	ttlFor func(path string) int
}

// NewCacheMiddleware caches with the lifetimes of the route policy. A nil
// provider disables caching.
func NewCacheMiddleware(cache providers.CacheProvider) *CacheMiddleware {
	return &CacheMiddleware{
		cache:  cache,
		ttlFor: func(path string) int { return policyFor(path).ttlSeconds },
	}
}

// Middleware returns the cache middleware handler.
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ttl := m.ttlFor(r.URL.Path)
		if m.cache == nil || r.Method != http.MethodGet || ttl <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := responseCacheKey(r.URL)
		if cached, err := m.cache.Get(ctx, key); err == nil {
			observability.RecordCacheLookup(ctx, "http", true)
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}

		observability.RecordCacheLookup(ctx, "http", false)
		w.Header().Set("X-Cache", "MISS")

		rec := &teeRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		if rec.status == http.StatusOK && rec.body.Len() > 0 {
			if err := m.cache.Set(ctx, key, rec.body.Bytes(), ttl); err != nil {
				log.Warn().Err(err).Str("route", RouteLabel(r.URL.Path)).Msg("failed to cache response")
			}
		}
	})
}

// responseCacheKey ignores query parameter order so equivalent directory
// searches share an entry.
func responseCacheKey(u *url.URL) string {
	key := u.Path
	if q := u.Query(); len(q) > 0 {
		key += "?" + q.Encode()
	}
	sum := sha256.Sum256([]byte(key))
	return responseCachePrefix + hex.EncodeToString(sum[:])
}

// teeRecorder passes the response through while keeping a copy of the body.
type teeRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (t *teeRecorder) WriteHeader(status int) {
	if t.status == 0 {
		t.status = status
		t.ResponseWriter.WriteHeader(status)
	}
}

func (t *teeRecorder) Write(p []byte) (int, error) {
	if t.status == 0 {
		t.WriteHeader(http.StatusOK)
	}
	t.body.Write(p)
	return t.ResponseWriter.Write(p)
}
