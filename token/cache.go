// Package token manages the shared bearer token used to call the retrieval
// gateway. A single Cache instance is shared by all concurrent queries; the
// refresh path is single-flight so racing callers trigger exactly one
// upstream request and share its result.
package token

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/expertswarm/logging"
)

// Token is a bearer token with its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token is usable at now, with a safety margin so
// a token about to expire is refreshed proactively.
func (t Token) Valid(now time.Time, margin time.Duration) bool {
	if t.Value == "" {
		return false
	}
	return now.Add(margin).Before(t.ExpiresAt)
}

// Source issues fresh tokens. Implementations talk to the external token
// issuer (e.g. an OAuth client-credentials endpoint).
type Source interface {
	Token(ctx context.Context) (Token, error)
}

// CacheOptions configures a Cache.
type CacheOptions struct {
	// ExpiryMargin treats tokens expiring within the margin as stale.
	ExpiryMargin time.Duration
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Cache holds the process-wide bearer token. Reads are cheap; refreshes are
// deduplicated via singleflight so concurrent callers observing an expired
// token block on one upstream request.
type Cache struct {
	source Source
	margin time.Duration
	logger logging.Logger

	mu  sync.RWMutex
	tok Token

	group singleflight.Group
}

// NewCache creates a Cache over the given source.
func NewCache(source Source, optFns ...func(o *CacheOptions)) *Cache {
	opts := CacheOptions{
		ExpiryMargin: 30 * time.Second,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Cache{source: source, margin: opts.ExpiryMargin, logger: opts.Logger}
}

// Get returns a valid bearer token, refreshing through the single-flight
// path when the cached one is missing or stale.
func (c *Cache) Get(ctx context.Context) (string, error) {
	c.mu.RLock()
	tok := c.tok
	c.mu.RUnlock()

	if tok.Valid(time.Now(), c.margin) {
		return tok.Value, nil
	}
	return c.refresh(ctx)
}

// Invalidate discards the cached token if it still matches value. The bridge
// calls this after an authorization failure so the next Get forces a refresh;
// the value check avoids discarding a token another caller already renewed.
func (c *Cache) Invalidate(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tok.Value == value {
		c.tok = Token{}
	}
}

func (c *Cache) refresh(ctx context.Context) (string, error) {
	v, err, shared := c.group.Do("refresh", func() (any, error) {
		// Another caller may have refreshed between our staleness check and
		// entering the flight.
		c.mu.RLock()
		cur := c.tok
		c.mu.RUnlock()
		if cur.Valid(time.Now(), c.margin) {
			return cur.Value, nil
		}

		tok, err := c.source.Token(ctx)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.tok = tok
		c.mu.Unlock()

		c.logger.Debug("token refreshed", "expires_at", tok.ExpiresAt)
		return tok.Value, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.logger.Debug("token refresh shared with concurrent caller")
	}
	return v.(string), nil
}
