package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ossih/casemirror/internal/domain"
	"github.com/ossih/casemirror/internal/logger"
)

// ResponseCache is the cache consulted and filled by Fetch.
type ResponseCache interface {
	Get(ctx context.Context, key string) (domain.JSONMap, bool, error)
	Set(ctx context.Context, key string, value domain.JSONMap, ttl time.Duration) error
}

// Config holds fetcher configuration.
type Config struct {
	UpstreamBaseURL string
	MirrorBaseURL   string
	MirrorAPIKey    string
	Timeout         time.Duration
	CacheTTL        time.Duration
}

// Client fetches JSON from the upstream API or its local mirror. Transient
// remote failures (non-200, timeout, undecodable body) uniformly yield an
// empty result with a nil error; callers branch on emptiness and rely on
// the work queue for later re-drive.
type Client struct {
	http   *resty.Client
	cache  ResponseCache
	tokens TokenProvider
	cfg    Config
	log    *logger.Logger
}

// NewClient creates a fetcher client.
// Parameters:
//   - cfg: fetcher configuration.
//   - cache: response cache; nil disables caching.
//   - tokens: bearer token provider for upstream requests.
//   - log: logger instance.
// Returns:
//   - *Client: initialized client.
func NewClient(cfg Config, cache ResponseCache, tokens TokenProvider, log *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")

	if log == nil {
		log = logger.GetDefault()
	}

	return &Client{
		http:   client,
		cache:  cache,
		tokens: tokens,
		cfg:    cfg,
		log:    log,
	}
}

// isMirror classifies the target host as the configured local mirror.
func (c *Client) isMirror(url string) bool {
	return c.cfg.MirrorBaseURL != "" && strings.HasPrefix(url, c.cfg.MirrorBaseURL)
}

// authorize sets request authentication: a static API key for mirror
// requests, a bearer token (refreshed only when expired) plus any session
// cookie for upstream requests.
func (c *Client) authorize(req *resty.Request, url string) {
	if c.isMirror(url) {
		if c.cfg.MirrorAPIKey != "" {
			req.SetHeader("api-key", c.cfg.MirrorAPIKey)
		}
		return
	}

	if c.tokens == nil {
		return
	}
	token := c.tokens.Token()
	if !c.tokens.IsValid() {
		refreshed, err := c.tokens.Refresh()
		if err != nil {
			c.log.WithError(err).Warn("Token refresh failed")
		} else {
			token = refreshed
		}
	}
	if token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	if cookies := c.tokens.Cookies(); cookies != "" {
		req.SetHeader("Cookie", cookies)
	}
}

// Fetch issues a GET against url, consulting the response cache first
// unless bypassCache is set.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - url: fully-qualified request URL.
//   - bypassCache: skip the cache read (the write still happens on 200).
// Returns:
//   - domain.JSONMap: decoded body; empty on any remote failure.
//   - error: non-nil only on cache storage failure.
func (c *Client) Fetch(ctx context.Context, url string, bypassCache bool) (domain.JSONMap, error) {
	key := CacheKey(url)

	if !bypassCache && c.cache != nil {
		if value, hit, err := c.cache.Get(ctx, key); err != nil {
			return nil, err
		} else if hit {
			return value, nil
		}
	}

	req := c.http.R().SetContext(ctx)
	c.authorize(req, url)

	resp, err := req.Get(url)
	if err != nil {
		c.log.WithField(logger.FieldEndpoint, url).WithError(err).Warn("Fetch failed")
		return domain.JSONMap{}, nil
	}
	if resp.StatusCode() != http.StatusOK {
		c.log.WithFields(logger.Fields{
			logger.FieldEndpoint: url,
			logger.FieldStatus:   resp.StatusCode(),
		}).Debug("Fetch returned non-200")
		return domain.JSONMap{}, nil
	}

	var payload domain.JSONMap
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		c.log.WithField(logger.FieldEndpoint, url).WithError(err).Warn("Fetch body not decodable")
		return domain.JSONMap{}, nil
	}

	// Only 200 + decodable bodies are cached, so transient upstream
	// errors self-heal on the next attempt.
	if c.cache != nil {
		if err := c.cache.Set(ctx, key, payload, c.cfg.CacheTTL); err != nil {
			return nil, err
		}
	}

	return payload, nil
}

// ProbeStatus issues a HEAD request and returns the response status code,
// or 0 when the target is unreachable. Probes never touch the cache.
func (c *Client) ProbeStatus(ctx context.Context, url string) int {
	req := c.http.R().SetContext(ctx)
	c.authorize(req, url)

	resp, err := req.Head(url)
	if err != nil {
		return 0
	}
	return resp.StatusCode()
}
