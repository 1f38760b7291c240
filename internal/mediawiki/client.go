// Package mediawiki talks to the MediaWiki action API: page discovery, link
// listing, redirect lookup and existence checks.
package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/agenthands/linkgraph/internal/config"
	"github.com/agenthands/linkgraph/internal/metrics"
	"github.com/agenthands/linkgraph/internal/platform/logger"
)

// MaxTitles is the most titles one query may carry.
const MaxTitles = 50

// HTTPClient allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	apiURL     string
	userAgent  string
	namespace  int
	linksLimit int
	timeout    time.Duration
	http       HTTPClient
	limiter    *rate.Limiter
	log        *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit enforces at least delay between consecutive requests. A zero
// delay disables the limit.
func WithRateLimit(delay time.Duration) Option {
	return func(c *Client) {
		if delay <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithNamespace(ns int) Option {
	return func(c *Client) { c.namespace = ns }
}

func WithLinksLimit(n int) Option {
	return func(c *Client) { c.linksLimit = n }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = logger.OrNop(l).With("client", "mediawiki") }
}

func New(apiURL string, opts ...Option) *Client {
	c := &Client{
		apiURL:     apiURL,
		userAgent:  "linkgraph/1.0",
		linksLimit: 500,
		timeout:    10 * time.Second,
		http:       http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Every(300*time.Millisecond), 1),
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func NewFromConfig(cfg config.WikiConfig, log *logger.Logger) *Client {
	return New(cfg.APIURL,
		WithUserAgent(cfg.UserAgent),
		WithNamespace(cfg.Namespace),
		WithLinksLimit(cfg.LinksLimit),
		WithTimeout(cfg.RequestTimeout.Duration),
		WithRateLimit(cfg.RateLimitDelay.Duration),
		WithLogger(log),
	)
}

type titleEntry struct {
	NS    int    `json:"ns"`
	Title string `json:"title"`
}

type titlePair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type page struct {
	PageID  int          `json:"pageid"`
	NS      int          `json:"ns"`
	Title   string       `json:"title"`
	Missing *string      `json:"missing"`
	Invalid *string      `json:"invalid"`
	Links   []titleEntry `json:"links"`
}

func (p page) exists() bool {
	return p.Missing == nil && p.Invalid == nil
}

type queryResponse struct {
	Continue map[string]string `json:"continue"`
	Query    struct {
		AllPages   []titleEntry    `json:"allpages"`
		Normalized []titlePair     `json:"normalized"`
		Redirects  []titlePair     `json:"redirects"`
		Pages      map[string]page `json:"pages"`
	} `json:"query"`
	Error *APIError `json:"error"`
}

// query runs one action=query request. Every call waits on the rate limiter
// first.
func (c *Client) query(ctx context.Context, params url.Values) (*queryResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params.Set("action", "query")
	params.Set("format", "json")
	reqURL := c.apiURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	metrics.APIRequestDuration.WithLabelValues(strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return nil, out.Error
	}
	return &out, nil
}

func checkBatch(titles []string) error {
	if len(titles) == 0 {
		return ErrEmptyBatch
	}
	if len(titles) > MaxTitles {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(titles), MaxTitles)
	}
	return nil
}

func joinTitles(titles []string) string {
	return strings.Join(titles, "|")
}
