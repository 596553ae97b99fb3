package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/duality-labs/dex-indexer/pkg/utils"
)

const txsPath = "/cosmos/tx/v1beta1/txs"

// DefaultPageLimit is the page size requested from the feed.
const DefaultPageLimit = 100

// Client is a wrapper around an http.Client that implements a token-bucket
// rate limit and a per-endpoint circuit breaker for the upstream tx feed.
type Client struct {
	endpoints []string
	client    *http.Client
	pageLimit uint64

	// token-bucket
	tokens      int64
	maxTokens   int64
	refillEvery time.Duration
	lastRefill  atomic.Value // time.Time

	// circuit-breaker
	mu       sync.Mutex
	failures map[string]int
	opened   map[string]time.Time

	breakerThreshold int
	breakerCooldown  time.Duration
}

// Opts is the set of options for a new Client.
type Opts struct {
	Endpoints       []string
	Timeout         time.Duration
	RPS             int
	Burst           int
	PageLimit       uint64
	BreakerFailures int
	BreakerCooldown time.Duration
	HTTPClient      *http.Client
}

// New creates a feed client with the given options.
func New(o Opts) *Client {
	if o.RPS <= 0 {
		o.RPS = 20
	}
	if o.Burst <= 0 {
		o.Burst = 40
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.PageLimit == 0 {
		o.PageLimit = DefaultPageLimit
	}
	if o.BreakerFailures <= 0 {
		o.BreakerFailures = 3
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = 5 * time.Second
	}

	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: o.Timeout}
	} else if client.Timeout == 0 {
		client.Timeout = o.Timeout
	}

	c := &Client{
		endpoints:        utils.Dedup(o.Endpoints),
		client:           client,
		pageLimit:        o.PageLimit,
		maxTokens:        int64(o.Burst),
		refillEvery:      time.Second / time.Duration(o.RPS),
		failures:         map[string]int{},
		opened:           map[string]time.Time{},
		breakerThreshold: o.BreakerFailures,
		breakerCooldown:  o.BreakerCooldown,
	}
	c.tokens = c.maxTokens
	c.lastRefill.Store(time.Now())
	return c
}

func (c *Client) refill() {
	last := c.lastRefill.Load().(time.Time)
	now := time.Now()
	if now.Sub(last) >= c.refillEvery {
		if atomic.LoadInt64(&c.tokens) < c.maxTokens {
			atomic.AddInt64(&c.tokens, 1)
		}
		c.lastRefill.Store(now)
	}
}

func (c *Client) acquire(ctx context.Context) error {
	for {
		c.refill()
		if atomic.LoadInt64(&c.tokens) > 0 {
			atomic.AddInt64(&c.tokens, -1)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.refillEvery / 2):
		}
	}
}

// available reports whether the endpoint's breaker allows a request.
func (c *Client) available(ep string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	openedAt, open := c.opened[ep]
	if !open {
		return true
	}
	if time.Since(openedAt) >= c.breakerCooldown {
		// Half-open: allow one probe through.
		delete(c.opened, ep)
		c.failures[ep] = c.breakerThreshold - 1
		return true
	}
	return false
}

func (c *Client) recordFailure(ep string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[ep]++
	if c.failures[ep] >= c.breakerThreshold {
		c.opened[ep] = time.Now()
	}
}

func (c *Client) recordSuccess(ep string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[ep] = 0
	delete(c.opened, ep)
}

// getJSON performs a rate-limited GET against each available endpoint in turn
// until one succeeds, decoding the response body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}

	var lastErr error
	for _, ep := range c.endpoints {
		if !c.available(ep) {
			continue
		}

		u := ep + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			c.recordFailure(ep)
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_ = utils.DrainAndClose(resp.Body)
			c.recordFailure(ep)
			lastErr = fmt.Errorf("endpoint %s returned status %d", ep, resp.StatusCode)
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		_ = utils.DrainAndClose(resp.Body)
		if err != nil {
			c.recordFailure(ep)
			lastErr = fmt.Errorf("decode response from %s: %w", ep, err)
			continue
		}

		c.recordSuccess(ep)
		return nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no available endpoints")
	}
	return lastErr
}

// Probe tests reachability of the feed with a minimal single-item query.
func (c *Client) Probe(ctx context.Context) error {
	query := url.Values{}
	query.Set("events", "tx.height>=1")
	query.Set("pagination.limit", "1")
	var page TxPage
	return c.getJSON(ctx, txsPath, query, &page)
}

// GetTxs fetches one page of transactions with height >= fromHeight at the
// given offset, in ascending height order.
func (c *Client) GetTxs(ctx context.Context, fromHeight int64, offset uint64) (*TxPage, error) {
	query := url.Values{}
	query.Set("events", fmt.Sprintf("tx.height>=%d", fromHeight))
	query.Set("pagination.offset", fmt.Sprintf("%d", offset))
	query.Set("pagination.limit", fmt.Sprintf("%d", c.pageLimit))
	query.Set("pagination.count_total", "true")
	query.Set("order_by", "ORDER_BY_ASC")

	var page TxPage
	if err := c.getJSON(ctx, txsPath, query, &page); err != nil {
		return nil, fmt.Errorf("fetch txs from height %d offset %d: %w", fromHeight, offset, err)
	}
	return &page, nil
}

// PageLimit returns the configured page size.
func (c *Client) PageLimit() uint64 {
	return c.pageLimit
}
