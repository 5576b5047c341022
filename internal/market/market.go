// Package market fetches the asset quotes used to value holdings.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"kasa/internal/cache"
	"kasa/internal/log"
)

const (
	// DefaultTTL is how long fetched quotes are reused before asking again.
	DefaultTTL = 10 * time.Minute

	cacheKey = "quotes"
)

// troyOunceGrams converts a per-ounce gold price to per gram.
var troyOunceGrams = decimal.RequireFromString("31.1035")

// Defaults are the quotes shown when nothing could ever be fetched.
var Defaults = map[string]decimal.Decimal{
	"gram-altin": decimal.RequireFromString("7550.00"),
	"usd":        decimal.RequireFromString("43.30"),
	"eur":        decimal.RequireFromString("53.20"),
	"btc":        decimal.Zero,
}

// Field extracts one asset price from a provider response.
type Field struct {
	Asset string
	Path  string
	// Divisor, when set, scales the extracted value down.
	Divisor decimal.Decimal
}

// Provider is one HTTP endpoint answering with JSON.
type Provider struct {
	Name   string
	URL    string
	Fields []Field
}

// DefaultProviders quote dollars, bitcoin and gold from CoinGecko (tether
// stands in for the dollar, pax-gold for an ounce of gold) and euros from
// Frankfurter, all in lira.
func DefaultProviders() []Provider {
	return []Provider{
		{
			Name: "coingecko",
			URL:  "https://api.coingecko.com/api/v3/simple/price?ids=tether,pax-gold,bitcoin&vs_currencies=try",
			Fields: []Field{
				{Asset: "usd", Path: "$.tether.try"},
				{Asset: "btc", Path: "$.bitcoin.try"},
				{Asset: "gram-altin", Path: `$["pax-gold"].try`, Divisor: troyOunceGrams},
			},
		},
		{
			Name:   "frankfurter",
			URL:    "https://api.frankfurter.app/latest?from=EUR&to=TRY",
			Fields: []Field{{Asset: "eur", Path: "$.rates.TRY"}},
		},
	}
}

// Quotes are unit prices in major currency units.
type Quotes struct {
	Prices    map[string]decimal.Decimal
	FetchedAt time.Time
	// Fallback is set when some prices are last-known or default values.
	Fallback bool
}

// MinorUnits returns the asset's price in minor units, rounded.
func (q Quotes) MinorUnits(asset string) (int64, bool) {
	p, ok := q.Prices[asset]
	if !ok {
		return 0, false
	}
	return p.Shift(2).Round(0).IntPart(), true
}

func (q Quotes) clone() Quotes {
	out := Quotes{Prices: make(map[string]decimal.Decimal, len(q.Prices)), FetchedAt: q.FetchedAt, Fallback: q.Fallback}
	for k, v := range q.Prices {
		out.Prices[k] = v
	}
	return out
}

// Client fetches quotes from every provider concurrently.
type Client struct {
	http      *http.Client
	providers []Provider
	cache     *cache.LRUCache[Quotes]
	now       func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the default client with a 10 second timeout.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithProviders replaces DefaultProviders.
func WithProviders(p ...Provider) Option {
	return func(c *Client) { c.providers = p }
}

// WithTTL sets how long quotes are cached.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cache = cache.NewLRUCache[Quotes](1, ttl) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 10 * time.Second},
		providers: DefaultProviders(),
		cache:     cache.NewLRUCache[Quotes](1, DefaultTTL),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cache.WithClock(c.now)
	return c
}

// Quotes returns cached quotes while they are fresh, otherwise fetches.
// When any provider fails the result starts from the last known quotes (or
// Defaults), overlays whatever did arrive, and the error is returned next
// to it. Such a result is not cached.
func (c *Client) Quotes(ctx context.Context) (Quotes, error) {
	if q, ok := c.cache.Get(cacheKey); ok {
		return q.clone(), nil
	}
	logger := log.FromContext(ctx).WithComponent(log.ComponentMarket)

	results := make([]map[string]decimal.Decimal, len(c.providers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range c.providers {
		g.Go(func() error {
			prices, err := c.fetch(gctx, p)
			if err != nil {
				return fmt.Errorf("%s: %w", p.Name, err)
			}
			results[i] = prices
			return nil
		})
	}
	err := g.Wait()

	var q Quotes
	if err != nil {
		if last, ok, _ := c.cache.Peek(cacheKey); ok {
			q = last.clone()
		} else {
			q = Quotes{Prices: make(map[string]decimal.Decimal, len(Defaults))}
			for k, v := range Defaults {
				q.Prices[k] = v
			}
		}
		q.Fallback = true
	} else {
		q = Quotes{Prices: make(map[string]decimal.Decimal)}
		q.FetchedAt = c.now()
	}
	for _, prices := range results {
		for k, v := range prices {
			q.Prices[k] = v
		}
	}

	if err != nil {
		logger.WarnContext(ctx, "Market data unavailable, using last known or default quotes",
			log.FieldError, err)
		return q, err
	}
	c.cache.Set(cacheKey, q)
	logger.DebugContext(ctx, "Market quotes fetched", "assets", len(q.Prices))
	return q.clone(), nil
}

var errStatus = errors.New("unexpected status")

func (c *Client) fetch(ctx context.Context, p Provider) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s", errStatus, resp.Status)
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	prices := make(map[string]decimal.Decimal, len(p.Fields))
	for _, f := range p.Fields {
		v, ok := extract(body, f.Path)
		if !ok || !v.IsPositive() {
			continue
		}
		if !f.Divisor.IsZero() {
			v = v.Div(f.Divisor)
		}
		prices[f.Asset] = v
	}
	return prices, nil
}

// extract reads a number at path. Missing paths and non-numbers are
// reported as absent.
func extract(body any, path string) (decimal.Decimal, bool) {
	v, err := jsonpath.Get(path, body)
	if err != nil {
		return decimal.Zero, false
	}
	// jsonpath may answer with a one-element list
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return decimal.Zero, false
		}
		v = list[0]
	}
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
	}
	return decimal.Zero, false
}
