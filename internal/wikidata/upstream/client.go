// Package upstream implements the HTTP client for the knowledge base's
// action API and SPARQL-like graph query endpoint: entity fetch, search,
// redirect resolution, and subclass-closure queries.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRateLimit caps outbound calls through the client's limiter at
// five requests per second, with a burst of one.
const DefaultRateLimit = rate.Limit(5.0)

// MaxRetries is the number of retry attempts after a 429 or 5xx response,
// each with exponential backoff starting at one second.
const MaxRetries = 2

// EntityBatchSize is the maximum number of ids the action API accepts in a
// single wbgetentities call.
const EntityBatchSize = 50

// Client talks to the action API (wbgetentities, query, wbsearchentities)
// and the SPARQL-like graph endpoint, rate-limited and retried the way any
// other outbound dependency in this codebase is.
type Client struct {
	httpClient        *http.Client
	mediawikiEndpoint string
	graphEndpoint     string
	userAgent         string
	limiter           *rate.Limiter
}

// Option configures a Client at construction time.
type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithRateLimit(limit rate.Limit) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(limit, 1) }
}

// NewClient constructs a Client against the given action-API and
// graph-query endpoints.
func NewClient(mediawikiEndpoint, graphEndpoint, userAgent string, opts ...Option) *Client {
	c := &Client{
		httpClient:        &http.Client{Timeout: 10 * time.Second},
		mediawikiEndpoint: mediawikiEndpoint,
		graphEndpoint:     graphEndpoint,
		userAgent:         userAgent,
		limiter:           rate.NewLimiter(DefaultRateLimit, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doWithRetry executes req, retrying on 429 and 5xx responses with
// exponential backoff, and waiting on the rate limiter before every
// attempt (including the first).
func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
		} else if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("upstream returned status %d", resp.StatusCode)
		} else {
			return resp, nil
		}

		if attempt < MaxRetries {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("upstream request failed after %d attempts: %w", MaxRetries+1, lastErr)
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// rawEntitiesResponse mirrors the wbgetentities envelope.
type rawEntitiesResponse struct {
	Entities map[string]rawEntity `json:"entities"`
}

type rawEntity struct {
	ID           string                          `json:"id"`
	Missing      *string                         `json:"missing,omitempty"`
	Labels       map[string]rawMonolingual       `json:"labels"`
	Descriptions map[string]rawMonolingual       `json:"descriptions"`
	Aliases      map[string][]rawMonolingual     `json:"aliases"`
	Claims       map[string][]rawClaim           `json:"claims"`
	Sitelinks    map[string]rawSitelink          `json:"sitelinks"`
}

type rawMonolingual struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

type rawSitelink struct {
	Site  string `json:"site"`
	Title string `json:"title"`
}

type rawClaim struct {
	Mainsnak   rawSnak              `json:"mainsnak"`
	Rank       string               `json:"rank"`
	Qualifiers map[string][]rawSnak `json:"qualifiers"`
	References []rawReference       `json:"references"`
}

type rawReference struct {
	Snaks map[string][]rawSnak `json:"snaks"`
}

type rawSnak struct {
	SnakType  string          `json:"snaktype"`
	Property  string          `json:"property"`
	DataType  string          `json:"datatype"`
	DataValue json.RawMessage `json:"datavalue"`
}

// GetEntities fetches up to EntityBatchSize entities in one call, fully
// decoded into value.Value terms. The caller (the entity store) is
// responsible for chunking larger id sets and minifying the result before
// caching it.
func (c *Client) GetEntities(ctx context.Context, ids []string) (map[string]Entity, error) {
	if len(ids) == 0 {
		return map[string]Entity{}, nil
	}
	if len(ids) > EntityBatchSize {
		return nil, fmt.Errorf("GetEntities: %d ids exceeds batch size %d", len(ids), EntityBatchSize)
	}
	params := url.Values{
		"action": {"wbgetentities"},
		"format": {"json"},
		"props":  {"aliases|labels|descriptions|claims|sitelinks"},
		"ids":    {strings.Join(ids, "|")},
	}
	body, err := c.get(ctx, c.mediawikiEndpoint, params)
	if err != nil {
		return nil, err
	}
	var parsed rawEntitiesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode wbgetentities response: %w", err)
	}
	return DecodeEntities(parsed.Entities), nil
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

// Search runs a full-text search over item pages (namespace 0) and
// returns matching entity ids, ordered by upstream relevance.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"list":        {"search"},
		"srsearch":    {query},
		"srnamespace": {"0"},
		"srlimit":     {fmt.Sprintf("%d", limit)},
	}
	body, err := c.get(ctx, c.mediawikiEndpoint, params)
	if err != nil {
		return nil, err
	}
	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]string, 0, len(parsed.Query.Search))
	for _, r := range parsed.Query.Search {
		ids = append(ids, r.Title)
	}
	return ids, nil
}

type searchEntitiesResponse struct {
	Search []struct {
		ID string `json:"id"`
	} `json:"search"`
}

// SearchEntities runs the label/alias autocomplete search
// (action=wbsearchentities) and returns matching entity ids, ordered by
// upstream relevance. The reconciliation engine fires this alongside
// Search and concatenates both result sets, since namespace search and
// label autocomplete surface different candidates for the same query.
func (c *Client) SearchEntities(ctx context.Context, query, lang string, limit int) ([]string, error) {
	if lang == "" {
		lang = "en"
	}
	params := url.Values{
		"action":   {"wbsearchentities"},
		"format":   {"json"},
		"type":     {"item"},
		"language": {lang},
		"search":   {query},
		"limit":    {fmt.Sprintf("%d", limit)},
	}
	body, err := c.get(ctx, c.mediawikiEndpoint, params)
	if err != nil {
		return nil, err
	}
	var parsed searchEntitiesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode wbsearchentities response: %w", err)
	}
	ids := make([]string, 0, len(parsed.Search))
	for _, r := range parsed.Search {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

type redirectsResponse struct {
	Query struct {
		Redirects []struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"redirects"`
	} `json:"query"`
}

// ResolveRedirects follows wiki-page redirects for the given titles on the
// site identified by siteEndpoint (a full action-API URL for that wiki),
// returning a map from the original title to the redirect target (titles
// with no redirect are omitted).
func (c *Client) ResolveRedirects(ctx context.Context, siteEndpoint string, titles []string) (map[string]string, error) {
	if len(titles) == 0 {
		return map[string]string{}, nil
	}
	params := url.Values{
		"action":    {"query"},
		"format":    {"json"},
		"redirects": {"1"},
		"titles":    {strings.Join(titles, "|")},
	}
	body, err := c.get(ctx, siteEndpoint, params)
	if err != nil {
		return nil, err
	}
	var parsed redirectsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode redirects response: %w", err)
	}
	out := make(map[string]string, len(parsed.Query.Redirects))
	for _, r := range parsed.Query.Redirects {
		out[r.From] = r.To
	}
	return out, nil
}

type sitelinksResponse struct {
	Entities map[string]struct {
		ID        string `json:"id"`
		Sitelinks map[string]struct {
			Title string `json:"title"`
		} `json:"sitelinks"`
	} `json:"entities"`
}

// ItemIDForSitelink resolves a (site id, page title) pair to the entity
// id that carries that sitelink, if any.
func (c *Client) ItemIDForSitelink(ctx context.Context, site, title string) (string, bool, error) {
	params := url.Values{
		"action": {"wbgetentities"},
		"format": {"json"},
		"props":  {"sitelinks"},
		"sites":  {site},
		"titles": {title},
	}
	body, err := c.get(ctx, c.mediawikiEndpoint, params)
	if err != nil {
		return "", false, err
	}
	var parsed sitelinksResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", false, fmt.Errorf("decode sitelinks response: %w", err)
	}
	for id := range parsed.Entities {
		if strings.HasPrefix(id, "-") {
			continue
		}
		return id, true, nil
	}
	return "", false, nil
}
