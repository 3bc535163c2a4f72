package search

import (
	"context"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const ApiBaseUrl = "https://www.googleapis.com/customsearch/v1"

// Google Custom Search allows at most 10 results per request.
const maxResults = 10

// Result is one search hit.
type Result struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
}

type searchResponse struct {
	Items []Result `json:"items"`
}

type ClientOpts struct {
	BaseURL  string
	APIKey   string
	EngineID string
}

// Client queries the Google Custom Search API. A client without credentials
// is valid: every search simply returns no results, which callers treat as
// "grounding unavailable" rather than an error.
type Client struct {
	httpClient *resty.Client
	apiKey     string
	engineID   string
	limiter    *rate.Limiter
}

func NewClient(opts ClientOpts) *Client {
	c := Client{
		apiKey:   opts.APIKey,
		engineID: opts.EngineID,
		// Custom Search free tier is 100 queries/day; 1 rps keeps bursts
		// from a single analysis well under the per-minute quota.
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
	baseURL := ApiBaseUrl
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	c.httpClient = resty.New().
		SetDebug(false).
		SetBaseURL(baseURL)

	return &c
}

// Enabled reports whether the client has credentials to search with.
func (c *Client) Enabled() bool {
	return c.apiKey != "" && c.engineID != ""
}

// Search performs a web search and returns up to num results in order.
// Missing credentials, transport errors and non-2xx responses all yield an
// empty slice. Degraded search must never fail an analysis.
func (c *Client) Search(ctx context.Context, query string, num int) []Result {
	if !c.Enabled() {
		return nil
	}
	if num > maxResults {
		num = maxResults
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil
	}

	result := &searchResponse{}
	resp, err := c.httpClient.NewRequest().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key": c.apiKey,
			"cx":  c.engineID,
			"q":   query,
			"num": strconv.Itoa(num),
		}).
		SetResult(result).
		Get("")
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("search request failed")
		return nil
	}
	if resp.IsError() {
		log.Warn().Int("status", resp.StatusCode()).Str("query", query).Msg("search API error")
		return nil
	}

	return result.Items
}
