package placesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ddalkkak/course-service/internal/domain"
)

const (
	// DefaultBaseURL is the default place-search API base URL.
	DefaultBaseURL = "https://dapi.kakao.com"

	// keywordSearchPath is the keyword search endpoint.
	keywordSearchPath = "/v2/local/search/keyword.json"

	// PageSize is the fixed number of results requested per page.
	PageSize = 15

	// MaxPages bounds how many pages a single Search call will fetch.
	MaxPages = 3

	// DefaultPacing is the minimum spacing between successive page requests.
	// The provider allows 10 requests/second; this is unconditional pacing,
	// not backoff.
	DefaultPacing = 100 * time.Millisecond
)

// Config holds configuration for the place-search client.
type Config struct {
	// APIKey is the provider REST API key.
	APIKey string

	// BaseURL is the API base URL. Defaults to DefaultBaseURL.
	BaseURL string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxRetries is the retry count for transient failures.
	MaxRetries int

	// RetryDelay is the base backoff delay; doubles per attempt.
	RetryDelay time.Duration

	// MaxRetryDelay caps the backoff delay.
	MaxRetryDelay time.Duration

	// Pacing is the spacing between page requests. Defaults to DefaultPacing.
	Pacing time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = time.Second
	}
	if c.MaxRetryDelay == 0 {
		c.MaxRetryDelay = 5 * time.Second
	}
	if c.Pacing == 0 {
		c.Pacing = DefaultPacing
	}
	if c.RateLimit == 0 {
		c.RateLimit = 10
	}
}

// Query describes one keyword search.
type Query struct {
	// Keyword is the search text (e.g. "홍대 카페").
	Keyword string

	// CategoryGroupCode optionally narrows results to a provider category.
	CategoryGroupCode string

	// Longitude and Latitude center the search when Radius is positive.
	Longitude float64
	Latitude  float64

	// Radius is the search radius in meters around the center.
	Radius int
}

// Client is a paginated keyword-search client for the place-search API.
type Client struct {
	config     Config
	httpClient *HTTPClient
	logger     zerolog.Logger
}

// New creates a new place-search client with the given configuration.
func New(cfg Config, logger zerolog.Logger) *Client {
	cfg.applyDefaults()

	httpClient := NewHTTPClient(HTTPClientConfig{
		Timeout:       cfg.Timeout,
		RateLimit:     cfg.RateLimit,
		MaxRetries:    cfg.MaxRetries,
		RetryDelay:    cfg.RetryDelay,
		MaxRetryDelay: cfg.MaxRetryDelay,
		AuthHeader:    "Authorization",
		AuthValue:     "KakaoAK " + cfg.APIKey,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "placesearch").Logger(),
	}
}

// Search fetches up to MaxPages pages of PageSize results for the query.
// Pages are fetched in order with a mandatory pacing delay between requests.
// It stops early when the provider reports the last page or a page comes back
// empty. A failure on the first page aborts the call; a failure on a later
// page is logged and the hits collected so far are returned.
func (c *Client) Search(ctx context.Context, q Query) ([]Hit, error) {
	hits := make([]Hit, 0, PageSize*MaxPages)

	for page := 1; page <= MaxPages; page++ {
		if page > 1 {
			select {
			case <-ctx.Done():
				return hits, ctx.Err()
			case <-time.After(c.config.Pacing):
			}
		}

		resp, err := c.fetchPage(ctx, q, page)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("search %q: %w", q.Keyword, err)
			}
			c.logger.Warn().
				Err(err).
				Str("keyword", q.Keyword).
				Int("page", page).
				Msg("page request failed, returning partial results")
			return hits, nil
		}

		for _, doc := range resp.Documents {
			hits = append(hits, doc.toHit())
		}

		if resp.Meta.IsEnd || len(resp.Documents) == 0 {
			break
		}
	}

	return hits, nil
}

// fetchPage issues a single page request and decodes the response.
func (c *Client) fetchPage(ctx context.Context, q Query, page int) (*searchResponse, error) {
	params := url.Values{}
	params.Set("query", q.Keyword)
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(PageSize))
	if q.CategoryGroupCode != "" {
		params.Set("category_group_code", q.CategoryGroupCode)
	}
	if q.Radius > 0 {
		params.Set("x", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
		params.Set("y", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
		params.Set("radius", strconv.Itoa(q.Radius))
	}

	endpoint := c.config.BaseURL + keywordSearchPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 4xx responses other than 429 land here: malformed requests are
		// surfaced immediately without retrying.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError("kakao", resp.StatusCode, string(body), nil)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &searchResp, nil
}
