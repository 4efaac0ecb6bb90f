package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

const (
	// DefaultBaseURL is the default OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultRateLimit is the default requests-per-second limit.
	// The polite pool (with email) allows higher rates.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPerPage is the default page size for search requests.
	DefaultPerPage = 25

	// maxPerPage is the OpenAlex API page-size ceiling.
	maxPerPage = 200
)

// Config holds configuration for the OpenAlex client.
type Config struct {
	// BaseURL is the API base URL. Defaults to https://api.openalex.org.
	BaseURL string

	// Email is the contact email for the polite pool.
	Email string

	// Timeout is the request timeout. Defaults to 30 seconds.
	Timeout time.Duration

	// RateLimit is the maximum requests per second. Defaults to 10.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed. Defaults to 10.
	BurstSize int

	// PerPage is the default page size for searches. Defaults to 25.
	PerPage int
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.PerPage == 0 {
		c.PerPage = DefaultPerPage
	}
}

// WorkSearchOptions narrow a works search.
type WorkSearchOptions struct {
	// PerPage is the page size, capped at the API maximum of 200.
	PerPage int

	// Page is the 1-indexed page number; 0 means the first page.
	Page int

	// Filters are raw filter expressions joined with commas, e.g.
	// "type:article" or "topics.id:T10036|T11475".
	Filters []string
}

// Client talks to the OpenAlex API. It implements the provider contract the
// recommendation pipeline depends on: works search, sources search, source
// hydration, and group-by aggregation of works by hosting venue.
type Client struct {
	config     Config
	httpClient *HTTPClient
}

// New creates a new OpenAlex client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := NewHTTPClient(HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: "Helixir-JournalRecommender/1.0 (mailto:" + cfg.Email + ")",
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client, useful for
// testing against mock servers.
func NewWithHTTPClient(cfg Config, httpClient *HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// SearchWorks runs a full-text search over the works index.
func (c *Client) SearchWorks(ctx context.Context, query string, opts WorkSearchOptions) (*WorksResponse, error) {
	endpoint, err := c.buildURL("/works", func(q url.Values) {
		if query != "" {
			q.Set("search", query)
		}
		if len(opts.Filters) > 0 {
			q.Set("filter", strings.Join(opts.Filters, ","))
		}
		q.Set("per_page", strconv.Itoa(c.perPage(opts.PerPage)))
		if opts.Page > 1 {
			q.Set("page", strconv.Itoa(opts.Page))
		}
	})
	if err != nil {
		return nil, err
	}

	var resp WorksResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("searching works: %w", err)
	}
	return &resp, nil
}

// SearchSources runs a full-text search over the sources (venues) index.
func (c *Client) SearchSources(ctx context.Context, query string, perPage int) (*SourcesResponse, error) {
	endpoint, err := c.buildURL("/sources", func(q url.Values) {
		if query != "" {
			q.Set("search", query)
		}
		q.Set("per_page", strconv.Itoa(c.perPage(perPage)))
	})
	if err != nil {
		return nil, err
	}

	var resp SourcesResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("searching sources: %w", err)
	}
	return &resp, nil
}

// FilterSources lists sources matching raw filter expressions, without a
// full-text query. Used to enumerate subfield journals for field statistics.
func (c *Client) FilterSources(ctx context.Context, filters []string, perPage int) (*SourcesResponse, error) {
	endpoint, err := c.buildURL("/sources", func(q url.Values) {
		if len(filters) > 0 {
			q.Set("filter", strings.Join(filters, ","))
		}
		q.Set("per_page", strconv.Itoa(c.perPage(perPage)))
	})
	if err != nil {
		return nil, err
	}

	var resp SourcesResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("filtering sources: %w", err)
	}
	return &resp, nil
}

// GetSource fetches a single source by its OpenAlex ID (short or URL form).
func (c *Client) GetSource(ctx context.Context, id string) (*Source, error) {
	endpoint, err := c.buildURL("/sources/"+ShortID(id), nil)
	if err != nil {
		return nil, err
	}

	var src Source
	if err := c.get(ctx, endpoint, &src); err != nil {
		return nil, fmt.Errorf("fetching source %s: %w", id, err)
	}
	if src.ID == "" {
		return nil, domain.NewNotFoundError("source", id)
	}
	return &src, nil
}

// GroupWorksBySource aggregates works matching the given filter expressions
// into buckets keyed by hosting-venue ID, server side. The filter typically
// constrains by topic-ID list or subfield ID.
func (c *Client) GroupWorksBySource(ctx context.Context, filters []string) ([]GroupCount, error) {
	endpoint, err := c.buildURL("/works", func(q url.Values) {
		if len(filters) > 0 {
			q.Set("filter", strings.Join(filters, ","))
		}
		q.Set("group_by", "primary_location.source.id")
	})
	if err != nil {
		return nil, err
	}

	var resp GroupByResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("grouping works by source: %w", err)
	}
	return resp.GroupBys, nil
}

// get executes a GET request and decodes the JSON response into out.
// Response bodies are limited to 10MB to prevent resource exhaustion.
func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return domain.NewExternalAPIError("OpenAlex", resp.StatusCode, string(body), nil)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// buildURL constructs an API URL for the given path, letting addParams
// populate query parameters. The polite-pool mailto parameter is always
// appended when an email is configured.
func (c *Client) buildURL(path string, addParams func(url.Values)) (string, error) {
	base, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	base.Path = path

	query := url.Values{}
	if addParams != nil {
		addParams(query)
	}
	if c.config.Email != "" {
		query.Set("mailto", c.config.Email)
	}
	base.RawQuery = query.Encode()
	return base.String(), nil
}

// perPage resolves a requested page size against defaults and the API cap.
func (c *Client) perPage(requested int) int {
	perPage := requested
	if perPage == 0 {
		perPage = c.config.PerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return perPage
}

// SourceToJournal converts a full source record into a domain journal.
// This is the single point where raw provider shapes cross into the domain.
func SourceToJournal(src *Source) *domain.Journal {
	if src == nil || src.ID == "" {
		return nil
	}

	topics := make([]string, 0, len(src.Topics))
	for _, t := range src.Topics {
		if t.DisplayName != "" {
			topics = append(topics, t.DisplayName)
		}
	}

	return &domain.Journal{
		ID:           ShortID(src.ID),
		Name:         src.DisplayName,
		ISSN:         src.ISSNL,
		Publisher:    src.HostOrganizationName,
		IsOpenAccess: src.IsOA,
		IsInDOAJ:     src.IsInDOAJ,
		Metrics: domain.JournalMetrics{
			HIndex:             src.SummaryStats.HIndex,
			WorksCount:         src.WorksCount,
			CitedByCount:       src.CitedByCount,
			TwoYrMeanCitedness: src.SummaryStats.TwoYrMeanCitedness,
		},
		Topics:   topics,
		Category: domain.CategorizeJournal(src.SummaryStats.HIndex, src.WorksCount),
	}
}
