package openalex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

// newTestClient spins up a mock API server and a client pointed at it. The
// returned values capture the query of the most recent request.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *url.Values) {
	t.Helper()

	var lastQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastQuery = r.URL.Query()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewWithHTTPClient(
		Config{BaseURL: srv.URL, Email: "dev@helixir.io"},
		NewHTTPClient(HTTPClientConfig{
			RateLimit:  1000,
			BurstSize:  1000,
			RetryDelay: time.Millisecond,
		}),
	)
	return client, &lastQuery
}

func respondJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestSearchWorks(t *testing.T) {
	client, query := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/works", r.URL.Path)
		respondJSON(`{
			"meta": {"count": 1},
			"results": [{
				"id": "https://openalex.org/W1",
				"title": "Atrial fibrillation detection",
				"primary_location": {"source": {"id": "https://openalex.org/S1", "display_name": "Circulation", "type": "journal"}}
			}]
		}`)(w, r)
	})

	resp, err := client.SearchWorks(context.Background(), "atrial fibrillation", WorkSearchOptions{
		Filters: []string{"type:article|review"},
	})
	require.NoError(t, err)

	assert.Equal(t, "atrial fibrillation", query.Get("search"))
	assert.Equal(t, "type:article|review", query.Get("filter"))
	assert.Equal(t, "25", query.Get("per_page"))
	assert.Equal(t, "dev@helixir.io", query.Get("mailto"))
	assert.Empty(t, query.Get("page"))

	require.Len(t, resp.Results, 1)
	assert.Equal(t, 1, resp.Meta.Count)
	assert.Equal(t, "Atrial fibrillation detection", resp.Results[0].Title)
	require.NotNil(t, resp.Results[0].PrimaryLocation)
	assert.Equal(t, "journal", resp.Results[0].PrimaryLocation.Source.Type)
}

func TestSearchWorksPageSizeCappedAtAPIMax(t *testing.T) {
	client, query := newTestClient(t, respondJSON(`{"meta": {}, "results": []}`))

	_, err := client.SearchWorks(context.Background(), "q", WorkSearchOptions{PerPage: 500, Page: 3})
	require.NoError(t, err)

	assert.Equal(t, "200", query.Get("per_page"))
	assert.Equal(t, "3", query.Get("page"))
}

func TestSearchSources(t *testing.T) {
	client, query := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sources", r.URL.Path)
		respondJSON(`{
			"meta": {"count": 1},
			"results": [{"id": "https://openalex.org/S1", "display_name": "Europace", "type": "journal", "works_count": 12000}]
		}`)(w, r)
	})

	resp, err := client.SearchSources(context.Background(), "cardiology", 10)
	require.NoError(t, err)

	assert.Equal(t, "cardiology", query.Get("search"))
	assert.Equal(t, "10", query.Get("per_page"))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Europace", resp.Results[0].DisplayName)
}

func TestFilterSources(t *testing.T) {
	client, query := newTestClient(t, respondJSON(`{"meta": {}, "results": []}`))

	_, err := client.FilterSources(context.Background(), []string{"topics.subfield.id:2705", "type:journal"}, 100)
	require.NoError(t, err)

	assert.Equal(t, "topics.subfield.id:2705,type:journal", query.Get("filter"))
	assert.Empty(t, query.Get("search"))
	assert.Equal(t, "100", query.Get("per_page"))
}

func TestGetSource(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sources/S137773608", r.URL.Path)
		respondJSON(`{"id": "https://openalex.org/S137773608", "display_name": "Circulation"}`)(w, r)
	})

	src, err := client.GetSource(context.Background(), "https://openalex.org/S137773608")
	require.NoError(t, err)
	assert.Equal(t, "Circulation", src.DisplayName)
}

func TestGetSourceNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetSource(context.Background(), "S404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetSourceEmptyRecord(t *testing.T) {
	client, _ := newTestClient(t, respondJSON(`{}`))

	_, err := client.GetSource(context.Background(), "S1")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "source", notFound.Entity)
	assert.Equal(t, "S1", notFound.ID)
}

func TestClientMapsAPIErrors(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": "invalid filter"}`))
	})

	_, err := client.SearchSources(context.Background(), "q", 10)
	var apiErr *domain.ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "OpenAlex", apiErr.Source)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "invalid filter")
}

func TestGroupWorksBySource(t *testing.T) {
	client, query := newTestClient(t, respondJSON(`{
		"meta": {"count": 2},
		"group_by": [
			{"key": "https://openalex.org/S1", "key_display_name": "Circulation", "count": 5200},
			{"key": "https://openalex.org/S2", "key_display_name": "Europace", "count": 1800}
		]
	}`))

	groups, err := client.GroupWorksBySource(context.Background(), []string{"topics.id:T10036|T11475"})
	require.NoError(t, err)

	assert.Equal(t, "primary_location.source.id", query.Get("group_by"))
	assert.Equal(t, "topics.id:T10036|T11475", query.Get("filter"))
	require.Len(t, groups, 2)
	assert.Equal(t, "Circulation", groups[0].KeyDisplayName)
	assert.Equal(t, 5200, groups[0].Count)
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.InDelta(t, DefaultRateLimit, cfg.RateLimit, 1e-9)
	assert.Equal(t, DefaultBurstSize, cfg.BurstSize)
	assert.Equal(t, DefaultPerPage, cfg.PerPage)
}
