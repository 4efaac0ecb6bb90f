package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

func TestProfileRoundTrip(t *testing.T) {
	s := newTestServer(Deps{ProfileRepo: newMemProfileRepo()})
	userID := uuid.New()
	base := "/api/v1/users/" + userID.String()

	rec := doJSON(t, s.Router(), http.MethodGet, base+"/profile", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s.Router(), http.MethodPut, base+"/profile", map[string]any{
		"display_name":       "Dr. Example",
		"affiliation":        "Example University",
		"prefer_open_access": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s.Router(), http.MethodGet, base+"/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp profileResponse
	decodeBodyInto(t, rec, &resp)
	assert.Equal(t, userID.String(), resp.UserID)
	assert.Equal(t, "Dr. Example", resp.DisplayName)
	assert.True(t, resp.PreferOpenAccess)
}

func TestProfileNotEnabled(t *testing.T) {
	s := newTestServer(Deps{})

	rec := doJSON(t, s.Router(), http.MethodGet, "/api/v1/users/"+uuid.NewString()+"/profile", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestSavedSearchLifecycle(t *testing.T) {
	s := newTestServer(Deps{SearchRepo: newMemSearchRepo()})
	userID := uuid.New()
	base := "/api/v1/users/" + userID.String() + "/saved-searches"

	rec := doJSON(t, s.Router(), http.MethodPost, base, map[string]any{
		"name":     "ECG project",
		"title":    "Deep learning for ECG arrhythmia detection",
		"keywords": []string{"electrocardiography"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created savedSearchResponse
	decodeBodyInto(t, rec, &created)
	assert.Equal(t, "ECG project", created.Name)
	require.NotEmpty(t, created.ID)

	rec = doJSON(t, s.Router(), http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list listSavedSearchesResponse
	decodeBodyInto(t, rec, &list)
	assert.EqualValues(t, 1, list.TotalCount)
	require.Len(t, list.Searches, 1)

	rec = doJSON(t, s.Router(), http.MethodGet, base+"/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s.Router(), http.MethodDelete, base+"/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s.Router(), http.MethodGet, base+"/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSavedSearchOwnership(t *testing.T) {
	searchRepo := newMemSearchRepo()
	s := newTestServer(Deps{SearchRepo: searchRepo})

	owner := uuid.New()
	search := &domain.SavedSearch{
		ID:     uuid.New(),
		UserID: owner,
		Name:   "private search",
		Title:  "A manuscript only the owner should see",
	}
	searchRepo.saved[search.ID] = search

	// Another user cannot read or delete it.
	other := uuid.New()
	base := "/api/v1/users/" + other.String() + "/saved-searches/" + search.ID.String()

	rec := doJSON(t, s.Router(), http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s.Router(), http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveSearchValidation(t *testing.T) {
	s := newTestServer(Deps{SearchRepo: newMemSearchRepo()})
	base := "/api/v1/users/" + uuid.NewString() + "/saved-searches"

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "missing name", body: map[string]any{"title": "A valid manuscript title"}},
		{name: "missing title", body: map[string]any{"name": "my search"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s.Router(), http.MethodPost, base, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestListSearchHistory(t *testing.T) {
	searchRepo := newMemSearchRepo()
	userID := uuid.New()
	searchRepo.log = append(searchRepo.log, &domain.SearchLogEntry{
		ID:                uuid.New(),
		UserID:            userID,
		Title:             "Deep learning for ECG arrhythmia detection",
		PrimaryDiscipline: "cardiology",
		ResultCount:       5,
		DurationMS:        1200,
		CreatedAt:         time.Now().UTC(),
	})

	s := newTestServer(Deps{SearchRepo: searchRepo})

	rec := doJSON(t, s.Router(), http.MethodGet, "/api/v1/users/"+userID.String()+"/searches", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listSearchLogResponse
	decodeBodyInto(t, rec, &resp)
	assert.EqualValues(t, 1, resp.TotalCount)
	require.Len(t, resp.Searches, 1)
	assert.Equal(t, "cardiology", resp.Searches[0].PrimaryDiscipline)
	assert.Equal(t, 5, resp.Searches[0].ResultCount)

	// A different user sees an empty history.
	rec = doJSON(t, s.Router(), http.MethodGet, "/api/v1/users/"+uuid.NewString()+"/searches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBodyInto(t, rec, &resp)
	assert.EqualValues(t, 0, resp.TotalCount)
}

func TestSubmitAndListFeedback(t *testing.T) {
	feedbackRepo := &memFeedbackRepo{}
	s := newTestServer(Deps{FeedbackRepo: feedbackRepo})
	userID := uuid.New()
	searchID := uuid.New()

	for i, helpful := range []bool{true, true, false} {
		rec := doJSON(t, s.Router(), http.MethodPost, "/api/v1/users/"+userID.String()+"/feedback", map[string]any{
			"journal_id": "S137773608",
			"search_id":  searchID.String(),
			"helpful":    helpful,
			"comment":    fmt.Sprintf("note %d", i),
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, s.Router(), http.MethodGet, "/api/v1/journals/S137773608/feedback", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listFeedbackResponse
	decodeBodyInto(t, rec, &resp)
	assert.EqualValues(t, 3, resp.TotalCount)
	assert.InDelta(t, 2.0/3.0, resp.HelpfulRate, 0.001)
	require.Len(t, resp.Feedback, 3)
}

func TestSubmitFeedbackValidation(t *testing.T) {
	s := newTestServer(Deps{FeedbackRepo: &memFeedbackRepo{}})
	base := "/api/v1/users/" + uuid.NewString() + "/feedback"

	rec := doJSON(t, s.Router(), http.MethodPost, base, map[string]any{
		"search_id": uuid.NewString(),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "journal_id is required")

	rec = doJSON(t, s.Router(), http.MethodPost, base, map[string]any{
		"journal_id": "S137773608",
		"search_id":  "not-a-uuid",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShareLifecycle(t *testing.T) {
	s := newTestServer(Deps{ShareRepo: newMemShareRepo()})
	userID := uuid.New()
	base := "/api/v1/users/" + userID.String() + "/shares"

	payload := json.RawMessage(`{"journals":[{"id":"S137773608","name":"Circulation"}]}`)
	rec := doJSON(t, s.Router(), http.MethodPost, base, map[string]any{
		"results":          payload,
		"expires_in_hours": 24,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created shareResponse
	decodeBodyInto(t, rec, &created)
	require.NotEmpty(t, created.Token)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), created.ExpiresAt, time.Minute)

	// Resolving is public, no user scope.
	rec = doJSON(t, s.Router(), http.MethodGet, "/api/v1/shares/"+created.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resolved map[string]json.RawMessage
	decodeBodyInto(t, rec, &resolved)
	assert.JSONEq(t, string(payload), string(resolved["results"]))

	rec = doJSON(t, s.Router(), http.MethodDelete, base+"/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestResolveShareUnknownToken(t *testing.T) {
	s := newTestServer(Deps{ShareRepo: newMemShareRepo()})

	rec := doJSON(t, s.Router(), http.MethodGet, "/api/v1/shares/deadbeefdeadbeef", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateShareDefaultExpiry(t *testing.T) {
	s := newTestServer(Deps{ShareRepo: newMemShareRepo()})
	base := "/api/v1/users/" + uuid.NewString() + "/shares"

	rec := doJSON(t, s.Router(), http.MethodPost, base, map[string]any{
		"results": json.RawMessage(`{"journals":[]}`),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created shareResponse
	decodeBodyInto(t, rec, &created)
	assert.WithinDuration(t, time.Now().Add(defaultShareTTLHours*time.Hour), created.ExpiresAt, time.Minute)
}
