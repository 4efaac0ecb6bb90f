package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/helixir/journal-recommender-service/internal/domain"
	"github.com/helixir/journal-recommender-service/internal/repository"
)

// Share link lifetime bounds, in hours.
const (
	defaultShareTTLHours = 168 // one week
	maxShareTTLHours     = 720 // thirty days
)

// profileRequest is the JSON body for PUT /users/{userID}/profile.
type profileRequest struct {
	DisplayName      string `json:"display_name" validate:"max=200"`
	Affiliation      string `json:"affiliation" validate:"max=500"`
	PreferOpenAccess bool   `json:"prefer_open_access"`
}

type profileResponse struct {
	UserID           string    `json:"user_id"`
	DisplayName      string    `json:"display_name,omitempty"`
	Affiliation      string    `json:"affiliation,omitempty"`
	PreferOpenAccess bool      `json:"prefer_open_access"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// getProfile handles GET /users/{userID}/profile.
func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	if s.profileRepo == nil {
		writeError(w, http.StatusNotImplemented, "profiles are not enabled")
		return
	}
	userID := userIDFromContext(r.Context())

	profile, err := s.profileRepo.GetProfile(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileToResponse(profile))
}

// upsertProfile handles PUT /users/{userID}/profile.
func (s *Server) upsertProfile(w http.ResponseWriter, r *http.Request) {
	if s.profileRepo == nil {
		writeError(w, http.StatusNotImplemented, "profiles are not enabled")
		return
	}
	userID := userIDFromContext(r.Context())

	var req profileRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	stored, err := s.profileRepo.UpsertProfile(r.Context(), &domain.UserProfile{
		UserID:           userID,
		DisplayName:      req.DisplayName,
		Affiliation:      req.Affiliation,
		PreferOpenAccess: req.PreferOpenAccess,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileToResponse(stored))
}

// saveSearchRequest is the JSON body for POST /users/{userID}/saved-searches.
type saveSearchRequest struct {
	Name     string   `json:"name" validate:"required,min=1,max=200"`
	Title    string   `json:"title" validate:"required,min=3,max=2000"`
	Abstract string   `json:"abstract" validate:"max=20000"`
	Keywords []string `json:"keywords" validate:"max=25,dive,min=1,max=200"`
}

type savedSearchResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Abstract  string    `json:"abstract,omitempty"`
	Keywords  []string  `json:"keywords,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type listSavedSearchesResponse struct {
	Searches   []savedSearchResponse `json:"searches"`
	TotalCount int64                 `json:"total_count"`
}

// saveSearch handles POST /users/{userID}/saved-searches.
func (s *Server) saveSearch(w http.ResponseWriter, r *http.Request) {
	if s.searchRepo == nil {
		writeError(w, http.StatusNotImplemented, "saved searches are not enabled")
		return
	}
	userID := userIDFromContext(r.Context())

	var req saveSearchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	search := &domain.SavedSearch{
		UserID:       userID,
		Name:         req.Name,
		Title:        req.Title,
		Abstract:     req.Abstract,
		UserKeywords: req.Keywords,
	}
	if err := s.searchRepo.SaveSearch(r.Context(), search); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, savedSearchToResponse(search))
}

// listSavedSearches handles GET /users/{userID}/saved-searches.
func (s *Server) listSavedSearches(w http.ResponseWriter, r *http.Request) {
	if s.searchRepo == nil {
		writeError(w, http.StatusNotImplemented, "saved searches are not enabled")
		return
	}
	userID := userIDFromContext(r.Context())
	limit, offset := paginationParams(r)

	searches, total, err := s.searchRepo.GetSavedSearches(r.Context(), userID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]savedSearchResponse, len(searches))
	for i, search := range searches {
		out[i] = savedSearchToResponse(search)
	}
	writeJSON(w, http.StatusOK, listSavedSearchesResponse{Searches: out, TotalCount: total})
}

// getSavedSearch handles GET /users/{userID}/saved-searches/{searchID}.
func (s *Server) getSavedSearch(w http.ResponseWriter, r *http.Request) {
	if s.searchRepo == nil {
		writeError(w, http.StatusNotImplemented, "saved searches are not enabled")
		return
	}
	userID := userIDFromContext(r.Context())

	searchID, err := uuid.Parse(chi.URLParam(r, "searchID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid search ID")
		return
	}

	search, err := s.searchRepo.GetSavedSearch(r.Context(), searchID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if search.UserID != userID {
		writeError(w, http.StatusNotFound, "saved search not found")
		return
	}
	writeJSON(w, http.StatusOK, savedSearchToResponse(search))
}

// deleteSavedSearch handles DELETE /users/{userID}/saved-searches/{searchID}.
func (s *Server) deleteSavedSearch(w http.ResponseWriter, r *http.Request) {
	if s.searchRepo == nil {
		writeError(w, http.StatusNotImplemented, "saved searches are not enabled")
		return
	}
	userID := userIDFromContext(r.Context())

	searchID, err := uuid.Parse(chi.URLParam(r, "searchID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid search ID")
		return
	}

	if err := s.searchRepo.DeleteSavedSearch(r.Context(), searchID, userID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type searchLogResponse struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	PrimaryDiscipline string    `json:"primary_discipline,omitempty"`
	ResultCount       int       `json:"result_count"`
	LLMUsed           bool      `json:"llm_used"`
	DurationMS        int64     `json:"duration_ms"`
	CreatedAt         time.Time `json:"created_at"`
}

type listSearchLogResponse struct {
	Searches   []searchLogResponse `json:"searches"`
	TotalCount int64               `json:"total_count"`
}

// listSearchHistory handles GET /users/{userID}/searches.
func (s *Server) listSearchHistory(w http.ResponseWriter, r *http.Request) {
	if s.searchRepo == nil {
		writeError(w, http.StatusNotImplemented, "search history is not enabled")
		return
	}
	userID := userIDFromContext(r.Context())
	limit, offset := paginationParams(r)

	entries, total, err := s.searchRepo.ListSearchLog(r.Context(), repository.SearchLogFilter{
		UserID: &userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]searchLogResponse, len(entries))
	for i, e := range entries {
		out[i] = searchLogResponse{
			ID:                e.ID.String(),
			Title:             e.Title,
			PrimaryDiscipline: e.PrimaryDiscipline,
			ResultCount:       e.ResultCount,
			LLMUsed:           e.LLMUsed,
			DurationMS:        e.DurationMS,
			CreatedAt:         e.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, listSearchLogResponse{Searches: out, TotalCount: total})
}

// feedbackRequest is the JSON body for POST /users/{userID}/feedback.
type feedbackRequest struct {
	JournalID string `json:"journal_id" validate:"required,min=1,max=100"`
	SearchID  string `json:"search_id" validate:"required,uuid"`
	Helpful   bool   `json:"helpful"`
	Comment   string `json:"comment" validate:"max=2000"`
}

type feedbackResponse struct {
	ID        string    `json:"id"`
	JournalID string    `json:"journal_id"`
	SearchID  string    `json:"search_id"`
	Helpful   bool      `json:"helpful"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// submitFeedback handles POST /users/{userID}/feedback.
func (s *Server) submitFeedback(w http.ResponseWriter, r *http.Request) {
	if s.feedbackRepo == nil {
		writeError(w, http.StatusNotImplemented, "feedback is not enabled")
		return
	}
	userID := userIDFromContext(r.Context())

	var req feedbackRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	searchID, err := uuid.Parse(req.SearchID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid search ID")
		return
	}

	fb := &domain.Feedback{
		UserID:    userID,
		JournalID: req.JournalID,
		SearchID:  searchID,
		Helpful:   req.Helpful,
		Comment:   req.Comment,
	}
	if err := s.feedbackRepo.SubmitFeedback(r.Context(), fb); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, feedbackToResponse(fb))
}

type listFeedbackResponse struct {
	Feedback    []feedbackResponse `json:"feedback"`
	TotalCount  int64              `json:"total_count"`
	HelpfulRate float64            `json:"helpful_rate"`
}

// listJournalFeedback handles GET /journals/{journalID}/feedback.
func (s *Server) listJournalFeedback(w http.ResponseWriter, r *http.Request) {
	if s.feedbackRepo == nil {
		writeError(w, http.StatusNotImplemented, "feedback is not enabled")
		return
	}
	journalID := chi.URLParam(r, "journalID")
	limit, offset := paginationParams(r)

	feedback, total, err := s.feedbackRepo.ListFeedbackForJournal(r.Context(), journalID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	rate, _, err := s.feedbackRepo.HelpfulRate(r.Context(), journalID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]feedbackResponse, len(feedback))
	for i, fb := range feedback {
		out[i] = feedbackToResponse(fb)
	}
	writeJSON(w, http.StatusOK, listFeedbackResponse{Feedback: out, TotalCount: total, HelpfulRate: rate})
}

// shareRequest is the JSON body for POST /users/{userID}/shares. Results is
// stored verbatim and returned to whoever resolves the link.
type shareRequest struct {
	Results        json.RawMessage `json:"results" validate:"required"`
	ExpiresInHours int             `json:"expires_in_hours" validate:"omitempty,min=1,max=720"`
}

type shareResponse struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// createShare handles POST /users/{userID}/shares.
func (s *Server) createShare(w http.ResponseWriter, r *http.Request) {
	if s.shareRepo == nil {
		writeError(w, http.StatusNotImplemented, "share links are not enabled")
		return
	}
	userID := userIDFromContext(r.Context())

	var req shareRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	ttl := req.ExpiresInHours
	if ttl <= 0 {
		ttl = defaultShareTTLHours
	}
	if ttl > maxShareTTLHours {
		ttl = maxShareTTLHours
	}

	token, err := newShareToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate share token")
		return
	}

	link := &domain.ShareLink{
		Token:     token,
		UserID:    userID,
		Payload:   req.Results,
		ExpiresAt: time.Now().UTC().Add(time.Duration(ttl) * time.Hour),
	}
	if err := s.shareRepo.CreateShare(r.Context(), link); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, shareResponse{
		ID:        link.ID.String(),
		Token:     link.Token,
		ExpiresAt: link.ExpiresAt,
		CreatedAt: link.CreatedAt,
	})
}

// resolveShare handles GET /shares/{token}. Public, no user scope.
func (s *Server) resolveShare(w http.ResponseWriter, r *http.Request) {
	if s.shareRepo == nil {
		writeError(w, http.StatusNotImplemented, "share links are not enabled")
		return
	}
	token := chi.URLParam(r, "token")

	link, err := s.shareRepo.GetShareByToken(r.Context(), token)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results":    json.RawMessage(link.Payload),
		"expires_at": link.ExpiresAt,
		"created_at": link.CreatedAt,
	})
}

// deleteShare handles DELETE /users/{userID}/shares/{shareID}.
func (s *Server) deleteShare(w http.ResponseWriter, r *http.Request) {
	if s.shareRepo == nil {
		writeError(w, http.StatusNotImplemented, "share links are not enabled")
		return
	}
	userID := userIDFromContext(r.Context())

	shareID, err := uuid.Parse(chi.URLParam(r, "shareID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid share ID")
		return
	}

	if err := s.shareRepo.DeleteShare(r.Context(), shareID, userID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helpers

// decodeBody reads, unmarshals and validates a JSON request body.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// paginationParams reads limit/offset query params with safe defaults.
func paginationParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

// newShareToken generates a 32-character random hex token.
func newShareToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func profileToResponse(p *domain.UserProfile) profileResponse {
	return profileResponse{
		UserID:           p.UserID.String(),
		DisplayName:      p.DisplayName,
		Affiliation:      p.Affiliation,
		PreferOpenAccess: p.PreferOpenAccess,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func savedSearchToResponse(s *domain.SavedSearch) savedSearchResponse {
	return savedSearchResponse{
		ID:        s.ID.String(),
		Name:      s.Name,
		Title:     s.Title,
		Abstract:  s.Abstract,
		Keywords:  s.UserKeywords,
		CreatedAt: s.CreatedAt,
	}
}

func feedbackToResponse(fb *domain.Feedback) feedbackResponse {
	return feedbackResponse{
		ID:        fb.ID.String(),
		JournalID: fb.JournalID,
		SearchID:  fb.SearchID.String(),
		Helpful:   fb.Helpful,
		Comment:   fb.Comment,
		CreatedAt: fb.CreatedAt,
	}
}
