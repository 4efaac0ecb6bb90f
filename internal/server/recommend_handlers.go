package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/helixir/journal-recommender-service/internal/analysis"
	"github.com/helixir/journal-recommender-service/internal/domain"
	"github.com/helixir/journal-recommender-service/internal/events"
	"github.com/helixir/journal-recommender-service/internal/observability"
)

// Request body limits.
const maxRequestBodySize = 1 << 20 // 1 MB

// manuscriptRequest is the shared JSON body for analysis and recommendation.
type manuscriptRequest struct {
	Title            string   `json:"title" validate:"required,min=3,max=2000"`
	Abstract         string   `json:"abstract" validate:"max=20000"`
	Keywords         []string `json:"keywords" validate:"max=25,dive,min=1,max=200"`
	PreferOpenAccess bool     `json:"prefer_open_access"`
	SkipLLM          bool     `json:"skip_llm"`

	// Verify overrides the server-side verification default when set.
	Verify *bool `json:"verify,omitempty"`

	// UserID attributes the search for history and preference lookup.
	UserID string `json:"user_id,omitempty" validate:"omitempty,uuid"`
}

// decodeManuscriptRequest parses and validates the shared request body.
func (s *Server) decodeManuscriptRequest(w http.ResponseWriter, r *http.Request) (*manuscriptRequest, bool) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}

	var req manuscriptRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return nil, false
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Abstract = strings.TrimSpace(req.Abstract)

	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return nil, false
	}
	return &req, true
}

// analyzeManuscript handles POST /api/v1/analyze.
// It runs the analysis pipeline without journal retrieval, useful for
// previewing detected disciplines before requesting recommendations.
func (s *Server) analyzeManuscript(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeManuscriptRequest(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	start := time.Now()
	if s.metrics != nil {
		s.metrics.RecordAnalysisStarted()
	}

	result := s.analyzer.Analyze(ctx, domain.ManuscriptQuery{
		Title:            req.Title,
		Abstract:         req.Abstract,
		UserKeywords:     req.Keywords,
		PreferOpenAccess: req.PreferOpenAccess,
	}, analysis.AnalyzeOptions{SkipLLM: req.SkipLLM})

	if s.metrics != nil {
		s.metrics.RecordAnalysisCompleted(time.Since(start).Seconds(), result.Confidence.Overall)
		for _, d := range result.Disciplines {
			s.metrics.RecordDisciplinesDetected(string(d.Source), 1)
		}
	}

	writeJSON(w, http.StatusOK, analysisToResponse(result))
}

// recommendJournals handles POST /api/v1/recommendations.
// It runs the full pipeline: analysis, retrieval, ranking, optional
// verification, then records the search and emits an analytics event.
func (s *Server) recommendJournals(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeManuscriptRequest(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	searchID := uuid.New()
	ctx = observability.WithSearchID(ctx, searchID.String())

	userID := uuid.Nil
	if req.UserID != "" {
		userID, _ = uuid.Parse(req.UserID)
	}

	// A stored preference for open access applies unless the request already
	// asked for it.
	preferOA := req.PreferOpenAccess
	if !preferOA && userID != uuid.Nil && s.profileRepo != nil {
		if profile, err := s.profileRepo.GetProfile(ctx, userID); err == nil {
			preferOA = profile.PreferOpenAccess
		}
	}

	start := time.Now()
	if s.metrics != nil {
		s.metrics.RecordAnalysisStarted()
		s.metrics.RecordRecommendationStarted()
	}

	result := s.analyzer.Analyze(ctx, domain.ManuscriptQuery{
		Title:            req.Title,
		Abstract:         req.Abstract,
		UserKeywords:     req.Keywords,
		PreferOpenAccess: preferOA,
	}, analysis.AnalyzeOptions{SkipLLM: req.SkipLLM})

	analysisDuration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordAnalysisCompleted(analysisDuration.Seconds(), result.Confidence.Overall)
	}

	journals, err := s.recommender.Recommend(ctx, result)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordRecommendationFailed(time.Since(start).Seconds())
		}
		if errors.Is(err, domain.ErrInsufficientData) {
			s.finishSearch(ctx, searchID, userID, req.Title, result, 0, false, time.Since(start))
		}
		writeDomainError(w, err)
		return
	}

	broadened := false
	for _, j := range journals {
		if j.MatchReason == "broader search result" {
			broadened = true
			break
		}
	}
	if broadened && s.metrics != nil {
		s.metrics.RecordBroadenedSearch()
	}

	var verifications []verificationResponse
	if s.verifier != nil && (req.Verify == nil || *req.Verify) {
		results := s.verifier.VerifyBatch(ctx, journals)
		verifications = make([]verificationResponse, len(results))
		for i, vr := range results {
			verifications[i] = verificationToResponse(vr)
			if s.metrics != nil {
				s.metrics.RecordVerification(string(vr.Status))
			}
		}
	}

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordRecommendationCompleted(len(journals), duration.Seconds())
	}

	s.finishSearch(ctx, searchID, userID, req.Title, result, len(journals), broadened, duration)

	writeJSON(w, http.StatusOK, buildRecommendResponse(searchID, result, journals, verifications, duration))
}

// finishSearch records the search in the analytics log and publishes the
// completion event. Both are best-effort; failures are logged, never
// surfaced to the client.
func (s *Server) finishSearch(
	ctx context.Context,
	searchID, userID uuid.UUID,
	title string,
	result *domain.AnalysisResult,
	resultCount int,
	broadened bool,
	duration time.Duration,
) {
	primaryName := ""
	if primary, ok := result.PrimaryDiscipline(); ok {
		primaryName = primary.Name
	}

	if s.searchRepo != nil {
		entry := &domain.SearchLogEntry{
			ID:                searchID,
			UserID:            userID,
			Title:             title,
			PrimaryDiscipline: primaryName,
			ResultCount:       resultCount,
			LLMUsed:           result.LLMUsed,
			DurationMS:        duration.Milliseconds(),
		}
		if err := s.searchRepo.LogSearch(ctx, entry); err != nil {
			s.logger.Warn().Err(err).Str("search_id", searchID.String()).Msg("failed to log search")
		}
	}

	event := events.SearchCompletedEvent{
		SearchID:          searchID.String(),
		Title:             title,
		PrimaryDiscipline: primaryName,
		ResultCount:       resultCount,
		Confidence:        result.Confidence.Overall,
		LLMUsed:           result.LLMUsed,
		Broadened:         broadened,
		DurationMS:        duration.Milliseconds(),
	}
	if userID != uuid.Nil {
		event.UserID = userID.String()
	}
	if err := s.publisher.PublishSearchCompleted(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("search_id", searchID.String()).Msg("failed to publish search event")
	}
}

// validationMessage converts a validator error into a client-friendly string.
func validationMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, "Error:"); idx >= 0 {
		msg = msg[idx+len("Error:"):]
	}
	return strings.TrimSpace(msg)
}
