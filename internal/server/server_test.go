package server

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helixir/journal-recommender-service/internal/analysis"
	"github.com/helixir/journal-recommender-service/internal/domain"
	"github.com/helixir/journal-recommender-service/internal/events"
	"github.com/helixir/journal-recommender-service/internal/repository"
	"github.com/helixir/journal-recommender-service/internal/verification"
)

// Test doubles shared by the handler tests.

type stubAnalyzer struct {
	mu        sync.Mutex
	result    *domain.AnalysisResult
	lastQuery domain.ManuscriptQuery
}

func (s *stubAnalyzer) Analyze(_ context.Context, query domain.ManuscriptQuery, _ analysis.AnalyzeOptions) *domain.AnalysisResult {
	s.mu.Lock()
	s.lastQuery = query
	s.mu.Unlock()
	out := *s.result
	out.Query = query
	return &out
}

type stubRecommender struct {
	journals []domain.Journal
	err      error
}

func (s *stubRecommender) Recommend(context.Context, *domain.AnalysisResult) ([]domain.Journal, error) {
	return s.journals, s.err
}

type stubVerifier struct{}

func (stubVerifier) VerifyBatch(_ context.Context, journals []domain.Journal) []verification.Result {
	results := make([]verification.Result, len(journals))
	for i, j := range journals {
		results[i] = verification.Result{
			JournalID:      j.ID,
			Status:         verification.StatusVerified,
			ISSNValid:      true,
			QualitySignals: []string{"valid_issn"},
		}
	}
	return results
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.SearchCompletedEvent
}

func (p *capturingPublisher) PublishSearchCompleted(_ context.Context, e events.SearchCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func (p *capturingPublisher) last() (events.SearchCompletedEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return events.SearchCompletedEvent{}, false
	}
	return p.events[len(p.events)-1], true
}

// In-memory repositories.

type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*domain.UserProfile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: make(map[uuid.UUID]*domain.UserProfile)}
}

func (m *memProfileRepo) GetProfile(_ context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, domain.NewNotFoundError("profile", userID.String())
	}
	out := *p
	return &out, nil
}

func (m *memProfileRepo) UpsertProfile(_ context.Context, profile *domain.UserProfile) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *profile
	m.profiles[profile.UserID] = &stored
	out := stored
	return &out, nil
}

type memSearchRepo struct {
	mu      sync.Mutex
	log     []*domain.SearchLogEntry
	saved   map[uuid.UUID]*domain.SavedSearch
	logErr  error
	saveErr error
}

func newMemSearchRepo() *memSearchRepo {
	return &memSearchRepo{saved: make(map[uuid.UUID]*domain.SavedSearch)}
}

func (m *memSearchRepo) LogSearch(_ context.Context, entry *domain.SearchLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logErr != nil {
		return m.logErr
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	m.log = append(m.log, entry)
	return nil
}

func (m *memSearchRepo) ListSearchLog(_ context.Context, filter repository.SearchLogFilter) ([]*domain.SearchLogEntry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.SearchLogEntry
	for _, e := range m.log {
		if filter.UserID != nil && e.UserID != *filter.UserID {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (m *memSearchRepo) SaveSearch(_ context.Context, search *domain.SavedSearch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if search.ID == uuid.Nil {
		search.ID = uuid.New()
	}
	m.saved[search.ID] = search
	return nil
}

func (m *memSearchRepo) GetSavedSearches(_ context.Context, userID uuid.UUID, _, _ int) ([]*domain.SavedSearch, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.SavedSearch
	for _, s := range m.saved {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memSearchRepo) GetSavedSearch(_ context.Context, id uuid.UUID) (*domain.SavedSearch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.saved[id]
	if !ok {
		return nil, domain.NewNotFoundError("saved search", id.String())
	}
	return s, nil
}

func (m *memSearchRepo) DeleteSavedSearch(_ context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.saved[id]
	if !ok || s.UserID != userID {
		return domain.NewNotFoundError("saved search", id.String())
	}
	delete(m.saved, id)
	return nil
}

type memFeedbackRepo struct {
	mu       sync.Mutex
	feedback []*domain.Feedback
}

func (m *memFeedbackRepo) SubmitFeedback(_ context.Context, fb *domain.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fb.ID == uuid.Nil {
		fb.ID = uuid.New()
	}
	m.feedback = append(m.feedback, fb)
	return nil
}

func (m *memFeedbackRepo) ListFeedbackForJournal(_ context.Context, journalID string, _, _ int) ([]*domain.Feedback, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Feedback
	for _, fb := range m.feedback {
		if fb.JournalID == journalID {
			out = append(out, fb)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memFeedbackRepo) HelpfulRate(_ context.Context, journalID string) (float64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var helpful, total int64
	for _, fb := range m.feedback {
		if fb.JournalID != journalID {
			continue
		}
		total++
		if fb.Helpful {
			helpful++
		}
	}
	if total == 0 {
		return 0, 0, nil
	}
	return float64(helpful) / float64(total), total, nil
}

func (m *memFeedbackRepo) ListFeedbackBySearch(_ context.Context, searchID uuid.UUID) ([]*domain.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Feedback
	for _, fb := range m.feedback {
		if fb.SearchID == searchID {
			out = append(out, fb)
		}
	}
	return out, nil
}

type memShareRepo struct {
	mu     sync.Mutex
	shares map[string]*domain.ShareLink
}

func newMemShareRepo() *memShareRepo {
	return &memShareRepo{shares: make(map[string]*domain.ShareLink)}
}

func (m *memShareRepo) CreateShare(_ context.Context, link *domain.ShareLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	m.shares[link.Token] = link
	return nil
}

func (m *memShareRepo) GetShareByToken(_ context.Context, token string) (*domain.ShareLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.shares[token]
	if !ok {
		return nil, domain.NewNotFoundError("share link", token)
	}
	return link, nil
}

func (m *memShareRepo) DeleteExpired(context.Context) (int64, error) { return 0, nil }

func (m *memShareRepo) DeleteShare(_ context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, link := range m.shares {
		if link.ID == id && link.UserID == userID {
			delete(m.shares, token)
			return nil
		}
	}
	return domain.NewNotFoundError("share link", id.String())
}

// Fixtures.

func testAnalysisResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		SearchTerms: []string{"deep learning ecg", "arrhythmia detection"},
		Disciplines: []domain.DetectedDiscipline{
			{
				Name:         "cardiology",
				Confidence:   1.0,
				Evidence:     []string{"ecg", "arrhythmia"},
				SubfieldName: "Cardiology and Cardiovascular Medicine",
				SubfieldID:   2705,
				Source:       domain.DisciplineSourceKeyword,
			},
		},
		ArticleType: domain.DetectedArticleType{TypeID: "original_research", Confidence: 0.7},
		Keywords: []domain.RankedKeyword{
			{Text: "electrocardiography", Score: 0.9, Source: domain.KeywordSourceTopic},
		},
		TopicIDs:      []string{"T10036"},
		WorksAnalyzed: 24,
		Confidence:    domain.ConfidenceScore{Overall: 0.82},
	}
}

func testJournals() []domain.Journal {
	return []domain.Journal{
		{
			ID:             "S137773608",
			Name:           "Circulation",
			ISSN:           "0009-7322",
			IsOpenAccess:   false,
			Metrics:        domain.JournalMetrics{HIndex: 350, WorksCount: 40000},
			Category:       domain.CategoryTopTier,
			RelevanceScore: 1.0,
			MatchReason:    "found via keyword search",
		},
		{
			ID:             "S147114994",
			Name:           "Heart Rhythm",
			ISSN:           "1547-5271",
			Metrics:        domain.JournalMetrics{HIndex: 150, WorksCount: 12000},
			Category:       domain.CategoryTopTier,
			RelevanceScore: 0.8,
			MatchReason:    "journal publishing similar research",
		},
	}
}

// newTestServer builds a server with fakes wired in. Callers can override
// individual deps before issuing requests.
func newTestServer(deps Deps) *Server {
	if deps.Analyzer == nil {
		deps.Analyzer = &stubAnalyzer{result: testAnalysisResult()}
	}
	if deps.Recommender == nil {
		deps.Recommender = &stubRecommender{journals: testJournals()}
	}
	return NewServer(Config{Address: "127.0.0.1:0"}, deps, zerolog.Nop())
}
