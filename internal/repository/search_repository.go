package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

// SearchLogFilter narrows ListSearchLog results.
type SearchLogFilter struct {
	// UserID restricts entries to a single user when non-nil.
	UserID *uuid.UUID

	// After restricts entries to those created after the given time.
	After *time.Time

	// LLMUsed restricts entries by whether LLM enrichment ran.
	LLMUsed *bool

	// Limit and Offset control pagination.
	Limit  int
	Offset int
}

// SearchRepository manages the search analytics log and saved searches.
type SearchRepository interface {
	// LogSearch records one executed recommendation request.
	// The entry ID and CreatedAt are assigned when unset.
	LogSearch(ctx context.Context, entry *domain.SearchLogEntry) error

	// ListSearchLog retrieves log entries matching the filter, newest first,
	// along with the total count of matching entries.
	ListSearchLog(ctx context.Context, filter SearchLogFilter) ([]*domain.SearchLogEntry, int64, error)

	// SaveSearch persists a manuscript query the user chose to keep.
	// The search ID and CreatedAt are assigned when unset.
	SaveSearch(ctx context.Context, search *domain.SavedSearch) error

	// GetSavedSearches retrieves a user's saved searches, newest first.
	GetSavedSearches(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.SavedSearch, int64, error)

	// GetSavedSearch retrieves a single saved search by ID.
	// Returns domain.ErrNotFound if the search does not exist.
	GetSavedSearch(ctx context.Context, id uuid.UUID) (*domain.SavedSearch, error)

	// DeleteSavedSearch removes a saved search owned by the given user.
	// Returns domain.ErrNotFound if no matching search exists.
	DeleteSavedSearch(ctx context.Context, id, userID uuid.UUID) error
}
