package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

// FeedbackRepository manages user feedback on recommended journals.
type FeedbackRepository interface {
	// SubmitFeedback records a user's judgment of a recommended journal.
	// The feedback ID and CreatedAt are assigned when unset.
	SubmitFeedback(ctx context.Context, fb *domain.Feedback) error

	// ListFeedbackForJournal retrieves feedback submitted for a journal,
	// newest first, along with the total count.
	ListFeedbackForJournal(ctx context.Context, journalID string, limit, offset int) ([]*domain.Feedback, int64, error)

	// HelpfulRate returns the fraction of feedback entries marking the
	// journal as helpful, and the number of entries considered.
	// A journal with no feedback yields (0, 0, nil).
	HelpfulRate(ctx context.Context, journalID string) (float64, int64, error)

	// ListFeedbackBySearch retrieves all feedback attached to one search.
	ListFeedbackBySearch(ctx context.Context, searchID uuid.UUID) ([]*domain.Feedback, error)
}
