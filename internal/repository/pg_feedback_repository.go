package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

// Compile-time interface verification.
var _ FeedbackRepository = (*PgFeedbackRepository)(nil)

// PgFeedbackRepository is a PostgreSQL implementation of FeedbackRepository.
type PgFeedbackRepository struct {
	db DBTX
}

// NewPgFeedbackRepository creates a new PostgreSQL feedback repository.
func NewPgFeedbackRepository(db DBTX) *PgFeedbackRepository {
	return &PgFeedbackRepository{db: db}
}

// SubmitFeedback records a user's judgment of a recommended journal.
// Resubmitting for the same (user, journal, search) triple updates the
// stored judgment instead of creating a duplicate.
func (r *PgFeedbackRepository) SubmitFeedback(ctx context.Context, fb *domain.Feedback) error {
	if fb == nil {
		return domain.NewValidationError("feedback", "feedback cannot be nil")
	}
	if fb.UserID == uuid.Nil {
		return domain.NewValidationError("user_id", "user ID is required")
	}
	if strings.TrimSpace(fb.JournalID) == "" {
		return domain.NewValidationError("journal_id", "journal ID is required")
	}

	if fb.ID == uuid.Nil {
		fb.ID = uuid.New()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO feedback (id, user_id, journal_id, search_id, helpful, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, journal_id, search_id) DO UPDATE SET
			helpful = EXCLUDED.helpful,
			comment = EXCLUDED.comment,
			created_at = EXCLUDED.created_at`

	_, err := r.db.Exec(ctx, query,
		fb.ID,
		fb.UserID,
		fb.JournalID,
		fb.SearchID,
		fb.Helpful,
		fb.Comment,
		fb.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return domain.NewNotFoundError("search", fb.SearchID.String())
		}
		return fmt.Errorf("failed to submit feedback: %w", err)
	}

	return nil
}

// ListFeedbackForJournal retrieves feedback submitted for a journal, newest first.
func (r *PgFeedbackRepository) ListFeedbackForJournal(ctx context.Context, journalID string, limit, offset int) ([]*domain.Feedback, int64, error) {
	if strings.TrimSpace(journalID) == "" {
		return nil, 0, domain.NewValidationError("journal_id", "journal ID is required")
	}
	applyPaginationDefaults(&limit, &offset)

	countQuery := `SELECT COUNT(*) FROM feedback WHERE journal_id = $1`
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, journalID).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count feedback: %w", err)
	}

	selectQuery := `
		SELECT id, user_id, journal_id, search_id, helpful, comment, created_at
		FROM feedback
		WHERE journal_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, selectQuery, journalID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	feedback := make([]*domain.Feedback, 0, limit)
	for rows.Next() {
		var f domain.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.JournalID, &f.SearchID, &f.Helpful, &f.Comment, &f.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan feedback: %w", err)
		}
		feedback = append(feedback, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating feedback: %w", err)
	}

	return feedback, totalCount, nil
}

// HelpfulRate returns the fraction of feedback marking the journal as helpful.
func (r *PgFeedbackRepository) HelpfulRate(ctx context.Context, journalID string) (float64, int64, error) {
	if strings.TrimSpace(journalID) == "" {
		return 0, 0, domain.NewValidationError("journal_id", "journal ID is required")
	}

	query := `
		SELECT COUNT(*) FILTER (WHERE helpful), COUNT(*)
		FROM feedback
		WHERE journal_id = $1`

	var helpful, total int64
	if err := r.db.QueryRow(ctx, query, journalID).Scan(&helpful, &total); err != nil {
		return 0, 0, fmt.Errorf("failed to compute helpful rate: %w", err)
	}

	if total == 0 {
		return 0, 0, nil
	}
	return float64(helpful) / float64(total), total, nil
}

// ListFeedbackBySearch retrieves all feedback attached to one search.
func (r *PgFeedbackRepository) ListFeedbackBySearch(ctx context.Context, searchID uuid.UUID) ([]*domain.Feedback, error) {
	query := `
		SELECT id, user_id, journal_id, search_id, helpful, comment, created_at
		FROM feedback
		WHERE search_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, searchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback by search: %w", err)
	}
	defer rows.Close()

	var feedback []*domain.Feedback
	for rows.Next() {
		var f domain.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.JournalID, &f.SearchID, &f.Helpful, &f.Comment, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		feedback = append(feedback, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}

	return feedback, nil
}
