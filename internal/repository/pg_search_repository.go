package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

// Compile-time interface verification.
var _ SearchRepository = (*PgSearchRepository)(nil)

// PgSearchRepository is a PostgreSQL implementation of SearchRepository.
type PgSearchRepository struct {
	db DBTX
}

// NewPgSearchRepository creates a new PostgreSQL search repository.
func NewPgSearchRepository(db DBTX) *PgSearchRepository {
	return &PgSearchRepository{db: db}
}

// LogSearch records one executed recommendation request.
func (r *PgSearchRepository) LogSearch(ctx context.Context, entry *domain.SearchLogEntry) error {
	if entry == nil {
		return domain.NewValidationError("entry", "entry cannot be nil")
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO search_logs (
			id, user_id, title, primary_discipline, result_count, llm_used, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Title,
		entry.PrimaryDiscipline,
		entry.ResultCount,
		entry.LLMUsed,
		entry.DurationMS,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}

	return nil
}

// ListSearchLog retrieves log entries matching the filter, newest first.
func (r *PgSearchRepository) ListSearchLog(ctx context.Context, filter SearchLogFilter) ([]*domain.SearchLogEntry, int64, error) {
	applyPaginationDefaults(&filter.Limit, &filter.Offset)

	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}

	if filter.After != nil {
		conditions = append(conditions, fmt.Sprintf("created_at > $%d", argIndex))
		args = append(args, *filter.After)
		argIndex++
	}

	if filter.LLMUsed != nil {
		conditions = append(conditions, fmt.Sprintf("llm_used = $%d", argIndex))
		args = append(args, *filter.LLMUsed)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM search_logs %s", whereClause)
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count search log entries: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT id, user_id, title, primary_discipline, result_count, llm_used, duration_ms, created_at
		FROM search_logs
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list search log entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.SearchLogEntry, 0, filter.Limit)
	for rows.Next() {
		var e domain.SearchLogEntry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Title, &e.PrimaryDiscipline,
			&e.ResultCount, &e.LLMUsed, &e.DurationMS, &e.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan search log entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating search log entries: %w", err)
	}

	return entries, totalCount, nil
}

// SaveSearch persists a manuscript query the user chose to keep.
func (r *PgSearchRepository) SaveSearch(ctx context.Context, search *domain.SavedSearch) error {
	if search == nil {
		return domain.NewValidationError("search", "search cannot be nil")
	}
	if search.UserID == uuid.Nil {
		return domain.NewValidationError("user_id", "user ID is required")
	}
	if strings.TrimSpace(search.Name) == "" {
		return domain.NewValidationError("name", "name is required")
	}

	if search.ID == uuid.Nil {
		search.ID = uuid.New()
	}
	if search.CreatedAt.IsZero() {
		search.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO saved_searches (id, user_id, name, title, abstract, user_keywords, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		search.ID,
		search.UserID,
		search.Name,
		search.Title,
		search.Abstract,
		search.UserKeywords,
		search.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save search: %w", err)
	}

	return nil
}

// GetSavedSearches retrieves a user's saved searches, newest first.
func (r *PgSearchRepository) GetSavedSearches(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.SavedSearch, int64, error) {
	applyPaginationDefaults(&limit, &offset)

	countQuery := `SELECT COUNT(*) FROM saved_searches WHERE user_id = $1`
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, userID).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count saved searches: %w", err)
	}

	selectQuery := `
		SELECT id, user_id, name, title, abstract, user_keywords, created_at
		FROM saved_searches
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, selectQuery, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get saved searches: %w", err)
	}
	defer rows.Close()

	searches := make([]*domain.SavedSearch, 0, limit)
	for rows.Next() {
		s, err := scanSavedSearchFromRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan saved search: %w", err)
		}
		searches = append(searches, s)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating saved searches: %w", err)
	}

	return searches, totalCount, nil
}

// GetSavedSearch retrieves a single saved search by ID.
func (r *PgSearchRepository) GetSavedSearch(ctx context.Context, id uuid.UUID) (*domain.SavedSearch, error) {
	query := `
		SELECT id, user_id, name, title, abstract, user_keywords, created_at
		FROM saved_searches
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	s, err := scanSavedSearch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("saved search", id.String())
		}
		return nil, fmt.Errorf("failed to get saved search: %w", err)
	}

	return s, nil
}

// DeleteSavedSearch removes a saved search owned by the given user.
func (r *PgSearchRepository) DeleteSavedSearch(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM saved_searches WHERE id = $1 AND user_id = $2`

	result, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete saved search: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("saved search", id.String())
	}

	return nil
}

// savedSearchScanDest holds the destination pointers for scanning a SavedSearch row.
type savedSearchScanDest struct {
	search domain.SavedSearch
}

// destinations returns the slice of pointers for Scan operations.
func (d *savedSearchScanDest) destinations() []interface{} {
	return []interface{}{
		&d.search.ID, &d.search.UserID, &d.search.Name, &d.search.Title,
		&d.search.Abstract, &d.search.UserKeywords, &d.search.CreatedAt,
	}
}

// scanSavedSearch scans a single row into a SavedSearch.
func scanSavedSearch(row pgx.Row) (*domain.SavedSearch, error) {
	var dest savedSearchScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return &dest.search, nil
}

// scanSavedSearchFromRows scans the current row from pgx.Rows into a SavedSearch.
func scanSavedSearchFromRows(rows pgx.Rows) (*domain.SavedSearch, error) {
	var dest savedSearchScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return &dest.search, nil
}
