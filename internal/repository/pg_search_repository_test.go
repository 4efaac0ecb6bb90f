package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

func TestPgSearchRepository_LogSearch(t *testing.T) {
	t.Run("inserts log entry and assigns ID", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgSearchRepository(mock)
		ctx := context.Background()

		userID := uuid.New()
		entry := &domain.SearchLogEntry{
			UserID:            userID,
			Title:             "Deep learning for ECG interpretation",
			PrimaryDiscipline: "cardiology",
			ResultCount:       8,
			LLMUsed:           true,
			DurationMS:        1420,
		}

		mock.ExpectExec(`INSERT INTO search_logs`).
			WithArgs(pgxmock.AnyArg(), userID, entry.Title, "cardiology", 8, true, int64(1420), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err = repo.LogSearch(ctx, entry)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, entry.ID)
		assert.False(t, entry.CreatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects nil entry", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgSearchRepository(mock)

		err = repo.LogSearch(context.Background(), nil)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestPgSearchRepository_ListSearchLog(t *testing.T) {
	t.Run("filters by user and returns total count", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgSearchRepository(mock)
		ctx := context.Background()

		userID := uuid.New()
		now := time.Now().UTC()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM search_logs WHERE user_id = \$1`).
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

		mock.ExpectQuery(`SELECT id, user_id, title, primary_discipline, result_count, llm_used, duration_ms, created_at FROM search_logs WHERE user_id = \$1`).
			WithArgs(userID, 50, 0).
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "title", "primary_discipline", "result_count", "llm_used", "duration_ms", "created_at"}).
				AddRow(uuid.New(), userID, "ECG paper", "cardiology", 8, true, int64(1420), now).
				AddRow(uuid.New(), userID, "Gut microbiome review", "gastroenterology", 10, false, int64(900), now.Add(-time.Hour)))

		entries, total, err := repo.ListSearchLog(ctx, SearchLogFilter{UserID: &userID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, entries, 2)
		assert.Equal(t, "cardiology", entries[0].PrimaryDiscipline)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no filters lists everything", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgSearchRepository(mock)
		ctx := context.Background()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM search_logs`).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))

		mock.ExpectQuery(`SELECT id, user_id, title, primary_discipline, result_count, llm_used, duration_ms, created_at FROM search_logs ORDER BY created_at DESC`).
			WithArgs(50, 0).
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "title", "primary_discipline", "result_count", "llm_used", "duration_ms", "created_at"}))

		entries, total, err := repo.ListSearchLog(ctx, SearchLogFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgSearchRepository_SaveSearch(t *testing.T) {
	t.Run("inserts saved search", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgSearchRepository(mock)
		ctx := context.Background()

		userID := uuid.New()
		search := &domain.SavedSearch{
			UserID:       userID,
			Name:         "ECG manuscript",
			Title:        "Deep learning for ECG interpretation",
			Abstract:     "We propose a model...",
			UserKeywords: []string{"deep learning", "electrocardiography"},
		}

		mock.ExpectExec(`INSERT INTO saved_searches`).
			WithArgs(pgxmock.AnyArg(), userID, "ECG manuscript", search.Title, search.Abstract,
				[]string{"deep learning", "electrocardiography"}, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err = repo.SaveSearch(ctx, search)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, search.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects missing name", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgSearchRepository(mock)

		err = repo.SaveSearch(context.Background(), &domain.SavedSearch{
			UserID: uuid.New(),
			Name:   "   ",
		})
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestPgSearchRepository_GetSavedSearches(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgSearchRepository(mock)
	ctx := context.Background()

	userID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM saved_searches WHERE user_id = \$1`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))

	mock.ExpectQuery(`SELECT id, user_id, name, title, abstract, user_keywords, created_at FROM saved_searches WHERE user_id = \$1`).
		WithArgs(userID, 50, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "name", "title", "abstract", "user_keywords", "created_at"}).
			AddRow(uuid.New(), userID, "ECG manuscript", "Deep learning for ECG", "We propose...", []string{"ecg"}, now))

	searches, total, err := repo.GetSavedSearches(ctx, userID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, searches, 1)
	assert.Equal(t, "ECG manuscript", searches[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgSearchRepository_GetSavedSearch(t *testing.T) {
	t.Run("returns not found for missing search", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgSearchRepository(mock)
		ctx := context.Background()

		id := uuid.New()
		mock.ExpectQuery(`SELECT id, user_id, name, title, abstract, user_keywords, created_at FROM saved_searches WHERE id = \$1`).
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.GetSavedSearch(ctx, id)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgSearchRepository_DeleteSavedSearch(t *testing.T) {
	t.Run("deletes owned search", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgSearchRepository(mock)
		ctx := context.Background()

		id := uuid.New()
		userID := uuid.New()
		mock.ExpectExec(`DELETE FROM saved_searches WHERE id = \$1 AND user_id = \$2`).
			WithArgs(id, userID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		err = repo.DeleteSavedSearch(ctx, id, userID)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when nothing deleted", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgSearchRepository(mock)
		ctx := context.Background()

		id := uuid.New()
		userID := uuid.New()
		mock.ExpectExec(`DELETE FROM saved_searches WHERE id = \$1 AND user_id = \$2`).
			WithArgs(id, userID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err = repo.DeleteSavedSearch(ctx, id, userID)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
