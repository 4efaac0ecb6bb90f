package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

// Compile-time interface verification.
var _ ShareRepository = (*PgShareRepository)(nil)

// PgShareRepository is a PostgreSQL implementation of ShareRepository.
type PgShareRepository struct {
	db DBTX
}

// NewPgShareRepository creates a new PostgreSQL share repository.
func NewPgShareRepository(db DBTX) *PgShareRepository {
	return &PgShareRepository{db: db}
}

// CreateShare persists a share link.
func (r *PgShareRepository) CreateShare(ctx context.Context, link *domain.ShareLink) error {
	if link == nil {
		return domain.NewValidationError("link", "link cannot be nil")
	}
	if strings.TrimSpace(link.Token) == "" {
		return domain.NewValidationError("token", "token is required")
	}
	if link.UserID == uuid.Nil {
		return domain.NewValidationError("user_id", "user ID is required")
	}
	if link.ExpiresAt.IsZero() {
		return domain.NewValidationError("expires_at", "expiry time is required")
	}

	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO share_links (id, token, user_id, payload, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		link.ID,
		link.Token,
		link.UserID,
		link.Payload,
		link.ExpiresAt,
		link.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.NewValidationError("token", "share token already in use")
		}
		return fmt.Errorf("failed to create share link: %w", err)
	}

	return nil
}

// GetShareByToken resolves a share token to its stored payload.
// Expired links are treated as not found.
func (r *PgShareRepository) GetShareByToken(ctx context.Context, token string) (*domain.ShareLink, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.NewValidationError("token", "token is required")
	}

	query := `
		SELECT id, token, user_id, payload, expires_at, created_at
		FROM share_links
		WHERE token = $1 AND expires_at > $2`

	var link domain.ShareLink
	err := r.db.QueryRow(ctx, query, token, time.Now().UTC()).Scan(
		&link.ID, &link.Token, &link.UserID, &link.Payload, &link.ExpiresAt, &link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("share link", token)
		}
		return nil, fmt.Errorf("failed to get share link: %w", err)
	}

	return &link, nil
}

// DeleteExpired removes share links past their expiry.
func (r *PgShareRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM share_links WHERE expires_at <= $1`

	result, err := r.db.Exec(ctx, query, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired share links: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteShare removes a share link owned by the given user.
func (r *PgShareRepository) DeleteShare(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM share_links WHERE id = $1 AND user_id = $2`

	result, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete share link: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("share link", id.String())
	}

	return nil
}
