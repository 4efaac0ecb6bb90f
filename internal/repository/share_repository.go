package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

// ShareRepository manages public share links for recommendation result sets.
type ShareRepository interface {
	// CreateShare persists a share link. The link ID and CreatedAt are
	// assigned when unset. The token must be unique.
	CreateShare(ctx context.Context, link *domain.ShareLink) error

	// GetShareByToken resolves a share token to its stored payload.
	// Returns domain.ErrNotFound if the token does not exist or has expired.
	GetShareByToken(ctx context.Context, token string) (*domain.ShareLink, error)

	// DeleteExpired removes share links past their expiry and reports how
	// many were deleted.
	DeleteExpired(ctx context.Context) (int64, error)

	// DeleteShare removes a share link owned by the given user.
	// Returns domain.ErrNotFound if no matching link exists.
	DeleteShare(ctx context.Context, id, userID uuid.UUID) error
}
