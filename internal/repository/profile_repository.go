package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

// ProfileRepository manages per-user preference profiles.
//
// Profiles are consulted by the recommendation handlers to apply user
// preferences (e.g. open-access ranking preference) without requiring the
// client to resend them on every request.
type ProfileRepository interface {
	// GetProfile retrieves the profile for a user.
	// Returns domain.ErrNotFound if no profile exists for the user.
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error)

	// UpsertProfile creates the profile on first write and updates it on
	// subsequent writes. The stored profile is returned with timestamps set.
	UpsertProfile(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error)
}
