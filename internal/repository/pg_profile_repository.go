package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

// Compile-time interface verification.
var _ ProfileRepository = (*PgProfileRepository)(nil)

// PgProfileRepository is a PostgreSQL implementation of ProfileRepository.
type PgProfileRepository struct {
	db DBTX
}

// NewPgProfileRepository creates a new PostgreSQL profile repository.
func NewPgProfileRepository(db DBTX) *PgProfileRepository {
	return &PgProfileRepository{db: db}
}

// GetProfile retrieves the profile for a user.
func (r *PgProfileRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	query := `
		SELECT user_id, display_name, affiliation, prefer_open_access, created_at, updated_at
		FROM user_profiles
		WHERE user_id = $1`

	var p domain.UserProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.DisplayName, &p.Affiliation, &p.PreferOpenAccess, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("profile", userID.String())
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

// UpsertProfile creates or updates a user's profile in a single roundtrip.
func (r *PgProfileRepository) UpsertProfile(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error) {
	if profile == nil {
		return nil, domain.NewValidationError("profile", "profile cannot be nil")
	}
	if profile.UserID == uuid.Nil {
		return nil, domain.NewValidationError("user_id", "user ID is required")
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO user_profiles (user_id, display_name, affiliation, prefer_open_access, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			affiliation = EXCLUDED.affiliation,
			prefer_open_access = EXCLUDED.prefer_open_access,
			updated_at = EXCLUDED.updated_at
		RETURNING user_id, display_name, affiliation, prefer_open_access, created_at, updated_at`

	var stored domain.UserProfile
	err := r.db.QueryRow(ctx, query,
		profile.UserID, profile.DisplayName, profile.Affiliation, profile.PreferOpenAccess, now,
	).Scan(
		&stored.UserID, &stored.DisplayName, &stored.Affiliation, &stored.PreferOpenAccess,
		&stored.CreatedAt, &stored.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	return &stored, nil
}
