package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile holds per-user preferences consulted by the API layer.
type UserProfile struct {
	UserID           uuid.UUID
	DisplayName      string
	Affiliation      string
	PreferOpenAccess bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SavedSearch is a manuscript query a user chose to keep.
type SavedSearch struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Name         string
	Title        string
	Abstract     string
	UserKeywords []string
	CreatedAt    time.Time
}

// SearchLogEntry records one executed recommendation request for analytics.
type SearchLogEntry struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Title             string
	PrimaryDiscipline string
	ResultCount       int
	LLMUsed           bool
	DurationMS        int64
	CreatedAt         time.Time
}

// Feedback is a user's judgment of a recommended journal.
type Feedback struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	JournalID string
	SearchID  uuid.UUID
	Helpful   bool
	Comment   string
	CreatedAt time.Time
}

// ShareLink is a public token resolving to a saved result set.
type ShareLink struct {
	ID        uuid.UUID
	Token     string
	UserID    uuid.UUID
	Payload   []byte
	ExpiresAt time.Time
	CreatedAt time.Time
}
