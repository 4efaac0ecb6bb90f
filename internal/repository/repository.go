// Package repository provides data access interfaces and implementations
// for the Journal Recommender Service.
//
// # Overview
//
// This package defines repository interfaces and their PostgreSQL implementations
// following the repository pattern to abstract data persistence from business logic.
//
// # Repository Interfaces
//
// The package provides the following repository interfaces:
//
//   - ProfileRepository: Manages per-user preference profiles
//   - SearchRepository: Manages the search analytics log and saved searches
//   - FeedbackRepository: Manages user feedback on recommended journals
//   - ShareRepository: Manages public share links for result sets
//
// # Thread Safety
//
// All repository implementations are safe for concurrent use by multiple goroutines.
// The underlying pgxpool handles connection pooling and synchronization.
//
// # Error Handling
//
// All methods return domain-specific errors from the domain package.
// Wrap database errors with context using fmt.Errorf with %w verb.
// Common errors include:
//
//   - domain.ErrNotFound: Resource does not exist
//   - domain.ErrInvalidInput: Invalid parameters provided
//
// # Transactions
//
// Use the DBTX interface to support both pool and transaction contexts.
// Pass transaction from database.DB.WithTransaction for atomic operations.
//
// # Usage Pattern
//
// Repositories are typically created at application startup and passed to the
// HTTP layer:
//
//	db, _ := database.New(ctx, cfg, logger)
//	profileRepo := repository.NewPgProfileRepository(db)
//	searchRepo := repository.NewPgSearchRepository(db)
//	feedbackRepo := repository.NewPgFeedbackRepository(db)
//	shareRepo := repository.NewPgShareRepository(db)
package repository

import (
	"github.com/helixir/journal-recommender-service/internal/database"
)

// DBTX is the database interface supporting both pool and transaction contexts.
// This allows repositories to work with both direct pool connections and
// transactions (pgx.Tx), and makes unit testing with pgxmock straightforward.
type DBTX = database.DBTX

// PostgreSQL error codes checked by the implementations.
const (
	pgUniqueViolation     = "23505" // unique_violation
	pgForeignKeyViolation = "23503" // foreign_key_violation
)

// Pagination defaults and limits for list queries.
const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// applyPaginationDefaults normalizes limit and offset values for list queries.
// It clamps limit to [1, maxListLimit] and ensures offset >= 0.
func applyPaginationDefaults(limit, offset *int) {
	if *limit <= 0 {
		*limit = defaultListLimit
	}
	if *limit > maxListLimit {
		*limit = maxListLimit
	}
	if *offset < 0 {
		*offset = 0
	}
}
