// Package store persists categories, websites and check results as three
// independent document collections with store-assigned ids. There is no
// cross-collection referential integrity.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when an id does not resolve to a document.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID is returned when an id string is not a valid object id.
	ErrInvalidID = errors.New("invalid id format")
)

// Store is the document-store surface the API layer depends on. Inserts fill
// in the document's ID (and CreatedAt for check results) before returning.
type Store interface {
	InsertCategory(ctx context.Context, c *Category) error
	// ListCategories returns all categories sorted by name ascending.
	ListCategories(ctx context.Context) ([]Category, error)
	CountCategories(ctx context.Context) (int64, error)

	InsertWebsite(ctx context.Context, w *Website) error
	// ListWebsites returns all websites sorted by name ascending.
	ListWebsites(ctx context.Context) ([]Website, error)
	// GetWebsite returns ErrInvalidID for a malformed id and ErrNotFound
	// when the id does not resolve.
	GetWebsite(ctx context.Context, id string) (*Website, error)
	CountWebsites(ctx context.Context) (int64, error)

	InsertCheckResult(ctx context.Context, r *CheckResult) error
	// ListCheckResults returns results ordered by creation time descending,
	// optionally filtered by website id, capped at limit.
	ListCheckResults(ctx context.Context, websiteID string, limit int64) ([]CheckResult, error)

	// Ping reports store connectivity.
	Ping(ctx context.Context) error
	// CollectionNames lists the collections present in the database.
	CollectionNames(ctx context.Context) ([]string, error)
}
