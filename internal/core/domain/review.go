package domain

import (
	"context"
	"time"
)

// Review is a user-authored comment attached to exactly one listing.
type Review struct {
	ID        string    `json:"id"`
	Comment   string    `json:"comment"`
	Rating    int       `json:"rating"`
	AuthorID  string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReviewRepository defines the data-access contract for reviews.
// The two compound writes keep the listing's review set and the reviews
// collection in step; each backend documents how atomic it can make them.
type ReviewRepository interface {
	// GetByID returns the review with the given ID.
	// Returns (nil, nil) when no review is found.
	GetByID(ctx context.Context, id string) (*Review, error)

	// GetByIDs returns the reviews that exist among ids, in ids order.
	GetByIDs(ctx context.Context, ids []string) ([]Review, error)

	// CreateForListing inserts r and appends its ID to the listing's review set.
	// Returns ErrNotFound when the listing does not exist.
	CreateForListing(ctx context.Context, listingID string, r *Review) error

	// DeleteFromListing removes reviewID from the listing's review set and
	// deletes the review. Reports whether a review was deleted; a review the
	// listing does not reference is left untouched and reports false.
	DeleteFromListing(ctx context.Context, listingID, reviewID string) (bool, error)
}
