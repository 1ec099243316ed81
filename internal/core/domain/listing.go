package domain

import (
	"context"
	"time"
)

// Category is one of the fixed listing categories.
type Category string

const (
	CategoryMountains    Category = "Mountains"
	CategoryArctic       Category = "Arctic"
	CategoryFarms        Category = "Farms"
	CategoryPools        Category = "Pools"
	CategoryBeach        Category = "Beach"
	CategoryLounge       Category = "Lounge"
	CategoryCamping      Category = "Camping"
	CategoryCastles      Category = "Castles"
	CategoryIconicCities Category = "Iconic cities"
	CategoryRooms        Category = "Rooms"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategoryMountains,
	CategoryArctic,
	CategoryFarms,
	CategoryPools,
	CategoryBeach,
	CategoryLounge,
	CategoryCamping,
	CategoryCastles,
	CategoryIconicCities,
	CategoryRooms,
}

// ParseCategory returns the category matching s exactly.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Image points at an uploaded object. Filename is the storage key.
type Image struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Listing is a rentable property record.
type Listing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       Image     `json:"image"`
	Price       float64   `json:"price"`
	Location    string    `json:"location"`
	Country     string    `json:"country"`
	Zip         string    `json:"zip"`
	Category    Category  `json:"category,omitempty"`
	OwnerID     string    `json:"owner"`
	ReviewIDs   []string  `json:"reviews"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListingUpdate carries the fields of a partial update. Nil fields are left
// untouched. The owner is not updatable.
type ListingUpdate struct {
	Title       *string
	Description *string
	Image       *Image
	Price       *float64
	Location    *string
	Country     *string
	Zip         *string
	Category    *Category
}

// Empty reports whether the update changes nothing.
func (u ListingUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Image == nil && u.Price == nil &&
		u.Location == nil && u.Country == nil && u.Zip == nil && u.Category == nil
}

// Apply copies the set fields onto l.
func (u ListingUpdate) Apply(l *Listing) {
	if u.Title != nil {
		l.Title = *u.Title
	}
	if u.Description != nil {
		l.Description = *u.Description
	}
	if u.Image != nil {
		l.Image = *u.Image
	}
	if u.Price != nil {
		l.Price = *u.Price
	}
	if u.Location != nil {
		l.Location = *u.Location
	}
	if u.Country != nil {
		l.Country = *u.Country
	}
	if u.Zip != nil {
		l.Zip = *u.Zip
	}
	if u.Category != nil {
		l.Category = *u.Category
	}
}

// ListingRepository defines the data-access contract for listings.
// Implementations live in internal/core/repository (Core layer).
// List-style methods return listings newest first (CreatedAt desc, ID desc).
type ListingRepository interface {
	// Create inserts a listing. ID and timestamps must already be set.
	Create(ctx context.Context, l *Listing) error

	// GetByID returns the listing with the given ID.
	// Returns (nil, nil) when no listing is found.
	GetByID(ctx context.Context, id string) (*Listing, error)

	// List returns all listings.
	List(ctx context.Context) ([]Listing, error)

	// Search returns listings whose title, location, country or description
	// contains query, case-insensitively. query is literal text, not a pattern.
	Search(ctx context.Context, query string) ([]Listing, error)

	// ListByCategory returns listings in the given category.
	ListByCategory(ctx context.Context, category Category) ([]Listing, error)

	// Update applies u to the listing and returns the updated record.
	// Returns (nil, nil) when no listing is found.
	Update(ctx context.Context, id string, u ListingUpdate) (*Listing, error)

	// Delete removes the listing together with every review it references
	// and returns the removed record. Returns (nil, nil) when no listing is found.
	Delete(ctx context.Context, id string) (*Listing, error)

	// DeleteAll removes every listing and their reviews, returning the listing count.
	DeleteAll(ctx context.Context) (int64, error)
}
