package v1

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/duynhne/wanderlust/internal/core/domain"
	"github.com/duynhne/wanderlust/internal/core/storage"
	"github.com/duynhne/wanderlust/middleware"
)

// DefaultImageURL is shown when a listing has no stored image.
const DefaultImageURL = "/default.jpg"

// ListingInput is the submitted listing form. Nil fields were not submitted.
type ListingInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Location    *string  `json:"location"`
	Country     *string  `json:"country"`
	Zip         *string  `json:"zip"`
	Category    *string  `json:"category"`
}

// ImageUpload is an image file received with a listing form.
type ImageUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// SearchResult is a search outcome together with the normalised term.
type SearchResult struct {
	Query    string
	Listings []domain.Listing
}

// ReviewDetail is a review with its author resolved. Author is nil when the
// account no longer exists.
type ReviewDetail struct {
	domain.Review
	Author *domain.User `json:"authorProfile"`
}

// ListingDetail is a listing with its owner and reviews resolved.
type ListingDetail struct {
	Listing domain.Listing `json:"listing"`
	Owner   *domain.User   `json:"owner"`
	Reviews []ReviewDetail `json:"reviews"`
}

// ListingService implements the listing lifecycle.
type ListingService struct {
	listings     domain.ListingRepository
	reviews      domain.ReviewRepository
	users        domain.UserRepository
	images       storage.ImageStore
	writeTimeout time.Duration
}

// NewListingService creates a ListingService.
func NewListingService(
	listings domain.ListingRepository,
	reviews domain.ReviewRepository,
	users domain.UserRepository,
	images storage.ImageStore,
	writeTimeout time.Duration,
) *ListingService {
	return &ListingService{
		listings:     listings,
		reviews:      reviews,
		users:        users,
		images:       images,
		writeTimeout: writeTimeout,
	}
}

func listingSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("layer", "logic"))
	return middleware.StartSpan(ctx, name, trace.WithAttributes(attrs...))
}

// List returns every listing, newest first.
func (s *ListingService) List(ctx context.Context) ([]domain.Listing, error) {
	ctx, span := listingSpan(ctx, "listing.list")
	defer span.End()

	listings, err := s.listings.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, storeError("list listings", err)
	}
	span.SetAttributes(attribute.Int("listing.count", len(listings)))
	return listings, nil
}

// Search matches q literally and case-insensitively against title,
// location, country and description. A blank q is rejected before any query.
func (s *ListingService) Search(ctx context.Context, q string) (*SearchResult, error) {
	ctx, span := listingSpan(ctx, "listing.search", attribute.String("search.query", q))
	defer span.End()

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("search listings: %w", ErrEmptyQuery)
	}
	listings, err := s.listings.Search(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, storeError(fmt.Sprintf("search listings %q", q), err)
	}
	span.SetAttributes(attribute.Int("listing.count", len(listings)))
	return &SearchResult{Query: q, Listings: listings}, nil
}

// FilterByCategory returns listings in the named category. An unknown
// category yields no listings without querying the store.
func (s *ListingService) FilterByCategory(ctx context.Context, category string) ([]domain.Listing, error) {
	ctx, span := listingSpan(ctx, "listing.filter_by_category", attribute.String("listing.category", category))
	defer span.End()

	c, ok := domain.ParseCategory(category)
	if !ok {
		span.AddEvent("category.unknown")
		return []domain.Listing{}, nil
	}
	listings, err := s.listings.ListByCategory(ctx, c)
	if err != nil {
		span.RecordError(err)
		return nil, storeError(fmt.Sprintf("list category %q", category), err)
	}
	return listings, nil
}

// Get returns one listing.
func (s *ListingService) Get(ctx context.Context, id string) (*domain.Listing, error) {
	ctx, span := listingSpan(ctx, "listing.get", attribute.String("listing.id", id))
	defer span.End()

	if !domain.ValidID(id) {
		return nil, fmt.Errorf("get listing %q: %w", id, ErrInvalidID)
	}
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, storeError(fmt.Sprintf("get listing %q", id), err)
	}
	if l == nil {
		return nil, fmt.Errorf("get listing %q: %w", id, ErrListingNotFound)
	}
	return l, nil
}

// GetDetail returns a listing with its owner and every review's author.
func (s *ListingService) GetDetail(ctx context.Context, id string) (*ListingDetail, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx, span := listingSpan(ctx, "listing.get_detail", attribute.String("listing.id", id))
	defer span.End()

	reviews, err := s.reviews.GetByIDs(ctx, l.ReviewIDs)
	if err != nil {
		span.RecordError(err)
		return nil, storeError("load reviews", err)
	}

	ids := make([]string, 0, len(reviews)+1)
	if l.OwnerID != "" {
		ids = append(ids, l.OwnerID)
	}
	for _, r := range reviews {
		ids = append(ids, r.AuthorID)
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return nil, storeError("load users", err)
	}
	byID := make(map[string]*domain.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	detail := &ListingDetail{
		Listing: *l,
		Owner:   byID[l.OwnerID],
		Reviews: make([]ReviewDetail, 0, len(reviews)),
	}
	for _, r := range reviews {
		detail.Reviews = append(detail.Reviews, ReviewDetail{Review: r, Author: byID[r.AuthorID]})
	}
	return detail, nil
}

// Create stores a new listing owned by ownerID.
func (s *ListingService) Create(ctx context.Context, in ListingInput, img *ImageUpload, ownerID string) (*domain.Listing, error) {
	ctx, span := listingSpan(ctx, "listing.create", attribute.String("owner.id", ownerID))
	defer span.End()

	if ownerID == "" {
		return nil, fmt.Errorf("create listing: %w", ErrOwnerRequired)
	}
	if img == nil {
		return nil, fmt.Errorf("create listing: %w", ErrImageRequired)
	}
	if err := in.validate(true); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}

	wctx, cancel := detach(ctx, s.writeTimeout)
	defer cancel()

	image, err := s.images.Put(wctx, img.Name, img.Body, img.Size, img.ContentType)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("upload image: %w", err)
	}

	now := time.Now().UTC()
	l := &domain.Listing{
		ID:        domain.NewID(),
		Image:     image,
		OwnerID:   ownerID,
		ReviewIDs: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.update().Apply(l)

	if err := s.listings.Create(wctx, l); err != nil {
		span.RecordError(err)
		s.removeImage(wctx, image.Filename)
		return nil, storeError("insert listing", err)
	}

	span.SetAttributes(attribute.String("listing.id", l.ID))
	span.AddEvent("listing.created")
	return l, nil
}

// Update applies the submitted fields and optionally replaces the image.
// The replaced image object is removed best-effort.
func (s *ListingService) Update(ctx context.Context, id string, in ListingInput, img *ImageUpload) (*domain.Listing, error) {
	ctx, span := listingSpan(ctx, "listing.update", attribute.String("listing.id", id))
	defer span.End()

	if !domain.ValidID(id) {
		return nil, fmt.Errorf("update listing %q: %w", id, ErrInvalidID)
	}
	if err := in.validate(false); err != nil {
		return nil, fmt.Errorf("update listing %q: %w", id, err)
	}

	wctx, cancel := detach(ctx, s.writeTimeout)
	defer cancel()

	current, err := s.listings.GetByID(wctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, storeError(fmt.Sprintf("get listing %q", id), err)
	}
	if current == nil {
		return nil, fmt.Errorf("update listing %q: %w", id, ErrListingNotFound)
	}

	u := in.update()
	if img != nil {
		image, err := s.images.Put(wctx, img.Name, img.Body, img.Size, img.ContentType)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("upload image: %w", err)
		}
		u.Image = &image
	}
	if u.Empty() {
		return current, nil
	}

	updated, err := s.listings.Update(wctx, id, u)
	if err != nil {
		span.RecordError(err)
		if u.Image != nil {
			s.removeImage(wctx, u.Image.Filename)
		}
		return nil, storeError(fmt.Sprintf("update listing %q", id), err)
	}
	if updated == nil {
		if u.Image != nil {
			s.removeImage(wctx, u.Image.Filename)
		}
		return nil, fmt.Errorf("update listing %q: %w", id, ErrListingNotFound)
	}
	if u.Image != nil && current.Image.Filename != "" && current.Image.Filename != u.Image.Filename {
		s.removeImage(wctx, current.Image.Filename)
	}

	span.AddEvent("listing.updated")
	return updated, nil
}

// Delete removes a listing, its reviews and (best-effort) its image.
func (s *ListingService) Delete(ctx context.Context, id string) (*domain.Listing, error) {
	ctx, span := listingSpan(ctx, "listing.delete", attribute.String("listing.id", id))
	defer span.End()

	if !domain.ValidID(id) {
		return nil, fmt.Errorf("delete listing %q: %w", id, ErrInvalidID)
	}

	wctx, cancel := detach(ctx, s.writeTimeout)
	defer cancel()

	deleted, err := s.listings.Delete(wctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, storeError(fmt.Sprintf("delete listing %q", id), err)
	}
	if deleted == nil {
		return nil, fmt.Errorf("delete listing %q: %w", id, ErrListingNotFound)
	}
	if deleted.Image.Filename != "" {
		s.removeImage(wctx, deleted.Image.Filename)
	}

	span.SetAttributes(attribute.Int("review.count", len(deleted.ReviewIDs)))
	span.AddEvent("listing.deleted")
	return deleted, nil
}

// Reseed replaces every listing with samples, all owned by ownerID.
func (s *ListingService) Reseed(ctx context.Context, samples []domain.Listing, ownerID string) (int, error) {
	ctx, span := listingSpan(ctx, "listing.reseed", attribute.String("owner.id", ownerID))
	defer span.End()

	if ownerID == "" {
		return 0, fmt.Errorf("reseed listings: %w", ErrOwnerRequired)
	}
	removed, err := s.listings.DeleteAll(ctx)
	if err != nil {
		return 0, storeError("clear listings", err)
	}
	pkgzerolog.FromContext(ctx).Info().Int64("removed", removed).Msg("Cleared listings")

	for i, sample := range samples {
		now := time.Now().UTC()
		l := sample
		l.ID = domain.NewID()
		l.OwnerID = ownerID
		l.ReviewIDs = []string{}
		l.CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
		l.UpdatedAt = l.CreatedAt
		if err := s.listings.Create(ctx, &l); err != nil {
			return i, storeError(fmt.Sprintf("insert sample %q", l.Title), err)
		}
	}
	return len(samples), nil
}

func (s *ListingService) removeImage(ctx context.Context, filename string) {
	if err := s.images.Delete(ctx, filename); err != nil {
		pkgzerolog.FromContext(ctx).Warn().Err(err).Str("filename", filename).Msg("Failed to remove image")
	}
}

// PreviewImageURL returns the thumbnail shown on the edit form. CDN upload
// URLs get a resize transformation; listings without an image fall back to
// DefaultImageURL.
func PreviewImageURL(img domain.Image) string {
	if img.URL == "" {
		return DefaultImageURL
	}
	return strings.Replace(img.URL, "/upload", "/upload/h_300,w_250", 1)
}

func (in ListingInput) validate(create bool) error {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return validationError("title is required")
	}
	if create && in.Title == nil {
		return validationError("title is required")
	}
	if in.Price != nil && (*in.Price < 0 || math.IsNaN(*in.Price) || math.IsInf(*in.Price, 0)) {
		return validationError("price must be a non-negative number")
	}
	if in.Category != nil && *in.Category != "" {
		if _, ok := domain.ParseCategory(*in.Category); !ok {
			return validationError("category %q is not supported", *in.Category)
		}
	}
	return nil
}

func (in ListingInput) update() domain.ListingUpdate {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	u := domain.ListingUpdate{
		Title:       trim(in.Title),
		Description: trim(in.Description),
		Price:       in.Price,
		Location:    trim(in.Location),
		Country:     trim(in.Country),
		Zip:         trim(in.Zip),
	}
	if in.Category != nil && *in.Category != "" {
		c := domain.Category(*in.Category)
		u.Category = &c
	}
	return u
}
