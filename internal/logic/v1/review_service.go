package v1

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/wanderlust/internal/core/domain"
	"github.com/duynhne/wanderlust/middleware"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// ReviewInput is the submitted review form.
type ReviewInput struct {
	Comment string `json:"comment"`
	Rating  int    `json:"rating"`
}

// ReviewService implements the review lifecycle.
type ReviewService struct {
	reviews      domain.ReviewRepository
	writeTimeout time.Duration
}

// NewReviewService creates a ReviewService.
func NewReviewService(reviews domain.ReviewRepository, writeTimeout time.Duration) *ReviewService {
	return &ReviewService{reviews: reviews, writeTimeout: writeTimeout}
}

// Get returns one review. Malformed ids are reported as not found.
func (s *ReviewService) Get(ctx context.Context, id string) (*domain.Review, error) {
	ctx, span := middleware.StartSpan(ctx, "review.get", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("review.id", id),
	))
	defer span.End()

	if !domain.ValidID(id) {
		return nil, fmt.Errorf("get review %q: %w", id, ErrReviewNotFound)
	}
	r, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, storeError(fmt.Sprintf("get review %q", id), err)
	}
	if r == nil {
		return nil, fmt.Errorf("get review %q: %w", id, ErrReviewNotFound)
	}
	return r, nil
}

// Create adds a review by authorID to the listing.
func (s *ReviewService) Create(ctx context.Context, listingID string, in ReviewInput, authorID string) (*domain.Review, error) {
	ctx, span := middleware.StartSpan(ctx, "review.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("listing.id", listingID),
		attribute.String("author.id", authorID),
	))
	defer span.End()

	if !domain.ValidID(listingID) {
		return nil, fmt.Errorf("create review on %q: %w", listingID, ErrInvalidID)
	}
	if authorID == "" {
		return nil, fmt.Errorf("create review on %q: %w", listingID, ErrUnauthorized)
	}
	comment := strings.TrimSpace(in.Comment)
	if comment == "" {
		return nil, fmt.Errorf("create review on %q: %w", listingID, validationError("comment is required"))
	}
	if in.Rating < MinRating || in.Rating > MaxRating {
		return nil, fmt.Errorf("create review on %q: %w", listingID,
			validationError("rating must be between %d and %d", MinRating, MaxRating))
	}

	r := &domain.Review{
		ID:        domain.NewID(),
		Comment:   comment,
		Rating:    in.Rating,
		AuthorID:  authorID,
		CreatedAt: time.Now().UTC(),
	}

	wctx, cancel := detach(ctx, s.writeTimeout)
	defer cancel()
	if err := s.reviews.CreateForListing(wctx, listingID, r); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("create review on %q: %w", listingID, ErrListingNotFound)
		}
		span.RecordError(err)
		return nil, storeError(fmt.Sprintf("create review on %q", listingID), err)
	}

	span.SetAttributes(attribute.String("review.id", r.ID))
	span.AddEvent("review.created")
	return r, nil
}

// Delete detaches the review from the listing and removes it.
func (s *ReviewService) Delete(ctx context.Context, listingID, reviewID string) error {
	ctx, span := middleware.StartSpan(ctx, "review.delete", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("listing.id", listingID),
		attribute.String("review.id", reviewID),
	))
	defer span.End()

	if !domain.ValidID(listingID) {
		return fmt.Errorf("delete review %q: %w", reviewID, ErrInvalidID)
	}
	if !domain.ValidID(reviewID) {
		return fmt.Errorf("delete review %q: %w", reviewID, ErrReviewNotFound)
	}

	wctx, cancel := detach(ctx, s.writeTimeout)
	defer cancel()
	deleted, err := s.reviews.DeleteFromListing(wctx, listingID, reviewID)
	if err != nil {
		span.RecordError(err)
		return storeError(fmt.Sprintf("delete review %q", reviewID), err)
	}
	if !deleted {
		return fmt.Errorf("delete review %q: %w", reviewID, ErrReviewNotFound)
	}
	span.AddEvent("review.deleted")
	return nil
}
