package v1

import (
	"errors"

	"github.com/gin-gonic/gin"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	logicv1 "github.com/duynhne/wanderlust/internal/logic/v1"
	"github.com/duynhne/wanderlust/internal/web/session"
)

// Review notices.
const (
	msgReviewCreated      = "New Review Created!"
	msgReviewCreateFailed = "Failed to create review!"
	msgReviewDeleted      = "Review deleted!"
)

// CreateReview adds the current user's review to a listing.
func (h *Handler) CreateReview(c *gin.Context) {
	span := webSpan(c, "http.review.create")
	defer span.End()
	ctx := c.Request.Context()
	listingID := c.Param("id")
	back := "/listings/" + listingID
	logger := pkgzerolog.FromContext(ctx)

	in, err := bindReview(c)
	if err != nil {
		logger.Warn().Err(err).Msg("Review rejected")
		h.flashRedirect(c, session.FlashError, msgReviewCreateFailed, back)
		return
	}

	authorID := ""
	if u := currentUser(c); u != nil {
		authorID = u.ID
	}
	r, err := h.reviews.Create(ctx, listingID, in, authorID)
	switch {
	case errors.Is(err, logicv1.ErrInvalidID):
		h.flashRedirect(c, session.FlashError, msgInvalidListingID, "/listings")
		return
	case errors.Is(err, logicv1.ErrListingNotFound):
		h.flashRedirect(c, session.FlashError, msgListingNotFound, "/listings")
		return
	case errors.Is(err, logicv1.ErrUnavailable):
		_ = c.Error(err)
		return
	case err != nil:
		span.RecordError(err)
		logger.Warn().Err(err).Str("listing_id", listingID).Msg("Review rejected")
		h.flashRedirect(c, session.FlashError, msgReviewCreateFailed, back)
		return
	}

	logger.Info().Str("review_id", r.ID).Str("listing_id", listingID).Msg("Review created")
	h.flashRedirect(c, session.FlashSuccess, msgReviewCreated, back)
}

// DeleteReview removes a review written by the current user.
func (h *Handler) DeleteReview(c *gin.Context) {
	span := webSpan(c, "http.review.delete")
	defer span.End()
	listingID, reviewID := c.Param("id"), c.Param("reviewId")
	back := "/listings/" + listingID

	err := h.reviews.Delete(c.Request.Context(), listingID, reviewID)
	switch {
	case errors.Is(err, logicv1.ErrReviewNotFound):
		h.flashRedirect(c, session.FlashError, msgReviewNotFound, back)
		return
	case errors.Is(err, logicv1.ErrInvalidID):
		h.flashRedirect(c, session.FlashError, msgInvalidListingID, "/listings")
		return
	case err != nil:
		span.RecordError(err)
		_ = c.Error(err)
		return
	}
	h.flashRedirect(c, session.FlashSuccess, msgReviewDeleted, back)
}
