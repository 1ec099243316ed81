package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	logicv1 "github.com/duynhne/wanderlust/internal/logic/v1"
	"github.com/duynhne/wanderlust/internal/web/session"
	"github.com/duynhne/wanderlust/middleware"
)

// Authorization notices.
const (
	msgSignInRequired   = "You must be signed in to access"
	msgInvalidListingID = "Invalid listing ID"
	msgListingNotFound  = "Listing not found"
	msgNotListingOwner  = "You have no permission to edit this listing"
	msgReviewNotFound   = "Review not found"
	msgNotReviewAuthor  = "You have no permission to delete this review"
	msgSomethingWrong   = "Something went wrong"
)

const contextKeyListing = "wanderlust.listing"

// RequireAuthenticated lets signed-in users through. Anyone else is sent to
// the login page; for GET requests the original URL is remembered so login
// can return there.
func (h *Handler) RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) != nil {
			c.Next()
			return
		}
		sess := session.FromContext(c)
		if c.Request.Method == http.MethodGet {
			sess.SetRedirect(c.Request.URL.RequestURI())
		}
		h.flashRedirect(c, session.FlashError, msgSignInRequired, "/login")
	}
}

// RequireOwner lets the listing's owner through. The listing is fetched on
// every request.
func (h *Handler) RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		ctx, span := middleware.StartSpan(c.Request.Context(), "authz.require_owner", trace.WithAttributes(
			attribute.String("layer", "web"),
			attribute.String("listing.id", id),
		))
		defer span.End()

		l, err := h.listings.Get(ctx, id)
		switch {
		case errors.Is(err, logicv1.ErrInvalidID):
			h.flashRedirect(c, session.FlashError, msgInvalidListingID, "/listings")
			return
		case errors.Is(err, logicv1.ErrListingNotFound):
			h.flashRedirect(c, session.FlashError, msgListingNotFound, "/listings")
			return
		case err != nil:
			span.RecordError(err)
			pkgzerolog.FromContext(ctx).Error().Err(err).Str("listing_id", id).Msg("Ownership check failed")
			h.flashRedirect(c, session.FlashError, msgSomethingWrong, "/listings")
			return
		}

		u := currentUser(c)
		if u == nil || l.OwnerID != u.ID {
			span.SetAttributes(attribute.Bool("authz.allowed", false))
			h.flashRedirect(c, session.FlashError, msgNotListingOwner, "/listings/"+id)
			return
		}
		span.SetAttributes(attribute.Bool("authz.allowed", true))
		c.Set(contextKeyListing, l)
		c.Next()
	}
}

// RequireReviewAuthor lets the review's author through.
func (h *Handler) RequireReviewAuthor() gin.HandlerFunc {
	return func(c *gin.Context) {
		listingID, reviewID := c.Param("id"), c.Param("reviewId")
		ctx, span := middleware.StartSpan(c.Request.Context(), "authz.require_review_author", trace.WithAttributes(
			attribute.String("layer", "web"),
			attribute.String("review.id", reviewID),
		))
		defer span.End()

		back := "/listings/" + listingID
		r, err := h.reviews.Get(ctx, reviewID)
		switch {
		case errors.Is(err, logicv1.ErrReviewNotFound):
			h.flashRedirect(c, session.FlashError, msgReviewNotFound, back)
			return
		case err != nil:
			span.RecordError(err)
			pkgzerolog.FromContext(ctx).Error().Err(err).Str("review_id", reviewID).Msg("Authorship check failed")
			h.flashRedirect(c, session.FlashError, msgSomethingWrong, back)
			return
		}

		u := currentUser(c)
		if u == nil || r.AuthorID != u.ID {
			span.SetAttributes(attribute.Bool("authz.allowed", false))
			h.flashRedirect(c, session.FlashError, msgNotReviewAuthor, back)
			return
		}
		span.SetAttributes(attribute.Bool("authz.allowed", true))
		c.Next()
	}
}

// CapturePostLoginRedirect moves the remembered post-login URL out of the
// session and into the request context. Only same-site paths are kept.
func (h *Handler) CapturePostLoginRedirect() gin.HandlerFunc {
	return func(c *gin.Context) {
		if target := session.FromContext(c).TakeRedirect(); target != "" && safeRedirect(target) {
			c.Set(contextKeyRedirectURL, target)
		}
		c.Next()
	}
}
