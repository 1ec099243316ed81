package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/duynhne/wanderlust/internal/core/domain"
	logicv1 "github.com/duynhne/wanderlust/internal/logic/v1"
	"github.com/duynhne/wanderlust/internal/web/session"
)

// Listing notices.
const (
	msgEmptySearch    = "Please enter a search term"
	msgListingCreated = "New Listing created!"
	msgListingUpdated = "Listing updated successfully!"
	msgListingDeleted = "Listing deleted successfully!"
	msgImageRequired  = "Image is required"
)

// Index lists every listing.
func (h *Handler) Index(c *gin.Context) {
	listings, err := h.listings.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.render(c, http.StatusOK, ViewListingsIndex, gin.H{"listings": listings})
}

// NewForm renders the create form.
func (h *Handler) NewForm(c *gin.Context) {
	h.render(c, http.StatusOK, ViewListingsNew, gin.H{
		"listing":    gin.H{},
		"categories": domain.Categories,
	})
}

// Search lists listings matching ?q=.
func (h *Handler) Search(c *gin.Context) {
	span := webSpan(c, "http.listing.search")
	defer span.End()

	res, err := h.listings.Search(c.Request.Context(), c.Query("q"))
	if errors.Is(err, logicv1.ErrEmptyQuery) {
		h.flashRedirect(c, session.FlashError, msgEmptySearch, "/listings")
		return
	}
	if err != nil {
		span.RecordError(err)
		_ = c.Error(err)
		return
	}

	span.SetAttributes(attribute.Int("search.results", len(res.Listings)))
	sess := session.FromContext(c)
	if len(res.Listings) == 0 {
		sess.AddFlash(session.FlashError, fmt.Sprintf("No results found for %q", res.Query))
	} else {
		sess.AddFlash(session.FlashSuccess, fmt.Sprintf("Found %d results for %q", len(res.Listings), res.Query))
	}
	h.render(c, http.StatusOK, ViewListingsIndex, gin.H{
		"listings":    res.Listings,
		"searchQuery": res.Query,
	})
}

// Category lists listings in one category.
func (h *Handler) Category(c *gin.Context) {
	category := c.Param("category")
	listings, err := h.listings.FilterByCategory(c.Request.Context(), category)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.render(c, http.StatusOK, ViewListingsIndex, gin.H{
		"listings": listings,
		"category": category,
	})
}

// Show renders one listing with its owner and reviews.
func (h *Handler) Show(c *gin.Context) {
	detail, err := h.listings.GetDetail(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, logicv1.ErrInvalidID):
		h.flashRedirect(c, session.FlashError, msgInvalidListingID, "/listings")
		return
	case errors.Is(err, logicv1.ErrListingNotFound):
		h.flashRedirect(c, session.FlashError, msgListingNotFound, "/listings")
		return
	case err != nil:
		_ = c.Error(err)
		return
	}

	h.render(c, http.StatusOK, ViewListingsShow, gin.H{
		"listing": detail.Listing,
		"owner":   publicProfileOf(detail.Owner),
		"reviews": reviewViews(detail.Reviews),
	})
}

func reviewViews(reviews []logicv1.ReviewDetail) []gin.H {
	out := make([]gin.H, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, gin.H{
			"id":        r.ID,
			"comment":   r.Comment,
			"rating":    r.Rating,
			"createdAt": r.CreatedAt,
			"author":    publicProfileOf(r.Author),
		})
	}
	return out
}

// Create stores a new listing owned by the current user.
func (h *Handler) Create(c *gin.Context) {
	span := webSpan(c, "http.listing.create")
	defer span.End()
	ctx := c.Request.Context()

	in, img, err := bindListing(c)
	if err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		h.rejectListing(c, in, errorMessage(err), err)
		return
	}

	owner := currentUser(c)
	ownerID := ""
	if owner != nil {
		ownerID = owner.ID
	}
	l, err := h.listings.Create(ctx, in, img, ownerID)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, logicv1.ErrImageRequired):
			h.rejectListing(c, in, msgImageRequired, err)
		case errors.Is(err, logicv1.ErrValidation):
			h.rejectListing(c, in, validationMessage(err), err)
		case errors.Is(err, logicv1.ErrOwnerRequired):
			h.flashRedirect(c, session.FlashError, msgSignInRequired, "/login")
		default:
			_ = c.Error(err)
		}
		return
	}

	pkgzerolog.FromContext(ctx).Info().Str("listing_id", l.ID).Str("owner_id", l.OwnerID).Msg("Listing created")
	h.flashRedirect(c, session.FlashSuccess, msgListingCreated, "/listings")
}

// rejectListing re-renders the create form with the submitted values.
func (h *Handler) rejectListing(c *gin.Context, in logicv1.ListingInput, msg string, err error) {
	pkgzerolog.FromContext(c.Request.Context()).Warn().Err(err).Msg("Listing rejected")
	session.FromContext(c).AddFlash(session.FlashError, msg)
	h.render(c, http.StatusUnprocessableEntity, ViewListingsNew, gin.H{
		"listing":    in,
		"categories": domain.Categories,
	})
}

// EditForm renders the edit form for the owner.
func (h *Handler) EditForm(c *gin.Context) {
	l, ok := c.Get(contextKeyListing)
	listing, _ := l.(*domain.Listing)
	if !ok || listing == nil {
		var err error
		listing, err = h.listings.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			return
		}
	}
	h.render(c, http.StatusOK, ViewListingsEdit, gin.H{
		"listing":          listing,
		"originalImageUrl": logicv1.PreviewImageURL(listing.Image),
		"categories":       domain.Categories,
	})
}

// Update applies the owner's edits.
func (h *Handler) Update(c *gin.Context) {
	span := webSpan(c, "http.listing.update")
	defer span.End()
	id := c.Param("id")

	in, img, err := bindListing(c)
	if err != nil {
		h.flashRedirect(c, session.FlashError, errorMessage(err), "/listings/"+id+"/edit")
		return
	}

	_, err = h.listings.Update(c.Request.Context(), id, in, img)
	switch {
	case errors.Is(err, logicv1.ErrValidation):
		h.flashRedirect(c, session.FlashError, validationMessage(err), "/listings/"+id+"/edit")
		return
	case errors.Is(err, logicv1.ErrListingNotFound):
		h.flashRedirect(c, session.FlashError, msgListingNotFound, "/listings")
		return
	case err != nil:
		span.RecordError(err)
		_ = c.Error(err)
		return
	}
	h.flashRedirect(c, session.FlashSuccess, msgListingUpdated, "/listings/"+id)
}

// Delete removes the listing and its reviews.
func (h *Handler) Delete(c *gin.Context) {
	span := webSpan(c, "http.listing.delete")
	defer span.End()

	deleted, err := h.listings.Delete(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, logicv1.ErrInvalidID):
		h.flashRedirect(c, session.FlashError, msgInvalidListingID, "/listings")
		return
	case errors.Is(err, logicv1.ErrListingNotFound):
		h.flashRedirect(c, session.FlashError, msgListingNotFound, "/listings")
		return
	case err != nil:
		span.RecordError(err)
		_ = c.Error(err)
		return
	}
	pkgzerolog.FromContext(c.Request.Context()).Info().
		Str("listing_id", deleted.ID).
		Int("reviews_removed", len(deleted.ReviewIDs)).
		Msg("Listing deleted")
	h.flashRedirect(c, session.FlashSuccess, msgListingDeleted, "/listings")
}

// LimitUploadSize caps request bodies on write routes.
func (h *Handler) LimitUploadSize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.maxUploadBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
		}
		c.Next()
	}
}
