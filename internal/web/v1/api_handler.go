package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes registers the read-only JSON API on rg.
func (h *Handler) RegisterAPIRoutes(rg *gin.RouterGroup) {
	rg.GET("/listings", h.APIListListings)
	rg.GET("/listings/:id", h.APIGetListing)
}

// APIListListings handles GET /api/v1/listings. An optional ?category=
// narrows the result.
func (h *Handler) APIListListings(c *gin.Context) {
	span := webSpan(c, "http.api.list_listings")
	defer span.End()
	ctx := c.Request.Context()

	var (
		listings any
		err      error
	)
	if category, ok := c.GetQuery("category"); ok {
		listings, err = h.listings.FilterByCategory(ctx, category)
	} else {
		listings, err = h.listings.List(ctx)
	}
	if err != nil {
		span.RecordError(err)
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "listings": listings})
}

// APIGetListing handles GET /api/v1/listings/:id.
func (h *Handler) APIGetListing(c *gin.Context) {
	span := webSpan(c, "http.api.get_listing")
	defer span.End()

	detail, err := h.listings.GetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		span.RecordError(err)
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"listing": detail.Listing,
		"owner":   publicProfileOf(detail.Owner),
		"reviews": reviewViews(detail.Reviews),
	})
}
