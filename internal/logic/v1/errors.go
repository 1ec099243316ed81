// Package v1 provides the listing, review and authentication business logic
// for API version 1.
//
// Error Handling:
// This package defines sentinel errors for every expected failure. Methods
// wrap them with context using fmt.Errorf("%w") so handlers can switch on
// errors.Is and pick the notice and redirect for each case.
//
// Example Usage:
//
//	if !domain.ValidID(id) {
//	    return nil, fmt.Errorf("get listing %q: %w", id, ErrInvalidID)
//	}
//
//	if listing == nil {
//	    return nil, fmt.Errorf("get listing %q: %w", id, ErrListingNotFound)
//	}
//
// Error Checking (in handlers):
//
//	switch {
//	case errors.Is(err, logicv1.ErrInvalidID):
//	    h.redirectWithFlash(c, "/listings", session.FlashError, "Invalid listing ID")
//	case errors.Is(err, logicv1.ErrListingNotFound):
//	    h.redirectWithFlash(c, "/listings", session.FlashError, "Listing not found")
//	default:
//	    _ = c.Error(err)
//	}
package v1

import (
	"errors"
	"fmt"

	"github.com/duynhne/wanderlust/internal/core/domain"
)

// Sentinel errors for listing, review and authentication operations.
// These errors should be wrapped with context using fmt.Errorf("%w") when returned.
var (
	// ErrValidation indicates the submitted input failed a field rule.
	// HTTP Status: 422 Unprocessable Entity
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID indicates a path id is not a well-formed document id.
	// HTTP Status: 400 Bad Request
	ErrInvalidID = errors.New("invalid id")

	// ErrListingNotFound indicates the listing does not exist.
	// HTTP Status: 404 Not Found
	ErrListingNotFound = errors.New("listing not found")

	// ErrReviewNotFound indicates the review does not exist.
	// HTTP Status: 404 Not Found
	ErrReviewNotFound = errors.New("review not found")

	// ErrEmptyQuery indicates a search was submitted without a term.
	// HTTP Status: 400 Bad Request
	ErrEmptyQuery = errors.New("empty search query")

	// ErrImageRequired indicates a listing was created without an image.
	// HTTP Status: 422 Unprocessable Entity
	ErrImageRequired = errors.New("image is required")

	// ErrOwnerRequired indicates a listing was created without an owner.
	// HTTP Status: 401 Unauthorized
	ErrOwnerRequired = errors.New("owner is required")

	// ErrUnauthorized indicates the caller may not perform the operation.
	// HTTP Status: 403 Forbidden
	ErrUnauthorized = errors.New("unauthorized access")

	// ErrInvalidCredentials indicates the provided password is incorrect.
	// HTTP Status: 401 Unauthorized
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound indicates the user does not exist in the system.
	// HTTP Status: 401 Unauthorized (don't reveal user existence)
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists indicates the username or email already exists in the system.
	// HTTP Status: 409 Conflict
	ErrUserExists = errors.New("user already exists")

	// ErrUnavailable indicates the backing store could not be reached.
	// HTTP Status: 503 Service Unavailable
	ErrUnavailable = errors.New("store unavailable")
)

// storeError wraps a repository failure, tagging connectivity problems with
// ErrUnavailable.
func storeError(op string, err error) error {
	if errors.Is(err, domain.ErrUnavailable) {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// validationError builds an ErrValidation carrying a user-facing reason.
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
