package domain

import (
	"context"
	"time"
)

// User represents a user record returned from the store.
// It includes the password hash so the Logic layer can verify credentials;
// the hash is never serialized.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserRepository defines the data-access contract for user operations.
// The Logic layer depends on this interface only, never on a driver directly.
type UserRepository interface {
	// GetByID returns the user with the given ID.
	// Returns (nil, nil) when no user is found.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByIDs returns the users that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]User, error)

	// GetByUsername returns the user matching the given username.
	// Returns (nil, nil) when no user is found.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// ExistsByUsernameOrEmail returns true when a user with the given
	// username or email already exists.
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// Create inserts a new user. Returns ErrDuplicate when the username or
	// email is already taken.
	Create(ctx context.Context, u *User) error
}
