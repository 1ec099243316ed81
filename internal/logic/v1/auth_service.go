package v1

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/wanderlust/internal/core/domain"
	"github.com/duynhne/wanderlust/middleware"
)

// RegisterInput is the sign-up form. The binding tags are enforced when the
// form is bound.
type RegisterInput struct {
	Username string `json:"username" form:"username" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// AuthService implements authentication business rules.
// It depends on repository interfaces (injected via constructor) and
// MUST NOT access the database directly. Session binding is the web layer's job.
type AuthService struct {
	users        domain.UserRepository
	writeTimeout time.Duration
	cost         int
}

// NewAuthService creates a new AuthService with the given repository dependencies.
func NewAuthService(users domain.UserRepository, writeTimeout time.Duration) *AuthService {
	return &AuthService{
		users:        users,
		writeTimeout: writeTimeout,
		cost:         bcrypt.DefaultCost,
	}
}

// Register creates a user account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.register", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", in.Username),
	))
	defer span.End()

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		span.RecordError(err)
		return nil, storeError("check existing user", err)
	}
	if exists {
		span.SetAttributes(attribute.Bool("registration.success", false))
		return nil, fmt.Errorf("register user %q: %w", username, ErrUserExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           domain.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	wctx, cancel := detach(ctx, s.writeTimeout)
	defer cancel()
	if err := s.users.Create(wctx, user); err != nil {
		// Lost a race with a concurrent sign-up for the same name.
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("register user %q: %w", username, ErrUserExists)
		}
		span.RecordError(err)
		return nil, storeError("insert user", err)
	}

	span.SetAttributes(
		attribute.String("user.id", user.ID),
		attribute.Bool("registration.success", true),
	)
	span.AddEvent("user.registered")
	return user, nil
}

// Login verifies a username and password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", username),
	))
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("authenticate user: %w", ErrInvalidCredentials)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		span.RecordError(err)
		return nil, storeError(fmt.Sprintf("query user %q", username), err)
	}
	if user == nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate user %q: %w", username, ErrUserNotFound)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate user %q: %w", username, ErrInvalidCredentials)
	}

	span.SetAttributes(
		attribute.String("user.id", user.ID),
		attribute.Bool("auth.success", true),
	)
	span.AddEvent("user.authenticated")
	return user, nil
}

// GetUser resolves the user bound to a session.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.get_user", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", id),
	))
	defer span.End()

	if !domain.ValidID(id) {
		return nil, fmt.Errorf("get user %q: %w", id, ErrUserNotFound)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, storeError(fmt.Sprintf("get user %q", id), err)
	}
	if user == nil {
		return nil, fmt.Errorf("get user %q: %w", id, ErrUserNotFound)
	}
	return user, nil
}

// detach returns a context that survives client disconnects but still ends
// after timeout.
func detach(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
