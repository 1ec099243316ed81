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

// Account notices.
const (
	msgUserExists         = "A user with the given username or email is already registered"
	msgWelcome            = "Welcome to WanderLust!"
	msgInvalidCredentials = "Invalid username or password"
	msgWelcomeBack        = "Welcome back!"
	msgLoggedOut          = "You are logged out!"
)

// Handler groups the HTTP handlers of the listings site.
// Dependencies are injected via the constructor; there is no global state.
type Handler struct {
	auth           *logicv1.AuthService
	listings       *logicv1.ListingService
	reviews        *logicv1.ReviewService
	renderer       Renderer
	maxUploadBytes int64
}

// NewHandler creates a new Handler.
func NewHandler(
	auth *logicv1.AuthService,
	listings *logicv1.ListingService,
	reviews *logicv1.ReviewService,
	renderer Renderer,
	maxUploadBytes int64,
) *Handler {
	if renderer == nil {
		renderer = JSONRenderer{}
	}
	return &Handler{
		auth:           auth,
		listings:       listings,
		reviews:        reviews,
		renderer:       renderer,
		maxUploadBytes: maxUploadBytes,
	}
}

// webSpan starts a handler span and moves the request onto its context.
func webSpan(c *gin.Context, name string) trace.Span {
	ctx, span := middleware.StartSpan(c.Request.Context(), name, trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	c.Request = c.Request.WithContext(ctx)
	return span
}

// SignupForm renders the registration page.
func (h *Handler) SignupForm(c *gin.Context) {
	h.render(c, http.StatusOK, ViewUsersSignup, nil)
}

// Signup registers an account and signs it in.
func (h *Handler) Signup(c *gin.Context) {
	span := webSpan(c, "http.signup")
	defer span.End()
	ctx := c.Request.Context()
	logger := pkgzerolog.FromContext(ctx)

	in, err := bindSignup(c)
	if err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		h.flashRedirect(c, session.FlashError, errorMessage(err), "/signup")
		return
	}

	user, err := h.auth.Register(ctx, in)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, logicv1.ErrUserExists):
			logger.Warn().Err(err).Str("username", in.Username).Msg("Registration rejected")
			h.flashRedirect(c, session.FlashError, msgUserExists, "/signup")
		case errors.Is(err, logicv1.ErrValidation):
			h.flashRedirect(c, session.FlashError, validationMessage(err), "/signup")
		default:
			_ = c.Error(err)
		}
		return
	}

	sess := session.FromContext(c)
	sess.Regenerate()
	sess.SetUser(user.ID)
	logger.Info().Str("user_id", user.ID).Msg("Registration successful")
	h.flashRedirect(c, session.FlashSuccess, msgWelcome, "/listings")
}

// LoginForm renders the sign-in page.
func (h *Handler) LoginForm(c *gin.Context) {
	h.render(c, http.StatusOK, ViewUsersLogin, nil)
}

// Login authenticates and returns the user to where they were headed.
func (h *Handler) Login(c *gin.Context) {
	span := webSpan(c, "http.login")
	defer span.End()
	ctx := c.Request.Context()
	logger := pkgzerolog.FromContext(ctx)

	in, err := bindLogin(c)
	if err != nil {
		h.flashRedirect(c, session.FlashError, msgInvalidCredentials, "/login")
		return
	}

	user, err := h.auth.Login(ctx, in.Username, in.Password)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, logicv1.ErrInvalidCredentials), errors.Is(err, logicv1.ErrUserNotFound):
			logger.Warn().Str("username", in.Username).Msg("Login failed")
			if target := c.GetString(contextKeyRedirectURL); target != "" {
				session.FromContext(c).SetRedirect(target)
			}
			h.flashRedirect(c, session.FlashError, msgInvalidCredentials, "/login")
		default:
			_ = c.Error(err)
		}
		return
	}

	target := c.GetString(contextKeyRedirectURL)
	if target == "" {
		target = "/listings"
	}
	sess := session.FromContext(c)
	sess.Regenerate()
	sess.SetUser(user.ID)
	logger.Info().Str("user_id", user.ID).Msg("Login successful")
	h.flashRedirect(c, session.FlashSuccess, msgWelcomeBack, target)
}

// Logout ends the signed-in session.
func (h *Handler) Logout(c *gin.Context) {
	sess := session.FromContext(c)
	userID := sess.UserID()
	sess.Regenerate()
	pkgzerolog.FromContext(c.Request.Context()).Info().Str("user_id", userID).Msg("Logout")
	h.flashRedirect(c, session.FlashSuccess, msgLoggedOut, "/listings")
}

// errorMessage returns the user-facing text for a binding or validation error.
func errorMessage(err error) string {
	_, msg := classify(err)
	return msg
}
