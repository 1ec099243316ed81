package v1

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/duynhne/wanderlust/internal/core/domain"
	logicv1 "github.com/duynhne/wanderlust/internal/logic/v1"
	"github.com/duynhne/wanderlust/internal/web/session"
	"github.com/duynhne/wanderlust/middleware"
)

const (
	contextKeyCurrentUser = "wanderlust.current_user"
	contextKeyRedirectURL = "wanderlust.redirect_url"
)

func currentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(contextKeyCurrentUser); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

// LoadCurrentUser resolves the session's user id to a user. A session
// pointing at a deleted account is signed out silently.
func (h *Handler) LoadCurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := session.FromContext(c)
		id := sess.UserID()
		if id == "" {
			c.Next()
			return
		}
		u, err := h.auth.GetUser(c.Request.Context(), id)
		switch {
		case errors.Is(err, logicv1.ErrUserNotFound):
			pkgzerolog.FromContext(c.Request.Context()).Warn().Str("user_id", id).Msg("Session user no longer exists")
			sess.SetUser("")
		case err != nil:
			_ = c.Error(err)
			c.Abort()
			return
		default:
			c.Set(contextKeyCurrentUser, u)
			c.Set(middleware.ContextKeyUserID, u.ID)
		}
		c.Next()
	}
}

// safeRedirect reports whether target is a same-site relative path.
func safeRedirect(target string) bool {
	return strings.HasPrefix(target, "/") &&
		!strings.HasPrefix(target, "//") &&
		!strings.HasPrefix(target, "/\\") &&
		!strings.ContainsAny(target, "\r\n")
}
