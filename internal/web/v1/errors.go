package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/duynhne/wanderlust/internal/core/domain"
	logicv1 "github.com/duynhne/wanderlust/internal/logic/v1"
	"github.com/duynhne/wanderlust/internal/web/session"
)

// MsgDatabaseUnavailable is shown whenever the store cannot be reached.
const MsgDatabaseUnavailable = "Database connection failed. Please try again later."

// StatusError is an error that carries its own HTTP status and user message.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string { return e.Message }

var (
	errPageNotFound   = &StatusError{Status: http.StatusNotFound, Message: "Page not found"}
	errUploadTooLarge = &StatusError{Status: http.StatusRequestEntityTooLarge, Message: "Uploaded file is too large"}
)

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.value) }

// classify maps an error to the status and message shown to the user.
func classify(err error) (int, string) {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return se.Status, se.Message
	case errors.Is(err, logicv1.ErrUnavailable), errors.Is(err, domain.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, MsgDatabaseUnavailable
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), errBadRequest.Error()+": ")
	case errors.Is(err, logicv1.ErrValidation):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, logicv1.ErrInvalidID):
		return http.StatusBadRequest, "Invalid ID format"
	case errors.Is(err, logicv1.ErrListingNotFound):
		return http.StatusNotFound, msgListingNotFound
	case errors.Is(err, logicv1.ErrReviewNotFound):
		return http.StatusNotFound, msgReviewNotFound
	case errors.Is(err, logicv1.ErrUserExists):
		return http.StatusConflict, msgUserExists
	case errors.Is(err, logicv1.ErrUnauthorized):
		return http.StatusForbidden, "You have no permission"
	}
	return http.StatusInternalServerError, msgSomethingWrong
}

// validationMessage extracts the field reason from an ErrValidation chain.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, logicv1.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(logicv1.ErrValidation.Error())+2:]
	}
	return "Invalid input"
}

// browserPath reports whether path belongs to the HTML surface, whose errors
// become a flash notice and a redirect instead of a JSON body.
func browserPath(path string) bool {
	for _, p := range []string{"/listings", "/signup", "/login", "/logout"} {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// ErrorHandler answers every request that ended with an error attached via
// c.Error. It must be registered before the handlers whose errors it reports.
func ErrorHandler(renderer Renderer, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status, msg := classify(err)

		logger := pkgzerolog.FromContext(c.Request.Context())
		event := logger.Warn()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.Err(err).Int("status", status).Str("path", c.Request.URL.Path).Msg("Request failed")

		if c.Writer.Written() {
			return
		}

		path := c.Request.URL.Path
		if browserPath(path) && !(path == "/listings" && c.Request.Method == http.MethodGet) {
			sess := session.FromContext(c)
			sess.AddFlash(session.FlashError, msg)
			if saveErr := session.Save(c); saveErr == nil {
				c.Redirect(http.StatusFound, "/listings")
				return
			}
		}
		if browserPath(path) {
			// The redirect target itself failed, or the session is unusable.
			data := gin.H{"view": ViewError, "status": status, "message": msg, "flash": gin.H{}}
			if rerr := renderer.Render(c.Writer, status, ViewError, data); rerr != nil {
				logger.Error().Err(rerr).Msg("Failed to render error page")
			}
			return
		}

		body := gin.H{"success": false, "error": msg}
		if !production {
			body["stack"] = stackOf(err)
		}
		c.JSON(status, body)
	}
}

func stackOf(err error) string {
	var pe *panicError
	if errors.As(err, &pe) {
		return string(pe.stack)
	}
	return err.Error()
}

// Recovery turns panics into errors for ErrorHandler.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		_ = c.Error(&panicError{value: rec, stack: debug.Stack()})
		c.Abort()
	})
}

// NotFound reports unknown routes.
func NotFound(c *gin.Context) {
	_ = c.Error(errPageNotFound)
}
