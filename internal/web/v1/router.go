package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duynhne/wanderlust/internal/web/session"
	"github.com/duynhne/wanderlust/middleware"
)

// RootMessage is the body of GET /.
const RootMessage = "WanderLust API is running!"

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Sessions   *session.Manager
	Production bool
}

// NewRouter builds the gin engine with the shared middleware chain, the
// browser routes, the JSON API and the 404 fallback. Probe endpoints are
// added by the caller.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(
		middleware.TracingMiddleware(),
		middleware.LoggingMiddleware(),
		middleware.PrometheusMiddleware(),
		ErrorHandler(h.renderer, opts.Production),
		Recovery(),
	)

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, RootMessage)
	})
	h.RegisterRoutes(r, opts.Sessions)
	h.RegisterAPIRoutes(r.Group("/api/v1"))
	r.NoRoute(session.Middleware(opts.Sessions), h.LoadCurrentUser(), NotFound)
	return r
}

// RegisterRoutes registers the session-backed browser routes.
func (h *Handler) RegisterRoutes(r gin.IRouter, sessions *session.Manager) {
	web := r.Group("", session.Middleware(sessions), h.LoadCurrentUser())

	authed := h.RequireAuthenticated()
	owner := h.RequireOwner()

	listings := web.Group("/listings")
	listings.GET("", h.Index)
	listings.POST("", authed, h.LimitUploadSize(), h.Create)
	listings.GET("/new", authed, h.NewForm)
	listings.GET("/search", h.Search)
	listings.GET("/category/:category", h.Category)
	listings.GET("/:id", h.Show)
	listings.PUT("/:id", authed, owner, h.LimitUploadSize(), h.Update)
	listings.DELETE("/:id", authed, owner, h.Delete)
	listings.GET("/:id/edit", authed, owner, h.EditForm)
	listings.POST("/:id/reviews", authed, h.CreateReview)
	listings.DELETE("/:id/reviews/:reviewId", authed, h.RequireReviewAuthor(), h.DeleteReview)

	web.GET("/signup", h.SignupForm)
	web.POST("/signup", h.Signup)
	web.GET("/login", h.LoginForm)
	web.POST("/login", h.CapturePostLoginRedirect(), h.Login)
	web.GET("/logout", authed, h.Logout)
}
