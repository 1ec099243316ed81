package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/duynhne/wanderlust/internal/core/domain"
	"github.com/duynhne/wanderlust/internal/web/session"
)

// View names.
const (
	ViewListingsIndex = "listings/index"
	ViewListingsNew   = "listings/new"
	ViewListingsShow  = "listings/show"
	ViewListingsEdit  = "listings/edit"
	ViewUsersSignup   = "users/signup"
	ViewUsersLogin    = "users/login"
	ViewError         = "error"
)

// Renderer turns a named view and its data into a response body.
type Renderer interface {
	Render(w http.ResponseWriter, status int, view string, data gin.H) error
}

// JSONRenderer writes the view model as JSON. It stands in for a template
// engine and keeps every page machine-readable.
type JSONRenderer struct{}

// Render implements Renderer.
func (JSONRenderer) Render(w http.ResponseWriter, status int, view string, data gin.H) error {
	r := render.JSON{Data: data}
	r.WriteContentType(w)
	w.WriteHeader(status)
	return r.Render(w)
}

// Profile is the public view of a user.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

func profileOf(u *domain.User) *Profile {
	if u == nil {
		return nil
	}
	return &Profile{ID: u.ID, Username: u.Username, Email: u.Email}
}

// publicProfileOf is profileOf without the email address.
func publicProfileOf(u *domain.User) *Profile {
	if u == nil {
		return nil
	}
	return &Profile{ID: u.ID, Username: u.Username}
}

// render commits the session, consuming pending flash notices into the page,
// and writes the view.
func (h *Handler) render(c *gin.Context, status int, view string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	sess := session.FromContext(c)
	data["view"] = view
	data["flash"] = sess.Flashes()
	data["currentUser"] = profileOf(currentUser(c))

	if err := session.Save(c); err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.renderer.Render(c.Writer, status, view, data); err != nil {
		_ = c.Error(err)
	}
}

// redirect commits the session, keeping flash notices for the next page.
func (h *Handler) redirect(c *gin.Context, location string) {
	if err := session.Save(c); err != nil {
		_ = c.Error(err)
		return
	}
	c.Redirect(http.StatusFound, location)
	c.Abort()
}

func (h *Handler) flashRedirect(c *gin.Context, kind, msg, location string) {
	session.FromContext(c).AddFlash(kind, msg)
	h.redirect(c, location)
}
