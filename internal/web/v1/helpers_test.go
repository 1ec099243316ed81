package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/wanderlust/internal/core/domain"
	"github.com/duynhne/wanderlust/internal/core/repository"
	"github.com/duynhne/wanderlust/internal/core/storage"
	logicv1 "github.com/duynhne/wanderlust/internal/logic/v1"
	"github.com/duynhne/wanderlust/internal/web/session"
	"github.com/duynhne/wanderlust/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	store  *repository.MemoryStore
	images *storage.MemoryStore
	engine *gin.Engine
	server http.Handler
}

type appRepos struct {
	listings domain.ListingRepository
}

func newTestApp(t *testing.T) *testApp {
	return newTestAppWith(t, appRepos{})
}

func newTestAppWith(t *testing.T, repos appRepos) *testApp {
	t.Helper()
	store := repository.NewMemoryStore()
	images := storage.NewMemoryStore()
	var listings domain.ListingRepository = store.Listings()
	if repos.listings != nil {
		listings = repos.listings
	}

	h := NewHandler(
		logicv1.NewAuthService(store.Users(), time.Second),
		logicv1.NewListingService(listings, store.Reviews(), store.Users(), images, time.Second),
		logicv1.NewReviewService(store.Reviews(), time.Second),
		JSONRenderer{},
		1<<20,
	)
	sessions := session.NewManager(store.Sessions(), session.Options{Secret: []byte("test")})
	engine := NewRouter(h, RouterOptions{Sessions: sessions})
	return &testApp{
		store:  store,
		images: images,
		engine: engine,
		server: middleware.MethodOverride(engine),
	}
}

// client is a browser with a cookie jar.
type client struct {
	t       *testing.T
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) client(t *testing.T) *client {
	return &client{t: t, app: a, cookies: map[string]*http.Cookie{}}
}

func (cl *client) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	cl.t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	cl.app.server.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(cl.cookies, c.Name)
			continue
		}
		cl.cookies[c.Name] = c
	}
	return w
}

func (cl *client) get(target string) *httptest.ResponseRecorder {
	return cl.do(http.MethodGet, target, nil, "")
}

func (cl *client) form(method, target string, vals url.Values) *httptest.ResponseRecorder {
	return cl.do(method, target, strings.NewReader(vals.Encode()), "application/x-www-form-urlencoded")
}

func (cl *client) multipart(target string, fields map[string]string, withImage bool) *httptest.ResponseRecorder {
	cl.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(cl.t, mw.WriteField(k, v))
	}
	if withImage {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="listing[image]"; filename="cabin.jpg"`)
		hdr.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(hdr)
		require.NoError(cl.t, err)
		_, err = part.Write([]byte("not really a jpeg"))
		require.NoError(cl.t, err)
	}
	require.NoError(cl.t, mw.Close())
	return cl.do(http.MethodPost, target, &buf, mw.FormDataContentType())
}

// page decodes a rendered view.
func page(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// follow asserts a redirect to location and renders the target page.
func (cl *client) follow(w *httptest.ResponseRecorder, location string) map[string]any {
	cl.t.Helper()
	require.Equal(cl.t, http.StatusFound, w.Code, w.Body.String())
	require.Equal(cl.t, location, w.Header().Get("Location"))
	next := cl.get(location)
	require.Equal(cl.t, http.StatusOK, next.Code, next.Body.String())
	return page(cl.t, next)
}

func flashes(p map[string]any, kind string) []string {
	f, _ := p["flash"].(map[string]any)
	raw, _ := f[kind].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		out = append(out, v.(string))
	}
	return out
}

func (cl *client) signup(username string) *httptest.ResponseRecorder {
	return cl.form(http.MethodPost, "/signup", url.Values{
		"username": {username},
		"email":    {username + "@example.com"},
		"password": {"pw-" + username},
	})
}

func (cl *client) login(username, password string) *httptest.ResponseRecorder {
	return cl.form(http.MethodPost, "/login", url.Values{
		"username": {username},
		"password": {password},
	})
}

func cabinFields() map[string]string {
	return map[string]string{
		"listing[title]":       "Cabin",
		"listing[description]": "Quiet cabin by the lake",
		"listing[price]":       "100",
		"listing[location]":    "Aspen",
		"listing[country]":     "USA",
		"listing[category]":    "Mountains",
	}
}

// createListing creates a listing as the signed-in user and returns its id.
func (cl *client) createListing(fields map[string]string) string {
	cl.t.Helper()
	w := cl.multipart("/listings", fields, true)
	require.Equal(cl.t, http.StatusFound, w.Code, w.Body.String())
	require.Equal(cl.t, "/listings", w.Header().Get("Location"))

	all, err := cl.app.store.Listings().List(context.Background())
	require.NoError(cl.t, err)
	for _, l := range all {
		if l.Title == fields["listing[title]"] {
			return l.ID
		}
	}
	cl.t.Fatalf("listing %q not stored", fields["listing[title]"])
	return ""
}
