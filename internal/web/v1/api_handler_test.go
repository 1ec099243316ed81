package v1

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/wanderlust/internal/core/domain"
)

func TestAPIListAndFilter(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	alice.signup("alice")
	alice.createListing(cabinFields())

	anon := app.client(t)
	w := anon.get("/api/v1/listings")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := page(t, w)
	assert.Equal(t, true, body["success"])
	require.Len(t, body["listings"], 1)

	w = anon.get("/api/v1/listings?category=Mountains")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, page(t, w)["listings"], 1)

	w = anon.get("/api/v1/listings?category=" + url.QueryEscape("Iconic cities"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, page(t, w)["listings"])
}

func TestAPIGetListing(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	alice.signup("alice")
	id := alice.createListing(cabinFields())

	bob := app.client(t)
	bob.signup("bob")
	bob.form(http.MethodPost, "/listings/"+id+"/reviews", url.Values{
		"review[comment]": {"Lovely"},
		"review[rating]":  {"4"},
	})

	w := app.client(t).get("/api/v1/listings/" + id)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := page(t, w)
	assert.Equal(t, "Cabin", body["listing"].(map[string]any)["title"])

	owner := body["owner"].(map[string]any)
	assert.Equal(t, "alice", owner["username"])
	assert.NotContains(t, owner, "email")

	reviews := body["reviews"].([]any)
	require.Len(t, reviews, 1)
	review := reviews[0].(map[string]any)
	assert.Equal(t, 4.0, review["rating"])
	assert.NotContains(t, review["author"], "email")
}

func TestAPIGetListingErrors(t *testing.T) {
	app := newTestApp(t)
	cl := app.client(t)

	w := cl.get("/api/v1/listings/not-an-id")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid ID format", page(t, w)["error"])

	w = cl.get("/api/v1/listings/" + domain.NewID())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, msgListingNotFound, page(t, w)["error"])
}
