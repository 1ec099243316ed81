package v1

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/wanderlust/internal/core/domain"
)

func TestRoot(t *testing.T) {
	app := newTestApp(t)
	w := app.client(t).get("/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, RootMessage, w.Body.String())
}

func TestCreateListingShowsOwnerAndCategory(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	alice.follow(alice.signup("alice"), "/listings")

	w := alice.multipart("/listings", cabinFields(), true)
	index := alice.follow(w, "/listings")
	assert.Equal(t, ViewListingsIndex, index["view"])
	assert.Equal(t, []string{msgListingCreated}, flashes(index, "success"))

	listings := index["listings"].([]any)
	require.Len(t, listings, 1)
	id := listings[0].(map[string]any)["id"].(string)

	show := page(t, alice.get("/listings/"+id))
	assert.Equal(t, ViewListingsShow, show["view"])
	listing := show["listing"].(map[string]any)
	assert.Equal(t, "Cabin", listing["title"])
	assert.Equal(t, 100.0, listing["price"])
	assert.Equal(t, "Mountains", listing["category"])
	assert.Equal(t, "alice", show["owner"].(map[string]any)["username"])
	assert.Equal(t, "alice", show["currentUser"].(map[string]any)["username"])
}

func TestCreateListingRequiresLogin(t *testing.T) {
	app := newTestApp(t)
	anon := app.client(t)

	w := anon.multipart("/listings", cabinFields(), true)
	login := anon.follow(w, "/login")
	assert.Equal(t, ViewUsersLogin, login["view"])
	assert.Equal(t, []string{msgSignInRequired}, flashes(login, "error"))

	all, err := app.store.Listings().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateListingWithoutImageRerendersForm(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	alice.signup("alice")

	w := alice.multipart("/listings", cabinFields(), false)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	p := page(t, w)
	assert.Equal(t, ViewListingsNew, p["view"])
	assert.Equal(t, []string{msgImageRequired}, flashes(p, "error"))
	assert.Equal(t, "Cabin", p["listing"].(map[string]any)["title"])
}

func TestCreateListingValidationRerendersForm(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	alice.signup("alice")

	fields := cabinFields()
	fields["listing[price]"] = "-5"
	w := alice.multipart("/listings", fields, true)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	p := page(t, w)
	assert.Equal(t, []string{"price must be a non-negative number"}, flashes(p, "error"))
	assert.Empty(t, app.images.Keys(), "rejected listing leaves no uploaded image")
}

func TestUnknownFieldsAreRejected(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	alice.signup("alice")

	fields := cabinFields()
	fields["listing[owner]"] = domain.NewID()
	w := alice.multipart("/listings", fields, true)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, flashes(page(t, w), "error")[0], "listing[owner]")

	all, err := app.store.Listings().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestNonOwnerCannotEditOrDelete(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	alice.signup("alice")
	id := alice.createListing(cabinFields())

	bob := app.client(t)
	bob.signup("bob")

	w := bob.form(http.MethodPost, "/listings/"+id, url.Values{"_method": {"PUT"}, "listing[title]": {"Hacked"}})
	show := bob.follow(w, "/listings/"+id)
	assert.Equal(t, []string{msgNotListingOwner}, flashes(show, "error"))

	w = bob.form(http.MethodPost, "/listings/"+id+"?_method=DELETE", url.Values{})
	show = bob.follow(w, "/listings/"+id)
	assert.Equal(t, []string{msgNotListingOwner}, flashes(show, "error"))

	w = bob.get("/listings/" + id + "/edit")
	bob.follow(w, "/listings/"+id)

	l, err := app.store.Listings().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, "Cabin", l.Title)
}

func TestOwnerEditsAndDeletes(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	alice.signup("alice")
	id := alice.createListing(cabinFields())

	edit := page(t, alice.get("/listings/"+id+"/edit"))
	assert.Equal(t, ViewListingsEdit, edit["view"])
	assert.Equal(t, "memory://"+edit["listing"].(map[string]any)["image"].(map[string]any)["filename"].(string), edit["originalImageUrl"])

	w := alice.form(http.MethodPost, "/listings/"+id, url.Values{"_method": {"PUT"}, "listing[price]": {"150"}})
	show := alice.follow(w, "/listings/"+id)
	assert.Equal(t, []string{msgListingUpdated}, flashes(show, "success"))
	listing := show["listing"].(map[string]any)
	assert.Equal(t, 150.0, listing["price"])
	assert.Equal(t, "Cabin", listing["title"])

	w = alice.form(http.MethodPost, "/listings/"+id, url.Values{"_method": {"DELETE"}})
	index := alice.follow(w, "/listings")
	assert.Equal(t, []string{msgListingDeleted}, flashes(index, "success"))

	w = alice.get("/listings/" + id)
	index = alice.follow(w, "/listings")
	assert.Equal(t, []string{msgListingNotFound}, flashes(index, "error"))
}

func TestEditRequiresLoginAndRemembersTarget(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	alice.signup("alice")
	id := alice.createListing(cabinFields())
	alice.get("/logout")

	w := alice.get("/listings/" + id + "/edit")
	login := alice.follow(w, "/login")
	assert.Equal(t, []string{msgSignInRequired}, flashes(login, "error"))

	w = alice.login("alice", "wrong")
	login = alice.follow(w, "/login")
	assert.Equal(t, []string{msgInvalidCredentials}, flashes(login, "error"))

	w = alice.login("alice", "pw-alice")
	edit := alice.follow(w, "/listings/"+id+"/edit")
	assert.Equal(t, ViewListingsEdit, edit["view"])
	assert.Equal(t, []string{msgWelcomeBack}, flashes(edit, "success"))
}

func TestReviewAuthorization(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	alice.signup("alice")
	id := alice.createListing(cabinFields())

	bob := app.client(t)
	bob.follow(bob.signup("bob"), "/listings")
	w := bob.form(http.MethodPost, "/listings/"+id+"/reviews", url.Values{
		"review[comment]": {"Lovely"},
		"review[rating]":  {"5"},
	})
	show := bob.follow(w, "/listings/"+id)
	assert.Equal(t, []string{msgReviewCreated}, flashes(show, "success"))
	reviews := show["reviews"].([]any)
	require.Len(t, reviews, 1)
	review := reviews[0].(map[string]any)
	assert.Equal(t, "bob", review["author"].(map[string]any)["username"])
	reviewID := review["id"].(string)

	w = alice.form(http.MethodPost, fmt.Sprintf("/listings/%s/reviews/%s?_method=DELETE", id, reviewID), url.Values{})
	show = alice.follow(w, "/listings/"+id)
	assert.Equal(t, []string{msgNotReviewAuthor}, flashes(show, "error"))
	r, err := app.store.Reviews().GetByID(context.Background(), reviewID)
	require.NoError(t, err)
	assert.NotNil(t, r)

	w = bob.form(http.MethodPost, fmt.Sprintf("/listings/%s/reviews/%s?_method=DELETE", id, reviewID), url.Values{})
	show = bob.follow(w, "/listings/"+id)
	assert.Equal(t, []string{msgReviewDeleted}, flashes(show, "success"))
	assert.Empty(t, show["reviews"])

	w = bob.form(http.MethodPost, fmt.Sprintf("/listings/%s/reviews/%s?_method=DELETE", id, domain.NewID()), url.Values{})
	show = bob.follow(w, "/listings/"+id)
	assert.Equal(t, []string{msgReviewNotFound}, flashes(show, "error"))
}

func TestDeleteReviewThroughOtherListing(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	alice.signup("alice")
	cabin := alice.createListing(cabinFields())
	hutFields := cabinFields()
	hutFields["listing[title]"] = "Hut"
	hut := alice.createListing(hutFields)

	bob := app.client(t)
	bob.follow(bob.signup("bob"), "/listings")
	bob.follow(bob.form(http.MethodPost, "/listings/"+cabin+"/reviews", url.Values{
		"review[comment]": {"Lovely"},
		"review[rating]":  {"5"},
	}), "/listings/"+cabin)

	l, err := app.store.Listings().GetByID(context.Background(), cabin)
	require.NoError(t, err)
	require.Len(t, l.ReviewIDs, 1)
	reviewID := l.ReviewIDs[0]

	w := bob.form(http.MethodPost, fmt.Sprintf("/listings/%s/reviews/%s?_method=DELETE", hut, reviewID), url.Values{})
	show := bob.follow(w, "/listings/"+hut)
	assert.Equal(t, []string{msgReviewNotFound}, flashes(show, "error"))

	r, err := app.store.Reviews().GetByID(context.Background(), reviewID)
	require.NoError(t, err)
	assert.NotNil(t, r)
	l, err = app.store.Listings().GetByID(context.Background(), cabin)
	require.NoError(t, err)
	assert.Equal(t, []string{reviewID}, l.ReviewIDs)
}

func TestInvalidReviewIsRejected(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	alice.signup("alice")
	id := alice.createListing(cabinFields())

	w := alice.form(http.MethodPost, "/listings/"+id+"/reviews", url.Values{
		"review[comment]": {"Lovely"},
		"review[rating]":  {"9"},
	})
	show := alice.follow(w, "/listings/"+id)
	assert.Equal(t, []string{msgReviewCreateFailed}, flashes(show, "error"))
	assert.Empty(t, show["reviews"])
}

func TestDeleteListingCascadesReviews(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	alice.signup("alice")
	id := alice.createListing(cabinFields())
	alice.form(http.MethodPost, "/listings/"+id+"/reviews", url.Values{
		"review[comment]": {"Mine"},
		"review[rating]":  {"4"},
	})
	l, err := app.store.Listings().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, l.ReviewIDs, 1)

	alice.form(http.MethodPost, "/listings/"+id, url.Values{"_method": {"DELETE"}})

	r, err := app.store.Reviews().GetByID(context.Background(), l.ReviewIDs[0])
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestSearch(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	alice.signup("alice")
	alice.createListing(cabinFields())
	beach := cabinFields()
	beach["listing[title]"] = "Beachfront Villa"
	beach["listing[location]"] = "Malibu"
	alice.createListing(beach)

	w := alice.get("/listings/search?q=+++")
	index := alice.follow(w, "/listings")
	assert.Equal(t, []string{msgEmptySearch}, flashes(index, "error"))

	p := page(t, alice.get("/listings/search?q=BEACHFRONT"))
	assert.Equal(t, "BEACHFRONT", p["searchQuery"])
	require.Len(t, p["listings"], 1)
	assert.Equal(t, []string{`Found 1 results for "BEACHFRONT"`}, flashes(p, "success"))

	p = page(t, alice.get("/listings/search?q=igloo"))
	assert.Empty(t, p["listings"])
	assert.Equal(t, []string{`No results found for "igloo"`}, flashes(p, "error"))
}

func TestCategoryFilter(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	alice.signup("alice")
	alice.createListing(cabinFields())

	p := page(t, alice.get("/listings/category/Mountains"))
	assert.Len(t, p["listings"], 1)
	p = page(t, alice.get("/listings/category/Volcanoes"))
	assert.Empty(t, p["listings"])
}

func TestDuplicateRegistration(t *testing.T) {
	app := newTestApp(t)
	app.client(t).signup("alice")

	mallory := app.client(t)
	w := mallory.form(http.MethodPost, "/signup", url.Values{
		"username": {"alice"},
		"email":    {"other@example.com"},
		"password": {"x"},
	})
	signup := mallory.follow(w, "/signup")
	assert.Equal(t, []string{msgUserExists}, flashes(signup, "error"))
	assert.Nil(t, signup["currentUser"])

	w = mallory.get("/listings/new")
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestSignupValidation(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		msg  string
	}{
		{"no username", url.Values{"email": {"a@example.com"}, "password": {"x"}}, "username is required"},
		{"blank username", url.Values{"username": {"  "}, "email": {"a@example.com"}, "password": {"x"}}, "username is required"},
		{"no email", url.Values{"username": {"a"}, "password": {"x"}}, "email is required"},
		{"bad email", url.Values{"username": {"a"}, "email": {"not an email"}, "password": {"x"}}, "email is invalid"},
		{"no password", url.Values{"username": {"a"}, "email": {"a@example.com"}}, "password is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			cl := app.client(t)
			signup := cl.follow(cl.form(http.MethodPost, "/signup", tt.form), "/signup")
			assert.Equal(t, []string{tt.msg}, flashes(signup, "error"))
			assert.Nil(t, signup["currentUser"])

			exists, err := app.store.Users().ExistsByUsernameOrEmail(context.Background(), "a", "a@example.com")
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestSignupSignsIn(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	index := alice.follow(alice.signup("alice"), "/listings")
	assert.Equal(t, []string{msgWelcome}, flashes(index, "success"))
	assert.Equal(t, "alice", index["currentUser"].(map[string]any)["username"])

	p := page(t, alice.get("/listings/new"))
	assert.Equal(t, ViewListingsNew, p["view"])
}

func TestLoginAndLogout(t *testing.T) {
	app := newTestApp(t)
	app.client(t).signup("alice")

	c := app.client(t)
	w := c.login("alice", "nope")
	c.follow(w, "/login")
	login := c.follow(c.get("/listings/new"), "/login")
	assert.Equal(t, []string{msgSignInRequired}, flashes(login, "error"))

	w = c.login("ghost", "nope")
	login = c.follow(w, "/login")
	assert.Equal(t, []string{msgInvalidCredentials}, flashes(login, "error"))

	// The failed attempts keep the target remembered from /listings/new.
	before := c.cookies["session"].Value
	w = c.login("alice", "pw-alice")
	form := c.follow(w, "/listings/new")
	assert.Equal(t, ViewListingsNew, form["view"])
	assert.Equal(t, []string{msgWelcomeBack}, flashes(form, "success"))
	assert.NotEqual(t, before, c.cookies["session"].Value, "login issues a new session")
	assert.Equal(t, http.StatusOK, c.get("/listings/new").Code)

	w = c.get("/logout")
	index := c.follow(w, "/listings")
	assert.Equal(t, []string{msgLoggedOut}, flashes(index, "success"))
	assert.Nil(t, index["currentUser"])
	assert.Equal(t, "/login", c.get("/listings/new").Header().Get("Location"))
}

func TestSafeRedirect(t *testing.T) {
	for target, want := range map[string]bool{
		"/listings/new":           true,
		"/listings?q=x":           true,
		"//evil.example.com":      false,
		"/\\evil.example.com":     false,
		"https://evil.example":    false,
		"listings":                false,
		"/listings\r\nSet-Cookie": false,
	} {
		assert.Equal(t, want, safeRedirect(target), target)
	}
}

func TestShowInvalidAndMissingListing(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	index := c.follow(c.get("/listings/123"), "/listings")
	assert.Equal(t, []string{msgInvalidListingID}, flashes(index, "error"))

	index = c.follow(c.get("/listings/"+domain.NewID()), "/listings")
	assert.Equal(t, []string{msgListingNotFound}, flashes(index, "error"))
}

func TestUnknownRoutes(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	w := c.get("/nowhere")
	require.Equal(t, http.StatusNotFound, w.Code)
	body := page(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Page not found", body["error"])

	index := c.follow(c.get("/listings/a/b/c"), "/listings")
	assert.Equal(t, []string{"Page not found"}, flashes(index, "error"))
}
