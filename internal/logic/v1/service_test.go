package v1

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/wanderlust/internal/core/domain"
	"github.com/duynhne/wanderlust/internal/core/repository"
	"github.com/duynhne/wanderlust/internal/core/storage"
)

type fixture struct {
	store    *repository.MemoryStore
	images   *storage.MemoryStore
	auth     *AuthService
	listings *ListingService
	reviews  *ReviewService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	images := storage.NewMemoryStore()
	auth := NewAuthService(store.Users(), time.Second)
	auth.cost = bcrypt.MinCost
	return &fixture{
		store:    store,
		images:   images,
		auth:     auth,
		listings: NewListingService(store.Listings(), store.Reviews(), store.Users(), images, time.Second),
		reviews:  NewReviewService(store.Reviews(), time.Second),
	}
}

func (f *fixture) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), RegisterInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	return u
}

func str(s string) *string   { return &s }
func num(f float64) *float64 { return &f }
func image(name string) *ImageUpload {
	return &ImageUpload{Name: name, ContentType: "image/jpeg", Size: 3, Body: strings.NewReader("jpg")}
}

func (f *fixture) listing(t *testing.T, owner, title string) *domain.Listing {
	t.Helper()
	l, err := f.listings.Create(context.Background(), ListingInput{
		Title:    str(title),
		Price:    num(100),
		Location: str("Aspen"),
		Country:  str("USA"),
		Category: str("Mountains"),
	}, image("cabin.jpg"), owner)
	require.NoError(t, err)
	return l
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.user(t, "alice")
	assert.True(t, domain.ValidID(u.ID))
	assert.NotEqual(t, "secret", u.PasswordHash)

	got, err := f.auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.auth.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, ErrUserNotFound)

	me, err := f.auth.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)

	_, err = f.auth.GetUser(ctx, "not-an-id")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRegisterDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")

	_, err := f.auth.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = f.auth.Register(ctx, RegisterInput{Username: "bob", Email: "alice@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestCreateListing(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")

	l := f.listing(t, owner.ID, "Cabin")
	assert.Equal(t, owner.ID, l.OwnerID)
	assert.Equal(t, domain.CategoryMountains, l.Category)
	assert.Equal(t, 100.0, l.Price)
	assert.True(t, f.images.Has(l.Image.Filename))
	assert.Empty(t, l.ReviewIDs)

	detail, err := f.listings.GetDetail(context.Background(), l.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Owner)
	assert.Equal(t, "alice", detail.Owner.Username)
	assert.Equal(t, domain.CategoryMountains, detail.Listing.Category)
}

func TestCreateListingRequiresOwnerAndImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := ListingInput{Title: str("Cabin")}

	_, err := f.listings.Create(ctx, in, image("a.jpg"), "")
	assert.ErrorIs(t, err, ErrOwnerRequired)

	_, err = f.listings.Create(ctx, in, nil, domain.NewID())
	assert.ErrorIs(t, err, ErrImageRequired)

	all, err := f.listings.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateListingValidation(t *testing.T) {
	f := newFixture(t)
	owner := domain.NewID()
	tests := map[string]ListingInput{
		"missing title":    {Price: num(10)},
		"blank title":      {Title: str("  ")},
		"negative price":   {Title: str("t"), Price: num(-1)},
		"unknown category": {Title: str("t"), Category: str("Volcanoes")},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.listings.Create(context.Background(), in, image("a.jpg"), owner)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestGetListingErrors(t *testing.T) {
	f := newFixture(t)
	_, err := f.listings.Get(context.Background(), "123")
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = f.listings.Get(context.Background(), domain.NewID())
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	first := f.listing(t, owner.ID, "First")
	time.Sleep(2 * time.Millisecond)
	second := f.listing(t, owner.ID, "Second")

	all, err := f.listings.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "alice")
	f.listing(t, owner.ID, "Cozy Beachfront Cottage")
	f.listing(t, owner.ID, "Modern Loft (Downtown)")
	f.listing(t, owner.ID, "Rustic Cabin")

	res, err := f.listings.Search(ctx, "  beachFRONT ")
	require.NoError(t, err)
	assert.Equal(t, "beachFRONT", res.Query)
	require.Len(t, res.Listings, 1)
	assert.Equal(t, "Cozy Beachfront Cottage", res.Listings[0].Title)

	res, err = f.listings.Search(ctx, "(Downtown)")
	require.NoError(t, err)
	assert.Len(t, res.Listings, 1, "metacharacters are matched literally")

	res, err = f.listings.Search(ctx, ".*")
	require.NoError(t, err)
	assert.Empty(t, res.Listings)

	res, err = f.listings.Search(ctx, "usa")
	require.NoError(t, err)
	assert.Len(t, res.Listings, 3)
}

type countingListings struct {
	domain.ListingRepository
	searches   int
	categories int
}

func (c *countingListings) Search(ctx context.Context, q string) ([]domain.Listing, error) {
	c.searches++
	return c.ListingRepository.Search(ctx, q)
}

func (c *countingListings) ListByCategory(ctx context.Context, cat domain.Category) ([]domain.Listing, error) {
	c.categories++
	return c.ListingRepository.ListByCategory(ctx, cat)
}

func TestEmptySearchAndUnknownCategoryNeverQuery(t *testing.T) {
	store := repository.NewMemoryStore()
	counting := &countingListings{ListingRepository: store.Listings()}
	svc := NewListingService(counting, store.Reviews(), store.Users(), storage.NewMemoryStore(), time.Second)

	for _, q := range []string{"", "   ", "\t"} {
		_, err := svc.Search(context.Background(), q)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}
	assert.Zero(t, counting.searches)

	got, err := svc.FilterByCategory(context.Background(), "Volcanoes")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, counting.categories)

	_, err = svc.FilterByCategory(context.Background(), "Beach")
	require.NoError(t, err)
	assert.Equal(t, 1, counting.categories)
}

func TestFilterByCategory(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	f.listing(t, owner.ID, "Cabin")
	_, err := f.listings.Create(context.Background(), ListingInput{
		Title: str("Villa"), Category: str("Pools"),
	}, image("v.png"), owner.ID)
	require.NoError(t, err)

	pools, err := f.listings.FilterByCategory(context.Background(), "Pools")
	require.NoError(t, err)
	require.Len(t, pools, 1)
	assert.Equal(t, "Villa", pools[0].Title)

	lower, err := f.listings.FilterByCategory(context.Background(), "pools")
	require.NoError(t, err)
	assert.Empty(t, lower, "category match is exact")
}

func TestUpdateListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "alice")
	l := f.listing(t, owner.ID, "Cabin")
	oldImage := l.Image.Filename

	updated, err := f.listings.Update(ctx, l.ID, ListingInput{Price: num(150)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 150.0, updated.Price)
	assert.Equal(t, "Cabin", updated.Title)
	assert.Equal(t, owner.ID, updated.OwnerID)
	assert.True(t, f.images.Has(oldImage))

	updated, err = f.listings.Update(ctx, l.ID, ListingInput{}, image("new.jpg"))
	require.NoError(t, err)
	assert.NotEqual(t, oldImage, updated.Image.Filename)
	assert.False(t, f.images.Has(oldImage), "replaced image is removed")
	assert.True(t, f.images.Has(updated.Image.Filename))

	_, err = f.listings.Update(ctx, l.ID, ListingInput{Title: str("")}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.listings.Update(ctx, domain.NewID(), ListingInput{Price: num(1)}, nil)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestDeleteListingCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "alice")
	reviewer := f.user(t, "bob")
	l := f.listing(t, owner.ID, "Cabin")

	var reviewIDs []string
	for i := 1; i <= 3; i++ {
		r, err := f.reviews.Create(ctx, l.ID, ReviewInput{Comment: "nice", Rating: i}, reviewer.ID)
		require.NoError(t, err)
		reviewIDs = append(reviewIDs, r.ID)
	}

	deleted, err := f.listings.Delete(ctx, l.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, reviewIDs, deleted.ReviewIDs)
	assert.False(t, f.images.Has(l.Image.Filename))

	for _, id := range reviewIDs {
		_, err := f.reviews.Get(ctx, id)
		assert.ErrorIs(t, err, ErrReviewNotFound)
	}

	_, err = f.listings.Delete(ctx, l.ID)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestReviewLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "alice")
	bob := f.user(t, "bob")
	l := f.listing(t, owner.ID, "Cabin")

	r, err := f.reviews.Create(ctx, l.ID, ReviewInput{Comment: " Great stay ", Rating: 5}, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "Great stay", r.Comment)
	assert.Equal(t, bob.ID, r.AuthorID)

	detail, err := f.listings.GetDetail(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, detail.Reviews, 1)
	require.NotNil(t, detail.Reviews[0].Author)
	assert.Equal(t, "bob", detail.Reviews[0].Author.Username)

	require.NoError(t, f.reviews.Delete(ctx, l.ID, r.ID))
	got, err := f.listings.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ReviewIDs)

	err = f.reviews.Delete(ctx, l.ID, r.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestCreateReviewErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "alice")
	l := f.listing(t, owner.ID, "Cabin")

	_, err := f.reviews.Create(ctx, domain.NewID(), ReviewInput{Comment: "x", Rating: 3}, owner.ID)
	assert.ErrorIs(t, err, ErrListingNotFound)

	_, err = f.reviews.Create(ctx, "bad", ReviewInput{Comment: "x", Rating: 3}, owner.ID)
	assert.ErrorIs(t, err, ErrInvalidID)

	for _, in := range []ReviewInput{{Comment: "", Rating: 3}, {Comment: "x", Rating: 0}, {Comment: "x", Rating: 6}} {
		_, err = f.reviews.Create(ctx, l.ID, in, owner.ID)
		assert.ErrorIs(t, err, ErrValidation)
	}

	_, err = f.reviews.Create(ctx, l.ID, ReviewInput{Comment: "x", Rating: 3}, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

type downListings struct{ domain.ListingRepository }

func (downListings) List(context.Context) ([]domain.Listing, error) {
	return nil, fmt.Errorf("%w: connection refused", domain.ErrUnavailable)
}

func TestStoreOutageMapsToUnavailable(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewListingService(downListings{store.Listings()}, store.Reviews(), store.Users(), storage.NewMemoryStore(), time.Second)
	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}

func TestWritesSurviveCancelledRequest(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l, err := f.listings.Create(ctx, ListingInput{Title: str("Cabin")}, image("a.jpg"), owner.ID)
	require.NoError(t, err)
	_, err = f.listings.Get(context.Background(), l.ID)
	assert.NoError(t, err)
}

func TestPreviewImageURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/image/upload/h_300,w_250/v1/a.jpg",
		PreviewImageURL(domain.Image{URL: "https://cdn.example.com/image/upload/v1/a.jpg"}))
	assert.Equal(t, "http://minio:9000/b/a.jpg", PreviewImageURL(domain.Image{URL: "http://minio:9000/b/a.jpg"}))
	assert.Equal(t, DefaultImageURL, PreviewImageURL(domain.Image{}))
}

func TestReseed(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	f.listing(t, owner.ID, "Old")

	n, err := f.listings.Reseed(context.Background(), []domain.Listing{
		{Title: "A", Category: domain.CategoryBeach},
		{Title: "B", Category: domain.CategoryRooms},
	}, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := f.listings.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "B", all[0].Title)
	for _, l := range all {
		assert.Equal(t, owner.ID, l.OwnerID)
	}
}
