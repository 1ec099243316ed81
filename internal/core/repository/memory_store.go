package repository

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/duynhne/wanderlust/internal/core/domain"
)

// MemoryStore keeps every collection in-process. It backs DB_DRIVER=memory
// and the test suites; one mutex guards all collections so compound writes
// are atomic.
type MemoryStore struct {
	mu       sync.RWMutex
	listings map[string]domain.Listing
	reviews  map[string]domain.Review
	users    map[string]domain.User
	sessions map[string]domain.SessionRecord
	now      func() time.Time
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings: make(map[string]domain.Listing),
		reviews:  make(map[string]domain.Review),
		users:    make(map[string]domain.User),
		sessions: make(map[string]domain.SessionRecord),
		now:      time.Now,
	}
}

// Listings returns the listing repository view of the store.
func (m *MemoryStore) Listings() *MemoryListingRepository { return &MemoryListingRepository{m: m} }

// Reviews returns the review repository view of the store.
func (m *MemoryStore) Reviews() *MemoryReviewRepository { return &MemoryReviewRepository{m: m} }

// Users returns the user repository view of the store.
func (m *MemoryStore) Users() *MemoryUserRepository { return &MemoryUserRepository{m: m} }

// Sessions returns the session repository view of the store.
func (m *MemoryStore) Sessions() *MemorySessionRepository { return &MemorySessionRepository{m: m} }

func cloneListing(l domain.Listing) domain.Listing {
	l.ReviewIDs = slices.Clone(l.ReviewIDs)
	return l
}

func sortNewestFirst(list []domain.Listing) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
}

// MemoryListingRepository implements domain.ListingRepository on a MemoryStore.
type MemoryListingRepository struct {
	m *MemoryStore
}

func (r *MemoryListingRepository) Create(_ context.Context, l *domain.Listing) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, exists := r.m.listings[l.ID]; exists {
		return domain.ErrDuplicate
	}
	r.m.listings[l.ID] = cloneListing(*l)
	return nil
}

func (r *MemoryListingRepository) GetByID(_ context.Context, id string) (*domain.Listing, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	l, ok := r.m.listings[id]
	if !ok {
		return nil, nil
	}
	l = cloneListing(l)
	return &l, nil
}

func (r *MemoryListingRepository) filter(keep func(domain.Listing) bool) []domain.Listing {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]domain.Listing, 0, len(r.m.listings))
	for _, l := range r.m.listings {
		if keep(l) {
			out = append(out, cloneListing(l))
		}
	}
	sortNewestFirst(out)
	return out
}

func (r *MemoryListingRepository) List(_ context.Context) ([]domain.Listing, error) {
	return r.filter(func(domain.Listing) bool { return true }), nil
}

func (r *MemoryListingRepository) Search(_ context.Context, query string) ([]domain.Listing, error) {
	q := strings.ToLower(query)
	return r.filter(func(l domain.Listing) bool {
		for _, field := range []string{l.Title, l.Location, l.Country, l.Description} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	}), nil
}

func (r *MemoryListingRepository) ListByCategory(_ context.Context, category domain.Category) ([]domain.Listing, error) {
	return r.filter(func(l domain.Listing) bool { return l.Category == category }), nil
}

func (r *MemoryListingRepository) Update(_ context.Context, id string, u domain.ListingUpdate) (*domain.Listing, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.listings[id]
	if !ok {
		return nil, nil
	}
	u.Apply(&l)
	l.UpdatedAt = r.m.now().UTC()
	r.m.listings[id] = l
	out := cloneListing(l)
	return &out, nil
}

func (r *MemoryListingRepository) Delete(_ context.Context, id string) (*domain.Listing, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.listings[id]
	if !ok {
		return nil, nil
	}
	delete(r.m.listings, id)
	for _, reviewID := range l.ReviewIDs {
		delete(r.m.reviews, reviewID)
	}
	return &l, nil
}

func (r *MemoryListingRepository) DeleteAll(_ context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n := int64(len(r.m.listings))
	for id, l := range r.m.listings {
		for _, reviewID := range l.ReviewIDs {
			delete(r.m.reviews, reviewID)
		}
		delete(r.m.listings, id)
	}
	return n, nil
}

// MemoryReviewRepository implements domain.ReviewRepository on a MemoryStore.
type MemoryReviewRepository struct {
	m *MemoryStore
}

func (r *MemoryReviewRepository) GetByID(_ context.Context, id string) (*domain.Review, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	rev, ok := r.m.reviews[id]
	if !ok {
		return nil, nil
	}
	return &rev, nil
}

func (r *MemoryReviewRepository) GetByIDs(_ context.Context, ids []string) ([]domain.Review, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]domain.Review, 0, len(ids))
	for _, id := range ids {
		if rev, ok := r.m.reviews[id]; ok {
			out = append(out, rev)
		}
	}
	return out, nil
}

func (r *MemoryReviewRepository) CreateForListing(_ context.Context, listingID string, rev *domain.Review) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.listings[listingID]
	if !ok {
		return domain.ErrNotFound
	}
	r.m.reviews[rev.ID] = *rev
	l.ReviewIDs = append(slices.Clone(l.ReviewIDs), rev.ID)
	r.m.listings[listingID] = l
	return nil
}

func (r *MemoryReviewRepository) DeleteFromListing(_ context.Context, listingID, reviewID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.listings[listingID]
	if !ok || !slices.Contains(l.ReviewIDs, reviewID) {
		return false, nil
	}
	l.ReviewIDs = slices.DeleteFunc(slices.Clone(l.ReviewIDs), func(id string) bool { return id == reviewID })
	r.m.listings[listingID] = l
	_, existed := r.m.reviews[reviewID]
	delete(r.m.reviews, reviewID)
	return existed, nil
}

// MemoryUserRepository implements domain.UserRepository on a MemoryStore.
type MemoryUserRepository struct {
	m *MemoryStore
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *MemoryUserRepository) GetByIDs(_ context.Context, ids []string) ([]domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, u := range r.m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.existsLocked(username, email), nil
}

func (r *MemoryUserRepository) existsLocked(username, email string) bool {
	for _, u := range r.m.users {
		if u.Username == username || u.Email == email {
			return true
		}
	}
	return false
}

func (r *MemoryUserRepository) Create(_ context.Context, u *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.existsLocked(u.Username, u.Email) {
		return domain.ErrDuplicate
	}
	r.m.users[u.ID] = *u
	return nil
}

// MemorySessionRepository implements domain.SessionRepository on a MemoryStore.
// Expired records are dropped lazily on read.
type MemorySessionRepository struct {
	m *MemoryStore
}

func (r *MemorySessionRepository) Get(_ context.Context, token string) (*domain.SessionRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.sessions[token]
	if !ok {
		return nil, nil
	}
	if !r.m.now().Before(rec.ExpiresAt) {
		delete(r.m.sessions, token)
		return nil, nil
	}
	return cloneSession(rec), nil
}

func (r *MemorySessionRepository) Save(_ context.Context, rec *domain.SessionRecord) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.sessions[rec.Token] = *cloneSession(*rec)
	return nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, token string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.sessions, token)
	return nil
}

func cloneSession(rec domain.SessionRecord) *domain.SessionRecord {
	if rec.Flash != nil {
		flash := make(map[string][]string, len(rec.Flash))
		for k, v := range rec.Flash {
			flash[k] = slices.Clone(v)
		}
		rec.Flash = flash
	}
	return &rec
}
