package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/wanderlust/internal/core/domain"
)

// PgxListingRepository implements domain.ListingRepository using pgxpool.
// The review set is derived from reviews.listing_id.
type PgxListingRepository struct {
	pool *pgxpool.Pool
}

// NewListingRepository creates a new PgxListingRepository.
func NewListingRepository(pool *pgxpool.Pool) *PgxListingRepository {
	return &PgxListingRepository{pool: pool}
}

const listingSelect = `
	SELECT l.id, l.title, l.description, l.image_url, l.image_filename, l.price,
	       l.location, l.country, l.zip, l.category, l.owner_id, l.created_at, l.updated_at,
	       ARRAY(SELECT r.id FROM reviews r WHERE r.listing_id = l.id ORDER BY r.created_at, r.id) AS review_ids
	FROM listings l`

const listingOrder = ` ORDER BY l.created_at DESC, l.id DESC`

func scanListing(row pgx.Row) (*domain.Listing, error) {
	var (
		l        domain.Listing
		category string
	)
	err := row.Scan(
		&l.ID, &l.Title, &l.Description, &l.Image.URL, &l.Image.Filename, &l.Price,
		&l.Location, &l.Country, &l.Zip, &category, &l.OwnerID, &l.CreatedAt, &l.UpdatedAt,
		&l.ReviewIDs,
	)
	if err != nil {
		return nil, err
	}
	l.Category = domain.Category(category)
	return &l, nil
}

func (r *PgxListingRepository) queryListings(ctx context.Context, q pgxQuerier, where string, args ...any) ([]domain.Listing, error) {
	rows, err := q.Query(ctx, listingSelect+where+listingOrder, args...)
	if err != nil {
		return nil, translatePgx(err)
	}
	defer rows.Close()

	listings := []domain.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, *l)
	}
	return listings, translatePgx(rows.Err())
}

func getListing(ctx context.Context, q pgxQuerier, id string, forUpdate bool) (*domain.Listing, error) {
	query := listingSelect + ` WHERE l.id = $1`
	if forUpdate {
		query += ` FOR UPDATE OF l`
	}
	l, err := scanListing(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translatePgx(err)
	}
	return l, nil
}

// Create inserts a listing row.
func (r *PgxListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	query := `
		INSERT INTO listings
			(id, title, description, image_url, image_filename, price, location, country, zip, category, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		l.ID, l.Title, l.Description, l.Image.URL, l.Image.Filename, l.Price,
		l.Location, l.Country, l.Zip, string(l.Category), l.OwnerID, l.CreatedAt, l.UpdatedAt,
	)
	return translatePgx(err)
}

// GetByID returns the listing with the given ID.
// Returns (nil, nil) when no listing is found.
func (r *PgxListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	return getListing(ctx, r.pool, id, false)
}

// List returns every listing, newest first.
func (r *PgxListingRepository) List(ctx context.Context) ([]domain.Listing, error) {
	return r.queryListings(ctx, r.pool, "")
}

// Search matches query literally against the text columns with ILIKE.
func (r *PgxListingRepository) Search(ctx context.Context, query string) ([]domain.Listing, error) {
	pattern := "%" + escapeLike(query) + "%"
	where := ` WHERE l.title ILIKE $1 OR l.location ILIKE $1 OR l.country ILIKE $1 OR l.description ILIKE $1`
	return r.queryListings(ctx, r.pool, where, pattern)
}

// ListByCategory returns listings with an exact category match.
func (r *PgxListingRepository) ListByCategory(ctx context.Context, category domain.Category) ([]domain.Listing, error) {
	return r.queryListings(ctx, r.pool, ` WHERE l.category = $1`, string(category))
}

// Update applies the non-nil fields of u. NULL parameters keep the column value.
func (r *PgxListingRepository) Update(ctx context.Context, id string, u domain.ListingUpdate) (*domain.Listing, error) {
	var category *string
	if u.Category != nil {
		s := string(*u.Category)
		category = &s
	}
	var imageURL, imageFilename *string
	if u.Image != nil {
		imageURL, imageFilename = &u.Image.URL, &u.Image.Filename
	}
	query := `
		UPDATE listings SET
			title          = COALESCE($2, title),
			description    = COALESCE($3, description),
			image_url      = COALESCE($4, image_url),
			image_filename = COALESCE($5, image_filename),
			price          = COALESCE($6, price),
			location       = COALESCE($7, location),
			country        = COALESCE($8, country),
			zip            = COALESCE($9, zip),
			category       = COALESCE($10, category),
			updated_at     = $11
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id,
		u.Title, u.Description, imageURL, imageFilename, u.Price,
		u.Location, u.Country, u.Zip, category, time.Now().UTC(),
	)
	if err != nil {
		return nil, translatePgx(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// Delete removes the listing and its reviews in one transaction.
func (r *PgxListingRepository) Delete(ctx context.Context, id string) (*domain.Listing, error) {
	var deleted *domain.Listing
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		l, err := getListing(ctx, tx, id, true)
		if err != nil || l == nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE listing_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id); err != nil {
			return err
		}
		deleted = l
		return nil
	})
	if err != nil {
		return nil, translatePgx(err)
	}
	return deleted, nil
}

// DeleteAll truncates listings and their reviews.
func (r *PgxListingRepository) DeleteAll(ctx context.Context) (int64, error) {
	var n int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE listing_id IS NOT NULL`); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM listings`)
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		return nil
	})
	return n, translatePgx(err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
