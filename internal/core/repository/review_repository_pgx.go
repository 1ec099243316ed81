package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/wanderlust/internal/core/domain"
)

// PgxReviewRepository implements domain.ReviewRepository using pgxpool.
// Both compound writes run inside a single transaction.
type PgxReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository creates a new PgxReviewRepository.
func NewReviewRepository(pool *pgxpool.Pool) *PgxReviewRepository {
	return &PgxReviewRepository{pool: pool}
}

const reviewColumns = `id, comment, rating, author_id, created_at`

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rev domain.Review
	if err := row.Scan(&rev.ID, &rev.Comment, &rev.Rating, &rev.AuthorID, &rev.CreatedAt); err != nil {
		return nil, err
	}
	return &rev, nil
}

// GetByID returns the review with the given ID.
// Returns (nil, nil) when no review is found.
func (r *PgxReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	rev, err := scanReview(r.pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translatePgx(err)
	}
	return rev, nil
}

// GetByIDs returns the reviews that exist among ids, in ids order.
func (r *PgxReviewRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Review, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT r.id, r.comment, r.rating, r.author_id, r.created_at
		FROM unnest($1::text[]) WITH ORDINALITY AS wanted(id, ord)
		JOIN reviews r ON r.id = wanted.id
		ORDER BY wanted.ord
	`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, translatePgx(err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *rev)
	}
	return reviews, translatePgx(rows.Err())
}

// CreateForListing locks the listing row, then inserts the review bound to it.
func (r *PgxReviewRepository) CreateForListing(ctx context.Context, listingID string, rev *domain.Review) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, `SELECT id FROM listings WHERE id = $1 FOR UPDATE`, listingID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		query := `INSERT INTO reviews (id, listing_id, comment, rating, author_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
		_, err = tx.Exec(ctx, query, rev.ID, listingID, rev.Comment, rev.Rating, rev.AuthorID, rev.CreatedAt)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return translatePgx(err)
}

// DeleteFromListing deletes the review only if it belongs to listingID.
func (r *PgxReviewRepository) DeleteFromListing(ctx context.Context, listingID, reviewID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1 AND listing_id = $2`, reviewID, listingID)
	if err != nil {
		return false, translatePgx(err)
	}
	return tag.RowsAffected() > 0, nil
}
