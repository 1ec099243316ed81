package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/duynhne/wanderlust/internal/core/domain"
)

type reviewDoc struct {
	ID        bson.ObjectID `bson:"_id"`
	Comment   string        `bson:"comment"`
	Rating    int           `bson:"rating"`
	Author    bson.ObjectID `bson:"author"`
	CreatedAt time.Time     `bson:"createdAt"`
}

func (d reviewDoc) toDomain() domain.Review {
	return domain.Review{
		ID:        d.ID.Hex(),
		Comment:   d.Comment,
		Rating:    d.Rating,
		AuthorID:  d.Author.Hex(),
		CreatedAt: d.CreatedAt,
	}
}

// MongoReviewRepository implements domain.ReviewRepository.
//
// Without transactions, CreateForListing inserts the review before pushing
// the reference, so a crash in between leaves an unreferenced review rather
// than a dangling reference. DeleteFromListing pulls the reference first for
// the same reason.
type MongoReviewRepository struct {
	db           *mongo.Database
	listings     *mongo.Collection
	reviews      *mongo.Collection
	transactions bool
}

// NewMongoReviewRepository creates a review repository.
func NewMongoReviewRepository(db *mongo.Database, transactions bool) *MongoReviewRepository {
	return &MongoReviewRepository{
		db:           db,
		listings:     db.Collection(listingsCollection),
		reviews:      db.Collection(reviewsCollection),
		transactions: transactions,
	}
}

// GetByID returns the review with the given ID.
// Returns (nil, nil) when no review is found.
func (r *MongoReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	var doc reviewDoc
	err := r.reviews.FindOne(ctx, bson.M{"_id": oidOrZero(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, translateMongo(err)
	}
	rev := doc.toDomain()
	return &rev, nil
}

// GetByIDs returns the reviews that exist among ids, in ids order.
func (r *MongoReviewRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Review, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return nil, nil
	}
	cur, err := r.reviews.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, translateMongo(err)
	}
	var docs []reviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translateMongo(err)
	}
	byID := make(map[bson.ObjectID]reviewDoc, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	out := make([]domain.Review, 0, len(docs))
	for _, oid := range oids {
		if d, ok := byID[oid]; ok {
			out = append(out, d.toDomain())
		}
	}
	return out, nil
}

// CreateForListing inserts the review, then appends it to the listing's set.
// If the listing vanished in between, the review is removed again.
func (r *MongoReviewRepository) CreateForListing(ctx context.Context, listingID string, rev *domain.Review) error {
	doc := reviewDoc{
		ID:        oidOrZero(rev.ID),
		Comment:   rev.Comment,
		Rating:    rev.Rating,
		Author:    oidOrZero(rev.AuthorID),
		CreatedAt: rev.CreatedAt,
	}
	err := withTxn(ctx, r.db, r.transactions, func(ctx context.Context) error {
		if _, err := r.reviews.InsertOne(ctx, doc); err != nil {
			return err
		}
		res, err := r.listings.UpdateOne(ctx,
			bson.M{"_id": oidOrZero(listingID)},
			bson.M{"$push": bson.M{"reviews": doc.ID}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			if _, err := r.reviews.DeleteOne(ctx, bson.M{"_id": doc.ID}); err != nil {
				return err
			}
			return domain.ErrNotFound
		}
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return translateMongo(err)
}

// DeleteFromListing pulls the reference, then deletes the review. A review
// the listing does not reference is left alone.
func (r *MongoReviewRepository) DeleteFromListing(ctx context.Context, listingID, reviewID string) (bool, error) {
	oid := oidOrZero(reviewID)
	var deleted bool
	err := withTxn(ctx, r.db, r.transactions, func(ctx context.Context) error {
		res, err := r.listings.UpdateOne(ctx,
			bson.M{"_id": oidOrZero(listingID), "reviews": oid},
			bson.M{"$pull": bson.M{"reviews": oid}},
		)
		if err != nil {
			return err
		}
		if res.ModifiedCount == 0 {
			return nil
		}
		del, err := r.reviews.DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil {
			return err
		}
		deleted = del.DeletedCount > 0
		return nil
	})
	if err != nil {
		return false, translateMongo(err)
	}
	return deleted, nil
}
