package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/duynhne/wanderlust/internal/core/domain"
)

type imageDoc struct {
	URL      string `bson:"url"`
	Filename string `bson:"filename"`
}

type listingDoc struct {
	ID          bson.ObjectID   `bson:"_id"`
	Title       string          `bson:"title"`
	Description string          `bson:"description"`
	Image       imageDoc        `bson:"image"`
	Price       float64         `bson:"price"`
	Location    string          `bson:"location"`
	Country     string          `bson:"country"`
	Zip         string          `bson:"zip"`
	Category    string          `bson:"category,omitempty"`
	Owner       bson.ObjectID   `bson:"owner"`
	Reviews     []bson.ObjectID `bson:"reviews"`
	CreatedAt   time.Time       `bson:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt"`
}

func toListingDoc(l *domain.Listing) listingDoc {
	return listingDoc{
		ID:          oidOrZero(l.ID),
		Title:       l.Title,
		Description: l.Description,
		Image:       imageDoc{URL: l.Image.URL, Filename: l.Image.Filename},
		Price:       l.Price,
		Location:    l.Location,
		Country:     l.Country,
		Zip:         l.Zip,
		Category:    string(l.Category),
		Owner:       oidOrZero(l.OwnerID),
		Reviews:     objectIDs(l.ReviewIDs),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func (d listingDoc) toDomain() domain.Listing {
	return domain.Listing{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Image:       domain.Image{URL: d.Image.URL, Filename: d.Image.Filename},
		Price:       d.Price,
		Location:    d.Location,
		Country:     d.Country,
		Zip:         d.Zip,
		Category:    domain.Category(d.Category),
		OwnerID:     d.Owner.Hex(),
		ReviewIDs:   hexIDs(d.Reviews),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoListingRepository implements domain.ListingRepository on the listings collection.
type MongoListingRepository struct {
	db           *mongo.Database
	listings     *mongo.Collection
	reviews      *mongo.Collection
	transactions bool
}

// NewMongoListingRepository creates a listing repository. With transactions
// enabled the cascade delete runs in a multi-document transaction.
func NewMongoListingRepository(db *mongo.Database, transactions bool) *MongoListingRepository {
	return &MongoListingRepository{
		db:           db,
		listings:     db.Collection(listingsCollection),
		reviews:      db.Collection(reviewsCollection),
		transactions: transactions,
	}
}

func (r *MongoListingRepository) find(ctx context.Context, filter any) ([]domain.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.listings.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateMongo(err)
	}
	var docs []listingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translateMongo(err)
	}
	out := make([]domain.Listing, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// Create inserts the listing document.
func (r *MongoListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	doc := toListingDoc(l)
	if doc.Reviews == nil {
		doc.Reviews = []bson.ObjectID{}
	}
	_, err := r.listings.InsertOne(ctx, doc)
	return translateMongo(err)
}

// GetByID returns the listing with the given ID.
// Returns (nil, nil) when no listing is found.
func (r *MongoListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	var doc listingDoc
	err := r.listings.FindOne(ctx, bson.M{"_id": oidOrZero(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, translateMongo(err)
	}
	l := doc.toDomain()
	return &l, nil
}

// List returns every listing, newest first.
func (r *MongoListingRepository) List(ctx context.Context) ([]domain.Listing, error) {
	return r.find(ctx, bson.M{})
}

// Search runs a case-insensitive regex over the text fields. The query is
// quoted so it matches as a literal substring.
func (r *MongoListingRepository) Search(ctx context.Context, query string) ([]domain.Listing, error) {
	re := bson.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	return r.find(ctx, bson.M{"$or": bson.A{
		bson.M{"title": re},
		bson.M{"location": re},
		bson.M{"country": re},
		bson.M{"description": re},
	}})
}

// ListByCategory returns listings with an exact category match.
func (r *MongoListingRepository) ListByCategory(ctx context.Context, category domain.Category) ([]domain.Listing, error) {
	return r.find(ctx, bson.M{"category": string(category)})
}

// Update sets the provided fields and returns the document after the update.
func (r *MongoListingRepository) Update(ctx context.Context, id string, u domain.ListingUpdate) (*domain.Listing, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Image != nil {
		set["image"] = imageDoc{URL: u.Image.URL, Filename: u.Image.Filename}
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.Location != nil {
		set["location"] = *u.Location
	}
	if u.Country != nil {
		set["country"] = *u.Country
	}
	if u.Zip != nil {
		set["zip"] = *u.Zip
	}
	if u.Category != nil {
		set["category"] = string(*u.Category)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc listingDoc
	err := r.listings.FindOneAndUpdate(ctx, bson.M{"_id": oidOrZero(id)}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, translateMongo(err)
	}
	l := doc.toDomain()
	return &l, nil
}

// Delete removes the listing, then every review it referenced.
func (r *MongoListingRepository) Delete(ctx context.Context, id string) (*domain.Listing, error) {
	var deleted *domain.Listing
	err := withTxn(ctx, r.db, r.transactions, func(ctx context.Context) error {
		var doc listingDoc
		err := r.listings.FindOneAndDelete(ctx, bson.M{"_id": oidOrZero(id)}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(doc.Reviews) > 0 {
			if _, err := r.reviews.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": doc.Reviews}}); err != nil {
				return err
			}
		}
		l := doc.toDomain()
		deleted = &l
		return nil
	})
	if err != nil {
		return nil, translateMongo(err)
	}
	return deleted, nil
}

// DeleteAll removes every listing and the reviews they referenced.
func (r *MongoListingRepository) DeleteAll(ctx context.Context) (int64, error) {
	var n int64
	err := withTxn(ctx, r.db, r.transactions, func(ctx context.Context) error {
		var docs []struct {
			Reviews []bson.ObjectID `bson:"reviews"`
		}
		cur, err := r.listings.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"reviews": 1}))
		if err != nil {
			return err
		}
		if err := cur.All(ctx, &docs); err != nil {
			return err
		}
		var reviewIDs []bson.ObjectID
		for _, d := range docs {
			reviewIDs = append(reviewIDs, d.Reviews...)
		}
		if len(reviewIDs) > 0 {
			if _, err := r.reviews.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": reviewIDs}}); err != nil {
				return err
			}
		}
		res, err := r.listings.DeleteMany(ctx, bson.M{})
		if err != nil {
			return err
		}
		n = res.DeletedCount
		return nil
	})
	return n, translateMongo(err)
}
