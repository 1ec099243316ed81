package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/duynhne/wanderlust/internal/core/domain"
)

type sessionDoc struct {
	Token       string              `bson:"_id"`
	UserID      string              `bson:"userId,omitempty"`
	Flash       map[string][]string `bson:"flash,omitempty"`
	RedirectURL string              `bson:"redirectUrl,omitempty"`
	Expires     time.Time           `bson:"expires"`
	TouchedAt   time.Time           `bson:"touchedAt"`
}

// MongoSessionRepository implements domain.SessionRepository on a collection
// with a TTL index on "expires"; the server purges expired documents.
type MongoSessionRepository struct {
	sessions *mongo.Collection
	now      func() time.Time
}

// NewMongoSessionRepository creates a session repository.
func NewMongoSessionRepository(db *mongo.Database) *MongoSessionRepository {
	return &MongoSessionRepository{sessions: db.Collection(sessionsCollection), now: time.Now}
}

// Get returns the live session stored under token.
// The TTL monitor runs about once a minute, so expiry is also checked here.
func (r *MongoSessionRepository) Get(ctx context.Context, token string) (*domain.SessionRecord, error) {
	var doc sessionDoc
	err := r.sessions.FindOne(ctx, bson.M{"_id": token, "expires": bson.M{"$gt": r.now()}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, translateMongo(err)
	}
	return &domain.SessionRecord{
		Token:       doc.Token,
		UserID:      doc.UserID,
		Flash:       doc.Flash,
		RedirectURL: doc.RedirectURL,
		ExpiresAt:   doc.Expires,
		TouchedAt:   doc.TouchedAt,
	}, nil
}

// Save upserts the session document.
func (r *MongoSessionRepository) Save(ctx context.Context, rec *domain.SessionRecord) error {
	doc := sessionDoc{
		Token:       rec.Token,
		UserID:      rec.UserID,
		Flash:       rec.Flash,
		RedirectURL: rec.RedirectURL,
		Expires:     rec.ExpiresAt,
		TouchedAt:   rec.TouchedAt,
	}
	_, err := r.sessions.ReplaceOne(ctx, bson.M{"_id": rec.Token}, doc, options.Replace().SetUpsert(true))
	return translateMongo(err)
}

// Delete removes the session document.
func (r *MongoSessionRepository) Delete(ctx context.Context, token string) error {
	_, err := r.sessions.DeleteOne(ctx, bson.M{"_id": token})
	return translateMongo(err)
}
