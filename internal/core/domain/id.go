package domain

import "go.mongodb.org/mongo-driver/v2/bson"

// NewID returns a fresh document identifier in ObjectID hex form.
// Every backend uses the same format so ValidID means the same thing everywhere.
func NewID() string {
	return bson.NewObjectID().Hex()
}

// ValidID reports whether id is a syntactically valid document identifier.
func ValidID(id string) bool {
	if len(id) != 24 {
		return false
	}
	_, err := bson.ObjectIDFromHex(id)
	return err == nil
}
