// Package identifier issues and validates the store-native identifiers
// used for surveys, questions and responses. Client-side placeholder ids
// (draft ids) are recognized here and nowhere else; everything above this
// package only ever calls EnsurePersisted.
package identifier

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DRAFT_ID_PREFIX marks question identifiers generated client-side before
// the question was ever persisted.
const DRAFT_ID_PREFIX = "draft_"

// NewID returns a freshly generated identifier in the store's native
// format (Mongo ObjectID hex).
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsDraft reports whether the identifier is a client-generated placeholder.
func IsDraft(id string) bool {
	return strings.HasPrefix(id, DRAFT_ID_PREFIX)
}

// IsValid reports whether the string is a syntactically well-formed native
// identifier. Used to guard inputs before any document-store query.
func IsValid(id string) bool {
	return primitive.IsValidObjectID(id)
}

// EnsurePersisted resolves an identifier to a persisted one: draft or
// empty ids are replaced with a freshly minted identifier. The second
// return value reports whether a replacement happened.
func EnsurePersisted(id string) (string, bool) {
	if id == "" || IsDraft(id) {
		return NewID(), true
	}
	return id, false
}
