// Package docstore is the document store boundary for otto switch records.
//
// A Collection stores schemaless JSON-like documents and supports the small
// operation set the network state registry needs: insert-one, find-one,
// find-many with top-level equality filters, update-one, delete-one and
// iterate-all. Every stored document carries a store-assigned identity under
// IDField, returned as an opaque string.
//
// BACKENDS:
//   - MongoCollection: MongoDB via go.mongodb.org/mongo-driver (production)
//   - SQLiteCollection: embedded modernc.org/sqlite, JSON text bodies
//
// Backends return plain Go values (map[string]any, []any, string, float64,
// int32/int64, bool, time.Time, nil) so callers never see driver types.
package docstore

import (
	"context"
	"errors"
	"maps"
)

// IDField is the reserved key holding the store-assigned identity.
const IDField = "_id"

// ErrNoDocuments is returned by FindOne when nothing matches the filter.
var ErrNoDocuments = errors.New("docstore: no documents match filter")

// ErrInvalidID is returned when an IDField filter value is not an identity
// this backend could have issued.
var ErrInvalidID = errors.New("docstore: invalid document id")

// Document is a single stored document.
type Document map[string]any

// Filter selects documents by equality on top-level fields. A nil or empty
// filter matches every document. Filtering on IDField matches the
// store-assigned identity.
type Filter map[string]any

// Collection is a named set of documents in a backing store.
type Collection interface {
	// InsertOne stores doc and returns its new identity. Any IDField in doc
	// is ignored.
	InsertOne(ctx context.Context, doc Document) (string, error)

	// FindOne returns the first document matching filter, or ErrNoDocuments.
	FindOne(ctx context.Context, filter Filter) (Document, error)

	// Find returns every document matching filter in insertion order.
	Find(ctx context.Context, filter Filter) ([]Document, error)

	// UpdateOne sets the given top-level fields on the first matching
	// document and reports how many documents matched (0 or 1).
	UpdateOne(ctx context.Context, filter Filter, set Document) (int64, error)

	// DeleteOne removes the first matching document and reports how many
	// were deleted (0 or 1).
	DeleteOne(ctx context.Context, filter Filter) (int64, error)

	// Name returns the collection name.
	Name() string
}

// Clone returns a shallow copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return maps.Clone(d)
}

// WithoutID returns a shallow copy of d with IDField removed.
func (d Document) WithoutID() Document {
	out := d.Clone()
	delete(out, IDField)
	return out
}

// ID returns the identity stored under IDField, or "" if absent.
func (d Document) ID() string {
	id, _ := d[IDField].(string)
	return id
}
