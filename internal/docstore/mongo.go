package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectMongo opens a client for uri and verifies it with a primary ping
// bounded by timeout.
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", uri, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping %s: %w", uri, err)
	}

	return client, nil
}

// MongoCollection adapts a MongoDB collection to Collection. Identities are
// ObjectIDs rendered as 24-character hex strings.
type MongoCollection struct {
	coll *mongo.Collection
}

// NewMongoCollection binds database.collection on client.
func NewMongoCollection(client *mongo.Client, database, collection string) *MongoCollection {
	return &MongoCollection{coll: client.Database(database).Collection(collection)}
}

// Name returns the collection name.
func (c *MongoCollection) Name() string {
	return c.coll.Name()
}

// InsertOne stores doc with a fresh ObjectID.
func (c *MongoCollection) InsertOne(ctx context.Context, doc Document) (string, error) {
	body := bson.M(doc.WithoutID())
	id := primitive.NewObjectID()
	body[IDField] = id

	if _, err := c.coll.InsertOne(ctx, body); err != nil {
		return "", fmt.Errorf("insert into %s: %w", c.Name(), err)
	}
	return id.Hex(), nil
}

// FindOne returns the first document matching filter.
func (c *MongoCollection) FindOne(ctx context.Context, filter Filter) (Document, error) {
	query, err := mongoFilter(filter)
	if err != nil {
		return nil, err
	}

	var raw bson.M
	err = c.coll.FindOne(ctx, query, options.FindOne().SetSort(bson.D{{Key: IDField, Value: 1}})).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoDocuments
	}
	if err != nil {
		return nil, fmt.Errorf("find one in %s: %w", c.Name(), err)
	}

	return normalizeDocument(raw), nil
}

// Find returns every matching document ordered by ObjectID, which is
// insertion order for ids generated by this process.
func (c *MongoCollection) Find(ctx context.Context, filter Filter) ([]Document, error) {
	query, err := mongoFilter(filter)
	if err != nil {
		return nil, err
	}

	cursor, err := c.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: IDField, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.Name(), err)
	}

	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("read cursor for %s: %w", c.Name(), err)
	}

	docs := make([]Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, normalizeDocument(raw))
	}
	return docs, nil
}

// UpdateOne applies a $set of the given fields.
func (c *MongoCollection) UpdateOne(ctx context.Context, filter Filter, set Document) (int64, error) {
	query, err := mongoFilter(filter)
	if err != nil {
		return 0, err
	}

	fields := set.WithoutID()
	if len(fields) == 0 {
		return 0, fmt.Errorf("update %s: no fields to set", c.Name())
	}

	res, err := c.coll.UpdateOne(ctx, query, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return 0, fmt.Errorf("update one in %s: %w", c.Name(), err)
	}
	return res.MatchedCount, nil
}

// DeleteOne removes the first matching document.
func (c *MongoCollection) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	query, err := mongoFilter(filter)
	if err != nil {
		return 0, err
	}

	res, err := c.coll.DeleteOne(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete one in %s: %w", c.Name(), err)
	}
	return res.DeletedCount, nil
}

// mongoFilter converts a Filter to a bson.M query, decoding IDField hex
// strings into ObjectIDs.
func mongoFilter(filter Filter) (bson.M, error) {
	query := bson.M{}
	for k, v := range filter {
		if k != IDField {
			query[k] = v
			continue
		}

		hex, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrInvalidID, v)
		}
		oid, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidID, hex)
		}
		query[IDField] = oid
	}
	return query, nil
}

// normalizeDocument converts a decoded bson.M into a Document of plain Go
// values.
func normalizeDocument(raw bson.M) Document {
	doc, _ := normalizeValue(map[string]any(raw)).(map[string]any)
	return Document(doc)
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case bson.M:
		return normalizeValue(map[string]any(val))
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = normalizeValue(e.Value)
		}
		return out
	case bson.A:
		return normalizeValue([]any(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC()
	default:
		return val
	}
}
