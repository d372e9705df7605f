package history

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoRecord is the stored shape of a Record.
type mongoRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	DeclaredBy string             `bson:"declaredBy"`
	Intent     string             `bson:"intent"`
	Outcome    []string           `bson:"outcome"`
	Model      string             `bson:"model,omitempty"`
	Timestamp  time.Time          `bson:"timestamp"`
}

type groupCount struct {
	Key   *string `bson:"_id"`
	Count int64   `bson:"count"`
}

// MongoBackend keeps history in a MongoDB collection and answers queries
// with aggregation pipelines. It owns its client.
type MongoBackend struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoBackend binds database.collection on client.
func NewMongoBackend(client *mongo.Client, database, collection string) *MongoBackend {
	return &MongoBackend{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
}

// Insert appends rec.
func (b *MongoBackend) Insert(ctx context.Context, rec Record) error {
	_, err := b.coll.InsertOne(ctx, mongoRecord{
		DeclaredBy: rec.DeclaredBy,
		Intent:     rec.Intent,
		Outcome:    rec.Outcome,
		Model:      rec.Model,
		Timestamp:  rec.Timestamp,
	})
	return err
}

// Latest returns the newest records by ObjectID.
func (b *MongoBackend) Latest(ctx context.Context, limit int) ([]Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := b.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}

	var docs []mongoRecord
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	records := make([]Record, len(docs))
	for i, d := range docs {
		records[i] = Record{
			DeclaredBy: d.DeclaredBy,
			Intent:     d.Intent,
			Outcome:    d.Outcome,
			Model:      d.Model,
			Timestamp:  d.Timestamp.UTC(),
		}
	}
	return records, nil
}

// CountByDay groups the window by $dateToString day.
func (b *MongoBackend) CountByDay(ctx context.Context, from, to time.Time) (Counts, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "timestamp", Value: bson.D{{Key: "$gte", Value: from}, {Key: "$lt", Value: to}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "format", Value: "%Y-%m-%d"},
				{Key: "date", Value: "$timestamp"},
			}}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	return b.aggregate(ctx, pipeline)
}

// CountBy groups every record by field.
func (b *MongoBackend) CountBy(ctx context.Context, field string) (Counts, error) {
	if err := checkField(field); err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: field, Value: bson.D{{Key: "$exists", Value: true}, {Key: "$ne", Value: ""}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	return b.aggregate(ctx, pipeline)
}

func (b *MongoBackend) aggregate(ctx context.Context, pipeline mongo.Pipeline) (Counts, error) {
	cur, err := b.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var groups []groupCount
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}

	counts := make(Counts, 0, len(groups))
	for _, g := range groups {
		if g.Key == nil {
			continue
		}
		counts = append(counts, Count{Key: *g.Key, Count: g.Count})
	}
	return counts, nil
}

// Close disconnects the client.
func (b *MongoBackend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}

func checkField(field string) error {
	switch field {
	case FieldDeclaredBy, FieldModel:
		return nil
	}
	return fmt.Errorf("cannot count by field %q", field)
}
