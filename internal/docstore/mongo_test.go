package docstore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMongoFilterDecodesIdentity(t *testing.T) {
	oid := primitive.NewObjectID()

	query, err := mongoFilter(Filter{IDField: oid.Hex(), "name": "1"})
	require.NoError(t, err)

	assert.Equal(t, oid, query[IDField])
	assert.Equal(t, "1", query["name"])
}

func TestMongoFilterRejectsInvalidIdentity(t *testing.T) {
	for _, id := range []any{"12", 12, "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		_, err := mongoFilter(Filter{IDField: id})
		assert.True(t, errors.Is(err, ErrInvalidID), "id %v: got %v", id, err)
	}
}

func TestNormalizeDocument(t *testing.T) {
	oid := primitive.NewObjectID()
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	raw := bson.M{
		IDField: oid,
		"name":  "1",
		"installedFlows": bson.D{
			{Key: "0", Value: bson.A{
				bson.D{{Key: "priority", Value: int32(100)}, {Key: "actions", Value: bson.A{"OUTPUT:2"}}},
			}},
		},
		"seen": primitive.NewDateTimeFromTime(ts),
		"meta": bson.M{"vendor": "ovs"},
	}

	doc := normalizeDocument(raw)

	assert.Equal(t, oid.Hex(), doc.ID())
	assert.Equal(t, ts, doc["seen"])
	assert.Equal(t, map[string]any{"vendor": "ovs"}, doc["meta"])

	flows, ok := doc["installedFlows"].(map[string]any)
	require.True(t, ok, "installedFlows should be a plain map, got %T", doc["installedFlows"])
	table, ok := flows["0"].([]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"priority": int32(100), "actions": []any{"OUTPUT:2"}}, table[0])
}
