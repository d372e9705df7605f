package docstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollection(t *testing.T) *SQLiteCollection {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "otto.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	coll, err := NewSQLiteCollection(db, "switches")
	require.NoError(t, err)
	return coll
}

func TestSQLiteInsertAndFindOne(t *testing.T) {
	ctx := context.Background()
	coll := newTestCollection(t)

	id, err := coll.InsertOne(ctx, Document{
		"name":           "1",
		"installedFlows": map[string]any{"0": []any{map[string]any{"priority": 1}}},
		IDField:          "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	doc, err := coll.FindOne(ctx, Filter{"name": "1"})
	require.NoError(t, err)
	assert.Equal(t, id, doc.ID())
	assert.Equal(t, "1", doc["name"])

	flows := doc["installedFlows"].(map[string]any)["0"].([]any)
	assert.Equal(t, float64(1), flows[0].(map[string]any)["priority"])
}

func TestSQLiteFindOneNoDocuments(t *testing.T) {
	coll := newTestCollection(t)

	_, err := coll.FindOne(context.Background(), Filter{"name": "missing"})
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestSQLiteFindFilters(t *testing.T) {
	ctx := context.Background()
	coll := newTestCollection(t)

	for _, doc := range []Document{
		{"name": "1", "role": "edge", "ports": 4, "active": true},
		{"name": "2", "role": "core", "ports": 48, "active": false},
		{"name": "3", "role": "edge", "ports": 8, "active": true},
	} {
		_, err := coll.InsertOne(ctx, doc)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"nil filter matches all", nil, []string{"1", "2", "3"}},
		{"string equality", Filter{"role": "edge"}, []string{"1", "3"}},
		{"numeric equality", Filter{"ports": 48}, []string{"2"}},
		{"float equality", Filter{"ports": float64(8)}, []string{"3"}},
		{"bool equality", Filter{"active": false}, []string{"2"}},
		{"combined", Filter{"role": "edge", "ports": 4}, []string{"1"}},
		{"identity", Filter{IDField: "2"}, []string{"2"}},
		{"missing field is null", Filter{"vendor": nil}, []string{"1", "2", "3"}},
		{"no match", Filter{"role": "spine"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := coll.Find(ctx, tt.filter)
			require.NoError(t, err)

			var names []string
			for _, d := range docs {
				names = append(names, d["name"].(string))
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestSQLiteUpdateOne(t *testing.T) {
	ctx := context.Background()
	coll := newTestCollection(t)

	id, err := coll.InsertOne(ctx, Document{"name": "1", "role": "edge"})
	require.NoError(t, err)

	matched, err := coll.UpdateOne(ctx, Filter{IDField: id}, Document{"role": "core", "ports": 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)

	doc, err := coll.FindOne(ctx, Filter{IDField: id})
	require.NoError(t, err)
	assert.Equal(t, "1", doc["name"])
	assert.Equal(t, "core", doc["role"])
	assert.Equal(t, float64(2), doc["ports"])

	matched, err = coll.UpdateOne(ctx, Filter{IDField: "999"}, Document{"role": "core"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), matched)

	_, err = coll.UpdateOne(ctx, Filter{IDField: id}, Document{IDField: "5"})
	assert.Error(t, err)
}

func TestSQLiteDeleteOne(t *testing.T) {
	ctx := context.Background()
	coll := newTestCollection(t)

	id, err := coll.InsertOne(ctx, Document{"name": "1"})
	require.NoError(t, err)
	_, err = coll.InsertOne(ctx, Document{"name": "2"})
	require.NoError(t, err)

	deleted, err := coll.DeleteOne(ctx, Filter{IDField: id})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = coll.DeleteOne(ctx, Filter{IDField: id})
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	docs, err := coll.Find(ctx, nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "2", docs[0]["name"])
}

func TestSQLiteIdentitiesAreNotReused(t *testing.T) {
	ctx := context.Background()
	coll := newTestCollection(t)

	first, err := coll.InsertOne(ctx, Document{"name": "1"})
	require.NoError(t, err)
	_, err = coll.DeleteOne(ctx, Filter{IDField: first})
	require.NoError(t, err)

	second, err := coll.InsertOne(ctx, Document{"name": "1"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestSQLiteInvalidFilters(t *testing.T) {
	ctx := context.Background()
	coll := newTestCollection(t)

	_, err := coll.Find(ctx, Filter{IDField: "not-a-rowid"})
	assert.True(t, errors.Is(err, ErrInvalidID), "got %v", err)

	_, err = coll.Find(ctx, Filter{"installedFlows": map[string]any{}})
	assert.Error(t, err)
}

func TestNewSQLiteCollectionRejectsBadNames(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "otto.db"))
	require.NoError(t, err)
	defer db.Close()

	for _, name := range []string{"", "1switches", "drop table", `x"y`} {
		_, err := NewSQLiteCollection(db, name)
		assert.Error(t, err, "name %q", name)
	}
}
