package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var collectionNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// OpenSQLite opens (creating if needed) the sqlite database at path. The
// pool is limited to one connection so writers never contend for the file
// lock.
func OpenSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	return db, nil
}

// SQLiteCollection stores documents as JSON text in a table named after the
// collection. Identities are the decimal rowid.
type SQLiteCollection struct {
	db   *sql.DB
	name string
}

// NewSQLiteCollection binds (creating if needed) the table for name.
func NewSQLiteCollection(db *sql.DB, name string) (*SQLiteCollection, error) {
	if !collectionNamePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid collection name %q", name)
	}

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		body TEXT NOT NULL
	)`, name)
	if _, err := db.Exec(stmt); err != nil {
		return nil, fmt.Errorf("create collection table %s: %w", name, err)
	}

	return &SQLiteCollection{db: db, name: name}, nil
}

// Name returns the collection name.
func (c *SQLiteCollection) Name() string {
	return c.name
}

// InsertOne stores doc and returns its rowid.
func (c *SQLiteCollection) InsertOne(ctx context.Context, doc Document) (string, error) {
	body, err := json.Marshal(doc.WithoutID())
	if err != nil {
		return "", fmt.Errorf("encode document for %s: %w", c.name, err)
	}

	res, err := c.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %q (body) VALUES (?)`, c.name), string(body))
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", c.name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("read id for %s: %w", c.name, err)
	}
	return strconv.FormatInt(id, 10), nil
}

// FindOne returns the first document matching filter.
func (c *SQLiteCollection) FindOne(ctx context.Context, filter Filter) (Document, error) {
	docs, err := c.query(ctx, c.db, filter, true)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	return docs[0], nil
}

// Find returns every matching document in rowid order.
func (c *SQLiteCollection) Find(ctx context.Context, filter Filter) ([]Document, error) {
	return c.query(ctx, c.db, filter, false)
}

// UpdateOne merges the given top-level fields into the first matching
// document inside a transaction.
func (c *SQLiteCollection) UpdateOne(ctx context.Context, filter Filter, set Document) (matched int64, retErr error) {
	fields := set.WithoutID()
	if len(fields) == 0 {
		return 0, fmt.Errorf("update %s: no fields to set", c.name)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin update on %s: %w", c.name, err)
	}
	defer func() {
		if retErr != nil || matched == 0 {
			_ = tx.Rollback()
		}
	}()

	docs, err := c.query(ctx, tx, filter, true)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	target := docs[0]
	id := target.ID()
	merged := target.WithoutID()
	for k, v := range fields {
		merged[k] = v
	}

	body, err := json.Marshal(merged)
	if err != nil {
		return 0, fmt.Errorf("encode document for %s: %w", c.name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE %q SET body = ? WHERE id = ?`, c.name), string(body), id); err != nil {
		return 0, fmt.Errorf("update one in %s: %w", c.name, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit update on %s: %w", c.name, err)
	}
	return 1, nil
}

// DeleteOne removes the first matching document.
func (c *SQLiteCollection) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	where, args, err := sqliteWhere(filter)
	if err != nil {
		return 0, err
	}

	stmt := fmt.Sprintf(`DELETE FROM %q WHERE id = (SELECT id FROM %q%s ORDER BY id LIMIT 1)`, c.name, c.name, where)
	res, err := c.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete one in %s: %w", c.name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read affected rows for %s: %w", c.name, err)
	}
	return n, nil
}

type sqlQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (c *SQLiteCollection) query(ctx context.Context, q sqlQueryer, filter Filter, first bool) ([]Document, error) {
	where, args, err := sqliteWhere(filter)
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf(`SELECT id, body FROM %q%s ORDER BY id`, c.name, where)
	if first {
		stmt += ` LIMIT 1`
	}

	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.name, err)
	}
	defer func() { _ = rows.Close() }()

	var docs []Document
	for rows.Next() {
		var (
			id   int64
			body string
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.name, err)
		}

		doc := Document{}
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return nil, fmt.Errorf("decode document %d in %s: %w", id, c.name, err)
		}
		doc[IDField] = strconv.FormatInt(id, 10)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c.name, err)
	}
	return docs, nil
}

// sqliteWhere renders filter as a WHERE clause over json_extract. Keys are
// sorted so statements are stable.
func sqliteWhere(filter Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		v := filter[k]

		if k == IDField {
			s, ok := v.(string)
			if !ok {
				return "", nil, fmt.Errorf("%w: %v", ErrInvalidID, v)
			}
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return "", nil, fmt.Errorf("%w: %q", ErrInvalidID, s)
			}
			clauses = append(clauses, "id = ?")
			args = append(args, id)
			continue
		}

		path := `$."` + strings.ReplaceAll(k, `"`, `\"`) + `"`
		switch val := v.(type) {
		case nil:
			clauses = append(clauses, "json_extract(body, ?) IS NULL")
			args = append(args, path)
		case bool:
			n := 0
			if val {
				n = 1
			}
			clauses = append(clauses, "json_extract(body, ?) = ?")
			args = append(args, path, n)
		case string, int, int32, int64, uint, uint32, uint64, float32, float64:
			clauses = append(clauses, "json_extract(body, ?) = ?")
			args = append(args, path, val)
		default:
			return "", nil, fmt.Errorf("unsupported filter value for %q: %T", k, v)
		}
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}
