package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// sqliteColumns maps countable fields to columns.
var sqliteColumns = map[string]string{
	FieldDeclaredBy: "declared_by",
	FieldModel:      "model",
}

// SQLiteBackend keeps history in a sqlite table. Timestamps are stored as
// unix microseconds; days are bucketed in UTC. It owns db.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend creates the processed_intents table if needed.
func NewSQLiteBackend(db *sql.DB) (*SQLiteBackend, error) {
	const schema = `CREATE TABLE IF NOT EXISTS processed_intents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		declared_by TEXT NOT NULL,
		intent TEXT NOT NULL,
		outcome TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS processed_intents_timestamp ON processed_intents (timestamp);`

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create processed_intents table: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Insert appends rec.
func (b *SQLiteBackend) Insert(ctx context.Context, rec Record) error {
	outcome, err := json.Marshal(rec.Outcome)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}

	_, err = b.db.ExecContext(ctx,
		`INSERT INTO processed_intents (declared_by, intent, outcome, model, timestamp) VALUES (?, ?, ?, ?, ?)`,
		rec.DeclaredBy, rec.Intent, string(outcome), rec.Model, rec.Timestamp.UnixMicro())
	return err
}

// Latest returns the newest records by rowid.
func (b *SQLiteBackend) Latest(ctx context.Context, limit int) ([]Record, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT declared_by, intent, outcome, model, timestamp FROM processed_intents ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec     Record
			outcome string
			micros  int64
		)
		if err := rows.Scan(&rec.DeclaredBy, &rec.Intent, &outcome, &rec.Model, &micros); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(outcome), &rec.Outcome); err != nil {
			return nil, fmt.Errorf("decode outcome: %w", err)
		}
		rec.Timestamp = time.UnixMicro(micros).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountByDay groups the window by UTC day.
func (b *SQLiteBackend) CountByDay(ctx context.Context, from, to time.Time) (Counts, error) {
	return b.counts(ctx,
		`SELECT strftime('%Y-%m-%d', timestamp / 1000000, 'unixepoch') AS day, COUNT(*)
		FROM processed_intents
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY day ORDER BY day ASC`,
		from.UnixMicro(), to.UnixMicro())
}

// CountBy groups every record by field.
func (b *SQLiteBackend) CountBy(ctx context.Context, field string) (Counts, error) {
	column, ok := sqliteColumns[field]
	if !ok {
		return nil, fmt.Errorf("cannot count by field %q", field)
	}

	query := fmt.Sprintf(`SELECT %[1]s, COUNT(*) AS n FROM processed_intents
		WHERE %[1]s != ''
		GROUP BY %[1]s ORDER BY n DESC, %[1]s ASC`, column)
	return b.counts(ctx, query)
}

func (b *SQLiteBackend) counts(ctx context.Context, query string, args ...any) (Counts, error) {
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := Counts{}
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Close closes the database.
func (b *SQLiteBackend) Close(context.Context) error {
	return b.db.Close()
}
