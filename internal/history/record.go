package history

import (
	"bytes"
	"encoding/json"
	"time"
)

// TimestampLayout renders record timestamps as activity keys.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// DayLayout renders weekly activity buckets.
const DayLayout = "2006-01-02"

// Fields that can be counted with Backend.CountBy.
const (
	FieldDeclaredBy = "declaredBy"
	FieldModel      = "model"
)

// Record is one processed intent.
type Record struct {
	DeclaredBy string    `json:"declaredBy"`
	Intent     string    `json:"intent"`
	Outcome    []string  `json:"outcome"`
	Model      string    `json:"model,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Key returns the activity key of the record.
func (r Record) Key() string {
	return r.Timestamp.Format(TimestampLayout)
}

// Count is one grouped count.
type Count struct {
	Key   string
	Count int64
}

// Counts is an ordered list of grouped counts. It encodes as a JSON object
// whose keys keep the list order.
type Counts []Count

// Get returns the count for key and whether it was present.
func (c Counts) Get(key string) (int64, bool) {
	for _, e := range c {
		if e.Key == key {
			return e.Count, true
		}
	}
	return 0, false
}

// Total sums every count.
func (c Counts) Total() int64 {
	var n int64
	for _, e := range c {
		n += e.Count
	}
	return n
}

// MarshalJSON encodes c as an ordered object.
func (c Counts) MarshalJSON() ([]byte, error) {
	return orderedObject(len(c), func(i int) (string, any) { return c[i].Key, c[i].Count })
}

// ActivityEntry is the body of one latest-activity entry.
type ActivityEntry struct {
	DeclaredBy string   `json:"declaredBy"`
	Intent     string   `json:"intent"`
	Outcome    []string `json:"outcome"`
}

// Activity is the latest activity, newest first, keyed by timestamp. It
// encodes as a JSON object whose keys keep the list order.
type Activity []ActivityItem

// ActivityItem pairs an activity key with its entry.
type ActivityItem struct {
	Key   string
	Entry ActivityEntry
}

// MarshalJSON encodes a as an ordered object.
func (a Activity) MarshalJSON() ([]byte, error) {
	return orderedObject(len(a), func(i int) (string, any) { return a[i].Key, a[i].Entry })
}

func orderedObject(n int, item func(int) (string, any)) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := range n {
		key, value := item(i)
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
