// Package netstate implements the network state registry: CRUD over switch
// records in the document store plus a private cache mapping each switch
// name (datapath id) to the identity the store assigned on first insert.
//
// IDENTITY CACHE:
// Put records the identity; Update and Remove address documents by it; Remove
// drops it. Load warms the cache from the store at startup so a restarted
// daemon does not insert known switches twice.
//
// CONCURRENCY:
// One sync.RWMutex serializes every mutation. Reads that only consult the
// cache take the read lock.
//
// ERRORS:
// Store failures surface as *DatabaseError. Lookups that miss return the
// ErrSwitchNotFound, ErrUnknownSwitch and ErrDuplicateSwitch sentinels.
package netstate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/concave-dev/otto/internal/docstore"
	"github.com/concave-dev/otto/internal/logging"
)

// Registry is the switch record store with its identity cache.
type Registry struct {
	coll docstore.Collection

	mu  sync.RWMutex
	ids map[string]string // switch name -> store identity
}

// NewRegistry creates a registry over coll with an empty identity cache.
func NewRegistry(coll docstore.Collection) *Registry {
	return &Registry{
		coll: coll,
		ids:  make(map[string]string),
	}
}

// Load replaces the identity cache with the identities of every record
// currently in the store.
func (r *Registry) Load(ctx context.Context) error {
	docs, err := r.coll.Find(ctx, nil)
	if err != nil {
		return dbError("load", "", err)
	}

	ids := make(map[string]string, len(docs))
	for _, doc := range docs {
		name := Record(doc).Name()
		if name == "" {
			logging.Warn("Skipping switch document %s without a name", logging.FormatStoreID(doc.ID()))
			continue
		}
		if _, dup := ids[name]; dup {
			logging.Warn("Switch %s stored more than once, keeping first identity", name)
			continue
		}
		ids[name] = doc.ID()
	}

	r.mu.Lock()
	r.ids = ids
	r.mu.Unlock()

	logging.Info("Loaded %d switch identities from %s", len(ids), r.coll.Name())
	return nil
}

// Put inserts a new switch record and caches its store identity.
func (r *Registry) Put(ctx context.Context, rec Record) (string, error) {
	name := rec.Name()
	if name == "" {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidRecord, FieldName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[name]; ok {
		return "", fmt.Errorf("%w: %s", ErrDuplicateSwitch, name)
	}

	id, err := r.coll.InsertOne(ctx, docstore.Document(rec))
	if err != nil {
		return "", dbError("put", name, err)
	}

	r.ids[name] = id
	logging.Debug("Inserted switch %s as %s", name, logging.FormatStoreID(id))
	return id, nil
}

// Update sets the fields in patch on the record cached for name.
func (r *Registry) Update(ctx context.Context, name string, patch Record) error {
	if renamed := patch.Name(); renamed != "" && renamed != name {
		return fmt.Errorf("%w: cannot rename switch %s to %s", ErrInvalidRecord, name, renamed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.ids[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSwitch, name)
	}

	matched, err := r.coll.UpdateOne(ctx, docstore.Filter{docstore.IDField: id}, docstore.Document(patch))
	if err != nil {
		return dbError("update", name, err)
	}
	if matched == 0 {
		// The document vanished underneath the cache
		delete(r.ids, name)
		return fmt.Errorf("%w: %s", ErrSwitchNotFound, name)
	}

	logging.Debug("Updated switch %s (%d fields)", name, len(patch))
	return nil
}

// Remove deletes the record cached for name and forgets its identity.
func (r *Registry) Remove(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.ids[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSwitch, name)
	}

	if _, err := r.coll.DeleteOne(ctx, docstore.Filter{docstore.IDField: id}); err != nil {
		return dbError("remove", name, err)
	}

	delete(r.ids, name)
	logging.Debug("Removed switch %s (%s)", name, logging.FormatStoreID(id))
	return nil
}

// Get returns the record cached for name that also matches extra. The
// store identity is stripped from the result.
func (r *Registry) Get(ctx context.Context, name string, extra docstore.Filter) (Record, error) {
	r.mu.RLock()
	id, ok := r.ids[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSwitchNotFound, name)
	}

	filter := docstore.Filter{}
	for k, v := range extra {
		filter[k] = v
	}
	filter[docstore.IDField] = id

	doc, err := r.coll.FindOne(ctx, filter)
	if errors.Is(err, docstore.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrSwitchNotFound, name)
	}
	if err != nil {
		return nil, dbError("get", name, err)
	}

	return Record(doc.WithoutID()), nil
}

// DumpAll returns every stored record keyed by name with the store identity
// stripped.
func (r *Registry) DumpAll(ctx context.Context) (map[string]Record, error) {
	docs, err := r.coll.Find(ctx, nil)
	if err != nil {
		return nil, dbError("dump", "", err)
	}

	out := make(map[string]Record, len(docs))
	for _, doc := range docs {
		rec := Record(doc.WithoutID())
		name := rec.Name()
		if name == "" {
			continue
		}
		if _, dup := out[name]; !dup {
			out[name] = rec
		}
	}
	return out, nil
}

// Names returns the cached switch names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ids))
	for name := range r.ids {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// StoreID returns the cached identity for name.
func (r *Registry) StoreID(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.ids[name]
	return id, ok
}

// Len returns the number of cached switches.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}
