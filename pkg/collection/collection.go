// Package collection holds records of one type keyed by identity and
// applies incoming batches as diffs.
package collection

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"mercator-hq/exportable/pkg/record"
)

// Collection maps identities to records of a single type. It is not safe
// for concurrent use.
type Collection struct {
	typ     *record.Type
	sorted  bool
	entries map[string]entry
	order   []string
}

type entry struct {
	key record.Key
	rec *record.Record
}

// Option configures a Collection.
type Option func(*Collection)

// Unsorted makes iteration follow insertion order instead of key order.
func Unsorted() Option {
	return func(c *Collection) {
		c.sorted = false
	}
}

// New creates an empty collection for records of typ. typ must define an
// index.
func New(typ *record.Type, opts ...Option) (*Collection, error) {
	if !typ.HasIdentity() {
		return nil, fmt.Errorf("collection of %s: %w", typ.Name(), record.ErrNoIdentity)
	}
	c := &Collection{
		typ:     typ,
		sorted:  true,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Type returns the record type of the members.
func (c *Collection) Type() *record.Type {
	return c.typ
}

// Sorted reports whether iteration is in ascending key order.
func (c *Collection) Sorted() bool {
	return c.sorted
}

// slot returns the storage key of k. Identity hashes are collision free
// where Key.String is not.
func (c *Collection) slot(k record.Key) (string, error) {
	return record.HashKey(c.typ.Name(), k)
}

// Add inserts rec at its identity, replacing any record already there. A
// replaced record keeps its position in insertion order.
func (c *Collection) Add(rec *record.Record) error {
	if rec.Type() != c.typ {
		return fmt.Errorf("add %s to collection of %s: %w", rec.Type().Name(), c.typ.Name(), record.ErrTypeMismatch)
	}
	k, err := rec.Identity()
	if err != nil {
		return err
	}
	s, err := c.slot(k)
	if err != nil {
		return err
	}
	if _, exists := c.entries[s]; !exists {
		c.order = append(c.order, s)
	}
	c.entries[s] = entry{key: k, rec: rec}
	return nil
}

// Get returns the record stored at k.
func (c *Collection) Get(k record.Key) (*record.Record, bool) {
	s, err := c.slot(k)
	if err != nil {
		return nil, false
	}
	e, ok := c.entries[s]
	return e.rec, ok
}

// Delete removes the record at k and reports whether there was one.
func (c *Collection) Delete(k record.Key) bool {
	s, err := c.slot(k)
	if err != nil {
		return false
	}
	if _, ok := c.entries[s]; !ok {
		return false
	}
	delete(c.entries, s)
	c.order = slices.DeleteFunc(c.order, func(o string) bool { return o == s })
	return true
}

// Contains reports whether a record is stored at k.
func (c *Collection) Contains(k record.Key) bool {
	_, ok := c.Get(k)
	return ok
}

// ContainsRecord reports whether a record with rec's identity is stored.
func (c *Collection) ContainsRecord(rec *record.Record) bool {
	if rec.Type() != c.typ {
		return false
	}
	k, err := rec.Identity()
	if err != nil {
		return false
	}
	return c.Contains(k)
}

// Len returns the number of records.
func (c *Collection) Len() int {
	return len(c.entries)
}

// entriesInOrder returns the members in iteration order.
func (c *Collection) entriesInOrder() []entry {
	out := make([]entry, 0, len(c.order))
	for _, s := range c.order {
		out = append(out, c.entries[s])
	}
	if c.sorted {
		slices.SortStableFunc(out, func(a, b entry) int {
			return a.key.Compare(b.key)
		})
	}
	return out
}

// Keys returns the identities in iteration order.
func (c *Collection) Keys() []record.Key {
	entries := c.entriesInOrder()
	keys := make([]record.Key, len(entries))
	for i, e := range entries {
		keys[i] = e.key
	}
	return keys
}

// All iterates over the members in iteration order.
func (c *Collection) All() iter.Seq2[record.Key, *record.Record] {
	return func(yield func(record.Key, *record.Record) bool) {
		for _, e := range c.entriesInOrder() {
			if !yield(e.key, e.rec) {
				return
			}
		}
	}
}

// Records returns the members in iteration order.
func (c *Collection) Records() []*record.Record {
	entries := c.entriesInOrder()
	out := make([]*record.Record, len(entries))
	for i, e := range entries {
		out[i] = e.rec
	}
	return out
}

// Update applies other to c. Keys only in other are added as clones. Keys
// in both whose records differ are merged, and reported as updated only
// when the merge changed a field value. The diff is computed before
// anything is mutated, so added and updated are independent of each other.
func (c *Collection) Update(other *Collection, matchIdentity bool) (added, updated []record.Key, err error) {
	if other.typ != c.typ {
		return nil, nil, fmt.Errorf("update %s collection from %s: %w", c.typ.Name(), other.typ.Name(), record.ErrTypeMismatch)
	}

	type pair struct {
		key      record.Key
		current  *record.Record
		incoming *record.Record
	}
	var toAdd []entry
	var candidates []pair
	for _, e := range other.entriesInOrder() {
		s, err := c.slot(e.key)
		if err != nil {
			return nil, nil, err
		}
		if cur, ok := c.entries[s]; ok {
			candidates = append(candidates, pair{key: e.key, current: cur.rec, incoming: e.rec})
			continue
		}
		toAdd = append(toAdd, e)
	}

	for _, p := range candidates {
		if record.Equal(p.current, p.incoming) {
			continue
		}
		changed, err := p.current.Merge(p.incoming, matchIdentity)
		if err != nil {
			return added, updated, fmt.Errorf("update %s %s: %w", c.typ.Name(), p.key, err)
		}
		if changed {
			updated = append(updated, p.key)
		}
	}

	for _, e := range toAdd {
		if err := c.Add(e.rec.Clone()); err != nil {
			return added, updated, err
		}
		added = append(added, e.key)
	}

	slog.Default().With("component", "collection").Debug("collection updated",
		"type", c.typ.Name(),
		"added", len(added),
		"updated", len(updated),
		"size", c.Len(),
	)
	return added, updated, nil
}
