// Package store provides a generic keyed-persistence layer over pluggable
// key-value backends. An entity type declares its table shape once
// (partition attribute, optional sort attribute, secondary indexes) and
// Store gives it CRUD, scan and index-query operations without per-entity
// persistence code.
//
// Two key shapes exist: simple (partition attribute only) and composite
// (partition + sort, both required). Operations check the presented key
// against the declared shape and fail fast with ErrInconsistentKey on a
// mismatch rather than coercing it.
package store

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable wraps transport or backend failures. The store
	// performs no retries; retry policy belongs to the caller.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInconsistentKey marks a key that does not match the entity's
	// declared key shape. This is a programming error, not a data error.
	ErrInconsistentKey = errors.New("inconsistent key")
)

// Unavailable wraps a backend error in ErrStoreUnavailable so callers can
// classify it with errors.Is. A nil error stays nil.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// Key is the identity of one item: a partition value and, for composite
// tables, a sort value. Simple-key tables leave Sort empty.
type Key struct {
	Partition string
	Sort      string
}

// Item is the backend-neutral attribute map of one stored entity. Values
// are strings or float64s.
type Item map[string]any

// KeySpec names the attributes holding an item's partition and sort values.
// An empty SortAttr declares a simple key.
type KeySpec struct {
	PartitionAttr string
	SortAttr      string
}

// Composite reports whether the key has a sort component.
func (k KeySpec) Composite() bool {
	return k.SortAttr != ""
}

// Extract reads the key values out of an item.
func (k KeySpec) Extract(item Item) (Key, error) {
	partition, ok := item[k.PartitionAttr].(string)
	if !ok || partition == "" {
		return Key{}, fmt.Errorf("%w: attribute %q missing", ErrInconsistentKey, k.PartitionAttr)
	}
	key := Key{Partition: partition}
	if !k.Composite() {
		return key, nil
	}
	sort, ok := item[k.SortAttr].(string)
	if !ok || sort == "" {
		return Key{}, fmt.Errorf("%w: attribute %q missing", ErrInconsistentKey, k.SortAttr)
	}
	key.Sort = sort
	return key, nil
}

// IndexSpec describes a named secondary index with its own key shape.
// Indexes are read-only projections defined at provisioning time.
type IndexSpec struct {
	Name string
	Key  KeySpec
}

// TableSpec describes a table: its name, primary key shape and secondary
// indexes. Backends consume it generically instead of hard-coding
// per-entity attribute names.
type TableSpec struct {
	Name    string
	Key     KeySpec
	Indexes []IndexSpec
}

// Index looks up a secondary index by name.
func (t TableSpec) Index(name string) (IndexSpec, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexSpec{}, false
}

// SortCondition constrains the sort value of an index query: exact match,
// prefix match, or (zero value) no constraint.
type SortCondition struct {
	Equals string
	Prefix string
}

// Query describes one secondary-index query: exact partition match, an
// optional sort condition, an optional equality filter on non-key
// attributes evaluated after the key-range match, and a page-size cap.
// Only the first page is returned; callers needing more re-query.
type Query struct {
	Index     string
	Partition string
	Sort      SortCondition
	Filter    map[string]any
	Limit     int
}
