package store

import (
	"context"
	"fmt"

	"spots/pkg/utils"
)

// Backend is the contract a backing key-value store must provide: exact-key
// get, insert-or-replace put, idempotent delete, full scan, and secondary
// index queries with exact-or-prefix sort conditions. Implementations must
// be safe for concurrent use; Get returns (nil, nil) for an absent key.
type Backend interface {
	Get(ctx context.Context, t TableSpec, key Key) (Item, error)
	Put(ctx context.Context, t TableSpec, item Item) error
	Delete(ctx context.Context, t TableSpec, key Key) error
	Scan(ctx context.Context, t TableSpec) ([]Item, error)
	Query(ctx context.Context, t TableSpec, q Query) ([]Item, error)
}

// Schema declares how an entity type maps to its table: key extraction and
// item conversion are explicit functions, not reflection.
type Schema[E any] struct {
	Table TableSpec

	// Key extracts the entity's key values. A simple-key entity without
	// an id yet returns an empty partition value.
	Key func(*E) Key

	// SetGeneratedID assigns a generated id to a simple-key entity before
	// the first write. Unused for composite keys.
	SetGeneratedID func(*E, string)

	ToItem   func(*E) Item
	FromItem func(Item) (*E, error)
}

// Store is a stateless operator binding one entity schema to one backend.
// It owns no entity state and never caches.
type Store[E any] struct {
	backend Backend
	schema  Schema[E]
}

func New[E any](backend Backend, schema Schema[E]) *Store[E] {
	return &Store[E]{backend: backend, schema: schema}
}

func (s *Store[E]) checkKey(key Key) error {
	if key.Partition == "" {
		return fmt.Errorf("%w: empty partition value for table %s", ErrInconsistentKey, s.schema.Table.Name)
	}
	if s.schema.Table.Key.Composite() == (key.Sort == "") {
		return fmt.Errorf("%w: key shape does not match table %s", ErrInconsistentKey, s.schema.Table.Name)
	}
	return nil
}

// Get looks up an entity by its key. An absent key is a normal outcome and
// returns (nil, nil).
func (s *Store[E]) Get(ctx context.Context, key Key) (*E, error) {
	if err := s.checkKey(key); err != nil {
		return nil, err
	}
	item, err := s.backend.Get(ctx, s.schema.Table, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	return s.schema.FromItem(item)
}

// Save inserts or fully replaces the entity. A simple-key entity with no id
// gets a generated one assigned before the write. The entity is returned as
// persisted, with the generated id populated.
func (s *Store[E]) Save(ctx context.Context, entity *E) (*E, error) {
	key := s.schema.Key(entity)
	if !s.schema.Table.Key.Composite() && key.Partition == "" {
		s.schema.SetGeneratedID(entity, utils.GenerateID())
		key = s.schema.Key(entity)
	}
	if err := s.checkKey(key); err != nil {
		return nil, err
	}
	if err := s.backend.Put(ctx, s.schema.Table, s.schema.ToItem(entity)); err != nil {
		return nil, err
	}
	return entity, nil
}

// Delete removes the entity by key. Deleting an absent key is a no-op.
func (s *Store[E]) Delete(ctx context.Context, entity *E) error {
	key := s.schema.Key(entity)
	if err := s.checkKey(key); err != nil {
		return err
	}
	return s.backend.Delete(ctx, s.schema.Table, key)
}

// FindAll scans the whole table. Scans are unbounded and potentially slow;
// this is for administrative and test use, never a hot path.
func (s *Store[E]) FindAll(ctx context.Context) ([]*E, error) {
	items, err := s.backend.Scan(ctx, s.schema.Table)
	if err != nil {
		return nil, err
	}
	return s.fromItems(items)
}

// DeleteAll removes every entry of the table, one scan plus one delete per
// item. Test helper only.
func (s *Store[E]) DeleteAll(ctx context.Context) error {
	entities, err := s.FindAll(ctx)
	if err != nil {
		return err
	}
	for _, e := range entities {
		if err := s.Delete(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Query runs one secondary-index query and returns its first page.
func (s *Store[E]) Query(ctx context.Context, q Query) ([]*E, error) {
	if _, ok := s.schema.Table.Index(q.Index); !ok {
		return nil, fmt.Errorf("table %s has no index %q", s.schema.Table.Name, q.Index)
	}
	if q.Partition == "" {
		return nil, fmt.Errorf("%w: empty partition value for index %q", ErrInconsistentKey, q.Index)
	}
	items, err := s.backend.Query(ctx, s.schema.Table, q)
	if err != nil {
		return nil, err
	}
	return s.fromItems(items)
}

func (s *Store[E]) fromItems(items []Item) ([]*E, error) {
	out := make([]*E, 0, len(items))
	for _, item := range items {
		e, err := s.schema.FromItem(item)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
