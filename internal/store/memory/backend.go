// Package memory implements the store backend on mutex-guarded maps. It
// backs the test suites and the default local-development driver.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"spots/internal/store"
)

// keySep joins partition and sort values into one map key. Neither value
// may contain it; key values in this system are ids, codes and geohashes.
const keySep = "\x1f"

type Backend struct {
	mu     sync.RWMutex
	tables map[string]map[string]store.Item
}

func New() *Backend {
	return &Backend{
		tables: make(map[string]map[string]store.Item),
	}
}

func flatten(key store.Key) string {
	return key.Partition + keySep + key.Sort
}

func clone(item store.Item) store.Item {
	out := make(store.Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func (b *Backend) Get(ctx context.Context, t store.TableSpec, key store.Key) (store.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	item, ok := b.tables[t.Name][flatten(key)]
	if !ok {
		return nil, nil
	}
	return clone(item), nil
}

func (b *Backend) Put(ctx context.Context, t store.TableSpec, item store.Item) error {
	key, err := t.Key.Extract(item)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.tables[t.Name]; !ok {
		b.tables[t.Name] = make(map[string]store.Item)
	}
	b.tables[t.Name][flatten(key)] = clone(item)
	return nil
}

func (b *Backend) Delete(ctx context.Context, t store.TableSpec, key store.Key) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.tables[t.Name], flatten(key))
	return nil
}

func (b *Backend) Scan(ctx context.Context, t store.TableSpec) ([]store.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	table := b.tables[t.Name]
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]store.Item, 0, len(keys))
	for _, k := range keys {
		items = append(items, clone(table[k]))
	}
	return items, nil
}

func (b *Backend) Query(ctx context.Context, t store.TableSpec, q store.Query) ([]store.Item, error) {
	idx, ok := t.Index(q.Index)
	if !ok {
		return nil, fmt.Errorf("table %s has no index %q", t.Name, q.Index)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var matched []store.Item
	for _, item := range b.tables[t.Name] {
		if item[idx.Key.PartitionAttr] != q.Partition {
			continue
		}
		sortVal, _ := item[idx.Key.SortAttr].(string)
		if q.Sort.Equals != "" && sortVal != q.Sort.Equals {
			continue
		}
		if q.Sort.Prefix != "" && !strings.HasPrefix(sortVal, q.Sort.Prefix) {
			continue
		}
		if !matchesFilter(item, q.Filter) {
			continue
		}
		matched = append(matched, clone(item))
	}

	// Secondary indexes present items in sort-key order.
	sort.Slice(matched, func(i, j int) bool {
		si, _ := matched[i][idx.Key.SortAttr].(string)
		sj, _ := matched[j][idx.Key.SortAttr].(string)
		if si != sj {
			return si < sj
		}
		ki, _ := t.Key.Extract(matched[i])
		kj, _ := t.Key.Extract(matched[j])
		return flatten(ki) < flatten(kj)
	})

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func matchesFilter(item store.Item, filter map[string]any) bool {
	for attr, want := range filter {
		if item[attr] != want {
			return false
		}
	}
	return true
}
