// Package redis implements the store backend on Redis. Items live in one
// hash per table; every secondary index is kept as one sorted set per
// (index, partition value), whose members are "sortValue\x00primaryKey" at
// score zero so ZRANGEBYLEX serves exact and prefix sort conditions.
// Index entries are maintained on every put and delete, which mirrors the
// sparse-index behavior of a managed store: items missing an index key
// attribute simply never appear in that index.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"spots/internal/store"
)

const (
	keySep    = "\x1f"
	memberSep = "\x00"
)

type Backend struct {
	client *goredis.Client
}

func New(client *goredis.Client) *Backend {
	return &Backend{client: client}
}

// Connect builds a backend talking to the given address.
func Connect(addr string) *Backend {
	return New(goredis.NewClient(&goredis.Options{Addr: addr}))
}

func flatten(key store.Key) string {
	return key.Partition + keySep + key.Sort
}

func unflatten(flat string) store.Key {
	partition, sort, _ := strings.Cut(flat, keySep)
	return store.Key{Partition: partition, Sort: sort}
}

func tableKey(t store.TableSpec) string {
	return "tbl:" + t.Name
}

func indexKey(t store.TableSpec, index, partition string) string {
	return "idx:" + t.Name + ":" + index + ":" + partition
}

// indexMember returns the sorted-set member an item contributes to an
// index, or "" when the item lacks one of the index key attributes.
func indexMember(idx store.IndexSpec, item store.Item, flat string) string {
	partition, _ := item[idx.Key.PartitionAttr].(string)
	sortVal, _ := item[idx.Key.SortAttr].(string)
	if partition == "" || sortVal == "" {
		return ""
	}
	return sortVal + memberSep + flat
}

func (b *Backend) Get(ctx context.Context, t store.TableSpec, key store.Key) (store.Item, error) {
	raw, err := b.client.HGet(ctx, tableKey(t), flatten(key)).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, store.Unavailable(err)
	}
	return decodeItem(raw)
}

func (b *Backend) Put(ctx context.Context, t store.TableSpec, item store.Item) error {
	key, err := t.Key.Extract(item)
	if err != nil {
		return err
	}
	flat := flatten(key)

	raw, err := json.Marshal(item)
	if err != nil {
		return store.Unavailable(err)
	}

	// Replacing an item must drop the index entries of the previous
	// version, whose sort values may differ.
	old, err := b.Get(ctx, t, key)
	if err != nil {
		return err
	}

	pipe := b.client.TxPipeline()
	pipe.HSet(ctx, tableKey(t), flat, string(raw))
	for _, idx := range t.Indexes {
		if old != nil {
			if m := indexMember(idx, old, flat); m != "" {
				oldPartition, _ := old[idx.Key.PartitionAttr].(string)
				pipe.ZRem(ctx, indexKey(t, idx.Name, oldPartition), m)
			}
		}
		if m := indexMember(idx, item, flat); m != "" {
			partition, _ := item[idx.Key.PartitionAttr].(string)
			pipe.ZAdd(ctx, indexKey(t, idx.Name, partition), goredis.Z{Member: m})
		}
	}
	_, err = pipe.Exec(ctx)
	return store.Unavailable(err)
}

func (b *Backend) Delete(ctx context.Context, t store.TableSpec, key store.Key) error {
	old, err := b.Get(ctx, t, key)
	if err != nil {
		return err
	}
	if old == nil {
		return nil
	}
	flat := flatten(key)

	pipe := b.client.TxPipeline()
	pipe.HDel(ctx, tableKey(t), flat)
	for _, idx := range t.Indexes {
		if m := indexMember(idx, old, flat); m != "" {
			partition, _ := old[idx.Key.PartitionAttr].(string)
			pipe.ZRem(ctx, indexKey(t, idx.Name, partition), m)
		}
	}
	_, err = pipe.Exec(ctx)
	return store.Unavailable(err)
}

func (b *Backend) Scan(ctx context.Context, t store.TableSpec) ([]store.Item, error) {
	raw, err := b.client.HGetAll(ctx, tableKey(t)).Result()
	if err != nil {
		return nil, store.Unavailable(err)
	}
	items := make([]store.Item, 0, len(raw))
	for _, v := range raw {
		item, err := decodeItem(v)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (b *Backend) Query(ctx context.Context, t store.TableSpec, q store.Query) ([]store.Item, error) {
	if _, ok := t.Index(q.Index); !ok {
		return nil, fmt.Errorf("table %s has no index %q", t.Name, q.Index)
	}
	zkey := indexKey(t, q.Index, q.Partition)

	var members []string
	var err error
	switch {
	case q.Sort.Equals != "":
		members, err = b.rangeByLex(ctx, zkey, q.Sort.Equals+memberSep, q.Limit)
	case q.Sort.Prefix != "":
		members, err = b.rangeByLex(ctx, zkey, q.Sort.Prefix, q.Limit)
	default:
		members, err = b.client.ZRange(ctx, zkey, 0, pageStop(q.Limit)).Result()
		err = store.Unavailable(err)
	}
	if err != nil {
		return nil, err
	}

	items := make([]store.Item, 0, len(members))
	for _, m := range members {
		_, flat, ok := strings.Cut(m, memberSep)
		if !ok {
			continue
		}
		item, err := b.Get(ctx, t, unflatten(flat))
		if err != nil {
			return nil, err
		}
		if item == nil || !matchesFilter(item, q.Filter) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// rangeByLex scans [prefix, prefix+0xff) of a member set. All sort values
// in this system are ASCII, so 0xff is a safe upper fence.
func (b *Backend) rangeByLex(ctx context.Context, zkey, prefix string, limit int) ([]string, error) {
	rng := &goredis.ZRangeBy{
		Min: "[" + prefix,
		Max: "[" + prefix + "\xff",
	}
	if limit > 0 {
		rng.Count = int64(limit)
	}
	members, err := b.client.ZRangeByLex(ctx, zkey, rng).Result()
	return members, store.Unavailable(err)
}

func pageStop(limit int) int64 {
	if limit > 0 {
		return int64(limit) - 1
	}
	return -1
}

func matchesFilter(item store.Item, filter map[string]any) bool {
	for attr, want := range filter {
		if item[attr] != want {
			return false
		}
	}
	return true
}

func decodeItem(raw string) (store.Item, error) {
	var item store.Item
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, store.Unavailable(err)
	}
	return item, nil
}
