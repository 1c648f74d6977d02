// Package snapshot persists container partials by aggregate name and shard.
package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"histodb/aggregate"
	"histodb/codec"
	"histodb/core"
	"histodb/storage"
	"histodb/window"
)

var (
	ErrNoShards = errors.New("no shards stored")
	// ErrTypeMismatch is returned when a partial of another container type
	// is stored under an existing aggregate name.
	ErrTypeMismatch = errors.New("container type mismatch")
)

// Store keeps encoded containers in a storage.Backend. Containers read back
// carry no quantity or selection; use core.Reattach to fill them again.
type Store struct {
	backend      storage.Backend
	metadata     storage.MetadataStore
	codec        codec.Codec
	cacheEnabled bool
	cache        *ristretto.Cache
	compaction   window.Config
	logger       *zap.Logger

	mutex   sync.Mutex
	indexes map[int64]*storage.ShardIndex
	// generations counts the writes to each storage key; cache entries are
	// keyed by generation so a rewrite never serves a stale entry.
	generations map[string]uint64
}

// Open builds the backend described by config.
func Open(config StoreConfig, logger *zap.Logger) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c, err := codec.ByName(config.Codec)
	if err != nil {
		return nil, err
	}

	var backend storage.Backend
	var metadata storage.MetadataStore
	if config.InMemory {
		backend = storage.NewInMemoryBackend()
		metadata = storage.NewSimpleMetadataStore()
	} else {
		db, err := storage.OpenBadger(config.Path)
		if err != nil {
			return nil, fmt.Errorf("open badger at %s: %w", config.Path, err)
		}
		backend = storage.NewBadgerBackend(db)
		metadata = storage.NewBadgerMetadataStore(db)
	}

	store, err := newStore(backend, metadata, c, config, logger)
	if err != nil {
		return nil, multierr.Append(err, backend.Close())
	}
	return store, nil
}

// NewStore wraps an existing backend with the default cache sizes and
// compaction layout.
func NewStore(
	backend storage.Backend,
	metadata storage.MetadataStore,
	c codec.Codec,
	cacheEnabled bool,
	logger *zap.Logger) (*Store, error) {

	config := DefaultStoreConfig()
	config.CacheEnabled = cacheEnabled
	config.Codec = c.Name()
	return newStore(backend, metadata, c, config, logger)
}

func newStore(
	backend storage.Backend,
	metadata storage.MetadataStore,
	c codec.Codec,
	config StoreConfig,
	logger *zap.Logger) (*Store, error) {

	if logger == nil {
		logger = zap.NewNop()
	}
	store := &Store{
		backend:      backend,
		metadata:     metadata,
		codec:        c,
		cacheEnabled: config.CacheEnabled,
		compaction:   config.Compaction,
		logger:       logger,
		indexes:      make(map[int64]*storage.ShardIndex),
		generations:  make(map[string]uint64),
	}
	if config.CacheEnabled {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: config.CacheNumCounters,
			MaxCost:     config.CacheMaxCost,
			BufferItems: 64,
		})
		if err != nil {
			return nil, err
		}
		store.cache = cache
	}
	return store, nil
}

// index returns the shard index of id, loading it from the backend on first
// use. The caller holds the mutex.
func (store *Store) index(id int64) (*storage.ShardIndex, error) {
	if index, ok := store.indexes[id]; ok {
		return index, nil
	}
	index, err := storage.LoadShardIndex(store.backend, id)
	if err != nil {
		return nil, err
	}
	store.indexes[id] = index
	return index, nil
}

// cacheKey is the storage key followed by its generation. The caller holds
// the mutex.
func (store *Store) cacheKey(id, shard int64) []byte {
	key := storage.GetKey(id, shard)
	generation := store.generations[string(key)]
	return binary.LittleEndian.AppendUint64(key, generation)
}

// uncache retires the cache entries of shards. The caller holds the mutex.
func (store *Store) uncache(id int64, shards ...int64) {
	if !store.cacheEnabled {
		return
	}
	for _, shard := range shards {
		store.cache.Del(store.cacheKey(id, shard))
		store.generations[string(storage.GetKey(id, shard))]++
	}
}

// describe records name and type of a new aggregate, or checks c against the
// recorded type. The caller holds the mutex.
func (store *Store) describe(id int64, name string, c core.Container) error {
	buf, err := store.metadata.GetAggregate(id)
	if errors.Is(err, storage.ErrNotFound) {
		info := aggregateInfo{Name: name, Type: c.Name()}
		return store.metadata.PutAggregate(id, info.MarshalMsg(nil))
	}
	if err != nil {
		return err
	}
	var info aggregateInfo
	if err := info.UnmarshalMsg(buf); err != nil {
		return fmt.Errorf("aggregate %q metadata: %w", name, err)
	}
	if info.Type != c.Name() {
		return fmt.Errorf("%w: aggregate %q holds %s, got %s", ErrTypeMismatch, name, info.Type, c.Name())
	}
	return nil
}

func (store *Store) Put(name string, shard int64, c core.Container) error {
	buf, err := codec.Encode(store.codec, c)
	if err != nil {
		return err
	}

	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.put(name, shard, c, buf)
}

// Append stores c under the shard after the last one held by name.
func (store *Store) Append(name string, c core.Container) (int64, error) {
	buf, err := codec.Encode(store.codec, c)
	if err != nil {
		return 0, err
	}

	store.mutex.Lock()
	defer store.mutex.Unlock()

	index, err := store.index(storage.AggregateID(name))
	if err != nil {
		return 0, err
	}
	shard := index.Next()
	return shard, store.put(name, shard, c, buf)
}

// put writes an encoded partial. The caller holds the mutex.
func (store *Store) put(name string, shard int64, c core.Container, buf []byte) error {
	id := storage.AggregateID(name)
	if err := store.describe(id, name, c); err != nil {
		return err
	}
	index, err := store.index(id)
	if err != nil {
		return err
	}
	if err := store.backend.Put(id, shard, buf); err != nil {
		return err
	}
	store.uncache(id, shard)
	index.Add(shard)
	return nil
}

func (store *Store) Get(name string, shard int64) (core.Container, error) {
	id := storage.AggregateID(name)
	var key []byte
	if store.cacheEnabled {
		store.mutex.Lock()
		key = store.cacheKey(id, shard)
		store.mutex.Unlock()
		if c, found := store.cache.Get(key); found {
			store.logger.Debug("cache hit", zap.String("aggregate", name), zap.Int64("shard", shard))
			return c.(core.Container).Copy(), nil
		}
	}

	buf, err := store.backend.Get(id, shard)
	if err != nil {
		return nil, err
	}
	c, err := codec.Decode(store.codec, buf)
	if err != nil {
		store.logger.Warn("corrupt snapshot",
			zap.String("aggregate", name),
			zap.Int64("shard", shard),
			zap.Error(err))
		return nil, err
	}
	if store.cacheEnabled {
		store.cache.Set(key, c, 1)
	}
	return c.Copy(), nil
}

func (store *Store) Delete(name string, shard int64) error {
	id := storage.AggregateID(name)

	store.mutex.Lock()
	defer store.mutex.Unlock()

	index, err := store.index(id)
	if err != nil {
		return err
	}
	if err := store.backend.Delete(id, shard); err != nil {
		return err
	}
	store.uncache(id, shard)
	index.Remove(shard)
	if index.Count() == 0 {
		delete(store.indexes, id)
		return store.metadata.DeleteAggregate(id)
	}
	return nil
}

// Shards lists the shards stored under name in ascending order.
func (store *Store) Shards(name string) ([]int64, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	index, err := store.index(storage.AggregateID(name))
	if err != nil {
		return nil, err
	}
	return index.Shards(), nil
}

// Names lists the stored aggregates in ascending order.
func (store *Store) Names() ([]string, error) {
	names := make([]string, 0)
	err := store.metadata.IterateAggregates(func(id int64, buf []byte) error {
		var info aggregateInfo
		if err := info.UnmarshalMsg(buf); err != nil {
			return fmt.Errorf("aggregate %d metadata: %w", id, err)
		}
		names = append(names, info.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Merge combines every shard of name into shard 0 and returns the result.
func (store *Store) Merge(name string) (core.Container, error) {
	shards, err := store.Shards(name)
	if err != nil {
		return nil, err
	}
	return store.mergeShards(name, shards, 0)
}

// MergeBetween combines the shards of name in [lo, hi] into the lowest of
// them.
func (store *Store) MergeBetween(name string, lo, hi int64) (core.Container, error) {
	id := storage.AggregateID(name)

	store.mutex.Lock()
	index, err := store.index(id)
	var shards []int64
	if err == nil {
		shards = index.Between(lo, hi)
	}
	store.mutex.Unlock()
	if err != nil {
		return nil, err
	}
	if len(shards) == 0 {
		return nil, fmt.Errorf("%w: %q in [%d, %d]", ErrNoShards, name, lo, hi)
	}
	return store.mergeShards(name, shards, shards[0])
}

// Compact folds the shards of name into the configured window layout: the
// newest shards stay apart, older ones are merged into ever larger groups.
// It returns the shards left afterwards.
func (store *Store) Compact(name string) ([]int64, error) {
	seq, err := store.compaction.Sequence()
	if err != nil {
		return nil, err
	}
	shards, err := store.Shards(name)
	if err != nil {
		return nil, err
	}

	for _, group := range window.Layout(window.NewGenericWindowing(seq), shards) {
		if len(group) < 2 {
			continue
		}
		if _, err := store.mergeShards(name, group, group[0]); err != nil {
			return nil, err
		}
	}
	return store.Shards(name)
}

func (store *Store) mergeShards(name string, shards []int64, target int64) (core.Container, error) {
	if len(shards) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoShards, name)
	}
	partials := make([]core.Container, len(shards))
	for i, shard := range shards {
		c, err := store.Get(name, shard)
		if err != nil {
			return nil, fmt.Errorf("shard %d: %w", shard, err)
		}
		partials[i] = c
	}
	merged, err := aggregate.Reduce(partials)
	if err != nil {
		return nil, err
	}
	buf, err := codec.Encode(store.codec, merged)
	if err != nil {
		return nil, err
	}

	deleted := make([]int64, 0, len(shards))
	for _, shard := range shards {
		if shard != target {
			deleted = append(deleted, shard)
		}
	}

	id := storage.AggregateID(name)
	store.mutex.Lock()
	defer store.mutex.Unlock()

	index, err := store.index(id)
	if err != nil {
		return nil, err
	}
	if err := store.backend.Merge(id, target, buf, deleted); err != nil {
		return nil, err
	}
	store.uncache(id, shards...)
	if !slices.Contains(shards, target) {
		store.uncache(id, target)
	}
	for _, shard := range deleted {
		index.Remove(shard)
	}
	index.Add(target)

	store.logger.Info("merged shards",
		zap.String("aggregate", name),
		zap.Int("shards", len(shards)),
		zap.Int64("target", target),
		zap.Float64("entries", merged.Entries()))
	return merged, nil
}

func (store *Store) Close() error {
	if store.cacheEnabled {
		store.cache.Close()
	}
	return multierr.Append(store.metadata.Close(), store.backend.Close())
}
