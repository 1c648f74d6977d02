package storage

import "histodb/tree"

// ShardIndex is the ordered in-memory set of shard ids held by one
// aggregate.
type ShardIndex struct {
	shards *tree.RbTree[int64, struct{}]
}

func NewShardIndex() *ShardIndex {
	return &ShardIndex{shards: tree.NewRbTree[int64, struct{}]()}
}

// LoadShardIndex builds the index of aggregateID from what backend holds.
func LoadShardIndex(backend Backend, aggregateID int64) (*ShardIndex, error) {
	index := NewShardIndex()
	err := backend.IterateIndex(aggregateID, func(shard int64) error {
		index.Add(shard)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return index, nil
}

func (index *ShardIndex) Add(shard int64) {
	index.shards.Insert(shard, struct{}{})
}

func (index *ShardIndex) Remove(shard int64) {
	index.shards.Delete(shard)
}

func (index *ShardIndex) Contains(shard int64) bool {
	return index.shards.Exists(shard)
}

func (index *ShardIndex) Count() int {
	return index.shards.Count()
}

// Shards returns the ids in ascending order.
func (index *ShardIndex) Shards() []int64 {
	return index.shards.Keys()
}

// Next is one past the largest shard id, or 0 for an empty index.
func (index *ShardIndex) Next() int64 {
	last, _, ok := index.shards.Max()
	if !ok {
		return 0
	}
	return last + 1
}

// Between returns the shard ids in [lo, hi], ascending.
func (index *ShardIndex) Between(lo, hi int64) []int64 {
	shards := make([]int64, 0)
	index.shards.Map(func(shard int64, _ struct{}) bool {
		if shard > hi {
			return true
		}
		if shard >= lo {
			shards = append(shards, shard)
		}
		return false
	})
	return shards
}
