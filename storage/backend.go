package storage

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/cespare/xxhash/v2"
)

var ErrNotFound = errors.New("storage: key not found")

const (
	partialKind  byte = 0
	metadataKind byte = 1
)

// AggregateID is the storage id of a named aggregate.
func AggregateID(name string) int64 {
	return int64(xxhash.Sum64String(name))
}

func GetKeyPrefix(kind byte, aggregateID int64) []byte {
	buf := make([]byte, 9)
	binary.LittleEndian.PutUint64(buf[:8], uint64(aggregateID))
	buf[8] = kind
	return buf
}

func GetKey(aggregateID, shard int64) []byte {
	buf := make([]byte, 17)

	// <8 bytes aggregate ID> <1 byte kind> <8 bytes shard>
	binary.LittleEndian.PutUint64(buf[:8], uint64(aggregateID))
	buf[8] = partialKind
	binary.LittleEndian.PutUint64(buf[9:], uint64(shard))

	return buf
}

func GetAggregateIDFromKey(buf []byte) int64 {
	return int64(binary.LittleEndian.Uint64(buf[:8]))
}

func GetShardFromKey(buf []byte) int64 {
	return int64(binary.LittleEndian.Uint64(buf[9:]))
}

// Backend stores the serialized partials of every aggregate, one per shard.
type Backend interface {
	Get(aggregateID, shard int64) ([]byte, error)
	Put(aggregateID, shard int64, buf []byte) error
	Delete(aggregateID, shard int64) error
	// Merge stores buf under shard and deletes the absorbed shards in one
	// step.
	Merge(aggregateID, shard int64, buf []byte, deleted []int64) error

	IterateIndex(aggregateID int64, lambda func(shard int64) error) error

	Close() error
}

type InMemoryBackend struct {
	partials map[string][]byte
	mutex    sync.Mutex
}

func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{
		partials: make(map[string][]byte),
	}
}

func (backend *InMemoryBackend) Get(aggregateID, shard int64) ([]byte, error) {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()
	buf, ok := backend.partials[string(GetKey(aggregateID, shard))]
	if !ok {
		return nil, ErrNotFound
	}
	return buf, nil
}

func (backend *InMemoryBackend) Put(aggregateID, shard int64, buf []byte) error {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()
	backend.partials[string(GetKey(aggregateID, shard))] = buf
	return nil
}

func (backend *InMemoryBackend) Delete(aggregateID, shard int64) error {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()
	delete(backend.partials, string(GetKey(aggregateID, shard)))
	return nil
}

func (backend *InMemoryBackend) Merge(
	aggregateID int64,
	shard int64,
	buf []byte,
	deleted []int64) error {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()

	for _, ID := range deleted {
		delete(backend.partials, string(GetKey(aggregateID, ID)))
	}
	backend.partials[string(GetKey(aggregateID, shard))] = buf
	return nil
}

func (backend *InMemoryBackend) IterateIndex(aggregateID int64, lambda func(int64) error) error {
	backend.mutex.Lock()
	shards := make([]int64, 0)
	for k := range backend.partials {
		buf := []byte(k)
		if GetAggregateIDFromKey(buf) != aggregateID {
			continue
		}
		shards = append(shards, GetShardFromKey(buf))
	}
	backend.mutex.Unlock()

	for _, shard := range shards {
		if err := lambda(shard); err != nil {
			return err
		}
	}
	return nil
}

func (backend *InMemoryBackend) Close() error {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()
	backend.partials = make(map[string][]byte)
	return nil
}
