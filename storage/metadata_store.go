package storage

import (
	"sync"
)

// MetadataStore keeps one descriptor per aggregate id.
type MetadataStore interface {
	PutAggregate(id int64, buf []byte) error
	GetAggregate(id int64) ([]byte, error)
	DeleteAggregate(id int64) error
	IterateAggregates(lambda func(id int64, buf []byte) error) error

	Close() error
}

type SimpleMetadataStore struct {
	aggregates map[int64][]byte
	mutex      sync.Mutex
}

func NewSimpleMetadataStore() *SimpleMetadataStore {
	return &SimpleMetadataStore{
		aggregates: make(map[int64][]byte),
	}
}

func (smm *SimpleMetadataStore) PutAggregate(id int64, buf []byte) error {
	smm.mutex.Lock()
	defer smm.mutex.Unlock()
	smm.aggregates[id] = buf
	return nil
}

func (smm *SimpleMetadataStore) GetAggregate(id int64) ([]byte, error) {
	smm.mutex.Lock()
	defer smm.mutex.Unlock()
	buf, ok := smm.aggregates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return buf, nil
}

func (smm *SimpleMetadataStore) DeleteAggregate(id int64) error {
	smm.mutex.Lock()
	defer smm.mutex.Unlock()
	delete(smm.aggregates, id)
	return nil
}

func (smm *SimpleMetadataStore) IterateAggregates(lambda func(int64, []byte) error) error {
	smm.mutex.Lock()
	ids := make([]int64, 0, len(smm.aggregates))
	bufs := make([][]byte, 0, len(smm.aggregates))
	for id, buf := range smm.aggregates {
		ids = append(ids, id)
		bufs = append(bufs, buf)
	}
	smm.mutex.Unlock()

	for i, id := range ids {
		if err := lambda(id, bufs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (smm *SimpleMetadataStore) Close() error {
	return nil
}
