package storage

import (
	"github.com/dgraph-io/badger/v2"
)

// BadgerMetadataStore shares its database with a BadgerBackend, which owns
// it and closes it.
type BadgerMetadataStore struct {
	db *badger.DB
}

func NewBadgerMetadataStore(db *badger.DB) *BadgerMetadataStore {
	return &BadgerMetadataStore{db: db}
}

func GetMetadataKey(id int64) []byte {
	return GetKeyPrefix(metadataKind, id)
}

func (bms *BadgerMetadataStore) PutAggregate(id int64, buf []byte) error {
	return txnPut(bms.db, GetMetadataKey(id), buf)
}

func (bms *BadgerMetadataStore) GetAggregate(id int64) ([]byte, error) {
	return txnGet(bms.db, GetMetadataKey(id))
}

func (bms *BadgerMetadataStore) DeleteAggregate(id int64) error {
	return bms.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(GetMetadataKey(id))
	})
}

func (bms *BadgerMetadataStore) IterateAggregates(lambda func(int64, []byte) error) error {
	return bms.db.View(func(txn *badger.Txn) error {
		iter := txn.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			key := item.Key()
			if len(key) != 9 || key[8] != metadataKind {
				continue
			}
			buf, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := lambda(GetAggregateIDFromKey(key), buf); err != nil {
				return err
			}
		}
		return nil
	})
}

func (bms *BadgerMetadataStore) Close() error {
	return nil
}
