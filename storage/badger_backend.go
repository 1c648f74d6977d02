package storage

import (
	"errors"

	"github.com/dgraph-io/badger/v2"
)

// OpenBadger opens a badger database at path, or an in-memory one when path
// is empty.
func OpenBadger(path string) (*badger.DB, error) {
	option := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		option = option.WithInMemory(true)
	}
	return badger.Open(option)
}

type BadgerBackend struct {
	db *badger.DB
}

func NewBadgerBackend(db *badger.DB) *BadgerBackend {
	return &BadgerBackend{db: db}
}

func (backend *BadgerBackend) Close() error {
	return backend.db.Close()
}

func txnGet(db *badger.DB, key []byte) ([]byte, error) {
	var buf []byte
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		buf, err = item.ValueCopy(nil)
		return err
	})
	return buf, err
}

func txnPut(db *badger.DB, key, buf []byte) error {
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, buf)
	})
}

func (backend *BadgerBackend) Get(aggregateID, shard int64) ([]byte, error) {
	return txnGet(backend.db, GetKey(aggregateID, shard))
}

func (backend *BadgerBackend) Put(aggregateID, shard int64, buf []byte) error {
	return txnPut(backend.db, GetKey(aggregateID, shard), buf)
}

func (backend *BadgerBackend) Delete(aggregateID, shard int64) error {
	return backend.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(GetKey(aggregateID, shard))
	})
}

func mergeTxnFunc(txn *badger.Txn,
	wKey []byte, wBuf []byte, delKeys [][]byte) error {
	for _, delKey := range delKeys {
		err := txn.Delete(delKey)
		if err != nil {
			return err
		}
	}
	return txn.Set(wKey, wBuf)
}

func (backend *BadgerBackend) Merge(
	aggregateID int64,
	shard int64,
	buf []byte,
	deleted []int64) error {

	key := GetKey(aggregateID, shard)
	delKeys := make([][]byte, len(deleted))

	for i, ID := range deleted {
		delKeys[i] = GetKey(aggregateID, ID)
	}

	return backend.db.Update(func(txn *badger.Txn) error {
		return mergeTxnFunc(txn, key, buf, delKeys)
	})
}

func (backend *BadgerBackend) IterateIndex(aggregateID int64, lambda func(int64) error) error {
	prefix := GetKeyPrefix(partialKind, aggregateID)
	iterOpts := badger.IteratorOptions{Prefix: prefix}
	return backend.db.View(func(txn *badger.Txn) error {
		iter := txn.NewIterator(iterOpts)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			if err := lambda(GetShardFromKey(iter.Item().Key())); err != nil {
				return err
			}
		}
		return nil
	})
}
