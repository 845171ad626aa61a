package store

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

var bucketCollections = []byte("collections")

// BoltDB keeps every collection document as one key of a single BoltDB file
type BoltDB struct {
	db   *bbolt.DB
	path string
}

// OpenBolt opens (or creates) the BoltDB file at path
func OpenBolt(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketCollections); err != nil {
			return fmt.Errorf("failed to create collections bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltDB{db: db, path: path}, nil
}

// Close closes the database file
func (b *BoltDB) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Backend returns the backend for one collection
func (b *BoltDB) Backend(collection string) Backend {
	return &boltDocument{db: b.db, key: []byte(collection), location: b.path + "#" + collection}
}

type boltDocument struct {
	db       *bbolt.DB
	key      []byte
	location string
}

func (d *boltDocument) Read(ctx context.Context) ([]byte, error) {
	var data []byte
	err := d.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCollections)
		if bucket == nil {
			return fmt.Errorf("collections bucket not found")
		}
		value := bucket.Get(d.key)
		if value == nil {
			return ErrDocumentNotFound
		}
		// value is only valid inside the transaction
		data = append([]byte(nil), value...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (d *boltDocument) Write(ctx context.Context, data []byte) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCollections)
		if bucket == nil {
			return fmt.Errorf("collections bucket not found")
		}
		if err := bucket.Put(d.key, data); err != nil {
			return fmt.Errorf("failed to put document: %w", err)
		}
		return nil
	})
}

func (d *boltDocument) Location() string {
	return d.location
}
