package store

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var slotsBucket = []byte("slots")

// Bolt stores slots in a single bbolt bucket.
type Bolt struct {
	db *bolt.DB
}

var _ KV = (*Bolt)(nil)

// OpenBolt creates or opens a bbolt file at path.
// Fails after one second if another process holds the file lock.
func OpenBolt(path string) (*Bolt, error) {
	if path == "" {
		return nil, fmt.Errorf("failed to open bolt database: empty path")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(slotsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create slots bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

// Load returns a copy of the slot's blob.
func (b *Bolt) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var (
		data []byte
		ok   bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(slotsBucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		// bbolt memory is only valid inside the transaction
		data = append([]byte{}, v...)
		ok = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("load slot %q: %w", key, err)
	}
	return data, ok, nil
}

// Save overwrites the slot. bbolt fsyncs on commit.
func (b *Bolt) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(slotsBucket).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("save slot %q: %w", key, err)
	}
	return nil
}

// Close releases the file lock.
func (b *Bolt) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
