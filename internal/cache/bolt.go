package cache

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bolt is a small key/value cache shared by the pipeline (first-seen record
// ids) and the source resolver (YouTube handle lookups). One file, one
// bucket per concern.
type Bolt struct {
	db *bolt.DB
}

// Open opens (or creates) the cache file.
func Open(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	return &Bolt{db: db}, nil
}

// Close closes the underlying database.
func (b *Bolt) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Get returns the value stored under key in bucket, if any.
func (b *Bolt) Get(bucket, key string) (string, bool, error) {
	var val []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(bucket))
		if bkt == nil {
			return nil
		}
		if v := bkt.Get([]byte(key)); v != nil {
			val = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	return string(val), val != nil, nil
}

// Put stores value under key in bucket, creating the bucket if needed.
func (b *Bolt) Put(bucket, key, value string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return bkt.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// MarkSeen records ids in bucket with a first-seen timestamp and reports how
// many of them were not present before. Existing timestamps are kept.
func (b *Bolt) MarkSeen(bucket string, ids []string, now time.Time) (int, error) {
	fresh := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		stamp := []byte(now.UTC().Format(time.RFC3339))
		for _, id := range ids {
			if bkt.Get([]byte(id)) != nil {
				continue
			}
			if err := bkt.Put([]byte(id), stamp); err != nil {
				return err
			}
			fresh++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cache mark seen: %w", err)
	}
	return fresh, nil
}
