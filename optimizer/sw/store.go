package sw

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// DurableStore is the key->response mapping backing cache generations. Each
// generation tag addresses an isolated namespace; writes are atomic per
// install (PutAll commits in one transaction). At most one generation is
// marked active at a time.
type DurableStore interface {
	// PutAll stores every entry under the given generation in a single
	// atomic commit, creating the generation if absent. Re-putting existing
	// keys overwrites them in place.
	PutAll(tag string, entries map[string]*StoredResponse) error

	// Get returns the stored response for key in the given generation, or
	// (nil, false, nil) on a clean miss.
	Get(tag, key string) (*StoredResponse, bool, error)

	// Keys lists all request keys stored under a generation, sorted by the
	// store's natural order.
	Keys(tag string) ([]string, error)

	// Generations lists every generation tag present in the store.
	Generations() ([]string, error)

	// DeleteGeneration removes a generation and all its entries. Deleting a
	// missing generation is a no-op.
	DeleteGeneration(tag string) error

	// ActiveGeneration returns the currently active tag, or "" if none.
	ActiveGeneration() (string, error)

	// SetActive marks tag as the single active generation.
	SetActive(tag string) error

	Close() error
}

// Bucket layout: one "gen:<tag>" bucket per generation holding request-key ->
// encoded response, plus a meta bucket for the active tag marker.
const (
	bucketMeta = "meta"

	keyActive = "active"

	genBucketPrefix = "gen:"
)

// BoltStore is the bbolt-backed DurableStore used in production. It survives
// process restarts and is shared per-origin state: two BoltStores opened on
// the same path see the same generations.
type BoltStore struct {
	db    *bolt.DB
	codec *codec
}

// StoreOption tunes how the durable store is opened.
type StoreOption func(*bolt.Options)

// WithStoreTimeout bounds how long opening waits on the database file lock.
func WithStoreTimeout(d time.Duration) StoreOption {
	return func(o *bolt.Options) {
		if d > 0 {
			o.Timeout = d
		}
	}
}

// OpenBoltStore opens or creates the durable store at basePath.
func OpenBoltStore(basePath string, options ...StoreOption) (*BoltStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	opts := &bolt.Options{
		Timeout:      10 * time.Second,
		FreelistType: bolt.FreelistArrayType,
	}
	for _, option := range options {
		option(opts)
	}

	dbPath := filepath.Join(basePath, "cache.db")
	db, err := bolt.Open(dbPath, 0644, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}

	c, err := newCodec()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &BoltStore{db: db, codec: c}
	if err := s.initSchema(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *BoltStore) initSchema() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketMeta))
		return err
	})
}

func (s *BoltStore) Close() error {
	if s.codec != nil {
		_ = s.codec.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func genBucket(tag string) []byte {
	return []byte(genBucketPrefix + tag)
}

func (s *BoltStore) PutAll(tag string, entries map[string]*StoredResponse) error {
	encoded := make(map[string][]byte, len(entries))
	for key, resp := range entries {
		value, err := s.codec.encode(resp)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		encoded[key] = value
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(genBucket(tag))
		if err != nil {
			return fmt.Errorf("failed to create generation %s: %w", tag, err)
		}
		for key, value := range encoded {
			if err := b.Put([]byte(key), value); err != nil {
				return fmt.Errorf("failed to store %s: %w", key, err)
			}
		}
		return nil
	})
}

func (s *BoltStore) Get(tag, key string) (*StoredResponse, bool, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(genBucket(tag))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if value == nil {
		return nil, false, nil
	}
	resp, err := s.codec.decode(value)
	if err != nil {
		return nil, false, err
	}
	return resp, true, nil
}

func (s *BoltStore) Keys(tag string) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(genBucket(tag))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func (s *BoltStore) Generations() ([]string, error) {
	var tags []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			n := string(name)
			if len(n) > len(genBucketPrefix) && n[:len(genBucketPrefix)] == genBucketPrefix {
				tags = append(tags, n[len(genBucketPrefix):])
			}
			return nil
		})
	})
	return tags, err
}

func (s *BoltStore) DeleteGeneration(tag string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(genBucket(tag)) == nil {
			return nil
		}
		if err := tx.DeleteBucket(genBucket(tag)); err != nil {
			return fmt.Errorf("failed to delete generation %s: %w", tag, err)
		}
		meta := tx.Bucket([]byte(bucketMeta))
		if string(meta.Get([]byte(keyActive))) == tag {
			return meta.Delete([]byte(keyActive))
		}
		return nil
	})
}

func (s *BoltStore) ActiveGeneration() (string, error) {
	var tag string
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(bucketMeta))
		tag = string(meta.Get([]byte(keyActive)))
		return nil
	})
	return tag, err
}

func (s *BoltStore) SetActive(tag string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(bucketMeta))
		return meta.Put([]byte(keyActive), []byte(tag))
	})
}
