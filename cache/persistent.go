package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"lyrics-downloader-go/utils"
)

const bucketName = "catalog"

// PersistentCache wraps BoltDB with an in-memory cache for fast access.
// It stores catalog lookups (tracks, albums, playlists) so repeated
// downloads of the same collection don't hammer the catalog API.
type PersistentCache struct {
	db                 *bolt.DB
	memCache           sync.Map
	dbPath             string
	compressionEnabled bool
}

// CacheEntry represents a cached value (can be compressed) with its expiry.
type CacheEntry struct {
	Value      string `json:"value"`
	Expiration int64  `json:"expiration"`
}

// Expired reports whether the entry's TTL has passed.
func (e CacheEntry) Expired() bool {
	return e.Expiration > 0 && time.Now().UnixNano() > e.Expiration
}

// NewPersistentCache creates a new persistent cache at dbPath.
func NewPersistentCache(dbPath string, compressionEnabled bool) (*PersistentCache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %v", err)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %v", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %v", err)
	}

	pc := &PersistentCache{
		db:                 db,
		dbPath:             dbPath,
		compressionEnabled: compressionEnabled,
	}

	if err := pc.loadToMemory(); err != nil {
		log.Warnf("[Cache] Failed to preload cache to memory: %v", err)
	}

	log.Infof("[Cache] Persistent catalog cache initialized at %s (compression: %v)", dbPath, compressionEnabled)
	return pc, nil
}

// loadToMemory loads all cache entries from disk to memory
func (pc *PersistentCache) loadToMemory() error {
	count := 0
	err := pc.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var entry CacheEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				log.Warnf("[Cache] Failed to unmarshal cache entry for key %s: %v", string(k), err)
				return nil // Continue to next entry
			}
			pc.memCache.Store(string(k), entry)
			count++
			return nil
		})
	})

	if err != nil {
		return err
	}

	log.Infof("[Cache] Loaded %d entries from disk to memory", count)
	return nil
}

// Get retrieves a value from cache (checks memory first, then disk).
// Expired entries are dropped on read.
func (pc *PersistentCache) Get(key string) (string, bool) {
	if v, ok := pc.memCache.Load(key); ok {
		entry := v.(CacheEntry)
		if entry.Expired() {
			pc.Delete(key)
			return "", false
		}
		return pc.decode(key, entry.Value)
	}

	var entry CacheEntry
	err := pc.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("key not found")
		}

		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return "", false
	}

	if entry.Expired() {
		pc.Delete(key)
		return "", false
	}

	pc.memCache.Store(key, entry)
	return pc.decode(key, entry.Value)
}

func (pc *PersistentCache) decode(key, value string) (string, bool) {
	if !pc.compressionEnabled {
		return value, true
	}
	decompressed, err := utils.DecompressString(value)
	if err != nil {
		log.Errorf("[Cache] Error decompressing cache value for key %s: %v", key, err)
		return "", false
	}
	return decompressed, true
}

// Set stores a value in cache (both memory and disk) with the given TTL.
// A zero TTL stores the entry without expiry.
func (pc *PersistentCache) Set(key, value string, ttl time.Duration) error {
	finalValue := value
	if pc.compressionEnabled {
		compressed, err := utils.CompressString(value)
		if err != nil {
			log.Errorf("[Cache] Error compressing cache value for key %s: %v", key, err)
			return err
		}
		finalValue = compressed
	}

	entry := CacheEntry{Value: finalValue}
	if ttl > 0 {
		entry.Expiration = time.Now().Add(ttl).UnixNano()
	}

	pc.memCache.Store(key, entry)

	return pc.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}

		return b.Put([]byte(key), data)
	})
}

// Delete removes a key from cache
func (pc *PersistentCache) Delete(key string) error {
	pc.memCache.Delete(key)

	return pc.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Delete([]byte(key))
	})
}

// Clear removes all entries from cache
func (pc *PersistentCache) Clear() error {
	pc.memCache.Range(func(key, value interface{}) bool {
		pc.memCache.Delete(key)
		return true
	})

	return pc.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
}

// Sweep deletes all expired entries and returns how many were removed.
func (pc *PersistentCache) Sweep() int {
	removed := 0
	pc.memCache.Range(func(k, v interface{}) bool {
		if v.(CacheEntry).Expired() {
			pc.Delete(k.(string))
			removed++
		}
		return true
	})
	return removed
}

// Range iterates over all cache entries
func (pc *PersistentCache) Range(fn func(key string, entry CacheEntry) bool) {
	pc.memCache.Range(func(k, v interface{}) bool {
		return fn(k.(string), v.(CacheEntry))
	})
}

// Stats returns cache statistics
func (pc *PersistentCache) Stats() (numKeys int, sizeInKB int) {
	pc.memCache.Range(func(k, v interface{}) bool {
		entry := v.(CacheEntry)
		numKeys++
		sizeInKB += len(k.(string)) + len(entry.Value)
		return true
	})
	sizeInKB = sizeInKB / 1024
	return
}

// Close closes the database connection
func (pc *PersistentCache) Close() error {
	if pc.db != nil {
		return pc.db.Close()
	}
	return nil
}
