package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/timoknapp/fitness-tournament-tracker/pkg/logger"
	"go.etcd.io/bbolt"
)

const (
	// BoltDB bucket holding one JSON document per persisted store
	StateBucket = "state"

	TournamentStorageKey = "tournament-storage"
	EventStorageKey      = "event-storage"
	EventTypesStorageKey = "event-types-storage"
	AuthStorageKey       = "auth-storage"
)

// Store is the key/value contract the client state is persisted through.
// Each key holds a whole serialized store.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	ForEach(fn func(key string, value []byte) error) error
	GetCacheStatistics() (map[string]int, error)
	Close() error
}

// LoadJSON decodes the document under key into out. found is false when the key is absent.
func LoadJSON(s Store, key string, out any) (bool, error) {
	data, found, err := s.Get(key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func SaveJSON(s Store, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(key, data)
}

// BoltStore implements Store interface using BoltDB for persistence
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore creates a new BoltDB-backed store
func NewBoltStore(dbPath string) (*BoltStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB at %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(StateBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	logger.Info("BoltDB cache store initialized at: %s", dbPath)
	return &BoltStore{db: db}, nil
}

// Get returns a copy of the value stored under key
func (s *BoltStore) Get(key string) ([]byte, bool, error) {
	var out []byte
	var found bool

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(StateBucket))
		if bucket == nil {
			return nil
		}
		data := bucket.Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		// bbolt memory is only valid inside the transaction
		out = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return out, found, nil
}

func (s *BoltStore) Set(key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(StateBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %s does not exist", StateBucket)
		}
		return bucket.Put([]byte(key), value)
	})
}

func (s *BoltStore) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(StateBucket))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
}

func (s *BoltStore) ForEach(fn func(key string, value []byte) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(StateBucket))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			return fn(string(k), append([]byte(nil), v...))
		})
	})
}

func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetCacheStatistics reports entry count and stored bytes
func (s *BoltStore) GetCacheStatistics() (map[string]int, error) {
	return statistics(s)
}

func statistics(s Store) (map[string]int, error) {
	stats := map[string]int{
		"total_entries": 0,
		"total_bytes":   0,
	}
	err := s.ForEach(func(key string, value []byte) error {
		stats["total_entries"]++
		stats["total_bytes"] += len(value)
		stats["bytes:"+key] = len(value)
		return nil
	})
	return stats, err
}

// MemoryStore keeps documents in process memory. Used when no cache path is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) ForEach(fn func(key string, value []byte) error) error {
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	for _, k := range keys {
		v, ok, _ := m.Get(k)
		if !ok {
			continue
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) GetCacheStatistics() (map[string]int, error) {
	return statistics(m)
}

func (m *MemoryStore) Close() error { return nil }

// Open returns a BoltStore at path, or a MemoryStore when path is empty.
func Open(path string) (Store, error) {
	if path == "" {
		logger.Warn("No cache path configured, state will not survive restarts")
		return NewMemoryStore(), nil
	}
	return NewBoltStore(path)
}
