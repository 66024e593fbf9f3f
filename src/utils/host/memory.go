package host

import (
	"sort"
	"strings"
	"sync"
)

// MemoryStore is the in-process Store used by tests and by deployments that
// run without a database.
type MemoryStore struct {
	mtx     sync.RWMutex
	entries map[string][]byte
	ttls    map[string]uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]byte),
		ttls:    make(map[string]uint64),
	}
}

func (self *MemoryStore) Get(key string) ([]byte, bool, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	value, ok := self.entries[key]
	if !ok {
		return nil, false, nil
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	return buf, true, nil
}

func (self *MemoryStore) Set(key string, value []byte) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	buf := make([]byte, len(value))
	copy(buf, value)
	self.entries[key] = buf
	return nil
}

func (self *MemoryStore) Remove(key string) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	delete(self.entries, key)
	delete(self.ttls, key)
	return nil
}

func (self *MemoryStore) Keys(prefix string) ([]string, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	out := make([]string, 0)
	for key := range self.entries {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (self *MemoryStore) ExtendTTL(key string, threshold, liveUntil uint64) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	current := self.ttls[key]
	if current >= threshold {
		// Still far enough from archival
		return nil
	}
	if liveUntil > current {
		self.ttls[key] = liveUntil
	}
	return nil
}

// LiveUntil returns the entry's archival deadline, zero when never extended.
func (self *MemoryStore) LiveUntil(key string) uint64 {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return self.ttls[key]
}

// SweepExpired drops entries whose extended lifetime passed. Entries that
// were never extended are kept.
func (self *MemoryStore) SweepExpired(now uint64) (removed int) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	for key, liveUntil := range self.ttls {
		if liveUntil < now {
			delete(self.entries, key)
			delete(self.ttls, key)
			removed++
		}
	}
	return
}

func (self *MemoryStore) Transact(fn func(Store) error) error {
	overlay := newOverlay(self)
	err := fn(overlay)
	if err != nil {
		return err
	}
	return overlay.commit()
}
