package host

import (
	"sort"
	"strings"
)

// Store is a flat keyspace of ledger entries shared by all contracts.
// Implementations must make Transact atomic: either every write made inside
// the callback lands, or none of them do.
type Store interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Remove(key string) error
	Keys(prefix string) ([]string, error)

	// ExtendTTL bumps the entry's live-until ledger time when it sits below
	// threshold, never shortens it. Both arguments are absolute ledger times.
	ExtendTTL(key string, threshold, liveUntil uint64) error

	Transact(fn func(Store) error) error
}

// overlayStore journals writes on top of a base store. Nothing touches the
// base until commit.
type overlayStore struct {
	base    Store
	writes  map[string][]byte
	removes map[string]struct{}
	ttls    map[string]ttlExtension
}

// ttlExtension journals one ExtendTTL until commit, when the base store
// decides whether the entry is close enough to archival to extend.
type ttlExtension struct {
	threshold uint64
	liveUntil uint64
}

func newOverlay(base Store) *overlayStore {
	return &overlayStore{
		base:    base,
		writes:  make(map[string][]byte),
		removes: make(map[string]struct{}),
		ttls:    make(map[string]ttlExtension),
	}
}

func (self *overlayStore) Get(key string) ([]byte, bool, error) {
	if _, ok := self.removes[key]; ok {
		return nil, false, nil
	}
	if value, ok := self.writes[key]; ok {
		return value, true, nil
	}
	return self.base.Get(key)
}

func (self *overlayStore) Set(key string, value []byte) error {
	delete(self.removes, key)
	buf := make([]byte, len(value))
	copy(buf, value)
	self.writes[key] = buf
	return nil
}

func (self *overlayStore) Remove(key string) error {
	delete(self.writes, key)
	self.removes[key] = struct{}{}
	return nil
}

func (self *overlayStore) Keys(prefix string) ([]string, error) {
	keys, err := self.base.Keys(prefix)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, removed := self.removes[key]; removed {
			continue
		}
		merged[key] = struct{}{}
	}
	for key := range self.writes {
		if strings.HasPrefix(key, prefix) {
			merged[key] = struct{}{}
		}
	}

	out := make([]string, 0, len(merged))
	for key := range merged {
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

func (self *overlayStore) ExtendTTL(key string, threshold, liveUntil uint64) error {
	ext := self.ttls[key]
	if threshold > ext.threshold {
		ext.threshold = threshold
	}
	if liveUntil > ext.liveUntil {
		ext.liveUntil = liveUntil
	}
	self.ttls[key] = ext
	return nil
}

func (self *overlayStore) Transact(fn func(Store) error) error {
	inner := newOverlay(self)
	err := fn(inner)
	if err != nil {
		return err
	}
	return inner.commit()
}

func (self *overlayStore) commit() (err error) {
	for key := range self.removes {
		err = self.base.Remove(key)
		if err != nil {
			return
		}
	}
	for key, value := range self.writes {
		err = self.base.Set(key, value)
		if err != nil {
			return
		}
	}
	for key, ext := range self.ttls {
		err = self.base.ExtendTTL(key, ext.threshold, ext.liveUntil)
		if err != nil {
			return
		}
	}
	return nil
}
