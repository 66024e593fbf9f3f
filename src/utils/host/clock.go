package host

import (
	"sync"
	"time"
)

// Clock supplies the ledger timestamp, unix seconds.
type Clock interface {
	Now() uint64
}

type SystemClock struct{}

func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

// ManualClock is a settable clock for tests and replay.
type ManualClock struct {
	mtx sync.Mutex
	now uint64
}

func NewManualClock(now uint64) *ManualClock {
	return &ManualClock{now: now}
}

func (self *ManualClock) Now() uint64 {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.now
}

func (self *ManualClock) Set(now uint64) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.now = now
}

func (self *ManualClock) Advance(seconds uint64) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.now += seconds
}
