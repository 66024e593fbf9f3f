package host

import (
	"sync"

	"github.com/kalemarkets/settler/src/contracts/types"
)

// Authorizer decides whether the current call may act as the given address.
// Entry points call RequireAuth before touching caller-owned state.
type Authorizer interface {
	RequireAuth(addr types.Address) error
}

// AllowAll authorizes every address. Used in tests and in trusted embeddings
// where the transport already authenticated the caller.
type AllowAll struct{}

func (AllowAll) RequireAuth(types.Address) error {
	return nil
}

// StaticAuthorizer authorizes a fixed set of addresses. The gateway builds
// one per request from the verified token subject.
type StaticAuthorizer struct {
	mtx     sync.RWMutex
	allowed map[types.Address]struct{}
}

func NewStaticAuthorizer(addrs ...types.Address) *StaticAuthorizer {
	self := &StaticAuthorizer{allowed: make(map[types.Address]struct{}, len(addrs))}
	for _, addr := range addrs {
		self.allowed[addr] = struct{}{}
	}
	return self
}

func (self *StaticAuthorizer) Allow(addr types.Address) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.allowed[addr] = struct{}{}
}

func (self *StaticAuthorizer) RequireAuth(addr types.Address) error {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	if _, ok := self.allowed[addr]; !ok {
		return types.ErrNotAuthorized
	}
	return nil
}

// SessionAuthorizer authorizes the single principal of the call in flight.
// The owner must serialize calls and set the principal before each one.
type SessionAuthorizer struct {
	mtx       sync.RWMutex
	principal types.Address
}

func NewSessionAuthorizer() *SessionAuthorizer {
	return new(SessionAuthorizer)
}

func (self *SessionAuthorizer) SetPrincipal(addr types.Address) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.principal = addr
}

func (self *SessionAuthorizer) Clear() {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.principal = ""
}

func (self *SessionAuthorizer) RequireAuth(addr types.Address) error {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	if self.principal == "" || addr != self.principal {
		return types.ErrNotAuthorized
	}
	return nil
}
