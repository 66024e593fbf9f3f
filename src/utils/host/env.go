package host

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/kalemarkets/settler/src/contracts/types"
)

// EventSink receives events emitted by committed transactions.
type EventSink interface {
	Publish(event types.ContractEvent)
}

type NullSink struct{}

func (NullSink) Publish(types.ContractEvent) {}

// FuncSink adapts a function to an EventSink.
type FuncSink func(event types.ContractEvent)

func (self FuncSink) Publish(event types.ContractEvent) {
	self(event)
}

// CollectorSink records events in order, used by tests.
type CollectorSink struct {
	mtx    sync.Mutex
	events []types.ContractEvent
}

func (self *CollectorSink) Publish(event types.ContractEvent) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.events = append(self.events, event)
}

func (self *CollectorSink) Events() []types.ContractEvent {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	out := make([]types.ContractEvent, len(self.events))
	copy(out, self.events)
	return out
}

func (self *CollectorSink) Reset() {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.events = nil
}

// bufferSink holds events back until the surrounding transaction commits.
type bufferSink struct {
	events []types.ContractEvent
}

func (self *bufferSink) Publish(event types.ContractEvent) {
	self.events = append(self.events, event)
}

// Env is the execution environment handed to a contract: its scoped storage,
// the ledger clock, authorization, the token ledger and the event stream.
type Env struct {
	contract types.Address
	store    Store
	clock    Clock
	auth     Authorizer
	events   EventSink
}

func NewEnv(store Store, clock Clock, auth Authorizer, events EventSink) *Env {
	if events == nil {
		events = NullSink{}
	}
	return &Env{
		store:  store,
		clock:  clock,
		auth:   auth,
		events: events,
	}
}

// ForContract binds the environment to a contract address. Storage accessors
// below operate in that contract's keyspace.
func (self *Env) ForContract(addr types.Address) *Env {
	clone := *self
	clone.contract = addr
	return &clone
}

func (self *Env) ContractAddress() types.Address {
	return self.contract
}

func (self *Env) Now() uint64 {
	return self.clock.Now()
}

func (self *Env) RequireAuth(addr types.Address) error {
	return self.auth.RequireAuth(addr)
}

// Transact runs fn against a write journal. When fn returns an error the
// journal and any emitted events are discarded, otherwise both are committed.
func (self *Env) Transact(fn func(env *Env) error) error {
	buffer := new(bufferSink)
	err := self.store.Transact(func(store Store) error {
		scoped := *self
		scoped.store = store
		scoped.events = buffer
		return fn(&scoped)
	})
	if err != nil {
		return err
	}
	for _, event := range buffer.events {
		self.events.Publish(event)
	}
	return nil
}

// Emit publishes an event stamped with the bound contract and ledger time.
func (self *Env) Emit(payload types.EventPayload) {
	self.events.Publish(types.NewEvent(self.contract, self.Now(), payload))
}

func (self *Env) Transfer(from, to types.Address, amount int64) error {
	return transfer(self.store, from, to, amount)
}

func (self *Env) Balance(addr types.Address) (int64, error) {
	return readBalance(self.store, addr)
}

const (
	instanceSegment   = "/i/"
	persistentSegment = "/p/"
)

func (self *Env) instanceKey(key string) string {
	return "c/" + string(self.contract) + instanceSegment + key
}

func (self *Env) persistentKey(key string) string {
	return "c/" + string(self.contract) + persistentSegment + key
}

func (self *Env) get(fullKey string, out any) (bool, error) {
	value, ok, err := self.store.Get(fullKey)
	if err != nil || !ok {
		return false, err
	}
	return true, json.Unmarshal(value, out)
}

func (self *Env) set(fullKey string, value any) error {
	buf, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return self.store.Set(fullKey, buf)
}

func (self *Env) GetInstance(key string, out any) (bool, error) {
	return self.get(self.instanceKey(key), out)
}

func (self *Env) SetInstance(key string, value any) error {
	return self.set(self.instanceKey(key), value)
}

func (self *Env) HasInstance(key string) (bool, error) {
	_, ok, err := self.store.Get(self.instanceKey(key))
	return ok, err
}

func (self *Env) RemoveInstance(key string) error {
	return self.store.Remove(self.instanceKey(key))
}

func (self *Env) GetPersistent(key string, out any) (bool, error) {
	return self.get(self.persistentKey(key), out)
}

func (self *Env) SetPersistent(key string, value any) error {
	return self.set(self.persistentKey(key), value)
}

func (self *Env) HasPersistent(key string) (bool, error) {
	_, ok, err := self.store.Get(self.persistentKey(key))
	return ok, err
}

func (self *Env) RemovePersistent(key string) error {
	return self.store.Remove(self.persistentKey(key))
}

// PersistentKeys lists the contract's persistent keys under the prefix,
// trimmed back to the contract-local form.
func (self *Env) PersistentKeys(prefix string) ([]string, error) {
	full := self.persistentKey(prefix)
	keys, err := self.store.Keys(full)
	if err != nil {
		return nil, err
	}
	base := self.persistentKey("")
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, strings.TrimPrefix(key, base))
	}
	return out, nil
}

// ExtendInstanceTTL extends the whole instance bucket when its remaining
// lifetime drops below the threshold.
func (self *Env) ExtendInstanceTTL(threshold, extendTo uint64) error {
	return self.store.ExtendTTL("c/"+string(self.contract)+"/i", self.Now()+threshold, self.Now()+extendTo)
}

func (self *Env) ExtendPersistentTTL(key string, threshold, extendTo uint64) error {
	return self.store.ExtendTTL(self.persistentKey(key), self.Now()+threshold, self.Now()+extendTo)
}
