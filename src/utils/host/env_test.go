package host

import (
	"errors"
	"testing"

	"github.com/kalemarkets/settler/src/contracts/types"

	"github.com/stretchr/testify/suite"
)

func TestEnvSuite(t *testing.T) {
	suite.Run(t, new(EnvTestSuite))
}

type EnvTestSuite struct {
	suite.Suite

	store *MemoryStore
	clock *ManualClock
	sink  *CollectorSink
	env   *Env
}

func (self *EnvTestSuite) SetupTest() {
	self.store = NewMemoryStore()
	self.clock = NewManualClock(1_700_000_000)
	self.sink = new(CollectorSink)
	self.env = NewEnv(self.store, self.clock, AllowAll{}, self.sink).
		ForContract("CONTRACT_A")
}

func (self *EnvTestSuite) TestStorageTiersAreSeparate() {
	err := self.env.SetInstance("admin", types.Address("ADMIN"))
	self.NoError(err)

	var out types.Address
	ok, err := self.env.GetPersistent("admin", &out)
	self.NoError(err)
	self.False(ok)

	ok, err = self.env.GetInstance("admin", &out)
	self.NoError(err)
	self.True(ok)
	self.Equal(types.Address("ADMIN"), out)
}

func (self *EnvTestSuite) TestContractsAreIsolated() {
	err := self.env.SetPersistent("feed/BTC", int64(45000))
	self.NoError(err)

	other := self.env.ForContract("CONTRACT_B")
	var price int64
	ok, err := other.GetPersistent("feed/BTC", &price)
	self.NoError(err)
	self.False(ok)
}

func (self *EnvTestSuite) TestTransactRollsBackWritesAndEvents() {
	err := self.env.SetPersistent("counter", 1)
	self.NoError(err)

	boom := errors.New("boom")
	err = self.env.Transact(func(env *Env) error {
		self.NoError(env.SetPersistent("counter", 2))
		env.Emit(types.FeeCollectedPayload{Collector: "ADMIN", Amount: 10})

		var n int
		ok, err := env.GetPersistent("counter", &n)
		self.NoError(err)
		self.True(ok)
		self.Equal(2, n)

		return boom
	})
	self.ErrorIs(err, boom)

	var n int
	ok, err := self.env.GetPersistent("counter", &n)
	self.NoError(err)
	self.True(ok)
	self.Equal(1, n)
	self.Empty(self.sink.Events())
}

func (self *EnvTestSuite) TestTransactCommitsWritesAndEvents() {
	err := self.env.Transact(func(env *Env) error {
		self.NoError(env.SetPersistent("counter", 7))
		env.Emit(types.FeeCollectedPayload{Collector: "ADMIN", Amount: 10})
		return nil
	})
	self.NoError(err)

	var n int
	ok, err := self.env.GetPersistent("counter", &n)
	self.NoError(err)
	self.True(ok)
	self.Equal(7, n)

	events := self.sink.Events()
	self.Len(events, 1)
	self.Equal(types.EventFeeCollected, events[0].Type)
	self.Equal(types.Address("CONTRACT_A"), events[0].Contract)
	self.Equal(self.clock.Now(), events[0].Timestamp)
}

func (self *EnvTestSuite) TestTokenTransferRollsBackWithTransaction() {
	token := NewTokenLedger(self.store)
	self.NoError(token.Mint("ALICE", 100))

	err := self.env.Transact(func(env *Env) error {
		self.NoError(env.Transfer("ALICE", "CONTRACT_A", 40))
		return errors.New("abort")
	})
	self.Error(err)

	balance, err := token.Balance("ALICE")
	self.NoError(err)
	self.EqualValues(100, balance)
}

func (self *EnvTestSuite) TestTransferInsufficientBalance() {
	token := NewTokenLedger(self.store)
	self.NoError(token.Mint("ALICE", 10))

	err := self.env.Transfer("ALICE", "BOB", 11)
	self.ErrorIs(err, types.ErrInsufficientBalance)

	balance, err := token.Balance("BOB")
	self.NoError(err)
	self.Zero(balance)
}

func (self *EnvTestSuite) TestPersistentKeysListing() {
	self.NoError(self.env.SetPersistent("stake/ALICE", 1))
	self.NoError(self.env.SetPersistent("stake/BOB", 2))
	self.NoError(self.env.SetPersistent("market/1", 3))

	keys, err := self.env.PersistentKeys("stake/")
	self.NoError(err)
	self.Equal([]string{"stake/ALICE", "stake/BOB"}, keys)
}

func (self *EnvTestSuite) TestNestedTransact() {
	err := self.env.Transact(func(outer *Env) error {
		self.NoError(outer.SetPersistent("a", 1))

		err := outer.Transact(func(inner *Env) error {
			self.NoError(inner.SetPersistent("b", 2))
			return errors.New("inner abort")
		})
		self.Error(err)

		return nil
	})
	self.NoError(err)

	var n int
	ok, err := self.env.GetPersistent("a", &n)
	self.NoError(err)
	self.True(ok)

	ok, err = self.env.GetPersistent("b", &n)
	self.NoError(err)
	self.False(ok)
}

func (self *EnvTestSuite) TestStaticAuthorizer() {
	auth := NewStaticAuthorizer("ALICE")
	self.NoError(auth.RequireAuth("ALICE"))
	self.ErrorIs(auth.RequireAuth("BOB"), types.ErrNotAuthorized)

	auth.Allow("BOB")
	self.NoError(auth.RequireAuth("BOB"))
}

func (self *EnvTestSuite) TestManualClock() {
	self.clock.Advance(3600)
	self.EqualValues(1_700_003_600, self.env.Now())
}

func (self *EnvTestSuite) TestExtendTTLHonorsThreshold() {
	err := self.env.SetPersistent("feed/BTC", int64(45000))
	self.NoError(err)

	key := "c/CONTRACT_A/p/feed/BTC"

	// Never extended, first call always lands
	self.NoError(self.env.ExtendPersistentTTL("feed/BTC", 100, 1000))
	self.EqualValues(self.env.Now()+1000, self.store.LiveUntil(key))

	// Remaining lifetime (1000) is above the threshold, no extension
	self.NoError(self.env.ExtendPersistentTTL("feed/BTC", 100, 5000))
	self.EqualValues(self.env.Now()+1000, self.store.LiveUntil(key))

	// Below the threshold again after time passes
	self.clock.Advance(950)
	self.NoError(self.env.ExtendPersistentTTL("feed/BTC", 100, 5000))
	self.EqualValues(self.env.Now()+5000, self.store.LiveUntil(key))
}

func (self *EnvTestSuite) TestExtendTTLInsideTransaction() {
	key := "c/CONTRACT_A/i"

	err := self.env.Transact(func(env *Env) error {
		return env.ExtendInstanceTTL(100, 1000)
	})
	self.NoError(err)
	self.EqualValues(self.env.Now()+1000, self.store.LiveUntil(key))

	// A failed transaction discards the journaled extension
	self.clock.Advance(2000)
	err = self.env.Transact(func(env *Env) error {
		self.NoError(env.ExtendInstanceTTL(100, 9000))
		return types.ErrInvalidAmount
	})
	self.ErrorIs(err, types.ErrInvalidAmount)
	self.EqualValues(1_700_001_000, self.store.LiveUntil(key))
}
