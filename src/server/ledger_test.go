package server

import (
	"context"
	"testing"
	"time"

	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/utils/config"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type LedgerTestSuite struct {
	suite.Suite

	config *config.Config
	ledger *Ledger
	admin  types.Address
}

func (s *LedgerTestSuite) SetupTest() {
	s.config = config.Default()
	s.config.IsDevelopment = true
	s.config.Database.InMemory = true

	ledger, err := NewLedger(context.Background(), s.config)
	require.NoError(s.T(), err)

	s.ledger = ledger
	s.admin = types.Address(s.config.Ledger.AdminAddress)
}

func (s *LedgerTestSuite) drainEvents() {
	for {
		select {
		case <-s.ledger.Events:
		default:
			return
		}
	}
}

func (s *LedgerTestSuite) TestBootstrap() {
	require.False(s.T(), s.ledger.Initialized())

	err := s.ledger.Bootstrap()
	require.NoError(s.T(), err)
	require.True(s.T(), s.ledger.Initialized())

	// Development ledgers start with a funded admin
	balance, err := s.ledger.Enterprise.Env.Balance(s.admin)
	require.NoError(s.T(), err)
	require.Equal(s.T(), s.config.Ledger.DevMintAmount, balance)

	registry, err := s.ledger.Bus.GetContractRegistry()
	require.NoError(s.T(), err)
	require.True(s.T(), registry.Contains(types.Address(s.config.Ledger.StakingAddress)))
	require.True(s.T(), registry.Contains(types.Address(s.config.Ledger.FactoryAddress)))
}

func (s *LedgerTestSuite) TestBootstrapTwiceFails() {
	require.NoError(s.T(), s.ledger.Bootstrap())
	require.Error(s.T(), s.ledger.Bootstrap())
}

func (s *LedgerTestSuite) TestCommittedEventsReachTheStream() {
	require.NoError(s.T(), s.ledger.Bootstrap())
	s.drainEvents()

	s.ledger.Auth.SetPrincipal(s.admin)
	defer s.ledger.Auth.Clear()

	err := s.ledger.Staking.Stake(s.admin, s.config.Staking.MinStakeAmount)
	require.NoError(s.T(), err)

	select {
	case event := <-s.ledger.Events:
		require.Equal(s.T(), "TokensStaked", event.Type.String())
		require.Equal(s.T(), types.Address(s.config.Ledger.StakingAddress), event.Contract)
	default:
		s.T().Fatal("no event on the stream")
	}
}

func (s *LedgerTestSuite) TestRestoreMarkets() {
	require.NoError(s.T(), s.ledger.Bootstrap())

	s.ledger.Auth.SetPrincipal(s.admin)
	defer s.ledger.Auth.Clear()

	addr, err := s.ledger.Factory.CreateMarket(
		s.admin,
		"BTC above 100k by tomorrow",
		"BTC",
		100_000,
		uint32(types.ConditionAbove),
		uint64(time.Now().Unix())+86400,
		1,
		1_000_000,
		100,
	)
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.ledger.RestoreMarkets())

	deployed, ok := s.ledger.Markets.Get(addr)
	require.True(s.T(), ok)
	require.NotNil(s.T(), deployed)
}

func TestLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}
