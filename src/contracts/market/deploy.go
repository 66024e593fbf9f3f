package market

import (
	"strings"
	"sync"

	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/host"

	"github.com/rs/xid"
)

// Deployer instantiates market contracts on the shared ledger and keeps a
// handle per address so the factory and the outer surface can reach them.
// Addresses are derived from xid, unique per deployment.
type Deployer struct {
	mtx sync.RWMutex

	config  *config.Config
	env     *host.Env
	oracle  Resolver
	markets map[types.Address]*Contract
}

func NewDeployer(cfg *config.Config, env *host.Env, oracle Resolver) *Deployer {
	return &Deployer{
		config:  cfg,
		env:     env,
		oracle:  oracle,
		markets: make(map[types.Address]*Contract),
	}
}

// Deploy creates and initializes a new market instance, returning its
// address. Initialization failure aborts with nothing registered.
func (self *Deployer) Deploy(params Params) (types.Address, error) {
	addr := types.Address("MARKET_" + strings.ToUpper(xid.New().String()))

	contract := NewContract(self.config, self.env.ForContract(addr), self.oracle)
	err := contract.Initialize(params)
	if err != nil {
		return "", err
	}

	self.mtx.Lock()
	self.markets[addr] = contract
	self.mtx.Unlock()
	return addr, nil
}

// Attach binds a handle to a market that already lives on the ledger, used
// after a restart. Nothing is initialized.
func (self *Deployer) Attach(addr types.Address) *Contract {
	contract := NewContract(self.config, self.env.ForContract(addr), self.oracle)

	self.mtx.Lock()
	self.markets[addr] = contract
	self.mtx.Unlock()
	return contract
}

func (self *Deployer) Get(addr types.Address) (*Contract, bool) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	contract, ok := self.markets[addr]
	return contract, ok
}

func (self *Deployer) Addresses() []types.Address {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	out := make([]types.Address, 0, len(self.markets))
	for addr := range self.markets {
		out = append(out, addr)
	}
	return out
}
