package host

import (
	"encoding/json"
	"strconv"

	"github.com/kalemarkets/settler/src/contracts/types"
)

const balanceKeyPrefix = "token/balance/"

// TokenLedger keeps settlement-token balances in the same Store as contract
// state, so a transfer made inside a transaction rolls back with it.
type TokenLedger struct {
	store Store
}

func NewTokenLedger(store Store) *TokenLedger {
	return &TokenLedger{store: store}
}

func balanceKey(addr types.Address) string {
	return balanceKeyPrefix + string(addr)
}

func readBalance(store Store, addr types.Address) (int64, error) {
	value, ok, err := store.Get(balanceKey(addr))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return strconv.ParseInt(string(value), 10, 64)
}

func writeBalance(store Store, addr types.Address, balance int64) error {
	return store.Set(balanceKey(addr), []byte(strconv.FormatInt(balance, 10)))
}

func (self *TokenLedger) Balance(addr types.Address) (int64, error) {
	return readBalance(self.store, addr)
}

// Mint credits an address out of thin air. Test and bootstrap helper.
func (self *TokenLedger) Mint(addr types.Address, amount int64) error {
	balance, err := readBalance(self.store, addr)
	if err != nil {
		return err
	}
	return writeBalance(self.store, addr, balance+amount)
}

// transfer moves amount between addresses within the given store view.
// Fails without partial effect when the sender cannot cover the amount.
func transfer(store Store, from, to types.Address, amount int64) error {
	if amount < 0 {
		return types.ErrInvalidAmount
	}
	if amount == 0 || from == to {
		return nil
	}

	fromBalance, err := readBalance(store, from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return types.ErrInsufficientBalance
	}

	toBalance, err := readBalance(store, to)
	if err != nil {
		return err
	}

	err = writeBalance(store, from, fromBalance-amount)
	if err != nil {
		return err
	}
	return writeBalance(store, to, toBalance+amount)
}

// Balances dumps every account, used by the gateway debug endpoint.
func (self *TokenLedger) Balances() (map[types.Address]int64, error) {
	keys, err := self.store.Keys(balanceKeyPrefix)
	if err != nil {
		return nil, err
	}

	out := make(map[types.Address]int64, len(keys))
	for _, key := range keys {
		addr := types.Address(key[len(balanceKeyPrefix):])
		balance, err := readBalance(self.store, addr)
		if err != nil {
			return nil, err
		}
		out[addr] = balance
	}
	return out, nil
}

// MarshalJSON is implemented so the ledger can be snapshotted in diagnostics.
func (self *TokenLedger) MarshalJSON() ([]byte, error) {
	balances, err := self.Balances()
	if err != nil {
		return nil, err
	}
	return json.Marshal(balances)
}
