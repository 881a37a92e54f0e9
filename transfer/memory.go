package transfer

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type holding struct {
	asset   common.Address
	account common.Address
}

// MemoryVault is an in-process bank used by tests and the offline
// simulation path. It tracks user balances and the pool's own holdings
// and rejects any move that would overdraw either side.
type MemoryVault struct {
	mu       sync.Mutex
	balances map[holding]*big.Int
	pool     map[common.Address]*big.Int
}

// NewMemoryVault creates an empty in-memory vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{
		balances: make(map[holding]*big.Int),
		pool:     make(map[common.Address]*big.Int),
	}
}

// Mint credits an account with asset units out of thin air.
func (v *MemoryVault) Mint(asset, account common.Address, amount *big.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balance(asset, account).Add(v.balance(asset, account), amount)
}

// FundPool credits the pool itself, providing borrow liquidity.
func (v *MemoryVault) FundPool(asset common.Address, amount *big.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.poolBalance(asset).Add(v.poolBalance(asset), amount)
}

// BalanceOf returns the account's free balance in asset.
func (v *MemoryVault) BalanceOf(asset, account common.Address) *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(big.Int).Set(v.balance(asset, account))
}

// PoolBalance returns the pool's holdings in asset.
func (v *MemoryVault) PoolBalance(asset common.Address) *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(big.Int).Set(v.poolBalance(asset))
}

// Pull moves amount from the account into the pool.
func (v *MemoryVault) Pull(_ context.Context, asset, from common.Address, amount *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	bal := v.balance(asset, from)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: account %s holds %s of %s, needs %s",
			ErrTransferRejected, from.Hex(), bal, asset.Hex(), amount)
	}
	bal.Sub(bal, amount)
	v.poolBalance(asset).Add(v.poolBalance(asset), amount)
	return nil
}

// Push moves amount from the pool out to the account.
func (v *MemoryVault) Push(_ context.Context, asset, to common.Address, amount *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	pool := v.poolBalance(asset)
	if pool.Cmp(amount) < 0 {
		return fmt.Errorf("%w: pool holds %s of %s, needs %s",
			ErrTransferRejected, pool, asset.Hex(), amount)
	}
	pool.Sub(pool, amount)
	v.balance(asset, to).Add(v.balance(asset, to), amount)
	return nil
}

func (v *MemoryVault) balance(asset, account common.Address) *big.Int {
	k := holding{asset, account}
	b, ok := v.balances[k]
	if !ok {
		b = new(big.Int)
		v.balances[k] = b
	}
	return b
}

func (v *MemoryVault) poolBalance(asset common.Address) *big.Int {
	b, ok := v.pool[asset]
	if !ok {
		b = new(big.Int)
		v.pool[asset] = b
	}
	return b
}
