package ledger

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInsufficientBalance is returned when a decrease would push a
// recorded balance below zero.
var ErrInsufficientBalance = errors.New("insufficient balance")

type key struct {
	account common.Address
	asset   common.Address
}

type position struct {
	deposited *big.Int
	borrowed  *big.Int
}

// Ledger is the book of record: per (account, asset) collateral and
// debt balances. Positions exist implicitly for every pair and default
// to zero; the map stays sparse because the account x asset space is
// unbounded. The four increase/decrease methods are the only mutation
// points in the engine, which keeps the no-negative-balance invariant
// enforceable in one place.
type Ledger struct {
	mu        sync.RWMutex
	positions map[key]*position
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{positions: make(map[key]*position)}
}

// Deposited returns the collateral units the account holds in asset.
func (l *Ledger) Deposited(account, asset common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if p, ok := l.positions[key{account, asset}]; ok {
		return new(big.Int).Set(p.deposited)
	}
	return new(big.Int)
}

// Borrowed returns the debt units the account owes in asset.
func (l *Ledger) Borrowed(account, asset common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if p, ok := l.positions[key{account, asset}]; ok {
		return new(big.Int).Set(p.borrowed)
	}
	return new(big.Int)
}

// IncreaseDeposit adds amount to the account's collateral in asset.
func (l *Ledger) IncreaseDeposit(account, asset common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.position(account, asset)
	p.deposited.Add(p.deposited, amount)
}

// DecreaseDeposit removes amount from the account's collateral in asset.
func (l *Ledger) DecreaseDeposit(account, asset common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.position(account, asset)
	if p.deposited.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	p.deposited.Sub(p.deposited, amount)
	return nil
}

// IncreaseBorrowed adds amount to the account's debt in asset.
func (l *Ledger) IncreaseBorrowed(account, asset common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.position(account, asset)
	p.borrowed.Add(p.borrowed, amount)
}

// DecreaseBorrowed removes amount from the account's debt in asset.
func (l *Ledger) DecreaseBorrowed(account, asset common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.position(account, asset)
	if p.borrowed.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	p.borrowed.Sub(p.borrowed, amount)
	return nil
}

// position returns the record for the pair, materializing it on first
// touch. Callers hold l.mu.
func (l *Ledger) position(account, asset common.Address) *position {
	k := key{account, asset}
	p, ok := l.positions[k]
	if !ok {
		p = &position{deposited: new(big.Int), borrowed: new(big.Int)}
		l.positions[k] = p
	}
	return p
}
