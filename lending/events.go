package lending

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
)

// Event is an observable record of a completed operation.
type Event interface {
	Name() string
}

// Deposit is emitted when collateral enters the pool.
type Deposit struct {
	Account common.Address
	Asset   common.Address
	Amount  *big.Int
}

func (Deposit) Name() string { return "Deposit" }

// Withdraw is emitted when collateral leaves the pool.
type Withdraw struct {
	Account common.Address
	Asset   common.Address
	Amount  *big.Int
}

func (Withdraw) Name() string { return "Withdraw" }

// Borrow is emitted when debt is taken on.
type Borrow struct {
	Account common.Address
	Asset   common.Address
	Amount  *big.Int
}

func (Borrow) Name() string { return "Borrow" }

// Repay is emitted when debt is paid down. Amount is the capped amount
// actually repaid, never more than the outstanding debt.
type Repay struct {
	Account common.Address
	Asset   common.Address
	Amount  *big.Int
}

func (Repay) Name() string { return "Repay" }

// Liquidate is emitted when a third party covers part of an unsafe
// account's debt and seizes discounted collateral.
type Liquidate struct {
	Liquidator       common.Address
	Borrower         common.Address
	DebtAsset        common.Address
	CollateralAsset  common.Address
	DebtCovered      *big.Int
	CollateralSeized *big.Int
}

func (Liquidate) Name() string { return "Liquidate" }

// EventSink receives events as operations complete.
type EventSink interface {
	Emit(Event)
}

type nopSink struct{}

func (nopSink) Emit(Event) {}

// EventLog is an EventSink retaining the most recent events for the
// status surface. Older entries fall off once the bound is hit.
type EventLog struct {
	mu    sync.Mutex
	seq   uint64
	cache *lru.Cache
}

// NewEventLog creates a log keeping the last size events.
func NewEventLog(size int) (*EventLog, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &EventLog{cache: cache}, nil
}

// Emit records the event.
func (l *EventLog) Emit(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cache.Add(l.seq, ev)
	l.seq++
}

// Recent returns the retained events, oldest first.
func (l *EventLog) Recent() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	keys := l.cache.Keys()
	out := make([]Event, 0, len(keys))
	for _, k := range keys {
		if v, ok := l.cache.Peek(k); ok {
			out = append(out, v.(Event))
		}
	}
	return out
}
